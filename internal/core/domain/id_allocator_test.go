package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextListingID(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want int64
	}{
		{"empty store", `{"rooms":[]}`, 1},
		{"sequential ids", `{"rooms":[{"id":1},{"id":2},{"id":3}]}`, 4},
		{"unordered ids", `{"rooms":[{"id":10},{"id":2}]}`, 11},
		{"corrupted ids ignored", `{"rooms":[{"id":null},{"id":"77"},{"id":4}]}`, 5},
		{"only corrupted ids", `{"rooms":[{"id":null},{"id":"x"}]}`, 1},
		{"negative ids", `{"rooms":[{"id":-5}]}`, -4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var doc ListingsDocument
			require.NoError(t, json.Unmarshal([]byte(tt.doc), &doc))

			got := NextListingID(doc.Rooms)
			assert.Equal(t, tt.want, got)
			assert.False(t, ContainsID(doc.Rooms, got))
		})
	}
}

func TestNextListingID_StrictlyGreaterThanEveryValidID(t *testing.T) {
	rooms := []Listing{{ID: NewListingID(42)}, {ID: NewListingID(7)}, {}}
	next := NextListingID(rooms)
	for _, r := range rooms {
		if v, ok := r.ID.Int64(); ok {
			assert.Greater(t, next, v)
		}
	}
}
