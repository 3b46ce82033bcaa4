package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeImageRef(t *testing.T) {
	tests := []struct {
		ref  string
		want string
		ok   bool
	}{
		{"assets/images/a.jpg", "assets/images/a.jpg", true},
		{` assets\images\b.png `, "assets/images/b.png", true},
		{"data:image/png;base64,aGk=", "data:image/png;base64,aGk=", true},
		{"/etc/passwd", "", false},
		{`C:\x.jpg`, "", false},
		{"../../secret.jpg", "", false},
		{"assets/../../x.jpg", "", false},
		{"https://evil.example/x.jpg", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := SanitizeImageRef(tt.ref)
		assert.Equal(t, tt.ok, ok, tt.ref)
		assert.Equal(t, tt.want, got, tt.ref)
	}
}

func TestListing_SanitizeImages(t *testing.T) {
	l := Listing{Images: []string{"a.jpg", "/abs.jpg", "b.jpg"}}
	dropped := l.SanitizeImages()
	assert.Equal(t, []string{"/abs.jpg"}, dropped)
	assert.Equal(t, []string{"a.jpg", "b.jpg"}, l.Images)

	clean := Listing{Images: []string{"a.jpg"}}
	assert.Empty(t, clean.SanitizeImages())
	assert.Equal(t, []string{"a.jpg"}, clean.Images)
}
