package rest

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"room-listing-service/internal/core/domain"
	"room-listing-service/internal/core/usecase"

	"github.com/stretchr/testify/assert"
)

func TestStatusForError(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{domain.ErrNoFiles, http.StatusBadRequest},
		{fmt.Errorf("%w: a.txt", domain.ErrNotAnImage), http.StatusBadRequest},
		{usecase.ErrMissingRoomID, http.StatusBadRequest},
		{fmt.Errorf("%w: big.png", domain.ErrFileTooLarge), http.StatusRequestEntityTooLarge},
		{domain.ErrRoomNotFound, http.StatusNotFound},
		{&domain.IngestionServiceError{Stage: domain.StageInvoke, Err: errors.New("down")}, http.StatusBadGateway},
		{&domain.AssetFetchError{URL: "http://x", StatusCode: 404, Err: errors.New("not found")}, http.StatusBadGateway},
		{errors.New("disk full"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusForError(tt.err), tt.err.Error())
	}
}
