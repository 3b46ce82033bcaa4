package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"room-listing-service/internal/contextkeys"
	"room-listing-service/internal/core/domain"
	"room-listing-service/internal/core/port"
	"room-listing-service/internal/core/port/usecases_port"
)

const maxJSONBody = 1 << 20

type IngestHandlers struct {
	ingestUC usecases_port.IngestListingUseCase
}

func NewIngestHandlers(ingestUC usecases_port.IngestListingUseCase) *IngestHandlers {
	return &IngestHandlers{ingestUC: ingestUC}
}

// HandleIngest - обработчик для POST /api/v1/rooms/ingest
func (h *IngestHandlers) HandleIngest(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{"handler": "HandleIngest"})

	var reqDTO IngestRequestDTO
	if err := decodeJSONBody(w, r, &reqDTO); err != nil {
		WriteJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	listing, err := h.ingestUC.Execute(r.Context(), domain.IngestRequest{
		FreeText:   reqDTO.text(),
		ImageFiles: reqDTO.Images,
	})
	if err != nil {
		writeUseCaseError(w, logger, "Failed to add room", err)
		return
	}

	RespondWithJSON(w, http.StatusOK, IngestResponseDTO{
		Message: "Room added successfully",
		RoomID:  listing.ID,
		Room:    *listing,
	})
}

func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("Request body is empty")
		}
		return fmt.Errorf("Invalid request body: %v", err)
	}
	return nil
}
