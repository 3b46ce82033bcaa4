package rest

import (
	"encoding/json"
	"errors"
	"net/http"

	"room-listing-service/internal/core/domain"
	"room-listing-service/internal/core/port"
	"room-listing-service/internal/core/usecase"
)

// WriteJSONError отправляет JSON-ответ с полем "message" и заданным статусом
func WriteJSONError(w http.ResponseWriter, statusCode int, message string) {
	RespondWithJSON(w, statusCode, MessageResponseDTO{Message: message})
}

// RespondWithJSON отправляет JSON-ответ
func RespondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		http.Error(w, "Failed to marshal JSON response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}

// statusForError: ошибки ввода - 400, сбои внешних сервисов - 502, остальное - 500
func statusForError(err error) int {
	var (
		ingestErr *domain.IngestionServiceError
		parseErr  *domain.ParseFailure
		fetchErr  *domain.AssetFetchError
	)
	switch {
	case errors.Is(err, domain.ErrEmptyFreeText),
		errors.Is(err, domain.ErrNoFiles),
		errors.Is(err, domain.ErrTooManyFiles),
		errors.Is(err, domain.ErrNotAnImage),
		errors.Is(err, domain.ErrInvalidDocument),
		errors.Is(err, domain.ErrUnsupportedScheme),
		errors.Is(err, usecase.ErrMissingRoomID),
		errors.Is(err, usecase.ErrMissingImageURL):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, domain.ErrRoomNotFound):
		return http.StatusNotFound
	case errors.As(err, &ingestErr), errors.As(err, &parseErr), errors.As(err, &fetchErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeUseCaseError(w http.ResponseWriter, logger port.LoggerPort, msg string, err error) {
	status := statusForError(err)
	if status >= http.StatusInternalServerError {
		logger.Error(msg, err, port.Fields{"status_code": status})
	} else {
		logger.Warn(msg, port.Fields{"status_code": status, "error": err.Error()})
	}
	WriteJSONError(w, status, msg+": "+err.Error())
}
