package rest

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"room-listing-service/internal/contextkeys"
	"room-listing-service/internal/core/domain"
	"room-listing-service/internal/core/port"
	"room-listing-service/internal/core/port/usecases_port"

	"github.com/go-chi/chi/v5"
)

const maxImportBody = 32 << 20

type CatalogHandlers struct {
	catalog usecases_port.RoomCatalogUseCase
}

func NewCatalogHandlers(catalog usecases_port.RoomCatalogUseCase) *CatalogHandlers {
	return &CatalogHandlers{catalog: catalog}
}

// HandleList - GET /api/v1/rooms?q=&price=&area=
func (h *CatalogHandlers) HandleList(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := domain.RoomFilter{
		Query:    query.Get("q"),
		Price:    domain.PriceBucket(query.Get("price")),
		AreaCode: query.Get("area"),
	}
	entries := h.catalog.Find(filter)
	RespondWithJSON(w, http.StatusOK, CatalogResponseDTO{
		Source: h.catalog.DataSource(r.Context()),
		Total:  len(entries),
		Rooms:  toCatalogEntries(entries),
	})
}

// HandleSource - GET /api/v1/rooms/source
func (h *CatalogHandlers) HandleSource(w http.ResponseWriter, r *http.Request) {
	RespondWithJSON(w, http.StatusOK, SourceResponseDTO{Source: h.catalog.DataSource(r.Context())})
}

// HandleGetByID - GET /api/v1/rooms/id/{roomID}
func (h *CatalogHandlers) HandleGetByID(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "roomID"), 10, 64)
	if err != nil {
		WriteJSONError(w, http.StatusBadRequest, "Room id must be an integer")
		return
	}
	entry, ok := h.catalog.ByID(id)
	if !ok {
		WriteJSONError(w, http.StatusNotFound, domain.ErrRoomNotFound.Error())
		return
	}
	RespondWithJSON(w, http.StatusOK, CatalogEntryDTO{Index: entry.Index, Room: entry.Listing})
}

// HandleAdd - POST /api/v1/rooms
func (h *CatalogHandlers) HandleAdd(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{"handler": "HandleAdd"})

	var listing domain.Listing
	if err := decodeJSONBody(w, r, &listing); err != nil {
		WriteJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	added, err := h.catalog.Add(r.Context(), listing)
	h.respondMutation(w, logger, http.StatusCreated, added, err)
}

// HandleUpdate - PUT /api/v1/rooms/{index}
func (h *CatalogHandlers) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{"handler": "HandleUpdate"})

	index, ok := indexParam(w, r)
	if !ok {
		return
	}
	var listing domain.Listing
	if err := decodeJSONBody(w, r, &listing); err != nil {
		WriteJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	updated, err := h.catalog.Update(r.Context(), index, listing)
	h.respondMutation(w, logger, http.StatusOK, updated, err)
}

// HandleDelete - DELETE /api/v1/rooms/{index}
func (h *CatalogHandlers) HandleDelete(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{"handler": "HandleDelete"})

	index, ok := indexParam(w, r)
	if !ok {
		return
	}
	deleted, err := h.catalog.Delete(r.Context(), index)
	h.respondMutation(w, logger, http.StatusOK, deleted, err)
}

// HandleAppendImages - POST /api/v1/rooms/{index}/images (multipart: images[])
func (h *CatalogHandlers) HandleAppendImages(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{"handler": "HandleAppendImages"})

	index, ok := indexParam(w, r)
	if !ok {
		return
	}
	files, err := multipartImages(r, "images")
	if err != nil {
		WriteJSONError(w, http.StatusBadRequest, "Invalid multipart form: "+err.Error())
		return
	}
	updated, err := h.catalog.AppendImages(r.Context(), index, files)
	h.respondMutation(w, logger, http.StatusOK, updated, err)
}

// HandleReload - POST /api/v1/rooms/reload
func (h *CatalogHandlers) HandleReload(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{"handler": "HandleReload"})

	rooms, err := h.catalog.Reload(r.Context())
	if err != nil && rooms == nil {
		writeUseCaseError(w, logger, "Failed to reload rooms", err)
		return
	}
	if err != nil {
		logger.Warn("Rooms reloaded with cache tier error", port.Fields{"error": err.Error()})
	}
	RespondWithJSON(w, http.StatusOK, RoomsResponseDTO{Source: domain.DataSourceDurable, Rooms: rooms})
}

// HandleReset - POST /api/v1/rooms/reset
func (h *CatalogHandlers) HandleReset(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{"handler": "HandleReset"})

	rooms, err := h.catalog.Reset(r.Context())
	if err != nil && rooms == nil {
		writeUseCaseError(w, logger, "Failed to reset rooms", err)
		return
	}
	if err != nil {
		logger.Warn("Rooms reset with cache tier error", port.Fields{"error": err.Error()})
	}
	RespondWithJSON(w, http.StatusOK, RoomsResponseDTO{Source: domain.DataSourceDurable, Rooms: rooms})
}

// HandleImport - POST /api/v1/rooms/import; тело - JSON-документ или multipart-поле file
func (h *CatalogHandlers) HandleImport(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{"handler": "HandleImport"})

	data, err := importPayload(w, r)
	if err != nil {
		WriteJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	rooms, err := h.catalog.Import(r.Context(), data)
	if err != nil && rooms == nil {
		writeUseCaseError(w, logger, "Failed to import rooms", err)
		return
	}
	if err != nil {
		logger.Warn("Rooms imported with cache tier error", port.Fields{"error": err.Error()})
	}
	RespondWithJSON(w, http.StatusOK, RoomsResponseDTO{Rooms: rooms})
}

// respondMutation: (nil, nil) от каталога - индекс вне диапазона.
// Ошибка записи в кэш не отменяет мутацию в памяти, поэтому результат всё равно отдаётся.
func (h *CatalogHandlers) respondMutation(w http.ResponseWriter, logger port.LoggerPort, status int, listing *domain.Listing, err error) {
	if listing == nil {
		if err != nil {
			writeUseCaseError(w, logger, "Failed to modify rooms", err)
			return
		}
		WriteJSONError(w, http.StatusNotFound, domain.ErrRoomNotFound.Error())
		return
	}
	if err != nil {
		logger.Warn("Room changed in memory but cache tier write failed", port.Fields{"error": err.Error()})
	}
	RespondWithJSON(w, status, listing)
}

func indexParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		WriteJSONError(w, http.StatusBadRequest, "Index must be an integer")
		return 0, false
	}
	return index, true
}

func importPayload(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImportBody)
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		file, _, err := r.FormFile("file")
		if err != nil {
			return nil, err
		}
		defer file.Close()
		return io.ReadAll(file)
	}
	data, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, errors.New("Request body is empty")
	}
	return data, nil
}
