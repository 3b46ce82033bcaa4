package rest

import (
	"mime/multipart"
	"net/http"

	"room-listing-service/internal/contextkeys"
	"room-listing-service/internal/core/domain"
	"room-listing-service/internal/core/port"
	"room-listing-service/internal/core/port/usecases_port"
)

// maxMultipartMemory - сколько multipart-данных держим в памяти, остальное уходит во временные файлы
const maxMultipartMemory = 32 << 20

type AssetHandlers struct {
	uploadUC  usecases_port.UploadImagesUseCase
	fetchUC   usecases_port.FetchRemoteImageUseCase
	cleanupUC usecases_port.CollectOrphanImagesUseCase
	assets    port.AssetDirectoryPort
}

func NewAssetHandlers(uploadUC usecases_port.UploadImagesUseCase,
	fetchUC usecases_port.FetchRemoteImageUseCase,
	cleanupUC usecases_port.CollectOrphanImagesUseCase,
	assets port.AssetDirectoryPort) *AssetHandlers {
	return &AssetHandlers{
		uploadUC:  uploadUC,
		fetchUC:   fetchUC,
		cleanupUC: cleanupUC,
		assets:    assets,
	}
}

// HandleUpload - обработчик для POST /api/v1/images/upload (multipart: images[], roomId)
func (h *AssetHandlers) HandleUpload(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{"handler": "HandleUpload"})

	files, err := multipartImages(r, "images")
	if err != nil {
		WriteJSONError(w, http.StatusBadRequest, "Invalid multipart form: "+err.Error())
		return
	}

	names, err := h.uploadUC.Execute(r.Context(), r.FormValue("roomId"), files)
	if err != nil {
		writeUseCaseError(w, logger, "Failed to upload images", err)
		return
	}

	paths := make([]string, len(names))
	for i, name := range names {
		paths[i] = h.assets.PublicPath(name)
	}
	RespondWithJSON(w, http.StatusOK, UploadImagesResponseDTO{Files: names, Paths: paths})
}

// HandleFetch - обработчик для POST /api/v1/images/fetch
func (h *AssetHandlers) HandleFetch(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{"handler": "HandleFetch"})

	var reqDTO FetchImageRequestDTO
	if err := decodeJSONBody(w, r, &reqDTO); err != nil {
		WriteJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	name, err := h.fetchUC.Execute(r.Context(), string(reqDTO.RoomID), reqDTO.ImageURL)
	if err != nil {
		writeUseCaseError(w, logger, "Failed to download image", err)
		return
	}
	RespondWithJSON(w, http.StatusOK, FetchImageResponseDTO{File: name, Path: h.assets.PublicPath(name)})
}

// HandleCleanup - обработчик для POST /api/v1/images/cleanup
func (h *AssetHandlers) HandleCleanup(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{"handler": "HandleCleanup"})

	report, err := h.cleanupUC.Execute(r.Context())
	if err != nil {
		writeUseCaseError(w, logger, "Failed to clean up images", err)
		return
	}
	RespondWithJSON(w, http.StatusOK, CleanupResponseDTO{
		Deleted:  report.DeletedCount(),
		Files:    report.Deleted,
		Failed:   report.Failed,
		Retained: report.Retained,
	})
}

// multipartImages разбирает форму и возвращает файлы поля field.
// Содержимое открывается лениво, через FileHeader.Open.
func multipartImages(r *http.Request, field string) ([]domain.UploadedImage, error) {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		return nil, err
	}
	headers := r.MultipartForm.File[field]
	files := make([]domain.UploadedImage, 0, len(headers))
	for _, fh := range headers {
		files = append(files, uploadedFromHeader(fh))
	}
	return files, nil
}

func uploadedFromHeader(fh *multipart.FileHeader) domain.UploadedImage {
	return domain.UploadedImage{
		OriginalName: fh.Filename,
		ContentType:  fh.Header.Get("Content-Type"),
		Size:         fh.Size,
		Open: func() (domain.ReadSeekCloser, error) {
			return fh.Open()
		},
	}
}
