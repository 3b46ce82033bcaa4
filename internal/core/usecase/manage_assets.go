package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"room-listing-service/internal/contextkeys"
	"room-listing-service/internal/core/domain"
	"room-listing-service/internal/core/port"
)

// UploadImagesUseCase сохраняет загруженные картинки в каталог под новыми именами.
// Запрос обрабатывается целиком: если один файл не записался, уже записанные удаляются.
type UploadImagesUseCase struct {
	assets port.AssetDirectoryPort
	namer  *AssetNamer
}

func NewUploadImagesUseCase(assets port.AssetDirectoryPort, namer *AssetNamer) *UploadImagesUseCase {
	return &UploadImagesUseCase{assets: assets, namer: namer}
}

func (uc *UploadImagesUseCase) Execute(ctx context.Context, roomID string, files []domain.UploadedImage) ([]string, error) {
	logger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"use_case": "UploadImages",
		"room_id":  roomID,
		"files":    len(files),
	})

	if len(files) == 0 {
		return nil, domain.ErrNoFiles
	}
	if len(files) > domain.MaxUploadFiles {
		return nil, fmt.Errorf("%w: got %d, limit is %d", domain.ErrTooManyFiles, len(files), domain.MaxUploadFiles)
	}
	for _, f := range files {
		if err := f.CheckUpload(); err != nil {
			return nil, err
		}
	}

	names := make([]string, 0, len(files))
	for _, f := range files {
		name := uc.namer.Name(roomID, ExtFromFilename(f.OriginalName))
		if err := uc.store(ctx, name, f); err != nil {
			logger.Error("Failed to store uploaded image, rolling back", err, port.Fields{"file": f.OriginalName})
			for _, written := range names {
				if rmErr := uc.assets.Remove(ctx, written); rmErr != nil {
					logger.Warn("Failed to roll back uploaded image", port.Fields{"file": written, "error": rmErr.Error()})
				}
			}
			return nil, fmt.Errorf("failed to store %s: %w", f.OriginalName, err)
		}
		names = append(names, name)
	}

	logger.Info("Images uploaded", port.Fields{"names": names})
	return names, nil
}

func (uc *UploadImagesUseCase) store(ctx context.Context, name string, f domain.UploadedImage) error {
	src, err := f.Open()
	if err != nil {
		return err
	}
	defer src.Close()
	_, err = uc.assets.Create(ctx, name, src)
	return err
}

// FetchRemoteImageUseCase скачивает картинку по URL в каталог.
// Успех возвращается только после полной записи и закрытия файла.
type FetchRemoteImageUseCase struct {
	assets  port.AssetDirectoryPort
	remote  port.RemoteImagePort
	namer   *AssetNamer
	timeout time.Duration
}

func NewFetchRemoteImageUseCase(assets port.AssetDirectoryPort, remote port.RemoteImagePort, namer *AssetNamer, timeout time.Duration) *FetchRemoteImageUseCase {
	return &FetchRemoteImageUseCase{assets: assets, remote: remote, namer: namer, timeout: timeout}
}

var (
	ErrMissingRoomID   = errors.New("roomId is required")
	ErrMissingImageURL = errors.New("imageUrl is required")
)

func (uc *FetchRemoteImageUseCase) Execute(ctx context.Context, roomID, imageURL string) (string, error) {
	logger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"use_case":  "FetchRemoteImage",
		"room_id":   roomID,
		"image_url": imageURL,
	})

	if strings.TrimSpace(roomID) == "" {
		return "", ErrMissingRoomID
	}
	imageURL = strings.TrimSpace(imageURL)
	if imageURL == "" {
		return "", ErrMissingImageURL
	}

	u, err := url.Parse(imageURL)
	if err != nil {
		return "", &domain.AssetFetchError{URL: imageURL, Err: err}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", &domain.AssetFetchError{URL: imageURL, Err: fmt.Errorf("%w: %q", domain.ErrUnsupportedScheme, u.Scheme)}
	}

	if uc.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, uc.timeout)
		defer cancel()
	}

	name := uc.namer.Name(roomID, ExtFromURLPath(u.Path))

	body, err := uc.remote.Open(ctx, imageURL)
	if err != nil {
		logger.Error("Remote image request failed", err, nil)
		var fetchErr *domain.AssetFetchError
		if errors.As(err, &fetchErr) {
			return "", err
		}
		return "", &domain.AssetFetchError{URL: imageURL, Err: err}
	}
	defer body.Close()

	// Create сам удаляет недописанный файл при ошибке потока
	written, err := uc.assets.Create(ctx, name, body)
	if err != nil {
		logger.Error("Failed to stream remote image to disk", err, port.Fields{"file": name})
		return "", &domain.AssetFetchError{URL: imageURL, Err: err}
	}

	logger.Info("Remote image saved", port.Fields{"file": name, "bytes": written})
	return name, nil
}

// CollectOrphanImagesUseCase удаляет из каталога файлы, на которые не ссылается
// ни одно объявление. Работает только по Durable Store, никогда по кэшу.
type CollectOrphanImagesUseCase struct {
	store  port.DocumentStorePort
	assets port.AssetDirectoryPort
	events port.ListingEventsPort
}

func NewCollectOrphanImagesUseCase(store port.DocumentStorePort, assets port.AssetDirectoryPort, events port.ListingEventsPort) *CollectOrphanImagesUseCase {
	return &CollectOrphanImagesUseCase{store: store, assets: assets, events: events}
}

func (uc *CollectOrphanImagesUseCase) Execute(ctx context.Context) (*domain.CleanupReport, error) {
	logger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{"use_case": "CollectOrphanImages"})

	doc, err := uc.store.Load(ctx)
	if err != nil {
		logger.Error("Failed to read durable store", err, nil)
		return nil, fmt.Errorf("failed to read rooms document: %w", err)
	}
	used := ReferencedImageNames(doc.Rooms)

	files, err := uc.assets.List(ctx)
	if err != nil {
		logger.Error("Failed to list asset directory", err, nil)
		return nil, fmt.Errorf("failed to list images: %w", err)
	}

	report := &domain.CleanupReport{Deleted: []string{}}
	for _, file := range files {
		if _, ok := used[file]; ok {
			report.Retained++
			continue
		}
		if err := uc.assets.Remove(ctx, file); err != nil {
			logger.Error("Failed to delete unused image", err, port.Fields{"file": file})
			report.Failed = append(report.Failed, file)
			continue
		}
		logger.Info("Deleted unused image", port.Fields{"file": file})
		report.Deleted = append(report.Deleted, file)
	}

	if uc.events != nil && len(report.Deleted) > 0 {
		if err := uc.events.AssetsCollected(ctx, *report); err != nil {
			logger.Error("Failed to publish assets collected event", err, nil)
		}
	}

	logger.Info("Orphan collection finished", port.Fields{
		"deleted":  len(report.Deleted),
		"failed":   len(report.Failed),
		"retained": report.Retained,
	})
	return report, nil
}

// ReferencedImageNames - множество базовых имён файлов из images всех объявлений.
// Встроенные data URI файлами не являются и пропускаются.
func ReferencedImageNames(rooms []domain.Listing) map[string]struct{} {
	used := make(map[string]struct{})
	for _, room := range rooms {
		for _, img := range room.Images {
			if img == "" || domain.IsInlineImage(img) {
				continue
			}
			ref := strings.ReplaceAll(img, `\`, "/")
			if u, err := url.Parse(ref); err == nil && u.Scheme != "" && u.Path != "" {
				ref = u.Path
			}
			used[path.Base(ref)] = struct{}{}
		}
	}
	return used
}
