package usecases_port

import (
	"context"
	"room-listing-service/internal/core/domain"
)

type UploadImagesUseCase interface {
	Execute(ctx context.Context, roomID string, files []domain.UploadedImage) ([]string, error)
}

type FetchRemoteImageUseCase interface {
	Execute(ctx context.Context, roomID, imageURL string) (string, error)
}

type CollectOrphanImagesUseCase interface {
	Execute(ctx context.Context) (*domain.CleanupReport, error)
}
