package usecases_port

import (
	"context"
	"room-listing-service/internal/core/domain"
)

// RoomCatalogUseCase - Storage Tier Manager, как его видят REST-обработчики.
// Методы с индексом возвращают (nil, nil), если индекс вне диапазона.
type RoomCatalogUseCase interface {
	Load(ctx context.Context) ([]domain.Listing, error)
	Reload(ctx context.Context) ([]domain.Listing, error)
	Reset(ctx context.Context) ([]domain.Listing, error)
	Import(ctx context.Context, data []byte) ([]domain.Listing, error)
	DataSource(ctx context.Context) string

	Find(filter domain.RoomFilter) []domain.CatalogEntry
	ByID(id int64) (*domain.CatalogEntry, bool)

	Add(ctx context.Context, listing domain.Listing) (*domain.Listing, error)
	Update(ctx context.Context, index int, listing domain.Listing) (*domain.Listing, error)
	Delete(ctx context.Context, index int) (*domain.Listing, error)
	AppendImages(ctx context.Context, index int, files []domain.UploadedImage) (*domain.Listing, error)
}
