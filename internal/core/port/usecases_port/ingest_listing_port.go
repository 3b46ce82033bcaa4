package usecases_port

import (
	"context"
	"room-listing-service/internal/core/domain"
)

type IngestListingUseCase interface {
	Execute(ctx context.Context, req domain.IngestRequest) (*domain.Listing, error)
}
