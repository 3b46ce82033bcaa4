package port

import (
	"context"
	"room-listing-service/internal/core/domain"
)

// ListingEventsPort публикует события для других сервисов.
// Ошибка публикации не должна отменять уже выполненную операцию.
type ListingEventsPort interface {
	ListingIngested(ctx context.Context, listing domain.Listing) error
	AssetsCollected(ctx context.Context, report domain.CleanupReport) error
}
