package port

import (
	"context"
	"io"
)

// RemoteImagePort открывает поток с содержимым картинки по URL.
// Ошибки транспорта и неуспешный статус возвращаются как *domain.AssetFetchError.
type RemoteImagePort interface {
	Open(ctx context.Context, rawURL string) (io.ReadCloser, error)
}
