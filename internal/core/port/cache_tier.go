package port

import "context"

// CacheTierPort - локальное зеркало коллекции объявлений (один ключ, сериализованный JSON).
// Кэш не авторитетен и всегда восстанавливается из Durable Store.
type CacheTierPort interface {
	// Get возвращает found=false, если значения нет.
	Get(ctx context.Context) (data []byte, found bool, err error)
	Set(ctx context.Context, data []byte) error
	Clear(ctx context.Context) error
}
