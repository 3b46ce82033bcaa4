package port

import (
	"context"
	"io"
)

// AssetDirectoryPort - плоский каталог картинок рядом с Durable Store.
type AssetDirectoryPort interface {
	// Create записывает файл целиком. Файл с таким именем не перезаписывается.
	// При ошибке частично записанный файл удаляется.
	Create(ctx context.Context, name string, content io.Reader) (int64, error)
	List(ctx context.Context) ([]string, error)
	Remove(ctx context.Context, name string) error
	// PublicPath - относительный путь, который сохраняется в images.
	PublicPath(name string) string
}
