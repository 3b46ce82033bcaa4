package port

import (
	"context"
	"room-listing-service/internal/core/domain"
)

// DocumentStorePort - Durable Store: единственный документ со всеми объявлениями.
// Единственный законный путь изменения - прочитать весь документ, изменить в памяти
// и записать целиком; Update обязан сериализовать этот цикл.
type DocumentStorePort interface {
	Load(ctx context.Context) (*domain.ListingsDocument, error)
	// Update выполняет mutate над свежепрочитанным документом и записывает результат.
	// Если mutate вернул ошибку, документ не записывается.
	Update(ctx context.Context, mutate func(doc *domain.ListingsDocument) error) error
}
