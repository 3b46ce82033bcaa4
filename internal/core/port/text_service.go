package port

import "context"

// TextServicePort - внешний сервис "текст в текст" (LLM), чёрный ящик.
type TextServicePort interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
