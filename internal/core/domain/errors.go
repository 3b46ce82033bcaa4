package domain

import (
	"errors"
	"fmt"
)

var (
	ErrRoomNotFound       = errors.New("room not found")
	ErrInvalidDocument    = errors.New("document does not contain a rooms array")
	ErrNoFiles            = errors.New("no files were uploaded")
	ErrTooManyFiles       = errors.New("too many files uploaded")
	ErrNotAnImage         = errors.New("file is not an image")
	ErrFileTooLarge       = errors.New("file is too large")
	ErrEmptyFreeText      = errors.New("free text is empty")
	ErrUnsupportedScheme  = errors.New("unsupported url scheme")
	ErrAssetAlreadyExists = errors.New("asset file already exists")
)

// ParseFailure - ответ текстового сервиса не удалось разобрать.
// Raw сохраняется целиком для диагностики.
type ParseFailure struct {
	Raw string
	Err error
}

func (e *ParseFailure) Error() string {
	return fmt.Sprintf("failed to parse text service response: %v", e.Err)
}

func (e *ParseFailure) Unwrap() error { return e.Err }

// Этапы пайплайна, на которых может упасть ингест
const (
	StageInvoke   = "invoke"
	StageParse    = "parse"
	StageValidate = "validate"
)

// IngestionServiceError - вызов текстового сервиса не удался
// или вернул непригодный ответ.
type IngestionServiceError struct {
	Stage string
	Raw   string
	Err   error
}

func (e *IngestionServiceError) Error() string {
	return fmt.Sprintf("ingestion failed at %s stage: %v", e.Stage, e.Err)
}

func (e *IngestionServiceError) Unwrap() error { return e.Err }

// AssetFetchError - скачать картинку по URL не удалось.
// StatusCode равен 0, если до ответа сервера дело не дошло.
type AssetFetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *AssetFetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("failed to fetch image %s: remote status %d: %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("failed to fetch image %s: %v", e.URL, e.Err)
}

func (e *AssetFetchError) Unwrap() error { return e.Err }

// LoadError - не удалось загрузить коллекцию ни из кэша, ни из хранилища.
type LoadError struct {
	Err error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to load rooms: %v", e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }
