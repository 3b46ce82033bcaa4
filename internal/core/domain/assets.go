package domain

import (
	"fmt"
	"strings"
)

// UploadedImage - файл из multipart-запроса.
type UploadedImage struct {
	OriginalName string
	ContentType  string
	// Size - размер из multipart-заголовка; 0, если неизвестен
	Size int64
	Open func() (ReadSeekCloser, error)
}

// ReadSeekCloser совпадает с multipart.File без зависимости от mime/multipart.
type ReadSeekCloser interface {
	Read(p []byte) (n int, err error)
	Seek(offset int64, whence int) (int64, error)
	Close() error
}

// CleanupReport - результат сборки мусора в каталоге картинок.
type CleanupReport struct {
	Deleted []string `json:"files"`
	// Failed - файлы, которые не удалось удалить; сборка при этом продолжается
	Failed   []string `json:"failed,omitempty"`
	Retained int      `json:"retained"`
}

func (r CleanupReport) DeletedCount() int { return len(r.Deleted) }

const (
	// MaxUploadFiles - сколько картинок принимается за один запрос
	MaxUploadFiles = 10
	// MaxUploadFileSize - предел размера одной картинки
	MaxUploadFileSize int64 = 10 << 20
)

// CheckUpload проверяет MIME-тип и размер одной картинки.
func (u UploadedImage) CheckUpload() error {
	if !strings.HasPrefix(strings.ToLower(u.ContentType), "image/") {
		return fmt.Errorf("%w: %s (%s)", ErrNotAnImage, u.OriginalName, u.ContentType)
	}
	if u.Size > MaxUploadFileSize {
		return fmt.Errorf("%w: %s is %d bytes, limit is %d", ErrFileTooLarge, u.OriginalName, u.Size, MaxUploadFileSize)
	}
	return nil
}
