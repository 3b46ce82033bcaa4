package localfs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"room-listing-service/internal/core/domain"
)

// AssetDirectory - плоский каталог картинок на локальном диске.
// Имена файлов не могут содержать разделители путей.
type AssetDirectory struct {
	dir          string
	publicPrefix string
}

func NewAssetDirectory(dir, publicPrefix string) (*AssetDirectory, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create asset directory %s: %w", dir, err)
	}
	return &AssetDirectory{dir: dir, publicPrefix: strings.TrimRight(publicPrefix, "/")}, nil
}

func (d *AssetDirectory) Dir() string { return d.dir }

func (d *AssetDirectory) Create(ctx context.Context, name string, content io.Reader) (int64, error) {
	full, err := d.resolve(name)
	if err != nil {
		return 0, err
	}

	f, err := os.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, fs.ErrExist) {
		return 0, fmt.Errorf("%w: %s", domain.ErrAssetAlreadyExists, name)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to create %s: %w", name, err)
	}

	written, err := io.Copy(f, &ctxReader{ctx: ctx, r: content})
	if err == nil {
		err = f.Sync()
	}
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(full)
		return 0, fmt.Errorf("failed to write %s: %w", name, err)
	}
	return written, nil
}

// List возвращает обычные файлы каталога. Скрытые файлы (.gitkeep и т.п.) не учитываются.
func (d *AssetDirectory) List(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(d.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read asset directory %s: %w", d.dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.Type().IsRegular() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

func (d *AssetDirectory) Remove(_ context.Context, name string) error {
	full, err := d.resolve(name)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil {
		return fmt.Errorf("failed to remove %s: %w", name, err)
	}
	return nil
}

func (d *AssetDirectory) PublicPath(name string) string {
	if d.publicPrefix == "" {
		return name
	}
	return path.Join(d.publicPrefix, name)
}

func (d *AssetDirectory) resolve(name string) (string, error) {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("invalid asset name %q", name)
	}
	return filepath.Join(d.dir, name), nil
}

// ctxReader прерывает копирование, когда контекст отменён
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
