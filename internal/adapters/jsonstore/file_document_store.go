package jsonstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"room-listing-service/internal/contextkeys"
	"room-listing-service/internal/core/domain"
	"room-listing-service/internal/core/port"
)

// FileDocumentStore - Durable Store в одном JSON-файле.
// Все записи проходят через mutex, файл заменяется атомарно (temp + rename).
// Верхнеуровневые ключи кроме "rooms" сохраняются как есть.
type FileDocumentStore struct {
	path string
	mu   sync.Mutex
}

func NewFileDocumentStore(path string) *FileDocumentStore {
	return &FileDocumentStore{path: path}
}

func (s *FileDocumentStore) Path() string { return s.path }

func (s *FileDocumentStore) Load(ctx context.Context) (*domain.ListingsDocument, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, _, err := s.read(ctx)
	return doc, err
}

func (s *FileDocumentStore) Update(ctx context.Context, mutate func(doc *domain.ListingsDocument) error) error {
	logger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"component": "FileDocumentStore",
		"path":      s.path,
	})

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, extra, err := s.read(ctx)
	if err != nil {
		return err
	}
	if err := mutate(doc); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.write(doc, extra); err != nil {
		logger.Error("Failed to write rooms document", err, nil)
		return err
	}
	logger.Debug("Rooms document written", port.Fields{"rooms": len(doc.Rooms)})
	return nil
}

// read: отсутствующий или пустой файл - пустой документ
func (s *FileDocumentStore) read(ctx context.Context) (*domain.ListingsDocument, map[string]json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return &domain.ListingsDocument{Rooms: []domain.Listing{}}, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read %s: %w", s.path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return &domain.ListingsDocument{Rooms: []domain.Listing{}}, nil, nil
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, nil, fmt.Errorf("%s is not a JSON object: %w", s.path, err)
	}

	doc := &domain.ListingsDocument{}
	if raw, ok := top["rooms"]; ok {
		if err := json.Unmarshal(raw, &doc.Rooms); err != nil {
			return nil, nil, fmt.Errorf("failed to decode rooms in %s: %w", s.path, err)
		}
		delete(top, "rooms")
	}
	if doc.Rooms == nil {
		doc.Rooms = []domain.Listing{}
	}
	return doc, top, nil
}

func (s *FileDocumentStore) write(doc *domain.ListingsDocument, extra map[string]json.RawMessage) error {
	rooms, err := json.Marshal(doc.Rooms)
	if err != nil {
		return fmt.Errorf("failed to encode rooms: %w", err)
	}
	out := make(map[string]json.RawMessage, len(extra)+1)
	for k, v := range extra {
		out[k] = v
	}
	out["rooms"] = rooms

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}

	if _, err := tmp.Write(data); err != nil {
		cleanup()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to chmod temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to replace %s: %w", s.path, err)
	}
	return nil
}
