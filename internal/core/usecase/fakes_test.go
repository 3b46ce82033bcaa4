package usecase

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"sort"
	"sync"

	"room-listing-service/internal/core/domain"
)

type memoryStore struct {
	mu      sync.Mutex
	doc     domain.ListingsDocument
	loadErr error
	// beforeUpdate имитирует конкурентного писателя между Load и Update
	beforeUpdate func(doc *domain.ListingsDocument)
}

func newMemoryStore(rooms ...domain.Listing) *memoryStore {
	if rooms == nil {
		rooms = []domain.Listing{}
	}
	return &memoryStore{doc: domain.ListingsDocument{Rooms: rooms}}
}

func (s *memoryStore) Load(_ context.Context) (*domain.ListingsDocument, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	return &domain.ListingsDocument{Rooms: domain.CloneListings(s.doc.Rooms)}, nil
}

func (s *memoryStore) Update(_ context.Context, mutate func(doc *domain.ListingsDocument) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.beforeUpdate != nil {
		s.beforeUpdate(&s.doc)
		s.beforeUpdate = nil
	}
	doc := domain.ListingsDocument{Rooms: domain.CloneListings(s.doc.Rooms)}
	if err := mutate(&doc); err != nil {
		return err
	}
	s.doc = doc
	return nil
}

func (s *memoryStore) rooms() []domain.Listing {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.CloneListings(s.doc.Rooms)
}

// retryingStore вызывает mutate по разу на каждый снимок attempts,
// как хранилище с CAS, у которого первые попытки проиграли гонку.
// Сохраняется результат последней попытки.
type retryingStore struct {
	attempts [][]domain.Listing
	doc      domain.ListingsDocument
}

func (s *retryingStore) Load(_ context.Context) (*domain.ListingsDocument, error) {
	return &domain.ListingsDocument{Rooms: domain.CloneListings(s.attempts[0])}, nil
}

func (s *retryingStore) Update(_ context.Context, mutate func(doc *domain.ListingsDocument) error) error {
	for _, rooms := range s.attempts {
		doc := domain.ListingsDocument{Rooms: domain.CloneListings(rooms)}
		if err := mutate(&doc); err != nil {
			return err
		}
		s.doc = doc
	}
	return nil
}

type memoryCache struct {
	data   []byte
	found  bool
	setErr error
}

func (c *memoryCache) Get(_ context.Context) ([]byte, bool, error) {
	return c.data, c.found, nil
}

func (c *memoryCache) Set(_ context.Context, data []byte) error {
	if c.setErr != nil {
		return c.setErr
	}
	c.data, c.found = append([]byte(nil), data...), true
	return nil
}

func (c *memoryCache) Clear(_ context.Context) error {
	c.data, c.found = nil, false
	return nil
}

type fakeTextService struct {
	response string
	err      error
	prompts  []string
}

func (f *fakeTextService) Generate(_ context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.response, f.err
}

// mapAssets - каталог картинок в памяти
type mapAssets struct {
	mu        sync.Mutex
	files     map[string][]byte
	failOn    map[string]bool
	removeErr map[string]error
}

func newMapAssets(names ...string) *mapAssets {
	a := &mapAssets{files: map[string][]byte{}, failOn: map[string]bool{}, removeErr: map[string]error{}}
	for _, n := range names {
		a.files[n] = []byte("img")
	}
	return a
}

func (a *mapAssets) Create(_ context.Context, name string, r io.Reader) (int64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.files[name]; ok {
		return 0, domain.ErrAssetAlreadyExists
	}
	if a.failOn[name] {
		return 0, errors.New("disk full")
	}
	content, err := io.ReadAll(r)
	if err != nil {
		return 0, err
	}
	a.files[name] = content
	return int64(len(content)), nil
}

func (a *mapAssets) List(_ context.Context) ([]string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	names := make([]string, 0, len(a.files))
	for n := range a.files {
		names = append(names, n)
	}
	sort.Strings(names)
	return names, nil
}

func (a *mapAssets) Remove(_ context.Context, name string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.removeErr[name]; err != nil {
		return err
	}
	if _, ok := a.files[name]; !ok {
		return os.ErrNotExist
	}
	delete(a.files, name)
	return nil
}

func (a *mapAssets) PublicPath(name string) string {
	return "assets/images/" + name
}

func (a *mapAssets) names() []string {
	names, _ := a.List(context.Background())
	return names
}

type fakeRemote struct {
	body []byte
	err  error
}

func (f *fakeRemote) Open(_ context.Context, _ string) (io.ReadCloser, error) {
	if f.err != nil {
		return nil, f.err
	}
	return io.NopCloser(bytes.NewReader(f.body)), nil
}

type recordedEvents struct {
	ingested  []domain.Listing
	collected []domain.CleanupReport
}

func (e *recordedEvents) ListingIngested(_ context.Context, l domain.Listing) error {
	e.ingested = append(e.ingested, l)
	return nil
}

func (e *recordedEvents) AssetsCollected(_ context.Context, r domain.CleanupReport) error {
	e.collected = append(e.collected, r)
	return nil
}

type nopReadSeekCloser struct {
	*bytes.Reader
}

func (nopReadSeekCloser) Close() error { return nil }

func uploaded(name, contentType, content string) domain.UploadedImage {
	return domain.UploadedImage{
		OriginalName: name,
		ContentType:  contentType,
		Size:         int64(len(content)),
		Open: func() (domain.ReadSeekCloser, error) {
			return nopReadSeekCloser{bytes.NewReader([]byte(content))}, nil
		},
	}
}

func room(id int64, title string, images ...string) domain.Listing {
	return domain.Listing{ID: domain.NewListingID(id), Title: title, Images: images}
}

func price(v float64) *float64 { return &v }
