package usecase

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"room-listing-service/internal/contextkeys"
	"room-listing-service/internal/core/domain"
	"room-listing-service/internal/core/port"
	"room-listing-service/internal/core/port/usecases_port"
)

// RoomCatalog владеет коллекцией объявлений в памяти.
// Читает сначала кэш, потом Durable Store; каждая мутация пишется в кэш.
// В Durable Store каталог никогда не пишет.
//
// Жизненный цикл: NewRoomCatalog → Load → мутации → Close.
type RoomCatalog struct {
	store port.DocumentStorePort
	cache port.CacheTierPort
	areas domain.AreaKeywords
	now   func() time.Time

	mu     sync.RWMutex
	rooms  []domain.Listing
	lastID int64
}

func NewRoomCatalog(store port.DocumentStorePort, cache port.CacheTierPort, areas domain.AreaKeywords) *RoomCatalog {
	if areas == nil {
		areas = domain.DefaultAreaKeywords()
	}
	return &RoomCatalog{
		store: store,
		cache: cache,
		areas: areas,
		now:   time.Now,
		rooms: []domain.Listing{},
	}
}

// Load: если в кэше есть значение - используем его (битое значение пропускаем),
// иначе читаем Durable Store и заполняем кэш. При ошибке хранилища коллекция
// становится пустой, а ошибка возвращается как *domain.LoadError.
func (c *RoomCatalog) Load(ctx context.Context) ([]domain.Listing, error) {
	logger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{"component": "RoomCatalog", "op": "Load"})

	c.mu.Lock()
	defer c.mu.Unlock()

	data, found, err := c.cache.Get(ctx)
	switch {
	case err != nil:
		logger.Warn("Cache tier read failed, falling back to durable store", port.Fields{"error": err.Error()})
	case found:
		var rooms []domain.Listing
		if err := json.Unmarshal(data, &rooms); err != nil {
			logger.Warn("Cached rooms are corrupted, falling back to durable store", port.Fields{"error": err.Error()})
			break
		}
		if rooms == nil {
			rooms = []domain.Listing{}
		}
		c.rooms = rooms
		logger.Debug("Rooms loaded from cache tier", port.Fields{"count": len(rooms)})
		return domain.CloneListings(c.rooms), nil
	}

	rooms, err := c.fetchDurable(ctx)
	if err != nil {
		c.rooms = []domain.Listing{}
		logger.Error("Failed to load rooms from durable store", err, nil)
		return []domain.Listing{}, &domain.LoadError{Err: err}
	}
	c.rooms = rooms
	if err := c.saveLocked(ctx); err != nil {
		logger.Warn("Failed to populate cache tier", port.Fields{"error": err.Error()})
	}
	logger.Info("Rooms loaded from durable store", port.Fields{"count": len(rooms)})
	return domain.CloneListings(c.rooms), nil
}

// Reload безусловно перечитывает Durable Store и перезаписывает кэш.
// При ошибке текущая коллекция не меняется.
func (c *RoomCatalog) Reload(ctx context.Context) ([]domain.Listing, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reloadLocked(ctx)
}

// Reset очищает кэш и перезагружает коллекцию из Durable Store.
func (c *RoomCatalog) Reset(ctx context.Context) ([]domain.Listing, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.cache.Clear(ctx); err != nil {
		return nil, fmt.Errorf("failed to clear cache tier: %w", err)
	}
	return c.reloadLocked(ctx)
}

func (c *RoomCatalog) reloadLocked(ctx context.Context) ([]domain.Listing, error) {
	logger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{"component": "RoomCatalog", "op": "Reload"})

	rooms, err := c.fetchDurable(ctx)
	if err != nil {
		logger.Error("Failed to reload rooms from durable store", err, nil)
		return nil, &domain.LoadError{Err: err}
	}
	c.rooms = rooms
	if err := c.saveLocked(ctx); err != nil {
		return domain.CloneListings(c.rooms), fmt.Errorf("rooms reloaded but cache tier write failed: %w", err)
	}
	logger.Info("Rooms reloaded from durable store", port.Fields{"count": len(rooms)})
	return domain.CloneListings(c.rooms), nil
}

func (c *RoomCatalog) fetchDurable(ctx context.Context) ([]domain.Listing, error) {
	doc, err := c.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	if doc == nil || doc.Rooms == nil {
		return []domain.Listing{}, nil
	}
	return domain.CloneListings(doc.Rooms), nil
}

// Save сериализует текущую коллекцию в кэш.
func (c *RoomCatalog) Save(ctx context.Context) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.saveLocked(ctx)
}

func (c *RoomCatalog) saveLocked(ctx context.Context) error {
	data, err := json.Marshal(c.rooms)
	if err != nil {
		return fmt.Errorf("failed to serialize rooms: %w", err)
	}
	return c.cache.Set(ctx, data)
}

// Import заменяет коллекцию содержимым документа вида {"rooms": [...]}.
func (c *RoomCatalog) Import(ctx context.Context, data []byte) ([]domain.Listing, error) {
	var envelope struct {
		Rooms json.RawMessage `json:"rooms"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("cannot read document: %w", err)
	}
	trimmed := bytes.TrimSpace(envelope.Rooms)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, domain.ErrInvalidDocument
	}
	var rooms []domain.Listing
	if err := json.Unmarshal(trimmed, &rooms); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidDocument, err)
	}

	logger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{"component": "RoomCatalog", "op": "Import"})
	for i := range rooms {
		dropUnsafeImages(logger, &rooms[i])
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.rooms = rooms
	return domain.CloneListings(c.rooms), c.saveLocked(ctx)
}

// DataSource сообщает, откуда будет загружена коллекция.
func (c *RoomCatalog) DataSource(ctx context.Context) string {
	if _, found, err := c.cache.Get(ctx); err == nil && found {
		return domain.DataSourceCache
	}
	return domain.DataSourceDurable
}

func (c *RoomCatalog) All() []domain.Listing {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return domain.CloneListings(c.rooms)
}

// Find применяет фильтры и сохраняет позиции объявлений в коллекции.
func (c *RoomCatalog) Find(filter domain.RoomFilter) []domain.CatalogEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entries := make([]domain.CatalogEntry, 0, len(c.rooms))
	for i, room := range c.rooms {
		if len(filter.Apply([]domain.Listing{room}, c.areas)) == 1 {
			entries = append(entries, domain.CatalogEntry{Index: i, Listing: room.Clone()})
		}
	}
	return entries
}

func (c *RoomCatalog) ByID(id int64) (*domain.CatalogEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for i, room := range c.rooms {
		if v, ok := room.ID.Int64(); ok && v == id {
			return &domain.CatalogEntry{Index: i, Listing: room.Clone()}, true
		}
	}
	return nil, false
}

// Add назначает новый id и добавляет объявление в конец.
// Ошибка означает сбой записи в кэш; коллекция в памяти при этом уже изменена.
func (c *RoomCatalog) Add(ctx context.Context, listing domain.Listing) (*domain.Listing, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	listing = listing.Clone()
	listing.ID = domain.NewListingID(c.freshIDLocked())
	dropUnsafeImages(contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{"component": "RoomCatalog", "op": "Add"}), &listing)
	c.rooms = append(c.rooms, listing)

	result := listing.Clone()
	return &result, c.saveLocked(ctx)
}

// Update заменяет объявление по позиции, сохраняя исходный id.
// Индекс вне диапазона - (nil, nil).
func (c *RoomCatalog) Update(ctx context.Context, index int, listing domain.Listing) (*domain.Listing, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if index < 0 || index >= len(c.rooms) {
		return nil, nil
	}
	listing = listing.Clone()
	listing.ID = c.rooms[index].ID
	dropUnsafeImages(contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{"component": "RoomCatalog", "op": "Update"}), &listing)
	c.rooms[index] = listing

	result := listing.Clone()
	return &result, c.saveLocked(ctx)
}

// Delete удаляет объявление по позиции и возвращает его. Индекс вне диапазона - (nil, nil).
func (c *RoomCatalog) Delete(ctx context.Context, index int) (*domain.Listing, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if index < 0 || index >= len(c.rooms) {
		return nil, nil
	}
	deleted := c.rooms[index]
	c.rooms = append(c.rooms[:index:index], c.rooms[index+1:]...)

	return &deleted, c.saveLocked(ctx)
}

// AppendImages добавляет картинки к объявлению как data URI.
// Файлы, чей MIME-тип не начинается с image/, пропускаются.
func (c *RoomCatalog) AppendImages(ctx context.Context, index int, files []domain.UploadedImage) (*domain.Listing, error) {
	inline := make([]string, 0, len(files))
	for _, f := range files {
		if !strings.HasPrefix(strings.ToLower(f.ContentType), "image/") {
			continue
		}
		if f.Size > domain.MaxUploadFileSize {
			return nil, fmt.Errorf("%w: %s is %d bytes, limit is %d", domain.ErrFileTooLarge, f.OriginalName, f.Size, domain.MaxUploadFileSize)
		}
		uri, err := toDataURI(f)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", f.OriginalName, err)
		}
		inline = append(inline, uri)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if index < 0 || index >= len(c.rooms) {
		return nil, nil
	}
	c.rooms[index].Images = append(c.rooms[index].Images, inline...)

	result := c.rooms[index].Clone()
	return &result, c.saveLocked(ctx)
}

// Close освобождает коллекцию; после Close каталог нужно заново загрузить.
func (c *RoomCatalog) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rooms = []domain.Listing{}
}

// dropUnsafeImages убирает из images абсолютные пути, внешние ссылки и выход за каталог.
func dropUnsafeImages(logger port.LoggerPort, listing *domain.Listing) {
	if dropped := listing.SanitizeImages(); len(dropped) > 0 {
		logger.Warn("Dropped image references outside the asset directory", port.Fields{
			"room_id": listing.ID.String(),
			"dropped": dropped,
		})
	}
}

// freshIDLocked: не меньше текущего времени в миллисекундах и строго больше
// любого id в коллекции и любого ранее выданного.
func (c *RoomCatalog) freshIDLocked() int64 {
	id := c.now().UnixMilli()
	if next := domain.NextListingID(c.rooms); next > id {
		id = next
	}
	if id <= c.lastID {
		id = c.lastID + 1
	}
	c.lastID = id
	return id
}

func toDataURI(f domain.UploadedImage) (string, error) {
	src, err := f.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	content, err := io.ReadAll(src)
	if err != nil {
		return "", err
	}
	return "data:" + f.ContentType + ";base64," + base64.StdEncoding.EncodeToString(content), nil
}

var _ usecases_port.RoomCatalogUseCase = (*RoomCatalog)(nil)
