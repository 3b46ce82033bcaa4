package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"room-listing-service/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCatalog(store *memoryStore, cache *memoryCache) *RoomCatalog {
	c := NewRoomCatalog(store, cache, nil)
	c.now = fixedClock(1000)
	return c
}

func TestRoomCatalog_LoadPopulatesCache(t *testing.T) {
	store := newMemoryStore(room(1, "a"), room(2, "b"))
	cache := &memoryCache{}
	catalog := newTestCatalog(store, cache)
	ctx := context.Background()

	assert.Equal(t, domain.DataSourceDurable, catalog.DataSource(ctx))

	rooms, err := catalog.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, rooms, 2)
	assert.True(t, cache.found)
	assert.Equal(t, domain.DataSourceCache, catalog.DataSource(ctx))
}

func TestRoomCatalog_ResetThenLoadReflectsDurableStore(t *testing.T) {
	store := newMemoryStore(room(1, "old"))
	cache := &memoryCache{}
	catalog := newTestCatalog(store, cache)
	ctx := context.Background()

	_, err := catalog.Load(ctx)
	require.NoError(t, err)

	// durable store изменился в обход каталога, как после ингеста
	require.NoError(t, store.Update(ctx, func(doc *domain.ListingsDocument) error {
		doc.Rooms = append(doc.Rooms, room(2, "new"))
		return nil
	}))

	rooms, err := catalog.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, rooms, 1, "cache wins until reset")

	_, err = catalog.Reset(ctx)
	require.NoError(t, err)
	rooms, err = catalog.Load(ctx)
	require.NoError(t, err)
	require.Len(t, rooms, 2)
	assert.Equal(t, "new", rooms[1].Title)
}

func TestRoomCatalog_CorruptedCacheFallsBack(t *testing.T) {
	store := newMemoryStore(room(1, "a"))
	cache := &memoryCache{data: []byte("{not json"), found: true}
	catalog := newTestCatalog(store, cache)

	rooms, err := catalog.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, rooms, 1)
	assert.Equal(t, "a", rooms[0].Title)

	var cached []domain.Listing
	require.NoError(t, json.Unmarshal(cache.data, &cached))
	assert.Len(t, cached, 1)
}

func TestRoomCatalog_LoadFailureDegradesToEmpty(t *testing.T) {
	store := newMemoryStore()
	store.loadErr = errors.New("disk gone")
	catalog := newTestCatalog(store, &memoryCache{})

	rooms, err := catalog.Load(context.Background())
	var loadErr *domain.LoadError
	require.True(t, errors.As(err, &loadErr))
	assert.NotNil(t, rooms)
	assert.Empty(t, rooms)
}

func TestRoomCatalog_ReloadFailureKeepsCollection(t *testing.T) {
	store := newMemoryStore(room(1, "a"))
	catalog := newTestCatalog(store, &memoryCache{})
	ctx := context.Background()
	_, err := catalog.Load(ctx)
	require.NoError(t, err)

	store.loadErr = errors.New("disk gone")
	_, err = catalog.Reload(ctx)
	require.Error(t, err)
	assert.Len(t, catalog.All(), 1)
}

func TestRoomCatalog_AddAssignsFreshIDsAndWritesThrough(t *testing.T) {
	store := newMemoryStore(room(5000, "a"))
	cache := &memoryCache{}
	catalog := newTestCatalog(store, cache)
	ctx := context.Background()
	_, err := catalog.Load(ctx)
	require.NoError(t, err)

	first, err := catalog.Add(ctx, domain.Listing{ID: domain.NewListingID(1), Title: "b", Price: price(3)})
	require.NoError(t, err)
	second, err := catalog.Add(ctx, domain.Listing{Title: "c"})
	require.NoError(t, err)

	id1, _ := first.ID.Int64()
	id2, _ := second.ID.Int64()
	assert.Equal(t, int64(5001), id1)
	assert.Equal(t, int64(5002), id2)

	var cached []domain.Listing
	require.NoError(t, json.Unmarshal(cache.data, &cached))
	assert.Len(t, cached, 3)
	assert.Len(t, store.rooms(), 1, "catalog mutations never touch the durable store")
}

func TestRoomCatalog_AddUsesClockWhenAhead(t *testing.T) {
	catalog := newTestCatalog(newMemoryStore(room(3, "a")), &memoryCache{})
	_, err := catalog.Load(context.Background())
	require.NoError(t, err)

	added, err := catalog.Add(context.Background(), domain.Listing{Title: "b"})
	require.NoError(t, err)
	id, _ := added.ID.Int64()
	assert.Equal(t, int64(1000), id)
}

func TestRoomCatalog_AddReportsCacheFailure(t *testing.T) {
	cache := &memoryCache{}
	catalog := newTestCatalog(newMemoryStore(), cache)
	_, err := catalog.Load(context.Background())
	require.NoError(t, err)

	cache.setErr = errors.New("redis down")
	added, err := catalog.Add(context.Background(), domain.Listing{Title: "b"})
	require.Error(t, err)
	require.NotNil(t, added)
	assert.Len(t, catalog.All(), 1)
}

func TestRoomCatalog_UpdateAndDelete(t *testing.T) {
	catalog := newTestCatalog(newMemoryStore(room(1, "a"), room(2, "b")), &memoryCache{})
	ctx := context.Background()
	_, err := catalog.Load(ctx)
	require.NoError(t, err)

	updated, err := catalog.Update(ctx, 1, domain.Listing{ID: domain.NewListingID(42), Title: "b2"})
	require.NoError(t, err)
	id, _ := updated.ID.Int64()
	assert.Equal(t, int64(2), id)
	assert.Equal(t, "b2", updated.Title)

	missing, err := catalog.Update(ctx, 2, domain.Listing{})
	assert.NoError(t, err)
	assert.Nil(t, missing)
	missing, err = catalog.Delete(ctx, -1)
	assert.NoError(t, err)
	assert.Nil(t, missing)

	deleted, err := catalog.Delete(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, "a", deleted.Title)

	rooms := catalog.All()
	require.Len(t, rooms, 1)
	assert.Equal(t, "b2", rooms[0].Title)
}

func TestRoomCatalog_AppendImagesInlinesOnlyImages(t *testing.T) {
	catalog := newTestCatalog(newMemoryStore(room(1, "a", "assets/images/a.jpg")), &memoryCache{})
	ctx := context.Background()
	_, err := catalog.Load(ctx)
	require.NoError(t, err)

	updated, err := catalog.AppendImages(ctx, 0, []domain.UploadedImage{
		uploaded("p.png", "image/png", "hi"),
		uploaded("n.txt", "text/plain", "skip"),
	})
	require.NoError(t, err)
	require.Len(t, updated.Images, 2)
	assert.Equal(t, "assets/images/a.jpg", updated.CoverImage())
	assert.Equal(t, "data:image/png;base64,aGk=", updated.Images[1])

	missing, err := catalog.AppendImages(ctx, 5, nil)
	assert.NoError(t, err)
	assert.Nil(t, missing)
}

func TestRoomCatalog_Import(t *testing.T) {
	catalog := newTestCatalog(newMemoryStore(), &memoryCache{})
	ctx := context.Background()

	for _, bad := range []string{`{}`, `{"rooms": {}}`, `{"rooms": null}`} {
		_, err := catalog.Import(ctx, []byte(bad))
		assert.ErrorIs(t, err, domain.ErrInvalidDocument, bad)
	}
	_, err := catalog.Import(ctx, []byte("not json"))
	assert.Error(t, err)

	rooms, err := catalog.Import(ctx, []byte(`{"rooms":[{"id":9,"title":"x","price":2}]}`))
	require.NoError(t, err)
	require.Len(t, rooms, 1)
	assert.Equal(t, "x", rooms[0].Title)
}

func TestRoomCatalog_AppendImagesRejectsOversizedFile(t *testing.T) {
	catalog := newTestCatalog(newMemoryStore(room(1, "a")), &memoryCache{})
	_, err := catalog.Load(context.Background())
	require.NoError(t, err)

	big := uploaded("big.png", "image/png", "x")
	big.Size = domain.MaxUploadFileSize + 1
	updated, err := catalog.AppendImages(context.Background(), 0, []domain.UploadedImage{big})
	assert.ErrorIs(t, err, domain.ErrFileTooLarge)
	assert.Nil(t, updated)
	assert.Empty(t, catalog.All()[0].Images)
}

func TestRoomCatalog_MutationsDropUnsafeImageRefs(t *testing.T) {
	catalog := newTestCatalog(newMemoryStore(room(1, "a")), &memoryCache{})
	ctx := context.Background()
	_, err := catalog.Load(ctx)
	require.NoError(t, err)

	unsafe := []string{"/etc/passwd", `C:\x.jpg`, "../../secret.jpg", "https://evil.example/a.jpg"}

	added, err := catalog.Add(ctx, domain.Listing{Title: "new", Images: append([]string{"assets/images/ok.jpg"}, unsafe...)})
	require.NoError(t, err)
	assert.Equal(t, []string{"assets/images/ok.jpg"}, added.Images)

	updated, err := catalog.Update(ctx, 0, domain.Listing{Title: "a2", Images: append(unsafe, "data:image/png;base64,aGk=")})
	require.NoError(t, err)
	assert.Equal(t, []string{"data:image/png;base64,aGk="}, updated.Images)

	rooms, err := catalog.Import(ctx, []byte(`{"rooms":[{"id":1,"images":["/abs/a.jpg","assets\\images\\b.jpg"]}]}`))
	require.NoError(t, err)
	require.Len(t, rooms, 1)
	assert.Equal(t, []string{"assets/images/b.jpg"}, rooms[0].Images)

	for _, r := range catalog.All() {
		for _, img := range r.Images {
			assert.NotContains(t, unsafe, img)
		}
	}
}

func TestRoomCatalog_FindKeepsPositions(t *testing.T) {
	rooms := []domain.Listing{
		{ID: domain.NewListingID(1), Title: "Phòng Gò Vấp", Address: "Quận Gò Vấp", Price: price(2.5)},
		{ID: domain.NewListingID(2), Title: "Phòng Bình Thạnh", Address: "Bình Thạnh", Price: price(4)},
		{ID: domain.NewListingID(3), Title: "Căn hộ", Address: "Bình Thạnh", Price: price(12)},
	}
	catalog := newTestCatalog(newMemoryStore(rooms...), &memoryCache{})
	_, err := catalog.Load(context.Background())
	require.NoError(t, err)

	found := catalog.Find(domain.RoomFilter{AreaCode: "binh-thanh", Price: domain.Price3To5})
	require.Len(t, found, 1)
	assert.Equal(t, 1, found[0].Index)

	found = catalog.Find(domain.RoomFilter{Query: "phong"})
	require.Len(t, found, 2)
	assert.Equal(t, 0, found[0].Index)

	entry, ok := catalog.ByID(3)
	require.True(t, ok)
	assert.Equal(t, 2, entry.Index)
	assert.True(t, strings.HasPrefix(entry.Listing.Title, "Căn"))

	_, ok = catalog.ByID(77)
	assert.False(t, ok)
}
