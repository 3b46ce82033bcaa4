package usecase

import (
	"context"
	"errors"
	"net/http"
	"regexp"
	"testing"
	"time"

	"room-listing-service/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(ms int64) func() time.Time {
	return func() time.Time { return time.UnixMilli(ms) }
}

func TestAssetNamer_MonotonicWithinMillisecond(t *testing.T) {
	namer := NewAssetNamer(fixedClock(1700000000000))

	first := namer.Name("12", ".PNG")
	second := namer.Name("12", ".png")

	assert.Equal(t, "12_1700000000000.png", first)
	assert.Equal(t, "12_1700000000001.png", second)
}

func TestAssetNamer_SanitizesParts(t *testing.T) {
	namer := NewAssetNamer(fixedClock(1))

	assert.Equal(t, "unknown_1.jpg", namer.Name("", ""))
	assert.Equal(t, "etcpasswd_2.jpg", namer.Name("../etc/passwd", ".weird-extension"))
	assert.Equal(t, ".webp", ExtFromURLPath("/img/photo.WEBP"))
	assert.Equal(t, DefaultImageExt, ExtFromURLPath("/img/photo"))
	assert.Equal(t, ".gif", ExtFromFilename(`C:\photos\cat.gif`))
}

func TestUploadImages_StoresAllFiles(t *testing.T) {
	assets := newMapAssets()
	uc := NewUploadImagesUseCase(assets, NewAssetNamer(fixedClock(100)))

	names, err := uc.Execute(context.Background(), "7", []domain.UploadedImage{
		uploaded("a.png", "image/png", "aaa"),
		uploaded("b.jpeg", "image/jpeg", "bbb"),
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"7_100.png", "7_101.jpeg"}, names)
	assert.Equal(t, names, assets.names())
	pattern := regexp.MustCompile(`^[A-Za-z0-9_-]+_\d+\.[a-z0-9]+$`)
	for _, n := range names {
		assert.Regexp(t, pattern, n)
	}
}

func TestUploadImages_RejectsBadInput(t *testing.T) {
	uc := NewUploadImagesUseCase(newMapAssets(), NewAssetNamer(nil))

	_, err := uc.Execute(context.Background(), "1", nil)
	assert.ErrorIs(t, err, domain.ErrNoFiles)

	_, err = uc.Execute(context.Background(), "1", []domain.UploadedImage{uploaded("a.txt", "text/plain", "x")})
	assert.ErrorIs(t, err, domain.ErrNotAnImage)

	many := make([]domain.UploadedImage, domain.MaxUploadFiles+1)
	for i := range many {
		many[i] = uploaded("a.png", "image/png", "x")
	}
	_, err = uc.Execute(context.Background(), "1", many)
	assert.ErrorIs(t, err, domain.ErrTooManyFiles)
}

func TestUploadImages_RejectsOversizedFile(t *testing.T) {
	assets := newMapAssets()
	uc := NewUploadImagesUseCase(assets, NewAssetNamer(nil))

	big := uploaded("big.png", "image/png", "x")
	big.Size = domain.MaxUploadFileSize + 1
	_, err := uc.Execute(context.Background(), "1", []domain.UploadedImage{uploaded("ok.png", "image/png", "x"), big})
	assert.ErrorIs(t, err, domain.ErrFileTooLarge)
	assert.Empty(t, assets.names(), "nothing is written when one file is rejected")

	atLimit := uploaded("edge.png", "image/png", "x")
	atLimit.Size = domain.MaxUploadFileSize
	names, err := uc.Execute(context.Background(), "1", []domain.UploadedImage{atLimit})
	require.NoError(t, err)
	assert.Len(t, names, 1)
}

func TestUploadImages_RollsBackOnFailure(t *testing.T) {
	assets := newMapAssets()
	assets.failOn["1_11.png"] = true
	uc := NewUploadImagesUseCase(assets, NewAssetNamer(fixedClock(10)))

	_, err := uc.Execute(context.Background(), "1", []domain.UploadedImage{
		uploaded("a.png", "image/png", "a"),
		uploaded("b.png", "image/png", "b"),
	})
	require.Error(t, err)
	assert.Empty(t, assets.names())
}

func TestFetchRemoteImage_Saves(t *testing.T) {
	assets := newMapAssets()
	uc := NewFetchRemoteImageUseCase(assets, &fakeRemote{body: []byte("png-bytes")}, NewAssetNamer(fixedClock(55)), time.Second)

	name, err := uc.Execute(context.Background(), "3", "https://cdn.example.com/rooms/photo.png?w=800")
	require.NoError(t, err)

	assert.Equal(t, "3_55.png", name)
	assert.Equal(t, []byte("png-bytes"), assets.files[name])
}

func TestFetchRemoteImage_Errors(t *testing.T) {
	assets := newMapAssets()
	remoteErr := &domain.AssetFetchError{URL: "https://x/y.jpg", StatusCode: http.StatusNotFound, Err: errors.New("not found")}
	uc := NewFetchRemoteImageUseCase(assets, &fakeRemote{err: remoteErr}, NewAssetNamer(nil), 0)

	_, err := uc.Execute(context.Background(), "", "https://x/y.jpg")
	assert.ErrorIs(t, err, ErrMissingRoomID)

	_, err = uc.Execute(context.Background(), "1", " ")
	assert.ErrorIs(t, err, ErrMissingImageURL)

	_, err = uc.Execute(context.Background(), "1", "file:///etc/passwd")
	assert.ErrorIs(t, err, domain.ErrUnsupportedScheme)

	_, err = uc.Execute(context.Background(), "1", "https://x/y.jpg")
	var fetchErr *domain.AssetFetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Equal(t, http.StatusNotFound, fetchErr.StatusCode)

	assert.Empty(t, assets.names())
}

func TestCollectOrphanImages_DeletesOnlyUnreferenced(t *testing.T) {
	store := newMemoryStore(
		room(1, "a", "assets/images/a.jpg", "data:image/png;base64,AAAA"),
		room(2, "b", `assets\images\b.png`),
	)
	assets := newMapAssets("a.jpg", "b.png", "c.jpg")
	events := &recordedEvents{}
	uc := NewCollectOrphanImagesUseCase(store, assets, events)

	report, err := uc.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"c.jpg"}, report.Deleted)
	assert.Equal(t, 2, report.Retained)
	assert.Equal(t, []string{"a.jpg", "b.png"}, assets.names())
	require.Len(t, events.collected, 1)

	// повторный запуск ничего не удаляет
	report, err = uc.Execute(context.Background())
	require.NoError(t, err)
	assert.Empty(t, report.Deleted)
	assert.Equal(t, 0, report.DeletedCount())
	assert.Len(t, events.collected, 1)
}

func TestCollectOrphanImages_ContinuesAfterRemoveFailure(t *testing.T) {
	assets := newMapAssets("x.jpg", "y.jpg")
	assets.removeErr["x.jpg"] = errors.New("permission denied")
	uc := NewCollectOrphanImagesUseCase(newMemoryStore(), assets, nil)

	report, err := uc.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"y.jpg"}, report.Deleted)
	assert.Equal(t, []string{"x.jpg"}, report.Failed)
}

func TestCollectOrphanImages_StoreErrorDeletesNothing(t *testing.T) {
	store := newMemoryStore()
	store.loadErr = errors.New("unreadable")
	assets := newMapAssets("a.jpg")

	_, err := NewCollectOrphanImagesUseCase(store, assets, nil).Execute(context.Background())
	require.Error(t, err)
	assert.Equal(t, []string{"a.jpg"}, assets.names())
}
