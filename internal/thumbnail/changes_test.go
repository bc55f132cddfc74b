package thumbnail

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tekig/thumbnail-sync/internal/entity"
)

func TestService_Changes(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)
	putSource(t, store, "events/2024/cover.png", testPNG(t, 500, 300))
	putThumbnail(t, store, "clip.jpg")

	err := svc.Changes(ctx, []entity.Change{
		{Container: testSource, Name: "events/2024/cover.png", Type: entity.ChangeTypeObjectCreate},
		{Container: testSource, Name: "clip.mp4", Type: entity.ChangeTypeObjectDelete},
		{Container: "uploads", Name: "other.png", Type: entity.ChangeTypeObjectCreate},
		{Container: testSource, Name: "intro.mp4", Type: entity.ChangeTypeObjectCreate},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"events/2024/cover.png"}, store.uploads)
	assert.Equal(t, []string{"clip.jpg"}, store.deletes)
	assert.Equal(t, []string{"events/2024/cover.png"}, store.Names(testDestination))
}

// prefixedStore serves object URLs below a path prefix, as the storage
// emulator does with its account name.
type prefixedStore struct {
	*recorder
}

func (p prefixedStore) URL(container, path string) string {
	return entity.ObjectURL("http://127.0.0.1:10000/devstoreaccount1/", container, path)
}

func TestService_Changes_PrefixedURL(t *testing.T) {
	_, store := newTestService(t)
	putThumbnail(t, store, "clip.jpg")
	putThumbnail(t, store, "events/2024/cover.png")

	svc := New(Config{
		Storage:              prefixedStore{recorder: store},
		SourceContainer:      testSource,
		DestinationContainer: testDestination,
		Logger:               slog.New(slog.NewTextHandler(io.Discard, nil)),
	})

	err := svc.Changes(context.Background(), []entity.Change{
		{Container: testSource, Name: "clip.mp4", Type: entity.ChangeTypeObjectDelete},
		{Container: testSource, Name: "events/2024/cover.png", Type: entity.ChangeTypeObjectDelete},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"clip.jpg", "events/2024/cover.png"}, store.deletes)
	assert.Empty(t, store.Names(testDestination))
}

func TestService_Changes_DeleteFailure(t *testing.T) {
	svc, store := newTestService(t)
	store.failDelete = errStore

	err := svc.Changes(context.Background(), []entity.Change{
		{Container: testSource, Name: "photo.png", Type: entity.ChangeTypeObjectDelete},
	})

	var failure *entity.Failure
	require.ErrorAs(t, err, &failure)
	assert.Equal(t, entity.StageDelete, failure.Stage)
	assert.ErrorIs(t, err, errStore)
}

func TestService_Changes_SourceGone(t *testing.T) {
	svc, store := newTestService(t)

	err := svc.Changes(context.Background(), []entity.Change{
		{Container: testSource, Name: "photo.png", Type: entity.ChangeTypeObjectCreate},
	})
	require.NoError(t, err)
	assert.Zero(t, store.operations())
}

func TestService_Changes_DecodeFailure(t *testing.T) {
	svc, store := newTestService(t)
	putSource(t, store, "broken.png", []byte("garbage"))

	err := svc.Changes(context.Background(), []entity.Change{
		{Container: testSource, Name: "broken.png", Type: entity.ChangeTypeObjectCreate},
	})

	var failure *entity.Failure
	require.ErrorAs(t, err, &failure)
	assert.Equal(t, entity.StageDecode, failure.Stage)
}

func TestService_Changes_NoConnection(t *testing.T) {
	svc := New(Config{SourceContainer: testSource, DestinationContainer: testDestination})

	assert.NoError(t, svc.Changes(context.Background(), []entity.Change{
		{Container: testSource, Name: "photo.png", Type: entity.ChangeTypeObjectDelete},
	}))
}
