package thumbnail

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tekig/thumbnail-sync/internal/repository"
	"github.com/tekig/thumbnail-sync/internal/repository/memory"
)

const (
	testSource      = "davendesiteimages"
	testDestination = "davendesiteimages-thumbnails"
)

// recorder counts every call that reaches the object store.
type recorder struct {
	*memory.Storage

	mu         sync.Mutex
	containers []string
	uploads    []string
	deletes    []string
	failDelete error
}

func (r *recorder) CreateContainerIfNotExists(ctx context.Context, container string) error {
	r.mu.Lock()
	r.containers = append(r.containers, container)
	r.mu.Unlock()

	return r.Storage.CreateContainerIfNotExists(ctx, container)
}

func (r *recorder) Upload(ctx context.Context, object repository.ObjectReader) error {
	r.mu.Lock()
	r.uploads = append(r.uploads, object.Path)
	r.mu.Unlock()

	return r.Storage.Upload(ctx, object)
}

func (r *recorder) DeleteIfExists(ctx context.Context, container, path string) (bool, error) {
	r.mu.Lock()
	r.deletes = append(r.deletes, path)
	r.mu.Unlock()

	if r.failDelete != nil {
		return false, r.failDelete
	}

	return r.Storage.DeleteIfExists(ctx, container, path)
}

func (r *recorder) operations() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.containers) + len(r.uploads) + len(r.deletes)
}

func newTestService(t *testing.T) (*Service, *recorder) {
	t.Helper()

	store := &recorder{Storage: memory.New()}

	return New(Config{
		Storage:              store,
		SourceContainer:      testSource,
		DestinationContainer: testDestination,
		MediaBaseURL:         "https://cdn.example.com/media",
		Logger:               slog.New(slog.NewTextHandler(io.Discard, nil)),
	}), store
}

func testPNG(t *testing.T, width, height int) []byte {
	t.Helper()

	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	return buf.Bytes()
}

func putSource(t *testing.T, store *recorder, name string, content []byte) {
	t.Helper()

	ctx := context.Background()
	require.NoError(t, store.Storage.CreateContainerIfNotExists(ctx, testSource))
	require.NoError(t, store.Storage.Upload(ctx, repository.ObjectReader{
		Container: testSource,
		Path:      name,
		Content:   bytes.NewReader(content),
	}))
}

func putThumbnail(t *testing.T, store *recorder, name string) {
	t.Helper()

	ctx := context.Background()
	require.NoError(t, store.Storage.CreateContainerIfNotExists(ctx, testDestination))
	require.NoError(t, store.Storage.Upload(ctx, repository.ObjectReader{
		Container: testDestination,
		Path:      name,
		Content:   bytes.NewReader([]byte("thumbnail")),
	}))
}

var errStore = errors.New("store unavailable")
