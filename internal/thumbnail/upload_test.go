package thumbnail

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/jpeg"
	"io"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tekig/thumbnail-sync/internal/entity"
	"github.com/tekig/thumbnail-sync/internal/repository"
)

func readThumbnail(t *testing.T, store *recorder, name string) []byte {
	t.Helper()

	rc, err := store.Storage.Download(context.Background(), testDestination, name)
	require.NoError(t, err)
	defer rc.Close()

	data, err := io.ReadAll(rc)
	require.NoError(t, err)

	return data
}

func TestService_Created(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)

	err := svc.Created(ctx, entity.ObjectReader{
		Name:    "photo.png",
		Content: bytes.NewReader(testPNG(t, 640, 480)),
	})
	require.NoError(t, err)

	assert.Equal(t, []string{testDestination}, store.containers)
	assert.Equal(t, []string{"photo.png"}, store.uploads)

	data := readThumbnail(t, store, "photo.png")
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, Width, cfg.Width)
	assert.Equal(t, Height, cfg.Height)

	contentType, ok := store.ContentType(testDestination, "photo.png")
	require.True(t, ok)
	assert.Equal(t, "image/jpeg", contentType)
}

func TestService_Created_CropsToFill(t *testing.T) {
	ctx := context.Background()

	for _, size := range []image.Point{{X: 100, Y: 1000}, {X: 3000, Y: 200}, {X: 50, Y: 30}} {
		svc, store := newTestService(t)

		require.NoError(t, svc.Created(ctx, entity.ObjectReader{
			Name:    "tall.png",
			Content: bytes.NewReader(testPNG(t, size.X, size.Y)),
		}))

		img, err := jpeg.Decode(bytes.NewReader(readThumbnail(t, store, "tall.png")))
		require.NoError(t, err)
		assert.Equal(t, image.Rect(0, 0, Width, Height), img.Bounds(), "source %v", size)
	}
}

func TestService_Created_Idempotent(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)
	source := testPNG(t, 400, 400)

	for i := 0; i < 2; i++ {
		require.NoError(t, svc.Created(ctx, entity.ObjectReader{
			Name:    "events/2024/cover.jpg",
			Content: bytes.NewReader(source),
		}))
	}

	assert.Equal(t, []string{"events/2024/cover.jpg"}, store.Names(testDestination))
	assert.Len(t, store.uploads, 2)
}

func TestService_Created_Overwrites(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)

	require.NoError(t, svc.Created(ctx, entity.ObjectReader{
		Name:    "photo.png",
		Content: bytes.NewReader(testPNG(t, 300, 300)),
	}))
	first := readThumbnail(t, store, "photo.png")

	second := testPNG(t, 1200, 200)
	require.NoError(t, svc.Created(ctx, entity.ObjectReader{
		Name:    "photo.png",
		Content: bytes.NewReader(second),
	}))

	preview, _, err := makePreview(bytes.NewReader(second), DefaultJPEGQuality)
	require.NoError(t, err)

	last := readThumbnail(t, store, "photo.png")
	assert.Equal(t, preview.Bytes(), last)
	assert.NotEqual(t, first, last)
}

func TestService_Created_Skips(t *testing.T) {
	tests := []struct {
		name   string
		object string
	}{
		{name: "self thumbnail", object: "logo_thumb.png"},
		{name: "video", object: "clip.mp4"},
		{name: "document", object: "rider.pdf"},
		{name: "no extension", object: "README"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store := newTestService(t)

			before := testutil.ToFloat64(eventsTotal.WithLabelValues(handlerUpload, outcomeSkipped))

			err := svc.Created(context.Background(), entity.ObjectReader{
				Name:    tt.object,
				Content: strings.NewReader("ignored"),
			})
			require.NoError(t, err)
			assert.Zero(t, store.operations())
			assert.Equal(t, before+1, testutil.ToFloat64(eventsTotal.WithLabelValues(handlerUpload, outcomeSkipped)))
		})
	}
}

func TestService_Created_UpperCaseExtension(t *testing.T) {
	svc, store := newTestService(t)

	require.NoError(t, svc.Created(context.Background(), entity.ObjectReader{
		Name:    "Stage.PNG",
		Content: bytes.NewReader(testPNG(t, 20, 20)),
	}))
	assert.Equal(t, []string{"Stage.PNG"}, store.uploads)
}

func TestService_Created_DecodeFailure(t *testing.T) {
	svc, store := newTestService(t)

	err := svc.Created(context.Background(), entity.ObjectReader{
		Name:    "broken.jpg",
		Content: strings.NewReader("this is not an image"),
	})
	require.Error(t, err)

	var failure *entity.Failure
	require.True(t, errors.As(err, &failure))
	assert.Equal(t, entity.StageDecode, failure.Stage)
	assert.Equal(t, "broken.jpg", failure.Name)
	assert.Zero(t, store.operations())
}

type failingUpload struct {
	*recorder
}

func (f failingUpload) Upload(ctx context.Context, object repository.ObjectReader) error {
	return errStore
}

func TestService_Created_UploadFailure(t *testing.T) {
	svc, store := newTestService(t)
	svc.store = failingUpload{recorder: store}

	err := svc.Created(context.Background(), entity.ObjectReader{
		Name:    "photo.png",
		Content: bytes.NewReader(testPNG(t, 10, 10)),
	})

	var failure *entity.Failure
	require.True(t, errors.As(err, &failure))
	assert.Equal(t, entity.StageUpload, failure.Stage)
	assert.ErrorIs(t, err, errStore)
}

func TestService_Created_NoConnection(t *testing.T) {
	svc := New(Config{
		SourceContainer:      testSource,
		DestinationContainer: testDestination,
	})

	err := svc.Created(context.Background(), entity.ObjectReader{
		Name:    "photo.png",
		Content: strings.NewReader("not read"),
	})
	assert.NoError(t, err)
}
