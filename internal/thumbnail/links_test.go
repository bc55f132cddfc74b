package thumbnail

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tekig/thumbnail-sync/internal/entity"
)

func TestService_Links(t *testing.T) {
	svc, _ := newTestService(t)

	content, err := svc.Links("events/2024/cover.png")
	require.NoError(t, err)
	assert.Equal(t, entity.Content{
		Original: entity.Object{
			ID:          "events/2024/cover.png",
			URL:         "https://cdn.example.com/media/davendesiteimages/events/2024/cover.png",
			ContentType: "image/png",
		},
		Thumbnail: entity.Object{
			ID:          "events/2024/cover.png",
			URL:         "https://cdn.example.com/media/davendesiteimages-thumbnails/events/2024/cover.png",
			ContentType: "image/jpeg",
		},
	}, content)

	content, err = svc.Links("clip.mp4")
	require.NoError(t, err)
	assert.Equal(t, "clip.jpg", content.Thumbnail.ID)
	assert.Equal(t, "https://cdn.example.com/media/davendesiteimages-thumbnails/clip.jpg", content.Thumbnail.URL)

	_, err = svc.Links("rider.pdf")
	assert.ErrorIs(t, err, entity.ErrNotFound)
}
