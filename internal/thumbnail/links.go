package thumbnail

import (
	"fmt"
	"mime"
	"path"
	"strings"

	"github.com/tekig/thumbnail-sync/internal/entity"
)

// Links returns the public URLs of a source object and of its thumbnail.
func (s *Service) Links(name string) (entity.Content, error) {
	if !entity.IsImage(name) && !entity.IsVideo(name) {
		return entity.Content{}, fmt.Errorf("media %s: %w", name, entity.ErrNotFound)
	}

	base := strings.TrimRight(s.mediaURL, "/") + "/"
	thumbnail := entity.ThumbnailName(name)

	return entity.Content{
		Original: entity.Object{
			ID:          name,
			URL:         entity.ObjectURL(base, s.source, name),
			ContentType: mime.TypeByExtension(strings.ToLower(path.Ext(name))),
		},
		Thumbnail: entity.Object{
			ID:          thumbnail,
			URL:         entity.ObjectURL(base, s.destination, thumbnail),
			ContentType: contentTypeJPEG,
		},
	}, nil
}
