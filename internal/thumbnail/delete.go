package thumbnail

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/tekig/thumbnail-sync/internal/entity"
)

var (
	errEmptyURL     = errors.New("empty url")
	errShortPath    = errors.New("path has no object name")
	errNotContainer = errors.New("not in source container")
)

// Deleted handles an object deletion notification. Notifications that can
// never be processed (wrong type, malformed payload, foreign container,
// unrecoverable name) return nil so they are not redelivered.
func (s *Service) Deleted(ctx context.Context, event entity.Event) error {
	logger := s.invocation(handlerDelete).With(slog.String("event_id", event.ID))

	logger.Info("event received", slog.String("event_type", string(event.EventType)))

	if event.EventType != entity.EventTypeBlobDeleted {
		logger.Info("ignoring event type", slog.String("event_type", string(event.EventType)))
		observe(handlerDelete, outcomeSkipped)
		return nil
	}

	var data entity.BlobDeletedData
	if err := json.Unmarshal(event.Data, &data); err != nil || data.URL == "" {
		if err == nil {
			err = errEmptyURL
		}
		logger.Warn("could not parse blob deleted event data", slog.String("error", err.Error()))
		observe(handlerDelete, outcomeSkipped)
		return nil
	}

	logger = logger.With(slog.String("url", data.URL))

	name, err := s.sourceName(data.URL)
	switch {
	case errors.Is(err, errNotContainer):
		logger.Info("blob not from source container, skipping", slog.String("container", s.source))
		observe(handlerDelete, outcomeSkipped)
		return nil
	case err != nil:
		logger.Warn("could not extract blob name from url", slog.String("error", err.Error()))
		observe(handlerDelete, outcomeSkipped)
		return nil
	}

	logger = logger.With(slog.String("name", name))

	if s.store == nil {
		logger.Warn("object store connection is not configured")
		observe(handlerDelete, outcomeUnconfigured)
		return nil
	}

	return s.deleteThumbnail(ctx, logger, name)
}

// deleteThumbnail removes the thumbnail derived from a source object name.
// Names the upload side never renders still map to themselves, deleting
// a missing thumbnail is a no-op.
func (s *Service) deleteThumbnail(ctx context.Context, logger *slog.Logger, name string) error {
	thumbnail := entity.ThumbnailName(name)

	logger.Info("deleting thumbnail", slog.String("thumbnail", thumbnail))

	deleted, err := s.store.DeleteIfExists(ctx, s.destination, thumbnail)
	if err != nil {
		logger.Error(
			"deleting thumbnail",
			slog.String("thumbnail", thumbnail),
			slog.String("error", err.Error()),
		)
		observe(handlerDelete, outcomeFailed)

		return &entity.Failure{
			Stage: entity.StageDelete,
			Name:  thumbnail,
			Err:   err,
		}
	}

	if !deleted {
		logger.Info("thumbnail did not exist", slog.String("thumbnail", thumbnail))
		observe(handlerDelete, outcomeAbsent)
		return nil
	}

	logger.Info("thumbnail deleted", slog.String("thumbnail", thumbnail))
	observe(handlerDelete, outcomeDeleted)

	return nil
}

// sourceName extracts the object name from an absolute object URL of the
// form <scheme>://<host>/<container>/<name...>.
func (s *Service) sourceName(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}

	segments := strings.SplitN(strings.TrimPrefix(u.EscapedPath(), "/"), "/", 2)

	container, err := url.PathUnescape(segments[0])
	if err != nil {
		return "", fmt.Errorf("unescape container: %w", err)
	}
	if container != s.source {
		return "", errNotContainer
	}

	if len(segments) < 2 || segments[1] == "" {
		return "", errShortPath
	}

	name, err := url.PathUnescape(segments[1])
	if err != nil {
		return "", fmt.Errorf("unescape name: %w", err)
	}

	return name, nil
}
