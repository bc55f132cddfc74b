package thumbnail

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/tekig/thumbnail-sync/internal/entity"
)

// Changes dispatches mutations reported by storage triggers that carry only
// the object location. Creates are downloaded from the source container,
// deletes remove the derived thumbnail directly.
func (s *Service) Changes(ctx context.Context, changes []entity.Change) error {
	if s.store == nil {
		s.logger.Warn("object store connection is not configured", slog.Int("changes", len(changes)))
		return nil
	}

	for _, change := range changes {
		if change.Container != s.source {
			s.logger.Info(
				"change not from source container, skipping",
				slog.String("container", change.Container),
				slog.String("name", change.Name),
			)
			continue
		}

		switch change.Type {
		case entity.ChangeTypeObjectCreate:
			if err := s.changeCreate(ctx, change); err != nil {
				return fmt.Errorf("create %s: %w", change.Name, err)
			}
		case entity.ChangeTypeObjectDelete:
			if err := s.changeDelete(ctx, change); err != nil {
				return fmt.Errorf("delete %s: %w", change.Name, err)
			}
		}
	}

	return nil
}

func (s *Service) changeCreate(ctx context.Context, change entity.Change) error {
	if entity.IsThumbnail(change.Name) || !entity.IsImage(change.Name) {
		return s.Created(ctx, entity.ObjectReader{Name: change.Name})
	}

	content, err := s.store.Download(ctx, change.Container, change.Name)
	if err != nil {
		if errors.Is(err, entity.ErrNotFound) {
			s.logger.Info("source object is gone, skipping", slog.String("name", change.Name))
			return nil
		}

		return &entity.Failure{
			Stage: entity.StageDownload,
			Name:  change.Name,
			Err:   err,
		}
	}
	defer content.Close()

	return s.Created(ctx, entity.ObjectReader{
		Name:    change.Name,
		Content: content,
	})
}

func (s *Service) changeDelete(ctx context.Context, change entity.Change) error {
	logger := s.invocation(handlerDelete).With(
		slog.String("name", change.Name),
		slog.String("url", s.store.URL(change.Container, change.Name)),
	)

	return s.deleteThumbnail(ctx, logger, change.Name)
}
