package thumbnail

import (
	"context"
	"log/slog"

	"github.com/tekig/thumbnail-sync/internal/entity"
	"github.com/tekig/thumbnail-sync/internal/repository"
)

// Created handles a created or overwritten object of the source container.
// Filtered names return nil without side effects. Operational errors are
// returned as *entity.Failure so the delivery system can redeliver.
func (s *Service) Created(ctx context.Context, object entity.ObjectReader) error {
	logger := s.invocation(handlerUpload).With(slog.String("name", object.Name))

	if entity.IsThumbnail(object.Name) {
		logger.Info("skipping thumbnail file")
		observe(handlerUpload, outcomeSkipped)
		return nil
	}

	if !entity.IsImage(object.Name) {
		logger.Info("skipping non-image file")
		observe(handlerUpload, outcomeSkipped)
		return nil
	}

	if s.store == nil {
		logger.Warn("object store connection is not configured")
		observe(handlerUpload, outcomeUnconfigured)
		return nil
	}

	logger.Info("processing image")

	preview, stage, err := makePreview(object.Content, s.jpegQuality)
	if err != nil {
		return s.uploadFailed(logger, stage, object.Name, err)
	}

	name := entity.ThumbnailName(object.Name)

	if err := s.store.CreateContainerIfNotExists(ctx, s.destination); err != nil {
		return s.uploadFailed(logger, entity.StageContainer, object.Name, err)
	}

	if err := s.store.Upload(ctx, repository.ObjectReader{
		Container:   s.destination,
		Path:        name,
		ContentType: contentTypeJPEG,
		Content:     preview,
	}); err != nil {
		return s.uploadFailed(logger, entity.StageUpload, object.Name, err)
	}

	logger.Info(
		"thumbnail created",
		slog.String("thumbnail", name),
		slog.String("url", s.store.URL(s.destination, name)),
	)
	observe(handlerUpload, outcomeCreated)

	return nil
}

func (s *Service) uploadFailed(logger *slog.Logger, stage entity.Stage, name string, err error) error {
	logger.Error(
		"processing image",
		slog.String("stage", string(stage)),
		slog.String("error", err.Error()),
	)
	observe(handlerUpload, outcomeFailed)

	return &entity.Failure{
		Stage: stage,
		Name:  name,
		Err:   err,
	}
}
