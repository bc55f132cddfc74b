package app

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/lmittmann/tint"
	"github.com/tekig/thumbnail-sync/internal/gateway/http"
	"github.com/tekig/thumbnail-sync/internal/gateway/kafka"
	yas3trigger "github.com/tekig/thumbnail-sync/internal/gateway/ya-s3-trigger"
	"github.com/tekig/thumbnail-sync/internal/repository"
	"github.com/tekig/thumbnail-sync/internal/repository/azblob"
	"github.com/tekig/thumbnail-sync/internal/repository/memory"
	"github.com/tekig/thumbnail-sync/internal/repository/s3"
	"github.com/tekig/thumbnail-sync/internal/thumbnail"
)

type gateway interface {
	Run() error
	Shutdown() error
}

type App struct {
	gateway gateway
	logger  *slog.Logger
}

func New(c Config, w io.Writer) (*App, error) {
	logger, err := newLogger(c.Log, w)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}

	store, err := newStorage(c.Storage)
	if err != nil {
		return nil, fmt.Errorf("storage: %w", err)
	}

	t := thumbnail.New(thumbnail.Config{
		Storage:              store,
		SourceContainer:      c.Thumbnail.SourceContainer,
		DestinationContainer: c.Thumbnail.DestinationContainer,
		MediaBaseURL:         c.Media.BaseURL,
		JPEGQuality:          c.Thumbnail.JPEGQuality,
		Logger:               logger,
	})

	app := &App{
		logger: logger,
	}

	switch c.Gateway.Type {
	case GatewayHTTP:
		app.gateway = http.New(http.GatewayConfig{
			Thumbnail: t,
			Address:   c.Gateway.Address,
		})
	case GatewayYaS3Trigger:
		g, err := yas3trigger.NewHTTP(yas3trigger.ConfigHTTP{
			Listen:    c.Gateway.Address,
			Thumbnail: t,
			Logger:    logger,
		})
		if err != nil {
			return nil, fmt.Errorf("yas3trigger: %w", err)
		}

		app.gateway = g
	case GatewayKafka:
		g, err := kafka.New(kafka.Config{
			Brokers:         c.Kafka.Brokers,
			Topic:           c.Kafka.Topic,
			GroupID:         c.Kafka.GroupID,
			DeadLetterTopic: c.Kafka.DeadLetterTopic,
			MaxAttempts:     c.Kafka.MaxAttempts,
			Backoff:         c.Kafka.Backoff,
			Thumbnail:       t,
			Logger:          logger,
		})
		if err != nil {
			return nil, fmt.Errorf("kafka: %w", err)
		}

		app.gateway = g
	default:
		return nil, fmt.Errorf("unknown gateway `%s`", c.Gateway.Type)
	}

	return app, nil
}

func (a *App) Run() error {
	a.logger.Info("gateway started")

	if err := a.gateway.Run(); err != nil {
		return fmt.Errorf("gateway run: %w", err)
	}

	return nil
}

func (a *App) Shutdown() error {
	if err := a.gateway.Shutdown(); err != nil {
		return fmt.Errorf("gateway shutdown: %w", err)
	}

	return nil
}

func newLogger(c LogConfig, w io.Writer) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Level)); err != nil {
		return nil, fmt.Errorf("level: %w", err)
	}

	switch c.Format {
	case LogFormatText:
		return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})), nil
	case LogFormatTint:
		return slog.New(tint.NewHandler(w, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
		})), nil
	default:
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})), nil
	}
}

// newStorage returns a nil Storage when no connection is configured.
func newStorage(c StorageConfig) (repository.Storage, error) {
	switch c.Type {
	case StorageAzblob:
		if c.Connection == "" {
			return nil, nil
		}

		s, err := azblob.New(azblob.StorageConfig{
			ConnectionString: c.Connection,
		})
		if err != nil {
			return nil, fmt.Errorf("azblob: %w", err)
		}

		return s, nil
	case StorageS3:
		if c.Endpoint == "" {
			return nil, nil
		}

		s, err := s3.New(s3.StorageConfig{
			Endpoint:     c.Endpoint,
			AccessKey:    c.AccessKey,
			AccessSecret: c.AccessSecret,
			Region:       c.Region,
		})
		if err != nil {
			return nil, fmt.Errorf("s3: %w", err)
		}

		return s, nil
	case StorageMemory:
		return memory.New(), nil
	}

	return nil, fmt.Errorf("unknown storage `%s`", c.Type)
}
