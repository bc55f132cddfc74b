package thumbnail

import (
	"log/slog"

	"github.com/google/uuid"
	"github.com/tekig/thumbnail-sync/internal/repository"
)

const (
	Width  = 250
	Height = 150

	DefaultJPEGQuality = 75
)

// Service keeps the destination container in sync with the source
// container. It holds no per-invocation state.
type Service struct {
	store       repository.Storage
	source      string
	destination string
	mediaURL    string
	jpegQuality int
	logger      *slog.Logger
}

type Config struct {
	// Storage is nil when no connection is configured, every invocation
	// is then a logged no-op.
	Storage              repository.Storage
	SourceContainer      string
	DestinationContainer string
	MediaBaseURL         string
	JPEGQuality          int
	Logger               *slog.Logger
}

func New(c Config) *Service {
	logger := c.Logger
	if logger == nil {
		logger = slog.Default()
	}
	quality := c.JPEGQuality
	if quality <= 0 || quality > 100 {
		quality = DefaultJPEGQuality
	}

	return &Service{
		store:       c.Storage,
		source:      c.SourceContainer,
		destination: c.DestinationContainer,
		mediaURL:    c.MediaBaseURL,
		jpegQuality: quality,
		logger:      logger,
	}
}

func (s *Service) invocation(handler string) *slog.Logger {
	return s.logger.With(
		slog.String("handler", handler),
		slog.String("invocation_id", uuid.NewString()),
	)
}
