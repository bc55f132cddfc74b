package yas3trigger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/tekig/thumbnail-sync/internal/entity"
	"github.com/tekig/thumbnail-sync/internal/thumbnail"
)

const (
	eventTypeObjectCreate = "yandex.cloud.events.storage.ObjectCreate"
	eventTypeObjectDelete = "yandex.cloud.events.storage.ObjectDelete"
)

type HTTP struct {
	serve     http.Server
	thumbnail *thumbnail.Service
	logger    *slog.Logger
}

type ConfigHTTP struct {
	Listen    string
	Thumbnail *thumbnail.Service
	Logger    *slog.Logger
}

func NewHTTP(config ConfigHTTP) (*HTTP, error) {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	gateway := &HTTP{
		serve: http.Server{
			Addr: config.Listen,
		},
		thumbnail: config.Thumbnail,
		logger:    logger,
	}

	gateway.serve.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := gateway.handler(r, w); err != nil {
			gateway.logger.Error(
				"ya-s3-trigger handler",
				slog.String("error", err.Error()),
			)
			w.WriteHeader(http.StatusInternalServerError)
		}
	})

	return gateway, nil
}

func (g *HTTP) Run() error {
	if err := g.serve.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

func (g *HTTP) Shutdown() error {
	return g.serve.Shutdown(context.Background())
}

//	{
//		"messages": [
//		  {
//			"event_metadata": {
//			  "event_id": "bb1dd06d-a82c-49b4-af98-d8e0********",
//			  "event_type": "yandex.cloud.events.storage.ObjectDelete",
//			  "created_at": "2019-12-19T14:17:47.847365Z",
//			  "cloud_id": "b1gvlrnlei4l********",
//			  "folder_id": "b1g88tflru0e********"
//			},
//			"details": {
//			  "bucket_id": "davendesiteimages",
//			  "object_id": "events/2024/cover.jpg"
//			}
//		  }
//		]
//	}
type Request struct {
	Messages []Message `json:"messages,omitempty"`
}

type Message struct {
	Event  Event  `json:"event_metadata,omitempty"`
	Object Object `json:"details,omitempty"`
}

type Event struct {
	EventID   string `json:"event_id,omitempty"`
	EventType string `json:"event_type,omitempty"`
}

type Object struct {
	BucketID string `json:"bucket_id,omitempty"`
	ObjectID string `json:"object_id,omitempty"`
}

func (g *HTTP) handler(r *http.Request, w http.ResponseWriter) error {
	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		// Redelivery would fail the same way.
		g.logger.Warn("malformed trigger request", slog.String("error", err.Error()))
		w.WriteHeader(http.StatusBadRequest)

		return nil
	}

	changes := make([]entity.Change, 0, len(req.Messages))
	for _, msg := range req.Messages {
		var changeType entity.ChangeType
		switch msg.Event.EventType {
		case eventTypeObjectCreate:
			changeType = entity.ChangeTypeObjectCreate
		case eventTypeObjectDelete:
			changeType = entity.ChangeTypeObjectDelete
		default:
			g.logger.Info(
				"unsupported event type, skipping",
				slog.String("event_id", msg.Event.EventID),
				slog.String("event_type", msg.Event.EventType),
			)
			continue
		}

		changes = append(changes, entity.Change{
			Container: msg.Object.BucketID,
			Name:      msg.Object.ObjectID,
			Type:      changeType,
		})
	}

	if err := g.thumbnail.Changes(r.Context(), changes); err != nil {
		return fmt.Errorf("changes: %w", err)
	}

	w.WriteHeader(http.StatusOK)

	return nil
}
