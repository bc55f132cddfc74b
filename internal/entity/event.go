package entity

import (
	"encoding/json"
	"io"
)

type EventType string

const (
	EventTypeBlobCreated            EventType = "Microsoft.Storage.BlobCreated"
	EventTypeBlobDeleted            EventType = "Microsoft.Storage.BlobDeleted"
	EventTypeSubscriptionValidation EventType = "Microsoft.EventGrid.SubscriptionValidationEvent"
)

// Event is a storage notification in the Event Grid schema.
type Event struct {
	ID          string          `json:"id,omitempty"`
	Topic       string          `json:"topic,omitempty"`
	Subject     string          `json:"subject,omitempty"`
	EventType   EventType       `json:"eventType,omitempty"`
	EventTime   string          `json:"eventTime,omitempty"`
	Data        json.RawMessage `json:"data,omitempty"`
	DataVersion string          `json:"dataVersion,omitempty"`
}

type BlobDeletedData struct {
	API         string `json:"api,omitempty"`
	ContentType string `json:"contentType,omitempty"`
	BlobType    string `json:"blobType,omitempty"`
	URL         string `json:"url,omitempty"`
}

type SubscriptionValidationData struct {
	ValidationCode string `json:"validationCode,omitempty"`
	ValidationURL  string `json:"validationUrl,omitempty"`
}

type ChangeType string

const (
	ChangeTypeObjectCreate ChangeType = "object_create"
	ChangeTypeObjectDelete ChangeType = "object_delete"
)

// Change is a storage mutation reported by a trigger that carries only the
// object location.
type Change struct {
	Container string
	Name      string
	Type      ChangeType
}

// ObjectReader is a created or overwritten source object.
type ObjectReader struct {
	Name    string
	Content io.Reader
}
