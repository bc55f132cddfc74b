package thumbnail

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	handlerUpload = "upload"
	handlerDelete = "delete"
)

const (
	outcomeCreated      = "created"
	outcomeDeleted      = "deleted"
	outcomeAbsent       = "absent"
	outcomeSkipped      = "skipped"
	outcomeUnconfigured = "unconfigured"
	outcomeFailed       = "failed"
)

var eventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "thumbnail_sync",
	Name:      "events_total",
	Help:      "Storage notifications handled, by handler and outcome.",
}, []string{"handler", "outcome"})

func observe(handler, outcome string) {
	eventsTotal.WithLabelValues(handler, outcome).Inc()
}
