package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	Events = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "whiteboard_events_total",
		Help: "Events processed by the relay, by event name.",
	}, []string{"event"})

	Connections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "whiteboard_connections",
		Help: "Open client connections.",
	})

	Rooms = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "whiteboard_rooms",
		Help: "Rooms with at least one participant.",
	})

	DroppedFrames = promauto.NewCounter(prometheus.CounterOpts{
		Name: "whiteboard_dropped_frames_total",
		Help: "Outbound frames dropped on a full send queue.",
	})
)

// Handler exposes Prometheus metrics at /metrics
func Handler() http.Handler {
	return promhttp.Handler()
}
