package realtime

import "github.com/prometheus/client_golang/prometheus"

var (
	connectionsGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "realtime_connections",
		Help: "Number of open websocket connections",
	})

	roomsGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "realtime_rooms",
		Help: "Number of rooms with at least one client",
	})

	eventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "realtime_events_total",
			Help: "Total number of websocket events by direction",
		},
		[]string{"direction", "event"},
	)
)

func init() {
	prometheus.MustRegister(connectionsGauge, roomsGauge, eventsTotal)
}
