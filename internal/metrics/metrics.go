// Package metrics exposes Prometheus collectors for the engine's internal
// pipeline health: channel depth, dropped market-data messages, venue
// retry/breaker activity, REST latency, and websocket reconnects.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ChannelDepth = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "scalper_channel_depth",
		Help: "Current occupancy of an internal pipeline channel.",
	}, []string{"edge"})

	OrderBookDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scalper_orderbook_dropped_total",
		Help: "OrderBook snapshots dropped by the non-blocking try-send backpressure policy.",
	})

	TradeSendTimeout = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scalper_trade_send_timeout_total",
		Help: "Trade ticks that exceeded the bounded-wait send timeout to Strategy.",
	})

	VenueRetries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scalper_venue_retries_total",
		Help: "Venue REST requests retried after a transport error or 5xx.",
	}, []string{"endpoint"})

	VenueBreakerTrips = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scalper_venue_breaker_trips_total",
		Help: "Times the venue REST circuit breaker opened.",
	})

	VenueRequestLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "scalper_venue_request_duration_seconds",
		Help:    "Venue REST request latency by endpoint.",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint"})

	WebsocketReconnects = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scalper_websocket_reconnects_total",
		Help: "Market-data websocket reconnect attempts.",
	})

	OrdersPlaced = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scalper_orders_placed_total",
		Help: "Orders submitted to the venue, by outcome.",
	}, []string{"outcome"})
)

// Handler returns the HTTP handler serving /metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}
