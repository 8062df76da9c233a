package promclient

import (
	"log"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var ConnectedGauge = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Name: "marketview_feed_connected",
		Help: "1 when both stream channels are open",
	},
)

var ReconnectAttemptsCounter = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "marketview_reconnect_attempts_total",
		Help: "scheduled stream channel reconnect attempts",
	},
)

var DroppedFramesCounter = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "marketview_dropped_frames_total",
		Help: "inbound frames discarded as malformed or mistagged",
	},
	[]string{"channel"},
)

var DepthUpdatesCounter = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "marketview_depth_updates_total",
		Help: "depth-diff events delivered to the reconciliation engine",
	},
)

var TradesCounter = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "marketview_trades_total",
		Help: "trade events delivered to the tape",
	},
)

func StartPromClientServer(addr string) {
	reg := prometheus.NewRegistry()
	promHandler := promhttp.HandlerFor(reg, promhttp.HandlerOpts{})

	reg.MustRegister(ConnectedGauge)
	reg.MustRegister(ReconnectAttemptsCounter)
	reg.MustRegister(DroppedFramesCounter)
	reg.MustRegister(DepthUpdatesCounter)
	reg.MustRegister(TradesCounter)
	reg.MustRegister(collectors.NewGoCollector())

	http.Handle("/metrics", promHandler)
	log.Printf("prometheus server listening at %s", addr)

	if err := http.ListenAndServe(addr, nil); err != nil {
		log.Fatalf("failed to serve: %v", err)
	}
}
