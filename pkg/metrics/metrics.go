// Package metrics exports codec and dispatch counters in Prometheus format.
//
// A Collector implements transport.Observer, so it can be handed to a
// Stream or Server directly:
//
//	m := metrics.New()
//	srv, _ := transport.NewServer(transport.ServerConfig{Router: r, Observer: m})
//	http.Handle("/metrics", m.Handler())
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cloudcmd-protocol/cloudcmd-go/pkg/command"
	"github.com/cloudcmd-protocol/cloudcmd-go/pkg/transport"
	"github.com/cloudcmd-protocol/cloudcmd-go/pkg/wire"
)

const namespace = "cloudcmd"

// sizeBuckets covers every bounded command up to MaxEncodedSize. Larger
// sizes are LastValuesUpdate payloads, limited by the frame size.
var sizeBuckets = []float64{
	4, 8, 16, 32, 64, 128, 256, 512, float64(wire.MaxEncodedSize),
	4096, 16384, float64(transport.DefaultMaxFrameSize),
}

// Collector records codec outcomes per command and status.
type Collector struct {
	registry *prometheus.Registry

	encoded      *prometheus.CounterVec
	decoded      *prometheus.CounterVec
	encodedBytes *prometheus.HistogramVec
	dispatched   *prometheus.CounterVec
	dispatchTime *prometheus.HistogramVec
}

// New creates a collector with its own registry, including the Go runtime
// and process collectors.
func New() *Collector {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return newCollector(reg)
}

func newCollector(reg *prometheus.Registry) *Collector {
	c := &Collector{
		registry: reg,
		encoded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "encoded_total",
			Help:      "Commands passed to the encoder, by command and status.",
		}, []string{"command", "status"}),
		decoded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decoded_total",
			Help:      "Frames passed to the decoder, by command and status.",
		}, []string{"command", "status"}),
		encodedBytes: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "message_size_bytes",
			Help:      "Size of successfully encoded or decoded commands.",
			Buckets:   sizeBuckets,
		}, []string{"direction"}),
		dispatched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dispatched_total",
			Help:      "Commands handed to a handler, by command and result.",
		}, []string{"command", "result"}),
		dispatchTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "dispatch_duration_seconds",
			Help:      "Time spent in command handlers.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}, []string{"command"}),
	}
	reg.MustRegister(c.encoded, c.decoded, c.encodedBytes, c.dispatched, c.dispatchTime)
	return c
}

// ObserveEncode records one Send.
func (c *Collector) ObserveEncode(id command.ID, size int, status wire.Status) {
	c.encoded.WithLabelValues(id.String(), status.String()).Inc()
	if status == wire.StatusComplete {
		c.encodedBytes.WithLabelValues("out").Observe(float64(size))
	}
}

// ObserveDecode records one received frame.
func (c *Collector) ObserveDecode(id command.ID, size int, status wire.Status) {
	c.decoded.WithLabelValues(id.String(), status.String()).Inc()
	if status == wire.StatusComplete {
		c.encodedBytes.WithLabelValues("in").Observe(float64(size))
	}
}

// ObserveDispatch records one handler call.
func (c *Collector) ObserveDispatch(id command.ID, took time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	c.dispatched.WithLabelValues(id.String(), result).Inc()
	c.dispatchTime.WithLabelValues(id.String()).Observe(took.Seconds())
}

// Registry returns the registry the collector's metrics live in.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Serve exposes Handler on addr under /metrics until the server fails.
func (c *Collector) Serve(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())
	return http.ListenAndServe(addr, mux)
}
