// Package metrics exposes Prometheus collectors for chat sessions and the
// LLM gateway.
package metrics

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/sd155/subtasker/internal/llm"
	"github.com/sd155/subtasker/internal/result"
)

const namespace = "subtasker"

// Metrics holds the collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	turns           *prometheus.CounterVec
	turnDuration    *prometheus.HistogramVec
	pending         prometheus.Gauge
	gatewayDuration *prometheus.HistogramVec
	droppedEvents   prometheus.Counter
}

// New creates the collectors and registers them with reg.
// Registration errors are returned rather than panicking.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		turns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "chat",
				Name:      "turns_total",
				Help:      "Finished turns by final state.",
			},
			[]string{"state"},
		),
		turnDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "chat",
				Name:      "turn_duration_seconds",
				Help:      "Time from turn start to final state.",
				Buckets:   prometheus.ExponentialBuckets(0.25, 2, 10),
			},
			[]string{"state"},
		),
		pending: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "chat",
				Name:      "pending_prompts",
				Help:      "Prompts queued behind the running turn.",
			},
		),
		gatewayDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "llm",
				Name:      "request_duration_seconds",
				Help:      "Gateway round trips by agent and outcome.",
				Buckets:   prometheus.ExponentialBuckets(0.25, 2, 10),
			},
			[]string{"agent", "status"},
		),
		droppedEvents: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "chat",
				Name:      "dropped_events_total",
				Help:      "Session events dropped because the subscriber was slow.",
			},
		),
	}

	if reg == nil {
		return m, nil
	}
	for _, c := range []prometheus.Collector{m.turns, m.turnDuration, m.pending, m.gatewayDuration, m.droppedEvents} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// ObserveTurn records a finished turn.
func (m *Metrics) ObserveTurn(state string, d time.Duration) {
	if m == nil {
		return
	}
	m.turns.WithLabelValues(state).Inc()
	m.turnDuration.WithLabelValues(state).Observe(d.Seconds())
}

// SetPending records the current queue depth.
func (m *Metrics) SetPending(n int) {
	if m == nil {
		return
	}
	m.pending.Set(float64(n))
}

// IncDroppedEvents counts one dropped session event.
func (m *Metrics) IncDroppedEvents() {
	if m == nil {
		return
	}
	m.droppedEvents.Inc()
}

// ObserveGateway records one gateway round trip.
func (m *Metrics) ObserveGateway(agent string, ok bool, d time.Duration) {
	if m == nil {
		return
	}
	status := "ok"
	if !ok {
		status = "error"
	}
	m.gatewayDuration.WithLabelValues(agent, status).Observe(d.Seconds())
}

// InstrumentGateway wraps g so every Send is timed under the agent label.
func (m *Metrics) InstrumentGateway(agent string, g llm.Gateway) llm.Gateway {
	if m == nil {
		return g
	}
	return &instrumentedGateway{agent: agent, next: g, metrics: m}
}

type instrumentedGateway struct {
	agent   string
	next    llm.Gateway
	metrics *Metrics
}

func (g *instrumentedGateway) Send(ctx context.Context, elements []llm.Element) result.Result[*llm.GatewayError, llm.Element] {
	start := time.Now()
	res := g.next.Send(ctx, elements)
	g.metrics.ObserveGateway(g.agent, res.IsSuccess(), time.Since(start))
	return res
}

// Server serves /metrics over HTTP.
type Server struct {
	srv    *http.Server
	ln     net.Listener
	logger *zap.Logger
}

// Serve starts an HTTP server on addr exposing the metrics gathered by g.
func Serve(addr string, g prometheus.Gatherer, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))

	s := &Server{
		srv: &http.Server{
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
		ln:     ln,
		logger: logger,
	}
	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("metrics server stopped", zap.Error(err))
		}
	}()
	logger.Info("metrics server listening", zap.String("addr", ln.Addr().String()))
	return s, nil
}

// Addr returns the listening address.
func (s *Server) Addr() string {
	return s.ln.Addr().String()
}

// Shutdown stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
