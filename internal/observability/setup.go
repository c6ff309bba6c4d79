package observability

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/vipmusic/guardbot"

var (
	violationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "guardbot_violations_total",
			Help: "Detected rule violations by check",
		},
		[]string{"check"},
	)

	actionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "guardbot_actions_total",
			Help: "Platform actions issued by the moderation engine",
		},
		[]string{"action", "status"},
	)

	updateProcessingDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "guardbot_update_processing_duration_seconds",
			Help:    "Time spent processing updates",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"status"},
	)
)

func RecordViolation(check string) {
	violationsTotal.WithLabelValues(check).Inc()
}

func RecordAction(action string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	actionsTotal.WithLabelValues(action, status).Inc()
}

// StartUpdateProcessing returns a function recording the update duration under its final status.
func StartUpdateProcessing() func(err error) {
	start := time.Now()
	return func(err error) {
		status := "ok"
		if err != nil {
			status = "error"
		}
		updateProcessingDuration.WithLabelValues(status).Observe(time.Since(start).Seconds())
	}
}

func Tracer() trace.Tracer {
	return otel.Tracer(tracerName)
}

// Server exposes /metrics and owns the process tracer provider.
type Server struct {
	addr     string
	mu       sync.Mutex
	srv      *http.Server
	provider *sdktrace.TracerProvider
}

func NewServer(addr string) *Server {
	return &Server{addr: addr}
}

func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.srv != nil {
		return nil
	}

	s.provider = sdktrace.NewTracerProvider()
	otel.SetTracerProvider(s.provider)

	if s.addr == "" {
		return nil
	}
	listener, err := (&net.ListenConfig{}).Listen(ctx, "tcp", s.addr)
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	s.srv = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	srv := s.srv
	go func() {
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithField("object", "observability").WithField("error", err.Error()).Error("metrics server failed")
		}
	}()
	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	srv, provider := s.srv, s.provider
	s.srv, s.provider = nil, nil
	s.mu.Unlock()

	var stopErr error
	if srv != nil {
		stopErr = errors.Join(stopErr, srv.Shutdown(ctx))
	}
	if provider != nil {
		stopErr = errors.Join(stopErr, provider.Shutdown(ctx))
	}
	return stopErr
}
