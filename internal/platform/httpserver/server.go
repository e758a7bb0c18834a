package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	proposalledger "agora/contexts/governance/proposal-ledger"
	accessgate "agora/contexts/identity-access/access-gate"
	_ "agora/internal/platform/httpserver/docs"
	"agora/internal/platform/metrics"

	httpSwagger "github.com/swaggo/http-swagger"
)

const (
	headerCallerID = "X-Caller-Id"
	headerUserID   = "X-User-Id"
)

type Server struct {
	mux     *http.ServeMux
	logger  *slog.Logger
	addr    string
	ledger  proposalledger.Module
	access  accessgate.Module
	metrics *metrics.Metrics
	server  *http.Server
}

// New wires routes for both contexts. A nil metrics disables /metrics and
// request instrumentation.
func New(
	ledger proposalledger.Module,
	access accessgate.Module,
	collector *metrics.Metrics,
	logger *slog.Logger,
	addr string,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:     http.NewServeMux(),
		logger:  logger,
		addr:    addr,
		ledger:  ledger,
		access:  access,
		metrics: collector,
	}
	s.registerRoutes()
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the instrumented router.
func (s *Server) Handler() http.Handler {
	return s.instrument(s.mux)
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	err := s.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("http server stopping",
		"event", "http_server_stopping",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	return s.server.Shutdown(ctx)
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	if s.metrics != nil {
		s.mux.Handle("GET /metrics", s.metrics.Handler())
	}

	s.registerLedgerRoutes()
	s.registerAccessRoutes()
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		if s.metrics != nil {
			defer s.metrics.TrackInFlight()()
		}
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		elapsed := time.Since(started)
		if s.metrics != nil {
			s.metrics.ObserveRequest(route, r.Method, rec.status, elapsed)
		}
		s.logger.Debug("http request served",
			"event", "http_request_served",
			"module", "internal/platform/httpserver",
			"layer", "platform",
			"route", route,
			"method", r.Method,
			"status", rec.status,
			"duration_ms", elapsed.Milliseconds(),
		)
	})
}

func requireHeader(r *http.Request, name string) (string, bool) {
	value := strings.TrimSpace(r.Header.Get(name))
	return value, value != ""
}

func decodeJSON(r *http.Request, target any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(target); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
