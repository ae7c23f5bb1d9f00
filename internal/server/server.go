package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/net/netutil"

	"github.com/panopticlick/Panopticlick-sub001/internal/model"
	"github.com/panopticlick/Panopticlick-sub001/internal/pipeline"
)

// Store persists valuation reports. *database.ReportDB implements it.
type Store interface {
	SaveReport(ctx context.Context, report *model.ValuationReport) (int64, error)
	GetReportByReportID(ctx context.Context, reportID string) (*model.ValuationReport, error)
}

// Default limits, used when the matching option is not given.
const (
	defaultMaxBodySize    = 1 << 20
	defaultRequestTimeout = 30 * time.Second
	shutdownTimeout       = 10 * time.Second
)

// Server serves the valuation API.
type Server struct {
	assembler      *pipeline.Assembler
	store          Store
	logger         *slog.Logger
	maxBodySize    int64
	requestTimeout time.Duration
	maxConns       int
	registry       *prometheus.Registry
	metrics        *metrics
	router         chi.Router
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger used for request errors.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithStore enables report persistence and the report lookup route.
func WithStore(store Store) Option {
	return func(s *Server) {
		s.store = store
	}
}

// WithMaxBodySize limits the size of a submission in bytes.
func WithMaxBodySize(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxBodySize = n
		}
	}
}

// WithRequestTimeout bounds the handling time of one request.
func WithRequestTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.requestTimeout = d
		}
	}
}

// WithMaxConnections caps simultaneously accepted connections.
// Zero means no cap.
func WithMaxConnections(n int) Option {
	return func(s *Server) {
		if n >= 0 {
			s.maxConns = n
		}
	}
}

// WithMetrics registers the server's collectors on reg and serves reg on
// GET /metrics.
func WithMetrics(reg *prometheus.Registry) Option {
	return func(s *Server) {
		s.registry = reg
	}
}

// New creates a Server around an assembler.
func New(assembler *pipeline.Assembler, opts ...Option) (*Server, error) {
	if assembler == nil {
		return nil, ErrNoAssembler
	}

	s := &Server{
		assembler:      assembler,
		logger:         slog.Default(),
		maxBodySize:    defaultMaxBodySize,
		requestTimeout: defaultRequestTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.registry != nil {
		m, err := newMetrics(s.registry)
		if err != nil {
			return nil, err
		}
		s.metrics = m
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.requestTimeout))

	r.Get("/healthz", s.handleHealth)
	if s.registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	}
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/valuations", s.handleValuation)
		if s.store != nil {
			r.Get("/reports/{reportID}", s.handleGetReport)
		}
	})
	s.router = r

	return s, nil
}

// Handler returns the HTTP handler serving every route.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string, readHeaderTimeout time.Duration) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln, readHeaderTimeout)
}

// Serve is ListenAndServe on an existing listener. The listener is closed
// on return.
func (s *Server) Serve(ctx context.Context, ln net.Listener, readHeaderTimeout time.Duration) error {
	if s.maxConns > 0 {
		ln = netutil.LimitListener(ln, s.maxConns)
	}

	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: readHeaderTimeout,
		// In-flight requests outlive ctx until Shutdown drains them.
		BaseContext: func(_ net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleValuation(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBodySize))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: "request body too large"})
			return
		}
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "failed to read request body"})
		return
	}

	sub, err := model.DecodeSubmission(bytes.NewReader(body))
	if err != nil {
		s.metrics.fail(stepDecode)
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	report, err := s.assembler.AssembleSubmission(sub)
	if err != nil {
		s.writeAssemblyError(w, r, err)
		return
	}
	s.metrics.observe(report)

	if s.store != nil {
		if _, err := s.store.SaveReport(r.Context(), report); err != nil {
			// History is best effort.
			s.logger.Warn("failed to save report",
				"request_id", middleware.GetReqID(r.Context()),
				"report_id", report.Meta.ReportID,
				"error", err,
			)
		}
	}

	writeJSON(w, http.StatusOK, report)
}

func (s *Server) writeAssemblyError(w http.ResponseWriter, r *http.Request, err error) {
	resp := errorResponse{Error: err.Error()}
	var asmErr *pipeline.AssemblyError
	if errors.As(err, &asmErr) {
		resp.Step = asmErr.Step
	}
	s.metrics.fail(resp.Step)

	switch {
	case errors.Is(err, model.ErrInvalidPayload):
		writeJSON(w, http.StatusBadRequest, resp)
	case errors.Is(err, pipeline.ErrHashMismatch):
		writeJSON(w, http.StatusUnprocessableEntity, resp)
	default:
		s.logger.Error("valuation failed",
			"request_id", middleware.GetReqID(r.Context()),
			"error", err,
		)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error", Step: resp.Step})
	}
}

func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	reportID := chi.URLParam(r, "reportID")

	report, err := s.store.GetReportByReportID(r.Context(), reportID)
	if err != nil {
		s.logger.Error("failed to load report", "report_id", reportID, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return
	}
	if report == nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "report not found"})
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
