// Package api exposes the detector over HTTP.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"botcheck/internal/detect"
	"botcheck/internal/export"
	"botcheck/internal/logging"
	"botcheck/internal/model"
	"botcheck/internal/store/reportdb"
)

// Evaluator runs one analysis and never returns an error value.
type Evaluator interface {
	Evaluate(ctx context.Context, handle string, count int) detect.Result
}

// ReportStore is the history the server reads and appends to.
type ReportStore interface {
	PutReport(ctx context.Context, r detect.Report) error
	GetReport(ctx context.Context, id string) (detect.Report, error)
	ListReports(ctx context.Context, handle string, limit int) ([]reportdb.Summary, error)
}

// Response is the envelope of every JSON reply.
type Response struct {
	Success   bool      `json:"success"`
	Data      any       `json:"data,omitempty"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// AnalyzeRequest is the body of POST /api/v1/analyze.
type AnalyzeRequest struct {
	Handle string `json:"handle"`
	Count  int    `json:"count"`
}

// AnalyzeResponse carries the report and its display metrics.
type AnalyzeResponse struct {
	Report  *detect.Report `json:"report"`
	Metrics []model.Metric `json:"metrics"`
}

type Server struct {
	eval         Evaluator
	store        ReportStore
	defaultCount int
	router       chi.Router
	log          zerolog.Logger
}

// NewServer wires the routes. store may be nil, which disables history.
func NewServer(eval Evaluator, store ReportStore, defaultCount int, log zerolog.Logger) *Server {
	if defaultCount <= 0 {
		defaultCount = 10
	}
	s := &Server{
		eval:         eval,
		store:        store,
		defaultCount: defaultCount,
		router:       chi.NewRouter(),
		log:          logging.Component(log, "api"),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.requestLogger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(60 * time.Second))

	s.router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		s.writeJSON(w, http.StatusOK, Response{Success: true, Data: map[string]string{"status": "healthy"}, Timestamp: time.Now()})
	})
	s.router.Handle("/metrics", promhttp.Handler())

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Post("/analyze", s.handleAnalyze)
		r.Get("/reports", s.handleListReports)
		r.Get("/reports/{id}", s.handleGetReport)
		r.Get("/reports/{id}/pdf", s.handleReportPDF)
	})
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.router.ServeHTTP(w, r) }

// Start serves on addr until ctx is cancelled.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	s.log.Info().Str("addr", addr).Msg("http_server_started")
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("took", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("http_request")
	})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	if req.Count == 0 {
		req.Count = s.defaultCount
	}
	res := s.eval.Evaluate(r.Context(), req.Handle, req.Count)
	if res.Error != "" {
		s.writeError(w, statusFor(res.Err), res.Error)
		return
	}
	if s.store != nil {
		if err := s.store.PutReport(r.Context(), *res.Report); err != nil {
			s.log.Error().Err(err).Str("report_id", res.Report.ID).Msg("save_report_failed")
		}
	}
	s.writeJSON(w, http.StatusOK, Response{
		Success:   true,
		Data:      AnalyzeResponse{Report: res.Report, Metrics: res.Report.Metrics()},
		Timestamp: time.Now(),
	})
}

func (s *Server) handleListReports(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.writeError(w, http.StatusNotFound, "report history is disabled")
		return
	}
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 500 {
			s.writeError(w, http.StatusBadRequest, "limit must be between 1 and 500")
			return
		}
		limit = n
	}
	list, err := s.store.ListReports(r.Context(), r.URL.Query().Get("handle"), limit)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if list == nil {
		list = []reportdb.Summary{}
	}
	s.writeJSON(w, http.StatusOK, Response{Success: true, Data: list, Timestamp: time.Now()})
}

func (s *Server) loadReport(w http.ResponseWriter, r *http.Request) (detect.Report, bool) {
	if s.store == nil {
		s.writeError(w, http.StatusNotFound, "report history is disabled")
		return detect.Report{}, false
	}
	rep, err := s.store.GetReport(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, reportdb.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, err.Error())
		return rep, false
	}
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return rep, false
	}
	return rep, true
}

func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	rep, ok := s.loadReport(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, Response{
		Success:   true,
		Data:      AnalyzeResponse{Report: &rep, Metrics: rep.Metrics()},
		Timestamp: time.Now(),
	})
}

func (s *Server) handleReportPDF(w http.ResponseWriter, r *http.Request) {
	rep, ok := s.loadReport(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := export.WritePDF(&buf, rep.Metrics()); err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.DefaultFilename+`"`)
	_, _ = w.Write(buf.Bytes())
}

// statusFor maps pipeline errors to HTTP statuses. Model and schema
// failures fall through to 500.
func statusFor(err error) int {
	var apiErr *model.APIError
	switch {
	case errors.Is(err, detect.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrAccountNotFound):
		return http.StatusNotFound
	case errors.As(err, &apiErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error().Err(err).Msg("write_response_failed")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, Response{Success: false, Error: msg, Timestamp: time.Now()})
}
