package metrics

import (
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

var (
	Analyses = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "botcheck_analyses_total",
		Help: "Total account analyses by outcome",
	}, []string{"outcome"})
	AnalysisDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "botcheck_analysis_duration_seconds",
		Help:    "Analysis duration seconds",
		Buckets: prometheus.DefBuckets,
	})
	APIRetries = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "botcheck_api_retries_total",
		Help: "Total API retry attempts",
	}, []string{"endpoint"})
	APIRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "botcheck_api_requests_total",
		Help: "X API responses by endpoint and status",
	}, []string{"endpoint", "status"})
	Predictions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "botcheck_predictions_total",
		Help: "Classifier predictions by label",
	}, []string{"label"})
	SkippedTexts = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "botcheck_skipped_texts_total",
		Help: "Post texts skipped by the text analyzer",
	})
	CommandRuns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "botcheck_command_runs_total",
		Help: "CLI command invocations",
	}, []string{"command"})
	CommandErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "botcheck_command_errors_total",
		Help: "CLI command failures",
	}, []string{"command"})
)

func init() {
	prometheus.MustRegister(Analyses, AnalysisDuration, APIRetries, APIRequests,
		Predictions, SkippedTexts, CommandRuns, CommandErrors)
}

// Handler serves /metrics and /health.
func Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	return mux
}

// StartServer starts a metrics HTTP server on addr (e.g., ":9090") in the
// background. A listen failure is logged, not returned.
func StartServer(addr string, log zerolog.Logger) {
	if addr == "" {
		addr = os.Getenv("METRICS_ADDR")
	}
	if addr == "" {
		return
	}
	go func() {
		if err := http.ListenAndServe(addr, Handler()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Str("addr", addr).Msg("metrics_server_failed")
		}
	}()
}

// ObserveAnalysis records a finished analysis.
func ObserveAnalysis(start time.Time, outcome string) {
	AnalysisDuration.Observe(time.Since(start).Seconds())
	Analyses.WithLabelValues(outcome).Inc()
}

// IncAPIRetry increments the retry counter for an endpoint.
func IncAPIRetry(endpoint string) { APIRetries.WithLabelValues(endpoint).Inc() }

func IncAPIRequest(endpoint, status string) { APIRequests.WithLabelValues(endpoint, status).Inc() }

func IncPrediction(label string) { Predictions.WithLabelValues(label).Inc() }

func AddSkippedTexts(n int) { SkippedTexts.Add(float64(n)) }

func IncCommandRun(cmd string)   { CommandRuns.WithLabelValues(cmd).Inc() }
func IncCommandError(cmd string) { CommandErrors.WithLabelValues(cmd).Inc() }
