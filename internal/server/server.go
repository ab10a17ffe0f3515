// Package server exposes the HTTP API: search (buffered and
// streaming), history with export, trend, topics and operational
// endpoints.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/user/topic-scout/internal/ingest"
	"github.com/user/topic-scout/internal/store"
)

var (
	videosTotal = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "topic_scout_videos_total",
		Help: "Total number of videos in the record store",
	})

	searchesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "topic_scout_searches_total",
		Help: "Total number of search requests",
	}, []string{"status"})

	searchDurationSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "topic_scout_search_duration_seconds",
		Help:    "Duration of search requests in seconds",
		Buckets: prometheus.DefBuckets,
	})

	upstreamErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "topic_scout_upstream_errors_total",
		Help: "Total number of upstream API failures with no local fallback",
	})
)

func init() {
	prometheus.MustRegister(videosTotal)
	prometheus.MustRegister(searchesTotal)
	prometheus.MustRegister(searchDurationSeconds)
	prometheus.MustRegister(upstreamErrorsTotal)
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Uptime   string `json:"uptime"`
}

// StatsResponse reports stored and indexed record counts.
type StatsResponse struct {
	Videos    int64  `json:"videos"`
	Searches  int64  `json:"searches"`
	IndexDocs uint64 `json:"index_docs"`
	Uptime    string `json:"uptime"`
}

// SearchResponse wraps a buffered search result set.
type SearchResponse struct {
	Query   string          `json:"query"`
	Results []ingest.Result `json:"results"`
}

// Server handles HTTP requests for the API surface plus health checks
// and metrics.
type Server struct {
	coord     *ingest.Coordinator
	store     store.Store
	router    *http.ServeMux
	server    *http.Server
	startTime time.Time
}

// NewServer creates a new HTTP server instance.
func NewServer(coord *ingest.Coordinator, st store.Store) *Server {
	s := &Server{
		coord:     coord,
		store:     st,
		router:    http.NewServeMux(),
		startTime: time.Now(),
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures the HTTP routes.
func (s *Server) setupRoutes() {
	s.router.HandleFunc("GET /health", s.handleHealth)
	s.router.Handle("GET /metrics", promhttp.Handler())

	s.router.HandleFunc("GET /api/search", s.handleSearch)
	s.router.HandleFunc("GET /api/search/stream", s.handleSearchStream)
	s.router.HandleFunc("GET /api/history", s.handleHistory)
	s.router.HandleFunc("GET /api/history/{id}/export", s.handleExport)
	s.router.HandleFunc("GET /api/trend", s.handleTrend)
	s.router.HandleFunc("GET /api/topics", s.handleTopics)
	s.router.HandleFunc("GET /api/stats", s.handleStats)
}

// Start begins listening on the specified port.
func (s *Server) Start(port int) error {
	addr := fmt.Sprintf(":%d", port)
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Info().Int("port", port).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	log.Info().Msg("Stopping HTTP server")
	return s.server.Shutdown(ctx)
}

// handleHealth returns JSON with status, database connectivity, and
// uptime.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	dbStatus := "healthy"
	if err := s.store.Ping(ctx); err != nil {
		dbStatus = fmt.Sprintf("unhealthy: %v", err)
	}

	uptime := time.Since(s.startTime).Round(time.Second).String()

	status := "healthy"
	if dbStatus != "healthy" {
		status = "unhealthy"
	}

	response := HealthResponse{
		Status:   status,
		Database: dbStatus,
		Uptime:   uptime,
	}

	w.Header().Set("Content-Type", "application/json")
	if status != "healthy" {
		w.WriteHeader(http.StatusServiceUnavailable)
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		log.Error().Err(err).Msg("Failed to encode health response")
	}
}

// handleSearch runs the buffered pipeline for ?q= and returns the full
// result set as JSON.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	maxResults := intParam(r, "max_results", 0)

	start := time.Now()
	results, err := s.coord.Search(r.Context(), query, maxResults)
	searchDurationSeconds.Observe(time.Since(start).Seconds())

	if err != nil {
		searchesTotal.WithLabelValues("error").Inc()
		s.writeError(w, err)
		return
	}

	searchesTotal.WithLabelValues("ok").Inc()
	writeJSON(w, http.StatusOK, SearchResponse{Query: query, Results: results})
}

// handleSearchStream runs the pipeline in streaming mode and emits one
// JSON object per line: result events first, then exactly one terminal
// line carrying either "done" or "error".
func (s *Server) handleSearchStream(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	maxResults := intParam(r, "max_results", 0)

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Cache-Control", "no-cache")

	enc := json.NewEncoder(w)
	status := "ok"
	start := time.Now()

	for ev := range s.coord.SearchStream(r.Context(), query, maxResults) {
		line := streamLine{}
		switch {
		case ev.Err != nil:
			status = "error"
			line.Error = ev.Err.Error()
			if errors.Is(ev.Err, ingest.ErrUpstreamUnavailable) {
				upstreamErrorsTotal.Inc()
			}
		case ev.Done:
			line.Done = true
		default:
			line.Result = ev.Result
		}
		if err := enc.Encode(line); err != nil {
			log.Debug().Err(err).Msg("Stream consumer gone")
			return
		}
		flusher.Flush()
	}

	searchDurationSeconds.Observe(time.Since(start).Seconds())
	searchesTotal.WithLabelValues(status).Inc()
}

// streamLine is one NDJSON line of a streaming search response.
type streamLine struct {
	Result *ingest.Result `json:"result,omitempty"`
	Error  string         `json:"error,omitempty"`
	Done   bool           `json:"done,omitempty"`
}

// handleHistory lists past searches, newest first.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	entries, err := s.coord.History(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// handleExport renders a stored result set as a plain-text report.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 32)
	if err != nil {
		http.Error(w, "invalid search id", http.StatusBadRequest)
		return
	}

	blob, err := s.coord.ExportResult(r.Context(), uint(id))
	if err != nil {
		s.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, blob)
}

// handleTrend returns the view-count time series for ?topic=.
func (s *Server) handleTrend(w http.ResponseWriter, r *http.Request) {
	topic := r.URL.Query().Get("topic")
	if topic == "" {
		http.Error(w, "topic is required", http.StatusBadRequest)
		return
	}

	points, err := s.coord.Trend(r.Context(), topic)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, points)
}

// handleTopics extracts ranked topic labels from local matches for ?q=.
func (s *Server) handleTopics(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	n := intParam(r, "n", 10)

	topics, err := s.coord.Topics(r.Context(), query, n)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, topics)
}

// handleStats reports record, history and index counts.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	videos, err := s.store.CountVideos(ctx)
	if err != nil {
		s.writeError(w, err)
		return
	}
	videosTotal.Set(float64(videos))

	entries, err := s.store.ListSearches(ctx)
	if err != nil {
		s.writeError(w, err)
		return
	}

	docs, err := s.coord.IndexDocCount()
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, StatsResponse{
		Videos:    videos,
		Searches:  int64(len(entries)),
		IndexDocs: docs,
		Uptime:    time.Since(s.startTime).Round(time.Second).String(),
	})
}

// writeError maps pipeline errors to HTTP statuses.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ingest.ErrEmptyQuery):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ingest.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ingest.ErrUpstreamUnavailable):
		upstreamErrorsTotal.Inc()
		http.Error(w, err.Error(), http.StatusBadGateway)
	default:
		log.Error().Err(err).Msg("Request failed")
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

func intParam(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

// GetUptime returns the server uptime.
func (s *Server) GetUptime() time.Duration {
	return time.Since(s.startTime)
}
