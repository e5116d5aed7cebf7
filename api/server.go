// Package api provides the HTTP REST API server for indexmovers.
//
// It exposes endpoints to start performance runs, fetch stored reports and
// their CSV exports, drill into single tickers, read index headlines and
// follow run progress over a WebSocket.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/seenimoa/indexmovers/internal/analysis/performance"
	"github.com/seenimoa/indexmovers/internal/config"
	"github.com/seenimoa/indexmovers/internal/datasource"
	"github.com/seenimoa/indexmovers/internal/pipeline"
	"github.com/seenimoa/indexmovers/internal/report"
	"github.com/seenimoa/indexmovers/pkg/models"
	"github.com/seenimoa/indexmovers/pkg/utils"
)

// Version is reported by the health endpoint. Set at build time.
var Version = "dev"

// Runner executes performance runs and single-ticker inspections.
type Runner interface {
	Run(ctx context.Context, req pipeline.Request) (*models.Report, error)
	Inspect(ctx context.Context, index, ticker string, start, end time.Time) (*models.TickerInspection, error)
}

// HeadlineSource returns recent articles for an index.
type HeadlineSource interface {
	Headlines(ctx context.Context, index models.Index, limit int) ([]models.NewsArticle, error)
}

// Server is the HTTP API server.
type Server struct {
	router chi.Router
	cfg    *config.Config
	runner Runner
	news   HeadlineSource
	runs   *runStore
	wsHub  *WSHub
	log    logrus.FieldLogger
	now    func() time.Time

	background []func(context.Context)
}

// NewServer creates a configured API server with all routes and middleware.
// news may be nil, in which case the headlines endpoint answers 503.
func NewServer(cfg *config.Config, runner Runner, news HeadlineSource, log logrus.FieldLogger) *Server {
	if log == nil {
		log = logrus.StandardLogger()
	}
	s := &Server{
		cfg:    cfg,
		runner: runner,
		news:   news,
		runs:   newRunStore(cfg.API.MaxRuns),
		wsHub:  NewWSHub(),
		log:    log,
		now:    time.Now,
	}
	s.router = s.buildRouter()
	return s
}

// Background registers a task started by ListenAndServe and cancelled when
// the server shuts down.
func (s *Server) Background(task func(ctx context.Context)) {
	s.background = append(s.background, task)
}

// start launches the websocket hub and the background tasks under ctx.
func (s *Server) start(ctx context.Context) {
	go s.wsHub.Run(ctx)
	for _, task := range s.background {
		go task(ctx)
	}
}

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// ListenAndServe starts the HTTP server and blocks until SIGINT or SIGTERM,
// then shuts down gracefully.
func (s *Server) ListenAndServe(addr string) error {
	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 10 * time.Minute, // full index runs are slow
		IdleTimeout:  60 * time.Second,
	}

	bgCtx, stop := context.WithCancel(context.Background())
	defer stop()
	s.start(bgCtx)

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(done)

	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", addr).Info("HTTP server listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-done:
	}
	s.log.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return httpSrv.Shutdown(ctx)
}

// buildRouter configures all routes and middleware.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.log))
	r.Use(middleware.Recoverer)

	// CORS
	origins := []string{"*"}
	if len(s.cfg.API.CORSOrigins) > 0 {
		origins = s.cfg.API.CORSOrigins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", s.handleHealth)

	// WebSocket run progress
	r.Get("/ws", s.handleWebSocket)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/indices", s.handleIndices)
		r.Get("/config", s.handleGetConfig)

		// Runs are long; they get their own deadline below the write timeout.
		r.With(middleware.Timeout(9*time.Minute)).Post("/runs", s.handleCreateRun)
		r.Get("/runs", s.handleListRuns)
		r.Route("/runs/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetRun)
			r.Get("/csv", s.handleRunCSV)
			r.Get("/html", s.handleRunHTML)
			r.Get("/groups", s.handleRunGroups)
			r.Get("/groups/chart.svg", s.handleRunGroupsChart)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(60 * time.Second))
			r.Get("/inspect/{index}/{ticker}", s.handleInspect)
			r.Get("/inspect/{index}/{ticker}/chart.svg", s.handleInspectChart)
			r.Get("/headlines/{index}", s.handleHeadlines)
		})
	})

	return r
}

// requestLogger logs one line per request with logrus.
func requestLogger(log logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.WithFields(logrus.Fields{
				"method":     r.Method,
				"path":       r.URL.Path,
				"status":     ww.Status(),
				"bytes":      ww.BytesWritten(),
				"elapsed":    time.Since(start).Round(time.Millisecond),
				"request_id": middleware.GetReqID(r.Context()),
			}).Debug("request")
		})
	}
}

// ============================================================
// Request / Response types
// ============================================================

// APIResponse is the standard JSON envelope.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// RunRequest is the body for POST /api/v1/runs. Empty dates default to
// year to date.
type RunRequest struct {
	Index string `json:"index"`
	Start string `json:"start,omitempty"` // YYYY-MM-DD
	End   string `json:"end,omitempty"`   // YYYY-MM-DD
	Top   int    `json:"top,omitempty"`
}

// RunSummary is the response of POST /api/v1/runs.
type RunSummary struct {
	ID         string                     `json:"id"`
	Index      models.IndexInfo           `json:"index"`
	Range      models.DateRange           `json:"range"`
	PriceField models.PriceField          `json:"price_field"`
	Aligned    bool                       `json:"aligned"`
	Scored     int                        `json:"scored"`
	Skipped    int                        `json:"skipped"`
	Top        []models.TickerPerformance `json:"top"`
	Bottom     []models.TickerPerformance `json:"bottom"`
	Sectors    []models.GroupPerformance  `json:"sectors"`
	Industries []models.GroupPerformance  `json:"industries"`
}

// RunInfo is one entry of GET /api/v1/runs.
type RunInfo struct {
	ID          string           `json:"id"`
	Index       models.Index     `json:"index"`
	Range       models.DateRange `json:"range"`
	Scored      int              `json:"scored"`
	GeneratedAt time.Time        `json:"generated_at"`
}

// ============================================================
// Handlers
// ============================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"status":     "ok",
			"version":    Version,
			"runs":       s.runs.len(),
			"ws_clients": s.wsHub.ClientCount(),
			"time":       s.now().UTC().Format(time.RFC3339),
		},
	})
}

func (s *Server) handleIndices(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: models.Indices()})
}

func (s *Server) handleCreateRun(w http.ResponseWriter, r *http.Request) {
	var req RunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Index == "" {
		writeError(w, http.StatusBadRequest, "index is required")
		return
	}
	if _, ok := models.LookupIndex(req.Index); !ok {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("%v: %q", pipeline.ErrUnknownIndex, req.Index))
		return
	}
	start, end, err := s.parseRange(req.Start, req.End)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	// Rejected runs never announce themselves on the websocket.
	if start.After(end) {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("%v: %s is after %s",
			pipeline.ErrInvalidRange, utils.FormatDate(start), utils.FormatDate(end)))
		return
	}
	top := req.Top
	if top <= 0 {
		top = s.cfg.Analysis.TopN
	}

	id := uuid.NewString()
	log := s.log.WithFields(logrus.Fields{"run_id": id, "index": req.Index})
	s.wsHub.Broadcast(WSMessage{Type: EventRunStarted, Data: RunEvent{
		RunID: id, Index: req.Index, Start: utils.FormatDate(start), End: utils.FormatDate(end),
	}})

	rep, err := s.runner.Run(r.Context(), pipeline.Request{
		Index: req.Index,
		Start: start,
		End:   end,
		Progress: func(ev datasource.FetchEvent) {
			s.wsHub.Broadcast(WSMessage{Type: EventRunProgress, Data: progressEvent(id, ev)})
		},
	})
	if err != nil {
		log.WithError(err).Warn("run failed")
		s.wsHub.Broadcast(WSMessage{Type: EventRunFailed, Data: RunEvent{RunID: id, Index: req.Index, Error: err.Error()}})
		writeError(w, statusFor(err), err.Error())
		return
	}

	rep.ID = id
	s.runs.put(rep)
	log.WithField("scored", len(rep.Rows)).Info("run stored")
	s.wsHub.Broadcast(WSMessage{Type: EventRunCompleted, Data: RunEvent{
		RunID: id, Index: string(rep.Index.ID), Scored: len(rep.Rows), Skipped: len(rep.Skipped),
	}})

	writeJSON(w, http.StatusCreated, APIResponse{Success: true, Data: summarize(rep, top)})
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	reports := s.runs.list()
	out := make([]RunInfo, 0, len(reports))
	for _, rep := range reports {
		out = append(out, RunInfo{
			ID:          rep.ID,
			Index:       rep.Index.ID,
			Range:       rep.Range,
			Scored:      len(rep.Rows),
			GeneratedAt: rep.GeneratedAt,
		})
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: out})
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	rep, ok := s.lookupRun(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: rep})
}

func (s *Server) handleRunCSV(w http.ResponseWriter, r *http.Request) {
	rep, ok := s.lookupRun(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+report.CSVFilename(rep)+`"`)
	if err := report.WriteCSV(w, rep.Rows); err != nil {
		s.log.WithError(err).WithField("run_id", rep.ID).Error("CSV export failed")
	}
}

func (s *Server) handleRunHTML(w http.ResponseWriter, r *http.Request) {
	rep, ok := s.lookupRun(w, r)
	if !ok {
		return
	}
	rcfg := report.DefaultReportConfig()
	if s.cfg.Analysis.TopN > 0 {
		rcfg.TopN = s.cfg.Analysis.TopN
	}
	html, err := report.GenerateHTML(rep, rcfg)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(html))
}

func (s *Server) handleRunGroups(w http.ResponseWriter, r *http.Request) {
	rep, ok := s.lookupRun(w, r)
	if !ok {
		return
	}
	by, err := groupByParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: performance.GroupBy(rep.Rows, by)})
}

func (s *Server) handleRunGroupsChart(w http.ResponseWriter, r *http.Request) {
	rep, ok := s.lookupRun(w, r)
	if !ok {
		return
	}
	by, err := groupByParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeSVG(w, report.GroupChart(performance.GroupBy(rep.Rows, by), by, report.ChartConfig{}))
}

func (s *Server) handleInspect(w http.ResponseWriter, r *http.Request) {
	insp, ok := s.inspect(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: insp})
}

func (s *Server) handleInspectChart(w http.ResponseWriter, r *http.Request) {
	insp, ok := s.inspect(w, r)
	if !ok {
		return
	}
	writeSVG(w, report.CumulativeChart(insp, report.ChartConfig{}))
}

func (s *Server) handleHeadlines(w http.ResponseWriter, r *http.Request) {
	if s.news == nil {
		writeError(w, http.StatusServiceUnavailable, "headlines are not configured")
		return
	}
	index, ok := models.LookupIndex(chi.URLParam(r, "index"))
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown index: "+chi.URLParam(r, "index"))
		return
	}
	limit := s.cfg.News.Limit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	articles, err := s.news.Headlines(r.Context(), index.ID, limit)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: articles})
}

// ============================================================
// Helpers
// ============================================================

func (s *Server) lookupRun(w http.ResponseWriter, r *http.Request) (*models.Report, bool) {
	id := chi.URLParam(r, "id")
	rep, ok := s.runs.get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "run not found: "+id)
		return nil, false
	}
	return rep, true
}

func (s *Server) inspect(w http.ResponseWriter, r *http.Request) (*models.TickerInspection, bool) {
	q := r.URL.Query()
	start, end, err := s.parseRange(q.Get("start"), q.Get("end"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	insp, err := s.runner.Inspect(r.Context(), chi.URLParam(r, "index"), chi.URLParam(r, "ticker"), start, end)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return nil, false
	}
	return insp, true
}

// parseRange parses optional YYYY-MM-DD bounds. Missing bounds fall back to
// year to date. Ordering is checked by the pipeline.
func (s *Server) parseRange(startStr, endStr string) (time.Time, time.Time, error) {
	start, end := utils.YearToDate(s.now())
	var err error
	if startStr != "" {
		if start, err = utils.ParseDate(startStr); err != nil {
			return time.Time{}, time.Time{}, err
		}
	}
	if endStr != "" {
		if end, err = utils.ParseDate(endStr); err != nil {
			return time.Time{}, time.Time{}, err
		}
	}
	return start, end, nil
}

func groupByParam(r *http.Request) (models.GroupBy, error) {
	by := r.URL.Query().Get("by")
	if by == "" {
		return models.GroupBySector, nil
	}
	return performance.ParseGroupBy(by)
}

func summarize(rep *models.Report, top int) RunSummary {
	return RunSummary{
		ID:         rep.ID,
		Index:      rep.Index,
		Range:      rep.Range,
		PriceField: rep.PriceField,
		Aligned:    rep.Aligned,
		Scored:     len(rep.Rows),
		Skipped:    len(rep.Skipped),
		Top:        performance.Top(rep.Rows, top),
		Bottom:     performance.Bottom(rep.Rows, top),
		Sectors:    performance.GroupBy(rep.Rows, models.GroupBySector),
		Industries: performance.GroupBy(rep.Rows, models.GroupByIndustry),
	}
}

// statusFor maps pipeline and data source errors to HTTP status codes.
func statusFor(err error) int {
	var httpErr *datasource.ErrHTTP
	switch {
	case errors.Is(err, pipeline.ErrInvalidRange),
		errors.Is(err, pipeline.ErrUnknownIndex),
		errors.Is(err, utils.ErrInvalidTicker):
		return http.StatusBadRequest
	case errors.Is(err, pipeline.ErrNoValidData):
		return http.StatusUnprocessableEntity
	case errors.Is(err, datasource.ErrTickerNotFound),
		errors.Is(err, datasource.ErrNoData):
		return http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.As(err, &httpErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.WithError(err).Warn("failed to write JSON response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, APIResponse{
		Success: false,
		Error:   msg,
	})
}

func writeSVG(w http.ResponseWriter, svg string) {
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(svg))
}
