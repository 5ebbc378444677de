package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/goliatone/go-reportgen/internal/autosave"
	"github.com/goliatone/go-reportgen/internal/store"
	"github.com/goliatone/go-reportgen/pkg/model"
	"github.com/goliatone/go-reportgen/pkg/openapi"
	"github.com/goliatone/go-reportgen/pkg/orchestrator"
)

// Templates lists and fetches template records. *catalog.Catalog satisfies it.
type Templates interface {
	Template(ctx context.Context, id string) (*model.TemplateRecord, error)
	Templates(ctx context.Context) ([]model.TemplateRecord, error)
}

// ReportStore persists report values. *store.Store satisfies it.
type ReportStore interface {
	SaveValues(ctx context.Context, reportID uuid.UUID, pageID string, values model.Values) error
	Values(ctx context.Context, reportID uuid.UUID) (store.Report, error)
}

// Option customises the server.
type Option func(*Server)

// WithTemplates sets the template listing source.
func WithTemplates(templates Templates) Option {
	return func(s *Server) {
		s.templates = templates
	}
}

// WithReportStore enables the /reports endpoints.
func WithReportStore(reports ReportStore) Option {
	return func(s *Server) {
		s.reports = reports
	}
}

// WithAutosaveDelay sets the debounce delay for ?mode=autosave writes.
func WithAutosaveDelay(delay time.Duration) Option {
	return func(s *Server) {
		if delay > 0 {
			s.autosaveDelay = delay
		}
	}
}

// WithOpenAPIOptions forwards options to the generated OpenAPI document.
func WithOpenAPIOptions(options ...openapi.Option) Option {
	return func(s *Server) {
		s.openapiOptions = append(s.openapiOptions, options...)
	}
}

// WithLogger sets the server logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Server exposes the report pipeline over HTTP.
type Server struct {
	pipeline       *orchestrator.Orchestrator
	templates      Templates
	reports        ReportStore
	autosaveDelay  time.Duration
	openapiOptions []openapi.Option
	logger         *zap.Logger

	router chi.Router

	mu     sync.Mutex
	savers map[uuid.UUID]*reportSaver
}

// New builds the server and its routes.
func New(pipeline *orchestrator.Orchestrator, options ...Option) (*Server, error) {
	if pipeline == nil {
		return nil, errors.New("server: orchestrator is required")
	}
	s := &Server{
		pipeline:      pipeline,
		autosaveDelay: autosave.DefaultDelay,
		logger:        zap.NewNop(),
		savers:        make(map[uuid.UUID]*reportSaver),
	}
	for _, opt := range options {
		if opt != nil {
			opt(s)
		}
	}
	s.router = s.routes()
	return s, nil
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Get("/openapi.json", s.handleOpenAPI)

	r.Route("/templates", func(r chi.Router) {
		r.Get("/", s.handleListTemplates)
		r.Get("/{pageID}", s.handleGetTemplate)
	})

	r.Route("/reports/{reportID}/values", func(r chi.Router) {
		r.Get("/", s.handleGetValues)
		r.Put("/", s.handlePutValues)
	})

	r.Route("/pages/{pageID}", func(r chi.Router) {
		r.Post("/validate", s.handleValidate)
		r.Post("/preview", s.handlePreview)
		r.Post("/export", s.handleExport)
	})
	return r
}

// Close flushes every pending autosave.
func (s *Server) Close(ctx context.Context) error {
	s.mu.Lock()
	savers := s.savers
	s.savers = make(map[uuid.UUID]*reportSaver)
	s.mu.Unlock()

	var errs []error
	for id, entry := range savers {
		if err := entry.saver.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("server: flush report %s: %w", id, err))
		}
	}
	return errors.Join(errs...)
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully
// and flushes pending autosaves.
func (s *Server) ListenAndServe(ctx context.Context, addr string, read, write, shutdown time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadTimeout:       read,
		WriteTimeout:      write,
		ReadHeaderTimeout: 10 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server: listen: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdown)
	defer cancel()
	s.logger.Info("http server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return s.Close(shutdownCtx)
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		started := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("elapsed", time.Since(started)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

// reportSaver debounces autosaves of one report for the page they were
// made against.
type reportSaver struct {
	pageID string
	saver  *autosave.Saver
}

// scheduleAutosave queues values for a debounced save. A report that switches
// page first has its pending snapshot written under the previous page.
func (s *Server) scheduleAutosave(ctx context.Context, reportID uuid.UUID, pageID string, values model.Values) error {
	s.mu.Lock()
	previous, ok := s.savers[reportID]
	if ok && previous.pageID != pageID {
		delete(s.savers, reportID)
	} else {
		previous = nil
	}
	s.mu.Unlock()

	if previous != nil {
		if err := previous.saver.Close(ctx); err != nil {
			return fmt.Errorf("server: flush report %s: %w", reportID, err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.savers[reportID]
	if !ok {
		entry = s.newReportSaver(reportID, pageID)
		s.savers[reportID] = entry
	}
	return entry.saver.Schedule(values)
}

// discardAutosave drops any pending snapshot for reportID so a direct save
// is not overwritten by older debounced values.
func (s *Server) discardAutosave(reportID uuid.UUID) {
	s.mu.Lock()
	entry, ok := s.savers[reportID]
	delete(s.savers, reportID)
	s.mu.Unlock()

	if ok {
		entry.saver.Stop()
	}
}

func (s *Server) newReportSaver(reportID uuid.UUID, pageID string) *reportSaver {
	entry := &reportSaver{pageID: pageID}
	entry.saver = autosave.New(
		func(ctx context.Context, values model.Values) error {
			return s.reports.SaveValues(ctx, reportID, pageID, values)
		},
		autosave.WithDelay(s.autosaveDelay),
		autosave.OnSaved(func() { s.evictIdle(reportID, entry) }),
		autosave.WithLogger(s.logger.With(zap.Stringer("report_id", reportID), zap.String("page_id", pageID))),
	)
	return entry
}

// evictIdle forgets a saver once it has nothing left to write. Schedule runs
// under s.mu, so no snapshot can slip in between the check and the delete.
func (s *Server) evictIdle(reportID uuid.UUID, entry *reportSaver) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.savers[reportID] == entry && !entry.saver.Pending() {
		delete(s.savers, reportID)
	}
}

// activeSavers reports how many reports have a live autosave.
func (s *Server) activeSavers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.savers)
}
