// Package api exposes dashboards over HTTP as JSON.
package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"go.uber.org/zap"

	"trade-eda/internal/domain"
	"trade-eda/internal/ingestion"
	"trade-eda/internal/logger"
	"trade-eda/internal/observability"
	"trade-eda/internal/pipeline"
)

// DefaultUploadMaxBytes caps upload bodies when no limit is configured.
const DefaultUploadMaxBytes int64 = 32 << 20

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ctxKey int

const datasetKey ctxKey = iota

// Server serves the dashboard API.
type Server struct {
	loader         *pipeline.Loader
	dashboard      *pipeline.Dashboard
	source         ingestion.Source // default source, nil when none configured
	uploadMaxBytes int64
	logger         *zap.Logger
}

// NewServer creates an API server.
func NewServer(loader *pipeline.Loader, dashboard *pipeline.Dashboard) *Server {
	return &Server{
		loader:         loader,
		dashboard:      dashboard,
		uploadMaxBytes: DefaultUploadMaxBytes,
		logger:         zap.NewNop(),
	}
}

// WithDefaultSource sets the source served by GET /api/v1/dashboard.
func (s *Server) WithDefaultSource(src ingestion.Source) *Server {
	s.source = src
	return s
}

// WithUploadLimit sets the maximum upload size in bytes.
func (s *Server) WithUploadLimit(n int64) *Server {
	if n > 0 {
		s.uploadMaxBytes = n
	}
	return s
}

// WithLogger sets the logger.
func (s *Server) WithLogger(l *zap.Logger) *Server {
	s.logger = logger.OrNop(l)
	return s
}

// Routes returns the HTTP handler.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.instrument)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.Health)
	r.Handle("/metrics", observability.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))

		r.Get("/dashboard", s.DefaultDashboard)
		r.Post("/datasets", s.UploadDataset)

		r.Route("/datasets/{id}", func(r chi.Router) {
			r.Use(s.DatasetCtx) // Load cached dataset into context
			r.Get("/", s.GetDataset)
			r.Get("/dashboard", s.DatasetDashboard)
		})
	})

	return r
}

// Health handles GET /healthz
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]any{
		"status":          "ok",
		"cached_datasets": s.loader.Cache().Len(r.Context()),
	})
}

// DefaultDashboard handles GET /api/v1/dashboard
func (s *Server) DefaultDashboard(w http.ResponseWriter, r *http.Request) {
	if s.source == nil {
		s.fail(w, r, fmt.Errorf("%w: no default source configured", ingestion.ErrNoData))
		return
	}

	ds, err := s.loader.Load(r.Context(), s.source)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	s.renderDashboard(w, r, ds)
}

// UploadDataset handles POST /api/v1/datasets
//
// The body is a CSV document, or an XLSX workbook when the content type is
// the spreadsheet MIME type or format=xlsx is given. The optional name
// parameter identifies the upload; a new upload under the same name replaces
// the previous dataset.
func (s *Server) UploadDataset(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.uploadMaxBytes)
	data, err := io.ReadAll(r.Body)
	if err != nil {
		s.fail(w, r, fmt.Errorf("read upload: %w", err))
		return
	}
	if len(data) == 0 {
		s.fail(w, r, fmt.Errorf("%w: empty upload body", errBadParam))
		return
	}

	ds, err := s.loader.Load(r.Context(), uploadSource(r, data))
	if err != nil {
		if errors.Is(err, ingestion.ErrNoData) {
			err = fmt.Errorf("%w: %v", errBadParam, err)
		}
		s.fail(w, r, err)
		return
	}

	s.logger.Info("dataset uploaded",
		zap.String("dataset_id", ds.ID),
		zap.String("source", ds.Source),
		zap.Int("bytes", len(data)),
		zap.String("request_id", middleware.GetReqID(r.Context())))

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, pipeline.Describe(ds))
}

// DatasetCtx middleware loads the cached dataset named by {id}.
func (s *Server) DatasetCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		ds, err := s.loader.Cache().Get(r.Context(), id)
		if err != nil {
			s.fail(w, r, fmt.Errorf("dataset %s: %w", id, err))
			return
		}
		ctx := context.WithValue(r.Context(), datasetKey, ds)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetDataset handles GET /api/v1/datasets/{id}
func (s *Server) GetDataset(w http.ResponseWriter, r *http.Request) {
	ds := r.Context().Value(datasetKey).(*domain.Dataset)
	render.JSON(w, r, pipeline.Describe(ds))
}

// DatasetDashboard handles GET /api/v1/datasets/{id}/dashboard
func (s *Server) DatasetDashboard(w http.ResponseWriter, r *http.Request) {
	ds := r.Context().Value(datasetKey).(*domain.Dataset)
	s.renderDashboard(w, r, ds)
}

func (s *Server) renderDashboard(w http.ResponseWriter, r *http.Request, ds *domain.Dataset) {
	q, err := parseDashboardQuery(r, s.dashboard, ds)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	var view *pipeline.View
	if q.preview != nil {
		view = s.dashboard.BuildWithPreview(ds, q.params, *q.preview)
	} else {
		view = s.dashboard.Build(ds, q.params)
	}
	render.JSON(w, r, view)
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError && status != http.StatusServiceUnavailable {
		s.logger.Error("request failed",
			zap.String("path", r.URL.Path),
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Error(err))
	} else {
		s.logger.Debug("request rejected",
			zap.String("path", r.URL.Path),
			zap.Int("status", status),
			zap.Error(err))
	}
	_ = render.Render(w, r, &ErrResponse{HTTPStatusCode: status, Message: err.Error()})
}

// instrument records request count and latency per route pattern.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		observability.RecordHTTPRequest(routePattern(r), status, time.Since(start).Seconds())
	})
}

// routePattern returns the matched chi pattern, keeping label cardinality
// bounded for unmatched paths.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
		return rctx.RoutePattern()
	}
	return "unmatched"
}

func uploadSource(r *http.Request, data []byte) ingestion.Source {
	q := r.URL.Query()
	name := q.Get("name")
	if name == "" {
		name = "upload"
	}

	isXLSX := strings.EqualFold(q.Get("format"), "xlsx") || ingestion.IsWorkbook(name)
	if ct, _, err := mime.ParseMediaType(r.Header.Get("Content-Type")); err == nil && ct == xlsxContentType {
		isXLSX = true
	}

	if isXLSX {
		return ingestion.XLSXBytes(name, data, q.Get("sheet"))
	}
	return ingestion.CSVBytes(name, data)
}
