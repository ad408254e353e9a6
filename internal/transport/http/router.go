// Package httptransport is the thin HTTP layer. Handlers decode, delegate to
// the domain services, and encode; no business logic lives here.
package httptransport

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	extractionservice "paperview/internal/extraction/service"
	phasemodels "paperview/internal/phase/models"
	phaseservice "paperview/internal/phase/service"
	"paperview/internal/platform/metrics"
	"paperview/internal/platform/middleware"
	tagservice "paperview/internal/tag/service"
	id "paperview/pkg/domain"
)

type Handler struct {
	phases      *phaseservice.Service
	extractions *extractionservice.Service
	tags        *tagservice.Service
	logger      *slog.Logger
}

func NewHandler(
	phases *phaseservice.Service,
	extractions *extractionservice.Service,
	tags *tagservice.Service,
	logger *slog.Logger,
) *Handler {
	return &Handler{phases: phases, extractions: extractions, tags: tags, logger: logger}
}

// NewRouter wires all endpoints with the standard middleware chain.
func NewRouter(h *Handler, m *metrics.Metrics, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.Actor(logger))
		r.Use(middleware.ContentTypeJSON)
		r.Use(instrument(m))

		r.Route("/projects/{projectID}", func(r chi.Router) {
			r.Route("/phase", func(r chi.Router) {
				r.Put("/", h.handleConfigurePhase)
				r.Get("/", h.handleGetPhase)
				r.Post("/activate", h.handlePhaseTransition(
					func(req *http.Request, projectID id.ProjectID, actor id.UserID) (*phasemodels.ExtractionPhase, error) {
						return h.phases.Activate(req.Context(), projectID, actor)
					}))
				r.Post("/pause", h.handlePhaseTransition(
					func(req *http.Request, projectID id.ProjectID, actor id.UserID) (*phasemodels.ExtractionPhase, error) {
						return h.phases.Pause(req.Context(), projectID, actor)
					}))
				r.Post("/resume", h.handlePhaseTransition(
					func(req *http.Request, projectID id.ProjectID, actor id.UserID) (*phasemodels.ExtractionPhase, error) {
						return h.phases.Resume(req.Context(), projectID, actor)
					}))
				r.Post("/complete", h.handlePhaseTransition(
					func(req *http.Request, projectID id.ProjectID, actor id.UserID) (*phasemodels.ExtractionPhase, error) {
						return h.phases.Complete(req.Context(), projectID, actor)
					}))
			})
			r.Get("/tags", h.handleListProjectTags)
		})

		r.Route("/extractions", func(r chi.Router) {
			r.Post("/", h.handleCreateExtraction)
			r.Get("/", h.handleListExtractions)
			r.Route("/{extractionID}", func(r chi.Router) {
				r.Get("/", h.handleGetExtraction)
				r.Post("/start", h.handleStartExtraction)
				r.Post("/quotes", h.handleCreateQuote)
				r.Post("/complete", h.handleCompleteExtraction)
				r.Get("/progress", h.handleExtractionProgress)
			})
		})

		r.Route("/tags", func(r chi.Router) {
			r.Post("/", h.handleCreateTag)
			r.Post("/merge", h.handleMergeTags)
			r.Post("/{tagID}/approve", h.handleApproveTag)
			r.Post("/{tagID}/reject", h.handleRejectTag)
		})
	})

	return r
}

// instrument records request latency by route pattern and status.
func instrument(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &instrumentWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r)
			route := chi.RouteContext(r.Context()).RoutePattern()
			if route == "" {
				route = "unmatched"
			}
			m.RequestDuration.WithLabelValues(route, strconv.Itoa(sw.status)).
				Observe(time.Since(start).Seconds())
		})
	}
}

type instrumentWriter struct {
	http.ResponseWriter
	status int
}

func (w *instrumentWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
