package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/dustin/go-humanize"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	appanalyses "github.com/bryanwahyu/wafr-accelerator/internal/application/analyses"
	appchat "github.com/bryanwahyu/wafr-accelerator/internal/application/chat"
	domain "github.com/bryanwahyu/wafr-accelerator/internal/domain/analyses"
	"github.com/bryanwahyu/wafr-accelerator/internal/domain/genai"
	"github.com/bryanwahyu/wafr-accelerator/internal/middleware"
)

const defaultMaxUpload = 20 << 20

// Options wires the router. Nil optional fields fall back to no-op values.
type Options struct {
	Analyses *appanalyses.Service
	Chat     *appchat.Service

	Logger      *slog.Logger
	Tracer      trace.Tracer
	Metrics     *middleware.Metrics
	RateLimiter *middleware.RateLimiter

	APIKeys        map[string]string
	AllowedOrigins []string
	MaxUploadBytes int64

	HealthChecks map[string]middleware.HealthChecker
	Readiness    middleware.HealthChecker
}

type Router struct {
	analyses  *appanalyses.Service
	chat      *appchat.Service
	metrics   *middleware.Metrics
	logger    *slog.Logger
	maxUpload int64
}

func NewRouter(opts Options) http.Handler {
	r := &Router{
		analyses:  opts.Analyses,
		chat:      opts.Chat,
		metrics:   opts.Metrics,
		logger:    opts.Logger,
		maxUpload: opts.MaxUploadBytes,
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	if r.metrics == nil {
		r.metrics = middleware.NewMetrics()
	}
	if r.maxUpload <= 0 {
		r.maxUpload = defaultMaxUpload
	}
	tracer := opts.Tracer
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("")
	}
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	mux := chi.NewRouter()
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:         300,
	}))
	mux.Use(middleware.Tracing(tracer))
	mux.Use(middleware.Logging(r.logger))
	mux.Use(r.metrics.Middleware)
	mux.Use(middleware.APIKeyAuth(opts.APIKeys))
	if opts.RateLimiter != nil {
		mux.Use(opts.RateLimiter.Middleware)
	}

	mux.Get("/health", middleware.HealthHandler(opts.HealthChecks))
	mux.Get("/health/live", middleware.LivenessHandler)
	mux.Get("/health/ready", middleware.ReadinessHandler(opts.Readiness))
	mux.Handle("/metrics", r.metrics.Handler())

	mux.Route("/v1/analyses", func(rt chi.Router) {
		rt.Post("/", r.wrap(r.handleSubmit))
		rt.Get("/", r.wrap(r.handleList))
		rt.Get("/{id}", r.wrap(r.handleGet))
		rt.Get("/{id}/areas", r.wrap(r.handleAreas))
		rt.Post("/{id}/ask", r.wrap(r.handleAsk))
		rt.Post("/{id}/ask/stream", r.wrap(r.handleAskStream))
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if err := h(w, req); err != nil {
			status := statusFor(err)
			if status >= http.StatusInternalServerError {
				r.logger.ErrorContext(req.Context(), "request failed", "path", req.URL.Path, "error", err)
			}
			http.Error(w, err.Error(), status)
		}
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, genai.ErrQuotaExceeded):
		return http.StatusTooManyRequests
	case errors.Is(err, domain.ErrDependency), errors.Is(err, genai.ErrInvocation):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", domain.ErrValidation, fmt.Sprintf(format, args...))
}

func session(req *http.Request) appanalyses.Session {
	return appanalyses.Session{
		Username: middleware.GetUserFromContext(req.Context()),
		Token:    middleware.GetAPIKeyFromContext(req.Context()),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

// POST /v1/analyses
// multipart: document (PDF) + title, description, review_owner, lens,
// environment, industry_type, review_type, pillars (repeatable)
func (r *Router) handleSubmit(w http.ResponseWriter, req *http.Request) error {
	res, err := r.submit(w, req)
	switch {
	case err == nil:
		r.metrics.Submission("accepted")
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrConflict):
		r.metrics.Submission("rejected")
	default:
		r.metrics.Submission("failed")
	}
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusCreated, res)
}

func (r *Router) submit(w http.ResponseWriter, req *http.Request) (appanalyses.SubmitResult, error) {
	req.Body = http.MaxBytesReader(w, req.Body, r.maxUpload)
	if err := req.ParseMultipartForm(r.maxUpload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return appanalyses.SubmitResult{}, validationError("upload exceeds %s", humanize.Bytes(uint64(r.maxUpload)))
		}
		return appanalyses.SubmitResult{}, validationError("invalid multipart form: %v", err)
	}
	defer req.MultipartForm.RemoveAll()

	form := req.MultipartForm.Value
	first := func(name string) string {
		if v := form[name]; len(v) > 0 {
			return v[0]
		}
		return ""
	}
	cmd := appanalyses.SubmitCommand{
		Title:        first("title"),
		Description:  first("description"),
		ReviewOwner:  first("review_owner"),
		Lens:         first("lens"),
		Environment:  first("environment"),
		IndustryType: first("industry_type"),
		ReviewType:   first("review_type"),
		Pillars:      form["pillars"],
	}
	if err := domain.ValidateClassification(cmd.Lens, cmd.Environment, cmd.IndustryType, cmd.Pillars); err != nil {
		return appanalyses.SubmitResult{}, err
	}

	var doc appanalyses.Document
	file, header, err := req.FormFile("document")
	switch {
	case errors.Is(err, http.ErrMissingFile):
		// left empty; the service reports the missing document in order
	case err != nil:
		return appanalyses.SubmitResult{}, validationError("document: %v", err)
	default:
		defer file.Close()
		if err := middleware.ValidateDocumentName(header.Filename); err != nil {
			return appanalyses.SubmitResult{}, validationError("%v", err)
		}
		content, err := io.ReadAll(file)
		if err != nil {
			return appanalyses.SubmitResult{}, validationError("read document: %v", err)
		}
		doc = appanalyses.Document{
			Name:        header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Content:     content,
		}
	}

	return r.analyses.Submit(req.Context(), session(req), cmd, doc)
}

// GET /v1/analyses
func (r *Router) handleList(w http.ResponseWriter, req *http.Request) error {
	list, err := r.analyses.List(req.Context())
	if err != nil {
		return err
	}
	if list == nil {
		list = []*domain.AnalysisRecord{}
	}
	return writeJSON(w, http.StatusOK, list)
}

func (r *Router) record(req *http.Request) (*domain.AnalysisRecord, error) {
	id := chi.URLParam(req, "id")
	if err := middleware.ValidateAnalysisID(id); err != nil {
		return nil, validationError("%v", err)
	}
	return r.analyses.Get(req.Context(), domain.AnalysisID(id))
}

// GET /v1/analyses/{id}
func (r *Router) handleGet(w http.ResponseWriter, req *http.Request) error {
	rec, err := r.record(req)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, rec)
}

// GET /v1/analyses/{id}/areas
func (r *Router) handleAreas(w http.ResponseWriter, req *http.Request) error {
	rec, err := r.record(req)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, map[string]any{"areas": appchat.Areas(rec)})
}

type askRequest struct {
	Area     string `json:"area"`
	Question string `json:"question"`
}

func decodeAsk(req *http.Request) (askRequest, error) {
	var body askRequest
	if err := json.NewDecoder(io.LimitReader(req.Body, 1<<20)).Decode(&body); err != nil {
		return askRequest{}, validationError("invalid JSON body: %v", err)
	}
	body.Question = middleware.SanitizeString(body.Question)
	return body, nil
}

// POST /v1/analyses/{id}/ask
// Body: {"area": "...", "question": "..."}
func (r *Router) handleAsk(w http.ResponseWriter, req *http.Request) error {
	rec, err := r.record(req)
	if err != nil {
		return err
	}
	body, err := decodeAsk(req)
	if err != nil {
		return err
	}
	answer, err := r.chat.Ask(req.Context(), rec, body.Area, body.Question)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, map[string]string{"answer": answer})
}

// POST /v1/analyses/{id}/ask/stream
// Fragments are written and flushed as they arrive. Once the first byte is
// out, failures can only end the body early.
func (r *Router) handleAskStream(w http.ResponseWriter, req *http.Request) error {
	rec, err := r.record(req)
	if err != nil {
		return err
	}
	body, err := decodeAsk(req)
	if err != nil {
		return err
	}
	seq, err := r.chat.AskStream(req.Context(), rec, body.Area, body.Question)
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusOK)
	flusher, _ := w.(http.Flusher)

	for frag, err := range seq {
		if err != nil {
			r.logger.ErrorContext(req.Context(), "stream aborted", "analysis_id", rec.ID, "error", err)
			return nil
		}
		if _, err := io.WriteString(w, frag); err != nil {
			r.logger.DebugContext(req.Context(), "client went away", "analysis_id", rec.ID, "error", err)
			return nil
		}
		if flusher != nil {
			flusher.Flush()
		}
		r.metrics.StreamFragments.Inc()
	}
	return nil
}
