// Package chi exposes resource controllers over HTTP using the chi router.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/pennersr/towel/internal/domain"
	"github.com/pennersr/towel/internal/domain/page"
	"github.com/pennersr/towel/internal/domain/record"
	"github.com/pennersr/towel/internal/usecase/resource"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Renderer turns a controller render response into an HTTP body. The JSON
// renderer is the default; an HTML template renderer plugs in the same way.
type Renderer interface {
	Render(w http.ResponseWriter, status int, template string, context map[string]any) error
}

// Server routes HTTP requests to resource controllers.
type Server struct {
	controllers   []*resource.Controller
	renderer      Renderer
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP server over the given controllers. A nil
// renderer defaults to JSON.
func NewServer(controllers []*resource.Controller, renderer Renderer, logger *zap.Logger) *Server {
	if renderer == nil {
		renderer = JSONRenderer{}
	}
	s := &Server{
		controllers: controllers,
		renderer:    renderer,
		logger:      logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, "not_found"),
		sentinelHandler(domain.ErrPermissionDenied, http.StatusForbidden, "permission_denied"),
	}
	return s
}

// Routes mounts every controller under its base URL.
func (s *Server) Routes(r chi.Router) {
	for _, c := range s.controllers {
		s.mount(r, c)
	}
	r.Get("/health", s.healthCheck)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)
}

func (s *Server) mount(r chi.Router, c *resource.Controller) {
	base := c.Config().BaseURL

	list := s.handle(func(ctx context.Context, req resource.Request, _ string) (resource.Response, error) {
		return c.List(ctx, req)
	})
	add := s.handle(func(ctx context.Context, req resource.Request, _ string) (resource.Response, error) {
		return c.Add(ctx, req)
	})
	detail := s.handle(func(ctx context.Context, req resource.Request, id string) (resource.Response, error) {
		return c.Detail(ctx, req, id)
	})
	edit := s.handle(func(ctx context.Context, req resource.Request, id string) (resource.Response, error) {
		return c.Edit(ctx, req, id)
	})
	del := s.handle(func(ctx context.Context, req resource.Request, id string) (resource.Response, error) {
		return c.Delete(ctx, req, id)
	})

	r.Route(strings.TrimSuffix(base, "/"), func(r chi.Router) {
		// POST on the list URL carries batch submissions.
		r.Get("/", list)
		r.Post("/", list)
		r.Get("/add/", add)
		r.Post("/add/", add)
		r.Get("/{id}/", detail)
		r.Get("/{id}/edit/", edit)
		r.Post("/{id}/edit/", edit)
		r.Get("/{id}/delete/", del)
		r.Post("/{id}/delete/", del)
	})
}

type pipelineFunc func(ctx context.Context, req resource.Request, id string) (resource.Response, error)

func (s *Server) handle(run pipelineFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", "invalid form data")
			return
		}

		req := resource.Request{
			Method:    r.Method,
			SessionID: SessionFromContext(r.Context()),
			Identity:  IdentityFromContext(r.Context()),
			Query:     r.URL.Query(),
			Form:      r.PostForm,
		}

		resp, err := run(r.Context(), req, chi.URLParam(r, "id"))
		if err != nil {
			s.handleDomainError(w, err)
			return
		}

		if resp.IsRedirect() {
			http.Redirect(w, r, resp.Location(), http.StatusSeeOther)
			return
		}
		if err := s.renderer.Render(w, http.StatusOK, resp.Template(), resp.Context()); err != nil {
			s.logger.Error("render failed", zap.String("template", resp.Template()), zap.Error(err))
		}
	}
}

func (s *Server) healthCheck(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrNotFound,
		domain.ErrPermissionDenied,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

// ErrorResponse is the JSON error body.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Code: code, Message: message})
}

// JSONRenderer writes the render context as a JSON document carrying the
// template identifier, for API consumers and tests.
type JSONRenderer struct{}

// Render implements Renderer.
func (JSONRenderer) Render(w http.ResponseWriter, status int, template string, context map[string]any) error {
	body := map[string]any{
		"template": template,
		"context":  jsonContext(context),
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(body)
}

// jsonContext converts domain values with unexported fields into plain maps.
func jsonContext(context map[string]any) map[string]any {
	out := make(map[string]any, len(context))
	for k, v := range context {
		out[k] = jsonValue(v)
	}
	return out
}

func jsonValue(v any) any {
	switch t := v.(type) {
	case record.Record:
		return recordToJSON(t)
	case []record.Record:
		items := make([]map[string]any, len(t))
		for i, rec := range t {
			items[i] = recordToJSON(rec)
		}
		return items
	case page.Page:
		return pageToJSON(t)
	default:
		return v
	}
}

func recordToJSON(rec record.Record) map[string]any {
	return map[string]any{
		"kind":   rec.Kind(),
		"id":     rec.ID(),
		"fields": rec.Fields(),
	}
}

func pageToJSON(pg page.Page) map[string]any {
	return map[string]any{
		"number":      pg.Number(),
		"total_pages": pg.TotalPages(),
		"size":        pg.Size(),
		"all":         pg.All(),
		"clamped":     pg.Clamped(),
		"has_next":    pg.HasNext(),
		"has_prev":    pg.HasPrev(),
	}
}
