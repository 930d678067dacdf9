package localgw

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Routes holds the handler behind each deployed API Gateway resource.
type Routes struct {
	ExplainMatch HandlerFunc
	ListSchools  HandlerFunc
	GetSchool    HandlerFunc
	Inquiry      HandlerFunc
	Health       HandlerFunc
}

// NewRouter mirrors the deployed REST API. Nil routes are not mounted.
func NewRouter(routes Routes, log *slog.Logger) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	mount(r, "/explain-match", "explain-match", routes.ExplainMatch, log, http.MethodPost)
	mount(r, "/schools", "get-schools", routes.ListSchools, log, http.MethodGet)
	mount(r, "/schools/{schoolId}", "get-school-by-id", routes.GetSchool, log, http.MethodGet)
	mount(r, "/inquiries", "submit-inquiry", routes.Inquiry, log, http.MethodPost)
	mount(r, "/health", "health", routes.Health, log, http.MethodGet)

	return r
}

func mount(r chi.Router, pattern, name string, fn HandlerFunc, log *slog.Logger, method string) {
	if fn == nil {
		return
	}
	h := Adapt(name, fn, log)
	r.MethodFunc(method, pattern, h)
	r.MethodFunc(http.MethodOptions, pattern, h)
}
