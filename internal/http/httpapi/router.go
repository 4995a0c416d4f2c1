package httpapi

import (
	stdhttp "net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"tryon/internal/http/handlers"
	"tryon/internal/infra"
	"tryon/internal/middleware"
)

// NewRouter wires the invocation surface: the generation endpoint, health,
// and the metrics scrape handler.
func NewRouter(app *handlers.App, logger infra.Logger, metricsHandler stdhttp.Handler) stdhttp.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, chimw.RealIP, chimw.Recoverer, middleware.Logger(logger))

	r.Get("/v1/healthz", app.Health)

	r.Route("/v1/tryon", func(r chi.Router) {
		r.Post("/generate", app.GenerateTryOn)
	})

	r.Method(stdhttp.MethodGet, "/metrics", metricsHandler)

	return r
}
