// Package httpapi assembles the HTTP surface: middleware stack plus every
// route, wired onto a handlers.App.
package httpapi

import (
	"net/http"
	"time"

	"github.com/sellaverya-ship-it/Virtual-Hairstyle-AI/internal/http/handlers"
	appmw "github.com/sellaverya-ship-it/Virtual-Hairstyle-AI/internal/middleware"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

func NewRouter(app *handlers.App) http.Handler {
	r := chi.NewRouter()

	r.Use(
		chimw.RealIP,
		appmw.RequestID,
		appmw.CORS(app.Config.CORSAllowedOrigins),
		appmw.I18N("", app.Country),
		appmw.Logger(app.Logger),
		chimw.Recoverer,
	)
	if app.Config.RateLimitPerMin > 0 {
		r.Use(appmw.RateLimit(app.Config.RateLimitPerMin, time.Minute))
	}

	r.Get("/v1/healthz", app.Health)
	r.Get("/v1/openapi.json", app.OpenAPIJSON)
	r.Get("/v1/docs", app.OpenAPIDocs)
	r.Get("/v1/preferences", app.PreferenceCatalog)
	r.Get("/v1/stats", app.StatsSummary)

	r.Route("/v1/sessions", func(r chi.Router) {
		r.Post("/", app.SessionCreate)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", app.SessionGet)
			r.Delete("/", app.SessionDelete)
			r.Post("/reset", app.SessionReset)
			r.Post("/selfie", app.SelfieUpload)
			r.Post("/analysis", app.SessionAnalyze)
			r.Post("/generations", app.SessionGenerate)
			r.Get("/outcomes/{style}/image", app.OutcomeImage)
			r.Get("/archive", app.SessionArchive)
		})
	})

	r.Route("/v1/history", func(r chi.Router) {
		r.Get("/", app.HistoryRecent)
		r.Get("/{id}", app.HistorySession)
	})

	r.Get("/v1/files/*", app.FileDownload)

	return r
}
