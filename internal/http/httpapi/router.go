package httpapi

import (
	stdhttp "net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/corboo/claire-video-generator/internal/http/handlers"
	"github.com/corboo/claire-video-generator/internal/middleware"
)

func NewRouter(app *handlers.App) stdhttp.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, chimw.RealIP, chimw.Recoverer)
	r.Use(middleware.Logger(app.Log))
	if len(app.Cfg.CORSOrigins) > 0 {
		r.Use(middleware.CORS(app.Cfg.CORSOrigins))
	}

	r.Get("/v1/healthz", app.Health)

	r.Route("/v1/videos", func(r chi.Router) {
		r.With(middleware.RateLimit(app.Cfg.RateLimitPerMin, time.Minute)).
			Post("/generate", app.VideosGenerate)
	})

	return r
}
