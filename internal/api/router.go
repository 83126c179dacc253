package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/marmos91/dittofs/pkg/config"
	"github.com/marmos91/dittofs/pkg/metrics"
	"github.com/marmos91/dittofs/pkg/svfs"
)

// NewRouter builds the chi router exposing system over HTTP per the
// route table in SPEC_FULL.md §11.2.
func NewRouter(system *svfs.SVFS, cfg *config.Config) http.Handler {
	r := chi.NewRouter()

	r.Use(requestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	h := NewHandler(system, cfg.SVFS.GreedyNeedLength)

	mutating := func(r chi.Router) {
		if cfg.Server.AuthEnabled {
			r.Use(jwtAuth(cfg.Server.JWTSigningKey))
		}
	}

	r.Route("/v1/svfs", func(r chi.Router) {
		r.Get("/", h.Keys)
		r.Group(func(r chi.Router) {
			mutating(r)
			r.Post("/punt", h.PuntAll)
		})

		r.Route("/{id}", func(r chi.Router) {
			r.Use(svfIDContext)

			r.Get("/has", h.Has)
			r.Get("/blocks", h.Read)
			r.Get("/blocks/list", h.Blocks)
			r.Get("/need", h.Need)
			r.Get("/touches", h.Touches)
			r.Get("/stat", h.Stat)

			r.Group(func(r chi.Router) {
				mutating(r)
				r.Post("/", h.Insert)
				r.Delete("/", h.Remove)
				r.Put("/blocks", h.Write)
				r.Delete("/blocks", h.Erase)
				r.Post("/punt", h.Punt)
			})
		})
	})

	r.Get("/v1/stats", h.Stats)
	r.Get("/v1/schema", schemaHandler)

	if metrics.IsEnabled() {
		r.Handle("/metrics", promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}))
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return r
}
