// Package server exposes wizard sessions over a JSON API.
package server

import (
	"context"
	"net/http"
	"time"

	"pool-wizard/internal/common/logger"
	"pool-wizard/internal/services/poolwizard"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ReadinessCheck reports whether a dependency can serve traffic.
type ReadinessCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

type Handler struct {
	service *poolwizard.Service
	logger  logger.Logger
	checks  []ReadinessCheck
}

func NewHandler(service *poolwizard.Service, log logger.Logger, checks ...ReadinessCheck) *Handler {
	return &Handler{
		service: service,
		logger:  log.WithFields(map[string]interface{}{"component": "http"}),
		checks:  checks,
	}
}

func NewRouter(handler *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(recoverMiddleware(handler.logger))
	r.Use(loggingMiddleware(handler.logger))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeSuccess(w, http.StatusOK, map[string]string{"status": "healthy", "time": time.Now().UTC().Format(time.RFC3339)})
	})
	r.Get("/readyz", handler.ready)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Get("/pools", handler.listPools)
		r.Patch("/pools/{id}", handler.updatePool)
		r.Delete("/pools/{id}", handler.deletePool)
		r.Get("/investor/pools/{id}", handler.investorPool)
		r.Post("/investor/pools/{id}/invest", handler.invest)
		r.Get("/investor/investments", handler.listInvestments)
		r.Get("/calculators/repayment", handler.repayment)

		r.Route("/wizard/sessions", func(r chi.Router) {
			r.Post("/", handler.openSession)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", handler.getSession)
				r.Delete("/", handler.closeSession)
				r.Patch("/steps/{step}", handler.updateStep)
				r.Post("/continue", handler.continueStep)
				r.Post("/back", handler.back)
				r.Post("/jump", handler.jump)
				r.Post("/submit", handler.submit)

				r.Post("/{list}", handler.addListItem)
				r.Put("/{list}/{index}", handler.updateListItem)
				r.Delete("/{list}/{index}", handler.removeListItem)
			})
		})
	})
	return r
}

func (h *Handler) ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	failed := map[string]string{}
	for _, c := range h.checks {
		if err := c.Check(ctx); err != nil {
			failed[c.Name] = err.Error()
		}
	}
	if len(failed) > 0 {
		writeJSON(w, http.StatusServiceUnavailable, envelope{
			Data:  failed,
			Error: &errorBody{Code: "NOT_READY", Message: "dependencies unavailable"},
		})
		return
	}
	writeSuccess(w, http.StatusOK, map[string]string{"status": "ready"})
}
