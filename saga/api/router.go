package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/pawshelter/adoption/log"
	"github.com/pawshelter/adoption/saga"
	"github.com/pawshelter/adoption/saga/api/handlers/status"
)

// NewRouter exposes the read side of the orchestrator: adoption status by
// correlation id plus filtered listings.
func NewRouter(store saga.Store, logger log.Logger) http.Handler {
	statusHandler := status.NewStatusHandler(logger, status.NewStatusService(store))

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Route("/adoptions", func(r chi.Router) {
		r.Get("/", statusHandler.GetFilteredBy)
		r.Get("/{correlationID}", statusHandler.GetStatus)
	})

	return r
}
