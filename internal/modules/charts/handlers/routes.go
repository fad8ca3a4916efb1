package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all chart routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/charts", func(r chi.Router) {
		r.Get("/frame", h.HandleGetFrame)
		r.Get("/series", h.HandleGetSeries)
		r.Get("/layout", h.HandleGetLayout)
		r.Get("/summary", h.HandleGetSummary)
		r.Post("/reload", h.HandleReload)
	})
}
