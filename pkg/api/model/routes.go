package model

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
)

// MountRoutes attaches the model endpoints under the router's current
// prefix. Generation is rate limited per client IP; reads are not.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(httprate.Limit(10, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP)))
		r.Post("/generate", h.Generate)
	})
	r.Get("/recent", h.Recent)
	r.Get("/{id}", h.Show)
	r.Get("/{id}/workbook", h.Workbook)
	r.Get("/{id}/report", h.Report)
}
