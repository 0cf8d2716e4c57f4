package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dakarlabs/sms-campaigner/internal/handler"
)

func setupRouter(h *handler.Handler) http.Handler {
	r := chi.NewRouter()

	r.Get("/health", h.HealthCheck)

	r.Route("/api", func(r chi.Router) {
		r.Route("/scheduler", func(r chi.Router) {
			r.Post("/start", h.StartScheduler)
			r.Post("/stop", h.StopScheduler)
			r.Get("/status", h.GetSchedulerStatus)
		})

		r.Route("/campaigns/{id}", func(r chi.Router) {
			r.Post("/send", h.SendCampaignNow)
			r.Get("/status", h.GetCampaignStatus)
		})
	})

	return r
}
