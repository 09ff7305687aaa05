package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	_ "github.com/samandr77/microservices/backoffice/docs" // swagger docs
)

func NewRouter(h *Handler, mw *Middleware, metrics http.Handler) http.Handler {
	mux := chi.NewRouter()
	mux.Use(mw.Log, mw.Recover, mw.Cors)

	mux.Route("/api", func(r chi.Router) {
		r.HandleFunc("/health", h.HealthHandler)
		r.Handle("/metrics", metrics)
		r.HandleFunc("/swagger/*", httpSwagger.Handler())

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", h.Register)
			r.Post("/login", h.Login)
		})

		r.Group(func(r chi.Router) {
			r.Use(mw.BearerAuth)

			r.Route("/invoices", func(r chi.Router) {
				r.Get("/", h.Invoices)
				r.Post("/", h.CreateInvoice)
				r.Get("/{id}", h.Invoice)
				r.Delete("/{id}", h.DeleteInvoice)
			})

			r.Post("/alerts", h.SendAlert)
		})
	})

	return mux
}
