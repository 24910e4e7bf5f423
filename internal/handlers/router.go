package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter assembles the API routes
func NewRouter(invoices *InvoiceHandler, players *PlayerHandler, sessions *SessionHandler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		// Invoice primitives for clients that drive payment themselves
		r.Post("/create-invoice", invoices.CreateInvoice)
		r.Get("/check-invoice", invoices.CheckInvoice)
		r.Get("/invoice-qr", invoices.InvoiceQR)

		// Players and stats
		r.Post("/auth", players.Auth)
		r.Get("/user/{id}", players.GetUser)
		r.Post("/update-stats", players.UpdateStats)
		r.Get("/leaderboard", players.Leaderboard)

		// Server-side game sessions
		r.Get("/languages", sessions.Languages)
		r.Post("/session/start", sessions.Start)
		r.Post("/session/await-payment", sessions.AwaitPayment)
		r.Post("/session/guess", sessions.Guess)
	})

	return r
}
