package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/amlakplus/backoffice/internal/ledger"
	"github.com/amlakplus/backoffice/internal/receipts"
)

// NewRouter wires all back-office endpoints.
func NewRouter(service *ledger.Service, store *receipts.Store) http.Handler {
	accountsHandler := NewAccountsHandler(service)
	dealsHandler := NewDealsHandler(service)
	journalsHandler := NewJournalsHandler(service)
	vouchersHandler := NewVouchersHandler(service, store)
	reportsHandler := NewReportsHandler(service)

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/1", func(r chi.Router) {
		r.Use(ActorMiddleware)

		r.Get("/accounts", accountsHandler.List)
		r.Get("/accounts/{id}", accountsHandler.Get)
		r.Get("/accounts/{id}/ledger", accountsHandler.Ledger)

		r.Route("/deals/{dealID}", func(r chi.Router) {
			r.Post("/ledger", dealsHandler.Recognize)
			r.Get("/ledger", dealsHandler.Summary)
			r.Post("/ledger/repair", dealsHandler.Repair)
			r.Post("/payments", dealsHandler.Settle)
			r.Get("/pending", dealsHandler.ListPending)
			r.Post("/pending/{pendingID}/approve", dealsHandler.ApprovePending)
			r.Post("/pending/{pendingID}/reject", dealsHandler.RejectPending)
		})

		r.Post("/journals", journalsHandler.Create)
		r.Get("/documents", journalsHandler.ListDocuments)
		r.Get("/documents/{id}", journalsHandler.GetDocument)

		r.Post("/vouchers/receipts", vouchersHandler.CreateReceipt)
		r.Post("/vouchers/payments", vouchersHandler.CreatePayment)
		r.Get("/payments/{id}/receipt", vouchersHandler.ServePaymentReceipt)

		r.Get("/offices/{id}/finance", reportsHandler.OfficeFinance)
	})

	return r
}
