package http

import "github.com/go-chi/chi/v5"

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/income-statement", h.IncomeStatement)
	r.Get("/balance-sheet", h.BalanceSheet)
	r.Get("/vat", h.VATReport)
}
