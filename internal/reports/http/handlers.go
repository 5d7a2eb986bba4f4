package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/gestio-erp/gestio-erp/internal/ledger/shared"
	"github.com/gestio-erp/gestio-erp/internal/reports"
)

// Handler serves the statutory reports as JSON aggregates. The core keeps no
// UI concerns; consumers shape presentation themselves.
type Handler struct {
	service  *reports.Service
	logger   *slog.Logger
	validate *validator.Validate
}

func NewHandler(logger *slog.Logger, service *reports.Service) *Handler {
	return &Handler{service: service, logger: logger, validate: validator.New()}
}

type rangeQuery struct {
	From string `validate:"required,datetime=2006-01-02"`
	To   string `validate:"required,datetime=2006-01-02"`
}

func (h *Handler) parseRange(r *http.Request) (time.Time, time.Time, error) {
	q := rangeQuery{From: r.URL.Query().Get("from"), To: r.URL.Query().Get("to")}
	if err := h.validate.Struct(q); err != nil {
		return time.Time{}, time.Time{}, err
	}
	from, _ := time.Parse("2006-01-02", q.From)
	to, _ := time.Parse("2006-01-02", q.To)
	if to.Before(from) {
		return time.Time{}, time.Time{}, errors.New("reports: range end before start")
	}
	return from, to, nil
}

func (h *Handler) IncomeStatement(w http.ResponseWriter, r *http.Request) {
	from, to, err := h.parseRange(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	report, err := h.service.IncomeStatement(r.Context(), from, to)
	if err != nil {
		h.logger.Error("build income statement", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	respondJSON(w, h.logger, report)
}

func (h *Handler) BalanceSheet(w http.ResponseWriter, r *http.Request) {
	asOfParam := r.URL.Query().Get("as_of")
	asOf, err := time.Parse("2006-01-02", asOfParam)
	if err != nil {
		http.Error(w, "reports: as_of must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	report, err := h.service.BalanceSheet(r.Context(), asOf)
	if err != nil {
		var consistency *shared.ConsistencyError
		if errors.As(err, &consistency) {
			h.logger.Error("balance sheet identity broken",
				slog.String("assets", consistency.Assets.StringFixed(2)),
				slog.String("liabilities_equity", consistency.LiabilitiesEquity.StringFixed(2)),
				slog.String("result", consistency.Result.StringFixed(2)))
			http.Error(w, consistency.Error(), http.StatusConflict)
			return
		}
		h.logger.Error("build balance sheet", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	respondJSON(w, h.logger, report)
}

func (h *Handler) VATReport(w http.ResponseWriter, r *http.Request) {
	from, to, err := h.parseRange(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	report, err := h.service.VATReport(r.Context(), from, to)
	if err != nil {
		h.logger.Error("build vat report", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	respondJSON(w, h.logger, report)
}

func respondJSON(w http.ResponseWriter, logger *slog.Logger, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Error("encode response", slog.Any("error", err))
	}
}
