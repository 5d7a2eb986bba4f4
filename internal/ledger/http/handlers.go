package ledgerhttp

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/gestio-erp/gestio-erp/internal/ledger/accounts"
	"github.com/gestio-erp/gestio-erp/internal/ledger/entries"
	"github.com/gestio-erp/gestio-erp/internal/ledger/query"
	ledgershared "github.com/gestio-erp/gestio-erp/internal/ledger/shared"
)

// Handler serves the read side of the ledger plus entry reversal. Entries are
// otherwise written only through the event producers.
type Handler struct {
	accounts *accounts.Service
	entries  *entries.Service
	engine   *query.Engine
	logger   *slog.Logger
	validate *validator.Validate
}

func NewHandler(logger *slog.Logger, accountsSvc *accounts.Service, entriesSvc *entries.Service, engine *query.Engine) *Handler {
	return &Handler{
		accounts: accountsSvc,
		entries:  entriesSvc,
		engine:   engine,
		logger:   logger,
		validate: validator.New(),
	}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/accounts", h.ListAccounts)
	r.Post("/accounts/{id}/deactivate", h.DeactivateAccount)
	r.Delete("/accounts/{id}", h.DeleteAccount)
	r.Get("/accounts/{id}/movements", h.AccountMovements)
	r.Get("/accounts/{id}/balance", h.PeriodBalance)
	r.Get("/entries", h.ListEntries)
	r.Get("/entries/{id}", h.GetEntry)
	r.Post("/entries/{id}/reverse", h.ReverseEntry)
}

type rangeQuery struct {
	From string `validate:"required,datetime=2006-01-02"`
	To   string `validate:"required,datetime=2006-01-02"`
}

func (h *Handler) dateRange(r *http.Request) (time.Time, time.Time, error) {
	q := rangeQuery{From: r.URL.Query().Get("from"), To: r.URL.Query().Get("to")}
	if err := h.validate.Struct(q); err != nil {
		return time.Time{}, time.Time{}, err
	}
	from, _ := time.Parse("2006-01-02", q.From)
	to, _ := time.Parse("2006-01-02", q.To)
	return from, to, nil
}

func (h *Handler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	if raw := r.URL.Query().Get("class"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || !accounts.Class(n).Valid() {
			http.Error(w, "ledger: class must be 1-7", http.StatusBadRequest)
			return
		}
		list, err := h.accounts.ListByClass(r.Context(), accounts.Class(n))
		if err != nil {
			h.respondError(w, "list accounts", err)
			return
		}
		h.respondJSON(w, list)
		return
	}
	list, err := h.accounts.List(r.Context())
	if err != nil {
		h.respondError(w, "list accounts", err)
		return
	}
	h.respondJSON(w, list)
}

func (h *Handler) DeactivateAccount(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "ledger: invalid account id", http.StatusBadRequest)
		return
	}
	if err := h.accounts.Deactivate(r.Context(), id); err != nil {
		h.respondError(w, "deactivate account", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "ledger: invalid account id", http.StatusBadRequest)
		return
	}
	if err := h.accounts.Delete(r.Context(), id); err != nil {
		h.respondError(w, "delete account", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type movementView struct {
	EntryID     int64           `json:"entry_id"`
	Number      int64           `json:"entry_number"`
	Journal     string          `json:"journal"`
	Date        string          `json:"date"`
	Description string          `json:"description"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Balance     decimal.Decimal `json:"balance"`
}

func (h *Handler) AccountMovements(w http.ResponseWriter, r *http.Request) {
	accountID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "ledger: invalid account id", http.StatusBadRequest)
		return
	}
	from, to, err := h.dateRange(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	movements, err := h.engine.AccountMovements(r.Context(), accountID, from, to)
	if err != nil {
		h.respondError(w, "account movements", err)
		return
	}
	balances := query.RunningBalance(decimal.Zero, movements)
	views := make([]movementView, 0, len(movements))
	for i, m := range movements {
		views = append(views, movementView{
			EntryID:     m.EntryID,
			Number:      m.Number,
			Journal:     m.Journal,
			Date:        m.Date.Format("2006-01-02"),
			Description: m.Description,
			Debit:       m.Debit,
			Credit:      m.Credit,
			Balance:     balances[i],
		})
	}
	h.respondJSON(w, views)
}

func (h *Handler) PeriodBalance(w http.ResponseWriter, r *http.Request) {
	accountID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "ledger: invalid account id", http.StatusBadRequest)
		return
	}
	from, to, err := h.dateRange(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	balance, err := h.engine.PeriodBalance(r.Context(), accountID, from, to)
	if err != nil {
		h.respondError(w, "period balance", err)
		return
	}
	h.respondJSON(w, map[string]decimal.Decimal{"balance": balance})
}

func (h *Handler) ListEntries(w http.ResponseWriter, r *http.Request) {
	from, to, err := h.dateRange(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	list, err := h.entries.ListRange(r.Context(), from, to)
	if err != nil {
		h.respondError(w, "list entries", err)
		return
	}
	h.respondJSON(w, list)
}

func (h *Handler) GetEntry(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "ledger: invalid entry id", http.StatusBadRequest)
		return
	}
	entry, err := h.entries.GetEntry(r.Context(), id)
	if err != nil {
		h.respondError(w, "get entry", err)
		return
	}
	h.respondJSON(w, entry)
}

type reversePayload struct {
	Memo string `json:"memo"`
}

func (h *Handler) ReverseEntry(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "ledger: invalid entry id", http.StatusBadRequest)
		return
	}
	var payload reversePayload
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&payload)
	}
	entry, err := h.entries.ReverseEntry(r.Context(), id, payload.Memo)
	if err != nil {
		h.respondError(w, "reverse entry", err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	h.respondJSON(w, entry)
}

func (h *Handler) respondError(w http.ResponseWriter, action string, err error) {
	switch {
	case errors.Is(err, ledgershared.ErrEntryNotFound),
		errors.Is(err, ledgershared.ErrAccountNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ledgershared.ErrAccountInUse):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		var validation *ledgershared.ValidationError
		if errors.As(err, &validation) {
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		h.logger.Error(action, slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func (h *Handler) respondJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("encode response", slog.Any("error", err))
	}
}
