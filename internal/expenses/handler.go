package expenses

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	ledgershared "github.com/gestio-erp/gestio-erp/internal/ledger/shared"
)

type Handler struct {
	service  *Service
	logger   *slog.Logger
	validate *validator.Validate
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{service: service, logger: logger, validate: validator.New()}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
}

type expensePayload struct {
	Label         string `json:"label" validate:"required"`
	Category      string `json:"category" validate:"required"`
	PaymentMethod string `json:"payment_method" validate:"required"`
	Gross         string `json:"gross" validate:"required"`
	TaxRate       string `json:"tax_rate"`
	Date          string `json:"date" validate:"required,datetime=2006-01-02"`
}

func (h *Handler) decodeInput(r *http.Request) (ExpenseInput, error) {
	var payload expensePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		return ExpenseInput{}, err
	}
	if err := h.validate.Struct(payload); err != nil {
		return ExpenseInput{}, err
	}
	gross, err := decimal.NewFromString(payload.Gross)
	if err != nil {
		return ExpenseInput{}, errors.New("expenses: gross must be a decimal amount")
	}
	rate := decimal.Zero
	if payload.TaxRate != "" {
		rate, err = decimal.NewFromString(payload.TaxRate)
		if err != nil {
			return ExpenseInput{}, errors.New("expenses: tax_rate must be a decimal rate")
		}
	}
	date, _ := time.Parse("2006-01-02", payload.Date)
	return ExpenseInput{
		Label:         payload.Label,
		Category:      payload.Category,
		PaymentMethod: payload.PaymentMethod,
		Gross:         gross,
		TaxRate:       rate,
		Date:          date,
	}, nil
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	input, err := h.decodeInput(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	exp, err := h.service.Create(r.Context(), input)
	if err != nil {
		h.respondError(w, "create expense", err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	h.respondJSON(w, exp)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "expenses: invalid id", http.StatusBadRequest)
		return
	}
	input, err := h.decodeInput(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	exp, err := h.service.Update(r.Context(), id, input)
	if err != nil {
		h.respondError(w, "update expense", err)
		return
	}
	h.respondJSON(w, exp)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "expenses: invalid id", http.StatusBadRequest)
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.respondError(w, "delete expense", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "expenses: invalid id", http.StatusBadRequest)
		return
	}
	exp, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, "get expense", err)
		return
	}
	h.respondJSON(w, exp)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.List(r.Context())
	if err != nil {
		h.respondError(w, "list expenses", err)
		return
	}
	h.respondJSON(w, list)
}

func (h *Handler) respondError(w http.ResponseWriter, action string, err error) {
	switch {
	case errors.Is(err, ErrExpenseNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ledgershared.ErrMappingNotFound),
		errors.Is(err, ledgershared.ErrAccountNotFound),
		errors.Is(err, ledgershared.ErrAccountInactive):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
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
