package invoices

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
	r.Post("/{id}/issue", h.Issue)
	r.Post("/{id}/void", h.Void)
	r.Post("/{id}/payments", h.RecordPayment)
	r.Delete("/{id}/payments/{paymentID}", h.VoidPayment)
}

type invoicePayload struct {
	Number   string `json:"number" validate:"required"`
	Customer string `json:"customer" validate:"required"`
	Label    string `json:"label" validate:"required"`
	Net      string `json:"net" validate:"required"`
	TaxRate  string `json:"tax_rate"`
	Date     string `json:"date" validate:"required,datetime=2006-01-02"`
}

type paymentPayload struct {
	Amount string `json:"amount" validate:"required"`
	Method string `json:"method" validate:"required"`
	Date   string `json:"date" validate:"required,datetime=2006-01-02"`
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var payload invoicePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(payload); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	net, err := decimal.NewFromString(payload.Net)
	if err != nil {
		http.Error(w, "invoices: net must be a decimal amount", http.StatusBadRequest)
		return
	}
	rate := decimal.Zero
	if payload.TaxRate != "" {
		rate, err = decimal.NewFromString(payload.TaxRate)
		if err != nil {
			http.Error(w, "invoices: tax_rate must be a decimal rate", http.StatusBadRequest)
			return
		}
	}
	date, _ := time.Parse("2006-01-02", payload.Date)
	inv, err := h.service.Create(r.Context(), InvoiceInput{
		Number:   payload.Number,
		Customer: payload.Customer,
		Label:    payload.Label,
		Net:      net,
		TaxRate:  rate,
		Date:     date,
	})
	if err != nil {
		h.respondError(w, "create invoice", err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	h.respondJSON(w, inv)
}

func (h *Handler) Issue(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invoices: invalid id", http.StatusBadRequest)
		return
	}
	inv, err := h.service.Issue(r.Context(), id)
	if err != nil {
		h.respondError(w, "issue invoice", err)
		return
	}
	h.respondJSON(w, inv)
}

func (h *Handler) Void(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invoices: invalid id", http.StatusBadRequest)
		return
	}
	if err := h.service.Void(r.Context(), id); err != nil {
		h.respondError(w, "void invoice", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invoices: invalid id", http.StatusBadRequest)
		return
	}
	var payload paymentPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(payload); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	amount, err := decimal.NewFromString(payload.Amount)
	if err != nil {
		http.Error(w, "invoices: amount must be a decimal amount", http.StatusBadRequest)
		return
	}
	date, _ := time.Parse("2006-01-02", payload.Date)
	payment, err := h.service.RecordPayment(r.Context(), id, PaymentInput{
		Amount: amount,
		Method: payload.Method,
		Date:   date,
	})
	if err != nil {
		h.respondError(w, "record payment", err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	h.respondJSON(w, payment)
}

func (h *Handler) VoidPayment(w http.ResponseWriter, r *http.Request) {
	paymentID, err := uuid.Parse(chi.URLParam(r, "paymentID"))
	if err != nil {
		http.Error(w, "invoices: invalid payment id", http.StatusBadRequest)
		return
	}
	if err := h.service.VoidPayment(r.Context(), paymentID); err != nil {
		h.respondError(w, "void payment", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invoices: invalid id", http.StatusBadRequest)
		return
	}
	inv, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, "get invoice", err)
		return
	}
	h.respondJSON(w, inv)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.List(r.Context())
	if err != nil {
		h.respondError(w, "list invoices", err)
		return
	}
	h.respondJSON(w, list)
}

func (h *Handler) respondError(w http.ResponseWriter, action string, err error) {
	switch {
	case errors.Is(err, ErrInvoiceNotFound), errors.Is(err, ErrPaymentNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrInvalidStatus), errors.Is(err, ErrHasPayments):
		http.Error(w, err.Error(), http.StatusConflict)
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
