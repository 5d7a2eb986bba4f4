package invoices

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceStatus enumerates the invoice lifecycle.
type InvoiceStatus string

const (
	StatusDraft  InvoiceStatus = "DRAFT"
	StatusIssued InvoiceStatus = "ISSUED"
	StatusVoid   InvoiceStatus = "VOID"
)

// Invoice is a customer invoice. Drafts carry no accounting effect; issuing
// posts the receivable/sales/VAT entry, voiding removes it by reference.
type Invoice struct {
	ID        uuid.UUID
	Number    string
	Customer  string
	Label     string
	Net       decimal.Decimal
	TaxRate   decimal.Decimal
	Status    InvoiceStatus
	Date      time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Payment settles part or all of an issued invoice.
type Payment struct {
	ID        uuid.UUID
	InvoiceID uuid.UUID
	Amount    decimal.Decimal
	Method    string
	Date      time.Time
	CreatedAt time.Time
}

// InvoiceInput carries the fields for creating an invoice draft.
type InvoiceInput struct {
	Number   string
	Customer string
	Label    string
	Net      decimal.Decimal
	TaxRate  decimal.Decimal
	Date     time.Time
}

func (in InvoiceInput) Validate() error {
	if in.Number == "" {
		return errors.New("invoices: number required")
	}
	if in.Customer == "" {
		return errors.New("invoices: customer required")
	}
	if !in.Net.IsPositive() {
		return errors.New("invoices: net amount must be positive")
	}
	if in.TaxRate.IsNegative() {
		return errors.New("invoices: tax rate cannot be negative")
	}
	if in.Date.IsZero() {
		return errors.New("invoices: date required")
	}
	return nil
}

// PaymentInput carries the fields for recording a payment.
type PaymentInput struct {
	Amount decimal.Decimal
	Method string
	Date   time.Time
}

func (in PaymentInput) Validate() error {
	if !in.Amount.IsPositive() {
		return errors.New("invoices: payment amount must be positive")
	}
	if in.Method == "" {
		return errors.New("invoices: payment method required")
	}
	if in.Date.IsZero() {
		return errors.New("invoices: payment date required")
	}
	return nil
}

var (
	// ErrInvoiceNotFound indicates a missing invoice.
	ErrInvoiceNotFound = errors.New("invoices: invoice not found")
	// ErrPaymentNotFound indicates a missing payment.
	ErrPaymentNotFound = errors.New("invoices: payment not found")
	// ErrInvalidStatus indicates the action does not fit the current status.
	ErrInvalidStatus = errors.New("invoices: invalid status transition")
	// ErrHasPayments blocks voiding an invoice that still has payments.
	ErrHasPayments = errors.New("invoices: void payments first")
)
