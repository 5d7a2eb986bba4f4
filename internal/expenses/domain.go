package expenses

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Expense is a business expense: gross (tax-inclusive) amount paid from a
// payment method, classified by category. Its accounting effect lives in the
// ledger, keyed by reference ("expense", ID).
type Expense struct {
	ID            uuid.UUID
	Label         string
	Category      string
	PaymentMethod string
	Gross         decimal.Decimal
	TaxRate       decimal.Decimal
	Date          time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ExpenseInput carries the fields for creating or updating an expense.
type ExpenseInput struct {
	Label         string
	Category      string
	PaymentMethod string
	Gross         decimal.Decimal
	TaxRate       decimal.Decimal
	Date          time.Time
}

// Validate checks minimum criteria before anything touches storage.
func (in ExpenseInput) Validate() error {
	if in.Label == "" {
		return errors.New("expenses: label required")
	}
	if in.Category == "" {
		return errors.New("expenses: category required")
	}
	if in.PaymentMethod == "" {
		return errors.New("expenses: payment method required")
	}
	if !in.Gross.IsPositive() {
		return errors.New("expenses: gross amount must be positive")
	}
	if in.TaxRate.IsNegative() {
		return errors.New("expenses: tax rate cannot be negative")
	}
	if in.Date.IsZero() {
		return errors.New("expenses: date required")
	}
	return nil
}

// ErrExpenseNotFound indicates a missing expense.
var ErrExpenseNotFound = errors.New("expenses: expense not found")
