package postings

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Reference types linking entries back to their business objects.
const (
	RefExpense        = "expense"
	RefInvoice        = "invoice"
	RefInvoicePayment = "invoice_payment"
)

// ExpenseRecordedEvent carries the monetary effect of a recorded expense.
// Gross is tax-inclusive; a zero TaxRate means the expense is untaxed.
type ExpenseRecordedEvent struct {
	ID            uuid.UUID
	Date          time.Time
	Label         string
	Category      string
	PaymentMethod string
	Gross         decimal.Decimal
	TaxRate       decimal.Decimal
}

// InvoiceIssuedEvent carries the monetary effect of an issued invoice.
// Net excludes tax; tax is derived from the rate and rounded once.
type InvoiceIssuedEvent struct {
	ID      uuid.UUID
	Number  string
	Date    time.Time
	Label   string
	Net     decimal.Decimal
	TaxRate decimal.Decimal
}

// Gross returns the tax-inclusive invoice total.
func (e InvoiceIssuedEvent) Gross() decimal.Decimal {
	return e.Net.Add(e.Tax())
}

// Tax returns the VAT amount, rounded to the currency unit exactly once.
func (e InvoiceIssuedEvent) Tax() decimal.Decimal {
	if !e.TaxRate.IsPositive() {
		return decimal.Zero
	}
	return e.Net.Mul(e.TaxRate).Round(2)
}

// PaymentRecordedEvent carries an invoice payment.
type PaymentRecordedEvent struct {
	ID        uuid.UUID
	InvoiceID uuid.UUID
	Date      time.Time
	Label     string
	Method    string
	Amount    decimal.Decimal
}
