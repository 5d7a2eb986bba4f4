package postings

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/gestio-erp/gestio-erp/internal/ledger/entries"
)

// VAT policy, applied uniformly: tax is always broken out as its own line.
// For a tax-inclusive gross G at rate r, the net is round2(G/(1+r)) and the
// tax is G minus net, so the entry balances by construction.

// ExpenseAccounts are the resolved accounts for an expense posting.
type ExpenseAccounts struct {
	Expense       int64
	VATDeductible int64
	Payment       int64
}

// InvoiceAccounts are the resolved accounts for an invoice posting.
type InvoiceAccounts struct {
	Receivable   int64
	Sales        int64
	VATCollected int64
}

// PaymentAccounts are the resolved accounts for an invoice payment posting.
type PaymentAccounts struct {
	Bank       int64
	Receivable int64
}

// BuildExpenseEntry turns an expense event into a balanced posting: debit the
// expense category account (net), debit VAT deductible (tax), credit the
// payment-method account (gross).
func BuildExpenseEntry(evt ExpenseRecordedEvent, acc ExpenseAccounts) (entries.EntryInput, error) {
	if !evt.Gross.IsPositive() {
		return entries.EntryInput{}, errors.New("postings: expense amount must be positive")
	}
	if evt.TaxRate.IsNegative() {
		return entries.EntryInput{}, errors.New("postings: negative tax rate")
	}
	lines := make([]entries.LineInput, 0, 3)
	tax := decimal.Zero
	if evt.TaxRate.IsPositive() {
		net := evt.Gross.Div(decimal.NewFromInt(1).Add(evt.TaxRate)).Round(2)
		tax = evt.Gross.Sub(net)
	}
	if tax.IsPositive() {
		net := evt.Gross.Sub(tax)
		rate := evt.TaxRate
		lines = append(lines,
			entries.LineInput{AccountID: acc.Expense, Debit: net, TaxRate: &rate, TaxSide: entries.TaxDeductible, Description: evt.Label},
			entries.LineInput{AccountID: acc.VATDeductible, Debit: tax, TaxRate: &rate, TaxSide: entries.TaxDeductible},
		)
	} else {
		lines = append(lines,
			entries.LineInput{AccountID: acc.Expense, Debit: evt.Gross, Description: evt.Label},
		)
	}
	lines = append(lines, entries.LineInput{AccountID: acc.Payment, Credit: evt.Gross})
	return entries.EntryInput{
		Journal:     entries.JournalPurchases,
		Date:        evt.Date,
		Description: fmt.Sprintf("Expense %s", evt.Label),
		Reference:   &entries.Reference{Type: RefExpense, ID: evt.ID},
		Lines:       lines,
	}, nil
}

// BuildInvoiceEntry turns an issued invoice into a posting: debit the customer
// receivable (gross), credit sales (net), credit VAT collected (tax).
func BuildInvoiceEntry(evt InvoiceIssuedEvent, acc InvoiceAccounts) (entries.EntryInput, error) {
	if !evt.Net.IsPositive() {
		return entries.EntryInput{}, errors.New("postings: invoice net must be positive")
	}
	if evt.TaxRate.IsNegative() {
		return entries.EntryInput{}, errors.New("postings: negative tax rate")
	}
	lines := []entries.LineInput{
		{AccountID: acc.Receivable, Debit: evt.Gross(), Description: evt.Number},
	}
	if tax := evt.Tax(); tax.IsPositive() {
		rate := evt.TaxRate
		lines = append(lines,
			entries.LineInput{AccountID: acc.Sales, Credit: evt.Net, TaxRate: &rate, TaxSide: entries.TaxCollected, Description: evt.Label},
			entries.LineInput{AccountID: acc.VATCollected, Credit: tax, TaxRate: &rate, TaxSide: entries.TaxCollected},
		)
	} else {
		lines = append(lines,
			entries.LineInput{AccountID: acc.Sales, Credit: evt.Net, Description: evt.Label},
		)
	}
	return entries.EntryInput{
		Journal:     entries.JournalSales,
		Date:        evt.Date,
		Description: fmt.Sprintf("Invoice %s", evt.Number),
		Reference:   &entries.Reference{Type: RefInvoice, ID: evt.ID},
		Lines:       lines,
	}, nil
}

// BuildPaymentEntry turns an invoice payment into a posting: debit the bank or
// cash account, credit the customer receivable.
func BuildPaymentEntry(evt PaymentRecordedEvent, acc PaymentAccounts) (entries.EntryInput, error) {
	if !evt.Amount.IsPositive() {
		return entries.EntryInput{}, errors.New("postings: payment amount must be positive")
	}
	return entries.EntryInput{
		Journal:     entries.JournalBank,
		Date:        evt.Date,
		Description: fmt.Sprintf("Payment %s", evt.Label),
		Reference:   &entries.Reference{Type: RefInvoicePayment, ID: evt.ID},
		Lines: []entries.LineInput{
			{AccountID: acc.Bank, Debit: evt.Amount},
			{AccountID: acc.Receivable, Credit: evt.Amount},
		},
	}, nil
}
