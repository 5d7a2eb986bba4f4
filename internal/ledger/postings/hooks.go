package postings

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/gestio-erp/gestio-erp/internal/ledger/entries"
	"github.com/gestio-erp/gestio-erp/internal/ledger/mappings"
)

// Ledger exposes the posting operations required by generators. Postings run
// in the caller's transaction so the business event and its entry commit as
// one unit.
type Ledger interface {
	CreateEntryTx(ctx context.Context, tx pgx.Tx, input entries.EntryInput) (entries.JournalEntry, error)
	DeleteByReferenceTx(ctx context.Context, tx pgx.Tx, ref entries.Reference) error
}

// MappingRepository resolves category and payment-method keys to accounts.
type MappingRepository interface {
	Get(ctx context.Context, module, key string) (mappings.AccountMapping, error)
}

// Hooks wires business events from the expense and invoice modules into the
// general ledger. One handler per event type; account selection is data-driven
// through the mapping table and fails closed when a key has no mapping.
type Hooks struct {
	ledger   Ledger
	mappings MappingRepository
}

// NewHooks constructs the generator hooks.
func NewHooks(ledger Ledger, mappingRepo MappingRepository) *Hooks {
	return &Hooks{ledger: ledger, mappings: mappingRepo}
}

func (h *Hooks) resolve(ctx context.Context, module, key string) (int64, error) {
	mapping, err := h.mappings.Get(ctx, module, key)
	if err != nil {
		return 0, err
	}
	return mapping.AccountID, nil
}

// HandleExpenseRecorded posts the accounting entry for a recorded expense.
func (h *Hooks) HandleExpenseRecorded(ctx context.Context, tx pgx.Tx, evt ExpenseRecordedEvent) error {
	expenseAccount, err := h.resolve(ctx, "EXPENSE", "category."+evt.Category)
	if err != nil {
		return err
	}
	paymentAccount, err := h.resolve(ctx, "EXPENSE", "method."+evt.PaymentMethod)
	if err != nil {
		return err
	}
	acc := ExpenseAccounts{Expense: expenseAccount, Payment: paymentAccount}
	if evt.TaxRate.IsPositive() {
		acc.VATDeductible, err = h.resolve(ctx, "VAT", "vat.deductible")
		if err != nil {
			return err
		}
	}
	input, err := BuildExpenseEntry(evt, acc)
	if err != nil {
		return err
	}
	_, err = h.ledger.CreateEntryTx(ctx, tx, input)
	return err
}

// HandleExpenseDeleted removes the entry for a deleted or voided expense.
func (h *Hooks) HandleExpenseDeleted(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	return h.ledger.DeleteByReferenceTx(ctx, tx, entries.Reference{Type: RefExpense, ID: id})
}

// HandleInvoiceIssued posts the accounting entry for an issued invoice.
func (h *Hooks) HandleInvoiceIssued(ctx context.Context, tx pgx.Tx, evt InvoiceIssuedEvent) error {
	receivable, err := h.resolve(ctx, "INVOICE", "invoice.receivable")
	if err != nil {
		return err
	}
	sales, err := h.resolve(ctx, "INVOICE", "invoice.sales")
	if err != nil {
		return err
	}
	acc := InvoiceAccounts{Receivable: receivable, Sales: sales}
	if evt.TaxRate.IsPositive() {
		acc.VATCollected, err = h.resolve(ctx, "VAT", "vat.collected")
		if err != nil {
			return err
		}
	}
	input, err := BuildInvoiceEntry(evt, acc)
	if err != nil {
		return err
	}
	_, err = h.ledger.CreateEntryTx(ctx, tx, input)
	return err
}

// HandleInvoiceVoided removes the entry for a voided invoice.
func (h *Hooks) HandleInvoiceVoided(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	return h.ledger.DeleteByReferenceTx(ctx, tx, entries.Reference{Type: RefInvoice, ID: id})
}

// HandlePaymentRecorded posts the accounting entry for an invoice payment.
func (h *Hooks) HandlePaymentRecorded(ctx context.Context, tx pgx.Tx, evt PaymentRecordedEvent) error {
	bank, err := h.resolve(ctx, "PAYMENT", "method."+evt.Method)
	if err != nil {
		return err
	}
	receivable, err := h.resolve(ctx, "INVOICE", "invoice.receivable")
	if err != nil {
		return err
	}
	input, err := BuildPaymentEntry(evt, PaymentAccounts{Bank: bank, Receivable: receivable})
	if err != nil {
		return err
	}
	_, err = h.ledger.CreateEntryTx(ctx, tx, input)
	return err
}

// HandlePaymentVoided removes the entry for a voided payment.
func (h *Hooks) HandlePaymentVoided(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	return h.ledger.DeleteByReferenceTx(ctx, tx, entries.Reference{Type: RefInvoicePayment, ID: id})
}
