package postings

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/gestio-erp/gestio-erp/internal/ledger/entries"
	"github.com/gestio-erp/gestio-erp/internal/ledger/mappings"
	"github.com/gestio-erp/gestio-erp/internal/ledger/shared"
)

type fakeLedger struct {
	created []entries.EntryInput
	deleted []entries.Reference
}

func (l *fakeLedger) CreateEntryTx(_ context.Context, _ pgx.Tx, input entries.EntryInput) (entries.JournalEntry, error) {
	l.created = append(l.created, input)
	return entries.JournalEntry{Number: int64(len(l.created))}, nil
}

func (l *fakeLedger) DeleteByReferenceTx(_ context.Context, _ pgx.Tx, ref entries.Reference) error {
	l.deleted = append(l.deleted, ref)
	return nil
}

type mapTable map[string]int64

func (m mapTable) Get(_ context.Context, module, key string) (mappings.AccountMapping, error) {
	id, ok := m[module+"/"+key]
	if !ok {
		return mappings.AccountMapping{}, shared.ErrMappingNotFound
	}
	return mappings.AccountMapping{Module: module, Key: key, AccountID: id}, nil
}

func fullTable() mapTable {
	return mapTable{
		"EXPENSE/category.transport": 10,
		"EXPENSE/method.card":        11,
		"VAT/vat.deductible":         12,
		"VAT/vat.collected":          13,
		"INVOICE/invoice.receivable": 14,
		"INVOICE/invoice.sales":      15,
		"PAYMENT/method.transfer":    16,
	}
}

func expenseEvent() ExpenseRecordedEvent {
	return ExpenseRecordedEvent{
		ID:            uuid.New(),
		Date:          time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC),
		Label:         "Fuel",
		Category:      "transport",
		PaymentMethod: "card",
		Gross:         decimal.RequireFromString("120.00"),
		TaxRate:       decimal.RequireFromString("0.2"),
	}
}

func TestHandleExpenseRecordedResolvesAccountsFromTable(t *testing.T) {
	ledger := &fakeLedger{}
	hooks := NewHooks(ledger, fullTable())

	require.NoError(t, hooks.HandleExpenseRecorded(context.Background(), nil, expenseEvent()))
	require.Len(t, ledger.created, 1)

	input := ledger.created[0]
	require.Len(t, input.Lines, 3)
	require.EqualValues(t, 10, input.Lines[0].AccountID)
	require.EqualValues(t, 12, input.Lines[1].AccountID)
	require.EqualValues(t, 11, input.Lines[2].AccountID)
}

func TestHandleExpenseRecordedFailsClosedOnMissingMapping(t *testing.T) {
	table := fullTable()
	delete(table, "EXPENSE/category.transport")
	ledger := &fakeLedger{}
	hooks := NewHooks(ledger, table)

	err := hooks.HandleExpenseRecorded(context.Background(), nil, expenseEvent())
	require.ErrorIs(t, err, shared.ErrMappingNotFound)
	require.Empty(t, ledger.created, "nothing may be posted on a missing mapping")
}

func TestHandleExpenseRecordedSkipsVATLookupWhenUntaxed(t *testing.T) {
	table := fullTable()
	delete(table, "VAT/vat.deductible")
	ledger := &fakeLedger{}
	hooks := NewHooks(ledger, table)

	evt := expenseEvent()
	evt.TaxRate = decimal.Zero
	require.NoError(t, hooks.HandleExpenseRecorded(context.Background(), nil, evt))
	require.Len(t, ledger.created, 1)
	require.Len(t, ledger.created[0].Lines, 2)
}

func TestHandleInvoiceIssuedPostsSalesEntry(t *testing.T) {
	ledger := &fakeLedger{}
	hooks := NewHooks(ledger, fullTable())

	evt := InvoiceIssuedEvent{
		ID:      uuid.New(),
		Number:  "FA-2025-0001",
		Date:    time.Date(2025, time.May, 12, 0, 0, 0, 0, time.UTC),
		Label:   "Consulting",
		Net:     decimal.RequireFromString("1500.00"),
		TaxRate: decimal.RequireFromString("0.2"),
	}
	require.NoError(t, hooks.HandleInvoiceIssued(context.Background(), nil, evt))
	require.Len(t, ledger.created, 1)

	input := ledger.created[0]
	require.Equal(t, entries.JournalSales, input.Journal)
	require.EqualValues(t, 14, input.Lines[0].AccountID)
	require.True(t, input.Lines[0].Debit.Equal(decimal.RequireFromString("1800.00")))
}

func TestVoidHooksDeleteByReference(t *testing.T) {
	ledger := &fakeLedger{}
	hooks := NewHooks(ledger, fullTable())
	id := uuid.New()

	require.NoError(t, hooks.HandleExpenseDeleted(context.Background(), nil, id))
	require.NoError(t, hooks.HandleInvoiceVoided(context.Background(), nil, id))
	require.NoError(t, hooks.HandlePaymentVoided(context.Background(), nil, id))

	require.Equal(t, []entries.Reference{
		{Type: RefExpense, ID: id},
		{Type: RefInvoice, ID: id},
		{Type: RefInvoicePayment, ID: id},
	}, ledger.deleted)
}
