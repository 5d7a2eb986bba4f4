package fec

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/gestio-erp/gestio-erp/internal/ledger/accounts"
	"github.com/gestio-erp/gestio-erp/internal/ledger/entries"
	"github.com/gestio-erp/gestio-erp/internal/ledger/shared"
	_ "github.com/gestio-erp/gestio-erp/testing"
)

type stubEntries struct{ list []entries.JournalEntry }

func (s stubEntries) ListRange(context.Context, time.Time, time.Time) ([]entries.JournalEntry, error) {
	return s.list, nil
}

type stubAccounts struct{ list []accounts.Account }

func (s stubAccounts) List(context.Context) ([]accounts.Account, error) {
	return s.list, nil
}

func amt(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func chart() []accounts.Account {
	return []accounts.Account{
		{ID: 1, Code: "606000", Name: "Achats non stockes", Class: accounts.ClassExpense, NormalSide: accounts.NormalDebit},
		{ID: 2, Code: "445660", Name: "TVA deductible", Class: accounts.ClassThirdParty, NormalSide: accounts.NormalDebit},
		{ID: 3, Code: "512000", Name: "Banque", Class: accounts.ClassFinancial, NormalSide: accounts.NormalDebit},
	}
}

func sampleEntry() entries.JournalEntry {
	refID := uuid.MustParse("9b1deb4d-3b7d-4bad-9bdd-2b0d7b3dcb6d")
	created := time.Date(2025, time.April, 2, 9, 30, 0, 0, time.UTC)
	return entries.JournalEntry{
		ID:          42,
		Number:      7,
		Journal:     entries.JournalPurchases,
		Date:        time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC),
		Description: "Expense Fuel",
		Reference:   &entries.Reference{Type: "expense", ID: refID},
		CreatedAt:   created,
		Lines: []entries.JournalLine{
			{ID: 1, AccountID: 1, Debit: amt("100.00"), Credit: decimal.Zero, Description: "Fuel"},
			{ID: 2, AccountID: 2, Debit: amt("20.00"), Credit: decimal.Zero},
			{ID: 3, AccountID: 3, Debit: decimal.Zero, Credit: amt("120.00")},
		},
	}
}

func exportLines(t *testing.T, entryList []entries.JournalEntry) []string {
	t.Helper()
	exporter := NewExporter(stubEntries{list: entryList}, stubAccounts{list: chart()})
	var buf bytes.Buffer
	from := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, time.December, 31, 0, 0, 0, 0, time.UTC)
	require.NoError(t, exporter.WriteRange(context.Background(), &buf, from, to))

	out := buf.String()
	require.True(t, strings.HasSuffix(out, "\r\n"), "output must end with CRLF")
	return strings.Split(strings.TrimSuffix(out, "\r\n"), "\r\n")
}

func TestWriteRangeGoldenRows(t *testing.T) {
	rows := exportLines(t, []entries.JournalEntry{sampleEntry()})
	require.Len(t, rows, 4)

	require.Equal(t,
		"JournalCode|JournalLib|EcritureNum|EcritureDate|CompteNum|CompteLib|CompAuxNum|CompAuxLib|PieceRef|PieceDate|EcritureLib|Debit|Credit|EcritureLet|DateLet|ValidDate|Montantdevise|Idevise",
		rows[0])
	require.Equal(t,
		"ACH|Achats|7|20250401|606000|Achats non stockes|||expense-9b1deb4d-3b7d-4bad-9bdd-2b0d7b3dcb6d|20250401|Fuel|100.00|0.00|||20250402||",
		rows[1])
	require.Equal(t,
		"ACH|Achats|7|20250401|445660|TVA deductible|||expense-9b1deb4d-3b7d-4bad-9bdd-2b0d7b3dcb6d|20250401|Expense Fuel|20.00|0.00|||20250402||",
		rows[2])
	require.Equal(t,
		"ACH|Achats|7|20250401|512000|Banque|||expense-9b1deb4d-3b7d-4bad-9bdd-2b0d7b3dcb6d|20250401|Expense Fuel|0.00|120.00|||20250402||",
		rows[3])

	for _, row := range rows {
		require.Len(t, strings.Split(row, Separator), 18)
	}
}

func TestWriteRangeEntryWithoutReferenceUsesNumber(t *testing.T) {
	entry := sampleEntry()
	entry.Reference = nil
	rows := exportLines(t, []entries.JournalEntry{entry})

	fields := strings.Split(rows[1], Separator)
	require.Equal(t, "7", fields[8])
}

func TestWriteRangeSanitizesLabels(t *testing.T) {
	entry := sampleEntry()
	entry.Lines[0].Description = "Fuel|station\nnorth"
	rows := exportLines(t, []entries.JournalEntry{entry})

	fields := strings.Split(rows[1], Separator)
	require.Len(t, fields, 18)
	require.Equal(t, "Fuel station north", fields[10])
}

func TestWriteRangeUnknownAccountFails(t *testing.T) {
	entry := sampleEntry()
	entry.Lines[0].AccountID = 999
	exporter := NewExporter(stubEntries{list: []entries.JournalEntry{entry}}, stubAccounts{list: chart()})

	var buf bytes.Buffer
	err := exporter.WriteRange(context.Background(), &buf,
		time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, time.December, 31, 0, 0, 0, 0, time.UTC))
	require.ErrorIs(t, err, shared.ErrAccountNotFound)
}

func TestWriteRangeRowsReproduceAccountTotals(t *testing.T) {
	rows := exportLines(t, []entries.JournalEntry{sampleEntry()})

	totals := make(map[string]decimal.Decimal)
	for _, row := range rows[1:] {
		fields := strings.Split(row, Separator)
		debit := amt(fields[11])
		credit := amt(fields[12])
		code := fields[4]
		totals[code] = totals[code].Add(debit).Sub(credit)
	}
	require.True(t, totals["606000"].Equal(amt("100.00")))
	require.True(t, totals["445660"].Equal(amt("20.00")))
	require.True(t, totals["512000"].Equal(amt("-120.00")))

	sum := decimal.Zero
	for _, v := range totals {
		sum = sum.Add(v)
	}
	require.True(t, sum.IsZero(), "exported rows must balance")
}
