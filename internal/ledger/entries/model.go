package entries

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Journal codes partition entries by book of original entry. The code travels
// into the regulatory export, so values are stable contract points.
const (
	JournalPurchases = "ACH"
	JournalSales     = "VEN"
	JournalBank      = "BQ"
	JournalMisc      = "OD"
)

// JournalLabel returns the human label for a journal code.
func JournalLabel(code string) string {
	switch code {
	case JournalPurchases:
		return "Achats"
	case JournalSales:
		return "Ventes"
	case JournalBank:
		return "Banque"
	case JournalMisc:
		return "Operations diverses"
	default:
		return code
	}
}

// TaxSide marks which side of a VAT declaration a taxed line feeds.
type TaxSide string

const (
	TaxCollected  TaxSide = "COLLECTED"
	TaxDeductible TaxSide = "DEDUCTIBLE"
	TaxNone       TaxSide = ""
)

// Reference points at the business object that produced an entry.
type Reference struct {
	Type string
	ID   uuid.UUID
}

// JournalEntry is one balanced, immutable transaction. Corrections are
// reversals or delete-then-regenerate by reference, never in-place edits.
type JournalEntry struct {
	ID          int64
	Number      int64
	Journal     string
	Date        time.Time
	Description string
	Reference   *Reference
	CreatedAt   time.Time
	Lines       []JournalLine
}

// TotalDebit sums the debit side of the entry.
func (e JournalEntry) TotalDebit() decimal.Decimal {
	total := decimal.Zero
	for _, line := range e.Lines {
		total = total.Add(line.Debit)
	}
	return total
}

// TotalCredit sums the credit side of the entry.
func (e JournalEntry) TotalCredit() decimal.Decimal {
	total := decimal.Zero
	for _, line := range e.Lines {
		total = total.Add(line.Credit)
	}
	return total
}

// Balanced reports whether the balance law holds exactly.
func (e JournalEntry) Balanced() bool {
	return e.TotalDebit().Equal(e.TotalCredit())
}

// JournalLine carries a debit or a credit against one account, never both.
type JournalLine struct {
	ID          int64
	EntryID     int64
	AccountID   int64
	Debit       decimal.Decimal
	Credit      decimal.Decimal
	TaxRate     *decimal.Decimal
	TaxSide     TaxSide
	Description string
	CreatedAt   time.Time
}
