package entries

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/gestio-erp/gestio-erp/internal/ledger/shared"
)

// LineInput describes one line of a posting request.
type LineInput struct {
	AccountID   int64
	Debit       decimal.Decimal
	Credit      decimal.Decimal
	TaxRate     *decimal.Decimal
	TaxSide     TaxSide
	Description string
}

// EntryInput groups the fields required to create a journal entry.
type EntryInput struct {
	Journal     string
	Date        time.Time
	Description string
	Reference   *Reference
	Lines       []LineInput
}

// Validate enforces the posting rules: at least two lines, every line exactly
// debit-xor-credit with a strictly positive amount, and total debit equal to
// total credit with no rounding residue. Nothing may be persisted when any
// rule fails.
func (in EntryInput) Validate() error {
	if in.Journal == "" {
		return errors.New("ledger: journal code required")
	}
	if in.Date.IsZero() {
		return errors.New("ledger: entry date required")
	}
	if len(in.Lines) < 2 {
		return shared.NewValidationError(-1, shared.ErrTooFewLines)
	}
	debit, credit := decimal.Zero, decimal.Zero
	for idx, line := range in.Lines {
		if line.AccountID == 0 {
			return shared.NewValidationError(idx, fmt.Errorf("ledger: missing account"))
		}
		if line.Debit.IsNegative() || line.Credit.IsNegative() {
			return shared.NewValidationError(idx, shared.ErrNegativeAmount)
		}
		if line.Debit.IsPositive() && line.Credit.IsPositive() {
			return shared.NewValidationError(idx, shared.ErrMixedLine)
		}
		if !line.Debit.IsPositive() && !line.Credit.IsPositive() {
			return shared.NewValidationError(idx, shared.ErrZeroLine)
		}
		debit = debit.Add(line.Debit)
		credit = credit.Add(line.Credit)
	}
	if !debit.Equal(credit) {
		return shared.NewValidationError(-1, shared.ErrUnbalanced)
	}
	return nil
}
