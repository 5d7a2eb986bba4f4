package shared

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// ErrUnbalanced indicates total debit != total credit.
	ErrUnbalanced = errors.New("ledger: entry lines must balance")
	// ErrTooFewLines indicates less than two lines.
	ErrTooFewLines = errors.New("ledger: entry requires at least two lines")
	// ErrMixedLine indicates a line carrying both a debit and a credit.
	ErrMixedLine = errors.New("ledger: line cannot be both debit and credit")
	// ErrZeroLine indicates a line with neither side positive.
	ErrZeroLine = errors.New("ledger: line requires a positive debit or credit")
	// ErrNegativeAmount indicates a negative debit or credit.
	ErrNegativeAmount = errors.New("ledger: amounts cannot be negative")
	// ErrAccountNotFound indicates a missing chart of accounts code.
	ErrAccountNotFound = errors.New("ledger: account not found")
	// ErrAccountInactive indicates a deactivated account.
	ErrAccountInactive = errors.New("ledger: account is inactive")
	// ErrAccountInUse indicates the account is referenced by entry lines.
	ErrAccountInUse = errors.New("ledger: account referenced by entries")
	// ErrEntryNotFound indicates a missing journal entry.
	ErrEntryNotFound = errors.New("ledger: journal entry not found")
	// ErrMappingNotFound indicates a category without an account mapping.
	ErrMappingNotFound = errors.New("ledger: account mapping not found")
	// ErrReferenceRequired indicates a posting without a source reference.
	ErrReferenceRequired = errors.New("ledger: source reference required")
)

// ValidationError wraps a rule violation with the offending line index.
// Index is -1 when the violation concerns the whole entry.
type ValidationError struct {
	Index int
	Rule  error
}

func (e *ValidationError) Error() string {
	if e.Index < 0 {
		return e.Rule.Error()
	}
	return fmt.Sprintf("%s (line %d)", e.Rule.Error(), e.Index)
}

func (e *ValidationError) Unwrap() error { return e.Rule }

// NewValidationError builds a ValidationError for line idx.
func NewValidationError(idx int, rule error) error {
	return &ValidationError{Index: idx, Rule: rule}
}

// ConsistencyError reports a broken balance sheet identity. It signals ledger
// corruption and must reach an operator, never be swallowed.
type ConsistencyError struct {
	Assets            decimal.Decimal
	LiabilitiesEquity decimal.Decimal
	Result            decimal.Decimal
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("ledger: balance sheet identity broken: assets=%s liabilities+equity=%s result=%s",
		e.Assets.StringFixed(2), e.LiabilitiesEquity.StringFixed(2), e.Result.StringFixed(2))
}
