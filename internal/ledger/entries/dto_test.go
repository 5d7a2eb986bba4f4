package entries

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	ledgershared "github.com/gestio-erp/gestio-erp/internal/ledger/shared"
	_ "github.com/gestio-erp/gestio-erp/testing"
)

func validInput() EntryInput {
	return EntryInput{
		Journal: JournalMisc,
		Date:    time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		Lines: []LineInput{
			{AccountID: 1, Debit: decimal.RequireFromString("120.00")},
			{AccountID: 2, Credit: decimal.RequireFromString("120.00")},
		},
	}
}

func TestValidateAcceptsBalancedEntry(t *testing.T) {
	require.NoError(t, validInput().Validate())
}

func TestValidateRequiresJournalAndDate(t *testing.T) {
	in := validInput()
	in.Journal = ""
	require.Error(t, in.Validate())

	in = validInput()
	in.Date = time.Time{}
	require.Error(t, in.Validate())
}

func TestValidateRejectsTooFewLines(t *testing.T) {
	in := validInput()
	in.Lines = in.Lines[:1]
	err := in.Validate()
	require.ErrorIs(t, err, ledgershared.ErrTooFewLines)
}

func TestValidateRejectsMixedLine(t *testing.T) {
	in := validInput()
	in.Lines[0].Credit = decimal.RequireFromString("1.00")
	err := in.Validate()
	require.ErrorIs(t, err, ledgershared.ErrMixedLine)

	var validation *ledgershared.ValidationError
	require.True(t, errors.As(err, &validation))
	require.Equal(t, 0, validation.Index)
}

func TestValidateRejectsZeroLine(t *testing.T) {
	in := validInput()
	in.Lines[1].Credit = decimal.Zero
	require.ErrorIs(t, in.Validate(), ledgershared.ErrZeroLine)
}

func TestValidateRejectsNegativeAmount(t *testing.T) {
	in := validInput()
	in.Lines[0].Debit = decimal.RequireFromString("-5.00")
	require.ErrorIs(t, in.Validate(), ledgershared.ErrNegativeAmount)
}

func TestValidateRejectsUnbalancedEntry(t *testing.T) {
	in := validInput()
	in.Lines[1].Credit = decimal.RequireFromString("119.99")
	require.ErrorIs(t, in.Validate(), ledgershared.ErrUnbalanced)
}

func TestValidateToleratesNoResidueOnly(t *testing.T) {
	// One cent of drift must fail; exact equality must pass even when the
	// amounts come from different string renderings.
	in := validInput()
	in.Lines[0].Debit = decimal.RequireFromString("0.1").Add(decimal.RequireFromString("0.2"))
	in.Lines[1].Credit = decimal.RequireFromString("0.30")
	require.NoError(t, in.Validate())
}
