package query

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	_ "github.com/gestio-erp/gestio-erp/testing"
)

func mv(number int64, day int, debit, credit string) Movement {
	return Movement{
		Number: number,
		Date:   time.Date(2025, time.March, day, 0, 0, 0, 0, time.UTC),
		Debit:  decimal.RequireFromString(debit),
		Credit: decimal.RequireFromString(credit),
	}
}

func TestRunningBalanceAccumulates(t *testing.T) {
	movements := []Movement{
		mv(1, 1, "1000.00", "0"),
		mv(2, 1, "0", "250.50"),
		mv(3, 2, "19.99", "0"),
	}

	balances := RunningBalance(decimal.Zero, movements)

	require.Len(t, balances, 3)
	require.True(t, balances[0].Equal(decimal.RequireFromString("1000.00")))
	require.True(t, balances[1].Equal(decimal.RequireFromString("749.50")))
	require.True(t, balances[2].Equal(decimal.RequireFromString("769.49")))
}

func TestRunningBalanceCarriesOpening(t *testing.T) {
	opening := decimal.RequireFromString("500.00")
	movements := []Movement{mv(7, 10, "0", "600.00")}

	balances := RunningBalance(opening, movements)

	require.Len(t, balances, 1)
	// A withdrawal larger than the opening balance goes negative; the ledger
	// does not clamp.
	require.True(t, balances[0].Equal(decimal.RequireFromString("-100.00")))
}

func TestRunningBalanceEmpty(t *testing.T) {
	balances := RunningBalance(decimal.RequireFromString("42.00"), nil)
	require.Empty(t, balances)
}

func TestSumMovements(t *testing.T) {
	movements := []Movement{
		mv(1, 1, "100.10", "0"),
		mv(2, 2, "0.01", "50.05"),
		mv(3, 3, "0", "0.06"),
	}

	debit, credit := SumMovements(movements)

	require.True(t, debit.Equal(decimal.RequireFromString("100.11")))
	require.True(t, credit.Equal(decimal.RequireFromString("50.11")))
	require.True(t, debit.Sub(credit).Equal(decimal.RequireFromString("50.00")))
}

func TestSumMovementsEmpty(t *testing.T) {
	debit, credit := SumMovements(nil)
	require.True(t, debit.IsZero())
	require.True(t, credit.IsZero())
}

func TestAccountBalanceNet(t *testing.T) {
	b := AccountBalance{
		Debit:  decimal.RequireFromString("120.00"),
		Credit: decimal.RequireFromString("120.00"),
	}
	require.True(t, b.Net().IsZero())

	b.Credit = decimal.RequireFromString("200.00")
	require.True(t, b.Net().Equal(decimal.RequireFromString("-80.00")))
}
