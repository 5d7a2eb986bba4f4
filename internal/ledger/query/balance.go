package query

import "github.com/shopspring/decimal"

// RunningBalance computes the cumulative balance after each movement:
// balance[i] = balance[i-1] + debit[i] - credit[i], seeded with the opening
// balance carried forward from a prior period (zero when none). The input
// must already be in (date, entry number) order.
func RunningBalance(opening decimal.Decimal, movements []Movement) []decimal.Decimal {
	out := make([]decimal.Decimal, len(movements))
	balance := opening
	for i, m := range movements {
		balance = balance.Add(m.Debit).Sub(m.Credit)
		out[i] = balance
	}
	return out
}

// SumMovements totals debit and credit over a movement sequence.
func SumMovements(movements []Movement) (debit, credit decimal.Decimal) {
	debit, credit = decimal.Zero, decimal.Zero
	for _, m := range movements {
		debit = debit.Add(m.Debit)
		credit = credit.Add(m.Credit)
	}
	return debit, credit
}
