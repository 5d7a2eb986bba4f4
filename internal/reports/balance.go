package reports

import (
	"github.com/shopspring/decimal"

	"github.com/gestio-erp/gestio-erp/internal/ledger/accounts"
	"github.com/gestio-erp/gestio-erp/internal/ledger/query"
	"github.com/gestio-erp/gestio-erp/internal/ledger/shared"
)

// BalanceSheet holds as-of balances for classes 1-5, split by the account's
// normal side. Result is the cumulative income statement result since the
// books opened, reported inside the liabilities and equity side.
type BalanceSheet struct {
	Assets                    Section
	LiabilitiesEquity         Section
	Result                    decimal.Decimal
	TotalAssets               decimal.Decimal
	TotalLiabilitiesAndEquity decimal.Decimal
}

// BuildBalanceSheet aggregates since-inception balances into the balance
// sheet and checks the identity assets == liabilities+equity + result. A
// mismatch means an unbalanced entry slipped into the store: it is returned
// as a ConsistencyError, never hidden.
func BuildBalanceSheet(balances []query.AccountBalance) (BalanceSheet, error) {
	out := BalanceSheet{
		Assets:            newSection("Assets"),
		LiabilitiesEquity: newSection("Liabilities and equity"),
		Result:            decimal.Zero,
	}
	for _, b := range balances {
		switch b.Class {
		case accounts.ClassIncome:
			out.Result = out.Result.Add(b.Credit.Sub(b.Debit))
		case accounts.ClassExpense:
			out.Result = out.Result.Sub(b.Debit.Sub(b.Credit))
		default:
			if b.NormalSide == accounts.NormalCredit {
				out.LiabilitiesEquity.add(b.Code, b.Name, b.Credit.Sub(b.Debit))
			} else {
				out.Assets.add(b.Code, b.Name, b.Debit.Sub(b.Credit))
			}
		}
	}
	out.Assets.sortByCode()
	out.LiabilitiesEquity.sortByCode()
	out.TotalAssets = out.Assets.Total
	out.TotalLiabilitiesAndEquity = out.LiabilitiesEquity.Total
	if !out.TotalAssets.Equal(out.TotalLiabilitiesAndEquity.Add(out.Result)) {
		return BalanceSheet{}, &shared.ConsistencyError{
			Assets:            out.TotalAssets,
			LiabilitiesEquity: out.TotalLiabilitiesAndEquity,
			Result:            out.Result,
		}
	}
	return out, nil
}
