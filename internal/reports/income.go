package reports

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/gestio-erp/gestio-erp/internal/ledger/accounts"
	"github.com/gestio-erp/gestio-erp/internal/ledger/query"
)

// AccountLine summarises one account inside a report section.
type AccountLine struct {
	Code   string
	Name   string
	Amount decimal.Decimal
}

// Section groups accounts by nature with their total.
type Section struct {
	Label    string
	Accounts []AccountLine
	Total    decimal.Decimal
}

func newSection(label string) Section {
	return Section{Label: label, Total: decimal.Zero}
}

func (s *Section) add(code, name string, amount decimal.Decimal) {
	s.Accounts = append(s.Accounts, AccountLine{Code: code, Name: name, Amount: amount})
	s.Total = s.Total.Add(amount)
}

func (s *Section) sortByCode() {
	sort.Slice(s.Accounts, func(i, j int) bool { return s.Accounts[i].Code < s.Accounts[j].Code })
}

// IncomeStatement partitions class 7 into revenue sub-groups and class 6 into
// expense sub-groups. Both sides are sign-flipped positive; Result is income
// minus expense.
type IncomeStatement struct {
	Sales            Section
	OtherIncome      Section
	Purchases        Section
	ExternalServices Section
	Personnel        Section
	OtherExpense     Section
	TotalIncome      decimal.Decimal
	TotalExpense     decimal.Decimal
	Result           decimal.Decimal
}

// BuildIncomeStatement aggregates period balances into the income statement.
// A range without movement yields all-zero sections, never an error.
func BuildIncomeStatement(balances []query.AccountBalance) IncomeStatement {
	out := IncomeStatement{
		Sales:            newSection("Sales"),
		OtherIncome:      newSection("Other income"),
		Purchases:        newSection("Purchases"),
		ExternalServices: newSection("External services"),
		Personnel:        newSection("Personnel"),
		OtherExpense:     newSection("Other expenses"),
	}
	for _, b := range balances {
		switch b.Class {
		case accounts.ClassIncome:
			amount := b.Credit.Sub(b.Debit)
			if strings.HasPrefix(b.Code, "70") {
				out.Sales.add(b.Code, b.Name, amount)
			} else {
				out.OtherIncome.add(b.Code, b.Name, amount)
			}
		case accounts.ClassExpense:
			amount := b.Debit.Sub(b.Credit)
			switch {
			case strings.HasPrefix(b.Code, "60"):
				out.Purchases.add(b.Code, b.Name, amount)
			case strings.HasPrefix(b.Code, "61"), strings.HasPrefix(b.Code, "62"):
				out.ExternalServices.add(b.Code, b.Name, amount)
			case strings.HasPrefix(b.Code, "64"):
				out.Personnel.add(b.Code, b.Name, amount)
			default:
				out.OtherExpense.add(b.Code, b.Name, amount)
			}
		}
	}
	for _, s := range []*Section{&out.Sales, &out.OtherIncome, &out.Purchases, &out.ExternalServices, &out.Personnel, &out.OtherExpense} {
		s.sortByCode()
	}
	out.TotalIncome = out.Sales.Total.Add(out.OtherIncome.Total)
	out.TotalExpense = out.Purchases.Total.Add(out.ExternalServices.Total).
		Add(out.Personnel.Total).Add(out.OtherExpense.Total)
	out.Result = out.TotalIncome.Sub(out.TotalExpense)
	return out
}
