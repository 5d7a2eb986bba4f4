package reports

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/gestio-erp/gestio-erp/internal/ledger/accounts"
	"github.com/gestio-erp/gestio-erp/internal/ledger/query"
	_ "github.com/gestio-erp/gestio-erp/testing"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func bal(code, name string, class accounts.Class, debit, credit string) query.AccountBalance {
	return query.AccountBalance{
		Code:       code,
		Name:       name,
		Class:      class,
		NormalSide: accounts.DefaultNormalSide(class),
		Debit:      dec(debit),
		Credit:     dec(credit),
	}
}

func TestBuildIncomeStatementPartitionsByCodePrefix(t *testing.T) {
	balances := []query.AccountBalance{
		bal("706000", "Prestations de services", accounts.ClassIncome, "0", "5000.00"),
		bal("701000", "Ventes de produits", accounts.ClassIncome, "100.00", "2100.00"),
		bal("758000", "Produits divers", accounts.ClassIncome, "0", "40.00"),
		bal("607000", "Achats de marchandises", accounts.ClassExpense, "1200.00", "0"),
		bal("613000", "Locations", accounts.ClassExpense, "800.00", "0"),
		bal("622000", "Honoraires", accounts.ClassExpense, "450.00", "50.00"),
		bal("641000", "Salaires", accounts.ClassExpense, "1500.00", "0"),
		bal("681000", "Dotations aux amortissements", accounts.ClassExpense, "300.00", "0"),
		// Balance sheet accounts never show up in the income statement.
		bal("512000", "Banque", accounts.ClassFinancial, "9000.00", "3000.00"),
	}

	stmt := BuildIncomeStatement(balances)

	if got := len(stmt.Sales.Accounts); got != 2 {
		t.Fatalf("sales accounts = %d, want 2", got)
	}
	if stmt.Sales.Accounts[0].Code != "701000" {
		t.Fatalf("sales not sorted by code: first is %s", stmt.Sales.Accounts[0].Code)
	}
	if !stmt.Sales.Total.Equal(dec("7000.00")) {
		t.Fatalf("sales total = %s, want 7000.00", stmt.Sales.Total)
	}
	if !stmt.OtherIncome.Total.Equal(dec("40.00")) {
		t.Fatalf("other income total = %s, want 40.00", stmt.OtherIncome.Total)
	}
	if !stmt.Purchases.Total.Equal(dec("1200.00")) {
		t.Fatalf("purchases total = %s, want 1200.00", stmt.Purchases.Total)
	}
	if !stmt.ExternalServices.Total.Equal(dec("1200.00")) {
		t.Fatalf("external services total = %s, want 1200.00", stmt.ExternalServices.Total)
	}
	if !stmt.Personnel.Total.Equal(dec("1500.00")) {
		t.Fatalf("personnel total = %s, want 1500.00", stmt.Personnel.Total)
	}
	if !stmt.OtherExpense.Total.Equal(dec("300.00")) {
		t.Fatalf("other expense total = %s, want 300.00", stmt.OtherExpense.Total)
	}
	if !stmt.TotalIncome.Equal(dec("7040.00")) {
		t.Fatalf("total income = %s, want 7040.00", stmt.TotalIncome)
	}
	if !stmt.TotalExpense.Equal(dec("4200.00")) {
		t.Fatalf("total expense = %s, want 4200.00", stmt.TotalExpense)
	}
	if !stmt.Result.Equal(dec("2840.00")) {
		t.Fatalf("result = %s, want 2840.00", stmt.Result)
	}
}

func TestBuildIncomeStatementEmptyRange(t *testing.T) {
	stmt := BuildIncomeStatement(nil)

	for _, s := range []Section{stmt.Sales, stmt.OtherIncome, stmt.Purchases, stmt.ExternalServices, stmt.Personnel, stmt.OtherExpense} {
		if len(s.Accounts) != 0 {
			t.Fatalf("section %q not empty", s.Label)
		}
		if !s.Total.IsZero() {
			t.Fatalf("section %q total = %s, want 0", s.Label, s.Total)
		}
	}
	if !stmt.TotalIncome.IsZero() || !stmt.TotalExpense.IsZero() || !stmt.Result.IsZero() {
		t.Fatalf("totals not zero: income=%s expense=%s result=%s", stmt.TotalIncome, stmt.TotalExpense, stmt.Result)
	}
}

func TestBuildIncomeStatementLossIsNegativeResult(t *testing.T) {
	balances := []query.AccountBalance{
		bal("706000", "Prestations de services", accounts.ClassIncome, "0", "100.00"),
		bal("607000", "Achats de marchandises", accounts.ClassExpense, "250.00", "0"),
	}

	stmt := BuildIncomeStatement(balances)

	if !stmt.Result.Equal(dec("-150.00")) {
		t.Fatalf("result = %s, want -150.00", stmt.Result)
	}
}
