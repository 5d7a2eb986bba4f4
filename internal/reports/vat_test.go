package reports

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/gestio-erp/gestio-erp/internal/ledger/accounts"
	"github.com/gestio-erp/gestio-erp/internal/ledger/entries"
	"github.com/gestio-erp/gestio-erp/internal/ledger/query"
)

func taxed(rate string, side entries.TaxSide, class accounts.Class, debit, credit string) query.TaxedLine {
	return query.TaxedLine{
		Rate:   dec(rate),
		Side:   side,
		Class:  class,
		Debit:  dec(debit),
		Credit: dec(credit),
	}
}

func TestBuildVATReportSplitsBaseAndTax(t *testing.T) {
	lines := []query.TaxedLine{
		// Sale of 1500 net at 20%: base on class 7, tax on class 4.
		taxed("0.2", entries.TaxCollected, accounts.ClassIncome, "0", "1500.00"),
		taxed("0.2", entries.TaxCollected, accounts.ClassThirdParty, "0", "300.00"),
		// Expense of 100 net at 20%.
		taxed("0.2", entries.TaxDeductible, accounts.ClassExpense, "100.00", "0"),
		taxed("0.2", entries.TaxDeductible, accounts.ClassThirdParty, "20.00", "0"),
		// Expense of 200 net at 5.5%, separate bucket.
		taxed("0.055", entries.TaxDeductible, accounts.ClassExpense, "200.00", "0"),
		taxed("0.055", entries.TaxDeductible, accounts.ClassThirdParty, "11.00", "0"),
	}

	report := BuildVATReport(lines)

	if len(report.Buckets) != 2 {
		t.Fatalf("buckets = %d, want 2", len(report.Buckets))
	}
	// Buckets sort by ascending rate.
	low, high := report.Buckets[0], report.Buckets[1]
	if !low.Rate.Equal(dec("0.055")) || !high.Rate.Equal(dec("0.2")) {
		t.Fatalf("bucket order wrong: %s, %s", low.Rate, high.Rate)
	}
	if !low.DeductibleBase.Equal(dec("200.00")) || !low.DeductibleTax.Equal(dec("11.00")) {
		t.Fatalf("5.5%% bucket = base %s tax %s", low.DeductibleBase, low.DeductibleTax)
	}
	if !high.CollectedBase.Equal(dec("1500.00")) || !high.CollectedTax.Equal(dec("300.00")) {
		t.Fatalf("20%% collected = base %s tax %s", high.CollectedBase, high.CollectedTax)
	}
	if !high.DeductibleBase.Equal(dec("100.00")) || !high.DeductibleTax.Equal(dec("20.00")) {
		t.Fatalf("20%% deductible = base %s tax %s", high.DeductibleBase, high.DeductibleTax)
	}
	if !report.NetDue.Equal(dec("269.00")) {
		t.Fatalf("net due = %s, want 269.00", report.NetDue)
	}
}

func TestBuildVATReportAccumulatesWithoutDrift(t *testing.T) {
	// Ten thousand small lines at an awkward rate. Summed at full precision
	// and rounded once at the end, the totals land exactly; rounding each
	// line first would not.
	var lines []query.TaxedLine
	for i := 0; i < 10000; i++ {
		lines = append(lines,
			taxed("0.055", entries.TaxDeductible, accounts.ClassExpense, "10.00", "0"),
			taxed("0.055", entries.TaxDeductible, accounts.ClassThirdParty, "0.55", "0"),
		)
	}

	report := BuildVATReport(lines)

	if len(report.Buckets) != 1 {
		t.Fatalf("buckets = %d, want 1", len(report.Buckets))
	}
	b := report.Buckets[0]
	if !b.DeductibleBase.Equal(dec("100000.00")) {
		t.Fatalf("base = %s, want 100000.00", b.DeductibleBase)
	}
	if !b.DeductibleTax.Equal(dec("5500.00")) {
		t.Fatalf("tax = %s, want 5500.00", b.DeductibleTax)
	}
	if !report.NetDue.Equal(dec("-5500.00")) {
		t.Fatalf("net due = %s, want -5500.00", report.NetDue)
	}
}

func TestBuildVATReportCreditNotesReduceTheBucket(t *testing.T) {
	lines := []query.TaxedLine{
		taxed("0.2", entries.TaxCollected, accounts.ClassIncome, "0", "1000.00"),
		taxed("0.2", entries.TaxCollected, accounts.ClassThirdParty, "0", "200.00"),
		// Reversal of a 400 net invoice flips the sides.
		taxed("0.2", entries.TaxCollected, accounts.ClassIncome, "400.00", "0"),
		taxed("0.2", entries.TaxCollected, accounts.ClassThirdParty, "80.00", "0"),
	}

	report := BuildVATReport(lines)

	b := report.Buckets[0]
	if !b.CollectedBase.Equal(dec("600.00")) || !b.CollectedTax.Equal(dec("120.00")) {
		t.Fatalf("collected = base %s tax %s, want 600.00/120.00", b.CollectedBase, b.CollectedTax)
	}
}

func TestBuildVATReportEmptyPeriod(t *testing.T) {
	report := BuildVATReport(nil)
	if len(report.Buckets) != 0 {
		t.Fatalf("buckets = %d, want 0", len(report.Buckets))
	}
	if !report.NetDue.Equal(decimal.Zero) {
		t.Fatalf("net due = %s, want 0", report.NetDue)
	}
}
