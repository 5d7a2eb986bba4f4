package reports

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/gestio-erp/gestio-erp/internal/ledger/accounts"
	"github.com/gestio-erp/gestio-erp/internal/ledger/entries"
	"github.com/gestio-erp/gestio-erp/internal/ledger/query"
)

// VATBucket accumulates base and tax for one rate, split by declaration side.
type VATBucket struct {
	Rate           decimal.Decimal
	CollectedBase  decimal.Decimal
	CollectedTax   decimal.Decimal
	DeductibleBase decimal.Decimal
	DeductibleTax  decimal.Decimal
}

// VATReport is the per-rate VAT declaration for a period.
type VATReport struct {
	Buckets []VATBucket
	NetDue  decimal.Decimal
}

// BuildVATReport accumulates taxed lines by rate at full precision and rounds
// only the per-bucket totals, so large line counts cannot drift. Base amounts
// come from the class 6/7 lines carrying the rate; tax amounts from the
// class 4 VAT account lines.
func BuildVATReport(lines []query.TaxedLine) VATReport {
	type acc struct {
		collectedBase, collectedTax   decimal.Decimal
		deductibleBase, deductibleTax decimal.Decimal
	}
	buckets := make(map[string]*acc)
	rates := make(map[string]decimal.Decimal)
	for _, line := range lines {
		key := line.Rate.String()
		bucket, ok := buckets[key]
		if !ok {
			bucket = &acc{
				collectedBase: decimal.Zero, collectedTax: decimal.Zero,
				deductibleBase: decimal.Zero, deductibleTax: decimal.Zero,
			}
			buckets[key] = bucket
			rates[key] = line.Rate
		}
		switch line.Side {
		case entries.TaxCollected:
			if line.Class == accounts.ClassThirdParty {
				bucket.collectedTax = bucket.collectedTax.Add(line.Credit.Sub(line.Debit))
			} else {
				bucket.collectedBase = bucket.collectedBase.Add(line.Credit.Sub(line.Debit))
			}
		case entries.TaxDeductible:
			if line.Class == accounts.ClassThirdParty {
				bucket.deductibleTax = bucket.deductibleTax.Add(line.Debit.Sub(line.Credit))
			} else {
				bucket.deductibleBase = bucket.deductibleBase.Add(line.Debit.Sub(line.Credit))
			}
		}
	}
	keys := make([]string, 0, len(buckets))
	for key := range buckets {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return rates[keys[i]].LessThan(rates[keys[j]]) })

	out := VATReport{NetDue: decimal.Zero}
	for _, key := range keys {
		bucket := buckets[key]
		rounded := VATBucket{
			Rate:           rates[key],
			CollectedBase:  bucket.collectedBase.Round(2),
			CollectedTax:   bucket.collectedTax.Round(2),
			DeductibleBase: bucket.deductibleBase.Round(2),
			DeductibleTax:  bucket.deductibleTax.Round(2),
		}
		out.Buckets = append(out.Buckets, rounded)
		out.NetDue = out.NetDue.Add(rounded.CollectedTax).Sub(rounded.DeductibleTax)
	}
	return out
}
