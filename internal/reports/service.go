package reports

import (
	"context"
	"encoding/json"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/gestio-erp/gestio-erp/internal/ledger/query"
)

// BalanceSource supplies the aggregates the builders run over.
type BalanceSource interface {
	ClassBalances(ctx context.Context, from, to time.Time) ([]query.AccountBalance, error)
	TaxedLines(ctx context.Context, from, to time.Time) ([]query.TaxedLine, error)
}

// Service builds the statutory reports over the ledger query engine, with a
// versioned cache and single-flight collapsing of concurrent identical builds.
type Service struct {
	source BalanceSource
	cache  *Cache
	group  singleflight.Group
}

func NewService(source BalanceSource, cache *Cache) *Service {
	return &Service{source: source, cache: cache}
}

// IncomeStatement builds the income statement for a date range.
func (s *Service) IncomeStatement(ctx context.Context, from, to time.Time) (IncomeStatement, error) {
	var out IncomeStatement
	err := s.fetch(ctx, keyRange("income", from, to), &out, func(ctx context.Context) (interface{}, error) {
		balances, err := s.source.ClassBalances(ctx, from, to)
		if err != nil {
			return nil, err
		}
		return BuildIncomeStatement(balances), nil
	})
	return out, err
}

// BalanceSheet builds the as-of balance sheet from the opening of the books.
func (s *Service) BalanceSheet(ctx context.Context, asOf time.Time) (BalanceSheet, error) {
	var out BalanceSheet
	err := s.fetch(ctx, keyRange("balance", time.Time{}, asOf), &out, func(ctx context.Context) (interface{}, error) {
		balances, err := s.source.ClassBalances(ctx, time.Time{}, asOf)
		if err != nil {
			return nil, err
		}
		return BuildBalanceSheet(balances)
	})
	return out, err
}

// VATReport builds the per-rate VAT declaration for a date range.
func (s *Service) VATReport(ctx context.Context, from, to time.Time) (VATReport, error) {
	var out VATReport
	err := s.fetch(ctx, keyRange("vat", from, to), &out, func(ctx context.Context) (interface{}, error) {
		lines, err := s.source.TaxedLines(ctx, from, to)
		if err != nil {
			return nil, err
		}
		return BuildVATReport(lines), nil
	})
	return out, err
}

// fetch collapses concurrent identical builds: only one caller executes the
// loader, every caller decodes the shared result.
func (s *Service) fetch(ctx context.Context, parts []string, dest interface{}, loader func(context.Context) (interface{}, error)) error {
	key, err := s.cache.BuildKey(ctx, parts...)
	if err != nil {
		return err
	}
	v, err, _ := s.group.Do(key, func() (interface{}, error) {
		var raw json.RawMessage
		if err := s.cache.FetchJSON(ctx, key, &raw, loader); err != nil {
			return nil, err
		}
		return raw, nil
	})
	if err != nil {
		return err
	}
	return json.Unmarshal(v.(json.RawMessage), dest)
}
