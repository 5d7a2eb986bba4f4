package query

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/gestio-erp/gestio-erp/internal/ledger/accounts"
	"github.com/gestio-erp/gestio-erp/internal/ledger/entries"
)

// Movement is one journal line joined to its entry header, in the contractual
// (date, entry number) order that running balances are computed over.
type Movement struct {
	EntryID     int64
	Number      int64
	Journal     string
	Date        time.Time
	Description string
	LineID      int64
	AccountID   int64
	Debit       decimal.Decimal
	Credit      decimal.Decimal
}

// AccountBalance aggregates one account's movement over a range.
type AccountBalance struct {
	AccountID  int64
	Code       string
	Name       string
	Class      accounts.Class
	NormalSide accounts.NormalSide
	Debit      decimal.Decimal
	Credit     decimal.Decimal
}

// Net returns debit minus credit, not adjusted for normal side.
func (b AccountBalance) Net() decimal.Decimal { return b.Debit.Sub(b.Credit) }

// TaxedLine is a journal line carrying a tax rate, used by the VAT report.
type TaxedLine struct {
	Rate   decimal.Decimal
	Side   entries.TaxSide
	Class  accounts.Class
	Debit  decimal.Decimal
	Credit decimal.Decimal
}

// Engine computes balances from the journal entry store. It is read-only and
// safe to run concurrently with entry generation.
type Engine struct {
	db *pgxpool.Pool
}

func NewEngine(db *pgxpool.Pool) *Engine {
	return &Engine{db: db}
}

// AccountMovements returns the account's lines ordered by (date, entry number)
// ascending. Ties break on entry number, never on insertion order, so
// re-running the query without intervening writes yields identical sequences.
func (e *Engine) AccountMovements(ctx context.Context, accountID int64, from, to time.Time) ([]Movement, error) {
	rows, err := e.db.Query(ctx, `SELECT e.id, e.number, e.journal, e.date, e.description, l.id, l.account_id, l.debit, l.credit
FROM journal_lines l
JOIN journal_entries e ON e.id = l.entry_id
WHERE l.account_id = $1 AND e.date >= $2 AND e.date <= $3
ORDER BY e.date ASC, e.number ASC, l.id ASC`, accountID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Movement
	for rows.Next() {
		var m Movement
		if err := rows.Scan(&m.EntryID, &m.Number, &m.Journal, &m.Date, &m.Description,
			&m.LineID, &m.AccountID, &m.Debit, &m.Credit); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// PeriodBalance returns sum(debit) - sum(credit) for the account over the
// range. Sign interpretation is the caller's job per the account's nature.
func (e *Engine) PeriodBalance(ctx context.Context, accountID int64, from, to time.Time) (decimal.Decimal, error) {
	var debit, credit decimal.Decimal
	err := e.db.QueryRow(ctx, `SELECT COALESCE(SUM(l.debit),0), COALESCE(SUM(l.credit),0)
FROM journal_lines l
JOIN journal_entries e ON e.id = l.entry_id
WHERE l.account_id = $1 AND e.date >= $2 AND e.date <= $3`, accountID, from, to).
		Scan(&debit, &credit)
	if err != nil {
		return decimal.Zero, err
	}
	return debit.Sub(credit), nil
}

// ClassBalances aggregates every account with movement in the range, one row
// per account, ordered by code. Accounts without movement are omitted;
// report builders treat absence as zero.
func (e *Engine) ClassBalances(ctx context.Context, from, to time.Time) ([]AccountBalance, error) {
	rows, err := e.db.Query(ctx, `SELECT a.id, a.code, a.name, a.class, a.normal_side, COALESCE(SUM(l.debit),0), COALESCE(SUM(l.credit),0)
FROM journal_lines l
JOIN journal_entries e ON e.id = l.entry_id
JOIN accounts a ON a.id = l.account_id
WHERE e.date >= $1 AND e.date <= $2
GROUP BY a.id, a.code, a.name, a.class, a.normal_side
ORDER BY a.code ASC`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []AccountBalance
	for rows.Next() {
		var b AccountBalance
		if err := rows.Scan(&b.AccountID, &b.Code, &b.Name, &b.Class, &b.NormalSide, &b.Debit, &b.Credit); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// TaxedLines returns every line carrying a tax rate in the range.
func (e *Engine) TaxedLines(ctx context.Context, from, to time.Time) ([]TaxedLine, error) {
	rows, err := e.db.Query(ctx, `SELECT l.tax_rate, l.tax_side, a.class, l.debit, l.credit
FROM journal_lines l
JOIN journal_entries e ON e.id = l.entry_id
JOIN accounts a ON a.id = l.account_id
WHERE l.tax_rate IS NOT NULL AND e.date >= $1 AND e.date <= $2`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []TaxedLine
	for rows.Next() {
		var t TaxedLine
		var side string
		if err := rows.Scan(&t.Rate, &side, &t.Class, &t.Debit, &t.Credit); err != nil {
			return nil, err
		}
		t.Side = entries.TaxSide(side)
		out = append(out, t)
	}
	return out, rows.Err()
}
