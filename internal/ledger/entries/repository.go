package entries

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/gestio-erp/gestio-erp/internal/ledger/shared"
)

// Repository encapsulates DB operations for journal entries.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetWithLines(ctx context.Context, entryID int64) (JournalEntry, error)
	FindByReference(ctx context.Context, ref Reference) (JournalEntry, error)
	ListRange(ctx context.Context, from, to time.Time) ([]JournalEntry, error)
}

// TxRepository exposes the operations available within a posting transaction.
type TxRepository interface {
	LockReference(ctx context.Context, ref Reference) error
	ActiveAccountIDs(ctx context.Context, ids []int64) (map[int64]bool, error)
	InsertEntry(ctx context.Context, in EntryInput) (JournalEntry, error)
	InsertLines(ctx context.Context, entryID int64, lines []LineInput) error
	DeleteByReference(ctx context.Context, ref Reference) (int64, error)
	GetWithLines(ctx context.Context, entryID int64) (JournalEntry, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

// WithTx executes fn within a repeatable-read transaction.
func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return err
	}
	wrapper := &txRepository{tx: tx}
	if err := fn(ctx, wrapper); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

type txRepository struct {
	tx pgx.Tx
}

// NewTxRepository wraps an existing transaction so event producers can post
// entries atomically with their own rows.
func NewTxRepository(tx pgx.Tx) TxRepository {
	return &txRepository{tx: tx}
}

// LockReference serialises delete-then-regenerate sequences for one source
// object. The lock is transaction-scoped and released on commit or rollback.
func (r *txRepository) LockReference(ctx context.Context, ref Reference) error {
	_, err := r.tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`,
		ref.Type+":"+ref.ID.String())
	return err
}

func (r *txRepository) ActiveAccountIDs(ctx context.Context, ids []int64) (map[int64]bool, error) {
	rows, err := r.tx.Query(ctx, `SELECT id, is_active FROM accounts WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[int64]bool, len(ids))
	for rows.Next() {
		var id int64
		var active bool
		if err := rows.Scan(&id, &active); err != nil {
			return nil, err
		}
		out[id] = active
	}
	return out, rows.Err()
}

// InsertEntry persists the entry header. The statutory number is assigned by
// the journal_entry_numbers sequence: nextval commits outside transaction
// isolation, so concurrent postings never block or conflict on a shared
// counter row, and numbers consumed by rolled-back or deleted entries leave
// gaps that are never refilled.
func (r *txRepository) InsertEntry(ctx context.Context, in EntryInput) (JournalEntry, error) {
	entry := JournalEntry{
		Journal:     in.Journal,
		Date:        in.Date,
		Description: in.Description,
		Reference:   in.Reference,
	}
	row := r.tx.QueryRow(ctx, `INSERT INTO journal_entries (journal, date, description, ref_type, ref_id)
VALUES ($1,$2,$3,$4,$5) RETURNING id, number, created_at`,
		in.Journal, in.Date, in.Description, refType(in.Reference), refID(in.Reference))
	if err := row.Scan(&entry.ID, &entry.Number, &entry.CreatedAt); err != nil {
		return JournalEntry{}, err
	}
	return entry, nil
}

func (r *txRepository) InsertLines(ctx context.Context, entryID int64, lines []LineInput) error {
	for _, line := range lines {
		if _, err := r.tx.Exec(ctx, `INSERT INTO journal_lines (entry_id, account_id, debit, credit, tax_rate, tax_side, description)
VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			entryID, line.AccountID, line.Debit.String(), line.Credit.String(),
			taxRateArg(line.TaxRate), string(line.TaxSide), line.Description); err != nil {
			return err
		}
	}
	return nil
}

// DeleteByReference removes the entry and its lines for one source object.
// Zero rows deleted is not an error so undo paths can call it defensively.
func (r *txRepository) DeleteByReference(ctx context.Context, ref Reference) (int64, error) {
	if _, err := r.tx.Exec(ctx,
		`DELETE FROM journal_lines WHERE entry_id IN (SELECT id FROM journal_entries WHERE ref_type=$1 AND ref_id=$2)`,
		ref.Type, ref.ID); err != nil {
		return 0, err
	}
	cmd, err := r.tx.Exec(ctx, `DELETE FROM journal_entries WHERE ref_type=$1 AND ref_id=$2`, ref.Type, ref.ID)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func (r *txRepository) GetWithLines(ctx context.Context, entryID int64) (JournalEntry, error) {
	return getWithLines(ctx, r.tx, entryID)
}

func (r *repository) GetWithLines(ctx context.Context, entryID int64) (JournalEntry, error) {
	return getWithLines(ctx, r.db, entryID)
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const entryColumns = `id, number, journal, date, description, ref_type, ref_id, created_at`

func scanEntry(row pgx.Row) (JournalEntry, error) {
	var e JournalEntry
	var refT *string
	var refI *uuid.UUID
	err := row.Scan(&e.ID, &e.Number, &e.Journal, &e.Date, &e.Description, &refT, &refI, &e.CreatedAt)
	if err != nil {
		return JournalEntry{}, err
	}
	if refT != nil && refI != nil {
		e.Reference = &Reference{Type: *refT, ID: *refI}
	}
	return e, nil
}

func getWithLines(ctx context.Context, q querier, entryID int64) (JournalEntry, error) {
	entry, err := scanEntry(q.QueryRow(ctx,
		`SELECT `+entryColumns+` FROM journal_entries WHERE id=$1`, entryID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return JournalEntry{}, shared.ErrEntryNotFound
		}
		return JournalEntry{}, err
	}
	entry.Lines, err = linesFor(ctx, q, entry.ID)
	if err != nil {
		return JournalEntry{}, err
	}
	return entry, nil
}

func linesFor(ctx context.Context, q querier, entryID int64) ([]JournalLine, error) {
	rows, err := q.Query(ctx, `SELECT id, entry_id, account_id, debit, credit, tax_rate, tax_side, description, created_at
FROM journal_lines WHERE entry_id=$1 ORDER BY id ASC`, entryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var lines []JournalLine
	for rows.Next() {
		var line JournalLine
		var side *string
		if err := rows.Scan(&line.ID, &line.EntryID, &line.AccountID, &line.Debit, &line.Credit,
			&line.TaxRate, &side, &line.Description, &line.CreatedAt); err != nil {
			return nil, err
		}
		if side != nil {
			line.TaxSide = TaxSide(*side)
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

func (r *repository) FindByReference(ctx context.Context, ref Reference) (JournalEntry, error) {
	entry, err := scanEntry(r.db.QueryRow(ctx,
		`SELECT `+entryColumns+` FROM journal_entries WHERE ref_type=$1 AND ref_id=$2`, ref.Type, ref.ID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return JournalEntry{}, shared.ErrEntryNotFound
		}
		return JournalEntry{}, err
	}
	entry.Lines, err = linesFor(ctx, r.db, entry.ID)
	if err != nil {
		return JournalEntry{}, err
	}
	return entry, nil
}

// ListRange returns all entries with lines in [from, to], ordered by
// (date, number) ascending. The ordering is contractual for exports. One
// joined query covers the whole range; a fiscal-year export stays a single
// round trip instead of one lines query per entry.
func (r *repository) ListRange(ctx context.Context, from, to time.Time) ([]JournalEntry, error) {
	rows, err := r.db.Query(ctx, `SELECT e.id, e.number, e.journal, e.date, e.description, e.ref_type, e.ref_id, e.created_at,
l.id, l.account_id, l.debit, l.credit, l.tax_rate, l.tax_side, l.description, l.created_at
FROM journal_entries e
JOIN journal_lines l ON l.entry_id = e.id
WHERE e.date >= $1 AND e.date <= $2
ORDER BY e.date ASC, e.number ASC, l.id ASC`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []JournalEntry
	for rows.Next() {
		var e JournalEntry
		var line JournalLine
		var refT, side *string
		var refI *uuid.UUID
		if err := rows.Scan(&e.ID, &e.Number, &e.Journal, &e.Date, &e.Description, &refT, &refI, &e.CreatedAt,
			&line.ID, &line.AccountID, &line.Debit, &line.Credit, &line.TaxRate, &side, &line.Description, &line.CreatedAt); err != nil {
			return nil, err
		}
		if refT != nil && refI != nil {
			e.Reference = &Reference{Type: *refT, ID: *refI}
		}
		if side != nil {
			line.TaxSide = TaxSide(*side)
		}
		out = appendEntryRow(out, e, line)
	}
	return out, rows.Err()
}

// appendEntryRow folds one joined entry/line row into the accumulated list.
// Rows arrive grouped by entry, so a row either extends the last entry or
// starts a new one.
func appendEntryRow(out []JournalEntry, e JournalEntry, line JournalLine) []JournalEntry {
	if len(out) == 0 || out[len(out)-1].ID != e.ID {
		out = append(out, e)
	}
	last := &out[len(out)-1]
	line.EntryID = e.ID
	last.Lines = append(last.Lines, line)
	return out
}

func refType(ref *Reference) any {
	if ref == nil {
		return nil
	}
	return ref.Type
}

func refID(ref *Reference) any {
	if ref == nil {
		return nil
	}
	return ref.ID
}

func taxRateArg(rate *decimal.Decimal) any {
	if rate == nil {
		return nil
	}
	return rate.String()
}
