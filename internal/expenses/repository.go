package expenses

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists expenses. Mutations run through WithTx so the expense
// row and its ledger entry share one transaction.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, pgx.Tx) error) error
	InsertTx(ctx context.Context, tx pgx.Tx, exp Expense) error
	UpdateTx(ctx context.Context, tx pgx.Tx, exp Expense) error
	DeleteTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) (int64, error)
	Get(ctx context.Context, id uuid.UUID) (Expense, error)
	List(ctx context.Context) ([]Expense, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, pgx.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return err
	}
	if err := fn(ctx, tx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

func (r *repository) InsertTx(ctx context.Context, tx pgx.Tx, exp Expense) error {
	_, err := tx.Exec(ctx, `INSERT INTO expenses (id, label, category, payment_method, gross, tax_rate, date)
VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		exp.ID, exp.Label, exp.Category, exp.PaymentMethod, exp.Gross.String(), exp.TaxRate.String(), exp.Date)
	return err
}

func (r *repository) UpdateTx(ctx context.Context, tx pgx.Tx, exp Expense) error {
	cmd, err := tx.Exec(ctx, `UPDATE expenses SET label=$2, category=$3, payment_method=$4, gross=$5, tax_rate=$6, date=$7, updated_at=NOW()
WHERE id=$1`,
		exp.ID, exp.Label, exp.Category, exp.PaymentMethod, exp.Gross.String(), exp.TaxRate.String(), exp.Date)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrExpenseNotFound
	}
	return nil
}

func (r *repository) DeleteTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) (int64, error) {
	cmd, err := tx.Exec(ctx, `DELETE FROM expenses WHERE id=$1`, id)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

const expenseColumns = `id, label, category, payment_method, gross, tax_rate, date, created_at, updated_at`

func scanExpense(row pgx.Row) (Expense, error) {
	var e Expense
	err := row.Scan(&e.ID, &e.Label, &e.Category, &e.PaymentMethod, &e.Gross, &e.TaxRate, &e.Date, &e.CreatedAt, &e.UpdatedAt)
	return e, err
}

func (r *repository) Get(ctx context.Context, id uuid.UUID) (Expense, error) {
	exp, err := scanExpense(r.db.QueryRow(ctx, `SELECT `+expenseColumns+` FROM expenses WHERE id=$1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Expense{}, ErrExpenseNotFound
		}
		return Expense{}, err
	}
	return exp, nil
}

func (r *repository) List(ctx context.Context) ([]Expense, error) {
	rows, err := r.db.Query(ctx, `SELECT `+expenseColumns+` FROM expenses ORDER BY date DESC, created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
