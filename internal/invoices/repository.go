package invoices

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists invoices and payments. Mutations with accounting effect
// run through WithTx together with their ledger postings.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, pgx.Tx) error) error
	Insert(ctx context.Context, inv Invoice) error
	UpdateStatusTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, from, to InvoiceStatus) error
	Get(ctx context.Context, id uuid.UUID) (Invoice, error)
	List(ctx context.Context) ([]Invoice, error)
	InsertPaymentTx(ctx context.Context, tx pgx.Tx, p Payment) error
	DeletePaymentTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) (int64, error)
	GetPayment(ctx context.Context, id uuid.UUID) (Payment, error)
	CountPayments(ctx context.Context, invoiceID uuid.UUID) (int, error)
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

func (r *repository) Insert(ctx context.Context, inv Invoice) error {
	_, err := r.db.Exec(ctx, `INSERT INTO invoices (id, number, customer, label, net, tax_rate, status, date)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		inv.ID, inv.Number, inv.Customer, inv.Label, inv.Net.String(), inv.TaxRate.String(), inv.Status, inv.Date)
	return err
}

// UpdateStatusTx performs a guarded transition; a zero row count means the
// invoice was missing or not in the expected state.
func (r *repository) UpdateStatusTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, from, to InvoiceStatus) error {
	cmd, err := tx.Exec(ctx, `UPDATE invoices SET status=$3, updated_at=NOW() WHERE id=$1 AND status=$2`, id, from, to)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrInvalidStatus
	}
	return nil
}

const invoiceColumns = `id, number, customer, label, net, tax_rate, status, date, created_at, updated_at`

func scanInvoice(row pgx.Row) (Invoice, error) {
	var inv Invoice
	err := row.Scan(&inv.ID, &inv.Number, &inv.Customer, &inv.Label, &inv.Net, &inv.TaxRate,
		&inv.Status, &inv.Date, &inv.CreatedAt, &inv.UpdatedAt)
	return inv, err
}

func (r *repository) Get(ctx context.Context, id uuid.UUID) (Invoice, error) {
	inv, err := scanInvoice(r.db.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id=$1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Invoice{}, ErrInvoiceNotFound
		}
		return Invoice{}, err
	}
	return inv, nil
}

func (r *repository) List(ctx context.Context) ([]Invoice, error) {
	rows, err := r.db.Query(ctx, `SELECT `+invoiceColumns+` FROM invoices ORDER BY date DESC, number DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

func (r *repository) InsertPaymentTx(ctx context.Context, tx pgx.Tx, p Payment) error {
	_, err := tx.Exec(ctx, `INSERT INTO invoice_payments (id, invoice_id, amount, method, date)
VALUES ($1,$2,$3,$4,$5)`, p.ID, p.InvoiceID, p.Amount.String(), p.Method, p.Date)
	return err
}

func (r *repository) DeletePaymentTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) (int64, error) {
	cmd, err := tx.Exec(ctx, `DELETE FROM invoice_payments WHERE id=$1`, id)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func (r *repository) GetPayment(ctx context.Context, id uuid.UUID) (Payment, error) {
	var p Payment
	err := r.db.QueryRow(ctx, `SELECT id, invoice_id, amount, method, date, created_at FROM invoice_payments WHERE id=$1`, id).
		Scan(&p.ID, &p.InvoiceID, &p.Amount, &p.Method, &p.Date, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Payment{}, ErrPaymentNotFound
		}
		return Payment{}, err
	}
	return p, nil
}

func (r *repository) CountPayments(ctx context.Context, invoiceID uuid.UUID) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM invoice_payments WHERE invoice_id=$1`, invoiceID).Scan(&count)
	return count, err
}
