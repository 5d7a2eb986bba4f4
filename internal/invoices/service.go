package invoices

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/gestio-erp/gestio-erp/internal/ledger/entries"
	"github.com/gestio-erp/gestio-erp/internal/ledger/postings"
)

// LedgerHooks posts and removes the accounting effect of invoice events.
type LedgerHooks interface {
	HandleInvoiceIssued(ctx context.Context, tx pgx.Tx, evt postings.InvoiceIssuedEvent) error
	HandleInvoiceVoided(ctx context.Context, tx pgx.Tx, id uuid.UUID) error
	HandlePaymentRecorded(ctx context.Context, tx pgx.Tx, evt postings.PaymentRecordedEvent) error
	HandlePaymentVoided(ctx context.Context, tx pgx.Tx, id uuid.UUID) error
}

// Service owns the invoice lifecycle and its ledger coupling.
type Service struct {
	repo  Repository
	hooks LedgerHooks
	now   func() time.Time
}

func NewService(repo Repository, hooks LedgerHooks) *Service {
	return &Service{repo: repo, hooks: hooks, now: time.Now}
}

// WithNow overrides the clock for testing.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Create stores a draft. Drafts have no accounting effect yet.
func (s *Service) Create(ctx context.Context, input InvoiceInput) (Invoice, error) {
	if err := input.Validate(); err != nil {
		return Invoice{}, err
	}
	inv := Invoice{
		ID:        uuid.New(),
		Number:    input.Number,
		Customer:  input.Customer,
		Label:     input.Label,
		Net:       input.Net,
		TaxRate:   input.TaxRate,
		Status:    StatusDraft,
		Date:      input.Date,
		CreatedAt: s.now(),
		UpdatedAt: s.now(),
	}
	if err := s.repo.Insert(ctx, inv); err != nil {
		return Invoice{}, err
	}
	return inv, nil
}

// Issue transitions a draft to ISSUED and posts its entry atomically.
func (s *Service) Issue(ctx context.Context, id uuid.UUID) (Invoice, error) {
	inv, err := s.repo.Get(ctx, id)
	if err != nil {
		return Invoice{}, err
	}
	ctx, effects := entries.DeferEffects(ctx)
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		if err := s.repo.UpdateStatusTx(ctx, tx, id, StatusDraft, StatusIssued); err != nil {
			return err
		}
		return s.hooks.HandleInvoiceIssued(ctx, tx, postings.InvoiceIssuedEvent{
			ID:      inv.ID,
			Number:  inv.Number,
			Date:    inv.Date,
			Label:   inv.Label,
			Net:     inv.Net,
			TaxRate: inv.TaxRate,
		})
	})
	if err != nil {
		return Invoice{}, err
	}
	effects.Flush(ctx)
	inv.Status = StatusIssued
	return inv, nil
}

// Void cancels an issued invoice and removes exactly its entry. Payments must
// be voided first so the receivable never goes negative silently.
func (s *Service) Void(ctx context.Context, id uuid.UUID) error {
	count, err := s.repo.CountPayments(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrHasPayments
	}
	ctx, effects := entries.DeferEffects(ctx)
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		if err := s.repo.UpdateStatusTx(ctx, tx, id, StatusIssued, StatusVoid); err != nil {
			return err
		}
		return s.hooks.HandleInvoiceVoided(ctx, tx, id)
	})
	if err != nil {
		return err
	}
	effects.Flush(ctx)
	return nil
}

// RecordPayment stores a payment against an issued invoice and posts the
// bank/receivable entry in the same transaction.
func (s *Service) RecordPayment(ctx context.Context, invoiceID uuid.UUID, input PaymentInput) (Payment, error) {
	if err := input.Validate(); err != nil {
		return Payment{}, err
	}
	inv, err := s.repo.Get(ctx, invoiceID)
	if err != nil {
		return Payment{}, err
	}
	if inv.Status != StatusIssued {
		return Payment{}, ErrInvalidStatus
	}
	payment := Payment{
		ID:        uuid.New(),
		InvoiceID: invoiceID,
		Amount:    input.Amount,
		Method:    input.Method,
		Date:      input.Date,
		CreatedAt: s.now(),
	}
	ctx, effects := entries.DeferEffects(ctx)
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		if err := s.repo.InsertPaymentTx(ctx, tx, payment); err != nil {
			return err
		}
		return s.hooks.HandlePaymentRecorded(ctx, tx, postings.PaymentRecordedEvent{
			ID:        payment.ID,
			InvoiceID: invoiceID,
			Date:      payment.Date,
			Label:     inv.Number,
			Method:    payment.Method,
			Amount:    payment.Amount,
		})
	})
	if err != nil {
		return Payment{}, err
	}
	effects.Flush(ctx)
	return payment, nil
}

// VoidPayment removes a payment and its entry as one unit.
func (s *Service) VoidPayment(ctx context.Context, paymentID uuid.UUID) error {
	ctx, effects := entries.DeferEffects(ctx)
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		deleted, err := s.repo.DeletePaymentTx(ctx, tx, paymentID)
		if err != nil {
			return err
		}
		if deleted == 0 {
			return ErrPaymentNotFound
		}
		return s.hooks.HandlePaymentVoided(ctx, tx, paymentID)
	})
	if err != nil {
		return err
	}
	effects.Flush(ctx)
	return nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (Invoice, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]Invoice, error) {
	return s.repo.List(ctx)
}
