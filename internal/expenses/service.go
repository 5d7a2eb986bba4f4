package expenses

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/gestio-erp/gestio-erp/internal/ledger/entries"
	"github.com/gestio-erp/gestio-erp/internal/ledger/postings"
)

// LedgerHooks posts and removes the accounting effect of expense events
// inside the expense transaction, so the record and its entry never diverge.
type LedgerHooks interface {
	HandleExpenseRecorded(ctx context.Context, tx pgx.Tx, evt postings.ExpenseRecordedEvent) error
	HandleExpenseDeleted(ctx context.Context, tx pgx.Tx, id uuid.UUID) error
}

// Service owns the expense lifecycle and its ledger coupling.
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

// Create persists the expense and its journal entry atomically. A failed
// posting (unknown category mapping, unbalanced lines) fails the whole
// creation; no expense exists without its entry.
func (s *Service) Create(ctx context.Context, input ExpenseInput) (Expense, error) {
	if err := input.Validate(); err != nil {
		return Expense{}, err
	}
	exp := Expense{
		ID:            uuid.New(),
		Label:         input.Label,
		Category:      input.Category,
		PaymentMethod: input.PaymentMethod,
		Gross:         input.Gross,
		TaxRate:       input.TaxRate,
		Date:          input.Date,
		CreatedAt:     s.now(),
		UpdatedAt:     s.now(),
	}
	ctx, effects := entries.DeferEffects(ctx)
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		if err := s.repo.InsertTx(ctx, tx, exp); err != nil {
			return err
		}
		return s.hooks.HandleExpenseRecorded(ctx, tx, s.event(exp))
	})
	if err != nil {
		return Expense{}, err
	}
	effects.Flush(ctx)
	return exp, nil
}

// Update rewrites the expense and regenerates its entry: the old entry is
// deleted by reference and a fresh one posted, keeping entries immutable
// instead of diffing in place.
func (s *Service) Update(ctx context.Context, id uuid.UUID, input ExpenseInput) (Expense, error) {
	if err := input.Validate(); err != nil {
		return Expense{}, err
	}
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return Expense{}, err
	}
	updated := current
	updated.Label = input.Label
	updated.Category = input.Category
	updated.PaymentMethod = input.PaymentMethod
	updated.Gross = input.Gross
	updated.TaxRate = input.TaxRate
	updated.Date = input.Date
	updated.UpdatedAt = s.now()
	ctx, effects := entries.DeferEffects(ctx)
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		if err := s.repo.UpdateTx(ctx, tx, updated); err != nil {
			return err
		}
		if err := s.hooks.HandleExpenseDeleted(ctx, tx, id); err != nil {
			return err
		}
		return s.hooks.HandleExpenseRecorded(ctx, tx, s.event(updated))
	})
	if err != nil {
		return Expense{}, err
	}
	effects.Flush(ctx)
	return updated, nil
}

// Delete removes the expense and exactly its journal entry. The entry
// deletion is idempotent, so a repeated delete stays a no-op.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	ctx, effects := entries.DeferEffects(ctx)
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		deleted, err := s.repo.DeleteTx(ctx, tx, id)
		if err != nil {
			return err
		}
		if deleted == 0 {
			return ErrExpenseNotFound
		}
		return s.hooks.HandleExpenseDeleted(ctx, tx, id)
	})
	if err != nil {
		return err
	}
	effects.Flush(ctx)
	return nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (Expense, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]Expense, error) {
	return s.repo.List(ctx)
}

func (s *Service) event(exp Expense) postings.ExpenseRecordedEvent {
	return postings.ExpenseRecordedEvent{
		ID:            exp.ID,
		Date:          exp.Date,
		Label:         exp.Label,
		Category:      exp.Category,
		PaymentMethod: exp.PaymentMethod,
		Gross:         exp.Gross,
		TaxRate:       exp.TaxRate,
	}
}
