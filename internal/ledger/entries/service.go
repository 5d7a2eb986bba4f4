package entries

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	ledgershared "github.com/gestio-erp/gestio-erp/internal/ledger/shared"
	"github.com/gestio-erp/gestio-erp/internal/shared"
)

// AuditPort records ledger events for compliance.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Bumper invalidates derived report caches after ledger mutations.
type Bumper interface {
	Bump(ctx context.Context) error
}

// Meter counts ledger mutations for the operational dashboards.
type Meter interface {
	CountEntryPosted(journal string)
	CountEntryDeleted()
}

// Service coordinates posting, deleting, and reversing journal entries.
type Service struct {
	repo    Repository
	audit   AuditPort
	cache   Bumper
	metrics Meter
	logger  *slog.Logger
	now     func() time.Time
}

// NewService constructs the entry store service.
func NewService(repo Repository, audit AuditPort, cache Bumper) *Service {
	return &Service{repo: repo, audit: audit, cache: cache, now: time.Now}
}

// WithMetrics attaches mutation counters.
func (s *Service) WithMetrics(m Meter) {
	s.metrics = m
}

// WithLogger attaches a logger for side-effect failures.
func (s *Service) WithLogger(l *slog.Logger) {
	s.logger = l
}

// WithNow overrides the clock for testing.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// CreateEntry validates and persists a balanced entry. Header, lines, and the
// source reference land in one transaction; on any violation nothing persists.
func (s *Service) CreateEntry(ctx context.Context, input EntryInput) (JournalEntry, error) {
	var entry JournalEntry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		entry, err = s.createInTx(ctx, tx, input)
		return err
	})
	if err != nil {
		return JournalEntry{}, err
	}
	s.countPosted(entry.Journal)
	s.afterMutation(ctx, "ledger.post", entry.ID, map[string]any{
		"number":  entry.Number,
		"journal": entry.Journal,
	})
	return entry, nil
}

// CreateEntryTx posts inside a caller-owned transaction so a business event
// and its entry commit or roll back as one unit. Side effects are queued on
// the caller's effect collector and must not run until that transaction has
// committed; a rolled-back posting leaves no audit row, no cache bump, and no
// counter increment.
func (s *Service) CreateEntryTx(ctx context.Context, tx pgx.Tx, input EntryInput) (JournalEntry, error) {
	return s.createEntryIn(ctx, NewTxRepository(tx), input)
}

func (s *Service) createEntryIn(ctx context.Context, tx TxRepository, input EntryInput) (JournalEntry, error) {
	entry, err := s.createInTx(ctx, tx, input)
	if err != nil {
		return JournalEntry{}, err
	}
	s.effect(ctx, func(ctx context.Context) {
		s.countPosted(entry.Journal)
		s.afterMutation(ctx, "ledger.post", entry.ID, map[string]any{
			"number":  entry.Number,
			"journal": entry.Journal,
		})
	})
	return entry, nil
}

func (s *Service) createInTx(ctx context.Context, tx TxRepository, input EntryInput) (JournalEntry, error) {
	if err := input.Validate(); err != nil {
		return JournalEntry{}, err
	}
	if input.Reference != nil {
		if input.Reference.Type == "" || input.Reference.ID == uuid.Nil {
			return JournalEntry{}, ledgershared.ErrReferenceRequired
		}
		if err := tx.LockReference(ctx, *input.Reference); err != nil {
			return JournalEntry{}, err
		}
	}
	ids := make([]int64, 0, len(input.Lines))
	for _, line := range input.Lines {
		ids = append(ids, line.AccountID)
	}
	active, err := tx.ActiveAccountIDs(ctx, ids)
	if err != nil {
		return JournalEntry{}, err
	}
	for idx, line := range input.Lines {
		isActive, ok := active[line.AccountID]
		if !ok {
			return JournalEntry{}, ledgershared.NewValidationError(idx, ledgershared.ErrAccountNotFound)
		}
		if !isActive {
			return JournalEntry{}, ledgershared.NewValidationError(idx, ledgershared.ErrAccountInactive)
		}
	}
	entry, err := tx.InsertEntry(ctx, input)
	if err != nil {
		return JournalEntry{}, err
	}
	if err := tx.InsertLines(ctx, entry.ID, input.Lines); err != nil {
		return JournalEntry{}, err
	}
	entry.Lines = toJournalLines(entry.ID, input.Lines, s.now())
	return entry, nil
}

// DeleteByReference removes the entry produced by one business object.
// Deleting a reference that has no entry is a no-op, so undo paths and
// delete-then-regenerate sequences can call it unconditionally.
func (s *Service) DeleteByReference(ctx context.Context, ref Reference) error {
	var deleted int64
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		deleted, err = s.deleteInTx(ctx, tx, ref)
		return err
	})
	if err != nil {
		return err
	}
	if deleted > 0 {
		s.countDeleted(deleted)
		s.afterMutation(ctx, "ledger.delete", 0, map[string]any{
			"ref_type": ref.Type,
			"ref_id":   ref.ID.String(),
			"entries":  deleted,
		})
	}
	return nil
}

// DeleteByReferenceTx is the caller-transaction variant of DeleteByReference.
// Like CreateEntryTx, its side effects are deferred to the caller's
// post-commit flush.
func (s *Service) DeleteByReferenceTx(ctx context.Context, tx pgx.Tx, ref Reference) error {
	return s.deleteByReferenceIn(ctx, NewTxRepository(tx), ref)
}

func (s *Service) deleteByReferenceIn(ctx context.Context, tx TxRepository, ref Reference) error {
	deleted, err := s.deleteInTx(ctx, tx, ref)
	if err != nil {
		return err
	}
	if deleted > 0 {
		s.effect(ctx, func(ctx context.Context) {
			s.countDeleted(deleted)
			s.afterMutation(ctx, "ledger.delete", 0, map[string]any{
				"ref_type": ref.Type,
				"ref_id":   ref.ID.String(),
				"entries":  deleted,
			})
		})
	}
	return nil
}

func (s *Service) deleteInTx(ctx context.Context, tx TxRepository, ref Reference) (int64, error) {
	if ref.Type == "" || ref.ID == uuid.Nil {
		return 0, ledgershared.ErrReferenceRequired
	}
	if err := tx.LockReference(ctx, ref); err != nil {
		return 0, err
	}
	return tx.DeleteByReference(ctx, ref)
}

// ReverseEntry posts a correcting entry with debit and credit swapped. The
// original stays untouched; the ledger remains append-only.
func (s *Service) ReverseEntry(ctx context.Context, entryID int64, memo string) (JournalEntry, error) {
	if entryID == 0 {
		return JournalEntry{}, errors.New("ledger: entry id required")
	}
	var reversal JournalEntry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		original, err := tx.GetWithLines(ctx, entryID)
		if err != nil {
			return err
		}
		input := EntryInput{
			Journal:     original.Journal,
			Date:        s.now().Truncate(24 * time.Hour),
			Description: defaultReversalMemo(memo, original.Number),
			Reference:   reversalReference(original.Reference),
			Lines:       reverseLines(original.Lines),
		}
		reversal, err = s.createInTx(ctx, tx, input)
		return err
	})
	if err != nil {
		return JournalEntry{}, err
	}
	s.countPosted(reversal.Journal)
	s.afterMutation(ctx, "ledger.reverse", entryID, map[string]any{
		"reversal_number": reversal.Number,
	})
	return reversal, nil
}

// GetEntry loads one entry with lines.
func (s *Service) GetEntry(ctx context.Context, entryID int64) (JournalEntry, error) {
	return s.repo.GetWithLines(ctx, entryID)
}

// FindByReference loads the entry linked to one business object.
func (s *Service) FindByReference(ctx context.Context, ref Reference) (JournalEntry, error) {
	return s.repo.FindByReference(ctx, ref)
}

// ListRange returns entries with lines over a date range.
func (s *Service) ListRange(ctx context.Context, from, to time.Time) ([]JournalEntry, error) {
	return s.repo.ListRange(ctx, from, to)
}

func (s *Service) countPosted(journal string) {
	if s.metrics != nil {
		s.metrics.CountEntryPosted(journal)
	}
}

func (s *Service) countDeleted(n int64) {
	if s.metrics == nil {
		return
	}
	for i := int64(0); i < n; i++ {
		s.metrics.CountEntryDeleted()
	}
}

// effect runs fn once the enclosing transaction is out of the way: queued on
// the caller's collector when one is present, inline otherwise.
func (s *Service) effect(ctx context.Context, fn func(context.Context)) {
	if QueueEffect(ctx, fn) {
		return
	}
	fn(ctx)
}

func (s *Service) afterMutation(ctx context.Context, action string, entryID int64, meta map[string]any) {
	if s.cache != nil {
		if err := s.cache.Bump(ctx); err != nil {
			s.log().Warn("report cache bump failed, reports may serve stale data until TTL",
				"action", action, "error", err)
		}
	}
	if s.audit != nil {
		if err := s.audit.Record(ctx, shared.AuditLog{
			Action:   action,
			Entity:   "journal_entry",
			EntityID: fmt.Sprintf("%d", entryID),
			Meta:     meta,
			At:       s.now(),
		}); err != nil {
			s.log().Error("audit record failed", "action", action, "entry_id", entryID, "error", err)
		}
	}
}

func (s *Service) log() *slog.Logger {
	if s.logger != nil {
		return s.logger
	}
	return slog.Default()
}

func reverseLines(lines []JournalLine) []LineInput {
	out := make([]LineInput, 0, len(lines))
	for _, line := range lines {
		out = append(out, LineInput{
			AccountID:   line.AccountID,
			Debit:       line.Credit,
			Credit:      line.Debit,
			TaxRate:     line.TaxRate,
			TaxSide:     line.TaxSide,
			Description: line.Description,
		})
	}
	return out
}

func reversalReference(ref *Reference) *Reference {
	if ref == nil {
		return &Reference{Type: "reversal", ID: uuid.New()}
	}
	return &Reference{Type: ref.Type + ":reversal", ID: uuid.New()}
}

func toJournalLines(entryID int64, lines []LineInput, ts time.Time) []JournalLine {
	out := make([]JournalLine, 0, len(lines))
	for _, line := range lines {
		out = append(out, JournalLine{
			EntryID:     entryID,
			AccountID:   line.AccountID,
			Debit:       line.Debit,
			Credit:      line.Credit,
			TaxRate:     line.TaxRate,
			TaxSide:     line.TaxSide,
			Description: line.Description,
			CreatedAt:   ts,
		})
	}
	return out
}

func defaultReversalMemo(memo string, number int64) string {
	if memo != "" {
		return memo
	}
	return fmt.Sprintf("Reversal of entry %d", number)
}
