package entries

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	ledgershared "github.com/gestio-erp/gestio-erp/internal/ledger/shared"
	"github.com/gestio-erp/gestio-erp/internal/shared"
	_ "github.com/gestio-erp/gestio-erp/testing"
)

type memoryEntryRepo struct {
	mu         sync.Mutex
	accounts   map[int64]bool
	entries    map[int64]JournalEntry
	nextID     int64
	lastNumber int64
}

func newMemoryEntryRepo(activeAccounts ...int64) *memoryEntryRepo {
	accounts := make(map[int64]bool)
	for _, id := range activeAccounts {
		accounts[id] = true
	}
	return &memoryEntryRepo{
		accounts: accounts,
		entries:  make(map[int64]JournalEntry),
	}
}

// WithTx mirrors the storage semantics: row changes roll back on error, but
// id and number allocations behave like sequences whose values stay consumed.
func (r *memoryEntryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	snapshot := make(map[int64]JournalEntry, len(r.entries))
	for id, e := range r.entries {
		snapshot[id] = e
	}
	if err := fn(ctx, &memoryEntryTx{repo: r}); err != nil {
		r.entries = snapshot
		return err
	}
	return nil
}

func (r *memoryEntryRepo) GetWithLines(ctx context.Context, entryID int64) (JournalEntry, error) {
	entry, ok := r.entries[entryID]
	if !ok {
		return JournalEntry{}, ledgershared.ErrEntryNotFound
	}
	return entry, nil
}

func (r *memoryEntryRepo) FindByReference(ctx context.Context, ref Reference) (JournalEntry, error) {
	for _, entry := range r.entries {
		if entry.Reference != nil && *entry.Reference == ref {
			return entry, nil
		}
	}
	return JournalEntry{}, ledgershared.ErrEntryNotFound
}

func (r *memoryEntryRepo) ListRange(ctx context.Context, from, to time.Time) ([]JournalEntry, error) {
	var out []JournalEntry
	for _, entry := range r.entries {
		if entry.Date.Before(from) || entry.Date.After(to) {
			continue
		}
		out = append(out, entry)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].Number < out[j].Number
	})
	return out, nil
}

type memoryEntryTx struct {
	repo *memoryEntryRepo
}

func (t *memoryEntryTx) LockReference(ctx context.Context, ref Reference) error { return nil }

func (t *memoryEntryTx) ActiveAccountIDs(ctx context.Context, ids []int64) (map[int64]bool, error) {
	out := make(map[int64]bool)
	for _, id := range ids {
		if active, ok := t.repo.accounts[id]; ok {
			out[id] = active
		}
	}
	return out, nil
}

func (t *memoryEntryTx) InsertEntry(ctx context.Context, in EntryInput) (JournalEntry, error) {
	t.repo.lastNumber++
	t.repo.nextID++
	entry := JournalEntry{
		ID:          t.repo.nextID,
		Number:      t.repo.lastNumber,
		Journal:     in.Journal,
		Date:        in.Date,
		Description: in.Description,
		Reference:   in.Reference,
		CreatedAt:   time.Now(),
	}
	t.repo.entries[entry.ID] = entry
	return entry, nil
}

func (t *memoryEntryTx) InsertLines(ctx context.Context, entryID int64, lines []LineInput) error {
	entry := t.repo.entries[entryID]
	for i, line := range lines {
		entry.Lines = append(entry.Lines, JournalLine{
			ID:          int64(i + 1),
			EntryID:     entryID,
			AccountID:   line.AccountID,
			Debit:       line.Debit,
			Credit:      line.Credit,
			TaxRate:     line.TaxRate,
			TaxSide:     line.TaxSide,
			Description: line.Description,
		})
	}
	t.repo.entries[entryID] = entry
	return nil
}

func (t *memoryEntryTx) DeleteByReference(ctx context.Context, ref Reference) (int64, error) {
	var deleted int64
	for id, entry := range t.repo.entries {
		if entry.Reference != nil && *entry.Reference == ref {
			delete(t.repo.entries, id)
			deleted++
		}
	}
	return deleted, nil
}

func (t *memoryEntryTx) GetWithLines(ctx context.Context, entryID int64) (JournalEntry, error) {
	return t.repo.GetWithLines(ctx, entryID)
}

type recordingAudit struct {
	logs     []shared.AuditLog
	failWith error
}

func (a *recordingAudit) Record(_ context.Context, log shared.AuditLog) error {
	if a.failWith != nil {
		return a.failWith
	}
	a.logs = append(a.logs, log)
	return nil
}

type countingBumper struct {
	bumps    int
	failWith error
}

func (b *countingBumper) Bump(context.Context) error {
	if b.failWith != nil {
		return b.failWith
	}
	b.bumps++
	return nil
}

type countingMeter struct {
	posted  int
	deleted int
}

func (m *countingMeter) CountEntryPosted(string) { m.posted++ }
func (m *countingMeter) CountEntryDeleted()      { m.deleted++ }

func amount(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func balancedInput(ref *Reference) EntryInput {
	return EntryInput{
		Journal:     JournalBank,
		Date:        time.Date(2025, 4, 2, 0, 0, 0, 0, time.UTC),
		Description: "rent april",
		Reference:   ref,
		Lines: []LineInput{
			{AccountID: 10, Debit: amount("800.00")},
			{AccountID: 20, Credit: amount("800.00")},
		},
	}
}

func TestCreateEntryAssignsMonotonicNumbers(t *testing.T) {
	repo := newMemoryEntryRepo(10, 20)
	svc := NewService(repo, nil, nil)

	first, err := svc.CreateEntry(context.Background(), balancedInput(nil))
	require.NoError(t, err)
	second, err := svc.CreateEntry(context.Background(), balancedInput(nil))
	require.NoError(t, err)

	require.Equal(t, int64(1), first.Number)
	require.Equal(t, int64(2), second.Number)
	require.True(t, first.Balanced())
}

func TestCreateEntryRejectsUnknownAccount(t *testing.T) {
	repo := newMemoryEntryRepo(10)
	svc := NewService(repo, nil, nil)

	_, err := svc.CreateEntry(context.Background(), balancedInput(nil))
	require.ErrorIs(t, err, ledgershared.ErrAccountNotFound)
	require.Empty(t, repo.entries)
}

func TestCreateEntryRejectsInactiveAccount(t *testing.T) {
	repo := newMemoryEntryRepo(10, 20)
	repo.accounts[20] = false
	svc := NewService(repo, nil, nil)

	_, err := svc.CreateEntry(context.Background(), balancedInput(nil))
	require.ErrorIs(t, err, ledgershared.ErrAccountInactive)
	require.Empty(t, repo.entries)
}

func TestCreateEntryPersistsNothingOnValidationFailure(t *testing.T) {
	repo := newMemoryEntryRepo(10, 20)
	svc := NewService(repo, nil, nil)

	in := balancedInput(nil)
	in.Lines[1].Credit = amount("799.99")
	_, err := svc.CreateEntry(context.Background(), in)
	require.ErrorIs(t, err, ledgershared.ErrUnbalanced)
	require.Empty(t, repo.entries)
	require.Equal(t, int64(0), repo.lastNumber)
}

func TestDeleteByReferenceIsIdempotent(t *testing.T) {
	repo := newMemoryEntryRepo(10, 20)
	svc := NewService(repo, nil, nil)

	ref := Reference{Type: "expense", ID: uuid.New()}
	_, err := svc.CreateEntry(context.Background(), balancedInput(&ref))
	require.NoError(t, err)

	require.NoError(t, svc.DeleteByReference(context.Background(), ref))
	require.Empty(t, repo.entries)

	// Second delete finds nothing and still succeeds.
	require.NoError(t, svc.DeleteByReference(context.Background(), ref))
}

func TestDeleteByReferenceRequiresReference(t *testing.T) {
	repo := newMemoryEntryRepo(10, 20)
	svc := NewService(repo, nil, nil)

	err := svc.DeleteByReference(context.Background(), Reference{})
	require.ErrorIs(t, err, ledgershared.ErrReferenceRequired)
}

func TestNumbersAreNotReusedAfterDeletion(t *testing.T) {
	repo := newMemoryEntryRepo(10, 20)
	svc := NewService(repo, nil, nil)

	ref := Reference{Type: "expense", ID: uuid.New()}
	_, err := svc.CreateEntry(context.Background(), balancedInput(&ref))
	require.NoError(t, err)
	require.NoError(t, svc.DeleteByReference(context.Background(), ref))

	next, err := svc.CreateEntry(context.Background(), balancedInput(nil))
	require.NoError(t, err)
	require.Equal(t, int64(2), next.Number, "gaps stay, numbers never recycle")
}

func TestCreateEntryConcurrentPostingsGetDistinctNumbers(t *testing.T) {
	repo := newMemoryEntryRepo(10, 20)
	svc := NewService(repo, nil, nil)

	const workers = 8
	numbers := make(chan int64, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			entry, err := svc.CreateEntry(context.Background(), balancedInput(nil))
			if err != nil {
				t.Error(err)
				return
			}
			numbers <- entry.Number
		}()
	}
	wg.Wait()
	close(numbers)

	seen := make(map[int64]bool)
	for n := range numbers {
		require.False(t, seen[n], "number %d assigned twice", n)
		seen[n] = true
	}
	require.Len(t, seen, workers)
}

func TestCreateEntryTxDefersSideEffectsUntilFlush(t *testing.T) {
	repo := newMemoryEntryRepo(10, 20)
	audit := &recordingAudit{}
	bumper := &countingBumper{}
	meter := &countingMeter{}
	svc := NewService(repo, audit, bumper)
	svc.WithMetrics(meter)

	ctx, effects := DeferEffects(context.Background())
	entry, err := svc.createEntryIn(ctx, &memoryEntryTx{repo: repo}, balancedInput(nil))
	require.NoError(t, err)
	require.NotZero(t, entry.Number)

	// Nothing observable before the caller's transaction commits.
	require.Empty(t, audit.logs)
	require.Zero(t, bumper.bumps)
	require.Zero(t, meter.posted)

	effects.Flush(ctx)
	require.Len(t, audit.logs, 1)
	require.Equal(t, "ledger.post", audit.logs[0].Action)
	require.Equal(t, 1, bumper.bumps)
	require.Equal(t, 1, meter.posted)
}

func TestDroppedEffectsLeaveNoAuditTrail(t *testing.T) {
	repo := newMemoryEntryRepo(10, 20)
	audit := &recordingAudit{}
	bumper := &countingBumper{}
	meter := &countingMeter{}
	svc := NewService(repo, audit, bumper)
	svc.WithMetrics(meter)

	ref := Reference{Type: "expense", ID: uuid.New()}
	_, err := svc.CreateEntry(context.Background(), balancedInput(&ref))
	require.NoError(t, err)
	audit.logs = nil
	bumper.bumps = 0

	// The delete succeeds in-transaction, then the caller rolls back and
	// discards the collector without flushing.
	ctx, _ := DeferEffects(context.Background())
	require.NoError(t, svc.deleteByReferenceIn(ctx, &memoryEntryTx{repo: repo}, ref))

	require.Empty(t, audit.logs, "no audit row for a deletion that never committed")
	require.Zero(t, bumper.bumps)
	require.Zero(t, meter.deleted)
}

func TestSideEffectFailuresAreLoggedNotFatal(t *testing.T) {
	repo := newMemoryEntryRepo(10, 20)
	audit := &recordingAudit{failWith: errors.New("audit_logs unavailable")}
	bumper := &countingBumper{failWith: errors.New("redis down")}
	svc := NewService(repo, audit, bumper)

	var buf bytes.Buffer
	svc.WithLogger(slog.New(slog.NewTextHandler(&buf, nil)))

	_, err := svc.CreateEntry(context.Background(), balancedInput(nil))
	require.NoError(t, err, "posting must survive side-effect failures")
	require.True(t, strings.Contains(buf.String(), "report cache bump failed"))
	require.True(t, strings.Contains(buf.String(), "audit record failed"))
}

func TestReverseEntrySwapsSides(t *testing.T) {
	repo := newMemoryEntryRepo(10, 20)
	svc := NewService(repo, nil, nil)
	svc.WithNow(func() time.Time { return time.Date(2025, 4, 30, 12, 0, 0, 0, time.UTC) })

	original, err := svc.CreateEntry(context.Background(), balancedInput(nil))
	require.NoError(t, err)

	reversal, err := svc.ReverseEntry(context.Background(), original.ID, "posted to wrong month")
	require.NoError(t, err)
	require.True(t, reversal.Balanced())
	require.Len(t, reversal.Lines, 2)
	require.True(t, reversal.Lines[0].Credit.Equal(amount("800.00")))
	require.True(t, reversal.Lines[1].Debit.Equal(amount("800.00")))

	// The original entry is untouched.
	kept, err := svc.GetEntry(context.Background(), original.ID)
	require.NoError(t, err)
	require.True(t, kept.Lines[0].Debit.Equal(amount("800.00")))
}
