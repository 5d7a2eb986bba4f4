package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	jobmetrics "github.com/gestio-erp/gestio-erp/internal/jobs"
)

// IntegrityScanJob re-verifies the ledger's balance laws over the stored
// entries: every entry must balance line by line, and total debits must equal
// total credits across the whole journal.
type IntegrityScanJob struct {
	Pool    *pgxpool.Pool
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	clock   func() time.Time
}

// NewIntegrityScanJob initialises the integrity scan handler.
func NewIntegrityScanJob(pool *pgxpool.Pool, logger *slog.Logger, metrics *jobmetrics.Metrics) *IntegrityScanJob {
	return &IntegrityScanJob{
		Pool:    pool,
		Logger:  logger,
		Metrics: metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

type unbalancedEntry struct {
	EntryID int64
	Number  int64
	Debit   decimal.Decimal
	Credit  decimal.Decimal
}

// Handle executes the integrity scan.
func (j *IntegrityScanJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil {
		return errors.New("integrity scan: handler not configured")
	}
	var payload IntegrityScanPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	start := j.now()
	tracker := j.metrics().Track(TaskLedgerIntegrityScan)
	var resultErr error
	defer func() { _ = tracker.End(resultErr) }()

	logger := j.logger()
	logger.Info("starting integrity scan")

	unbalanced, err := j.scanEntries(ctx)
	if err != nil {
		resultErr = err
		logger.Error("scan failed", slog.Any("error", err))
		return resultErr
	}
	for _, e := range unbalanced {
		logger.Error("unbalanced journal entry",
			slog.Int64("entry_id", e.EntryID),
			slog.Int64("entry_number", e.Number),
			slog.String("debit", e.Debit.StringFixed(2)),
			slog.String("credit", e.Credit.StringFixed(2)),
		)
	}
	j.metrics().AddIntegrityViolations("unbalanced_entry", len(unbalanced))

	totalDebit, totalCredit, err := j.scanTotals(ctx)
	if err != nil {
		resultErr = err
		logger.Error("scan failed", slog.Any("error", err))
		return resultErr
	}
	if !totalDebit.Equal(totalCredit) {
		logger.Error("ledger totals diverge",
			slog.String("total_debit", totalDebit.StringFixed(2)),
			slog.String("total_credit", totalCredit.StringFixed(2)),
		)
		j.metrics().AddIntegrityViolations("total_mismatch", 1)
	}

	logger.Info("completed integrity scan",
		slog.Int("unbalanced_entries", len(unbalanced)),
		slog.Duration("duration", time.Since(start)),
	)
	return resultErr
}

func (j *IntegrityScanJob) scanEntries(ctx context.Context) ([]unbalancedEntry, error) {
	if j.Pool == nil {
		return nil, errors.New("integrity scan: pool not configured")
	}
	rows, err := j.Pool.Query(ctx, `
		SELECT e.id, e.number, COALESCE(SUM(l.debit), 0), COALESCE(SUM(l.credit), 0)
		FROM journal_entries e
		JOIN journal_lines l ON l.entry_id = e.id
		GROUP BY e.id, e.number
		HAVING SUM(l.debit) <> SUM(l.credit)
		ORDER BY e.number`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []unbalancedEntry
	for rows.Next() {
		var e unbalancedEntry
		if err := rows.Scan(&e.EntryID, &e.Number, &e.Debit, &e.Credit); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (j *IntegrityScanJob) scanTotals(ctx context.Context) (decimal.Decimal, decimal.Decimal, error) {
	var debit, credit decimal.Decimal
	err := j.Pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(debit), 0), COALESCE(SUM(credit), 0) FROM journal_lines`).
		Scan(&debit, &credit)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	return debit, credit, nil
}

func (j *IntegrityScanJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskLedgerIntegrityScan))
	}
	return slog.Default().With(slog.String("job", TaskLedgerIntegrityScan))
}

func (j *IntegrityScanJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *IntegrityScanJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}

var defaultJobMetrics = jobmetrics.NewMetrics(nil)
