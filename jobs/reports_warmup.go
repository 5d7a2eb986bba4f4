package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/gestio-erp/gestio-erp/internal/reports"
)

// ReportsWarmupJob rebuilds the cached financial reports for a period so the
// first request after a cache bump does not pay the build cost.
type ReportsWarmupJob struct {
	Reports *reports.Service
	Logger  *slog.Logger
	clock   func() time.Time
}

// NewReportsWarmupJob initialises the warmup handler.
func NewReportsWarmupJob(svc *reports.Service, logger *slog.Logger) *ReportsWarmupJob {
	return &ReportsWarmupJob{
		Reports: svc,
		Logger:  logger,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle rebuilds the income statement, balance sheet and VAT report for the
// payload period. A missing period defaults to the current month.
func (j *ReportsWarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Reports == nil {
		return errors.New("reports warmup: handler not configured")
	}
	var payload ReportsWarmupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	now := j.now()
	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, -1)
	if payload.From != "" {
		if parsed, err := time.Parse("2006-01-02", payload.From); err == nil {
			from = parsed
		}
	}
	if payload.To != "" {
		if parsed, err := time.Parse("2006-01-02", payload.To); err == nil {
			to = parsed
		}
	}

	start := j.now()
	tracker := defaultJobMetrics.Track(TaskReportsWarmup)
	var resultErr error
	defer func() { _ = tracker.End(resultErr) }()

	logger := j.logger().With(
		slog.String("from", from.Format("2006-01-02")),
		slog.String("to", to.Format("2006-01-02")),
	)
	logger.Info("starting reports warmup")

	if _, err := j.Reports.IncomeStatement(ctx, from, to); err != nil {
		resultErr = err
		logger.Error("income statement build failed", slog.Any("error", err))
		return resultErr
	}
	if _, err := j.Reports.BalanceSheet(ctx, to); err != nil {
		resultErr = err
		logger.Error("balance sheet build failed", slog.Any("error", err))
		return resultErr
	}
	if _, err := j.Reports.VATReport(ctx, from, to); err != nil {
		resultErr = err
		logger.Error("vat report build failed", slog.Any("error", err))
		return resultErr
	}

	logger.Info("completed reports warmup", slog.Duration("duration", time.Since(start)))
	return resultErr
}

func (j *ReportsWarmupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskReportsWarmup))
	}
	return slog.Default().With(slog.String("job", TaskReportsWarmup))
}

func (j *ReportsWarmupJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}
