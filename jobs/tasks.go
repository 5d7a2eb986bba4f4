package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskLedgerIntegrityScan verifies the ledger's balance laws.
	TaskLedgerIntegrityScan = "ledger:integrity_scan"
	// TaskReportsWarmup pre-builds the cached financial reports.
	TaskReportsWarmup = "reports:warmup"
)

// IntegrityScanPayload carries scheduling metadata for the scan.
type IntegrityScanPayload struct {
	ScheduledFor time.Time `json:"scheduled_for"`
}

// NewIntegrityScanTask constructs an Asynq task for the integrity scan.
func NewIntegrityScanTask(at time.Time) (*asynq.Task, error) {
	body, err := json.Marshal(IntegrityScanPayload{ScheduledFor: at})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLedgerIntegrityScan, body, asynq.Queue(QueueDefault)), nil
}

// ReportsWarmupPayload selects the period the warmup covers.
type ReportsWarmupPayload struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// NewReportsWarmupTask constructs an Asynq task that rebuilds report caches
// for the given period. Zero times leave the period to the handler, which
// defaults to the current month.
func NewReportsWarmupTask(from, to time.Time) (*asynq.Task, error) {
	payload := ReportsWarmupPayload{}
	if !from.IsZero() {
		payload.From = from.Format("2006-01-02")
	}
	if !to.IsZero() {
		payload.To = to.Format("2006-01-02")
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskReportsWarmup, body, asynq.Queue(QueueDefault)), nil
}
