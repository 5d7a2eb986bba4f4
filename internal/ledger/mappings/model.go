package mappings

import "time"

// AccountMapping links a business category or payment-method key to a ledger
// account. Adding a category is a data change, never a code change.
type AccountMapping struct {
	Module    string
	Key       string
	AccountID int64
	CreatedAt time.Time
	UpdatedAt time.Time
}
