package model

import "time"

// Transaction is a single statement line owned by a user. A transaction with
// an empty Category is orphaned: either newly imported and not yet classified,
// or left behind by a category deletion.
type Transaction struct {
	Date     time.Time
	UserID   string
	Category string
	Detail   string
	ID       int64
	Amount   Money
}

// Orphaned reports whether the transaction lacks a category assignment.
func (t *Transaction) Orphaned() bool {
	return t.Category == ""
}

// Reclassification is a single classifier verdict: transaction id plus the
// category it should move to. Category may be empty when the classifier could
// not place the entry; persistence substitutes the reserved category then.
type Reclassification struct {
	Category string `json:"category"`
	ID       int64  `json:"id"`
}
