package expense

import "time"

// Expense represents an expense record. GroupID is nil for a personal expense
// and set for a group expense; exactly one of the two holds for any record.
type Expense struct {
	ID          int64     `json:"id"`
	Description string    `json:"description"`
	Amount      float64   `json:"amount"`
	Category    *string   `json:"category,omitempty"`
	UserID      int64     `json:"user_id"`
	GroupID     *int64    `json:"group_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	Date        time.Time `json:"date"`
	Tags        []string  `json:"tags"`
}

// IsPersonal reports whether the expense has no group attached
func (e *Expense) IsPersonal() bool {
	return e.GroupID == nil
}

// CategoryTotal is one bucket of a category summary
type CategoryTotal struct {
	Total float64 `json:"total"`
	Count int64   `json:"count"`
}
