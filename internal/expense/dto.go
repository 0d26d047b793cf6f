package expense

// CreateExpenseRequest represents the request to create an expense
type CreateExpenseRequest struct {
	Description string   `json:"description" validate:"required,min=1"`
	Amount      float64  `json:"amount" validate:"required,gt=0"`
	Category    *string  `json:"category,omitempty"`
	Date        *string  `json:"date,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	GroupID     *int64   `json:"group_id,omitempty"`
}

// UpdateExpenseRequest represents a partial update to an expense. Group
// assignment is immutable after creation and is deliberately absent here.
type UpdateExpenseRequest struct {
	Description *string  `json:"description,omitempty" validate:"omitempty,min=1"`
	Amount      *float64 `json:"amount,omitempty" validate:"omitempty,gt=0"`
	Category    *string  `json:"category,omitempty"`
	Date        *string  `json:"date,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// ExpenseResponse represents the response for an expense
type ExpenseResponse struct {
	ID          int64    `json:"id"`
	Description string   `json:"description"`
	Amount      float64  `json:"amount"`
	Category    *string  `json:"category,omitempty"`
	UserID      int64    `json:"user_id"`
	GroupID     *int64   `json:"group_id,omitempty"`
	CreatedAt   string   `json:"created_at"`
	Date        string   `json:"date"`
	Tags        []string `json:"tags"`
}

// ToResponse converts an Expense model to an ExpenseResponse DTO
func (e *Expense) ToResponse() *ExpenseResponse {
	tags := e.Tags
	if tags == nil {
		tags = []string{}
	}
	return &ExpenseResponse{
		ID:          e.ID,
		Description: e.Description,
		Amount:      e.Amount,
		Category:    e.Category,
		UserID:      e.UserID,
		GroupID:     e.GroupID,
		CreatedAt:   e.CreatedAt.Format("2006-01-02T15:04:05Z"),
		Date:        e.Date.Format("2006-01-02"),
		Tags:        tags,
	}
}
