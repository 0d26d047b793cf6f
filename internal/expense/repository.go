package expense

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// Repository handles expense data persistence
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new expense repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const expenseColumns = `id, description, amount, category, user_id, group_id, created_at, date, tags`

func scanExpense(row interface{ Scan(...interface{}) error }) (*Expense, error) {
	e := &Expense{}
	var tags []byte
	err := row.Scan(
		&e.ID,
		&e.Description,
		&e.Amount,
		&e.Category,
		&e.UserID,
		&e.GroupID,
		&e.CreatedAt,
		&e.Date,
		&tags,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(tags, &e.Tags); err != nil {
		return nil, fmt.Errorf("failed to decode tags: %w", err)
	}
	return e, nil
}

// Create inserts a new expense into the database
func (r *Repository) Create(ctx context.Context, e *Expense) (*Expense, error) {
	tags, err := json.Marshal(e.Tags)
	if err != nil {
		return nil, fmt.Errorf("failed to encode tags: %w", err)
	}

	row := r.db.QueryRowContext(ctx, `
		INSERT INTO expenses (description, amount, category, user_id, group_id, date, tags)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+expenseColumns+`
	`, e.Description, e.Amount, e.Category, e.UserID, e.GroupID, e.Date, tags)

	created, err := scanExpense(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create expense: %w", err)
	}
	return created, nil
}

// GetByID retrieves an expense by its ID
func (r *Repository) GetByID(ctx context.Context, id int64) (*Expense, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+expenseColumns+` FROM expenses WHERE id = $1
	`, id)

	e, err := scanExpense(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}
	return e, nil
}

// ListByUser retrieves the user's personal expenses together with every
// expense of each group the user currently belongs to, most recent first
func (r *Repository) ListByUser(ctx context.Context, userID int64) ([]*Expense, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+expenseColumns+`
		FROM expenses
		WHERE (user_id = $1 AND group_id IS NULL)
		   OR group_id IN (SELECT group_id FROM group_members WHERE user_id = $1)
		ORDER BY date DESC, id DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	return collectExpenses(rows)
}

// ListByGroup retrieves all expenses attached to a group, most recent first
func (r *Repository) ListByGroup(ctx context.Context, groupID int64) ([]*Expense, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+expenseColumns+`
		FROM expenses
		WHERE group_id = $1
		ORDER BY date DESC, id DESC
	`, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list group expenses: %w", err)
	}
	defer rows.Close()

	return collectExpenses(rows)
}

func collectExpenses(rows *sql.Rows) ([]*Expense, error) {
	var expenses []*Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		expenses = append(expenses, e)
	}
	return expenses, rows.Err()
}

// Update applies a partial update to an expense. Group assignment is never
// touched here: it is immutable after creation.
func (r *Repository) Update(ctx context.Context, id int64, description *string, amount *float64, category *string, date *time.Time, tags []string) (*Expense, error) {
	var tagsJSON interface{}
	if tags != nil {
		encoded, err := json.Marshal(tags)
		if err != nil {
			return nil, fmt.Errorf("failed to encode tags: %w", err)
		}
		tagsJSON = encoded
	}

	row := r.db.QueryRowContext(ctx, `
		UPDATE expenses
		SET description = COALESCE($2, description),
		    amount = COALESCE($3, amount),
		    category = COALESCE($4, category),
		    date = COALESCE($5, date),
		    tags = COALESCE($6, tags)
		WHERE id = $1
		RETURNING `+expenseColumns+`
	`, id, description, amount, category, date, tagsJSON)

	e, err := scanExpense(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to update expense: %w", err)
	}
	return e, nil
}

// Delete removes an expense, returning the deleted record
func (r *Repository) Delete(ctx context.Context, id int64) (*Expense, error) {
	row := r.db.QueryRowContext(ctx, `
		DELETE FROM expenses WHERE id = $1
		RETURNING `+expenseColumns+`
	`, id)

	e, err := scanExpense(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to delete expense: %w", err)
	}
	return e, nil
}

// SummaryByUser aggregates the user's visible expenses by category. Expenses
// stored without a category are bucketed under Uncategorized.
func (r *Repository) SummaryByUser(ctx context.Context, userID int64) (map[string]*CategoryTotal, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT COALESCE(category, 'Uncategorized'), SUM(amount), COUNT(*)
		FROM expenses
		WHERE (user_id = $1 AND group_id IS NULL)
		   OR group_id IN (SELECT group_id FROM group_members WHERE user_id = $1)
		GROUP BY COALESCE(category, 'Uncategorized')
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize expenses: %w", err)
	}
	defer rows.Close()

	summary := make(map[string]*CategoryTotal)
	for rows.Next() {
		var category string
		bucket := &CategoryTotal{}
		if err := rows.Scan(&category, &bucket.Total, &bucket.Count); err != nil {
			return nil, fmt.Errorf("failed to scan summary row: %w", err)
		}
		summary[category] = bucket
	}

	return summary, rows.Err()
}

// IsMember reports whether the user currently belongs to the group
func (r *Repository) IsMember(ctx context.Context, groupID, userID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM group_members
			WHERE group_id = $1 AND user_id = $2
		)
	`, groupID, userID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check membership: %w", err)
	}
	return exists, nil
}
