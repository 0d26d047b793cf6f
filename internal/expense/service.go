package expense

import (
	"context"
	"errors"
	"time"

	"github.com/expenso/expenso/internal/category"
)

// Common errors
var (
	ErrExpenseNotFound = errors.New("expense not found")
	ErrInvalidAmount   = errors.New("amount must be greater than zero")
	ErrInvalidCategory = errors.New("unknown category")
	ErrInvalidDate     = errors.New("date must be in YYYY-MM-DD format")
)

const dateLayout = "2006-01-02"

// Store defines the persistence operations the service needs
type Store interface {
	Create(ctx context.Context, e *Expense) (*Expense, error)
	GetByID(ctx context.Context, id int64) (*Expense, error)
	ListByUser(ctx context.Context, userID int64) ([]*Expense, error)
	ListByGroup(ctx context.Context, groupID int64) ([]*Expense, error)
	Update(ctx context.Context, id int64, description *string, amount *float64, category *string, date *time.Time, tags []string) (*Expense, error)
	Delete(ctx context.Context, id int64) (*Expense, error)
	SummaryByUser(ctx context.Context, userID int64) (map[string]*CategoryTotal, error)
}

// Service handles expense business logic, delegating every permission decision
// to the access policy and category defaults to the categorizer.
type Service struct {
	store       Store
	policy      *Policy
	categorizer *category.Categorizer
}

// NewService creates a new expense service with dependencies injected
func NewService(store Store, policy *Policy, categorizer *category.Categorizer) *Service {
	return &Service{
		store:       store,
		policy:      policy,
		categorizer: categorizer,
	}
}

// Create creates a new expense. A group expense requires current membership in
// the target group. The categorizer supplies the category only when the caller
// does not; a caller-supplied category always wins.
func (s *Service) Create(ctx context.Context, actorID int64, req *CreateExpenseRequest) (*Expense, error) {
	if req.Amount <= 0 {
		return nil, ErrInvalidAmount
	}

	if err := s.policy.AuthorizeCreate(ctx, actorID, req.GroupID); err != nil {
		return nil, err
	}

	var cat string
	if req.Category != nil {
		if !s.categorizer.IsValid(*req.Category) {
			return nil, ErrInvalidCategory
		}
		cat = *req.Category
	} else {
		cat = string(s.categorizer.Categorize(req.Description))
	}

	date := time.Now()
	if req.Date != nil {
		parsed, err := time.Parse(dateLayout, *req.Date)
		if err != nil {
			return nil, ErrInvalidDate
		}
		date = parsed
	}

	tags := req.Tags
	if tags == nil {
		tags = []string{}
	}

	return s.store.Create(ctx, &Expense{
		Description: req.Description,
		Amount:      req.Amount,
		Category:    &cat,
		UserID:      actorID,
		GroupID:     req.GroupID,
		Date:        date,
		Tags:        tags,
	})
}

// GetByID retrieves an expense the actor is allowed to see. A missing record
// and a policy denial are distinct failures.
func (s *Service) GetByID(ctx context.Context, id, actorID int64) (*Expense, error) {
	e, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, ErrExpenseNotFound
	}

	if err := s.policy.Authorize(ctx, actorID, e); err != nil {
		return nil, err
	}

	return e, nil
}

// ListForUser returns the union of the user's personal expenses and every
// expense of each group the user belongs to, most recent first
func (s *Service) ListForUser(ctx context.Context, userID int64) ([]*Expense, error) {
	return s.store.ListByUser(ctx, userID)
}

// ListForGroup returns a group's expenses; members only
func (s *Service) ListForGroup(ctx context.Context, groupID, actorID int64) ([]*Expense, error) {
	if err := s.policy.RequireMembership(ctx, groupID, actorID); err != nil {
		return nil, err
	}
	return s.store.ListByGroup(ctx, groupID)
}

// Update applies a partial update after authorizing against the pre-update
// state. The stored category changes only when the caller supplies one; a
// description change alone never re-categorizes. Group assignment is
// immutable.
func (s *Service) Update(ctx context.Context, id, actorID int64, req *UpdateExpenseRequest) (*Expense, error) {
	existing, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, ErrExpenseNotFound
	}

	if err := s.policy.Authorize(ctx, actorID, existing); err != nil {
		return nil, err
	}

	if req.Amount != nil && *req.Amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if req.Category != nil && !s.categorizer.IsValid(*req.Category) {
		return nil, ErrInvalidCategory
	}

	var date *time.Time
	if req.Date != nil {
		parsed, err := time.Parse(dateLayout, *req.Date)
		if err != nil {
			return nil, ErrInvalidDate
		}
		date = &parsed
	}

	updated, err := s.store.Update(ctx, id, req.Description, req.Amount, req.Category, date, req.Tags)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, ErrExpenseNotFound
	}

	return updated, nil
}

// Delete removes an expense after authorizing against its current state,
// returning the deleted record
func (s *Service) Delete(ctx context.Context, id, actorID int64) (*Expense, error) {
	existing, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, ErrExpenseNotFound
	}

	if err := s.policy.Authorize(ctx, actorID, existing); err != nil {
		return nil, err
	}

	deleted, err := s.store.Delete(ctx, id)
	if err != nil {
		return nil, err
	}
	if deleted == nil {
		return nil, ErrExpenseNotFound
	}

	return deleted, nil
}

// CategorySummary aggregates the user's visible expenses into
// category -> {total, count} buckets
func (s *Service) CategorySummary(ctx context.Context, userID int64) (map[string]*CategoryTotal, error) {
	return s.store.SummaryByUser(ctx, userID)
}
