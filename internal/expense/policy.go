package expense

import (
	"context"
	"errors"
)

// Access errors
var (
	ErrNotExpenseOwner = errors.New("not the owner of this expense")
	ErrNotGroupMember  = errors.New("not a member of this group")
)

// MembershipChecker answers whether a user currently belongs to a group
type MembershipChecker interface {
	IsMember(ctx context.Context, groupID, userID int64) (bool, error)
}

// Policy decides whether an actor may act on an expense. A personal expense is
// accessible only to its owner. A group expense is accessible to every current
// member of the group, regardless of who created it; this flat trust within a
// group is intentional.
type Policy struct {
	members MembershipChecker
}

// NewPolicy creates an access policy backed by the given membership store
func NewPolicy(members MembershipChecker) *Policy {
	return &Policy{members: members}
}

// Authorize returns nil if the actor may read, update, or delete the expense,
// or a terminal denial error otherwise.
func (p *Policy) Authorize(ctx context.Context, actorID int64, e *Expense) error {
	if e.IsPersonal() {
		if actorID != e.UserID {
			return ErrNotExpenseOwner
		}
		return nil
	}

	return p.RequireMembership(ctx, *e.GroupID, actorID)
}

// AuthorizeCreate returns nil if the actor may create an expense with the
// given group attachment. Personal expenses need no check beyond an
// authenticated actor; group expenses require current membership.
func (p *Policy) AuthorizeCreate(ctx context.Context, actorID int64, groupID *int64) error {
	if groupID == nil {
		return nil
	}
	return p.RequireMembership(ctx, *groupID, actorID)
}

// RequireMembership returns nil if the actor currently belongs to the group,
// or ErrNotGroupMember otherwise.
func (p *Policy) RequireMembership(ctx context.Context, groupID, actorID int64) error {
	isMember, err := p.members.IsMember(ctx, groupID, actorID)
	if err != nil {
		return err
	}
	if !isMember {
		return ErrNotGroupMember
	}
	return nil
}
