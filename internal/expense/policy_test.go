package expense

import (
	"context"
	"errors"
	"testing"
)

// fakeMembers is a membership checker backed by an in-memory set
type fakeMembers struct {
	members map[[2]int64]bool
}

func newFakeMembers() *fakeMembers {
	return &fakeMembers{members: make(map[[2]int64]bool)}
}

func (f *fakeMembers) add(groupID, userID int64) {
	f.members[[2]int64{groupID, userID}] = true
}

func (f *fakeMembers) IsMember(ctx context.Context, groupID, userID int64) (bool, error) {
	return f.members[[2]int64{groupID, userID}], nil
}

func groupIDPtr(id int64) *int64 { return &id }

func TestAuthorizePersonalExpense(t *testing.T) {
	policy := NewPolicy(newFakeMembers())
	e := &Expense{ID: 1, UserID: 10}

	if err := policy.Authorize(context.Background(), 10, e); err != nil {
		t.Errorf("owner should be allowed, got %v", err)
	}

	err := policy.Authorize(context.Background(), 11, e)
	if !errors.Is(err, ErrNotExpenseOwner) {
		t.Errorf("non-owner should get ErrNotExpenseOwner, got %v", err)
	}
}

func TestAuthorizeGroupExpense(t *testing.T) {
	members := newFakeMembers()
	members.add(5, 10)
	members.add(5, 20)
	policy := NewPolicy(members)

	// Created by user 10, but any member may act on it.
	e := &Expense{ID: 1, UserID: 10, GroupID: groupIDPtr(5)}

	for _, actor := range []int64{10, 20} {
		if err := policy.Authorize(context.Background(), actor, e); err != nil {
			t.Errorf("member %d should be allowed, got %v", actor, err)
		}
	}

	err := policy.Authorize(context.Background(), 30, e)
	if !errors.Is(err, ErrNotGroupMember) {
		t.Errorf("non-member should get ErrNotGroupMember, got %v", err)
	}

	// Ownership is irrelevant once the expense is group-scoped: the creator
	// loses access if no longer a member.
	orphan := &Expense{ID: 2, UserID: 30, GroupID: groupIDPtr(5)}
	err = policy.Authorize(context.Background(), 30, orphan)
	if !errors.Is(err, ErrNotGroupMember) {
		t.Errorf("non-member creator should get ErrNotGroupMember, got %v", err)
	}
}

func TestAuthorizeCreate(t *testing.T) {
	members := newFakeMembers()
	members.add(5, 10)
	policy := NewPolicy(members)

	if err := policy.AuthorizeCreate(context.Background(), 99, nil); err != nil {
		t.Errorf("personal expense creation needs no membership, got %v", err)
	}

	if err := policy.AuthorizeCreate(context.Background(), 10, groupIDPtr(5)); err != nil {
		t.Errorf("member should be allowed to create a group expense, got %v", err)
	}

	err := policy.AuthorizeCreate(context.Background(), 11, groupIDPtr(5))
	if !errors.Is(err, ErrNotGroupMember) {
		t.Errorf("non-member should get ErrNotGroupMember, got %v", err)
	}
}
