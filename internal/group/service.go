package group

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// invitationTTL is how long an invitation token stays acceptable.
const invitationTTL = 7 * 24 * time.Hour

// Common errors
var (
	ErrGroupNotFound     = errors.New("group not found")
	ErrNotGroupMember    = errors.New("not a member of this group")
	ErrAlreadyMember     = errors.New("user is already a member of this group")
	ErrInvitationInvalid = errors.New("invalid or expired invitation")
	ErrInvitationExpired = errors.New("invitation has expired")
)

// Store defines the persistence operations the service needs
type Store interface {
	Create(ctx context.Context, name string, createdBy int64) (*Group, error)
	GetByID(ctx context.Context, id int64) (*Group, error)
	ListByUserID(ctx context.Context, userID int64) ([]*Group, []int, error)
	GetMembers(ctx context.Context, groupID int64) ([]*Member, error)
	IsMember(ctx context.Context, groupID, userID int64) (bool, error)
	FindUserIDByEmail(ctx context.Context, email string) (int64, bool, error)
	CreateInvitation(ctx context.Context, groupID int64, email string, invitedBy int64, token string, expiresAt time.Time) (*Invitation, error)
	GetInvitationByToken(ctx context.Context, token string) (*Invitation, error)
	ConsumeInvitation(ctx context.Context, invitationID, userID int64) (*Member, error)
}

// Service handles group business logic
type Service struct {
	store Store
}

// NewService creates a new group service
func NewService(store Store) *Service {
	return &Service{store: store}
}

// Create creates a new group; the creator joins as a member in the same transaction
func (s *Service) Create(ctx context.Context, creatorID int64, req *CreateGroupRequest) (*Group, error) {
	return s.store.Create(ctx, req.Name, creatorID)
}

// ListByUserID retrieves all groups the user belongs to, with member counts
func (s *Service) ListByUserID(ctx context.Context, userID int64) ([]*Group, []int, error) {
	return s.store.ListByUserID(ctx, userID)
}

// GetDetails retrieves a group with its members. Only current members may see
// group details.
func (s *Service) GetDetails(ctx context.Context, groupID, actorID int64) (*Group, []*Member, error) {
	isMember, err := s.store.IsMember(ctx, groupID, actorID)
	if err != nil {
		return nil, nil, err
	}
	if !isMember {
		return nil, nil, ErrNotGroupMember
	}

	group, err := s.store.GetByID(ctx, groupID)
	if err != nil {
		return nil, nil, err
	}
	if group == nil {
		return nil, nil, ErrGroupNotFound
	}

	members, err := s.store.GetMembers(ctx, groupID)
	if err != nil {
		return nil, nil, err
	}

	return group, members, nil
}

// Invite creates a time-limited invitation for an email address. The inviter
// must be a member; inviting an email that already belongs to a member fails.
// The invited email does not need a registered account yet.
func (s *Service) Invite(ctx context.Context, groupID, inviterID int64, email string) (*Invitation, error) {
	isMember, err := s.store.IsMember(ctx, groupID, inviterID)
	if err != nil {
		return nil, err
	}
	if !isMember {
		return nil, ErrNotGroupMember
	}

	invitedID, found, err := s.store.FindUserIDByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if found {
		alreadyMember, err := s.store.IsMember(ctx, groupID, invitedID)
		if err != nil {
			return nil, err
		}
		if alreadyMember {
			return nil, ErrAlreadyMember
		}
	}

	token := uuid.NewString()
	expiresAt := time.Now().Add(invitationTTL)

	return s.store.CreateInvitation(ctx, groupID, email, inviterID, token, expiresAt)
}

// AcceptInvitation redeems a token for the accepting user. A token maps to at
// most one successful acceptance: consumed tokens are not found by the lookup,
// and expired tokens fail without being consumed.
func (s *Service) AcceptInvitation(ctx context.Context, token string, userID int64) (*Member, error) {
	inv, err := s.store.GetInvitationByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, ErrInvitationInvalid
	}
	if time.Now().After(inv.ExpiresAt) {
		return nil, ErrInvitationExpired
	}

	return s.store.ConsumeInvitation(ctx, inv.ID, userID)
}
