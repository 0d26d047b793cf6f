package group

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"
)

// Repository handles group data persistence
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new group repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new group and the creator's membership in one transaction
func (r *Repository) Create(ctx context.Context, name string, createdBy int64) (*Group, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	group := &Group{}
	err = tx.QueryRowContext(ctx, `
		INSERT INTO groups (name, created_by)
		VALUES ($1, $2)
		RETURNING id, name, created_by, created_at
	`, name, createdBy).Scan(
		&group.ID,
		&group.Name,
		&group.CreatedBy,
		&group.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create group: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO group_members (group_id, user_id)
		VALUES ($1, $2)
	`, group.ID, createdBy)
	if err != nil {
		return nil, fmt.Errorf("failed to add creator as member: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return group, nil
}

// GetByID retrieves a group by its ID
func (r *Repository) GetByID(ctx context.Context, id int64) (*Group, error) {
	group := &Group{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, created_by, created_at
		FROM groups
		WHERE id = $1
	`, id).Scan(
		&group.ID,
		&group.Name,
		&group.CreatedBy,
		&group.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get group: %w", err)
	}

	return group, nil
}

// ListByUserID retrieves all groups the user is a member of, with member counts
func (r *Repository) ListByUserID(ctx context.Context, userID int64) ([]*Group, []int, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT g.id, g.name, g.created_by, g.created_at,
		       (SELECT COUNT(*) FROM group_members m WHERE m.group_id = g.id)
		FROM groups g
		JOIN group_members gm ON g.id = gm.group_id
		WHERE gm.user_id = $1
		ORDER BY g.created_at DESC
	`, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list groups: %w", err)
	}
	defer rows.Close()

	var groups []*Group
	var counts []int
	for rows.Next() {
		group := &Group{}
		var count int
		if err := rows.Scan(
			&group.ID,
			&group.Name,
			&group.CreatedBy,
			&group.CreatedAt,
			&count,
		); err != nil {
			return nil, nil, fmt.Errorf("failed to scan group: %w", err)
		}
		groups = append(groups, group)
		counts = append(counts, count)
	}

	return groups, counts, rows.Err()
}

// GetMembers retrieves all members of a group
func (r *Repository) GetMembers(ctx context.Context, groupID int64) ([]*Member, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT gm.id, gm.group_id, gm.user_id, gm.joined_at, u.username, u.email
		FROM group_members gm
		JOIN users u ON gm.user_id = u.id
		WHERE gm.group_id = $1
		ORDER BY gm.joined_at
	`, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to get members: %w", err)
	}
	defer rows.Close()

	var members []*Member
	for rows.Next() {
		member := &Member{}
		if err := rows.Scan(
			&member.ID,
			&member.GroupID,
			&member.UserID,
			&member.JoinedAt,
			&member.Username,
			&member.Email,
		); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, member)
	}

	return members, rows.Err()
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

// FindUserIDByEmail looks up a registered user by email, returning found=false
// when the email belongs to no account
func (r *Repository) FindUserIDByEmail(ctx context.Context, email string) (int64, bool, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, `SELECT id FROM users WHERE email = $1`, email).Scan(&id)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("failed to find user by email: %w", err)
	}
	return id, true, nil
}

// CreateInvitation inserts a new unconsumed invitation
func (r *Repository) CreateInvitation(ctx context.Context, groupID int64, email string, invitedBy int64, token string, expiresAt time.Time) (*Invitation, error) {
	inv := &Invitation{}
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO group_invitations (group_id, invited_email, invited_by, token, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, group_id, invited_email, invited_by, token, created_at, expires_at, used
	`, groupID, email, invitedBy, token, expiresAt).Scan(
		&inv.ID,
		&inv.GroupID,
		&inv.InvitedEmail,
		&inv.InvitedBy,
		&inv.Token,
		&inv.CreatedAt,
		&inv.ExpiresAt,
		&inv.Used,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create invitation: %w", err)
	}

	return inv, nil
}

// GetInvitationByToken retrieves an unconsumed invitation by its token.
// Consumed tokens are invisible here, which is what makes a token single-use.
func (r *Repository) GetInvitationByToken(ctx context.Context, token string) (*Invitation, error) {
	inv := &Invitation{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, group_id, invited_email, invited_by, token, created_at, expires_at, used
		FROM group_invitations
		WHERE token = $1 AND used = FALSE
	`, token).Scan(
		&inv.ID,
		&inv.GroupID,
		&inv.InvitedEmail,
		&inv.InvitedBy,
		&inv.Token,
		&inv.CreatedAt,
		&inv.ExpiresAt,
		&inv.Used,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get invitation: %w", err)
	}

	return inv, nil
}

// ConsumeInvitation atomically creates the membership and marks the invitation
// used. The row lock and the used re-check make a raced double-accept fail with
// ErrInvitationInvalid rather than producing two memberships.
func (r *Repository) ConsumeInvitation(ctx context.Context, invitationID, userID int64) (*Member, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var groupID int64
	var expiresAt time.Time
	err = tx.QueryRowContext(ctx, `
		SELECT group_id, expires_at FROM group_invitations
		WHERE id = $1 AND used = FALSE
		FOR UPDATE
	`, invitationID).Scan(&groupID, &expiresAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrInvitationInvalid
		}
		return nil, fmt.Errorf("failed to lock invitation: %w", err)
	}

	// Re-checked under the row lock: the pre-transaction expiry check leaves
	// a window in which the token could cross its deadline.
	if time.Now().After(expiresAt) {
		return nil, ErrInvitationExpired
	}

	member := &Member{}
	err = tx.QueryRowContext(ctx, `
		INSERT INTO group_members (group_id, user_id)
		VALUES ($1, $2)
		RETURNING id, group_id, user_id, joined_at
	`, groupID, userID).Scan(
		&member.ID,
		&member.GroupID,
		&member.UserID,
		&member.JoinedAt,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return nil, ErrAlreadyMember
		}
		return nil, fmt.Errorf("failed to create membership: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE group_invitations SET used = TRUE WHERE id = $1
	`, invitationID)
	if err != nil {
		return nil, fmt.Errorf("failed to mark invitation used: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return member, nil
}
