package group

import "time"

// Group represents a group in the system
type Group struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedBy int64     `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

// Member represents a user's membership in a group
type Member struct {
	ID       int64     `json:"id"`
	GroupID  int64     `json:"group_id"`
	UserID   int64     `json:"user_id"`
	JoinedAt time.Time `json:"joined_at"`

	// Populated from JOIN
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
}

// Invitation represents a pending or consumed invitation to join a group.
// Expiry is derived, not stored: an invitation is expired when now is past
// ExpiresAt and it has not been used.
type Invitation struct {
	ID           int64     `json:"id"`
	GroupID      int64     `json:"group_id"`
	InvitedEmail string    `json:"invited_email"`
	InvitedBy    int64     `json:"invited_by"`
	Token        string    `json:"token"`
	CreatedAt    time.Time `json:"created_at"`
	ExpiresAt    time.Time `json:"expires_at"`
	Used         bool      `json:"used"`
}
