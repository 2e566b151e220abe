// Package domain contains the core business entities for the E-Day ledger.
// These are pure Go structs with no external dependencies, representing
// candidates, voters and the results derived from them.
package domain

// AdminUserID is the sentinel id of the synthesized admin identity.
// It never appears in the persisted user set.
const AdminUserID = "admin-0"

// User represents a registered voter, or the transient admin identity.
type User struct {
	// ID is derived deterministically from the voter's credential at registration.
	ID string `json:"id"`

	// Username is unique across the user set (case-sensitive).
	Username string `json:"username"`

	// HasVoted flips to true exactly once, through a cast vote.
	// Only an admin reset flips it back.
	HasVoted bool `json:"hasVoted"`

	// IsAdmin is always false for registered users.
	IsAdmin bool `json:"isAdmin"`
}

// NewVoter creates a registered user that has not voted yet.
func NewVoter(id, username string) *User {
	return &User{
		ID:       id,
		Username: username,
	}
}

// NewAdmin synthesizes the transient admin identity.
func NewAdmin(username string) *User {
	return &User{
		ID:       AdminUserID,
		Username: username,
		IsAdmin:  true,
	}
}

// CanVote returns true if the user may still cast a vote.
func (u *User) CanVote() bool {
	return !u.IsAdmin && !u.HasVoted
}

// Clone returns a copy of the user.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}
