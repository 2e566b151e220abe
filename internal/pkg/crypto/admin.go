package crypto

import (
	"crypto/subtle"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// AdminCredential is the fixed username/password pair that unlocks the
// admin identity. The password is kept only as a bcrypt hash.
type AdminCredential struct {
	username     string
	passwordHash []byte
}

// NewAdminCredential hashes the admin password with the given bcrypt cost.
// A cost of 0 uses bcrypt.DefaultCost.
func NewAdminCredential(username, password string, cost int) (*AdminCredential, error) {
	if username == "" || password == "" {
		return nil, fmt.Errorf("admin username and password are required")
	}
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash admin password: %w", err)
	}

	return &AdminCredential{
		username:     username,
		passwordHash: hash,
	}, nil
}

// Username returns the admin username.
func (a *AdminCredential) Username() string {
	return a.username
}

// Matches reports whether the pair is exactly the admin credential.
func (a *AdminCredential) Matches(username, password string) bool {
	if a == nil {
		return false
	}
	if subtle.ConstantTimeCompare([]byte(username), []byte(a.username)) != 1 {
		return false
	}
	return bcrypt.CompareHashAndPassword(a.passwordHash, []byte(password)) == nil
}
