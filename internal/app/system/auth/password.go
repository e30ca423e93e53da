package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DefaultAdminPassword is used when neither a password nor a hash is configured.
const DefaultAdminPassword = "hawkeye"

// PasswordChecker verifies the shared admin password against a bcrypt hash.
type PasswordChecker struct {
	hash []byte
}

// NewPasswordChecker prefers a precomputed bcrypt hash; otherwise it hashes
// plain once at startup so the plaintext is not kept around.
func NewPasswordChecker(plain, hash string) (*PasswordChecker, error) {
	if hash != "" {
		if _, err := bcrypt.Cost([]byte(hash)); err != nil {
			return nil, fmt.Errorf("admin password hash: %w", err)
		}
		return &PasswordChecker{hash: []byte(hash)}, nil
	}
	if plain == "" {
		return nil, errors.New("admin password is empty")
	}
	h, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash admin password: %w", err)
	}
	return &PasswordChecker{hash: h}, nil
}

// Check reports whether password matches.
func (p *PasswordChecker) Check(password string) bool {
	if p == nil || len(p.hash) == 0 {
		return false
	}
	return bcrypt.CompareHashAndPassword(p.hash, []byte(password)) == nil
}
