package utils

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLen is the shortest password accepted at registration.
const MinPasswordLen = 8

// ErrWeakPassword is returned by CheckPassword for too short passwords.
var ErrWeakPassword = errors.New("password too short")

// CheckPassword applies the registration policy.
func CheckPassword(plain string) error {
	if len(plain) < MinPasswordLen {
		return ErrWeakPassword
	}
	return nil
}

// HashPassword returns the bcrypt hash using the given cost.  Costs
// outside bcrypt's range fall back to the library default.
func HashPassword(plain string, cost int) (string, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword compares a bcrypt hash with a plain password.
func VerifyPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
