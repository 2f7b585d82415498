package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// DefaultBcryptCost is roughly 250ms per hash on a current laptop core.
const DefaultBcryptCost = 12

// HashPassword hashes plaintext with bcrypt at the given cost. Out of range
// costs fall back to DefaultBcryptCost.
func HashPassword(plaintext string, cost int) (string, error) {
	if len(plaintext) == 0 {
		return "", errors.New("password is empty")
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultBcryptCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword reports whether plaintext matches hash. Malformed or empty
// hashes never match.
func VerifyPassword(plaintext, hash string) bool {
	if hash == "" || plaintext == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}
