package helpers

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// BcryptHashLen is the length of every well-formed bcrypt hash.
const BcryptHashLen = 60

// MaxPasswordBytes is the longest input bcrypt accepts.
const MaxPasswordBytes = 72

var ErrMalformedHash = errors.New("malformed password hash")

// HashPassword hashes the plain text password using bcrypt. A zero cost
// means bcrypt.DefaultCost.
func HashPassword(plain string, cost int) ([]byte, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return bcrypt.GenerateFromPassword([]byte(plain), cost)
}

// ComparePassword reports whether plain matches hash. A hash that bcrypt
// cannot parse yields ErrMalformedHash instead of a mismatch.
func ComparePassword(hash []byte, plain string) (bool, error) {
	if len(hash) != BcryptHashLen {
		return false, ErrMalformedHash
	}
	err := bcrypt.CompareHashAndPassword(hash, []byte(plain))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("%w: %v", ErrMalformedHash, err)
	}
}
