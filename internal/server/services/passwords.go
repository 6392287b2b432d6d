package services

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// bcryptCost is lowered in tests.
var bcryptCost = bcrypt.DefaultCost

func hashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// passwordMatches reports whether password fits hash. A stored value that is
// not a bcrypt hash never matches; the decode error is returned so callers
// can log it.
func passwordMatches(hash, password string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, err
	}
}
