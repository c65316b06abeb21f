package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// ErrPasswordTooLong is returned for passwords bcrypt would silently truncate.
var ErrPasswordTooLong = bcrypt.ErrPasswordTooLong

// PasswordHasher hashes and verifies credentials with a fixed bcrypt cost.
type PasswordHasher struct {
	cost        int
	placeholder []byte
}

// NewPasswordHasher clamps cost into bcrypt's accepted range, falling back
// to bcrypt.DefaultCost.
func NewPasswordHasher(cost int) (*PasswordHasher, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	placeholder, err := bcrypt.GenerateFromPassword([]byte("placeholder-credential"), cost)
	if err != nil {
		return nil, err
	}
	return &PasswordHasher{cost: cost, placeholder: placeholder}, nil
}

// Cost reports the bcrypt work factor in use.
func (h *PasswordHasher) Cost() int {
	return h.cost
}

// Hash returns the bcrypt hash of plain.
func (h *PasswordHasher) Hash(plain string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", ErrPasswordTooLong
		}
		return "", err
	}
	return string(hashed), nil
}

// Verify reports whether plain matches hashed. An empty hash is checked
// against a placeholder so an unknown account costs as much as a wrong
// password, and always fails.
func (h *PasswordHasher) Verify(hashed, plain string) bool {
	if hashed == "" {
		_ = bcrypt.CompareHashAndPassword(h.placeholder, []byte(plain))
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain)) == nil
}
