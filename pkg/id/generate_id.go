package id

import (
	"strings"

	"github.com/google/uuid"
)

// New returns a random (v4) UUID in canonical lowercase form.
func New() string { return uuid.NewString() }

// Parse normalizes s to canonical UUID form. Braced and urn-prefixed input is accepted.
func Parse(s string) (string, error) {
	u, err := uuid.Parse(strings.TrimSpace(s))
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

// Valid reports whether s is a UUID in canonical form.
func Valid(s string) bool {
	u, err := uuid.Parse(s)
	return err == nil && u.String() == s
}
