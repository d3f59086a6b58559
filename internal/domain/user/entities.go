package user

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrNotFound      = errors.New("user not found")
	ErrDuplicateName = errors.New("user name already registered")
	ErrInvalidRole   = errors.New("role must be 'borrower' or 'lender'")
	ErrInvalidName   = errors.New("name must be 1-100 characters")
)

type Role string

const (
	RoleBorrower Role = "borrower"
	RoleLender   Role = "lender"
)

// ParseRole accepts the lowercase wire form and the capitalized form older exports used.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(RoleBorrower):
		return RoleBorrower, nil
	case string(RoleLender):
		return RoleLender, nil
	}
	return "", ErrInvalidRole
}

func (r Role) Valid() bool { return r == RoleBorrower || r == RoleLender }

type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

func (u *User) IsLender() bool { return u.Role == RoleLender }

// NormalizeName trims surrounding whitespace and enforces the length bounds.
func NormalizeName(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" || len([]rune(s)) > 100 {
		return "", ErrInvalidName
	}
	return s, nil
}
