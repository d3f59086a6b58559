package user

import "context"

type Repository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByName(ctx context.Context, name string) (*User, error)
	List(ctx context.Context) ([]User, error)
	// Upsert inserts or replaces by id; used by snapshot import.
	Upsert(ctx context.Context, u *User) error
}
