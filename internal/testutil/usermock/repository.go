package usermock

import (
	"context"

	domain "smart-loan-recovery/internal/domain/user"
)

var _ domain.Repository = (*Repo)(nil)

// Repo is a function-backed mock that satisfies domain.Repository.
type Repo struct {
	CreateFn    func(ctx context.Context, u *domain.User) error
	GetByIDFn   func(ctx context.Context, id string) (*domain.User, error)
	GetByNameFn func(ctx context.Context, name string) (*domain.User, error)
	ListFn      func(ctx context.Context) ([]domain.User, error)
	UpsertFn    func(ctx context.Context, u *domain.User) error
}

// Fixed returns a Repo whose readers serve the given users and report
// domain.ErrNotFound for anything else.
func Fixed(users ...domain.User) *Repo {
	byID := make(map[string]domain.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	return &Repo{
		GetByIDFn: func(_ context.Context, id string) (*domain.User, error) {
			u, ok := byID[id]
			if !ok {
				return nil, domain.ErrNotFound
			}
			return &u, nil
		},
		GetByNameFn: func(_ context.Context, name string) (*domain.User, error) {
			for _, u := range users {
				if u.Name == name {
					u := u
					return &u, nil
				}
			}
			return nil, domain.ErrNotFound
		},
		ListFn: func(context.Context) ([]domain.User, error) {
			return append([]domain.User(nil), users...), nil
		},
	}
}

func (m *Repo) Create(ctx context.Context, u *domain.User) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, u)
	}
	return nil
}

func (m *Repo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	return nil, context.Canceled
}

func (m *Repo) GetByName(ctx context.Context, name string) (*domain.User, error) {
	if m.GetByNameFn != nil {
		return m.GetByNameFn(ctx, name)
	}
	return nil, context.Canceled
}

func (m *Repo) List(ctx context.Context) ([]domain.User, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx)
	}
	return nil, context.Canceled
}

func (m *Repo) Upsert(ctx context.Context, u *domain.User) error {
	if m.UpsertFn != nil {
		return m.UpsertFn(ctx, u)
	}
	return nil
}
