package user

import (
	"context"
	"time"

	"smart-loan-recovery/internal/domain/user"
	"smart-loan-recovery/pkg/id"
)

type Usecase struct {
	repo user.Repository
	now  func() time.Time
}

func NewUsecase(r user.Repository) *Usecase {
	return &Usecase{repo: r, now: func() time.Time { return time.Now().UTC() }}
}

// WithClock replaces the time source; tests only.
func (u *Usecase) WithClock(now func() time.Time) *Usecase {
	u.now = now
	return u
}

func (u *Usecase) Register(ctx context.Context, in RegisterInput) (*user.User, error) {
	name, err := user.NormalizeName(in.Name)
	if err != nil {
		return nil, err
	}
	role, err := user.ParseRole(in.Role)
	if err != nil {
		return nil, err
	}
	usr := &user.User{
		ID:        id.New(),
		Name:      name,
		Role:      role,
		CreatedAt: u.now().Truncate(time.Microsecond),
	}
	if err := u.repo.Create(ctx, usr); err != nil {
		return nil, err
	}
	return usr, nil
}

func (u *Usecase) Get(ctx context.Context, userID string) (*user.User, error) {
	uid, err := id.Parse(userID)
	if err != nil {
		return nil, user.ErrNotFound
	}
	return u.repo.GetByID(ctx, uid)
}

func (u *Usecase) List(ctx context.Context) ([]user.User, error) {
	return u.repo.List(ctx)
}

// Login resolves a display name to its user. There is no credential check;
// the name is the identity.
func (u *Usecase) Login(ctx context.Context, name string) (*user.User, error) {
	n, err := user.NormalizeName(name)
	if err != nil {
		return nil, user.ErrNotFound
	}
	return u.repo.GetByName(ctx, n)
}
