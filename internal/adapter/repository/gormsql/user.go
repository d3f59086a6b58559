package gormsql

import (
	"context"
	"errors"
	"fmt"

	userDomain "smart-loan-recovery/internal/domain/user"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserRepository struct{ db *gorm.DB }

func NewUserRepository(db *gorm.DB) *UserRepository { return &UserRepository{db: db} }

func (r *UserRepository) Create(ctx context.Context, u *userDomain.User) error {
	row := userToRow(u)
	err := r.db.WithContext(ctx).Create(&row).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %q", userDomain.ErrDuplicateName, u.Name)
	}
	return err
}

func (r *UserRepository) Upsert(ctx context.Context, u *userDomain.User) error {
	row := userToRow(u)
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&row).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %q", userDomain.ErrDuplicateName, u.Name)
	}
	return err
}

func (r *UserRepository) first(ctx context.Context, query string, arg any) (*userDomain.User, error) {
	var row userRow
	err := r.db.WithContext(ctx).Where(query, arg).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, userDomain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return row.toDomain()
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*userDomain.User, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *UserRepository) GetByName(ctx context.Context, name string) (*userDomain.User, error) {
	return r.first(ctx, "name = ?", name)
}

func (r *UserRepository) List(ctx context.Context) ([]userDomain.User, error) {
	var rows []userRow
	if err := r.db.WithContext(ctx).Order("created_at ASC, id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]userDomain.User, 0, len(rows))
	for _, row := range rows {
		u, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, *u)
	}
	return out, nil
}
