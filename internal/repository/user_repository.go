// internal/repository/user_repository.go
package repository

import (
	"context"
	"errors"
	"fmt"

	"blog-api/internal/errs"
	"blog-api/internal/model"

	"gorm.io/gorm"
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, id uint) (*model.User, error)
	FindActiveByUsername(ctx context.Context, username string) (*model.User, error)
	ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error)
	List(ctx context.Context, includeInactive bool) ([]model.User, error)
	Count(ctx context.Context) (int64, error)
	SetActive(ctx context.Context, id uint, active bool) (bool, error)
	UpdatePasswordHash(ctx context.Context, id uint, hash string) (bool, error)
}

type UserRepositoryImpl struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepositoryImpl {
	return &UserRepositoryImpl{db: db}
}

func (r *UserRepositoryImpl) Create(ctx context.Context, user *model.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return errs.ErrDuplicateCredential
		}
		return fmt.Errorf("repository.CreateUser: %w", err)
	}
	return nil
}

func (r *UserRepositoryImpl) FindByID(ctx context.Context, id uint) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, notFound("repository.FindUserByID", err)
	}
	return &user, nil
}

func (r *UserRepositoryImpl) FindActiveByUsername(ctx context.Context, username string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Where("username = ? AND is_active = ?", username, true).
		First(&user).Error
	if err != nil {
		return nil, notFound("repository.FindActiveByUsername", err)
	}
	return &user, nil
}

// ExistsByUsernameOrEmail checks both active and deactivated accounts.
func (r *UserRepositoryImpl) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.User{}).
		Where("username = ? OR email = ?", username, email).
		Count(&n).Error
	if err != nil {
		return false, fmt.Errorf("repository.ExistsByUsernameOrEmail: %w", err)
	}
	return n > 0, nil
}

func (r *UserRepositoryImpl) List(ctx context.Context, includeInactive bool) ([]model.User, error) {
	q := r.db.WithContext(ctx).Order("id ASC")
	if !includeInactive {
		q = q.Where("is_active = ?", true)
	}
	var users []model.User
	if err := q.Find(&users).Error; err != nil {
		return nil, fmt.Errorf("repository.ListUsers: %w", err)
	}
	return users, nil
}

func (r *UserRepositoryImpl) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&model.User{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("repository.CountUsers: %w", err)
	}
	return n, nil
}

// SetActive flips is_active only when it currently holds the opposite value,
// so a self-transition reports false without touching the row.
func (r *UserRepositoryImpl) SetActive(ctx context.Context, id uint, active bool) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ? AND is_active = ?", id, !active).
		Update("is_active", active)
	if res.Error != nil {
		return false, fmt.Errorf("repository.SetUserActive: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (r *UserRepositoryImpl) UpdatePasswordHash(ctx context.Context, id uint, hash string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", id).
		Update("password_hash", hash)
	if res.Error != nil {
		return false, fmt.Errorf("repository.UpdatePasswordHash: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}

func notFound(op string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errs.ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}
