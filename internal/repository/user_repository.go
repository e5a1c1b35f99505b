package repository

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"ragstack/internal/model"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(user *model.User) error {
	if err := r.db.Create(user).Error; err != nil {
		return fmt.Errorf("create user failed: %w", err)
	}
	return nil
}

func (r *UserRepository) GetByEmail(email string) (*model.User, error) {
	var user model.User
	if err := r.db.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query user by email failed: %w", err)
	}
	return &user, nil
}

func (r *UserRepository) GetByID(id string) (*model.User, error) {
	var user model.User
	if err := r.db.Where("id = ?", id).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query user by id failed: %w", err)
	}
	return &user, nil
}

func (r *UserRepository) Update(user *model.User) error {
	if err := r.db.Save(user).Error; err != nil {
		return fmt.Errorf("update user failed: %w", err)
	}
	return nil
}

func (r *UserRepository) TouchLastLogin(id string, at time.Time) error {
	if err := r.db.Model(&model.User{}).Where("id = ?", id).Update("last_login", at).Error; err != nil {
		return fmt.Errorf("update user last login failed: %w", err)
	}
	return nil
}

// List returns a page of users, optionally scoped to a tenant, newest first.
func (r *UserRepository) List(tenantID string, offset, limit int) ([]model.User, int64, error) {
	q := r.db.Model(&model.User{})
	if tenantID != "" {
		q = q.Where("tenant_id = ?", tenantID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count users failed: %w", err)
	}

	var users []model.User
	if err := q.Order("created_at DESC").Offset(offset).Limit(limit).Find(&users).Error; err != nil {
		return nil, 0, fmt.Errorf("list users failed: %w", err)
	}
	return users, total, nil
}

func (r *UserRepository) CountByTenant(tenantID string) (int64, error) {
	var total int64
	q := r.db.Model(&model.User{})
	if tenantID != "" {
		q = q.Where("tenant_id = ?", tenantID)
	}
	if err := q.Count(&total).Error; err != nil {
		return 0, fmt.Errorf("count users failed: %w", err)
	}
	return total, nil
}

func (r *UserRepository) GetPreferences(userID string) (*model.UserPreferences, error) {
	var prefs model.UserPreferences
	if err := r.db.Where("user_id = ?", userID).First(&prefs).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query user preferences failed: %w", err)
	}
	return &prefs, nil
}

func (r *UserRepository) SavePreferences(prefs *model.UserPreferences) error {
	if err := r.db.Save(prefs).Error; err != nil {
		return fmt.Errorf("save user preferences failed: %w", err)
	}
	return nil
}
