package dao

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sunrunnn/SageSparke/logic"
	"github.com/sunrunnn/SageSparke/models"
)

// UserDAO handles user-related database operations
type UserDAO struct {
	db *gorm.DB
}

func NewUserDAO(db *gorm.DB) *UserDAO {
	return &UserDAO{db: db}
}

// CreateUser creates a new user. Usernames are unique
// case-insensitively.
func (d *UserDAO) CreateUser(ctx context.Context, user *models.User) error {
	var existing models.User
	err := d.db.WithContext(ctx).
		Where("LOWER(username) = ?", strings.ToLower(user.Username)).
		First(&existing).Error
	if err == nil {
		return logic.ErrConflict
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return d.db.WithContext(ctx).Create(user).Error
}

// GetUserByUsername retrieves a user by username
func (d *UserDAO) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	err := d.db.WithContext(ctx).
		Where("LOWER(username) = ?", strings.ToLower(username)).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, logic.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// GetUserByID retrieves a user by id
func (d *UserDAO) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	err := d.db.WithContext(ctx).Where("id = ?", id).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, logic.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}
