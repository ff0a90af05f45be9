package logic

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/sunrunnn/SageSparke/models"
)

const (
	minUsernameLen = 3
	minPasswordLen = 6
)

var (
	// ErrInvalidCredentials is returned on a failed login. It is kept
	// deliberately vague.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrUsernameTaken is returned when signing up with an existing
	// username.
	ErrUsernameTaken = errors.New("username already taken")
)

// UserLogic handles account-related business logic
type UserLogic struct {
	users UserStore
}

func NewUserLogic(users UserStore) *UserLogic {
	return &UserLogic{users: users}
}

// Signup registers a new account with a bcrypt-hashed password.
func (l *UserLogic) Signup(ctx context.Context, username, password string) (*models.User, error) {
	if len(username) < minUsernameLen {
		return nil, fmt.Errorf("username must be at least %d characters", minUsernameLen)
	}
	if len(password) < minPasswordLen {
		return nil, fmt.Errorf("password must be at least %d characters", minPasswordLen)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	user := &models.User{
		ID:           uuid.New(),
		Username:     username,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := l.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, ErrConflict) {
			return nil, ErrUsernameTaken
		}
		return nil, err
	}
	return user, nil
}

// Login verifies credentials and returns the matching account.
func (l *UserLogic) Login(ctx context.Context, username, password string) (*models.User, error) {
	user, err := l.users.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// GetUser retrieves account info
func (l *UserLogic) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return l.users.GetUserByID(ctx, id)
}
