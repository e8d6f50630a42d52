// Package users provides database operations for the local reader profile.
//
// # Usage
//
//	repo := users.NewRepository(db)
//	user, err := repo.CreateUser("alice", "Alice", "alice@example.com")
package users

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/shelftrack/shelftrack/internal/apperrors"
	"github.com/shelftrack/shelftrack/internal/database"
	"github.com/shelftrack/shelftrack/internal/entities"
	"github.com/shelftrack/shelftrack/internal/id"
	"github.com/shelftrack/shelftrack/internal/validation"
)

// Repository handles all user database operations.
type Repository struct {
	db *database.Database
}

// NewRepository creates a new users repository.
func NewRepository(db *database.Database) *Repository {
	return &Repository{db: db}
}

// CreateUser validates the username and email, rejects a case-insensitive
// duplicate username, and inserts the profile.
func (r *Repository) CreateUser(username, displayName, email string) (*entities.User, error) {
	gdb, err := r.db.Handle()
	if err != nil {
		return nil, err
	}

	if err := validation.ValidateUsername(username); err != nil {
		return nil, err
	}
	if err := validation.ValidateEmail(email); err != nil {
		return nil, err
	}

	var existing entities.User
	result := gdb.Where("LOWER(username) = LOWER(?)", username).First(&existing)
	if result.Error == nil {
		return nil, apperrors.AlreadyExists("username %q is already taken", username)
	}
	if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, result.Error
	}

	now := time.Now()
	user := &entities.User{
		ID:          id.MustGenerate(id.PrefixUser),
		Username:    username,
		DisplayName: displayName,
		Email:       email,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := gdb.Create(user).Error; err != nil {
		return nil, apperrors.Constraint("failed to create user", err)
	}
	if err := r.db.Persist(); err != nil {
		return nil, err
	}

	return user, nil
}

// GetUser retrieves a user by ID, or nil when absent.
func (r *Repository) GetUser(userID string) (*entities.User, error) {
	gdb, err := r.db.Handle()
	if err != nil {
		return nil, err
	}

	var user entities.User
	result := gdb.Where("id = ?", userID).First(&user)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if result.Error != nil {
		return nil, result.Error
	}
	return &user, nil
}

// GetUserByUsername retrieves a user by username, case-insensitively, or nil
// when absent.
func (r *Repository) GetUserByUsername(username string) (*entities.User, error) {
	gdb, err := r.db.Handle()
	if err != nil {
		return nil, err
	}

	var user entities.User
	result := gdb.Where("LOWER(username) = LOWER(?)", username).First(&user)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if result.Error != nil {
		return nil, result.Error
	}
	return &user, nil
}

// GetFirstUser returns the earliest created profile, or nil when none exists.
func (r *Repository) GetFirstUser() (*entities.User, error) {
	gdb, err := r.db.Handle()
	if err != nil {
		return nil, err
	}

	var user entities.User
	result := gdb.Order("created_at ASC").First(&user)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if result.Error != nil {
		return nil, result.Error
	}
	return &user, nil
}

// GetAllUsers returns every profile, earliest created first.
func (r *Repository) GetAllUsers() ([]entities.User, error) {
	gdb, err := r.db.Handle()
	if err != nil {
		return nil, err
	}

	var users []entities.User
	err = gdb.Order("created_at ASC").Find(&users).Error
	return users, err
}

// UpdateInput is a partial update; nil fields are left unchanged.
type UpdateInput struct {
	DisplayName *string
	Email       *string
}

// UpdateUser applies a partial update and refreshes UpdatedAt.
func (r *Repository) UpdateUser(userID string, input UpdateInput) (*entities.User, error) {
	gdb, err := r.db.Handle()
	if err != nil {
		return nil, err
	}

	if input.Email != nil {
		if err := validation.ValidateEmail(*input.Email); err != nil {
			return nil, err
		}
	}

	updates := map[string]any{"updated_at": time.Now()}
	if input.DisplayName != nil {
		updates["display_name"] = *input.DisplayName
	}
	if input.Email != nil {
		updates["email"] = *input.Email
	}

	result := gdb.Model(&entities.User{}).Where("id = ?", userID).Updates(updates)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, apperrors.NotFound("user not found")
	}
	if err := r.db.Persist(); err != nil {
		return nil, err
	}

	return r.GetUser(userID)
}
