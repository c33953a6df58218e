package repositories

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"PracticeManager/models"
)

type UserRepository interface {
	EmailExists(ctx context.Context, email, excludeID string) (bool, error)
	UsernameExists(ctx context.Context, username, excludeID string) (bool, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, orgID, userID string) (*models.User, error)
	GetAllUsers(ctx context.Context, orgID string) ([]models.User, error)
	CreateUser(ctx context.Context, user *models.User) error
	UpdateUser(ctx context.Context, orgID, userID string, fields map[string]interface{}) error
	UpdateUserPassword(ctx context.Context, userID, hashedPassword string) error
	UpdateLastLogin(ctx context.Context, userID string, at time.Time) error
	DeleteUser(ctx context.Context, orgID, userID string) error

	GetRoleByName(ctx context.Context, name string) (*models.Role, error)
	GetRoles(ctx context.Context) ([]models.Role, error)
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func withRole(db *gorm.DB) *gorm.DB {
	return db.Preload("Role").Preload("Role.Permissions")
}

func (r *userRepository) exists(ctx context.Context, column, value, excludeID string) (bool, error) {
	q := r.db.WithContext(ctx).Model(&models.User{}).Where("LOWER("+column+") = LOWER(?)", value)
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check %s existence: %w", column, err)
	}
	return count > 0, nil
}

// EmailExists checks every user, active or not, since emails are global.
func (r *userRepository) EmailExists(ctx context.Context, email, excludeID string) (bool, error) {
	return r.exists(ctx, "email", email, excludeID)
}

func (r *userRepository) UsernameExists(ctx context.Context, username, excludeID string) (bool, error) {
	return r.exists(ctx, "username", username, excludeID)
}

// GetUserByEmail also returns inactive users so login can say why it failed.
func (r *userRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Scopes(withRole).
		Where("LOWER(email) = LOWER(?)", email).
		First(&user).Error
	if err != nil {
		return nil, notFound(err, "user")
	}
	return &user, nil
}

func (r *userRepository) GetUserByID(ctx context.Context, orgID, userID string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Scopes(tenant("users", orgID), withRole).
		First(&user, "users.id = ?", userID).Error
	if err != nil {
		return nil, notFound(err, "user")
	}
	return &user, nil
}

func (r *userRepository) GetAllUsers(ctx context.Context, orgID string) ([]models.User, error) {
	var users []models.User
	err := r.db.WithContext(ctx).
		Scopes(tenant("users", orgID), withRole).
		Order("surname ASC, name ASC").
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

func (r *userRepository) CreateUser(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Omit("Role").Create(user).Error; err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *userRepository) UpdateUser(ctx context.Context, orgID, userID string, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	res := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND organization_id = ? AND active = ?", userID, orgID, true).
		Updates(fields)
	return affected(res, "user")
}

func (r *userRepository) UpdateUserPassword(ctx context.Context, userID, hashedPassword string) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Update("password", hashedPassword)
	return affected(res, "user")
}

// UpdateLastLogin skips hooks so last_edit keeps tracking profile edits.
func (r *userRepository) UpdateLastLogin(ctx context.Context, userID string, at time.Time) error {
	err := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		UpdateColumn("last_login", at).Error
	if err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}
	return nil
}

func (r *userRepository) DeleteUser(ctx context.Context, orgID, userID string) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND organization_id = ? AND active = ?", userID, orgID, true).
		Update("active", false)
	return affected(res, "user")
}

func (r *userRepository) GetRoleByName(ctx context.Context, name string) (*models.Role, error) {
	var role models.Role
	err := r.db.WithContext(ctx).Preload("Permissions").First(&role, "name = ?", name).Error
	if err != nil {
		return nil, notFound(err, "role")
	}
	return &role, nil
}

func (r *userRepository) GetRoles(ctx context.Context) ([]models.Role, error) {
	var roles []models.Role
	if err := r.db.WithContext(ctx).Preload("Permissions").Order("id ASC").Find(&roles).Error; err != nil {
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}
	return roles, nil
}
