package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/anonto42/nano-social/backend/internal/apperror"
	"github.com/anonto42/nano-social/backend/internal/models"
	"gorm.io/gorm"
)

// UserRepository defines the interface for user profile operations
type UserRepository interface {
	// UpsertIdentity creates the profile of uid or refreshes its email and display name,
	// keeping CreatedAt and the editable details.
	UpsertIdentity(ctx context.Context, uid, email, displayName string) (*models.UserProfile, error)
	GetUser(ctx context.Context, uid string) (*models.UserProfile, error)
	UpdateDetails(ctx context.Context, uid, address, birthDate string, age *int) (*models.UserProfile, error)
}

// PostgresUserRepository implements UserRepository for PostgreSQL
type PostgresUserRepository struct {
	db *gorm.DB
}

// NewPostgresUserRepository creates a new PostgresUserRepository
func NewPostgresUserRepository(db *gorm.DB) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

// UpsertIdentity runs in a transaction so two first logins cannot both insert
func (r *PostgresUserRepository) UpsertIdentity(ctx context.Context, uid, email, displayName string) (*models.UserProfile, error) {
	var user models.UserProfile
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()
		err := tx.Where("uid = ?", uid).First(&user).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			user = models.UserProfile{
				UID:         uid,
				Email:       email,
				DisplayName: displayName,
				CreatedAt:   now,
				UpdatedAt:   now,
			}
			return tx.Create(&user).Error
		}
		if err != nil {
			return err
		}

		user.Email = email
		user.DisplayName = displayName
		user.UpdatedAt = now
		return tx.Model(&user).Updates(map[string]any{
			"email":        email,
			"display_name": displayName,
			"updated_at":   now,
		}).Error
	})
	if err != nil {
		return nil, apperror.Store(err, "save user")
	}
	return &user, nil
}

// GetUser retrieves a user profile by Firebase UID from PostgreSQL
func (r *PostgresUserRepository) GetUser(ctx context.Context, uid string) (*models.UserProfile, error) {
	var user models.UserProfile
	err := r.db.WithContext(ctx).Where("uid = ?", uid).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.NotFound("user")
	}
	if err != nil {
		return nil, apperror.Store(err, "get user")
	}
	return &user, nil
}

// UpdateDetails sets the editable profile fields
func (r *PostgresUserRepository) UpdateDetails(ctx context.Context, uid, address, birthDate string, age *int) (*models.UserProfile, error) {
	res := r.db.WithContext(ctx).Model(&models.UserProfile{}).Where("uid = ?", uid).Updates(map[string]any{
		"address":    address,
		"birth_date": birthDate,
		"age":        age,
		"updated_at": time.Now().UTC(),
	})
	if res.Error != nil {
		return nil, apperror.Store(res.Error, "update user")
	}
	if res.RowsAffected == 0 {
		return nil, apperror.NotFound("user")
	}
	return r.GetUser(ctx, uid)
}
