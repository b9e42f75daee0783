package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/anonto42/nano-social/backend/internal/apperror"
	"github.com/anonto42/nano-social/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProfileRepository defines the interface for notification profile operations
type ProfileRepository interface {
	// EnsureProfile returns the profile of uid, creating an enabled one with no tokens when absent
	EnsureProfile(ctx context.Context, uid string) (*models.NotificationProfile, error)
	GetProfile(ctx context.Context, uid string) (*models.NotificationProfile, error)
	AddToken(ctx context.Context, uid, token string) error
	RemoveTokens(ctx context.Context, uid string, tokens []string) error
	SetEnabled(ctx context.Context, uid string, enabled bool) error
}

// PostgresProfileRepository implements ProfileRepository for PostgreSQL
type PostgresProfileRepository struct {
	db *gorm.DB
}

// NewPostgresProfileRepository stores profiles in notification_profiles and their tokens in
// device_tokens, one row per token.
func NewPostgresProfileRepository(db *gorm.DB) *PostgresProfileRepository {
	return &PostgresProfileRepository{db: db}
}

func (r *PostgresProfileRepository) EnsureProfile(ctx context.Context, uid string) (*models.NotificationProfile, error) {
	now := time.Now().UTC()
	profile := models.NotificationProfile{
		UID:                    uid,
		IsNotificationsEnabled: true,
		CreatedAt:              now,
		UpdatedAt:              now,
	}
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&profile).Error; err != nil {
		return nil, apperror.Store(err, "ensure notification profile")
	}
	return r.GetProfile(ctx, uid)
}

func (r *PostgresProfileRepository) GetProfile(ctx context.Context, uid string) (*models.NotificationProfile, error) {
	var profile models.NotificationProfile
	err := r.db.WithContext(ctx).Where("uid = ?", uid).First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.NotFound("notification profile")
	}
	if err != nil {
		return nil, apperror.Store(err, "get notification profile")
	}

	profile.NotificationTokens = []string{}
	err = r.db.WithContext(ctx).Model(&models.DeviceToken{}).
		Where("uid = ?", uid).
		Order("created_at").
		Pluck("token", &profile.NotificationTokens).Error
	if err != nil {
		return nil, apperror.Store(err, "list device tokens")
	}
	return &profile, nil
}

// AddToken saves the token for uid. A token already registered to another user moves to uid.
func (r *PostgresProfileRepository) AddToken(ctx context.Context, uid, token string) error {
	if _, err := r.EnsureProfile(ctx, uid); err != nil {
		return err
	}

	now := time.Now().UTC()
	deviceToken := &models.DeviceToken{
		Token:     token,
		UID:       uid,
		CreatedAt: now,
		UpdatedAt: now,
	}
	// Atomic upsert: INSERT ... ON CONFLICT (token) DO UPDATE
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "token"}},
		DoUpdates: clause.AssignmentColumns([]string{"uid", "updated_at"}),
	}).Create(deviceToken).Error
	if err != nil {
		return apperror.Store(err, "save device token")
	}
	return r.touch(ctx, uid, nil)
}

func (r *PostgresProfileRepository) RemoveTokens(ctx context.Context, uid string, tokens []string) error {
	if len(tokens) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).
		Where("uid = ? AND token IN ?", uid, tokens).
		Delete(&models.DeviceToken{}).Error
	if err != nil {
		return apperror.Store(err, "delete device tokens")
	}
	return r.touch(ctx, uid, nil)
}

func (r *PostgresProfileRepository) SetEnabled(ctx context.Context, uid string, enabled bool) error {
	if _, err := r.EnsureProfile(ctx, uid); err != nil {
		return err
	}
	return r.touch(ctx, uid, map[string]any{"is_notifications_enabled": enabled})
}

func (r *PostgresProfileRepository) touch(ctx context.Context, uid string, fields map[string]any) error {
	if fields == nil {
		fields = map[string]any{}
	}
	fields["updated_at"] = time.Now().UTC()
	err := r.db.WithContext(ctx).Model(&models.NotificationProfile{}).Where("uid = ?", uid).Updates(fields).Error
	if err != nil {
		return apperror.Store(err, "update notification profile")
	}
	return nil
}
