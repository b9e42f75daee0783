package repositories

import (
	"context"
	"time"

	"github.com/anonto42/nano-social/backend/internal/apperror"
	"github.com/anonto42/nano-social/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FollowRepository defines the interface for follow graph operations. The edge collection is
// the only source of truth; both directions are answered from it.
type FollowRepository interface {
	// CreateFollow stores the edge and reports whether it was new
	CreateFollow(ctx context.Context, followerID, followedID string) (bool, error)
	// DeleteFollow removes every edge follower -> followed and returns how many were removed
	DeleteFollow(ctx context.Context, followerID, followedID string) (int, error)
	IsFollowing(ctx context.Context, followerID, followedID string) (bool, error)
	GetFollowerIDs(ctx context.Context, userID string) ([]string, error)
	GetFollowingIDs(ctx context.Context, userID string) ([]string, error)
}

// PostgresFollowRepository implements FollowRepository for PostgreSQL
type PostgresFollowRepository struct {
	db *gorm.DB
}

// NewPostgresFollowRepository creates a new PostgresFollowRepository
func NewPostgresFollowRepository(db *gorm.DB) *PostgresFollowRepository {
	return &PostgresFollowRepository{db: db}
}

func (r *PostgresFollowRepository) CreateFollow(ctx context.Context, followerID, followedID string) (bool, error) {
	sub := models.Subscription{
		FollowerID: followerID,
		FollowedID: followedID,
		CreatedAt:  time.Now().UTC(),
	}
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&sub)
	if res.Error != nil {
		return false, apperror.Store(res.Error, "create follow")
	}
	return res.RowsAffected > 0, nil
}

func (r *PostgresFollowRepository) DeleteFollow(ctx context.Context, followerID, followedID string) (int, error) {
	res := r.db.WithContext(ctx).
		Where("follower_id = ? AND followed_id = ?", followerID, followedID).
		Delete(&models.Subscription{})
	if res.Error != nil {
		return 0, apperror.Store(res.Error, "delete follow")
	}
	return int(res.RowsAffected), nil
}

func (r *PostgresFollowRepository) IsFollowing(ctx context.Context, followerID, followedID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Subscription{}).
		Where("follower_id = ? AND followed_id = ?", followerID, followedID).
		Count(&count).Error
	if err != nil {
		return false, apperror.Store(err, "check follow")
	}
	return count > 0, nil
}

func (r *PostgresFollowRepository) GetFollowerIDs(ctx context.Context, userID string) ([]string, error) {
	ids := []string{}
	err := r.db.WithContext(ctx).Model(&models.Subscription{}).
		Where("followed_id = ?", userID).
		Order("created_at").
		Pluck("follower_id", &ids).Error
	if err != nil {
		return nil, apperror.Store(err, "list followers")
	}
	return ids, nil
}

func (r *PostgresFollowRepository) GetFollowingIDs(ctx context.Context, userID string) ([]string, error) {
	ids := []string{}
	err := r.db.WithContext(ctx).Model(&models.Subscription{}).
		Where("follower_id = ?", userID).
		Order("created_at").
		Pluck("followed_id", &ids).Error
	if err != nil {
		return nil, apperror.Store(err, "list following")
	}
	return ids, nil
}
