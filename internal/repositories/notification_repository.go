package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/anonto42/nano-social/backend/internal/apperror"
	"github.com/anonto42/nano-social/backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NotificationRepository defines the interface for notification message operations
type NotificationRepository interface {
	// CreateNotification assigns ID and CreatedAt and stores the message
	CreateNotification(ctx context.Context, n *models.NotificationMessage) error
	GetByID(ctx context.Context, id string) (*models.NotificationMessage, error)
	// GetByRecipientID returns the newest messages first
	GetByRecipientID(ctx context.Context, recipientID string, limit int) ([]models.NotificationMessage, error)
	GetUnreadCount(ctx context.Context, recipientID string) (int64, error)
	MarkAsRead(ctx context.Context, id string) error
	MarkAllAsRead(ctx context.Context, recipientID string) (int64, error)
}

// PostgresNotificationRepository implements NotificationRepository for PostgreSQL
type PostgresNotificationRepository struct {
	db *gorm.DB
}

// NewPostgresNotificationRepository creates a new PostgresNotificationRepository
func NewPostgresNotificationRepository(db *gorm.DB) *PostgresNotificationRepository {
	return &PostgresNotificationRepository{db: db}
}

func (r *PostgresNotificationRepository) CreateNotification(ctx context.Context, n *models.NotificationMessage) error {
	n.ID = uuid.NewString()
	n.CreatedAt = time.Now().UTC()
	if err := r.db.WithContext(ctx).Create(n).Error; err != nil {
		return apperror.Store(err, "create notification")
	}
	return nil
}

func (r *PostgresNotificationRepository) GetByID(ctx context.Context, id string) (*models.NotificationMessage, error) {
	var n models.NotificationMessage
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&n).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.NotFound("notification")
	}
	if err != nil {
		return nil, apperror.Store(err, "get notification")
	}
	return &n, nil
}

func (r *PostgresNotificationRepository) GetByRecipientID(ctx context.Context, recipientID string, limit int) ([]models.NotificationMessage, error) {
	notifications := []models.NotificationMessage{}
	err := r.db.WithContext(ctx).Where("recipient_id = ?", recipientID).
		Order("created_at DESC").
		Limit(limit).
		Find(&notifications).Error
	if err != nil {
		return nil, apperror.Store(err, "list notifications")
	}
	return notifications, nil
}

func (r *PostgresNotificationRepository) GetUnreadCount(ctx context.Context, recipientID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.NotificationMessage{}).
		Where("recipient_id = ? AND read = ?", recipientID, false).
		Count(&count).Error
	if err != nil {
		return 0, apperror.Store(err, "count unread notifications")
	}
	return count, nil
}

func (r *PostgresNotificationRepository) MarkAsRead(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Model(&models.NotificationMessage{}).Where("id = ?", id).Update("read", true)
	if res.Error != nil {
		return apperror.Store(res.Error, "mark notification read")
	}
	if res.RowsAffected == 0 {
		return apperror.NotFound("notification")
	}
	return nil
}

func (r *PostgresNotificationRepository) MarkAllAsRead(ctx context.Context, recipientID string) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.NotificationMessage{}).
		Where("recipient_id = ? AND read = ?", recipientID, false).
		Update("read", true)
	if res.Error != nil {
		return 0, apperror.Store(res.Error, "mark all notifications read")
	}
	return res.RowsAffected, nil
}
