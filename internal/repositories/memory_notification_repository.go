package repositories

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/anonto42/nano-social/backend/internal/apperror"
	"github.com/anonto42/nano-social/backend/internal/models"
	"github.com/google/uuid"
)

// MemoryNotificationRepository keeps notification messages in process memory
type MemoryNotificationRepository struct {
	mu       sync.RWMutex
	messages []*models.NotificationMessage
}

func NewMemoryNotificationRepository() *MemoryNotificationRepository {
	return &MemoryNotificationRepository{}
}

func (r *MemoryNotificationRepository) CreateNotification(_ context.Context, n *models.NotificationMessage) error {
	n.ID = uuid.NewString()
	n.CreatedAt = time.Now().UTC()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, cloneNotification(n))
	return nil
}

func (r *MemoryNotificationRepository) GetByID(_ context.Context, id string) (*models.NotificationMessage, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, n := range r.messages {
		if n.ID == id {
			return cloneNotification(n), nil
		}
	}
	return nil, apperror.NotFound("notification")
}

// GetByRecipientID walks the log backwards, which is newest first
func (r *MemoryNotificationRepository) GetByRecipientID(_ context.Context, recipientID string, limit int) ([]models.NotificationMessage, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	found := []models.NotificationMessage{}
	for i := len(r.messages) - 1; i >= 0; i-- {
		if limit > 0 && len(found) == limit {
			break
		}
		if r.messages[i].RecipientID == recipientID {
			found = append(found, *cloneNotification(r.messages[i]))
		}
	}
	return found, nil
}

func (r *MemoryNotificationRepository) GetUnreadCount(_ context.Context, recipientID string) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var count int64
	for _, n := range r.messages {
		if n.RecipientID == recipientID && !n.Read {
			count++
		}
	}
	return count, nil
}

func (r *MemoryNotificationRepository) MarkAsRead(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range r.messages {
		if n.ID == id {
			n.Read = true
			return nil
		}
	}
	return apperror.NotFound("notification")
}

func (r *MemoryNotificationRepository) MarkAllAsRead(_ context.Context, recipientID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var marked int64
	for _, n := range r.messages {
		if n.RecipientID == recipientID && !n.Read {
			n.Read = true
			marked++
		}
	}
	return marked, nil
}

// All returns every stored message in creation order
func (r *MemoryNotificationRepository) All() []models.NotificationMessage {
	r.mu.RLock()
	defer r.mu.RUnlock()
	all := make([]models.NotificationMessage, 0, len(r.messages))
	for _, n := range r.messages {
		all = append(all, *cloneNotification(n))
	}
	return all
}

func cloneNotification(n *models.NotificationMessage) *models.NotificationMessage {
	c := *n
	if n.Data != nil {
		c.Data = maps.Clone(n.Data)
	}
	return &c
}
