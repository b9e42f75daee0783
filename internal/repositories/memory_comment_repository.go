package repositories

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/anonto42/nano-social/backend/internal/apperror"
	"github.com/anonto42/nano-social/backend/internal/models"
	"github.com/google/uuid"
)

// MemoryCommentRepository keeps comments in insertion order
type MemoryCommentRepository struct {
	mu       sync.RWMutex
	comments []models.Comment
}

func NewMemoryCommentRepository() *MemoryCommentRepository {
	return &MemoryCommentRepository{}
}

func (r *MemoryCommentRepository) CreateComment(_ context.Context, comment *models.Comment) error {
	comment.ID = uuid.NewString()
	comment.CreatedAt = time.Now().UTC()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.comments = append(r.comments, *comment)
	return nil
}

func (r *MemoryCommentRepository) GetCommentByID(_ context.Context, id string) (*models.Comment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.comments {
		if c.ID == id {
			return &c, nil
		}
	}
	return nil, apperror.NotFound("comment")
}

func (r *MemoryCommentRepository) GetCommentsByPostID(_ context.Context, postID string, limit int) ([]models.Comment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	found := []models.Comment{}
	for _, c := range r.comments {
		if limit > 0 && len(found) == limit {
			break
		}
		if c.PostID == postID {
			found = append(found, c)
		}
	}
	return found, nil
}

func (r *MemoryCommentRepository) DeleteComment(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := slices.IndexFunc(r.comments, func(c models.Comment) bool { return c.ID == id })
	if i < 0 {
		return apperror.NotFound("comment")
	}
	r.comments = slices.Delete(r.comments, i, i+1)
	return nil
}
