package repositories

import (
	"context"
	"sync"
	"time"

	"github.com/anonto42/nano-social/backend/internal/models"
)

// MemoryFollowRepository keeps follow edges in process memory, in insertion order
type MemoryFollowRepository struct {
	mu    sync.RWMutex
	edges []models.Subscription
}

func NewMemoryFollowRepository() *MemoryFollowRepository {
	return &MemoryFollowRepository{}
}

func (r *MemoryFollowRepository) CreateFollow(_ context.Context, followerID, followedID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.indexOf(followerID, followedID) >= 0 {
		return false, nil
	}
	r.edges = append(r.edges, models.Subscription{
		ID:         models.SubscriptionID(followerID, followedID),
		FollowerID: followerID,
		FollowedID: followedID,
		CreatedAt:  time.Now().UTC(),
	})
	return true, nil
}

func (r *MemoryFollowRepository) DeleteFollow(_ context.Context, followerID, followedID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.indexOf(followerID, followedID)
	if i < 0 {
		return 0, nil
	}
	r.edges = append(r.edges[:i], r.edges[i+1:]...)
	return 1, nil
}

func (r *MemoryFollowRepository) IsFollowing(_ context.Context, followerID, followedID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.indexOf(followerID, followedID) >= 0, nil
}

func (r *MemoryFollowRepository) GetFollowerIDs(_ context.Context, userID string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := []string{}
	for _, e := range r.edges {
		if e.FollowedID == userID {
			ids = append(ids, e.FollowerID)
		}
	}
	return ids, nil
}

func (r *MemoryFollowRepository) GetFollowingIDs(_ context.Context, userID string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := []string{}
	for _, e := range r.edges {
		if e.FollowerID == userID {
			ids = append(ids, e.FollowedID)
		}
	}
	return ids, nil
}

func (r *MemoryFollowRepository) indexOf(followerID, followedID string) int {
	for i, e := range r.edges {
		if e.FollowerID == followerID && e.FollowedID == followedID {
			return i
		}
	}
	return -1
}
