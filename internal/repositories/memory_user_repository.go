package repositories

import (
	"context"
	"sync"
	"time"

	"github.com/anonto42/nano-social/backend/internal/apperror"
	"github.com/anonto42/nano-social/backend/internal/models"
)

// MemoryUserRepository keeps user profiles in process memory
type MemoryUserRepository struct {
	mu    sync.Mutex
	users map[string]*models.UserProfile
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{users: map[string]*models.UserProfile{}}
}

func (r *MemoryUserRepository) UpsertIdentity(_ context.Context, uid, email, displayName string) (*models.UserProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	u, ok := r.users[uid]
	if !ok {
		u = &models.UserProfile{UID: uid, CreatedAt: now}
		r.users[uid] = u
	}
	u.Email = email
	u.DisplayName = displayName
	u.UpdatedAt = now
	return cloneUser(u), nil
}

func (r *MemoryUserRepository) GetUser(_ context.Context, uid string) (*models.UserProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[uid]
	if !ok {
		return nil, apperror.NotFound("user")
	}
	return cloneUser(u), nil
}

func (r *MemoryUserRepository) UpdateDetails(_ context.Context, uid, address, birthDate string, age *int) (*models.UserProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[uid]
	if !ok {
		return nil, apperror.NotFound("user")
	}
	u.Address = address
	u.BirthDate = birthDate
	u.Age = nil
	if age != nil {
		a := *age
		u.Age = &a
	}
	u.UpdatedAt = time.Now().UTC()
	return cloneUser(u), nil
}

func cloneUser(u *models.UserProfile) *models.UserProfile {
	c := *u
	if u.Age != nil {
		a := *u.Age
		c.Age = &a
	}
	return &c
}
