package repositories

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/anonto42/nano-social/backend/internal/apperror"
	"github.com/anonto42/nano-social/backend/internal/models"
)

// MemoryProfileRepository keeps notification profiles in process memory
type MemoryProfileRepository struct {
	mu       sync.Mutex
	profiles map[string]*models.NotificationProfile
}

func NewMemoryProfileRepository() *MemoryProfileRepository {
	return &MemoryProfileRepository{profiles: map[string]*models.NotificationProfile{}}
}

func (r *MemoryProfileRepository) EnsureProfile(_ context.Context, uid string) (*models.NotificationProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return cloneProfile(r.ensure(uid)), nil
}

func (r *MemoryProfileRepository) GetProfile(_ context.Context, uid string) (*models.NotificationProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[uid]
	if !ok {
		return nil, apperror.NotFound("notification profile")
	}
	return cloneProfile(p), nil
}

func (r *MemoryProfileRepository) AddToken(_ context.Context, uid, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p := r.ensure(uid)
	if !slices.Contains(p.NotificationTokens, token) {
		p.NotificationTokens = append(p.NotificationTokens, token)
	}
	p.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *MemoryProfileRepository) RemoveTokens(_ context.Context, uid string, tokens []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[uid]
	if !ok {
		return apperror.NotFound("notification profile")
	}
	p.NotificationTokens = slices.DeleteFunc(p.NotificationTokens, func(t string) bool {
		return slices.Contains(tokens, t)
	})
	p.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *MemoryProfileRepository) SetEnabled(_ context.Context, uid string, enabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p := r.ensure(uid)
	p.IsNotificationsEnabled = enabled
	p.UpdatedAt = time.Now().UTC()
	return nil
}

// ensure must be called with mu held
func (r *MemoryProfileRepository) ensure(uid string) *models.NotificationProfile {
	p, ok := r.profiles[uid]
	if !ok {
		now := time.Now().UTC()
		p = &models.NotificationProfile{
			UID:                    uid,
			NotificationTokens:     []string{},
			IsNotificationsEnabled: true,
			CreatedAt:              now,
			UpdatedAt:              now,
		}
		r.profiles[uid] = p
	}
	return p
}

func cloneProfile(p *models.NotificationProfile) *models.NotificationProfile {
	c := *p
	c.NotificationTokens = slices.Clone(p.NotificationTokens)
	return &c
}
