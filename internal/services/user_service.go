package services

import (
	"context"
	"strings"
	"time"

	"github.com/anonto42/nano-social/backend/internal/apperror"
	"github.com/anonto42/nano-social/backend/internal/models"
	"github.com/anonto42/nano-social/backend/internal/repositories"
	"go.uber.org/zap"
)

// UserService manages user profiles
type UserService struct {
	users repositories.UserRepository
	log   *zap.Logger
	now   func() time.Time
}

func NewUserService(users repositories.UserRepository, log *zap.Logger) *UserService {
	return &UserService{users: users, log: log, now: time.Now}
}

// SyncIdentity creates the profile on first sign-in and refreshes email and display name on
// later ones. An empty display name falls back to the local part of the email.
func (s *UserService) SyncIdentity(ctx context.Context, uid, email, displayName string) (*models.UserProfile, error) {
	if uid == "" {
		return nil, apperror.Unauthenticated("user is required")
	}
	if displayName == "" {
		displayName, _, _ = strings.Cut(email, "@")
	}
	return s.users.UpsertIdentity(ctx, uid, email, displayName)
}

func (s *UserService) Get(ctx context.Context, uid string) (*models.UserProfile, error) {
	return s.users.GetUser(ctx, uid)
}

// UpdateProfile sets address and birth date. Age is derived from the birth date now and
// stored; it is not refreshed later.
func (s *UserService) UpdateProfile(ctx context.Context, uid string, req models.UpdateProfileRequest) (*models.UserProfile, error) {
	var age *int
	if req.BirthDate != "" {
		years, err := models.AgeOn(req.BirthDate, s.now())
		if err != nil {
			return nil, apperror.Validation("birthDate must be formatted as YYYY-MM-DD")
		}
		if years < 0 {
			return nil, apperror.Validation("birthDate is in the future")
		}
		age = &years
	}
	return s.users.UpdateDetails(ctx, uid, strings.TrimSpace(req.Address), req.BirthDate, age)
}

// EmailOf returns the stored email of uid. It backs reaction notifications when Firebase Auth
// is not configured.
func (s *UserService) EmailOf(ctx context.Context, uid string) (string, error) {
	u, err := s.users.GetUser(ctx, uid)
	if err != nil {
		return "", err
	}
	return u.Email, nil
}
