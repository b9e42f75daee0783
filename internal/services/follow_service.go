package services

import (
	"context"

	"github.com/anonto42/nano-social/backend/internal/apperror"
	"github.com/anonto42/nano-social/backend/internal/metrics"
	"github.com/anonto42/nano-social/backend/internal/models"
	"github.com/anonto42/nano-social/backend/internal/repositories"
	"go.uber.org/zap"
)

// FollowService maintains the follow graph
type FollowService struct {
	follows       repositories.FollowRepository
	profiles      repositories.ProfileRepository
	users         repositories.UserRepository
	notifications *NotificationService
	metrics       *metrics.Metrics
	log           *zap.Logger
}

func NewFollowService(store *repositories.Store, notifications *NotificationService, m *metrics.Metrics, log *zap.Logger) *FollowService {
	return &FollowService{
		follows:       store.Follows,
		profiles:      store.Profiles,
		users:         store.Users,
		notifications: notifications,
		metrics:       m,
		log:           log,
	}
}

// Follow records followerID -> followedID. Following yourself is a no-op. It reports whether
// a new edge was created; only a new edge notifies the followed user.
func (s *FollowService) Follow(ctx context.Context, followerID, followedID string) (bool, error) {
	if followerID == followedID {
		return false, nil
	}
	if followerID == "" || followedID == "" {
		return false, apperror.Validation("both users are required")
	}

	for _, uid := range []string{followerID, followedID} {
		if _, err := s.profiles.EnsureProfile(ctx, uid); err != nil {
			return false, err
		}
	}

	created, err := s.follows.CreateFollow(ctx, followerID, followedID)
	if err != nil || !created {
		return false, err
	}
	s.metrics.FollowChanged("follow")

	name := s.displayName(ctx, followerID)
	_, err = s.notifications.NotifyUser(ctx, followedID, followerID, Notice{
		Type:  models.NotificationNewFollower,
		Title: "Nuevo seguidor",
		Body:  name + " comenzó a seguirte",
		Data:  map[string]any{"followerId": followerID, "followerName": name},
	})
	if err != nil {
		s.log.Warn("Failed to notify followed user",
			zap.String("follower", followerID),
			zap.String("followed", followedID),
			zap.Error(err),
		)
	}
	return true, nil
}

// Unfollow removes every edge followerID -> followedID and returns how many were removed
func (s *FollowService) Unfollow(ctx context.Context, followerID, followedID string) (int, error) {
	removed, err := s.follows.DeleteFollow(ctx, followerID, followedID)
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		s.metrics.FollowChanged("unfollow")
	}
	return removed, nil
}

func (s *FollowService) IsFollowing(ctx context.Context, followerID, followedID string) (bool, error) {
	return s.follows.IsFollowing(ctx, followerID, followedID)
}

// GetFollowers returns the IDs of the users following userID
func (s *FollowService) GetFollowers(ctx context.Context, userID string) ([]string, error) {
	return s.follows.GetFollowerIDs(ctx, userID)
}

// GetFollowing returns the IDs of the users userID follows
func (s *FollowService) GetFollowing(ctx context.Context, userID string) ([]string, error) {
	return s.follows.GetFollowingIDs(ctx, userID)
}

// displayName falls back from display name to email to the raw ID
func (s *FollowService) displayName(ctx context.Context, uid string) string {
	user, err := s.users.GetUser(ctx, uid)
	if err != nil {
		return uid
	}
	if user.DisplayName != "" {
		return user.DisplayName
	}
	if user.Email != "" {
		return user.Email
	}
	return uid
}
