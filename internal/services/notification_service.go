package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anonto42/nano-social/backend/internal/apperror"
	"github.com/anonto42/nano-social/backend/internal/events"
	"github.com/anonto42/nano-social/backend/internal/metrics"
	"github.com/anonto42/nano-social/backend/internal/models"
	"github.com/anonto42/nano-social/backend/internal/repositories"
	"go.uber.org/zap"
)

// Notice is the content of a notification before it is addressed to a recipient
type Notice struct {
	Type  models.NotificationType
	Title string
	Body  string
	Data  map[string]any
}

// NotificationService writes in-app notifications and manages notification profiles
type NotificationService struct {
	notifications repositories.NotificationRepository
	profiles      repositories.ProfileRepository
	follows       repositories.FollowRepository
	publisher     events.Publisher
	metrics       *metrics.Metrics
	log           *zap.Logger
}

func NewNotificationService(store *repositories.Store, publisher events.Publisher, m *metrics.Metrics, log *zap.Logger) *NotificationService {
	return &NotificationService{
		notifications: store.Notifications,
		profiles:      store.Profiles,
		follows:       store.Follows,
		publisher:     publisher,
		metrics:       m,
		log:           log,
	}
}

// NotifyFollowers writes one message per follower of authorID. Writes are independent and
// best effort: a failed write does not stop or undo the others. It returns how many were
// written and every failure joined.
func (s *NotificationService) NotifyFollowers(ctx context.Context, authorID string, n Notice) (int, error) {
	followers, err := s.follows.GetFollowerIDs(ctx, authorID)
	if err != nil {
		return 0, err
	}

	written := 0
	var errs []error
	for _, followerID := range followers {
		if err := s.write(ctx, followerID, authorID, n); err != nil {
			s.log.Warn("Failed to notify follower",
				zap.String("author", authorID),
				zap.String("follower", followerID),
				zap.String("type", string(n.Type)),
				zap.Error(err),
			)
			errs = append(errs, fmt.Errorf("notify %s: %w", followerID, err))
			continue
		}
		written++
	}

	s.log.Debug("Notified followers",
		zap.String("author", authorID),
		zap.String("type", string(n.Type)),
		zap.Int("followers", len(followers)),
		zap.Int("written", written),
	)
	return written, errors.Join(errs...)
}

// NotifyUser writes one message to recipientID. Nothing is written when the sender is the
// recipient; the bool reports whether a message was written.
func (s *NotificationService) NotifyUser(ctx context.Context, recipientID, senderID string, n Notice) (bool, error) {
	if recipientID == senderID {
		return false, nil
	}
	if recipientID == "" {
		return false, apperror.Validation("recipient is required")
	}
	if err := s.write(ctx, recipientID, senderID, n); err != nil {
		return false, err
	}
	return true, nil
}

func (s *NotificationService) write(ctx context.Context, recipientID, senderID string, n Notice) error {
	msg := &models.NotificationMessage{
		RecipientID: recipientID,
		SenderID:    senderID,
		Type:        n.Type,
		Title:       n.Title,
		Body:        n.Body,
		Data:        n.Data,
		Read:        false,
	}
	err := s.notifications.CreateNotification(ctx, msg)
	s.metrics.NotificationWritten(string(n.Type), err)
	if err != nil {
		return err
	}

	publish(ctx, s.publisher, s.log, events.SubjectNotificationCreated, events.NotificationCreated{
		NotificationID: msg.ID,
		RecipientID:    msg.RecipientID,
		SenderID:       msg.SenderID,
		Type:           msg.Type,
		Title:          msg.Title,
		Body:           msg.Body,
		Data:           msg.Data,
	})
	return nil
}

// RegisterToken adds a push token to the user's profile, creating the profile if needed
func (s *NotificationService) RegisterToken(ctx context.Context, userID, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return apperror.Validation("token is required")
	}
	return s.profiles.AddToken(ctx, userID, token)
}

// TokensFor returns the user's push tokens, empty when the user has no profile
func (s *NotificationService) TokensFor(ctx context.Context, userID string) ([]string, error) {
	profile, err := s.profiles.GetProfile(ctx, userID)
	if errors.Is(err, apperror.ErrNotFound) {
		return []string{}, nil
	}
	if err != nil {
		return nil, err
	}
	return profile.NotificationTokens, nil
}

// RemoveTokens drops tokens the push provider no longer accepts
func (s *NotificationService) RemoveTokens(ctx context.Context, userID string, tokens []string) error {
	return s.profiles.RemoveTokens(ctx, userID, tokens)
}

// Profile returns the user's notification profile, creating it if needed
func (s *NotificationService) Profile(ctx context.Context, userID string) (*models.NotificationProfile, error) {
	return s.profiles.EnsureProfile(ctx, userID)
}

// PushTargets returns the tokens push delivery should use, none when the user disabled
// notifications or has no profile.
func (s *NotificationService) PushTargets(ctx context.Context, userID string) ([]string, error) {
	profile, err := s.profiles.GetProfile(ctx, userID)
	if errors.Is(err, apperror.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !profile.IsNotificationsEnabled {
		return nil, nil
	}
	return profile.NotificationTokens, nil
}

// SetEnabled turns push delivery on or off, creating the profile if needed
func (s *NotificationService) SetEnabled(ctx context.Context, userID string, enabled bool) error {
	if _, err := s.profiles.EnsureProfile(ctx, userID); err != nil {
		return err
	}
	return s.profiles.SetEnabled(ctx, userID, enabled)
}

// List returns the user's notifications, newest first
func (s *NotificationService) List(ctx context.Context, userID string, limit int) ([]models.NotificationMessage, error) {
	return s.notifications.GetByRecipientID(ctx, userID, pageSize(limit))
}

func (s *NotificationService) UnreadCount(ctx context.Context, userID string) (int64, error) {
	return s.notifications.GetUnreadCount(ctx, userID)
}

// MarkAsRead marks one of the user's notifications read. Notifications of other users are
// reported as not found.
func (s *NotificationService) MarkAsRead(ctx context.Context, userID, notificationID string) error {
	n, err := s.notifications.GetByID(ctx, notificationID)
	if err != nil {
		return err
	}
	if n.RecipientID != userID {
		return apperror.NotFound("notification")
	}
	if n.Read {
		return nil
	}
	return s.notifications.MarkAsRead(ctx, notificationID)
}

func (s *NotificationService) MarkAllAsRead(ctx context.Context, userID string) (int64, error) {
	return s.notifications.MarkAllAsRead(ctx, userID)
}
