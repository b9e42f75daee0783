package services

import (
	"context"
	"slices"

	"github.com/anonto42/nano-social/backend/internal/apperror"
	"github.com/anonto42/nano-social/backend/internal/events"
	"github.com/anonto42/nano-social/backend/internal/metrics"
	"github.com/anonto42/nano-social/backend/internal/models"
	"github.com/anonto42/nano-social/backend/internal/repositories"
	"go.uber.org/zap"
)

// ReactionService toggles likes and dislikes on posts
type ReactionService struct {
	posts     repositories.PostRepository
	publisher events.Publisher
	metrics   *metrics.Metrics
	log       *zap.Logger
}

func NewReactionService(posts repositories.PostRepository, publisher events.Publisher, m *metrics.Metrics, log *zap.Logger) *ReactionService {
	return &ReactionService{posts: posts, publisher: publisher, metrics: m, log: log}
}

// ToggleLike adds userID to the post's likes, or removes it if already there. Adding a like
// removes an existing dislike in the same update.
func (s *ReactionService) ToggleLike(ctx context.Context, postID, userID string) (*models.Post, error) {
	return s.toggle(ctx, postID, userID, models.ReactionLike)
}

// ToggleDislike mirrors ToggleLike
func (s *ReactionService) ToggleDislike(ctx context.Context, postID, userID string) (*models.Post, error) {
	return s.toggle(ctx, postID, userID, models.ReactionDislike)
}

func (s *ReactionService) toggle(ctx context.Context, postID, userID string, kind models.ReactionKind) (*models.Post, error) {
	if userID == "" {
		return nil, apperror.Unauthenticated("user is required")
	}
	if postID == "" {
		return nil, apperror.NotFound("post")
	}

	before, after, err := s.posts.ToggleReaction(ctx, postID, userID, kind)
	if err != nil {
		return nil, err
	}

	set := after.Likes
	if kind == models.ReactionDislike {
		set = after.Dislikes
	}
	s.metrics.ReactionToggled(string(kind), slices.Contains(set, userID))

	publish(ctx, s.publisher, s.log, events.SubjectPostUpdated, events.PostUpdated{
		PostID:    after.ID,
		AuthorUID: after.AuthorUID,
		Title:     after.Title,
		Before:    before.Snapshot(),
		After:     after.Snapshot(),
	})
	return after, nil
}
