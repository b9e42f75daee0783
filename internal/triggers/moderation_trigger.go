package triggers

import (
	"context"
	"fmt"
	"time"

	"github.com/anonto42/nano-social/backend/internal/events"
	"github.com/anonto42/nano-social/backend/internal/metrics"
	"github.com/anonto42/nano-social/backend/internal/models"
	"github.com/anonto42/nano-social/backend/internal/moderation"
	"github.com/anonto42/nano-social/backend/internal/repositories"
	"github.com/anonto42/nano-social/backend/internal/services"
	"go.uber.org/zap"
)

// ModerationTrigger filters every new post once and rewrites it when the filter matched
type ModerationTrigger struct {
	posts         repositories.PostRepository
	notifications *services.NotificationService
	filter        *moderation.Filter
	metrics       *metrics.Metrics
	log           *zap.Logger
	now           func() time.Time
}

func NewModerationTrigger(posts repositories.PostRepository, notifications *services.NotificationService, filter *moderation.Filter, m *metrics.Metrics, log *zap.Logger) *ModerationTrigger {
	if filter == nil {
		filter = moderation.Default()
	}
	return &ModerationTrigger{
		posts:         posts,
		notifications: notifications,
		filter:        filter,
		metrics:       m,
		log:           log,
		now:           time.Now,
	}
}

func (t *ModerationTrigger) Name() string    { return "moderation" }
func (t *ModerationTrigger) Subject() string { return events.SubjectPostCreated }
func (t *ModerationTrigger) Queue() string   { return ModerationQueue }

func (t *ModerationTrigger) Handle(ctx context.Context, data []byte) error {
	var ev events.PostCreated
	if err := events.Decode(data, &ev); err != nil {
		return fmt.Errorf("decode %s: %w", events.SubjectPostCreated, err)
	}
	return t.OnPostCreated(ctx, ev)
}

// OnPostCreated rewrites the post and tells its author when the filter matched
func (t *ModerationTrigger) OnPostCreated(ctx context.Context, ev events.PostCreated) error {
	res := t.filter.ModeratePost(ev.Title, ev.Content)
	if !res.Modified() {
		return nil
	}

	if err := t.posts.ApplyModeration(ctx, ev.PostID, res.Title.Text, res.Content.Text, t.now().UTC()); err != nil {
		return fmt.Errorf("moderate post %s: %w", ev.PostID, err)
	}
	t.metrics.PostModerated()
	t.log.Info("Post moderated", zap.String("post", ev.PostID), zap.String("author", ev.AuthorUID))

	_, err := t.notifications.NotifyUser(ctx, ev.AuthorUID, models.SystemSenderID, services.Notice{
		Type:  models.NotificationContentModerated,
		Title: "Contenido moderado",
		Body:  "Tu post ha sido moderado automáticamente debido a contenido inapropiado.",
		Data: map[string]any{
			"postId":    ev.PostID,
			"postTitle": ev.Title,
		},
	})
	if err != nil {
		return fmt.Errorf("notify author of moderated post %s: %w", ev.PostID, err)
	}
	return nil
}
