package triggers

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/anonto42/nano-social/backend/internal/events"
	"github.com/anonto42/nano-social/backend/internal/models"
	"github.com/anonto42/nano-social/backend/internal/services"
	"go.uber.org/zap"
)

// AnonymousReactor stands in for a reactor whose email cannot be resolved
const AnonymousReactor = "Usuario anónimo"

// ReactionTrigger tells a post's author about every new like or dislike by someone else
type ReactionTrigger struct {
	notifications *services.NotificationService
	emails        EmailResolver
	log           *zap.Logger
}

func NewReactionTrigger(notifications *services.NotificationService, emails EmailResolver, log *zap.Logger) *ReactionTrigger {
	return &ReactionTrigger{notifications: notifications, emails: emails, log: log}
}

func (t *ReactionTrigger) Name() string    { return "reaction" }
func (t *ReactionTrigger) Subject() string { return events.SubjectPostUpdated }
func (t *ReactionTrigger) Queue() string   { return ReactionQueue }

func (t *ReactionTrigger) Handle(ctx context.Context, data []byte) error {
	var ev events.PostUpdated
	if err := events.Decode(data, &ev); err != nil {
		return fmt.Errorf("decode %s: %w", events.SubjectPostUpdated, err)
	}
	return t.OnPostUpdated(ctx, ev)
}

// OnPostUpdated diffs the reaction sets. Removals notify nobody, and neither do the
// author's own reactions.
func (t *ReactionTrigger) OnPostUpdated(ctx context.Context, ev events.PostUpdated) error {
	if ev.AuthorUID == "" {
		return nil
	}

	var errs []error
	notify := func(reactors []string, kind models.ReactionKind) {
		for _, uid := range reactors {
			if uid == ev.AuthorUID {
				continue
			}
			if err := t.notify(ctx, ev, uid, kind); err != nil {
				errs = append(errs, err)
			}
		}
	}
	notify(added(ev.Before.Likes, ev.After.Likes), models.ReactionLike)
	notify(added(ev.Before.Dislikes, ev.After.Dislikes), models.ReactionDislike)
	return errors.Join(errs...)
}

func (t *ReactionTrigger) notify(ctx context.Context, ev events.PostUpdated, reactorID string, kind models.ReactionKind) error {
	email := t.reactorEmail(ctx, reactorID)

	verb := "le gustó"
	notificationType := models.NotificationLike
	if kind == models.ReactionDislike {
		verb = "no le gustó"
		notificationType = models.NotificationDislike
	}

	_, err := t.notifications.NotifyUser(ctx, ev.AuthorUID, reactorID, services.Notice{
		Type:  notificationType,
		Title: "Reacción a tu post",
		Body:  fmt.Sprintf(`%s %s tu post: "%s"`, email, verb, ev.Title),
		Data: map[string]any{
			"postId":        ev.PostID,
			"reactorUserId": reactorID,
			"reactorEmail":  email,
			"reactionType":  string(kind),
			"postTitle":     ev.Title,
		},
	})
	if err != nil {
		return fmt.Errorf("notify %s of %s by %s: %w", ev.AuthorUID, kind, reactorID, err)
	}
	t.log.Info("Reaction notification created",
		zap.String("post", ev.PostID),
		zap.String("reactor", reactorID),
		zap.String("type", string(kind)),
	)
	return nil
}

func (t *ReactionTrigger) reactorEmail(ctx context.Context, uid string) string {
	if t.emails == nil {
		return AnonymousReactor
	}
	email, err := t.emails.EmailOf(ctx, uid)
	if err != nil {
		t.log.Warn("Failed to resolve reactor email", zap.String("uid", uid), zap.Error(err))
		return AnonymousReactor
	}
	if email == "" {
		return AnonymousReactor
	}
	return email
}

// added returns the members of after that are not in before, in after's order
func added(before, after []string) []string {
	var out []string
	for _, id := range after {
		if !slices.Contains(before, id) {
			out = append(out, id)
		}
	}
	return out
}
