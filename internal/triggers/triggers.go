package triggers

import (
	"context"
	"time"

	"github.com/anonto42/nano-social/backend/internal/events"
	"github.com/anonto42/nano-social/backend/internal/metrics"
	"github.com/anonto42/nano-social/backend/internal/moderation"
	"github.com/anonto42/nano-social/backend/internal/repositories"
	"github.com/anonto42/nano-social/backend/internal/services"
	"go.uber.org/zap"
)

// Queue groups, so several trigger processes share the work instead of duplicating it
const (
	ModerationQueue = "moderation"
	ReactionQueue   = "reaction-notifications"
	PushQueue       = "push-dispatch"
)

// EmailResolver looks up the email of a user
type EmailResolver interface {
	EmailOf(ctx context.Context, uid string) (string, error)
}

// Trigger is one event consumer
type Trigger interface {
	Name() string
	Subject() string
	Queue() string
	Handle(ctx context.Context, data []byte) error
}

// Register subscribes every trigger on sub and returns a func that removes them all.
// Handler errors are logged and counted; nothing is retried.
func Register(sub events.Subscriber, m *metrics.Metrics, log *zap.Logger, triggers ...Trigger) (func(), error) {
	var unsubscribers []func() error
	stop := func() {
		for _, unsubscribe := range unsubscribers {
			if err := unsubscribe(); err != nil {
				log.Warn("Failed to unsubscribe trigger", zap.Error(err))
			}
		}
	}

	for _, t := range triggers {
		t := t
		unsubscribe, err := sub.Subscribe(t.Subject(), t.Queue(), func(ctx context.Context, data []byte) error {
			start := time.Now()
			err := t.Handle(ctx, data)
			m.ObserveTrigger(t.Name(), start, err)
			if err != nil {
				log.Error("Trigger failed", zap.String("trigger", t.Name()), zap.Error(err))
			}
			return err
		})
		if err != nil {
			stop()
			return nil, err
		}
		unsubscribers = append(unsubscribers, unsubscribe)
		log.Info("Trigger registered",
			zap.String("trigger", t.Name()),
			zap.String("subject", t.Subject()),
			zap.String("queue", t.Queue()),
		)
	}
	return stop, nil
}

// Deps are the collaborators of the standard trigger set
type Deps struct {
	Posts         repositories.PostRepository
	Notifications *services.NotificationService
	Emails        EmailResolver
	// Sender is optional; without it push delivery is skipped
	Sender  PushSender
	Filter  *moderation.Filter
	Metrics *metrics.Metrics
	Log     *zap.Logger
}

// Standard returns moderation, reaction notifications and, when a sender is configured, push
// delivery.
func Standard(d Deps) []Trigger {
	out := []Trigger{
		NewModerationTrigger(d.Posts, d.Notifications, d.Filter, d.Metrics, d.Log),
		NewReactionTrigger(d.Notifications, d.Emails, d.Log),
	}
	if d.Sender != nil {
		out = append(out, NewPushDispatcher(d.Notifications, d.Sender, d.Metrics, d.Log))
	}
	return out
}
