package triggers

import (
	"context"
	"fmt"

	"github.com/anonto42/nano-social/backend/internal/events"
	"github.com/anonto42/nano-social/backend/internal/metrics"
	"github.com/anonto42/nano-social/backend/internal/services"
	"github.com/anonto42/nano-social/backend/pkg/fcm"
	"go.uber.org/zap"
)

// PushSender delivers push notifications to device tokens
type PushSender interface {
	SendToDevices(ctx context.Context, tokens []string, notification fcm.NotificationData) (*fcm.Result, error)
}

// PushDispatcher forwards every written notification to the recipient's devices
type PushDispatcher struct {
	notifications *services.NotificationService
	sender        PushSender
	metrics       *metrics.Metrics
	log           *zap.Logger
}

func NewPushDispatcher(notifications *services.NotificationService, sender PushSender, m *metrics.Metrics, log *zap.Logger) *PushDispatcher {
	return &PushDispatcher{notifications: notifications, sender: sender, metrics: m, log: log}
}

func (d *PushDispatcher) Name() string    { return "push" }
func (d *PushDispatcher) Subject() string { return events.SubjectNotificationCreated }
func (d *PushDispatcher) Queue() string   { return PushQueue }

func (d *PushDispatcher) Handle(ctx context.Context, data []byte) error {
	var ev events.NotificationCreated
	if err := events.Decode(data, &ev); err != nil {
		return fmt.Errorf("decode %s: %w", events.SubjectNotificationCreated, err)
	}
	return d.OnNotificationCreated(ctx, ev)
}

// OnNotificationCreated sends the notification when the recipient has push enabled and at
// least one token. Tokens reported as unregistered are removed from the profile.
func (d *PushDispatcher) OnNotificationCreated(ctx context.Context, ev events.NotificationCreated) error {
	tokens, err := d.notifications.PushTargets(ctx, ev.RecipientID)
	if err != nil {
		return fmt.Errorf("load push targets of %s: %w", ev.RecipientID, err)
	}
	if len(tokens) == 0 {
		return nil
	}

	payload := fcm.StringData(ev.Data)
	if payload == nil {
		payload = map[string]string{}
	}
	payload["type"] = string(ev.Type)
	payload["notificationId"] = ev.NotificationID

	res, err := d.sender.SendToDevices(ctx, tokens, fcm.NotificationData{
		Title: ev.Title,
		Body:  ev.Body,
		Data:  payload,
	})
	if err != nil {
		d.metrics.PushDelivered("error", len(tokens))
		return fmt.Errorf("push to %s: %w", ev.RecipientID, err)
	}
	d.metrics.PushDelivered("sent", res.SuccessCount)
	d.metrics.PushDelivered("failed", len(res.Failed))

	if len(res.Unregistered) > 0 {
		if err := d.notifications.RemoveTokens(ctx, ev.RecipientID, res.Unregistered); err != nil {
			return fmt.Errorf("prune tokens of %s: %w", ev.RecipientID, err)
		}
		d.log.Info("Pruned unregistered push tokens",
			zap.String("uid", ev.RecipientID),
			zap.Int("count", len(res.Unregistered)),
		)
	}
	return nil
}
