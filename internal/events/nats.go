package events

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// NatsBus publishes and consumes events over NATS core subjects
type NatsBus struct {
	nc      *nats.Conn
	log     *zap.Logger
	timeout time.Duration
}

// ConnectNats dials url and returns a bus whose handlers run with the given timeout
func ConnectNats(url string, handlerTimeout time.Duration, log *zap.Logger) (*NatsBus, error) {
	nc, err := nats.Connect(url,
		nats.Name("nano-social"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn("NATS disconnected", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("NATS reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	log.Info("Connected to NATS", zap.String("url", url))
	return &NatsBus{nc: nc, log: log, timeout: handlerTimeout}, nil
}

// Publish encodes event as JSON and publishes it on subject
func (b *NatsBus) Publish(_ context.Context, subject string, event any) error {
	data, err := Encode(event)
	if err != nil {
		return fmt.Errorf("marshalling %s event: %w", subject, err)
	}
	return b.nc.Publish(subject, data)
}

// Subscribe joins queue (when non-empty) so only one consumer in the group receives each
// event. Handler errors are logged, never redelivered.
func (b *NatsBus) Subscribe(subject, queue string, h Handler) (func() error, error) {
	cb := func(msg *nats.Msg) {
		ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
		defer cancel()
		if err := h(ctx, msg.Data); err != nil {
			b.log.Error("Event handler failed", zap.String("subject", msg.Subject), zap.Error(err))
		}
	}

	var (
		sub *nats.Subscription
		err error
	)
	if queue != "" {
		sub, err = b.nc.QueueSubscribe(subject, queue, cb)
	} else {
		sub, err = b.nc.Subscribe(subject, cb)
	}
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", subject, err)
	}
	return sub.Unsubscribe, nil
}

// Close drains pending messages and closes the connection
func (b *NatsBus) Close() {
	if err := b.nc.Drain(); err != nil {
		b.log.Warn("NATS drain failed", zap.Error(err))
	}
}
