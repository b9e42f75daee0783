package services

import (
	"context"

	"github.com/anonto42/nano-social/backend/internal/events"
	"go.uber.org/zap"
)

// Page sizes for list operations
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

func pageSize(limit int) int {
	if limit <= 0 {
		return DefaultPageSize
	}
	if limit > MaxPageSize {
		return MaxPageSize
	}
	return limit
}

// publish sends an event after a durable write. The write already succeeded, so a transport
// failure is logged and not returned.
func publish(ctx context.Context, p events.Publisher, log *zap.Logger, subject string, event any) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, subject, event); err != nil {
		log.Warn("Failed to publish event", zap.String("subject", subject), zap.Error(err))
	}
}
