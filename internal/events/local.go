package events

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"
)

// LocalBus is an in-process bus. Publish runs every matching handler synchronously, one
// handler per queue group, which keeps single-binary deployments and tests deterministic.
type LocalBus struct {
	mu      sync.RWMutex
	nextID  int
	subs    map[string]map[int]localSub
	log     *zap.Logger
	timeout time.Duration
}

type localSub struct {
	queue string
	h     Handler
}

// NewLocalBus creates an empty in-process bus
func NewLocalBus(handlerTimeout time.Duration, log *zap.Logger) *LocalBus {
	return &LocalBus{
		subs:    make(map[string]map[int]localSub),
		log:     log,
		timeout: handlerTimeout,
	}
}

// Publish encodes event and hands it to the subscribers of subject
func (b *LocalBus) Publish(ctx context.Context, subject string, event any) error {
	data, err := Encode(event)
	if err != nil {
		return fmt.Errorf("marshalling %s event: %w", subject, err)
	}

	b.mu.RLock()
	var targets []Handler
	seenQueues := make(map[string]bool)
	for _, id := range b.sortedIDs(subject) {
		s := b.subs[subject][id]
		if s.queue != "" {
			if seenQueues[s.queue] {
				continue
			}
			seenQueues[s.queue] = true
		}
		targets = append(targets, s.h)
	}
	b.mu.RUnlock()

	for _, h := range targets {
		hctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), b.timeout)
		if err := h(hctx, data); err != nil {
			b.log.Error("Event handler failed", zap.String("subject", subject), zap.Error(err))
		}
		cancel()
	}
	return nil
}

// Subscribe registers h for subject
func (b *LocalBus) Subscribe(subject, queue string, h Handler) (func() error, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.subs[subject] == nil {
		b.subs[subject] = make(map[int]localSub)
	}
	id := b.nextID
	b.nextID++
	b.subs[subject][id] = localSub{queue: queue, h: h}

	return func() error {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs[subject], id)
		return nil
	}, nil
}

// Close drops every subscription
func (b *LocalBus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = make(map[string]map[int]localSub)
}

// sortedIDs returns subscription ids of subject in registration order. Caller holds mu.
func (b *LocalBus) sortedIDs(subject string) []int {
	ids := make([]int, 0, len(b.subs[subject]))
	for id := range b.subs[subject] {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
