package comm

import (
	"context"
	"sync"

	"github.com/matzehuels/vizgrid/pkg/errors"
	"github.com/matzehuels/vizgrid/pkg/observability"
)

// MemoryBus is an in-process Bus. Publish blocks until every current
// subscriber has buffer room or ctx is done.
type MemoryBus struct {
	mu     sync.RWMutex
	subs   map[string]map[*memorySub]struct{}
	closed bool
}

type memorySub struct {
	ch   chan Envelope
	done chan struct{}
}

// NewMemoryBus creates an empty in-process bus.
func NewMemoryBus() *MemoryBus {
	return &MemoryBus{subs: make(map[string]map[*memorySub]struct{})}
}

// Publish delivers env to every subscriber of channel.
func (b *MemoryBus) Publish(ctx context.Context, channel string, env Envelope) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return errors.New(errors.ErrCodeUnsupported, "bus is closed")
	}

	observability.Transport().OnPublish(ctx, channel, 0)
	for sub := range b.subs[channel] {
		select {
		case sub.ch <- env:
			observability.Transport().OnDeliver(ctx, channel)
		case <-sub.done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// Subscribe registers a subscriber on channel.
func (b *MemoryBus) Subscribe(ctx context.Context, channel string) (*Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, errors.New(errors.ErrCodeUnsupported, "bus is closed")
	}

	sub := &memorySub{
		ch:   make(chan Envelope, subscriptionBuffer),
		done: make(chan struct{}),
	}
	if b.subs[channel] == nil {
		b.subs[channel] = make(map[*memorySub]struct{})
	}
	b.subs[channel][sub] = struct{}{}

	subCtx, cancel := context.WithCancel(ctx)
	out := make(chan Envelope, subscriptionBuffer)
	errs := make(chan error)

	go func() {
		defer close(out)
		defer close(errs)
		defer b.remove(channel, sub)
		for {
			select {
			case <-subCtx.Done():
				return
			case env := <-sub.ch:
				select {
				case out <- env:
				case <-subCtx.Done():
					return
				}
			}
		}
	}()

	return &Subscription{envelopes: out, errors: errs, cancel: cancel}, nil
}

func (b *MemoryBus) remove(channel string, sub *memorySub) {
	close(sub.done)
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.subs[channel], sub)
	if len(b.subs[channel]) == 0 {
		delete(b.subs, channel)
	}
}

// Subscribers returns the number of active subscribers on channel.
func (b *MemoryBus) Subscribers(channel string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[channel])
}

// Close rejects further publishes and subscriptions. Existing subscriptions
// end when their owners close them.
func (b *MemoryBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}

var _ Bus = (*MemoryBus)(nil)
