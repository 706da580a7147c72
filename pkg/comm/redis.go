package comm

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/matzehuels/vizgrid/pkg/observability"
)

// RedisBus is a Bus backed by Redis pub/sub. Envelopes travel as JSON.
type RedisBus struct {
	rdb   *redis.Client
	owned bool
}

// NewRedisBus connects to Redis with opts and verifies the connection.
func NewRedisBus(ctx context.Context, opts *redis.Options) (*RedisBus, error) {
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("connect to redis at %s: %w", opts.Addr, err)
	}
	return &RedisBus{rdb: rdb, owned: true}, nil
}

// NewRedisBusFromClient wraps an existing client. Close does not close it.
func NewRedisBusFromClient(rdb *redis.Client) *RedisBus {
	return &RedisBus{rdb: rdb}
}

// Publish encodes env as JSON and publishes it on channel.
func (b *RedisBus) Publish(ctx context.Context, channel string, env Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}
	if err := b.rdb.Publish(ctx, channel, data).Err(); err != nil {
		observability.Transport().OnError(ctx, channel, err)
		return fmt.Errorf("publish to %s: %w", channel, err)
	}
	observability.Transport().OnPublish(ctx, channel, len(data))
	return nil
}

// Subscribe subscribes to channel and waits for Redis to confirm the
// subscription, so envelopes published after Subscribe returns are seen.
//
// Undecodable payloads are reported on Errors and skipped.
func (b *RedisBus) Subscribe(ctx context.Context, channel string) (*Subscription, error) {
	pubsub := b.rdb.Subscribe(ctx, channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("subscribe to %s: %w", channel, err)
	}

	out := make(chan Envelope, subscriptionBuffer)
	errs := make(chan error, subscriptionBuffer)
	subCtx, cancel := context.WithCancel(ctx)

	go func() {
		defer close(out)
		defer close(errs)
		defer pubsub.Close()

		ch := pubsub.Channel()
		for {
			select {
			case <-subCtx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}

				var env Envelope
				if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
					observability.Transport().OnError(subCtx, channel, err)
					select {
					case errs <- fmt.Errorf("decode envelope on %s: %w", channel, err):
					case <-subCtx.Done():
						return
					}
					continue
				}

				select {
				case out <- env:
					observability.Transport().OnDeliver(subCtx, channel)
				case <-subCtx.Done():
					return
				}
			}
		}
	}()

	return &Subscription{envelopes: out, errors: errs, cancel: cancel}, nil
}

// Close closes the Redis client if the bus created it.
func (b *RedisBus) Close() error {
	if !b.owned {
		return nil
	}
	return b.rdb.Close()
}

var _ Bus = (*RedisBus)(nil)
