// Package comm carries widget traffic between a hosting session and its
// rendering surface.
//
// Traffic travels as [Envelope] values on named channels. Each session uses
// two channels: [OutboundChannel] for attribute updates and display requests
// going to the surface, and [InboundChannel] for messages such as dom_ready
// coming back. Two [Bus] implementations are provided:
//   - [MemoryBus]: in-process, for the CLI, tests and single-instance servers
//   - [RedisBus]: Redis pub/sub, for bridges running on several instances
//
// Delivery to a single subscriber preserves publish order. Redis pub/sub is
// at-most-once: a subscriber that is not connected when an envelope is
// published never sees it.
package comm

import (
	"context"
	"sync"
	"time"

	"github.com/matzehuels/vizgrid/pkg/widget"
)

// channelPrefix namespaces every channel name.
const channelPrefix = "vizgrid:"

// OutboundChannel is the channel carrying events from session to surface.
func OutboundChannel(session string) string {
	return channelPrefix + session + ":out"
}

// InboundChannel is the channel carrying messages from surface to session.
func InboundChannel(session string) string {
	return channelPrefix + session + ":in"
}

// Envelope is one unit of traffic. Outbound envelopes carry Event; inbound
// envelopes carry Widget and Message.
type Envelope struct {
	Session string          `json:"session"`
	Seq     uint64          `json:"seq,omitempty"`
	Time    time.Time       `json:"time"`
	Widget  string          `json:"widget,omitempty"`
	Event   *widget.Event   `json:"event,omitempty"`
	Message *widget.Message `json:"message,omitempty"`
}

// Bus publishes envelopes to channels and fans them out to subscribers.
type Bus interface {
	Publish(ctx context.Context, channel string, env Envelope) error
	Subscribe(ctx context.Context, channel string) (*Subscription, error)
	Close() error
}

// subscriptionBuffer is the capacity of a subscription's envelope channel.
const subscriptionBuffer = 64

// Subscription is an active subscription to one channel. Callers must call
// Close when done; cancelling the subscribe context also ends it.
type Subscription struct {
	envelopes <-chan Envelope
	errors    <-chan error
	cancel    func()
	once      sync.Once
}

// Envelopes returns the channel of received envelopes. It is closed when the
// subscription ends.
func (s *Subscription) Envelopes() <-chan Envelope {
	return s.envelopes
}

// Errors returns non-fatal errors such as undecodable payloads. The
// subscription keeps running after an error.
func (s *Subscription) Errors() <-chan error {
	return s.errors
}

// Close stops the subscription. It is safe to call more than once.
func (s *Subscription) Close() error {
	s.once.Do(s.cancel)
	return nil
}
