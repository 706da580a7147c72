// Package session hosts widgets for one rendering surface.
//
// A [Session] owns a set of widgets (layouts, creators and plain components)
// and runs every operation on them on a single event-loop goroutine, so the
// widgets themselves need no locks. Outbound widget events are numbered,
// kept in a bounded log and published on the session's outbound bus channel.
// Messages arriving on the inbound channel are delivered to their widget on
// the same loop.
//
// A [Registry] creates sessions with random ids and removes them once they
// have been idle longer than their TTL.
//
// # Usage
//
//	reg := session.NewRegistry(comm.NewMemoryBus(), logger, session.WithTTL(time.Hour))
//	defer reg.Close()
//
//	sess, err := reg.Create(ctx)
//	if err != nil {
//	    return err
//	}
//	l, err := sess.NewLayout(ctx, grid.Matrix{{1, 1}, {2, 3}})
//	if err != nil {
//	    return err
//	}
//	chart, _ := sess.NewWidget(ctx, "chart")
//	err = sess.Place(ctx, l.Model().ID(), chart.Model().ID(), 2)
package session

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/vizgrid/pkg/comm"
	"github.com/matzehuels/vizgrid/pkg/creator"
	"github.com/matzehuels/vizgrid/pkg/errors"
	"github.com/matzehuels/vizgrid/pkg/grid"
	"github.com/matzehuels/vizgrid/pkg/layout"
	"github.com/matzehuels/vizgrid/pkg/widget"
)

// Sentinel errors for session operations.
var (
	// ErrNotFound is returned when a session does not exist or has expired.
	ErrNotFound = errors.New(errors.ErrCodeSessionNotFound, "session not found")

	// ErrClosed is returned when an operation reaches a closed session.
	ErrClosed = errors.New(errors.ErrCodeSessionNotFound, "session closed")
)

// Default limits.
const (
	// DefaultTTL is how long an idle session lives.
	DefaultTTL = 24 * time.Hour

	// DefaultLogSize is how many outbound envelopes a session keeps.
	DefaultLogSize = 1024
)

// Info describes a session.
type Info struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
	Widgets   int       `json:"widgets"`
}

// WidgetState is a snapshot of one hosted widget.
type WidgetState struct {
	ID    string         `json:"id"`
	Kind  string         `json:"kind"`
	State map[string]any `json:"state"`
	Ready *bool          `json:"ready,omitempty"`
}

// Session hosts widgets and serializes all access to them.
type Session struct {
	id        string
	createdAt time.Time
	ttl       time.Duration
	bus       comm.Bus
	logger    *log.Logger
	tokens    layout.TokenSource
	style     string
	logSize   int

	mu        sync.Mutex
	expiresAt time.Time

	ops       chan func()
	outbox    chan comm.Envelope
	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
	cancel    context.CancelFunc

	// Owned by the event loop.
	widgets map[string]widget.Widget
	order   []string
	seq     uint64
	events  []comm.Envelope
}

// Option configures a Session.
type Option func(*Session)

// WithTTL sets the idle lifetime.
func WithTTL(ttl time.Duration) Option {
	return func(s *Session) { s.ttl = ttl }
}

// WithLogger sets the session logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithTokens sets the token source for layouts created in the session.
func WithTokens(src layout.TokenSource) Option {
	return func(s *Session) { s.tokens = src }
}

// WithStyle sets the default container style for layouts.
func WithStyle(style string) Option {
	return func(s *Session) { s.style = style }
}

// WithLogSize bounds the outbound event log.
func WithLogSize(n int) Option {
	return func(s *Session) { s.logSize = n }
}

// WithID fixes the session id instead of generating one.
func WithID(id string) Option {
	return func(s *Session) { s.id = id }
}

// New starts a session publishing on bus. The session subscribes to its
// inbound channel and runs until Close; ctx only bounds that setup.
func New(ctx context.Context, bus comm.Bus, opts ...Option) (*Session, error) {
	now := time.Now()
	s := &Session{
		id:        uuid.NewString(),
		createdAt: now,
		ttl:       DefaultTTL,
		bus:       bus,
		logger:    log.New(io.Discard),
		style:     layout.DefaultStyle,
		logSize:   DefaultLogSize,
		ops:       make(chan func()),
		outbox:    make(chan comm.Envelope, 256),
		done:      make(chan struct{}),
		widgets:   make(map[string]widget.Widget),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.expiresAt = now.Add(s.ttl)

	loopCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel

	sub, err := bus.Subscribe(loopCtx, comm.InboundChannel(s.id))
	if err != nil {
		cancel()
		return nil, err
	}

	s.wg.Add(3)
	go s.loop(loopCtx)
	go s.publish(loopCtx)
	go s.receive(loopCtx, sub)

	s.logger.Debug("session started", "session", s.id)
	return s, nil
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// Info returns the session metadata.
func (s *Session) Info(ctx context.Context) (Info, error) {
	info := Info{ID: s.id, CreatedAt: s.createdAt, ExpiresAt: s.ExpiresAt()}
	err := s.Do(ctx, func() error {
		info.Widgets = len(s.widgets)
		return nil
	})
	return info, err
}

// ExpiresAt returns when the session expires unless it is used again.
func (s *Session) ExpiresAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.expiresAt
}

// IsExpired reports whether the session has been idle past its TTL.
func (s *Session) IsExpired(now time.Time) bool {
	return now.After(s.ExpiresAt())
}

func (s *Session) touch() {
	s.mu.Lock()
	s.expiresAt = time.Now().Add(s.ttl)
	s.mu.Unlock()
}

// Do runs fn on the event loop and returns its error. It fails with
// ErrClosed once the session is closed.
func (s *Session) Do(ctx context.Context, fn func() error) error {
	s.touch()
	result := make(chan error, 1)
	op := func() { result <- fn() }

	select {
	case s.ops <- op:
	case <-s.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Session) loop(ctx context.Context) {
	defer s.wg.Done()
	for {
		select {
		case op := <-s.ops:
			op()
		case <-ctx.Done():
			return
		}
	}
}

// publish forwards outbound envelopes to the bus in order.
func (s *Session) publish(ctx context.Context) {
	defer s.wg.Done()
	channel := comm.OutboundChannel(s.id)
	for {
		select {
		case env := <-s.outbox:
			if err := s.bus.Publish(ctx, channel, env); err != nil && ctx.Err() == nil {
				s.logger.Warn("publish failed", "session", s.id, "seq", env.Seq, "err", err)
			}
		case <-ctx.Done():
			return
		}
	}
}

// receive delivers inbound messages to their widgets.
func (s *Session) receive(ctx context.Context, sub *comm.Subscription) {
	defer s.wg.Done()
	defer sub.Close()
	for {
		select {
		case env, ok := <-sub.Envelopes():
			if !ok {
				return
			}
			if env.Message == nil {
				continue
			}
			if err := s.Deliver(ctx, env.Widget, *env.Message); err != nil && ctx.Err() == nil {
				s.logger.Warn("inbound message failed", "session", s.id, "widget", env.Widget, "event", env.Message.Event, "err", err)
			}
		case err, ok := <-sub.Errors():
			if !ok {
				return
			}
			s.logger.Warn("inbound channel error", "session", s.id, "err", err)
		case <-ctx.Done():
			return
		}
	}
}

// emit runs on the event loop for every outbound widget event.
func (s *Session) emit(e widget.Event) {
	s.seq++
	env := comm.Envelope{Session: s.id, Seq: s.seq, Time: time.Now().UTC(), Widget: e.Widget, Event: &e}
	s.events = append(s.events, env)
	if over := len(s.events) - s.logSize; over > 0 {
		s.events = append(s.events[:0:0], s.events[over:]...)
	}
	select {
	case s.outbox <- env:
	case <-s.done:
	}
}

// Close stops the event loop. It is safe to call more than once.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)
		s.cancel()
		s.wg.Wait()
		s.logger.Debug("session closed", "session", s.id)
	})
	return nil
}

// Done is closed when the session closes.
func (s *Session) Done() <-chan struct{} { return s.done }

// register binds w to the session and records it. Must run on the loop.
func (s *Session) register(w widget.Widget) {
	m := w.Model()
	s.widgets[m.ID()] = w
	s.order = append(s.order, m.ID())
	m.Bind(widget.SinkFunc(s.emit))
}

func (s *Session) lookup(id string) (widget.Widget, error) {
	w, ok := s.widgets[id]
	if !ok {
		return nil, errors.New(errors.ErrCodeWidgetNotFound, "widget %q not found in session", id)
	}
	return w, nil
}

// NewLayout validates m and hosts a layout over it.
func (s *Session) NewLayout(ctx context.Context, m grid.Matrix, opts ...layout.Option) (*layout.Layout, error) {
	var l *layout.Layout
	err := s.Do(ctx, func() error {
		base := []layout.Option{layout.WithLogger(s.logger), layout.WithStyle(s.style)}
		if s.tokens != nil {
			base = append(base, layout.WithTokens(s.tokens))
		}
		var err error
		l, err = layout.New(m, append(base, opts...)...)
		if err != nil {
			return err
		}
		s.register(l)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("layout created", "session", s.id, "widget", l.Model().ID(), "regions", len(l.Regions()))
	return l, nil
}

// NewCreator hosts a matrix builder.
func (s *Session) NewCreator(ctx context.Context, opts ...creator.Option) (*creator.Creator, error) {
	var c *creator.Creator
	err := s.Do(ctx, func() error {
		var err error
		c, err = creator.New(append([]creator.Option{creator.WithLogger(s.logger)}, opts...)...)
		if err != nil {
			return err
		}
		s.register(c)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// NewWidget hosts a plain placeable component of the given kind.
func (s *Session) NewWidget(ctx context.Context, kind string) (*widget.Base, error) {
	if kind == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "widget kind is required")
	}
	var b *widget.Base
	err := s.Do(ctx, func() error {
		b = widget.NewBase(kind, widget.WithLogger(s.logger))
		s.register(b)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return b, nil
}

// Place adds widget childID to region of layout layoutID.
func (s *Session) Place(ctx context.Context, layoutID, childID string, region grid.RegionID) error {
	return s.Do(ctx, func() error {
		w, err := s.lookup(layoutID)
		if err != nil {
			return err
		}
		l, ok := w.(*layout.Layout)
		if !ok {
			return errors.New(errors.ErrCodeInvalidInput, "widget %q is a %s, not a layout", layoutID, w.Model().Kind())
		}
		child, err := s.lookup(childID)
		if err != nil {
			return err
		}
		p, ok := child.(layout.Placeable)
		if !ok {
			return errors.New(errors.ErrCodeInvalidInput, "widget %q cannot be placed", childID)
		}
		return l.Add(p, region)
	})
}

// Deliver hands an inbound message to widget id.
func (s *Session) Deliver(ctx context.Context, id string, msg widget.Message) error {
	return s.Do(ctx, func() error {
		w, err := s.lookup(id)
		if err != nil {
			return err
		}
		return w.Model().HandleMessage(msg)
	})
}

// Snapshot returns the current state of widget id.
func (s *Session) Snapshot(ctx context.Context, id string) (WidgetState, error) {
	var out WidgetState
	err := s.Do(ctx, func() error {
		w, err := s.lookup(id)
		if err != nil {
			return err
		}
		out = snapshot(w)
		return nil
	})
	return out, err
}

// Widgets returns snapshots of every hosted widget in creation order.
func (s *Session) Widgets(ctx context.Context) ([]WidgetState, error) {
	var out []WidgetState
	err := s.Do(ctx, func() error {
		for _, id := range s.order {
			out = append(out, snapshot(s.widgets[id]))
		}
		return nil
	})
	return out, err
}

func snapshot(w widget.Widget) WidgetState {
	m := w.Model()
	st := WidgetState{ID: m.ID(), Kind: m.Kind(), State: m.State()}
	if l, ok := w.(*layout.Layout); ok {
		ready := l.Ready()
		st.Ready = &ready
	}
	return st
}

// Events returns the logged outbound envelopes with Seq greater than after.
func (s *Session) Events(ctx context.Context, after uint64) ([]comm.Envelope, error) {
	var out []comm.Envelope
	err := s.Do(ctx, func() error {
		for _, env := range s.events {
			if env.Seq > after {
				out = append(out, env)
			}
		}
		return nil
	})
	return out, err
}

// Generate regenerates the matrix of creator id. Nil sizes keep the current
// ones.
func (s *Session) Generate(ctx context.Context, id string, rows, columns *int) (grid.Matrix, error) {
	var m grid.Matrix
	err := s.Do(ctx, func() error {
		w, err := s.lookup(id)
		if err != nil {
			return err
		}
		c, ok := w.(*creator.Creator)
		if !ok {
			return errors.New(errors.ErrCodeInvalidInput, "widget %q is a %s, not a matrix creator", id, w.Model().Kind())
		}
		m, err = c.GenerateNewMatrix(rows, columns)
		return err
	})
	return m, err
}
