package widget

import (
	"io"
	"maps"
	"reflect"
	"slices"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// Widget is anything backed by a [Model].
type Widget interface {
	Model() *Model
}

// Observer is called after an attribute changes.
type Observer func(name string, prev, next any)

// Model is a set of synchronized attributes plus an inbound message channel.
type Model struct {
	id        string
	kind      string
	attrs     map[string]any
	observers map[string][]Observer
	handlers  []Handler
	sink      Sink
	logger    *log.Logger
}

// ModelOption configures a Model.
type ModelOption func(*Model)

// WithID sets the model id instead of generating one.
func WithID(id string) ModelOption {
	return func(m *Model) { m.id = id }
}

// WithSink binds the model to sink at construction time.
func WithSink(s Sink) ModelOption {
	return func(m *Model) { m.sink = s }
}

// WithLogger sets the logger used for debug output.
func WithLogger(l *log.Logger) ModelOption {
	return func(m *Model) {
		if l != nil {
			m.logger = l
		}
	}
}

// NewModel creates a model of the given kind. Unless [WithID] is given the id
// is a random UUID.
func NewModel(kind string, opts ...ModelOption) *Model {
	m := &Model{
		kind:      kind,
		attrs:     make(map[string]any),
		observers: make(map[string][]Observer),
		logger:    log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.id == "" {
		m.id = uuid.NewString()
	}
	return m
}

// ID returns the model id.
func (m *Model) ID() string { return m.id }

// Kind returns the component kind, e.g. "layout" or "creator".
func (m *Model) Kind() string { return m.kind }

// Model returns m, so that a bare Model satisfies [Widget].
func (m *Model) Model() *Model { return m }

// Get returns the current value of an attribute, or nil if it was never set.
func (m *Model) Get(name string) any { return m.attrs[name] }

// GetString returns an attribute as a string, or "" if it is unset or not a
// string.
func (m *Model) GetString(name string) string {
	s, _ := m.attrs[name].(string)
	return s
}

// Has reports whether an attribute has been set.
func (m *Model) Has(name string) bool {
	_, ok := m.attrs[name]
	return ok
}

// Set stores value under name. If the attribute already holds an equal value
// Set does nothing and returns false. Otherwise observers of name run in
// registration order and an update event is emitted.
func (m *Model) Set(name string, value any) bool {
	old, ok := m.attrs[name]
	if ok && reflect.DeepEqual(old, value) {
		return false
	}
	m.attrs[name] = value
	m.logger.Debug("attribute changed", "widget", m.id, "name", name)

	for _, fn := range m.observers[name] {
		fn(name, old, value)
	}
	m.emit(Event{Kind: KindUpdate, Widget: m.id, State: map[string]any{name: value}})
	return true
}

// Observe registers fn to run whenever name changes.
func (m *Model) Observe(name string, fn Observer) {
	m.observers[name] = append(m.observers[name], fn)
}

// State returns a copy of all attributes.
func (m *Model) State() map[string]any {
	return maps.Clone(m.attrs)
}

// Names returns the attribute names in sorted order.
func (m *Model) Names() []string {
	return slices.Sorted(maps.Keys(m.attrs))
}

// Bind attaches the model to a sink and announces it with an open event
// carrying the full state. Passing nil detaches the model.
func (m *Model) Bind(s Sink) {
	m.sink = s
	m.emit(Event{Kind: KindOpen, Widget: m.id, Type: m.kind, State: m.State()})
}

// Bound reports whether the model has a sink.
func (m *Model) Bound() bool { return m.sink != nil }

// Display asks the rendering surface to show w.
func (m *Model) Display(w Widget) error {
	m.emit(Event{Kind: KindDisplay, Widget: w.Model().ID(), Type: w.Model().Kind()})
	return nil
}

// Close announces that the model is gone and detaches it.
func (m *Model) Close() {
	m.emit(Event{Kind: KindClose, Widget: m.id})
	m.sink = nil
}

func (m *Model) emit(e Event) {
	if m.sink == nil {
		return
	}
	m.sink.Emit(e)
}
