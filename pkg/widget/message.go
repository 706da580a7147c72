package widget

import (
	"encoding/json"
	stderrors "errors"

	"github.com/matzehuels/vizgrid/pkg/errors"
)

// Inbound event names sent by the rendering surface.
const (
	EventDOMReady        = "dom_ready"
	EventMatrixGenerated = "matrix_generated"
)

// Message is an inbound message from the rendering surface.
type Message struct {
	Event  string          `json:"event"`
	Matrix json.RawMessage `json:"matrix,omitempty"`
}

// DecodeMessage parses a JSON message. A message without an event name is
// rejected with errors.ErrCodeInvalidMessage.
func DecodeMessage(data []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return Message{}, errors.Wrap(errors.ErrCodeInvalidMessage, err, "decode message")
	}
	if msg.Event == "" {
		return Message{}, errors.New(errors.ErrCodeInvalidMessage, "message has no event")
	}
	return msg, nil
}

// Handler processes one inbound message. Handlers ignore events they do not
// understand.
type Handler func(Message) error

// OnMessage registers h for inbound messages.
func (m *Model) OnMessage(h Handler) {
	m.handlers = append(m.handlers, h)
}

// HandleMessage delivers msg to every handler in registration order and
// returns their errors joined.
func (m *Model) HandleMessage(msg Message) error {
	m.logger.Debug("message received", "widget", m.id, "event", msg.Event)
	var errs []error
	for _, h := range m.handlers {
		if err := h(msg); err != nil {
			errs = append(errs, err)
		}
	}
	return stderrors.Join(errs...)
}

// HandleRaw decodes data and delivers it like [Model.HandleMessage].
func (m *Model) HandleRaw(data []byte) error {
	msg, err := DecodeMessage(data)
	if err != nil {
		return err
	}
	return m.HandleMessage(msg)
}

// EventKind classifies outbound events.
type EventKind string

// Outbound event kinds.
const (
	KindOpen    EventKind = "open"
	KindUpdate  EventKind = "update"
	KindDisplay EventKind = "display"
	KindClose   EventKind = "close"
)

// Event is an outbound notification for the rendering surface.
type Event struct {
	Kind   EventKind      `json:"kind"`
	Widget string         `json:"widget"`
	Type   string         `json:"type,omitempty"`
	State  map[string]any `json:"state,omitempty"`
}

// Sink receives outbound events.
type Sink interface {
	Emit(Event)
}

// SinkFunc adapts a function to [Sink].
type SinkFunc func(Event)

// Emit calls f(e).
func (f SinkFunc) Emit(e Event) { f(e) }

// Recorder is a Sink that keeps every event in order.
type Recorder struct {
	Events []Event
}

// Emit appends e.
func (r *Recorder) Emit(e Event) { r.Events = append(r.Events, e) }

// Updates returns the values an attribute was set to, in order.
func (r *Recorder) Updates(widgetID, name string) []any {
	var out []any
	for _, e := range r.Events {
		if e.Kind != KindUpdate || e.Widget != widgetID {
			continue
		}
		if v, ok := e.State[name]; ok {
			out = append(out, v)
		}
	}
	return out
}

// Reset drops all recorded events.
func (r *Recorder) Reset() { r.Events = nil }
