package widget

import (
	stderrors "errors"
	"testing"

	"github.com/matzehuels/vizgrid/pkg/errors"
)

func TestModelSetNotifiesOnlyOnChange(t *testing.T) {
	rec := &Recorder{}
	m := NewModel("test", WithSink(rec), WithID("w1"))

	var seen []any
	m.Observe("x", func(name string, prev, next any) {
		seen = append(seen, next)
	})

	if !m.Set("x", 1) {
		t.Error("first Set() = false, want true")
	}
	if m.Set("x", 1) {
		t.Error("repeated Set() = true, want false")
	}
	if !m.Set("x", 2) {
		t.Error("Set() to new value = false, want true")
	}

	if len(seen) != 2 || seen[0] != 1 || seen[1] != 2 {
		t.Errorf("observer saw %v, want [1 2]", seen)
	}
	if got := rec.Updates("w1", "x"); len(got) != 2 {
		t.Errorf("emitted %d updates, want 2", len(got))
	}
}

func TestModelSetDeepEqual(t *testing.T) {
	m := NewModel("test")
	m.Set("rows", [][]int{{1, 2}})
	if m.Set("rows", [][]int{{1, 2}}) {
		t.Error("Set() with equal slice reported a change")
	}
	if !m.Set("rows", [][]int{{1, 1}}) {
		t.Error("Set() with different slice reported no change")
	}
}

func TestModelObserverSeesPrevious(t *testing.T) {
	m := NewModel("test")
	m.Set("name", "a")

	var prev, next any
	m.Observe("name", func(_ string, p, n any) { prev, next = p, n })
	m.Set("name", "b")

	if prev != "a" || next != "b" {
		t.Errorf("observer got (%v, %v), want (a, b)", prev, next)
	}
}

func TestModelBindEmitsOpen(t *testing.T) {
	m := NewModel("layout", WithID("w1"))
	m.Set("style", "basic")

	rec := &Recorder{}
	m.Bind(rec)

	if len(rec.Events) != 1 {
		t.Fatalf("got %d events, want 1", len(rec.Events))
	}
	e := rec.Events[0]
	if e.Kind != KindOpen || e.Type != "layout" || e.State["style"] != "basic" {
		t.Errorf("open event = %+v", e)
	}

	m.Close()
	if rec.Events[len(rec.Events)-1].Kind != KindClose {
		t.Error("Close() did not emit a close event")
	}
	if m.Bound() {
		t.Error("model still bound after Close()")
	}
}

func TestModelDisplay(t *testing.T) {
	rec := &Recorder{}
	host := NewModel("layout", WithSink(rec))
	child := NewBase("chart", WithID("c1"))

	if err := host.Display(child); err != nil {
		t.Fatalf("Display() error = %v", err)
	}
	e := rec.Events[len(rec.Events)-1]
	if e.Kind != KindDisplay || e.Widget != "c1" || e.Type != "chart" {
		t.Errorf("display event = %+v", e)
	}
}

func TestModelIDsAreUnique(t *testing.T) {
	a, b := NewModel("x"), NewModel("x")
	if a.ID() == "" || a.ID() == b.ID() {
		t.Errorf("ids %q and %q are not unique", a.ID(), b.ID())
	}
}

func TestHandleMessage(t *testing.T) {
	m := NewModel("test")
	var order []string
	m.OnMessage(func(msg Message) error {
		order = append(order, "first:"+msg.Event)
		return nil
	})
	m.OnMessage(func(msg Message) error {
		order = append(order, "second:"+msg.Event)
		return stderrors.New("boom")
	})

	err := m.HandleRaw([]byte(`{"event":"dom_ready"}`))
	if err == nil || err.Error() != "boom" {
		t.Errorf("HandleRaw() error = %v, want boom", err)
	}
	if len(order) != 2 || order[0] != "first:dom_ready" || order[1] != "second:dom_ready" {
		t.Errorf("handlers ran as %v", order)
	}
}

func TestDecodeMessage(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		event   string
		wantErr bool
	}{
		{"ready", `{"event":"dom_ready"}`, EventDOMReady, false},
		{"matrix", `{"event":"matrix_generated","matrix":[[1,2]]}`, EventMatrixGenerated, false},
		{"no event", `{"matrix":[[1]]}`, "", true},
		{"not json", `dom_ready`, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := DecodeMessage([]byte(tt.input))
			if tt.wantErr {
				if !errors.Is(err, errors.ErrCodeInvalidMessage) {
					t.Errorf("DecodeMessage() error = %v, want INVALID_MESSAGE", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("DecodeMessage() error = %v", err)
			}
			if msg.Event != tt.event {
				t.Errorf("Event = %q, want %q", msg.Event, tt.event)
			}
		})
	}
}

func TestBasePlacement(t *testing.T) {
	rec := &Recorder{}
	b := NewBase("chart", WithSink(rec), WithID("c1"))
	if b.PlacementTarget() != "" {
		t.Errorf("initial target = %q, want empty", b.PlacementTarget())
	}

	b.SetPlacementTarget("tok")
	if b.PlacementTarget() != "tok" {
		t.Errorf("PlacementTarget() = %q, want tok", b.PlacementTarget())
	}

	got := rec.Updates("c1", AttrElementID)
	if len(got) != 2 || got[0] != "" || got[1] != "tok" {
		t.Errorf("elementId updates = %v, want [\"\" tok]", got)
	}
}
