package widget

// AttrElementID holds the placement token a component is bound to.
const AttrElementID = "elementId"

// Base is a plain component that can be placed into a layout region.
type Base struct {
	model *Model
}

// NewBase creates a component of the given kind with an empty elementId.
func NewBase(kind string, opts ...ModelOption) *Base {
	m := NewModel(kind, opts...)
	m.Set(AttrElementID, "")
	return &Base{model: m}
}

// Model returns the component's model.
func (b *Base) Model() *Model { return b.model }

// SetPlacementTarget binds the component to a placement token.
func (b *Base) SetPlacementTarget(token string) {
	b.model.Set(AttrElementID, token)
}

// PlacementTarget returns the token the component is bound to.
func (b *Base) PlacementTarget() string {
	return b.model.GetString(AttrElementID)
}
