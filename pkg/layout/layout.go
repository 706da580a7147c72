package layout

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/vizgrid/pkg/errors"
	"github.com/matzehuels/vizgrid/pkg/grid"
	"github.com/matzehuels/vizgrid/pkg/observability"
	"github.com/matzehuels/vizgrid/pkg/widget"
)

// Kind is the widget kind of a layout model.
const Kind = "matrix_layout"

// DefaultStyle is the CSS class applied to the grid container.
const DefaultStyle = "basic"

// Attribute names synchronized to the rendering surface.
const (
	AttrMatrix            = "matrix"
	AttrGridAreas         = "grid_areas"
	AttrGridTemplateAreas = "grid_template_areas"
	AttrStyle             = "style"
)

// Placeable is a component that can be bound to a placement token.
type Placeable interface {
	SetPlacementTarget(token string)
	PlacementTarget() string
}

// Displayer shows a widget on the rendering surface.
type Displayer interface {
	Display(w widget.Widget) error
}

// State is the readiness of a layout's rendering surface.
type State int

const (
	// Pending means the surface has not reported ready; bindings are queued.
	Pending State = iota
	// Ready means bindings apply immediately. It is terminal.
	Ready
)

func (s State) String() string {
	if s == Ready {
		return "ready"
	}
	return "pending"
}

// Placement is a component waiting for the readiness signal.
type Placement struct {
	Region    grid.RegionID
	Component Placeable
}

// Layout places components into the rectangular regions of a matrix.
type Layout struct {
	model    *widget.Model
	matrix   grid.Matrix
	ids      []grid.RegionID
	tokens   map[grid.RegionID]string
	style    string
	state    State
	children []Placeable
	pending  []Placement
	display  Displayer
	logger   *log.Logger
}

type config struct {
	tokens   TokenSource
	style    string
	children []Placeable
	display  Displayer
	logger   *log.Logger
	model    []widget.ModelOption
}

// Option configures a Layout.
type Option func(*config)

// WithTokens sets the placement token source. The default is [UUIDTokens].
func WithTokens(s TokenSource) Option {
	return func(c *config) { c.tokens = s }
}

// WithStyle sets the CSS class of the grid container.
func WithStyle(style string) Option {
	return func(c *config) { c.style = style }
}

// WithChildren adds components to regions 1, 2, ... in order once the layout
// is built.
func WithChildren(children ...Placeable) Option {
	return func(c *config) { c.children = append(c.children, children...) }
}

// WithDisplay sets how placed widgets are shown. The default displays them
// through the layout's own model.
func WithDisplay(d Displayer) Option {
	return func(c *config) { c.display = d }
}

// WithLogger sets the logger for placement and readiness events.
func WithLogger(l *log.Logger) Option {
	return func(c *config) { c.logger = l }
}

// WithModelOptions passes options to the underlying widget model.
func WithModelOptions(opts ...widget.ModelOption) Option {
	return func(c *config) { c.model = append(c.model, opts...) }
}

// New validates m and builds a layout over it. On a validation error no
// layout is returned.
func New(m grid.Matrix, opts ...Option) (*Layout, error) {
	cfg := config{style: DefaultStyle}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.tokens == nil {
		cfg.tokens = UUIDTokens()
	}
	if cfg.logger == nil {
		cfg.logger = log.New(io.Discard)
	}

	ids, err := grid.Validate(m)
	if err != nil {
		return nil, err
	}

	tokens := make(map[grid.RegionID]string, len(ids))
	used := make(map[string]grid.RegionID, len(ids))
	for _, id := range ids {
		tok := cfg.tokens.Token(id)
		if tok == "" {
			return nil, errors.New(errors.ErrCodeInternal, "token source returned an empty token for region %d", id)
		}
		if prev, ok := used[tok]; ok {
			return nil, errors.New(errors.ErrCodeInternal, "token %q issued for regions %d and %d", tok, prev, id)
		}
		used[tok] = id
		tokens[id] = tok
	}

	l := &Layout{
		model:  widget.NewModel(Kind, append([]widget.ModelOption{widget.WithLogger(cfg.logger)}, cfg.model...)...),
		matrix: m.Clone(),
		ids:    ids,
		tokens: tokens,
		style:  cfg.style,
		logger: cfg.logger,
	}
	l.display = cfg.display
	if l.display == nil {
		l.display = l.model
	}

	l.model.Set(AttrMatrix, l.matrix.Ints())
	l.model.Set(AttrGridAreas, l.GridAreas())
	l.model.Set(AttrGridTemplateAreas, l.TemplateAreas())
	l.model.Set(AttrStyle, l.style)
	l.model.OnMessage(l.handleMessage)

	observability.Layout().OnLayoutCreated(len(ids))
	l.logger.Debug("layout created", "widget", l.model.ID(), "regions", len(ids), "rows", m.Rows(), "cols", m.Cols())

	for i, c := range cfg.children {
		if err := l.Add(c, grid.RegionID(i+1)); err != nil {
			return nil, fmt.Errorf("initial child %d: %w", i, err)
		}
	}
	return l, nil
}

// Model returns the layout's widget model.
func (l *Layout) Model() *widget.Model { return l.model }

// Matrix returns a copy of the validated matrix.
func (l *Layout) Matrix() grid.Matrix { return l.matrix.Clone() }

// Regions returns the region ids in ascending order.
func (l *Layout) Regions() []grid.RegionID { return slices.Clone(l.ids) }

// Token returns the placement token of region id.
func (l *Layout) Token(id grid.RegionID) (string, bool) {
	tok, ok := l.tokens[id]
	return tok, ok
}

// Style returns the CSS class of the grid container.
func (l *Layout) Style() string { return l.style }

// GridAreas returns the placement tokens in region id order.
func (l *Layout) GridAreas() []string {
	out := make([]string, len(l.ids))
	for i, id := range l.ids {
		out[i] = l.tokens[id]
	}
	return out
}

// TemplateAreas returns the CSS grid-template-areas value: one quoted line of
// tokens per matrix row, one token per cell.
func (l *Layout) TemplateAreas() string {
	return grid.TemplateAreas(l.matrix, func(id grid.RegionID) string { return l.tokens[id] })
}

// State returns the readiness state.
func (l *Layout) State() State { return l.state }

// Ready reports whether the rendering surface has signalled readiness.
func (l *Layout) Ready() bool { return l.state == Ready }

// Children returns every component added so far, in order.
func (l *Layout) Children() []Placeable { return slices.Clone(l.children) }

// Pending returns the placements waiting for readiness, one per region, in
// the order each region was first queued.
func (l *Layout) Pending() []Placement { return slices.Clone(l.pending) }

// Add places c into region id. An unknown id fails with an
// *errors.InvalidRegionError listing the valid ids, and leaves the layout
// unchanged; so does a failure to display c. Before the surface is ready the
// binding is queued per region and applied when readiness arrives: adding a
// second component to a queued region replaces the first.
func (l *Layout) Add(c Placeable, id grid.RegionID) error {
	tok, ok := l.tokens[id]
	if !ok {
		avail := make([]int, len(l.ids))
		for i, v := range l.ids {
			avail[i] = int(v)
		}
		return &errors.InvalidRegionError{Requested: int(id), Available: avail}
	}

	prev := c.PlacementTarget()
	c.SetPlacementTarget(tok)
	if w, ok := c.(widget.Widget); ok {
		if err := l.display.Display(w); err != nil {
			c.SetPlacementTarget(prev)
			return fmt.Errorf("display region %d: %w", id, err)
		}
	}
	l.children = append(l.children, c)

	deferred := l.state == Pending
	if deferred {
		l.enqueue(id, c)
	} else {
		rebind(c, tok)
	}
	observability.Layout().OnPlacement(int(id), deferred)
	l.logger.Debug("component placed", "widget", l.model.ID(), "region", id, "deferred", deferred)
	return nil
}

// enqueue records c as the pending component of region id. A region keeps
// its first queue position; a later add replaces its component.
func (l *Layout) enqueue(id grid.RegionID, c Placeable) {
	for i := range l.pending {
		if l.pending[i].Region == id {
			l.pending[i].Component = c
			return
		}
	}
	l.pending = append(l.pending, Placement{Region: id, Component: c})
}

// MarkReady moves the layout to Ready and applies queued bindings in the
// order they were added. Calling it again has no effect.
func (l *Layout) MarkReady() {
	if l.state == Ready {
		return
	}
	l.state = Ready
	queued := l.pending
	l.pending = nil
	for _, p := range queued {
		rebind(p.Component, l.tokens[p.Region])
	}
	observability.Layout().OnReady(len(queued))
	l.logger.Debug("layout ready", "widget", l.model.ID(), "drained", len(queued))
}

func (l *Layout) handleMessage(msg widget.Message) error {
	if msg.Event == widget.EventDOMReady {
		l.MarkReady()
	}
	return nil
}

// rebind clears and re-sets the binding so the surface sees a change even if
// the token is the same.
func rebind(c Placeable, tok string) {
	c.SetPlacementTarget("")
	c.SetPlacementTarget(tok)
}

// Describe returns a short human-readable summary.
func (l *Layout) Describe() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d×%d grid, %d regions, %s", l.matrix.Rows(), l.matrix.Cols(), len(l.ids), l.state)
	if n := len(l.pending); n > 0 {
		fmt.Fprintf(&b, ", %d queued", n)
	}
	return b.String()
}
