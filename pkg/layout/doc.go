// Package layout places components into the rectangular regions of a
// matrix layout.
//
// A [Layout] is built from a [grid.Matrix]. Construction validates the
// matrix, issues one placement token per region and publishes the matrix,
// the token list (grid_areas), the CSS grid-template-areas string and the
// container style on the layout's widget model.
//
// # Placement and readiness
//
// [Layout.Add] binds a component to a region by writing the region's token
// into the component's placement target. The rendering surface cannot
// resolve tokens until it has built the grid, so a layout starts Pending
// and queues every binding. When the surface sends the dom_ready event (or
// [Layout.MarkReady] is called) the layout becomes Ready and re-applies the
// queued bindings in the order they were added. Later additions bind
// immediately. Ready is terminal: a second readiness signal does nothing.
//
//	l, err := layout.New(grid.Matrix{{1, 1}, {2, 3}})
//	if err != nil {
//	    return err
//	}
//	if err := l.Add(widget.NewBase("chart"), 2); err != nil {
//	    return err
//	}
//	l.MarkReady()
//
// # Tokens
//
// Tokens come from a [TokenSource]. The default, [UUIDTokens], never repeats
// across layouts, so several layouts can share one page. [SequentialTokens]
// gives stable names for tests and static output.
package layout
