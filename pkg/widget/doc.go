// Package widget provides the model-sync primitive that vizgrid components
// are built on.
//
// A [Model] holds named attributes that mirror state on the rendering
// surface. Setting an attribute to a new value notifies local observers and
// emits an update [Event] through the model's [Sink]; setting it to the value
// it already holds does nothing. Inbound [Message] values from the rendering
// surface are dispatched to handlers registered with [Model.OnMessage].
//
// # Placement
//
// [Base] is the simplest component: a model with an elementId attribute. A
// layout binds a component into one of its regions by writing the region's
// placement token into that attribute:
//
//	chart := widget.NewBase("chart")
//	chart.SetPlacementTarget("r7f3c")
//	chart.PlacementTarget() // "r7f3c"
//
// # Threading
//
// Models hold no locks. Every call on a model, and on the components built
// from it, must happen on one goroutine; the session package provides an
// event loop that guarantees this for hosted widgets.
package widget
