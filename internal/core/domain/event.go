package domain

// EventKind identifies a point in the life of a target.
type EventKind string

const (
	// EventPreparing is emitted when a target enters the graph.
	EventPreparing EventKind = "preparing"
	// EventMade is emitted when a target's recipe completed successfully.
	EventMade EventKind = "made"
	// EventSkipped is emitted when a target was up to date.
	EventSkipped EventKind = "skipped"
)

// Event is delivered to subscribers of an EventKind.
type Event struct {
	Kind EventKind
	// Target is the resolved target name.
	Target string
	// Parent is the dependant that required Target, empty for the invocation root.
	Parent string
	// Dependencies lists the static and dynamic prerequisites known when the event fired.
	Dependencies []string
	// Graph is a snapshot of the dependency graph when the event fired.
	Graph *DirectedGraph[string]
}
