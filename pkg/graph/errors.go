package graph

import "errors"

var (
	// ErrEntityNotFound is returned when a lookup names an entity that is
	// not in the graph.
	ErrEntityNotFound = errors.New("entity not found")

	// ErrDuplicateEntity is returned by AddEntity when the name is already
	// taken. Callers are expected to check existence and merge instead.
	ErrDuplicateEntity = errors.New("entity already exists")

	// ErrUnknownEndpoint is returned by AddEdge when either endpoint is not
	// an existing entity. Relations never create nodes.
	ErrUnknownEndpoint = errors.New("relation endpoint not found")

	// ErrNoPath is returned by path queries when the target is not
	// reachable from the source.
	ErrNoPath = errors.New("no path between entities")
)
