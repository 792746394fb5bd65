package graph

import (
	"fmt"
	"strings"
	"sync"

	"github.com/houmingya/LLM-MCP-TOOLS/pkg/common"
)

type edgeKey struct {
	source string
	target string
}

// Store holds the canonical in-memory knowledge graph: a directed graph of
// named entities and labeled relations. Entity names are unique; at most one
// relation exists per ordered (source, target) pair.
//
// Every method is individually guarded by a reader/writer lock, so queries
// may run concurrently with each other and with single mutations. The merge
// pipeline in Engine is a multi-step read-modify-write sequence and holds
// its own mutex on top of this; the Store alone does not make a whole build
// atomic.
type Store struct {
	mu sync.RWMutex

	nodes     map[string]*common.Entity
	nodeOrder []string

	edges     map[edgeKey]*common.Relation
	edgeOrder []edgeKey

	succ map[string][]string
	pred map[string][]string
}

// NewStore creates an empty graph store.
func NewStore() *Store {
	s := &Store{}
	s.reset()
	return s
}

func (s *Store) reset() {
	s.nodes = make(map[string]*common.Entity)
	s.nodeOrder = nil
	s.edges = make(map[edgeKey]*common.Relation)
	s.edgeOrder = nil
	s.succ = make(map[string][]string)
	s.pred = make(map[string][]string)
}

// HasEntity reports whether an entity with the given name exists.
func (s *Store) HasEntity(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.nodes[name]
	return ok
}

// GetEntity returns a copy of the named entity, or ErrEntityNotFound.
func (s *Store) GetEntity(name string) (common.Entity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	node, ok := s.nodes[name]
	if !ok {
		return common.Entity{}, fmt.Errorf("%w: %s", ErrEntityNotFound, name)
	}
	return *node, nil
}

// AddEntity inserts a new entity. It fails with ErrDuplicateEntity when the
// name is already present; callers merge instead of re-adding.
func (s *Store) AddEntity(name string, entityType string, description string, sourceDoc string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.nodes[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateEntity, name)
	}
	if entityType == "" {
		entityType = common.UnknownEntityType
	}
	s.nodes[name] = &common.Entity{
		Name:            name,
		Type:            entityType,
		Description:     description,
		SourceDocuments: sourceDoc,
	}
	s.nodeOrder = append(s.nodeOrder, name)
	return nil
}

// MergeEntityAttributes folds new extraction data into an existing entity.
// The description is replaced only by a non-empty, strictly longer one; the
// source document is appended (comma-joined) unless already listed.
func (s *Store) MergeEntityAttributes(name string, newDescription string, sourceDoc string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	node, ok := s.nodes[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrEntityNotFound, name)
	}
	if newDescription != "" && len(newDescription) > len(node.Description) {
		node.Description = newDescription
	}
	node.SourceDocuments = appendSourceDoc(node.SourceDocuments, sourceDoc)
	return nil
}

// HasEdge reports whether a relation exists from source to target. The
// check is directional.
func (s *Store) HasEdge(source, target string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.edges[edgeKey{source, target}]
	return ok
}

// GetEdge returns a copy of the relation from source to target, or
// ErrEntityNotFound when no such edge exists.
func (s *Store) GetEdge(source, target string) (common.Relation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	edge, ok := s.edges[edgeKey{source, target}]
	if !ok {
		return common.Relation{}, fmt.Errorf("%w: %s -> %s", ErrEntityNotFound, source, target)
	}
	return *edge, nil
}

// AddEdge inserts a new relation. Both endpoints must already exist as
// entities; otherwise ErrUnknownEndpoint is returned and nothing changes.
func (s *Store) AddEdge(source, target, label, description, sourceDoc string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.nodes[source]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownEndpoint, source)
	}
	if _, ok := s.nodes[target]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownEndpoint, target)
	}
	key := edgeKey{source, target}
	if _, ok := s.edges[key]; ok {
		return fmt.Errorf("edge already exists: %s -> %s", source, target)
	}
	if label == "" {
		label = common.DefaultRelationLabel
	}
	s.edges[key] = &common.Relation{
		Source:          source,
		Target:          target,
		Relation:        label,
		Description:     description,
		SourceDocuments: sourceDoc,
	}
	s.edgeOrder = append(s.edgeOrder, key)
	s.succ[source] = append(s.succ[source], target)
	s.pred[target] = append(s.pred[target], source)
	return nil
}

// MergeEdgeAttributes folds new extraction data into the existing relation
// between source and target.
//
// When the stored label matches the incoming one, the description is
// extended (semicolon-joined, skipped when already contained) and the
// source document accumulated. When the labels differ, the incoming label
// is appended comma-joined and the description gains a "[label] text"
// fragment; nothing is ever overwritten, only accumulated.
func (s *Store) MergeEdgeAttributes(source, target, label, description, sourceDoc string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	edge, ok := s.edges[edgeKey{source, target}]
	if !ok {
		return fmt.Errorf("%w: %s -> %s", ErrEntityNotFound, source, target)
	}
	if label == "" {
		label = common.DefaultRelationLabel
	}

	if label == edge.Relation {
		if description != "" && !strings.Contains(edge.Description, description) {
			if edge.Description == "" {
				edge.Description = description
			} else {
				edge.Description = edge.Description + "; " + description
			}
		}
		edge.SourceDocuments = appendSourceDoc(edge.SourceDocuments, sourceDoc)
		return nil
	}

	fragment := fmt.Sprintf("[%s] %s", label, description)
	if !strings.Contains(edge.Description, fragment) {
		if edge.Description == "" {
			edge.Description = fragment
		} else {
			edge.Description = edge.Description + "; " + fragment
		}
		edge.Relation = edge.Relation + ", " + label
	}
	return nil
}

// Clear removes every entity and relation. This is the only destructive
// operation on the store and cannot be undone.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
}

// NodeCount returns the number of entities.
func (s *Store) NodeCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.nodes)
}

// EdgeCount returns the number of relations.
func (s *Store) EdgeCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.edges)
}

// Density returns the directed graph density: edges / (n * (n-1)).
// A graph with fewer than two nodes has density 0.
func (s *Store) Density() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := len(s.nodes)
	if n < 2 {
		return 0
	}
	return float64(len(s.edges)) / float64(n*(n-1))
}

// Entities returns copies of all entities in insertion order.
func (s *Store) Entities() []common.Entity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]common.Entity, 0, len(s.nodeOrder))
	for _, name := range s.nodeOrder {
		out = append(out, *s.nodes[name])
	}
	return out
}

// Relations returns copies of all relations in insertion order.
func (s *Store) Relations() []common.Relation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]common.Relation, 0, len(s.edgeOrder))
	for _, key := range s.edgeOrder {
		out = append(out, *s.edges[key])
	}
	return out
}

// OutgoingRelations returns copies of the relations with the named entity
// as source, in insertion order.
func (s *Store) OutgoingRelations(name string) []common.Relation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	targets := s.succ[name]
	out := make([]common.Relation, 0, len(targets))
	for _, target := range targets {
		out = append(out, *s.edges[edgeKey{name, target}])
	}
	return out
}

// IncomingRelations returns copies of the relations with the named entity
// as target, in insertion order.
func (s *Store) IncomingRelations(name string) []common.Relation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sources := s.pred[name]
	out := make([]common.Relation, 0, len(sources))
	for _, source := range sources {
		out = append(out, *s.edges[edgeKey{source, name}])
	}
	return out
}

// Successors returns the names of entities directly reachable from name.
func (s *Store) Successors(name string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.succ[name]))
	copy(out, s.succ[name])
	return out
}

// Snapshot returns a full copy of the graph for serialization.
func (s *Store) Snapshot() common.Snapshot {
	return common.Snapshot{
		Entities:  s.Entities(),
		Relations: s.Relations(),
	}
}

// Restore replaces the graph contents with the given snapshot. Relations
// whose endpoints are missing from the snapshot are dropped; a stored image
// never violates endpoint integrity.
func (s *Store) Restore(snap common.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
	for _, entity := range snap.Entities {
		e := entity
		if _, ok := s.nodes[e.Name]; ok {
			continue
		}
		s.nodes[e.Name] = &e
		s.nodeOrder = append(s.nodeOrder, e.Name)
	}
	for _, relation := range snap.Relations {
		r := relation
		if _, ok := s.nodes[r.Source]; !ok {
			continue
		}
		if _, ok := s.nodes[r.Target]; !ok {
			continue
		}
		key := edgeKey{r.Source, r.Target}
		if _, ok := s.edges[key]; ok {
			continue
		}
		s.edges[key] = &r
		s.edgeOrder = append(s.edgeOrder, key)
		s.succ[r.Source] = append(s.succ[r.Source], r.Target)
		s.pred[r.Target] = append(s.pred[r.Target], r.Source)
	}
}

func appendSourceDoc(existing, doc string) string {
	if doc == "" || strings.Contains(existing, doc) {
		return existing
	}
	if existing == "" {
		return doc
	}
	return existing + ", " + doc
}
