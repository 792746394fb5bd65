package query

import (
	"fmt"
	"strings"

	"github.com/houmingya/LLM-MCP-TOOLS/pkg/common"
	"github.com/houmingya/LLM-MCP-TOOLS/pkg/graph"
)

// searchAllCap bounds match-all searches and entity listings. This is a
// guard against dumping a huge graph through a single response, not a
// pagination design; keyword searches are not capped.
const searchAllCap = 100

// Client answers read-only questions about the current graph state. Every
// method is a pure function of the store contents at call time.
//
// A Client should be created using NewClient.
type Client struct {
	store *graph.Store
}

// NewClient creates a query client over the given store.
func NewClient(store *graph.Store) (*Client, error) {
	if store == nil {
		return nil, fmt.Errorf("query client requires a store")
	}
	return &Client{store: store}, nil
}

// RelationRef describes one relation seen from a fixed entity: the
// neighbor on the far end, the label and the accumulated description.
type RelationRef struct {
	Neighbor    string `json:"neighbor"`
	Relation    string `json:"relation"`
	Description string `json:"description"`
}

// EntityResult is a full entity lookup: the entity's attributes plus its
// outgoing and incoming relations.
type EntityResult struct {
	Name            string        `json:"name"`
	Type            string        `json:"type"`
	Description     string        `json:"description"`
	SourceDocuments string        `json:"source_documents"`
	Outgoing        []RelationRef `json:"outgoing_relations"`
	Incoming        []RelationRef `json:"incoming_relations"`
}

// QueryEntity returns the named entity with its directional relation
// lists, or graph.ErrEntityNotFound.
func (c *Client) QueryEntity(name string) (*EntityResult, error) {
	entity, err := c.store.GetEntity(name)
	if err != nil {
		return nil, err
	}

	result := &EntityResult{
		Name:            entity.Name,
		Type:            entity.Type,
		Description:     entity.Description,
		SourceDocuments: entity.SourceDocuments,
		Outgoing:        []RelationRef{},
		Incoming:        []RelationRef{},
	}
	for _, rel := range c.store.OutgoingRelations(name) {
		result.Outgoing = append(result.Outgoing, RelationRef{
			Neighbor:    rel.Target,
			Relation:    rel.Relation,
			Description: rel.Description,
		})
	}
	for _, rel := range c.store.IncomingRelations(name) {
		result.Incoming = append(result.Incoming, RelationRef{
			Neighbor:    rel.Source,
			Relation:    rel.Relation,
			Description: rel.Description,
		})
	}
	return result, nil
}

// PathStep is one hop along a found path.
type PathStep struct {
	From     string `json:"from"`
	To       string `json:"to"`
	Relation string `json:"relation"`
}

// PathResult is a shortest directed path between two entities. Length is
// the hop count. MaxLength echoes the caller's bound; the search itself is
// exhaustive-shortest, the bound is advisory metadata only.
type PathResult struct {
	Source    string     `json:"source"`
	Target    string     `json:"target"`
	Path      []string   `json:"path"`
	Steps     []PathStep `json:"steps"`
	Length    int        `json:"length"`
	MaxLength int        `json:"max_length"`
}

// FindPath computes the shortest directed path from source to target by
// edge count. It fails with graph.ErrEntityNotFound when either endpoint is
// absent and with graph.ErrNoPath when target is unreachable from source.
func (c *Client) FindPath(source, target string, maxLength int) (*PathResult, error) {
	if _, err := c.store.GetEntity(source); err != nil {
		return nil, err
	}
	if _, err := c.store.GetEntity(target); err != nil {
		return nil, err
	}

	path := c.bfs(source, target)
	if path == nil {
		return nil, fmt.Errorf("%w: %s -> %s", graph.ErrNoPath, source, target)
	}

	steps := make([]PathStep, 0, len(path)-1)
	for i := 0; i < len(path)-1; i++ {
		label := ""
		if edge, err := c.store.GetEdge(path[i], path[i+1]); err == nil {
			label = edge.Relation
		}
		steps = append(steps, PathStep{
			From:     path[i],
			To:       path[i+1],
			Relation: label,
		})
	}

	return &PathResult{
		Source:    source,
		Target:    target,
		Path:      path,
		Steps:     steps,
		Length:    len(path) - 1,
		MaxLength: maxLength,
	}, nil
}

// bfs returns the shortest node sequence from source to target, or nil when
// target is unreachable. Directed edges only.
func (c *Client) bfs(source, target string) []string {
	if source == target {
		return []string{source}
	}

	visited := map[string]bool{source: true}
	parent := map[string]string{}
	queue := []string{source}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, next := range c.store.Successors(current) {
			if visited[next] {
				continue
			}
			visited[next] = true
			parent[next] = current
			if next == target {
				path := []string{target}
				for node := target; node != source; {
					node = parent[node]
					path = append([]string{node}, path...)
				}
				return path
			}
			queue = append(queue, next)
		}
	}
	return nil
}

// SearchResult carries the entities matching a search, with Truncated set
// when the match-all cap dropped results.
type SearchResult struct {
	Entities  []common.Entity `json:"entities"`
	Count     int             `json:"count"`
	Truncated bool            `json:"truncated"`
}

// SearchEntities matches the keyword case-insensitively against entity
// names and descriptions; an empty keyword matches everything. The type
// filter, when non-empty, requires an exact type match. Match-all results
// are capped; keyword searches return every match.
func (c *Client) SearchEntities(keyword, typeFilter string) *SearchResult {
	keyword = strings.ToLower(keyword)
	matchAll := keyword == ""

	result := &SearchResult{Entities: []common.Entity{}}
	for _, entity := range c.store.Entities() {
		if typeFilter != "" && entity.Type != typeFilter {
			continue
		}
		if !matchAll &&
			!strings.Contains(strings.ToLower(entity.Name), keyword) &&
			!strings.Contains(strings.ToLower(entity.Description), keyword) {
			continue
		}
		if matchAll && len(result.Entities) >= searchAllCap {
			result.Truncated = true
			break
		}
		result.Entities = append(result.Entities, entity)
	}
	result.Count = len(result.Entities)
	return result
}

// ListResult is a bounded entity listing with a by-type grouping.
type ListResult struct {
	Entities []common.Entity            `json:"entities"`
	ByType   map[string][]common.Entity `json:"by_type"`
	Count    int                        `json:"count"`
	HasMore  bool                       `json:"has_more"`
}

// ListAllEntities returns up to limit entities in insertion order, grouped
// by type. The limit is clamped to the listing cap; HasMore reports whether
// the graph holds more entities than were returned.
func (c *Client) ListAllEntities(limit int) *ListResult {
	if limit <= 0 || limit > searchAllCap {
		limit = searchAllCap
	}

	all := c.store.Entities()
	result := &ListResult{
		Entities: []common.Entity{},
		ByType:   map[string][]common.Entity{},
	}
	for _, entity := range all {
		if len(result.Entities) >= limit {
			result.HasMore = true
			break
		}
		result.Entities = append(result.Entities, entity)
		result.ByType[entity.Type] = append(result.ByType[entity.Type], entity)
	}
	result.Count = len(result.Entities)
	return result
}

// Statistics summarizes the graph: counts, per-type and per-label
// histograms, density.
type Statistics struct {
	TotalEntities  int            `json:"total_entities"`
	TotalRelations int            `json:"total_relations"`
	EntityTypes    map[string]int `json:"entity_types"`
	RelationTypes  map[string]int `json:"relation_types"`
	GraphDensity   float64        `json:"graph_density"`
}

// GetStatistics computes the current graph summary.
func (c *Client) GetStatistics() *Statistics {
	stats := &Statistics{
		EntityTypes:   map[string]int{},
		RelationTypes: map[string]int{},
	}
	for _, entity := range c.store.Entities() {
		stats.TotalEntities++
		stats.EntityTypes[entity.Type]++
	}
	for _, relation := range c.store.Relations() {
		stats.TotalRelations++
		stats.RelationTypes[relation.Relation]++
	}
	stats.GraphDensity = c.store.Density()
	return stats
}

// Export is the full graph as flat node and edge lists, suitable for
// handing to an external renderer. No pagination, no filtering.
type Export struct {
	Nodes []common.Entity   `json:"nodes"`
	Edges []common.Relation `json:"edges"`
}

// ExportGraph dumps the whole graph.
func (c *Client) ExportGraph() *Export {
	nodes := c.store.Entities()
	edges := c.store.Relations()
	if nodes == nil {
		nodes = []common.Entity{}
	}
	if edges == nil {
		edges = []common.Relation{}
	}
	return &Export{Nodes: nodes, Edges: edges}
}
