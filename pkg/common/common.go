package common

// Entity represents a node in the knowledge graph. The name is the primary
// key: two extractions naming the same string always refer to the same node.
//
// SourceDocuments accumulates the identifiers of every document that
// contributed to the entity, comma-joined with duplicates suppressed.
type Entity struct {
	Name            string `json:"name"`
	Type            string `json:"type"`
	Description     string `json:"description"`
	SourceDocuments string `json:"source_documents"`
}

// Relation represents a directed, labeled edge between two entities.
// At most one relation exists per ordered (source, target) pair; when
// several relation kinds are observed between the same pair they are folded
// into one record with a comma-joined label.
type Relation struct {
	Source          string `json:"source"`
	Target          string `json:"target"`
	Relation        string `json:"relation"`
	Description     string `json:"description"`
	SourceDocuments string `json:"source_documents"`
}

// Snapshot is a full copy of the graph suitable for serialization.
// Entities and relations are listed in insertion order.
type Snapshot struct {
	Entities  []Entity   `json:"entities"`
	Relations []Relation `json:"relations"`
}

// UnknownEntityType is assigned to extracted entities that arrive without a
// type.
const UnknownEntityType = "unknown"

// DefaultRelationLabel is assigned to extracted relations that arrive
// without a label.
const DefaultRelationLabel = "related_to"

// EntityTypes is the fixed entity type vocabulary offered to the extractor.
// Unexpected types are preserved as-is rather than rejected.
var EntityTypes = []string{
	"organization",
	"person",
	"product/service",
	"concept",
	"location",
	"time",
	"project",
}

// RelationTypes is the fixed relation label vocabulary offered to the
// extractor. As with entity types, unexpected labels are kept.
var RelationTypes = []string{
	"works_at",
	"produces",
	"located_in",
	"belongs_to",
	"uses",
	"collaborates_with",
	"participates_in",
	"owns",
	"develops",
	"applied_to",
}
