package graph

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/houmingya/LLM-MCP-TOOLS/pkg/ai"
	"github.com/houmingya/LLM-MCP-TOOLS/pkg/common"
)

// fakeExtractor returns canned extraction results per chunk text, matched by
// substring. Unmatched chunks yield an empty result.
type fakeExtractor struct {
	mu      sync.Mutex
	results map[string]*ai.ExtractionResult
	errs    map[string]error
	calls   int
}

func (f *fakeExtractor) ExtractEntitiesAndRelations(
	ctx context.Context,
	text string,
	opts ...ai.GenerateOption,
) (*ai.ExtractionResult, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	for key, err := range f.errs {
		if strings.Contains(text, key) {
			return nil, err
		}
	}
	for key, res := range f.results {
		if strings.Contains(text, key) {
			return res, nil
		}
	}
	return &ai.ExtractionResult{}, nil
}

func (f *fakeExtractor) GetMetrics() ai.ModelMetrics { return ai.ModelMetrics{} }
func (f *fakeExtractor) ResetMetrics()               {}

type memPersister struct {
	mu      sync.Mutex
	snap    *common.Snapshot
	saves   int
	saveErr error
}

func (p *memPersister) Save(ctx context.Context, snap common.Snapshot) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.saves++
	if p.saveErr != nil {
		return p.saveErr
	}
	p.snap = &snap
	return nil
}

func (p *memPersister) Load(ctx context.Context) (*common.Snapshot, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.snap == nil {
		return nil, errors.New("no snapshot")
	}
	return p.snap, nil
}

func newTestEngine(t *testing.T, persister *memPersister) *Engine {
	t.Helper()
	engine, err := NewEngine(NewEngineParams{
		Store:      NewStore(),
		Persister:  persister,
		MaxRetries: 1,
	})
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	return engine
}

func TestBuildFromDocument(t *testing.T) {
	extractor := &fakeExtractor{
		results: map[string]*ai.ExtractionResult{
			"acme": {
				Entities: []ai.ExtractedEntity{
					{Name: "Acme", Type: "organization", Description: "widget maker"},
					{Name: "Alice", Type: "person", Description: "engineer at Acme"},
					{Name: "Acme", Type: "organization", Description: "duplicate, should be ignored"},
					{Name: "", Type: "concept", Description: "nameless"},
				},
				Relations: []ai.ExtractedRelation{
					{Source: "Alice", Target: "Acme", Relation: "works_at", Description: "Alice works at Acme"},
					{Source: "Alice", Target: "Gadget", Relation: "develops"},
				},
			},
		},
	}
	persister := &memPersister{}
	engine := newTestEngine(t, persister)

	result, err := engine.BuildFromDocument(context.Background(), "acme text", "acme.txt", extractor)
	if err != nil {
		t.Fatalf("BuildFromDocument failed: %v", err)
	}

	if result.BuildID == "" {
		t.Error("result has no build ID")
	}
	if result.NewEntities != 2 || result.UpdatedEntities != 0 {
		t.Errorf("entities: %d new, %d updated", result.NewEntities, result.UpdatedEntities)
	}
	if result.NewRelations != 1 || result.UpdatedRelations != 0 {
		t.Errorf("relations: %d new, %d updated", result.NewRelations, result.UpdatedRelations)
	}
	if result.SkippedRelationsCount != 1 {
		t.Errorf("skipped = %d, want 1", result.SkippedRelationsCount)
	}
	if len(result.SkippedRelations) != 1 {
		t.Fatalf("skipped sample length = %d", len(result.SkippedRelations))
	}
	skipped := result.SkippedRelations[0]
	if skipped.Target != "Gadget" || !strings.Contains(skipped.Missing, "target entity") {
		t.Errorf("unexpected skip record: %+v", skipped)
	}
	if !result.Persisted {
		t.Error("expected result to be persisted")
	}
	if persister.saves != 1 {
		t.Errorf("saves = %d, want 1", persister.saves)
	}

	entity, err := engine.Store().GetEntity("Acme")
	if err != nil {
		t.Fatalf("GetEntity failed: %v", err)
	}
	if entity.Description != "widget maker" {
		t.Errorf("first extraction must win the batch, got %q", entity.Description)
	}
	if entity.SourceDocuments != "acme.txt" {
		t.Errorf("source documents = %q", entity.SourceDocuments)
	}
}

func TestBuildFromDocumentIdempotent(t *testing.T) {
	extractor := &fakeExtractor{
		results: map[string]*ai.ExtractionResult{
			"acme": {
				Entities: []ai.ExtractedEntity{
					{Name: "Acme", Type: "organization", Description: "widget maker"},
					{Name: "Alice", Type: "person", Description: "engineer"},
				},
				Relations: []ai.ExtractedRelation{
					{Source: "Alice", Target: "Acme", Relation: "works_at", Description: "employment"},
				},
			},
		},
	}
	persister := &memPersister{}
	engine := newTestEngine(t, persister)

	first, err := engine.BuildFromDocument(context.Background(), "acme text", "acme.txt", extractor)
	if err != nil {
		t.Fatalf("first build failed: %v", err)
	}
	second, err := engine.BuildFromDocument(context.Background(), "acme text", "acme.txt", extractor)
	if err != nil {
		t.Fatalf("second build failed: %v", err)
	}

	if second.NewEntities != 0 || second.UpdatedEntities != 2 {
		t.Errorf("second build entities: %d new, %d updated", second.NewEntities, second.UpdatedEntities)
	}
	if second.NewRelations != 0 || second.UpdatedRelations != 1 {
		t.Errorf("second build relations: %d new, %d updated", second.NewRelations, second.UpdatedRelations)
	}
	if second.TotalNodes != first.TotalNodes || second.TotalEdges != first.TotalEdges {
		t.Errorf("rebuild grew the graph: %d/%d vs %d/%d",
			second.TotalNodes, second.TotalEdges, first.TotalNodes, first.TotalEdges)
	}

	edge, err := engine.Store().GetEdge("Alice", "Acme")
	if err != nil {
		t.Fatalf("GetEdge failed: %v", err)
	}
	if edge.Description != "employment" {
		t.Errorf("rebuild duplicated the description: %q", edge.Description)
	}
	if edge.SourceDocuments != "acme.txt" {
		t.Errorf("rebuild duplicated the source document: %q", edge.SourceDocuments)
	}
}

func TestBuildFromDocumentDefaults(t *testing.T) {
	extractor := &fakeExtractor{
		results: map[string]*ai.ExtractionResult{
			"doc": {
				Entities: []ai.ExtractedEntity{
					{Name: "A"},
					{Name: "B"},
				},
				Relations: []ai.ExtractedRelation{
					{Source: "A", Target: "B"},
				},
			},
		},
	}
	engine := newTestEngine(t, &memPersister{})

	if _, err := engine.BuildFromDocument(context.Background(), "doc", "d.txt", extractor); err != nil {
		t.Fatalf("BuildFromDocument failed: %v", err)
	}

	entity, _ := engine.Store().GetEntity("A")
	if entity.Type != common.UnknownEntityType {
		t.Errorf("entity type = %q, want %q", entity.Type, common.UnknownEntityType)
	}
	edge, err := engine.Store().GetEdge("A", "B")
	if err != nil {
		t.Fatalf("GetEdge failed: %v", err)
	}
	if edge.Relation != common.DefaultRelationLabel {
		t.Errorf("relation label = %q, want %q", edge.Relation, common.DefaultRelationLabel)
	}
}

func TestBuildFromDocumentChunkFailureDegrades(t *testing.T) {
	// Two chunks: the first fails permanently, the second extracts fine.
	good := strings.Repeat("good data here\n", 80)
	bad := strings.Repeat("bad data here\n", 80)

	extractor := &fakeExtractor{
		results: map[string]*ai.ExtractionResult{
			"good": {
				Entities: []ai.ExtractedEntity{
					{Name: "Survivor", Type: "concept", Description: "made it through"},
				},
			},
		},
		errs: map[string]error{
			"bad": errors.New("model unavailable"),
		},
	}
	persister := &memPersister{}
	engine := newTestEngine(t, persister)

	result, err := engine.BuildFromDocument(context.Background(), bad+good, "mixed.txt", extractor)
	if err != nil {
		t.Fatalf("BuildFromDocument failed: %v", err)
	}

	if result.NewEntities != 1 {
		t.Errorf("new entities = %d, want 1", result.NewEntities)
	}
	if len(result.ExtractionErrors) == 0 {
		t.Error("expected extraction errors to be reported")
	}
	if !engine.Store().HasEntity("Survivor") {
		t.Error("surviving chunk's entity missing")
	}
	if !result.Persisted {
		t.Error("partial result must still be persisted")
	}
}

func TestBuildFromDocumentSaveFailure(t *testing.T) {
	extractor := &fakeExtractor{
		results: map[string]*ai.ExtractionResult{
			"doc": {
				Entities: []ai.ExtractedEntity{{Name: "Kept", Type: "concept"}},
			},
		},
	}
	persister := &memPersister{saveErr: errors.New("disk full")}
	engine := newTestEngine(t, persister)

	result, err := engine.BuildFromDocument(context.Background(), "doc", "d.txt", extractor)
	if err != nil {
		t.Fatalf("BuildFromDocument failed: %v", err)
	}
	if result.Persisted {
		t.Error("expected persisted=false on save failure")
	}
	// The in-memory merge survives a failed flush.
	if !engine.Store().HasEntity("Kept") {
		t.Error("failed save must not roll back the merge")
	}
}

func TestClear(t *testing.T) {
	persister := &memPersister{}
	engine := newTestEngine(t, persister)
	if err := engine.Store().AddEntity("A", "concept", "", "d"); err != nil {
		t.Fatalf("AddEntity failed: %v", err)
	}

	if !engine.Clear(context.Background()) {
		t.Error("Clear reported a failed flush")
	}
	if engine.Store().NodeCount() != 0 {
		t.Errorf("node count after clear = %d", engine.Store().NodeCount())
	}
	if persister.snap == nil || len(persister.snap.Entities) != 0 {
		t.Error("empty image was not flushed")
	}
}

func TestLoadMissingImageStartsEmpty(t *testing.T) {
	engine := newTestEngine(t, &memPersister{})
	engine.Load(context.Background())
	if engine.Store().NodeCount() != 0 {
		t.Errorf("node count = %d, want 0", engine.Store().NodeCount())
	}
}

func TestLoadRestoresImage(t *testing.T) {
	persister := &memPersister{
		snap: &common.Snapshot{
			Entities: []common.Entity{
				{Name: "A", Type: "concept"},
				{Name: "B", Type: "concept"},
			},
			Relations: []common.Relation{
				{Source: "A", Target: "B", Relation: "uses"},
			},
		},
	}
	engine := newTestEngine(t, persister)
	engine.Load(context.Background())

	if engine.Store().NodeCount() != 2 || engine.Store().EdgeCount() != 1 {
		t.Errorf("restored %d nodes, %d edges", engine.Store().NodeCount(), engine.Store().EdgeCount())
	}
}
