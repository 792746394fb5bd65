package graph

import (
	"errors"
	"testing"

	"github.com/houmingya/LLM-MCP-TOOLS/pkg/common"
)

func TestAddEntityAndGet(t *testing.T) {
	s := NewStore()

	if err := s.AddEntity("OpenAI", "organization", "AI research company", "intro.txt"); err != nil {
		t.Fatalf("AddEntity failed: %v", err)
	}

	got, err := s.GetEntity("OpenAI")
	if err != nil {
		t.Fatalf("GetEntity failed: %v", err)
	}
	if got.Type != "organization" || got.Description != "AI research company" || got.SourceDocuments != "intro.txt" {
		t.Errorf("unexpected entity: %+v", got)
	}

	if err := s.AddEntity("OpenAI", "organization", "", ""); !errors.Is(err, ErrDuplicateEntity) {
		t.Errorf("expected ErrDuplicateEntity, got %v", err)
	}
	if _, err := s.GetEntity("missing"); !errors.Is(err, ErrEntityNotFound) {
		t.Errorf("expected ErrEntityNotFound, got %v", err)
	}
}

func TestAddEntityDefaultsType(t *testing.T) {
	s := NewStore()
	if err := s.AddEntity("Thing", "", "", "doc.txt"); err != nil {
		t.Fatalf("AddEntity failed: %v", err)
	}
	got, _ := s.GetEntity("Thing")
	if got.Type != common.UnknownEntityType {
		t.Errorf("expected type %q, got %q", common.UnknownEntityType, got.Type)
	}
}

func TestMergeEntityAttributes(t *testing.T) {
	tests := []struct {
		name            string
		initialDesc     string
		initialDocs     string
		mergeDesc       string
		mergeDoc        string
		wantDescription string
		wantDocs        string
	}{
		{
			name:            "longer description replaces",
			initialDesc:     "short",
			initialDocs:     "a.txt",
			mergeDesc:       "a much longer description",
			mergeDoc:        "b.txt",
			wantDescription: "a much longer description",
			wantDocs:        "a.txt, b.txt",
		},
		{
			name:            "shorter description kept",
			initialDesc:     "the existing long description",
			initialDocs:     "a.txt",
			mergeDesc:       "tiny",
			mergeDoc:        "b.txt",
			wantDescription: "the existing long description",
			wantDocs:        "a.txt, b.txt",
		},
		{
			name:            "equal length kept",
			initialDesc:     "12345",
			initialDocs:     "a.txt",
			mergeDesc:       "abcde",
			mergeDoc:        "a.txt",
			wantDescription: "12345",
			wantDocs:        "a.txt",
		},
		{
			name:            "empty description ignored",
			initialDesc:     "",
			initialDocs:     "a.txt",
			mergeDesc:       "",
			mergeDoc:        "b.txt",
			wantDescription: "",
			wantDocs:        "a.txt, b.txt",
		},
		{
			name:            "known document not duplicated",
			initialDesc:     "desc",
			initialDocs:     "a.txt, b.txt",
			mergeDesc:       "",
			mergeDoc:        "b.txt",
			wantDescription: "desc",
			wantDocs:        "a.txt, b.txt",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStore()
			if err := s.AddEntity("E", "concept", tt.initialDesc, tt.initialDocs); err != nil {
				t.Fatalf("AddEntity failed: %v", err)
			}
			if err := s.MergeEntityAttributes("E", tt.mergeDesc, tt.mergeDoc); err != nil {
				t.Fatalf("MergeEntityAttributes failed: %v", err)
			}
			got, _ := s.GetEntity("E")
			if got.Description != tt.wantDescription {
				t.Errorf("description = %q, want %q", got.Description, tt.wantDescription)
			}
			if got.SourceDocuments != tt.wantDocs {
				t.Errorf("source documents = %q, want %q", got.SourceDocuments, tt.wantDocs)
			}
		})
	}
}

func TestAddEdgeRequiresEndpoints(t *testing.T) {
	s := NewStore()
	if err := s.AddEntity("A", "concept", "", "d.txt"); err != nil {
		t.Fatalf("AddEntity failed: %v", err)
	}

	if err := s.AddEdge("A", "B", "uses", "", "d.txt"); !errors.Is(err, ErrUnknownEndpoint) {
		t.Errorf("expected ErrUnknownEndpoint, got %v", err)
	}
	if err := s.AddEdge("B", "A", "uses", "", "d.txt"); !errors.Is(err, ErrUnknownEndpoint) {
		t.Errorf("expected ErrUnknownEndpoint, got %v", err)
	}
	if s.EdgeCount() != 0 {
		t.Errorf("expected 0 edges, got %d", s.EdgeCount())
	}
}

func TestEdgeDirectionality(t *testing.T) {
	s := NewStore()
	for _, name := range []string{"A", "B"} {
		if err := s.AddEntity(name, "concept", "", "d.txt"); err != nil {
			t.Fatalf("AddEntity failed: %v", err)
		}
	}
	if err := s.AddEdge("A", "B", "uses", "A uses B", "d.txt"); err != nil {
		t.Fatalf("AddEdge failed: %v", err)
	}

	if !s.HasEdge("A", "B") {
		t.Error("expected edge A -> B")
	}
	if s.HasEdge("B", "A") {
		t.Error("did not expect edge B -> A")
	}

	// The reverse direction is an independent edge.
	if err := s.AddEdge("B", "A", "supplies", "", "d.txt"); err != nil {
		t.Fatalf("AddEdge reverse failed: %v", err)
	}
	if s.EdgeCount() != 2 {
		t.Errorf("expected 2 edges, got %d", s.EdgeCount())
	}
}

func TestMergeEdgeAttributesSameLabel(t *testing.T) {
	s := NewStore()
	for _, name := range []string{"A", "B"} {
		if err := s.AddEntity(name, "concept", "", "a.txt"); err != nil {
			t.Fatalf("AddEntity failed: %v", err)
		}
	}
	if err := s.AddEdge("A", "B", "works_at", "A is employed by B", "a.txt"); err != nil {
		t.Fatalf("AddEdge failed: %v", err)
	}

	if err := s.MergeEdgeAttributes("A", "B", "works_at", "A leads a team at B", "b.txt"); err != nil {
		t.Fatalf("MergeEdgeAttributes failed: %v", err)
	}
	edge, _ := s.GetEdge("A", "B")
	if edge.Relation != "works_at" {
		t.Errorf("relation = %q, want %q", edge.Relation, "works_at")
	}
	if edge.Description != "A is employed by B; A leads a team at B" {
		t.Errorf("description = %q", edge.Description)
	}
	if edge.SourceDocuments != "a.txt, b.txt" {
		t.Errorf("source documents = %q", edge.SourceDocuments)
	}

	// A contained description is not re-appended.
	if err := s.MergeEdgeAttributes("A", "B", "works_at", "employed by B", "c.txt"); err != nil {
		t.Fatalf("MergeEdgeAttributes failed: %v", err)
	}
	edge, _ = s.GetEdge("A", "B")
	if edge.Description != "A is employed by B; A leads a team at B" {
		t.Errorf("description changed unexpectedly: %q", edge.Description)
	}
	if edge.SourceDocuments != "a.txt, b.txt, c.txt" {
		t.Errorf("source documents = %q", edge.SourceDocuments)
	}
}

func TestMergeEdgeAttributesDifferentLabel(t *testing.T) {
	s := NewStore()
	for _, name := range []string{"A", "B"} {
		if err := s.AddEntity(name, "concept", "", "a.txt"); err != nil {
			t.Fatalf("AddEntity failed: %v", err)
		}
	}
	if err := s.AddEdge("A", "B", "works_at", "A works at B", "a.txt"); err != nil {
		t.Fatalf("AddEdge failed: %v", err)
	}

	if err := s.MergeEdgeAttributes("A", "B", "owns", "A owns part of B", "b.txt"); err != nil {
		t.Fatalf("MergeEdgeAttributes failed: %v", err)
	}
	edge, _ := s.GetEdge("A", "B")
	if edge.Relation != "works_at, owns" {
		t.Errorf("relation = %q, want %q", edge.Relation, "works_at, owns")
	}
	if edge.Description != "A works at B; [owns] A owns part of B" {
		t.Errorf("description = %q", edge.Description)
	}
	// Source documents are not accumulated on the alternate-label path.
	if edge.SourceDocuments != "a.txt" {
		t.Errorf("source documents = %q, want %q", edge.SourceDocuments, "a.txt")
	}

	// Replaying the same alternate label is a no-op.
	if err := s.MergeEdgeAttributes("A", "B", "owns", "A owns part of B", "b.txt"); err != nil {
		t.Fatalf("MergeEdgeAttributes failed: %v", err)
	}
	edge, _ = s.GetEdge("A", "B")
	if edge.Relation != "works_at, owns" {
		t.Errorf("relation grew on replay: %q", edge.Relation)
	}
}

func TestDensity(t *testing.T) {
	s := NewStore()
	if got := s.Density(); got != 0 {
		t.Errorf("empty graph density = %v, want 0", got)
	}

	if err := s.AddEntity("A", "concept", "", "d"); err != nil {
		t.Fatalf("AddEntity failed: %v", err)
	}
	if got := s.Density(); got != 0 {
		t.Errorf("single node density = %v, want 0", got)
	}

	for _, name := range []string{"B", "C"} {
		if err := s.AddEntity(name, "concept", "", "d"); err != nil {
			t.Fatalf("AddEntity failed: %v", err)
		}
	}
	if err := s.AddEdge("A", "B", "uses", "", "d"); err != nil {
		t.Fatalf("AddEdge failed: %v", err)
	}
	if err := s.AddEdge("B", "C", "uses", "", "d"); err != nil {
		t.Fatalf("AddEdge failed: %v", err)
	}
	// 2 edges over 3*2 ordered pairs.
	if got, want := s.Density(), 2.0/6.0; got != want {
		t.Errorf("density = %v, want %v", got, want)
	}
}

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	s := NewStore()
	for _, name := range []string{"A", "B", "C"} {
		if err := s.AddEntity(name, "concept", "desc "+name, "d.txt"); err != nil {
			t.Fatalf("AddEntity failed: %v", err)
		}
	}
	if err := s.AddEdge("A", "B", "uses", "", "d.txt"); err != nil {
		t.Fatalf("AddEdge failed: %v", err)
	}
	if err := s.AddEdge("B", "C", "produces", "", "d.txt"); err != nil {
		t.Fatalf("AddEdge failed: %v", err)
	}

	snap := s.Snapshot()

	restored := NewStore()
	restored.Restore(snap)

	if restored.NodeCount() != 3 || restored.EdgeCount() != 2 {
		t.Fatalf("restored counts = %d nodes, %d edges", restored.NodeCount(), restored.EdgeCount())
	}
	got, err := restored.GetEntity("B")
	if err != nil {
		t.Fatalf("GetEntity after restore failed: %v", err)
	}
	if got.Description != "desc B" {
		t.Errorf("description = %q", got.Description)
	}
	if !restored.HasEdge("A", "B") || !restored.HasEdge("B", "C") {
		t.Error("edges missing after restore")
	}
}

func TestRestoreDropsDanglingEdges(t *testing.T) {
	snap := common.Snapshot{
		Entities: []common.Entity{
			{Name: "A", Type: "concept"},
		},
		Relations: []common.Relation{
			{Source: "A", Target: "ghost", Relation: "uses"},
			{Source: "ghost", Target: "A", Relation: "uses"},
		},
	}

	s := NewStore()
	s.Restore(snap)

	if s.NodeCount() != 1 {
		t.Errorf("node count = %d, want 1", s.NodeCount())
	}
	if s.EdgeCount() != 0 {
		t.Errorf("edge count = %d, want 0", s.EdgeCount())
	}
}

func TestNeighborhoodAccessors(t *testing.T) {
	s := NewStore()
	for _, name := range []string{"A", "B", "C"} {
		if err := s.AddEntity(name, "concept", "", "d"); err != nil {
			t.Fatalf("AddEntity failed: %v", err)
		}
	}
	if err := s.AddEdge("A", "B", "uses", "", "d"); err != nil {
		t.Fatalf("AddEdge failed: %v", err)
	}
	if err := s.AddEdge("A", "C", "owns", "", "d"); err != nil {
		t.Fatalf("AddEdge failed: %v", err)
	}
	if err := s.AddEdge("C", "B", "supplies", "", "d"); err != nil {
		t.Fatalf("AddEdge failed: %v", err)
	}

	out := s.OutgoingRelations("A")
	if len(out) != 2 || out[0].Target != "B" || out[1].Target != "C" {
		t.Errorf("unexpected outgoing relations: %+v", out)
	}
	in := s.IncomingRelations("B")
	if len(in) != 2 || in[0].Source != "A" || in[1].Source != "C" {
		t.Errorf("unexpected incoming relations: %+v", in)
	}
	succ := s.Successors("A")
	if len(succ) != 2 || succ[0] != "B" || succ[1] != "C" {
		t.Errorf("unexpected successors: %v", succ)
	}
	if got := s.Successors("B"); len(got) != 0 {
		t.Errorf("expected no successors for B, got %v", got)
	}
}
