package file

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/houmingya/LLM-MCP-TOOLS/pkg/common"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	p := NewFilePersister(t.TempDir())

	snap := common.Snapshot{
		Entities: []common.Entity{
			{Name: "Acme", Type: "organization", Description: "widget maker", SourceDocuments: "a.txt"},
			{Name: "Jane", Type: "person", Description: "engineer", SourceDocuments: "a.txt"},
		},
		Relations: []common.Relation{
			{Source: "Jane", Target: "Acme", Relation: "works_at", Description: "employment", SourceDocuments: "a.txt"},
		},
	}

	if err := p.Save(context.Background(), snap); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := p.Load(context.Background())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(got.Entities) != 2 || len(got.Relations) != 1 {
		t.Fatalf("loaded %d entities, %d relations", len(got.Entities), len(got.Relations))
	}
	if got.Entities[0].Name != "Acme" || got.Entities[0].Description != "widget maker" {
		t.Errorf("unexpected entity: %+v", got.Entities[0])
	}
	if got.Relations[0].Relation != "works_at" {
		t.Errorf("unexpected relation: %+v", got.Relations[0])
	}
}

func TestSaveWritesMetadata(t *testing.T) {
	dir := t.TempDir()
	p := NewFilePersister(dir)

	snap := common.Snapshot{
		Entities: []common.Entity{{Name: "A", Type: "concept"}},
	}
	if err := p.Save(context.Background(), snap); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	raw, err := os.ReadFile(filepath.Join(dir, metadataFileName))
	if err != nil {
		t.Fatalf("metadata missing: %v", err)
	}
	var meta metadata
	if err := json.Unmarshal(raw, &meta); err != nil {
		t.Fatalf("metadata is not valid JSON: %v", err)
	}
	if meta.NodesCount != 1 || meta.EdgesCount != 0 {
		t.Errorf("metadata counts = %d/%d, want 1/0", meta.NodesCount, meta.EdgesCount)
	}
	if len(meta.EntityTypes) == 0 || len(meta.RelationTypes) == 0 {
		t.Error("metadata is missing the vocabularies")
	}
	if meta.LastUpdated == "" {
		t.Error("metadata has no last-updated stamp")
	}
}

func TestLoadMissingImage(t *testing.T) {
	p := NewFilePersister(t.TempDir())

	_, err := p.Load(context.Background())
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected os.ErrNotExist, got %v", err)
	}
}

func TestLoadCorruptImage(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, graphFileName), []byte("not a gob stream"), 0o644); err != nil {
		t.Fatalf("failed to write corrupt image: %v", err)
	}
	p := NewFilePersister(dir)

	_, err := p.Load(context.Background())
	if err == nil {
		t.Fatal("expected an error for a corrupt image")
	}
	if errors.Is(err, os.ErrNotExist) {
		t.Error("corrupt image must not be reported as missing")
	}
}

func TestSaveCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "graph")
	p := NewFilePersister(dir)

	if err := p.Save(context.Background(), common.Snapshot{}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, graphFileName)); err != nil {
		t.Errorf("graph image missing: %v", err)
	}
}

func TestSaveOverwritesAtomically(t *testing.T) {
	dir := t.TempDir()
	p := NewFilePersister(dir)

	first := common.Snapshot{Entities: []common.Entity{{Name: "old"}}}
	if err := p.Save(context.Background(), first); err != nil {
		t.Fatalf("first Save failed: %v", err)
	}
	second := common.Snapshot{Entities: []common.Entity{{Name: "new"}}}
	if err := p.Save(context.Background(), second); err != nil {
		t.Fatalf("second Save failed: %v", err)
	}

	got, err := p.Load(context.Background())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(got.Entities) != 1 || got.Entities[0].Name != "new" {
		t.Errorf("unexpected snapshot after overwrite: %+v", got.Entities)
	}

	// No temp files left behind.
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	for _, entry := range entries {
		if entry.Name() != graphFileName && entry.Name() != metadataFileName {
			t.Errorf("stray file in persistence dir: %s", entry.Name())
		}
	}
}
