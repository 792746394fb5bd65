package file

import (
	"context"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/houmingya/LLM-MCP-TOOLS/pkg/common"
)

const (
	graphFileName    = "knowledge_graph.gob"
	metadataFileName = "metadata.json"
)

type metadata struct {
	NodesCount    int      `json:"nodes_count"`
	EdgesCount    int      `json:"edges_count"`
	EntityTypes   []string `json:"entity_types"`
	RelationTypes []string `json:"relation_types"`
	LastUpdated   string   `json:"last_updated"`
}

// FilePersister stores the graph image on local disk: a gob-encoded
// snapshot next to a human-readable metadata document with summary counters
// and the fixed vocabularies.
type FilePersister struct {
	dir string
}

// NewFilePersister creates a persister rooted at dir. The directory is
// created on the first Save.
func NewFilePersister(dir string) *FilePersister {
	return &FilePersister{dir: dir}
}

func (p *FilePersister) graphPath() string {
	return filepath.Join(p.dir, graphFileName)
}

func (p *FilePersister) metadataPath() string {
	return filepath.Join(p.dir, metadataFileName)
}

// Save writes the snapshot to disk. The graph image goes through a temp
// file and rename so a crash mid-write never corrupts the previous image.
func (p *FilePersister) Save(ctx context.Context, snap common.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(p.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create persistence directory: %w", err)
	}

	tmp, err := os.CreateTemp(p.dir, graphFileName+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp graph file: %w", err)
	}
	if err := gob.NewEncoder(tmp).Encode(snap); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to encode graph: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to close temp graph file: %w", err)
	}
	if err := os.Rename(tmp.Name(), p.graphPath()); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to replace graph file: %w", err)
	}

	meta := metadata{
		NodesCount:    len(snap.Entities),
		EdgesCount:    len(snap.Relations),
		EntityTypes:   common.EntityTypes,
		RelationTypes: common.RelationTypes,
		LastUpdated:   time.Now().UTC().Format(time.RFC3339),
	}
	metaBytes, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode metadata: %w", err)
	}
	if err := os.WriteFile(p.metadataPath(), metaBytes, 0o644); err != nil {
		return fmt.Errorf("failed to write metadata: %w", err)
	}

	return nil
}

// Load reads the snapshot from disk. A missing image is reported as
// os.ErrNotExist so callers can distinguish "start fresh" from a corrupt
// or unreadable image.
func (p *FilePersister) Load(ctx context.Context) (*common.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(p.graphPath())
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var snap common.Snapshot
	if err := gob.NewDecoder(f).Decode(&snap); err != nil {
		return nil, fmt.Errorf("failed to decode graph image: %w", err)
	}

	return &snap, nil
}
