package store

import (
	"context"

	"github.com/houmingya/LLM-MCP-TOOLS/pkg/common"
)

// GraphPersister owns the durable image of the graph. It is the only
// component allowed to read or write that image.
//
// Save and Load report failures as ordinary errors; callers treat them as
// non-fatal. A failed Save leaves the in-memory graph ahead of disk until
// the next successful one, and a missing or unreadable image on Load
// degrades to an empty graph.
type GraphPersister interface {
	Save(ctx context.Context, snap common.Snapshot) error
	Load(ctx context.Context) (*common.Snapshot, error)
}
