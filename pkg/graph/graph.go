package graph

import (
	"context"
	"errors"
	"io/fs"
	"sync"

	"github.com/houmingya/LLM-MCP-TOOLS/pkg/logger"
	"github.com/houmingya/LLM-MCP-TOOLS/pkg/store"
)

// Engine integrates extraction results into the graph store and ties the
// store to its durable image. It is the only component that mutates the
// store.
//
// Builds are serialized by an internal mutex: the integrate-and-persist
// sequence is a multi-step read-modify-write and must not interleave with
// another build. Queries read the store directly and are not blocked by
// this mutex.
//
// An Engine should be created using NewEngine.
type Engine struct {
	store     *Store
	persister store.GraphPersister

	parallelExtractions int
	maxRetries          int

	buildMu sync.Mutex
}

// NewEngineParams defines the configuration for creating an Engine.
//
// ParallelExtractions bounds how many chunk extraction calls run
// concurrently. MaxRetries bounds attempts per chunk before the chunk
// degrades to zero candidates.
type NewEngineParams struct {
	Store     *Store
	Persister store.GraphPersister

	ParallelExtractions int
	MaxRetries          int
}

// NewEngine creates an Engine over the given store and persister.
func NewEngine(params NewEngineParams) (*Engine, error) {
	if params.Store == nil {
		return nil, errors.New("engine requires a store")
	}
	if params.Persister == nil {
		return nil, errors.New("engine requires a persister")
	}
	parallel := params.ParallelExtractions
	if parallel <= 0 {
		parallel = 4
	}
	maxRetries := params.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return &Engine{
		store:               params.Store,
		persister:           params.Persister,
		parallelExtractions: parallel,
		maxRetries:          maxRetries,
	}, nil
}

// Store exposes the underlying graph store for read-only consumers.
func (e *Engine) Store() *Store {
	return e.store
}

// Load restores the graph from its on-disk image. A missing image leaves
// the graph empty; a corrupt one resets it to empty. Neither is fatal, the
// engine degrades to a fresh graph and logs what happened.
func (e *Engine) Load(ctx context.Context) {
	snap, err := e.persister.Load(ctx)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logger.Debug("[Graph] No saved graph image found, starting with an empty graph")
		} else {
			logger.Warn("[Graph] Failed to load graph image, starting with an empty graph", "err", err)
		}
		e.store.Clear()
		return
	}

	e.store.Restore(*snap)
	logger.Info(
		"[Graph] Loaded graph image",
		"nodes", e.store.NodeCount(),
		"edges", e.store.EdgeCount(),
	)
}

// Save flushes the current graph to disk.
func (e *Engine) Save(ctx context.Context) error {
	if err := e.persister.Save(ctx, e.store.Snapshot()); err != nil {
		logger.Error("[Graph] Failed to save graph image", "err", err)
		return err
	}
	logger.Info(
		"[Graph] Saved graph image",
		"nodes", e.store.NodeCount(),
		"edges", e.store.EdgeCount(),
	)
	return nil
}

// Clear empties the graph and flushes the empty image to disk. It returns
// whether the flush succeeded; the in-memory clear happens regardless.
func (e *Engine) Clear(ctx context.Context) bool {
	e.buildMu.Lock()
	defer e.buildMu.Unlock()

	oldNodes := e.store.NodeCount()
	oldEdges := e.store.EdgeCount()
	e.store.Clear()
	logger.Info("[Graph] Graph cleared", "old_nodes", oldNodes, "old_edges", oldEdges)

	return e.Save(ctx) == nil
}
