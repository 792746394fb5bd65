package graph

import (
	"context"
	"fmt"
	"strings"

	"github.com/houmingya/LLM-MCP-TOOLS/pkg/ai"
	"github.com/houmingya/LLM-MCP-TOOLS/pkg/common"
	"github.com/houmingya/LLM-MCP-TOOLS/internal/util"
	"github.com/houmingya/LLM-MCP-TOOLS/pkg/logger"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"golang.org/x/sync/errgroup"
)

// skippedSampleSize bounds how many skipped relations a build result
// carries. The full count is always reported.
const skippedSampleSize = 10

// SkippedRelation records a relation candidate dropped during integration
// because one or both endpoints were absent from the graph.
type SkippedRelation struct {
	Source   string `json:"source"`
	Target   string `json:"target"`
	Relation string `json:"relation"`
	Missing  string `json:"missing"`
}

// BuildResult summarizes one document integration.
type BuildResult struct {
	BuildID  string `json:"build_id"`
	Filename string `json:"filename"`

	NewEntities     int `json:"new_entities"`
	UpdatedEntities int `json:"updated_entities"`
	EntitiesCount   int `json:"entities_count"`

	NewRelations          int               `json:"new_relations"`
	UpdatedRelations      int               `json:"updated_relations"`
	RelationsCount        int               `json:"relations_count"`
	SkippedRelationsCount int               `json:"skipped_relations_count"`
	SkippedRelations      []SkippedRelation `json:"skipped_relations,omitempty"`

	TotalNodes int `json:"total_nodes"`
	TotalEdges int `json:"total_edges"`

	Persisted        bool     `json:"persisted"`
	ExtractionErrors []string `json:"extraction_errors,omitempty"`
	Message          string   `json:"message"`
}

// BuildFromDocument integrates one document into the graph: the text is
// chunked, each chunk is run through the extractor, candidates are deduped
// and merged into the store, and the result is flushed to disk.
//
// The operation is idempotent with respect to document content: rebuilding
// the same document reports updates instead of duplicating data. It is not
// atomic across chunks; a chunk whose extraction fails (after retries)
// contributes zero candidates while the rest of the document still lands.
// A failed flush leaves the in-memory graph ahead of disk and is reported
// through the Persisted field, never as an error.
func (e *Engine) BuildFromDocument(
	ctx context.Context,
	content string,
	filename string,
	client ai.ExtractorClient,
) (*BuildResult, error) {
	buildID, err := gonanoid.New()
	if err != nil {
		return nil, fmt.Errorf("failed to generate build ID: %w", err)
	}

	chunks, err := splitIntoChunks(content, maxChunkRunes)
	if err != nil {
		return nil, fmt.Errorf("failed to chunk document: %w", err)
	}

	logger.Info(
		"[Graph] Building from document",
		"build_id", buildID,
		"filename", filename,
		"chunks", len(chunks),
	)

	entities, relations, extractionErrors := e.extractChunks(ctx, chunks, filename, client)

	result := &BuildResult{
		BuildID:          buildID,
		Filename:         filename,
		ExtractionErrors: extractionErrors,
	}

	// Integration and persist run under the build mutex: the read-then-write
	// sequence below must not interleave with another build on overlapping
	// entity names.
	e.buildMu.Lock()
	defer e.buildMu.Unlock()

	deduped := dedupeEntities(entities)
	result.EntitiesCount = len(deduped)
	e.integrateEntities(deduped, filename, result)
	e.integrateRelations(relations, filename, result)

	result.TotalNodes = e.store.NodeCount()
	result.TotalEdges = e.store.EdgeCount()
	result.Persisted = e.Save(ctx) == nil

	message := fmt.Sprintf(
		"knowledge graph updated: %d new and %d updated entities, %d new and %d updated relations",
		result.NewEntities, result.UpdatedEntities,
		result.NewRelations, result.UpdatedRelations,
	)
	if result.SkippedRelationsCount > 0 {
		message += fmt.Sprintf(" (%d relations skipped, missing entities)", result.SkippedRelationsCount)
	}
	result.Message = message

	logger.Info(
		"[Graph] Build completed",
		"build_id", buildID,
		"filename", filename,
		"new_entities", result.NewEntities,
		"updated_entities", result.UpdatedEntities,
		"new_relations", result.NewRelations,
		"updated_relations", result.UpdatedRelations,
		"skipped_relations", result.SkippedRelationsCount,
		"total_nodes", result.TotalNodes,
		"total_edges", result.TotalEdges,
		"persisted", result.Persisted,
	)

	return result, nil
}

// extractChunks runs the extractor over every chunk with bounded
// parallelism. Chunk order is preserved in the flattened candidate lists.
// A chunk whose extraction fails after retries contributes nothing; the
// error is collected instead of aborting the build.
func (e *Engine) extractChunks(
	ctx context.Context,
	chunks []processChunk,
	filename string,
	client ai.ExtractorClient,
) ([]ai.ExtractedEntity, []ai.ExtractedRelation, []string) {
	results := make([]*ai.ExtractionResult, len(chunks))
	chunkErrs := make([]error, len(chunks))

	eg, gCtx := errgroup.WithContext(ctx)
	eg.SetLimit(e.parallelExtractions)

	for i, chunk := range chunks {
		eg.Go(func() error {
			res, err := util.RetryWithContext(gCtx, e.maxRetries, func(ctx context.Context) (*ai.ExtractionResult, error) {
				return client.ExtractEntitiesAndRelations(ctx, chunk.text)
			})
			if err != nil {
				logger.Warn(
					"[Graph] Chunk extraction failed, continuing without it",
					"filename", filename,
					"chunk", chunk.index,
					"chunk_id", chunk.id,
					"err", err,
				)
				chunkErrs[i] = err
				return nil
			}
			results[i] = res
			return nil
		})
	}
	// Goroutines only record failures, so Wait cannot return an error here.
	_ = eg.Wait()

	var entities []ai.ExtractedEntity
	var relations []ai.ExtractedRelation
	var errStrings []string
	for i := range chunks {
		if chunkErrs[i] != nil {
			errStrings = append(errStrings, fmt.Sprintf("chunk %d: %v", i, chunkErrs[i]))
			continue
		}
		if results[i] == nil {
			continue
		}
		entities = append(entities, results[i].Entities...)
		relations = append(relations, results[i].Relations...)
	}

	return entities, relations, errStrings
}

// dedupeEntities collapses the accumulated candidate list to one entry per
// name, first occurrence wins. Candidates without a name are dropped.
func dedupeEntities(entities []ai.ExtractedEntity) []ai.ExtractedEntity {
	seen := make(map[string]struct{}, len(entities))
	deduped := make([]ai.ExtractedEntity, 0, len(entities))
	for _, entity := range entities {
		if entity.Name == "" {
			continue
		}
		if _, ok := seen[entity.Name]; ok {
			continue
		}
		seen[entity.Name] = struct{}{}
		deduped = append(deduped, entity)
	}
	return deduped
}

func (e *Engine) integrateEntities(
	entities []ai.ExtractedEntity,
	filename string,
	result *BuildResult,
) {
	for _, entity := range entities {
		if e.store.HasEntity(entity.Name) {
			if err := e.store.MergeEntityAttributes(entity.Name, entity.Description, filename); err == nil {
				result.UpdatedEntities++
			}
			continue
		}

		entityType := entity.Type
		if entityType == "" {
			entityType = common.UnknownEntityType
		}
		if err := e.store.AddEntity(entity.Name, entityType, entity.Description, filename); err == nil {
			result.NewEntities++
		}
	}
}

// integrateRelations processes relation candidates in arrival order.
// Candidates referencing entities absent from the graph are skipped and
// recorded; the engine never synthesizes nodes from relation text.
func (e *Engine) integrateRelations(
	relations []ai.ExtractedRelation,
	filename string,
	result *BuildResult,
) {
	for _, relation := range relations {
		label := relation.Relation
		if label == "" {
			label = common.DefaultRelationLabel
		}

		var missing []string
		if !e.store.HasEntity(relation.Source) {
			missing = append(missing, fmt.Sprintf("source entity %q", relation.Source))
		}
		if !e.store.HasEntity(relation.Target) {
			missing = append(missing, fmt.Sprintf("target entity %q", relation.Target))
		}
		if len(missing) > 0 {
			result.SkippedRelationsCount++
			if len(result.SkippedRelations) < skippedSampleSize {
				result.SkippedRelations = append(result.SkippedRelations, SkippedRelation{
					Source:   relation.Source,
					Target:   relation.Target,
					Relation: label,
					Missing:  strings.Join(missing, ", "),
				})
			}
			logger.Debug(
				"[Graph] Skipping relation with missing endpoints",
				"source", relation.Source,
				"target", relation.Target,
				"relation", label,
				"missing", strings.Join(missing, ", "),
			)
			continue
		}

		if e.store.HasEdge(relation.Source, relation.Target) {
			if err := e.store.MergeEdgeAttributes(relation.Source, relation.Target, label, relation.Description, filename); err == nil {
				result.UpdatedRelations++
			}
			continue
		}
		if err := e.store.AddEdge(relation.Source, relation.Target, label, relation.Description, filename); err == nil {
			result.NewRelations++
		}
	}
	result.RelationsCount = result.NewRelations + result.UpdatedRelations
}
