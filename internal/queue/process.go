package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/houmingya/LLM-MCP-TOOLS/internal/storage"
	"github.com/houmingya/LLM-MCP-TOOLS/pkg/ai"
	"github.com/houmingya/LLM-MCP-TOOLS/pkg/graph"
	"github.com/houmingya/LLM-MCP-TOOLS/pkg/logger"

	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// BuildMessage is one queued document-build job. Content is carried inline
// for small documents; larger ones are archived and referenced through
// DocumentKey instead.
type BuildMessage struct {
	Filename    string `json:"filename"`
	Content     string `json:"content,omitempty"`
	DocumentKey string `json:"document_key,omitempty"`
	BuildID     string `json:"build_id"`
}

// ProcessBuildMessage integrates one queued document into the graph. The
// returned error marks the message for retry; resolving an archived
// document and running the build both count as retryable failures.
func ProcessBuildMessage(
	ctx context.Context,
	s3Client *s3.Client,
	engine *graph.Engine,
	aiClient ai.ExtractorClient,
	body string,
) error {
	var msg BuildMessage
	if err := json.Unmarshal([]byte(body), &msg); err != nil {
		return fmt.Errorf("failed to parse build message: %w", err)
	}
	if msg.Filename == "" {
		return fmt.Errorf("build message has no filename")
	}

	content := msg.Content
	if content == "" && msg.DocumentKey != "" {
		if s3Client == nil {
			return fmt.Errorf("build message references archive key %q but no archive is configured", msg.DocumentKey)
		}
		raw, err := storage.GetDocument(ctx, s3Client, msg.DocumentKey)
		if err != nil {
			return fmt.Errorf("failed to fetch archived document: %w", err)
		}
		content = string(raw)
	}
	if content == "" {
		return fmt.Errorf("build message carries no content")
	}

	logger.Info(
		"[Queue] Processing build message",
		"build_id", msg.BuildID,
		"filename", msg.Filename,
		"document_key", msg.DocumentKey,
	)

	result, err := engine.BuildFromDocument(ctx, content, msg.Filename, aiClient)
	if err != nil {
		return fmt.Errorf("build failed: %w", err)
	}

	logger.Info(
		"[Queue] Build message processed",
		"build_id", msg.BuildID,
		"filename", msg.Filename,
		"new_entities", result.NewEntities,
		"updated_entities", result.UpdatedEntities,
		"new_relations", result.NewRelations,
		"skipped_relations", result.SkippedRelationsCount,
		"persisted", result.Persisted,
	)
	return nil
}
