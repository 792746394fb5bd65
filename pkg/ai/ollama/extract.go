package ollama

import (
	"context"
	"encoding/json"

	"github.com/houmingya/LLM-MCP-TOOLS/pkg/ai"

	"github.com/ollama/ollama/api"
	"github.com/pkoukk/tiktoken-go"
)

// ExtractEntitiesAndRelations runs one schema-constrained extraction call
// over the given text. Requests are throttled by the configured concurrency
// limit; the context window is widened for prompts that would not fit the
// default.
func (c *ExtractOllamaClient) ExtractEntitiesAndRelations(
	ctx context.Context,
	text string,
	opts ...ai.GenerateOption,
) (*ai.ExtractionResult, error) {
	if err := c.reqLock.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer c.reqLock.Release(1)

	options := ai.GenerateOptions{
		Model:       c.extractionModel,
		Temperature: 0.1,
	}
	for _, o := range opts {
		o(&options)
	}

	var res ai.ExtractionResult
	formatBytes, err := json.Marshal(ai.GenerateSchema(&res))
	if err != nil {
		return nil, err
	}
	var format json.RawMessage = formatBytes

	systemPrompt, userPrompt := ai.ExtractPrompts(text)
	messages := []api.Message{
		{Role: "system", Content: systemPrompt},
	}
	for _, sp := range options.SystemPrompts {
		messages = append(messages, api.Message{Role: "system", Content: sp})
	}
	messages = append(messages, api.Message{Role: "user", Content: userPrompt})

	stream := false
	req := &api.ChatRequest{
		Model:    options.Model,
		Messages: messages,
		Stream:   &stream,
		Format:   format,
		Options:  map[string]any{"temperature": options.Temperature},
	}

	enc, err := tiktoken.GetEncoding("o200k_base")
	if err != nil {
		return nil, err
	}
	promptTokens := 200 + len(enc.Encode(systemPrompt+userPrompt, nil, nil))
	if promptTokens > 4096 {
		req.Options["num_ctx"] = promptTokens
	}

	var final api.ChatResponse
	if err := c.Client.Chat(ctx, req, func(cr api.ChatResponse) error {
		final.Message.Content += cr.Message.Content
		if cr.Done {
			final.Done = true
			final.Metrics = cr.Metrics
		}
		return nil
	}); err != nil {
		return nil, err
	}

	c.modifyMetrics(ai.ModelMetrics{
		InputTokens:  final.Metrics.PromptEvalCount,
		OutputTokens: final.Metrics.EvalCount,
		TotalTokens:  final.Metrics.PromptEvalCount + final.Metrics.EvalCount,
		DurationMs:   final.Metrics.TotalDuration.Milliseconds(),
	})

	if err := ai.UnmarshalFlexible(final.Message.Content, &res); err != nil {
		return nil, err
	}

	return &res, nil
}
