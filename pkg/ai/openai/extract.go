package openai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/houmingya/LLM-MCP-TOOLS/pkg/ai"

	"github.com/openai/openai-go/v3"
)

// ExtractEntitiesAndRelations runs one structured extraction call over the
// given text. The response format is pinned to the ExtractionResult schema;
// malformed output is repaired by ai.UnmarshalFlexible before giving up.
func (c *ExtractOpenAIClient) ExtractEntitiesAndRelations(
	ctx context.Context,
	text string,
	opts ...ai.GenerateOption,
) (*ai.ExtractionResult, error) {
	if c.ChatClient == nil {
		return nil, errors.New("openai extraction client is not configured")
	}

	options := ai.GenerateOptions{
		Model:       c.extractionModel,
		Temperature: 0.1,
	}
	for _, o := range opts {
		o(&options)
	}

	systemPrompt, userPrompt := ai.ExtractPrompts(text)
	msgs := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(systemPrompt),
	}
	for _, sp := range options.SystemPrompts {
		msgs = append(msgs, openai.SystemMessage(sp))
	}
	msgs = append(msgs, openai.UserMessage(userPrompt))

	var res ai.ExtractionResult
	schemaParam := openai.ResponseFormatJSONSchemaJSONSchemaParam{
		Name:        "extract_entities_and_relations",
		Description: openai.String("Extract entities and relations from a text document."),
		Schema:      ai.GenerateSchema(&res),
		Strict:      openai.Bool(true),
	}

	body := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(options.Model),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
				JSONSchema: schemaParam,
			},
		},
		Messages:    msgs,
		Temperature: openai.Float(options.Temperature),
	}

	start := time.Now()
	response, err := c.ChatClient.Chat.Completions.New(ctx, body)
	if err != nil {
		return nil, err
	}

	c.modifyMetrics(ai.ModelMetrics{
		InputTokens:  int(response.Usage.PromptTokens),
		OutputTokens: int(response.Usage.CompletionTokens),
		TotalTokens:  int(response.Usage.TotalTokens),
		DurationMs:   time.Since(start).Milliseconds(),
	})

	if len(response.Choices) == 0 {
		return nil, errors.New("no choices in response from model")
	}
	message := response.Choices[0].Message.Content
	if message == "" {
		return nil, fmt.Errorf("empty response from model (finish_reason: %s)", response.Choices[0].FinishReason)
	}

	if err := ai.UnmarshalFlexible(message, &res); err != nil {
		return nil, err
	}

	return &res, nil
}
