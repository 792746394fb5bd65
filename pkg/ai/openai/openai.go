package openai

import (
	"sync"

	"github.com/houmingya/LLM-MCP-TOOLS/pkg/ai"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// ExtractOpenAIClient implements ai.ExtractorClient against any
// OpenAI-compatible chat completion API.
type ExtractOpenAIClient struct {
	extractionModel string
	chatURL         string
	chatKey         string

	metricsLock sync.Mutex
	metrics     ai.ModelMetrics

	ChatClient *openai.Client
}

// NewExtractOpenAIClientParams configures an ExtractOpenAIClient.
//
// ChatURL may point at any OpenAI-compatible endpoint; when empty the
// official API is used.
type NewExtractOpenAIClientParams struct {
	ExtractionModel string

	ChatURL string
	ChatKey string
}

// NewExtractOpenAIClient creates an extraction client for an
// OpenAI-compatible backend.
func NewExtractOpenAIClient(params NewExtractOpenAIClientParams) *ExtractOpenAIClient {
	return &ExtractOpenAIClient{
		extractionModel: params.ExtractionModel,
		chatURL:         params.ChatURL,
		chatKey:         params.ChatKey,

		ChatClient: newOpenaiClient(params.ChatURL, params.ChatKey),
	}
}

func newOpenaiClient(baseURL string, apiKey string) *openai.Client {
	if apiKey == "" {
		return nil
	}
	options := []option.RequestOption{
		option.WithAPIKey(apiKey),
	}
	if baseURL != "" {
		options = append(options, option.WithBaseURL(baseURL))
	}

	client := openai.NewClient(options...)

	return &client
}

func (c *ExtractOpenAIClient) modifyMetrics(delta ai.ModelMetrics) {
	c.metricsLock.Lock()
	defer c.metricsLock.Unlock()
	c.metrics.InputTokens += delta.InputTokens
	c.metrics.OutputTokens += delta.OutputTokens
	c.metrics.TotalTokens += delta.TotalTokens
	c.metrics.DurationMs += delta.DurationMs
}

// GetMetrics returns the accumulated token and latency counters.
func (c *ExtractOpenAIClient) GetMetrics() ai.ModelMetrics {
	c.metricsLock.Lock()
	defer c.metricsLock.Unlock()
	return c.metrics
}

// ResetMetrics zeroes the accumulated counters.
func (c *ExtractOpenAIClient) ResetMetrics() {
	c.metricsLock.Lock()
	defer c.metricsLock.Unlock()
	c.metrics = ai.ModelMetrics{}
}
