package ai

import "context"

// ExtractedEntity is an entity candidate produced by a model. All fields
// are optional; downstream code applies defaults and never assumes the
// output is well-formed.
type ExtractedEntity struct {
	Name        string `json:"name" jsonschema_description:"Name of the entity, exactly as it appears in the text"`
	Type        string `json:"type" jsonschema_description:"One of the provided entity types"`
	Description string `json:"description" jsonschema_description:"Short description of the entity based on the text"`
}

// ExtractedRelation is a relation candidate produced by a model. Source and
// target reference entity names; they are not guaranteed to match any
// extracted entity.
type ExtractedRelation struct {
	Source      string `json:"source" jsonschema_description:"Name of the source entity, must match an entity name exactly"`
	Target      string `json:"target" jsonschema_description:"Name of the target entity, must match an entity name exactly"`
	Relation    string `json:"relation" jsonschema_description:"One of the provided relation types"`
	Description string `json:"description" jsonschema_description:"Short description of the relation"`
}

// ExtractionResult is the structured output of one extraction call. Either
// list may be empty.
type ExtractionResult struct {
	Entities  []ExtractedEntity   `json:"entities" jsonschema_description:"Entities identified in the text"`
	Relations []ExtractedRelation `json:"relations" jsonschema_description:"Relations identified in the text"`
}

// ExtractorClient turns raw text into entity and relation candidates.
// Implementations own all salvage logic for malformed model output: they
// either return a well-defined (possibly empty) result or an error, never a
// partially-parsed panic. Metrics accumulate across calls until reset.
type ExtractorClient interface {
	ExtractEntitiesAndRelations(
		ctx context.Context,
		text string,
		opts ...GenerateOption,
	) (*ExtractionResult, error)

	GetMetrics() ModelMetrics
	ResetMetrics()
}

// ModelMetrics accumulates token and latency counters across model calls.
type ModelMetrics struct {
	InputTokens  int   `json:"input_tokens"`
	OutputTokens int   `json:"output_tokens"`
	TotalTokens  int   `json:"total_tokens"`
	DurationMs   int64 `json:"duration_ms"`
}

// GenerateOptions holds configuration for a single model request.
type GenerateOptions struct {
	Model         string
	SystemPrompts []string
	Temperature   float64
}

// GenerateOption is a functional option for configuring model requests.
type GenerateOption func(*GenerateOptions)

// WithModel overrides the model used for the request.
func WithModel(model string) GenerateOption {
	return func(o *GenerateOptions) {
		o.Model = model
	}
}

// WithSystemPrompts sets the system prompts prepended to the request.
func WithSystemPrompts(prompts ...string) GenerateOption {
	return func(o *GenerateOptions) {
		o.SystemPrompts = prompts
	}
}

// WithTemperature sets the sampling temperature for the request.
func WithTemperature(temp float64) GenerateOption {
	return func(o *GenerateOptions) {
		o.Temperature = temp
	}
}
