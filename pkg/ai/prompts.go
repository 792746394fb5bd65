package ai

import (
	"fmt"
	"strings"

	"github.com/houmingya/LLM-MCP-TOOLS/pkg/common"
)

// ExtractPrompts renders the system and user prompts for one extraction
// call over the given chunk of text.
func ExtractPrompts(text string) (systemPrompt string, userPrompt string) {
	systemPrompt = fmt.Sprintf(
		ExtractSystemPrompt,
		strings.Join(common.EntityTypes, ", "),
		strings.Join(common.RelationTypes, ", "),
	)
	userPrompt = fmt.Sprintf(ExtractUserPrompt, text)
	return systemPrompt, userPrompt
}

// ExtractSystemPrompt frames the extraction task. It takes the entity type
// vocabulary and the relation type vocabulary as the two format arguments.
const ExtractSystemPrompt = `You are a knowledge graph construction assistant that extracts entities and relations from text.

Analyze the provided text and extract all important entities and the relations between them.

Entity types: %s
Relation types: %s

Rules:
1. Only extract important entities; skip trivial details.
2. The source and target of every relation must match an entity name exactly, including punctuation and spacing.
3. Before emitting a relation, verify that both its source and its target appear in the entities list.
4. Prefer the provided entity and relation types, but keep an observed type even when it is not in the list.
5. Keep descriptions short and grounded in the text.`

// ExtractUserPrompt wraps the document chunk. The single format argument is
// the chunk text.
const ExtractUserPrompt = `Extract the entities and relations from the following text.

Text:
%s`
