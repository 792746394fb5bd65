package graph

import (
	"strings"
	"unicode/utf8"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// maxChunkRunes is the extraction chunk threshold. Documents at or under
// the threshold are processed as a single chunk.
const maxChunkRunes = 2000

type processChunk struct {
	id    string
	index int
	text  string
}

// splitIntoChunks splits document text into extraction chunks that stay
// under the rune threshold. The split happens on line boundaries only and
// preserves line order; a single line longer than the threshold becomes its
// own chunk rather than being cut.
func splitIntoChunks(content string, maxRunes int) ([]processChunk, error) {
	var texts []string

	if utf8.RuneCountInString(content) > maxRunes {
		lines := strings.Split(content, "\n")
		var current strings.Builder
		currentRunes := 0

		for _, line := range lines {
			lineRunes := utf8.RuneCountInString(line)
			if currentRunes+lineRunes < maxRunes {
				current.WriteString(line)
				current.WriteString("\n")
				currentRunes += lineRunes + 1
			} else {
				if current.Len() > 0 {
					texts = append(texts, current.String())
				}
				current.Reset()
				current.WriteString(line)
				current.WriteString("\n")
				currentRunes = lineRunes + 1
			}
		}
		if current.Len() > 0 {
			texts = append(texts, current.String())
		}
	} else {
		texts = []string{content}
	}

	chunks := make([]processChunk, 0, len(texts))
	for i, text := range texts {
		id, err := gonanoid.New()
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, processChunk{
			id:    id,
			index: i,
			text:  text,
		})
	}

	return chunks, nil
}
