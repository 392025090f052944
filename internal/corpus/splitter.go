package corpus

import (
	"strings"
	"unicode"
)

const (
	defaultChunkSize       = 1024
	defaultOverlapSentence = 1
)

// SentenceSplitter splits document text into chunks along sentence
// boundaries. Chunks are capped at roughly ChunkSize characters; adjacent
// chunks share OverlapSentences trailing sentences of context.
type SentenceSplitter struct {
	ChunkSize        int
	OverlapSentences int
}

// NewSentenceSplitter returns a splitter with default sizing.
func NewSentenceSplitter() *SentenceSplitter {
	return &SentenceSplitter{
		ChunkSize:        defaultChunkSize,
		OverlapSentences: defaultOverlapSentence,
	}
}

// Split divides text into ordered chunks owned by docID.
func (s *SentenceSplitter) Split(docID, text string) []Chunk {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	chunkSize := s.ChunkSize
	if chunkSize < 1 {
		chunkSize = defaultChunkSize
	}

	sentences := splitSentences(text)

	var chunks []Chunk
	var current []string
	currentLen := 0

	flush := func() {
		if len(current) == 0 {
			return
		}
		chunks = append(chunks, Chunk{
			DocID:   docID,
			Ordinal: len(chunks),
			Text:    strings.Join(current, " "),
		})

		// Carry trailing sentences into the next chunk for context.
		overlap := s.OverlapSentences
		if overlap > len(current) {
			overlap = len(current)
		}
		tail := current[len(current)-overlap:]
		current = append([]string(nil), tail...)
		currentLen = 0
		for _, sent := range current {
			currentLen += len(sent) + 1
		}
	}

	for _, sent := range sentences {
		if currentLen > 0 && currentLen+len(sent) > chunkSize {
			flush()
		}
		current = append(current, sent)
		currentLen += len(sent) + 1

		// A single sentence longer than the chunk size becomes its own chunk.
		if currentLen > chunkSize && len(current) == 1 {
			flush()
			current = nil
			currentLen = 0
		}
	}
	if len(current) > 0 && currentLen > 0 {
		chunks = append(chunks, Chunk{
			DocID:   docID,
			Ordinal: len(chunks),
			Text:    strings.Join(current, " "),
		})
	}

	return chunks
}

// splitSentences breaks text at sentence-terminal punctuation followed by
// whitespace. Whitespace runs are collapsed.
func splitSentences(text string) []string {
	var sentences []string
	var b strings.Builder

	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if unicode.IsSpace(r) {
			if b.Len() > 0 && !strings.HasSuffix(b.String(), " ") {
				b.WriteRune(' ')
			}
			continue
		}
		b.WriteRune(r)

		if (r == '.' || r == '!' || r == '?') && i+1 < len(runes) && unicode.IsSpace(runes[i+1]) {
			sent := strings.TrimSpace(b.String())
			if sent != "" {
				sentences = append(sentences, sent)
			}
			b.Reset()
		}
	}
	if sent := strings.TrimSpace(b.String()); sent != "" {
		sentences = append(sentences, sent)
	}
	return sentences
}
