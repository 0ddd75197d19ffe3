// Package chunker splits extracted document text into overlapping,
// bounded-size segments for embedding and indexing. The splitter walks a
// hierarchy of separators (paragraph, line, sentence, word) and only falls
// back to raw character windows when no larger boundary fits the size
// budget, so chunks keep semantic units intact wherever possible.
package chunker

import (
	"strings"
)

// DefaultChunkSize is the default maximum number of characters per chunk.
const DefaultChunkSize = 1000

// DefaultOverlap is the default number of characters consecutive chunks
// share to preserve cross-boundary context for retrieval.
const DefaultOverlap = 200

// defaultSeparators is the boundary hierarchy, largest semantic unit first.
// The empty-separator fallback (raw character windows) is implicit.
var defaultSeparators = []string{"\n\n", "\n", ". ", " "}

// Splitter splits text into chunks of at most ChunkSize characters where
// consecutive chunks overlap by at most Overlap characters.
type Splitter struct {
	// chunkSize is the maximum chunk length in characters.
	chunkSize int

	// overlap is the maximum shared context between consecutive chunks.
	overlap int
}

// New constructs a Splitter. Non-positive chunkSize falls back to
// DefaultChunkSize; negative overlap is clamped to zero; overlap that
// reaches chunkSize is reduced so splitting always makes progress.
func New(chunkSize, overlap int) *Splitter {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= chunkSize {
		overlap = chunkSize / 5
	}
	return &Splitter{chunkSize: chunkSize, overlap: overlap}
}

// Split splits text into ordered overlapping chunks. Separator characters
// stay attached to the fragment they terminate, so concatenating the chunks
// with the overlap removed reconstructs the trimmed input exactly.
// Empty or whitespace-only input yields nil — callers treat that as
// "no content to index".
func (s *Splitter) Split(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	return s.merge(s.fragments(text, defaultSeparators))
}

// fragments recursively splits text into pieces of at most chunkSize
// characters, descending the separator hierarchy only for pieces that are
// still too large.
func (s *Splitter) fragments(text string, seps []string) []string {
	if len(text) <= s.chunkSize {
		return []string{text}
	}
	if len(seps) == 0 {
		return windows(text, s.chunkSize)
	}

	parts := splitAfter(text, seps[0])
	if len(parts) == 1 {
		return s.fragments(text, seps[1:])
	}

	var out []string
	for _, p := range parts {
		if len(p) <= s.chunkSize {
			out = append(out, p)
		} else {
			out = append(out, s.fragments(p, seps[1:])...)
		}
	}
	return out
}

// merge greedily packs fragments into chunks of at most chunkSize
// characters. When a chunk is flushed, the trailing fragments whose combined
// length does not exceed overlap are retained as the seed of the next chunk.
func (s *Splitter) merge(pieces []string) []string {
	var chunks []string
	var window []string
	total := 0

	for _, p := range pieces {
		if total+len(p) > s.chunkSize && len(window) > 0 {
			chunks = append(chunks, strings.Join(window, ""))

			// Drop fragments from the front until what remains fits both
			// the overlap budget and the incoming fragment.
			for total > s.overlap || (total+len(p) > s.chunkSize && total > 0) {
				total -= len(window[0])
				window = window[1:]
			}
		}
		window = append(window, p)
		total += len(p)
	}

	if len(window) > 0 {
		chunks = append(chunks, strings.Join(window, ""))
	}
	return chunks
}

// splitAfter splits text on sep keeping the separator attached to the
// preceding piece, dropping empty pieces.
func splitAfter(text, sep string) []string {
	parts := strings.SplitAfter(text, sep)
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// windows hard-splits text into size-character pieces. Last resort for runs
// with no separator boundary inside the size budget.
func windows(text string, size int) []string {
	var out []string
	for len(text) > size {
		out = append(out, text[:size])
		text = text[size:]
	}
	if text != "" {
		out = append(out, text)
	}
	return out
}
