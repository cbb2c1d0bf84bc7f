package ingestion

import "strings"

// Chunk is a contiguous range of file lines embedded as one vector.
// StartLine and EndLine are 1-based inclusive; joining the covered lines
// with "\n" reproduces Text exactly.
type Chunk struct {
	Text      string
	StartLine int
	EndLine   int
}

// ChunkerConfig controls chunk sizing. Character counts include the
// newline terminator of each line.
type ChunkerConfig struct {
	// MaxChars is the upper bound a chunk grows toward.
	MaxChars int

	// OverlapLines is how many trailing lines the next chunk re-covers.
	OverlapLines int
}

// Chunker splits file text into overlapping line-aware chunks.
type Chunker struct {
	config ChunkerConfig
}

// NewChunker creates a Chunker, applying defaults for unset fields.
func NewChunker(config ChunkerConfig) *Chunker {
	if config.MaxChars <= 0 {
		config.MaxChars = 1800
	}
	if config.OverlapLines <= 0 {
		config.OverlapLines = 15
	}
	return &Chunker{config: config}
}

// Split chunks the text. Every line of the input appears in at least one
// chunk, every chunk covers at least one line, and each chunk except
// possibly one holding a single oversized line stays within MaxChars.
func (c *Chunker) Split(text string) []Chunk {
	if text == "" {
		return nil
	}

	lines := strings.Split(text, "\n")
	// A terminal newline yields one trailing empty element, not an extra
	// line of content.
	if len(lines) > 1 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}

	n := len(lines)
	var chunks []Chunk

	start := 1
	for start <= n {
		end := start
		total := 0
		for end <= n {
			lineSize := len(lines[end-1]) + 1
			if end > start && total+lineSize > c.config.MaxChars {
				break
			}
			total += lineSize
			end++
		}
		last := end - 1

		chunks = append(chunks, Chunk{
			Text:      strings.Join(lines[start-1:last], "\n"),
			StartLine: start,
			EndLine:   last,
		})

		if last >= n {
			break
		}

		next := last - c.config.OverlapLines
		if next < 1 {
			next = 1
		}
		// The window must always advance or short chunks would loop.
		if next <= start {
			next = start + 1
		}
		start = next
	}

	return chunks
}
