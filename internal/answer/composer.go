// Package answer turns retrieved chunks into a grounded, cited answer.
package answer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kensho/repoqa/internal/llm"
	"github.com/kensho/repoqa/internal/retrieval"
)

// systemDirective keeps the model inside the retrieved context.
const systemDirective = "You are a code assistant. Answer the question using ONLY the provided context blocks. " +
	"Cite the blocks you used inline as [n]. If the context does not contain the answer, say so."

// degradedMarker prefixes answers produced without a working LLM.
const degradedMarker = "[LLM unavailable - returning retrieved context]\n\n"

// Reference is a line-precise citation into the repository.
type Reference struct {
	FilePath  string `json:"file_path"`
	StartLine int    `json:"start_line"`
	EndLine   int    `json:"end_line"`
	URL       string `json:"url"`
}

// Composer formats context, calls the LLM, and builds citations.
type Composer struct {
	chat   llm.Chat
	logger *slog.Logger
}

// NewComposer creates a Composer. chat may be unconfigured; composition
// then degrades to context-only answers rather than failing.
func NewComposer(chat llm.Chat, logger *slog.Logger) *Composer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Composer{chat: chat, logger: logger}
}

// Compose builds the numbered context, asks the LLM, and returns the
// answer plus deduplicated references. LLM failure is degraded success:
// the caller always gets a usable answer and the references.
func (c *Composer) Compose(ctx context.Context, owner, repo, branch, question string, hits []retrieval.ChunkHit) (string, []Reference) {
	contextText := FormatContext(hits)
	refs := BuildReferences(owner, repo, branch, hits)

	if c.chat == nil || !c.chat.Configured() {
		return degradedMarker + contextText, refs
	}

	messages := []llm.Message{
		{Role: "system", Content: systemDirective},
		{Role: "user", Content: fmt.Sprintf("Context:\n\n%s\n\nQuestion: %s", contextText, question)},
	}

	reply, err := c.chat.Complete(ctx, messages)
	if err != nil {
		c.logger.Warn("LLM call failed, degrading to context-only answer", "error", err)
		return degradedMarker + contextText, refs
	}

	return reply, refs
}

// FormatContext renders hits as numbered blocks
// "[i] {file_path}:{start}-{end}\n{text}" joined by blank lines.
func FormatContext(hits []retrieval.ChunkHit) string {
	blocks := make([]string, len(hits))
	for i, h := range hits {
		blocks[i] = fmt.Sprintf("[%d] %s:%d-%d\n%s", i+1, h.FilePath, h.StartLine, h.EndLine, h.Text)
	}
	return strings.Join(blocks, "\n\n")
}

// BuildReferences deduplicates hits by (file_path, start_line, end_line)
// preserving first-seen order and attaches blob deep links.
func BuildReferences(owner, repo, branch string, hits []retrieval.ChunkHit) []Reference {
	type key struct {
		path       string
		start, end int
	}

	refs := make([]Reference, 0, len(hits))
	seen := make(map[key]bool, len(hits))

	for _, h := range hits {
		k := key{path: h.FilePath, start: h.StartLine, end: h.EndLine}
		if seen[k] {
			continue
		}
		seen[k] = true
		refs = append(refs, Reference{
			FilePath:  h.FilePath,
			StartLine: h.StartLine,
			EndLine:   h.EndLine,
			URL: fmt.Sprintf("https://github.com/%s/%s/blob/%s/%s#L%d-L%d",
				owner, repo, branch, h.FilePath, h.StartLine, h.EndLine),
		})
	}

	return refs
}
