// Package retrieval implements hierarchical two-stage retrieval: narrow
// to the most relevant files first, then pick the best chunks within
// them.
package retrieval

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/kensho/repoqa/internal/embedder"
	"github.com/kensho/repoqa/internal/vectorstore"
)

const (
	// DefaultTopFiles is the file-stage width.
	DefaultTopFiles = 8

	// DefaultTopChunks is the final merged chunk count.
	DefaultTopChunks = 12
)

// ChunkHit is one retrieved chunk, ordered by ascending Distance.
type ChunkHit struct {
	FilePath  string
	StartLine int
	EndLine   int
	Text      string
	Score     float32
	Distance  float32
}

// Retriever answers "which code regions matter for this question".
type Retriever struct {
	embedder embedder.Embedder
	store    vectorstore.Store
}

// NewRetriever creates a Retriever.
func NewRetriever(emb embedder.Embedder, store vectorstore.Store) *Retriever {
	return &Retriever{embedder: emb, store: store}
}

// Retrieve embeds the question once, narrows to topFiles files, then
// queries chunks per selected file and merges them by distance. The
// returned filePaths are the file-stage ranking; every hit's FilePath is
// drawn from it. An empty result is not an error.
func (r *Retriever) Retrieve(ctx context.Context, repoID, question string, topFiles, topChunks int) (hits []ChunkHit, filePaths []string, err error) {
	if topFiles <= 0 {
		topFiles = DefaultTopFiles
	}
	if topChunks <= 0 {
		topChunks = DefaultTopChunks
	}

	queryVector, err := r.embedder.Embed(ctx, question)
	if err != nil {
		return nil, nil, fmt.Errorf("embedding question: %w", err)
	}

	// Stage 1: file narrowing. The file ranking is fully ordered before
	// any chunk query runs.
	fileHits, err := r.store.Query(ctx, repoID, vectorstore.KindFiles, queryVector, topFiles, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("querying files: %w", err)
	}

	filePaths = make([]string, 0, len(fileHits))
	seen := make(map[string]bool, len(fileHits))
	for _, h := range fileHits {
		p := h.Metadata["file_path"]
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		filePaths = append(filePaths, p)
	}
	if len(filePaths) == 0 {
		return nil, nil, nil
	}

	// Stage 2: per-file chunk selection.
	perFile := topChunks / len(filePaths)
	if perFile < 1 {
		perFile = 1
	}

	for _, path := range filePaths {
		chunkHits, err := r.store.Query(ctx, repoID, vectorstore.KindChunks, queryVector, perFile, map[string]string{
			"file_path": path,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("querying chunks of %s: %w", path, err)
		}

		for _, h := range chunkHits {
			start, _ := strconv.Atoi(h.Metadata["start_line"])
			end, _ := strconv.Atoi(h.Metadata["end_line"])
			hits = append(hits, ChunkHit{
				FilePath:  h.Metadata["file_path"],
				StartLine: start,
				EndLine:   end,
				Text:      h.Metadata["text"],
				Score:     h.Score,
				Distance:  h.Distance,
			})
		}
	}

	// Stable sort: ties keep insertion order, which follows the file
	// ranking.
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Distance < hits[j].Distance
	})
	if len(hits) > topChunks {
		hits = hits[:topChunks]
	}

	return hits, filePaths, nil
}
