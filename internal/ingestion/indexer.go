package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kensho/repoqa/internal/embedder"
	"github.com/kensho/repoqa/internal/forge"
	"github.com/kensho/repoqa/internal/vectorstore"
)

const (
	// filePrefixChars is how much of a file body feeds the file-level
	// embedding.
	filePrefixChars = 10_000

	// previewChars caps the chunk text stored in metadata. The
	// authoritative text is always reconstructible from the line range.
	previewChars = 1_000

	// chunkFlushSize is the resource-pacing flush boundary for chunk
	// records. Idempotent IDs make the exact value a non-issue.
	chunkFlushSize = 200

	// defaultFetchConcurrency bounds the raw-fetch fan-out per build.
	defaultFetchConcurrency = 8
)

// BuildResult reports what one index build accomplished.
type BuildResult struct {
	RepoID      string
	Branch      string
	NumFiles    int
	NumChunks   int
	TookSeconds float64
}

// Indexer orchestrates a whole-repo index build: list, filter, fetch,
// chunk, embed, upsert.
type Indexer struct {
	forge            forge.Client
	embedder         embedder.Embedder
	store            vectorstore.Store
	chunker          *Chunker
	logger           *slog.Logger
	fetchConcurrency int
}

// IndexerOption is a functional option for configuring Indexer.
type IndexerOption func(*Indexer)

// WithChunker overrides the default chunker configuration.
func WithChunker(c *Chunker) IndexerOption {
	return func(ix *Indexer) {
		ix.chunker = c
	}
}

// WithFetchConcurrency bounds concurrent raw fetches.
func WithFetchConcurrency(n int) IndexerOption {
	return func(ix *Indexer) {
		if n > 0 {
			ix.fetchConcurrency = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) IndexerOption {
	return func(ix *Indexer) {
		ix.logger = l
	}
}

// NewIndexer creates an Indexer.
func NewIndexer(fc forge.Client, emb embedder.Embedder, store vectorstore.Store, opts ...IndexerOption) *Indexer {
	ix := &Indexer{
		forge:            fc,
		embedder:         emb,
		store:            store,
		chunker:          NewChunker(ChunkerConfig{}),
		logger:           slog.Default(),
		fetchConcurrency: defaultFetchConcurrency,
	}

	for _, opt := range opts {
		opt(ix)
	}

	return ix
}

// ResolveBranch resolves the branch to index: the caller's choice when
// given, the forge default otherwise, and the literal "main" when the
// forge cannot say (the tree listing still falls back to master).
func (ix *Indexer) ResolveBranch(ctx context.Context, owner, repo, branch string) string {
	if branch != "" {
		return branch
	}
	resolved, err := ix.forge.DefaultBranch(ctx, owner, repo)
	if err != nil {
		ix.logger.Debug("default branch lookup failed, assuming main",
			"owner", owner, "repo", repo, "error", err)
		return "main"
	}
	return resolved
}

// Build (re)indexes one repository. The operation is idempotent:
// deterministic record IDs make a rebuild overwrite rather than
// duplicate, so a partial failure is safely retryable.
func (ix *Indexer) Build(ctx context.Context, owner, repo, branch string) (*BuildResult, error) {
	start := time.Now()

	branch = ix.ResolveBranch(ctx, owner, repo, branch)

	paths, usedBranch, err := ix.forge.ListTree(ctx, owner, repo, branch)
	if err != nil {
		return nil, err
	}

	repoID := RepoID(owner, repo, usedBranch)

	if err := ix.store.EnsureRepo(ctx, repoID, ix.embedder.Dimension()); err != nil {
		return nil, err
	}

	paths = forge.FilterPaths(paths)
	bodies := ix.fetchAll(ctx, owner, repo, usedBranch, paths)

	base := map[string]string{
		"repo_id": repoID,
		"owner":   owner,
		"repo":    repo,
		"branch":  usedBranch,
	}

	var (
		fileBatch  []vectorstore.Record
		chunkBatch []vectorstore.Record
		numFiles   int
		numChunks  int
	)

	flushChunks := func() error {
		if len(chunkBatch) == 0 {
			return nil
		}
		if err := ix.store.Upsert(ctx, repoID, vectorstore.KindChunks, chunkBatch); err != nil {
			return err
		}
		chunkBatch = chunkBatch[:0]
		return nil
	}

	for i, path := range paths {
		body, ok := bodies[i]
		if !ok {
			continue
		}

		// Cancellation stops at a batch boundary; what was written stays
		// and a retry reclaims it.
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		fileVector, err := ix.embedder.Embed(ctx, truncateChars(body, filePrefixChars))
		if err != nil {
			return nil, fmt.Errorf("embedding file %s: %w", path, err)
		}

		fileMeta := metadataWith(base, map[string]string{
			"file_path": path,
			"type":      "file",
		})
		fileBatch = append(fileBatch, vectorstore.Record{
			ID:       FileID(repoID, path),
			Vector:   fileVector,
			Metadata: fileMeta,
		})
		numFiles++

		chunks := ix.chunker.Split(body)
		if len(chunks) == 0 {
			continue
		}

		texts := make([]string, len(chunks))
		for j, ch := range chunks {
			texts[j] = ch.Text
		}
		vectors, err := ix.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("embedding chunks of %s: %w", path, err)
		}

		for j, ch := range chunks {
			chunkMeta := metadataWith(base, map[string]string{
				"file_path":  path,
				"start_line": strconv.Itoa(ch.StartLine),
				"end_line":   strconv.Itoa(ch.EndLine),
				"text":       truncateChars(ch.Text, previewChars),
				"type":       "chunk",
			})
			chunkBatch = append(chunkBatch, vectorstore.Record{
				ID:       ChunkID(repoID, path, ch.StartLine, ch.EndLine),
				Vector:   vectors[j],
				Metadata: chunkMeta,
			})
			numChunks++

			if len(chunkBatch) >= chunkFlushSize {
				if err := flushChunks(); err != nil {
					return nil, err
				}
			}
		}
	}

	if err := ix.store.Upsert(ctx, repoID, vectorstore.KindFiles, fileBatch); err != nil {
		return nil, err
	}
	if err := flushChunks(); err != nil {
		return nil, err
	}

	took := math.Round(time.Since(start).Seconds()*100) / 100

	ix.logger.Info("index build complete",
		"repo_id", repoID,
		"num_files", numFiles,
		"num_chunks", numChunks,
		"took_seconds", took,
	)

	return &BuildResult{
		RepoID:      repoID,
		Branch:      usedBranch,
		NumFiles:    numFiles,
		NumChunks:   numChunks,
		TookSeconds: took,
	}, nil
}

// fetchAll fetches file bodies with bounded fan-out. Results keep path
// order so chunk emission stays sequential per file. A missing entry
// means the file was skipped.
func (ix *Indexer) fetchAll(ctx context.Context, owner, repo, branch string, paths []string) map[int]string {
	type fetched struct {
		idx  int
		body string
	}

	results := make(chan fetched, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ix.fetchConcurrency)

	for i, path := range paths {
		g.Go(func() error {
			body, ok := ix.forge.FetchRaw(gctx, owner, repo, branch, path)
			if ok {
				results <- fetched{idx: i, body: body}
			}
			return nil
		})
	}

	// Workers never return errors; fetch failures are silent skips.
	_ = g.Wait()
	close(results)

	bodies := make(map[int]string, len(paths))
	for r := range results {
		bodies[r.idx] = r.body
	}
	return bodies
}

// metadataWith merges the shared base metadata with record-specific keys.
func metadataWith(base, extra map[string]string) map[string]string {
	m := make(map[string]string, len(base)+len(extra))
	for k, v := range base {
		m[k] = v
	}
	for k, v := range extra {
		m[k] = v
	}
	return m
}

// truncateChars cuts s to at most n characters without splitting a rune.
func truncateChars(s string, n int) string {
	if len(s) <= n {
		return s
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
