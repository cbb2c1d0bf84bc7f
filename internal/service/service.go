// Package service is the facade over the indexing and retrieval
// pipeline: request validation, the index-if-missing contract, and the
// summarize flow.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/kensho/repoqa/internal/answer"
	"github.com/kensho/repoqa/internal/embedder"
	"github.com/kensho/repoqa/internal/forge"
	"github.com/kensho/repoqa/internal/ingestion"
	"github.com/kensho/repoqa/internal/llm"
	"github.com/kensho/repoqa/internal/retrieval"
	"github.com/kensho/repoqa/internal/vectorstore"
)

// ErrValidation marks malformed requests. The HTTP layer maps it to 400.
var ErrValidation = errors.New("validation error")

// EmptyAnswer is returned when retrieval finds nothing relevant.
const EmptyAnswer = "No relevant code found for your question."

// QueryRequest asks a question about one repository.
type QueryRequest struct {
	Owner     string `json:"owner"`
	Repo      string `json:"repo"`
	Question  string `json:"question"`
	Branch    string `json:"branch,omitempty"`
	TopFiles  int    `json:"top_files,omitempty"`
	TopChunks int    `json:"top_chunks,omitempty"`
}

// QueryResponse carries the answer and its line-precise citations.
type QueryResponse struct {
	Answer     string             `json:"answer"`
	References []answer.Reference `json:"references"`
}

// BuildRequest asks for a (re)build of a repository's index.
type BuildRequest struct {
	Owner  string `json:"owner"`
	Repo   string `json:"repo"`
	Branch string `json:"branch,omitempty"`
}

// BuildResponse reports index build counts and timing.
type BuildResponse struct {
	RepoID      string  `json:"repo_id"`
	Branch      string  `json:"branch"`
	NumFiles    int     `json:"num_files_indexed"`
	NumChunks   int     `json:"num_chunks_indexed"`
	TookSeconds float64 `json:"took_seconds"`
}

// Service wires the pipeline components behind the HTTP surface.
type Service struct {
	forge     forge.Client
	embedder  embedder.Embedder
	store     vectorstore.Store
	indexer   *ingestion.Indexer
	retriever *retrieval.Retriever
	composer  *answer.Composer
	chat      llm.Chat
	logger    *slog.Logger

	topFiles  int
	topChunks int
}

// Option is a functional option for configuring Service.
type Option func(*Service)

// WithRetrievalDefaults overrides the default top_files/top_chunks.
func WithRetrievalDefaults(topFiles, topChunks int) Option {
	return func(s *Service) {
		if topFiles > 0 {
			s.topFiles = topFiles
		}
		if topChunks > 0 {
			s.topChunks = topChunks
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		s.logger = l
	}
}

// New creates the service facade.
func New(
	fc forge.Client,
	emb embedder.Embedder,
	store vectorstore.Store,
	indexer *ingestion.Indexer,
	retriever *retrieval.Retriever,
	composer *answer.Composer,
	chat llm.Chat,
	opts ...Option,
) *Service {
	s := &Service{
		forge:     fc,
		embedder:  emb,
		store:     store,
		indexer:   indexer,
		retriever: retriever,
		composer:  composer,
		chat:      chat,
		logger:    slog.Default(),
		topFiles:  retrieval.DefaultTopFiles,
		topChunks: retrieval.DefaultTopChunks,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// BuildIndex builds (or idempotently rebuilds) the index for a repo.
func (s *Service) BuildIndex(ctx context.Context, req BuildRequest) (*BuildResponse, error) {
	if req.Owner == "" || req.Repo == "" {
		return nil, fmt.Errorf("%w: owner and repo are required", ErrValidation)
	}

	result, err := s.indexer.Build(ctx, req.Owner, req.Repo, req.Branch)
	if err != nil {
		return nil, err
	}

	return &BuildResponse{
		RepoID:      result.RepoID,
		Branch:      result.Branch,
		NumFiles:    result.NumFiles,
		NumChunks:   result.NumChunks,
		TookSeconds: result.TookSeconds,
	}, nil
}

// Query answers a question, indexing the repository first if needed.
// First use pays the build; subsequent calls are fast.
func (s *Service) Query(ctx context.Context, req QueryRequest) (*QueryResponse, error) {
	if req.Owner == "" || req.Repo == "" {
		return nil, fmt.Errorf("%w: owner and repo are required", ErrValidation)
	}
	if req.Question == "" {
		return nil, fmt.Errorf("%w: question is required", ErrValidation)
	}

	branch, err := s.ensureIndexed(ctx, req.Owner, req.Repo, req.Branch)
	if err != nil {
		return nil, err
	}
	repoID := ingestion.RepoID(req.Owner, req.Repo, branch)

	topFiles := req.TopFiles
	if topFiles <= 0 {
		topFiles = s.topFiles
	}
	topChunks := req.TopChunks
	if topChunks <= 0 {
		topChunks = s.topChunks
	}

	hits, _, err := s.retriever.Retrieve(ctx, repoID, req.Question, topFiles, topChunks)
	if err != nil {
		return nil, err
	}

	if len(hits) == 0 {
		return &QueryResponse{
			Answer:     EmptyAnswer,
			References: []answer.Reference{},
		}, nil
	}

	answerText, refs := s.composer.Compose(ctx, req.Owner, req.Repo, branch, req.Question, hits)

	return &QueryResponse{
		Answer:     answerText,
		References: refs,
	}, nil
}

// Indexed reports whether any file-level record exists for the repo, via
// a bounded top-1 query.
func (s *Service) Indexed(ctx context.Context, repoID string) (bool, error) {
	hits, err := s.store.Query(ctx, repoID, vectorstore.KindFiles, probeVector(s.embedder.Dimension()), 1, nil)
	if err != nil {
		return false, err
	}
	return len(hits) > 0, nil
}

// ensureIndexed resolves the branch and builds the index when missing.
// It returns the branch the index actually lives under.
func (s *Service) ensureIndexed(ctx context.Context, owner, repo, branch string) (string, error) {
	branch = s.indexer.ResolveBranch(ctx, owner, repo, branch)
	repoID := ingestion.RepoID(owner, repo, branch)

	// A fresh backend has no collections to probe yet; acquire them
	// before asking whether anything is stored.
	if err := s.store.EnsureRepo(ctx, repoID, s.embedder.Dimension()); err != nil {
		return "", err
	}

	indexed, err := s.Indexed(ctx, repoID)
	if err != nil {
		return "", err
	}
	if indexed {
		return branch, nil
	}

	s.logger.Info("repo not indexed, building first", "repo_id", repoID)
	result, err := s.indexer.Build(ctx, owner, repo, branch)
	if err != nil {
		return "", err
	}
	return result.Branch, nil
}

// probeVector is a fixed unit vector used for existence checks, where
// only "is there anything at all" matters.
func probeVector(dimension int) []float32 {
	v := make([]float32, dimension)
	if dimension > 0 {
		v[0] = 1
	}
	return v
}
