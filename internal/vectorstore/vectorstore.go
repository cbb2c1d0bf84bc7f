// Package vectorstore persists and queries embedding records in two
// logical collections (file-level and chunk-level) keyed by repo_id.
package vectorstore

import (
	"context"
	"errors"
	"strings"
)

// Kind names a logical collection.
type Kind string

const (
	// KindFiles holds one record per indexed file.
	KindFiles Kind = "files"

	// KindChunks holds the line-range chunk records.
	KindChunks Kind = "chunks"
)

// ErrInsufficientCapacity indicates the backend refused to allocate a new
// physical collection. The condition is surfaced, never silently worked
// around.
var ErrInsufficientCapacity = errors.New("vector store: insufficient collection capacity")

// Record is an embedding row. ID is the SHA-1 record identity from the
// ingestion package; identical IDs overwrite on upsert.
type Record struct {
	ID       string
	Vector   []float32
	Metadata map[string]string
}

// Hit is a query result. Score is cosine similarity in [-1, 1]; Distance
// is the equivalent 1 - Score.
type Hit struct {
	ID       string
	Score    float32
	Distance float32
	Metadata map[string]string
}

// Store is the two-collection vector store surface. Every query is
// constrained to the given repoID by the adapter itself, so tenant
// isolation does not depend on callers remembering a filter.
type Store interface {
	// EnsureRepo acquires both logical collections for a repo, creating
	// physical collections when allowed. Returns ErrInsufficientCapacity
	// when a needed collection cannot be allocated.
	EnsureRepo(ctx context.Context, repoID string, dimension int) error

	// Upsert writes records into one logical collection.
	Upsert(ctx context.Context, repoID string, kind Kind, records []Record) error

	// Query returns the top-k records by cosine similarity, restricted to
	// repoID plus any extra exact-match metadata predicates. Querying a
	// repo whose collections were never provisioned yields no hits, not
	// an error.
	Query(ctx context.Context, repoID string, kind Kind, vector []float32, topK int, filter map[string]string) ([]Hit, error)
}

// maxCollectionNameLen is the backend's physical name limit.
const maxCollectionNameLen = 45

// SanitizeCollectionName reduces a name to lowercase alphanumerics and
// '-', truncated to the backend limit. Names that sanitize to nothing
// become "default-index".
func SanitizeCollectionName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
			b.WriteRune(r)
		}
	}
	s := b.String()
	s = strings.Trim(s, "-")
	if len(s) > maxCollectionNameLen {
		s = strings.Trim(s[:maxCollectionNameLen], "-")
	}
	if s == "" {
		return "default-index"
	}
	return s
}
