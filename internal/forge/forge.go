// Package forge provides read-only access to a GitHub-style code forge:
// repository metadata, recursive tree listings, and raw file bodies.
package forge

import (
	"context"
	"errors"
)

// ErrUpstream indicates the forge could not serve a request that the
// pipeline cannot proceed without (e.g. tree listing failed on both
// candidate branches). Per-file fetch failures are not upstream errors;
// they are silent skips.
var ErrUpstream = errors.New("forge upstream error")

// MaxFileBytes is the largest raw body the client will return. Bigger
// files are skipped.
const MaxFileBytes = 500 * 1024

// Client is the read-only forge surface the pipeline depends on.
type Client interface {
	// DefaultBranch resolves the repository's default branch from forge
	// metadata.
	DefaultBranch(ctx context.Context, owner, repo string) (string, error)

	// ListTree returns the blob paths of a recursive tree listing. If the
	// requested branch fails it retries once against the alternate of
	// main/master and reports the branch actually used, so callers never
	// build citation URLs against a branch that was silently swapped.
	ListTree(ctx context.Context, owner, repo, branch string) (paths []string, usedBranch string, err error)

	// FetchRaw returns a file body, or ok=false when the file should be
	// skipped: network failure, body over MaxFileBytes, or a NUL byte
	// (binary heuristic).
	FetchRaw(ctx context.Context, owner, repo, branch, path string) (body string, ok bool)

	// FetchReadme returns the repository README via the forge's readme
	// endpoint, or "" when unavailable. Never fails the caller.
	FetchReadme(ctx context.Context, owner, repo string) string
}
