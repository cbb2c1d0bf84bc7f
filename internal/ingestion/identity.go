// Package ingestion builds a repository's vector index: deterministic
// record identity, line-aware chunking, and the indexing pipeline.
package ingestion

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strconv"
)

// RepoID returns the canonical tenant key "{owner}/{repo}@{branch}".
func RepoID(owner, repo, branch string) string {
	return fmt.Sprintf("%s/%s@%s", owner, repo, branch)
}

// FileID returns the SHA-1 identity of a file-level record. The line
// fields are empty strings, not zeros; this is part of the wire contract
// because the digest doubles as the upsert key.
func FileID(repoID, path string) string {
	return sha1ID(repoID, path, "", "")
}

// ChunkID returns the SHA-1 identity of a chunk-level record.
func ChunkID(repoID, path string, startLine, endLine int) string {
	return sha1ID(repoID, path, strconv.Itoa(startLine), strconv.Itoa(endLine))
}

// sha1ID hashes the canonical ASCII form "{repo_id}:{path}:{start}:{end}".
func sha1ID(repoID, path, start, end string) string {
	sum := sha1.Sum([]byte(repoID + ":" + path + ":" + start + ":" + end))
	return hex.EncodeToString(sum[:])
}
