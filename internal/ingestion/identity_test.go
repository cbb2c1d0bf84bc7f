package ingestion

import "testing"

func TestRepoID(t *testing.T) {
	got := RepoID("torvalds", "linux", "master")
	want := "torvalds/linux@master"
	if got != want {
		t.Errorf("RepoID = %q, want %q", got, want)
	}
}

// The SHA-1 identities are a wire contract: they double as upsert keys,
// so the digests must be byte-for-byte stable across rebuilds and
// re-implementations.
func TestChunkID_Stable(t *testing.T) {
	want := "34e504138562280e8351e5c739545cec2a4b04ed"

	got := ChunkID("x/y@main", "a/b.py", 1, 40)
	if got != want {
		t.Errorf("ChunkID = %q, want %q", got, want)
	}

	// Rebuilding yields the same ID.
	if again := ChunkID("x/y@main", "a/b.py", 1, 40); again != got {
		t.Errorf("ChunkID not deterministic: %q vs %q", again, got)
	}
}

func TestFileID_UsesEmptyLineFields(t *testing.T) {
	// File-level identity hashes "{repo_id}:{path}::" with empty line
	// fields, not zeros.
	want := "d12c0c6c1290c54565006c40da51672cbd93e3da"

	got := FileID("x/y@main", "a/b.py")
	if got != want {
		t.Errorf("FileID = %q, want %q", got, want)
	}

	if got == ChunkID("x/y@main", "a/b.py", 0, 0) {
		t.Error("FileID must differ from ChunkID with zero lines")
	}
}

func TestIDs_DistinguishRecords(t *testing.T) {
	base := ChunkID("o/r@main", "main.go", 1, 40)

	variants := []string{
		ChunkID("o/r@master", "main.go", 1, 40),
		ChunkID("o/r@main", "util.go", 1, 40),
		ChunkID("o/r@main", "main.go", 2, 40),
		ChunkID("o/r@main", "main.go", 1, 41),
	}
	for i, v := range variants {
		if v == base {
			t.Errorf("variant %d collides with base ID", i)
		}
	}
}
