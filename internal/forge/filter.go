package forge

import (
	"path"
	"strings"
)

// allowBasenames are well-known text files indexed regardless of extension.
var allowBasenames = map[string]bool{
	"license":       true,
	"readme":        true,
	"readme.md":     true,
	".gitignore":    true,
	".dockerignore": true,
	"dockerfile":    true,
}

// allowExtensions are source, config, and markup extensions worth indexing.
var allowExtensions = map[string]bool{
	".py": true, ".js": true, ".ts": true, ".tsx": true, ".jsx": true,
	".java": true, ".go": true, ".rb": true, ".rs": true,
	".cpp": true, ".cc": true, ".c": true, ".h": true, ".hpp": true,
	".cs": true, ".php": true, ".swift": true, ".kt": true, ".kts": true,
	".scala": true, ".r": true, ".m": true, ".mm": true,
	".sh": true, ".bash": true, ".zsh": true,
	".html": true, ".css": true, ".scss": true, ".less": true,
	".json": true, ".yml": true, ".yaml": true, ".toml": true,
	".md": true, ".txt": true, ".env": true,
	".ini": true, ".cfg": true, ".conf": true, ".sql": true,
}

// denyExtensions are known-binary extensions rejected outright.
var denyExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".svg": true,
	".ico": true, ".pdf": true, ".zip": true, ".gz": true, ".tar": true,
	".rar": true, ".7z": true, ".mp4": true, ".mp3": true, ".wav": true,
	".woff": true, ".woff2": true, ".ttf": true, ".jar": true, ".bin": true,
}

// Indexable reports whether a tree path is worth fetching and indexing.
// The decision is pure and made before any body is fetched: binary
// extensions are rejected outright; otherwise a path qualifies by
// well-known basename or by allow-listed extension.
func Indexable(p string) bool {
	base := strings.ToLower(path.Base(p))
	ext := strings.ToLower(path.Ext(base))

	if denyExtensions[ext] {
		return false
	}
	if allowBasenames[base] {
		return true
	}
	return allowExtensions[ext]
}

// FilterPaths returns the indexable subset of paths, preserving order.
func FilterPaths(paths []string) []string {
	kept := make([]string, 0, len(paths))
	for _, p := range paths {
		if Indexable(p) {
			kept = append(kept, p)
		}
	}
	return kept
}
