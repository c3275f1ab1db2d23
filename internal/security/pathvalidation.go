// Package security guards filesystem paths and names derived from request
// input.
package security

import (
	"fmt"
	"path/filepath"
	"strings"
)

// ValidatePathWithinDirectory rejects paths that resolve outside dir. Both
// are made absolute and symlinks are resolved on the deepest existing
// ancestor, so a path through a symlinked directory is judged by where it
// really points.
func ValidatePathWithinDirectory(path, dir string) error {
	target, err := canonical(path)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", path, err)
	}
	root, err := canonical(dir)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", dir, err)
	}
	rel, err := filepath.Rel(root, target)
	if err != nil {
		return fmt.Errorf("path is outside %s: %w", dir, err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(rel) {
		return fmt.Errorf("path traversal detected: %s escapes %s", path, dir)
	}
	return nil
}

// canonical returns the absolute form of p with symlinks resolved on its
// longest existing prefix.
func canonical(p string) (string, error) {
	abs, err := filepath.Abs(filepath.Clean(p))
	if err != nil {
		return "", err
	}
	existing, rest := abs, ""
	for {
		if resolved, err := filepath.EvalSymlinks(existing); err == nil {
			return filepath.Join(resolved, rest), nil
		}
		parent := filepath.Dir(existing)
		if parent == existing {
			return abs, nil
		}
		rest = filepath.Join(filepath.Base(existing), rest)
		existing = parent
	}
}

const maxFilenameLen = 128

// SanitizeFilename maps an arbitrary string onto [A-Za-z0-9._-], collapsing
// runs of other characters into a single underscore. Leading and trailing
// dots and underscores are trimmed; an empty result becomes "unknown".
func SanitizeFilename(s string) string {
	var b strings.Builder
	under := false
	for _, r := range s {
		if b.Len() >= maxFilenameLen {
			break
		}
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
			b.WriteRune(r)
			under = r == '_'
		case !under:
			b.WriteByte('_')
			under = true
		}
	}
	out := strings.Trim(b.String(), "._")
	if out == "" {
		return "unknown"
	}
	return out
}
