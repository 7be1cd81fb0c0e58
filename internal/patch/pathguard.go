package patch

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// PathGuard resolves patch paths against a fixed root and rejects any path
// that would land outside of it.
type PathGuard struct {
	root string
}

// NewPathGuard creates a guard rooted at root. A relative root is resolved
// against the working directory.
func NewPathGuard(root string) (*PathGuard, error) {
	if strings.TrimSpace(root) == "" {
		root = "."
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, wrapError(StageParse, err, "Invalid root: %s", root)
	}
	resolved, err := resolveSymlinks(abs)
	if err != nil {
		return nil, wrapError(StageParse, err, "Invalid root: %s", root)
	}
	return &PathGuard{root: resolved}, nil
}

// Root returns the canonical absolute root.
func (g *PathGuard) Root() string {
	return g.root
}

// Resolve returns the canonical absolute location of path.
func (g *PathGuard) Resolve(path string) (string, error) {
	target := path
	if !filepath.IsAbs(target) {
		target = filepath.Join(g.root, target)
	}
	target, err := resolveSymlinks(filepath.Clean(target))
	if err != nil {
		return "", wrapError(StageParse, err, "Path outside repository: %s", path)
	}

	rel, err := filepath.Rel(g.root, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", newError(StageParse, "Path outside repository: %s", path)
	}
	if rel == "." {
		return "", newError(StageParse, "Path refers to the repository root: %s", path)
	}
	return target, nil
}

// Normalize returns path relative to the root, using forward slashes.
func (g *PathGuard) Normalize(path string) (string, error) {
	abs, err := g.Resolve(path)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(g.root, abs)
	if err != nil {
		return "", wrapError(StageParse, err, "Path outside repository: %s", path)
	}
	return filepath.ToSlash(rel), nil
}

// maxLinkHops bounds how many dangling links resolveSymlinks follows.
const maxLinkHops = 40

// resolveSymlinks evaluates symlinks on the longest existing prefix of an
// absolute, clean path and re-attaches the missing tail. A dangling link is
// followed through its target so the result names the file a write would
// create.
func resolveSymlinks(path string) (string, error) {
	for hop := 0; hop < maxLinkHops; hop++ {
		existing, tail, ok := existingPrefix(path)
		if !ok {
			return path, nil
		}

		resolved, err := filepath.EvalSymlinks(existing)
		if err == nil {
			return joinTail(resolved, tail), nil
		}

		info, lerr := os.Lstat(existing)
		if lerr != nil || info.Mode()&os.ModeSymlink == 0 {
			return "", err
		}
		target, lerr := os.Readlink(existing)
		if lerr != nil {
			return "", lerr
		}
		if !filepath.IsAbs(target) {
			target = filepath.Join(filepath.Dir(existing), target)
		}
		path = joinTail(filepath.Clean(target), tail)
	}
	return "", fmt.Errorf("too many levels of symbolic links: %s", path)
}

// existingPrefix splits path into its longest existing prefix and the
// missing components after it, innermost first.
func existingPrefix(path string) (string, []string, bool) {
	existing := path
	var tail []string
	for {
		if _, err := os.Lstat(existing); err == nil {
			return existing, tail, true
		}
		parent := filepath.Dir(existing)
		if parent == existing {
			return "", nil, false
		}
		tail = append(tail, filepath.Base(existing))
		existing = parent
	}
}

func joinTail(base string, tail []string) string {
	for i := len(tail) - 1; i >= 0; i-- {
		base = filepath.Join(base, tail[i])
	}
	return base
}
