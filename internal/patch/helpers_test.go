package patch

import (
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// memFS is a map-backed FileSystem that records every mutation in order.
type memFS struct {
	files map[string]string
	ops   []string
}

func newMemFS(files map[string]string) *memFS {
	copied := make(map[string]string, len(files))
	for k, v := range files {
		copied[k] = v
	}
	return &memFS{files: copied}
}

func (m *memFS) ReadFile(path string) (string, error) {
	content, ok := m.files[path]
	if !ok {
		return "", fmt.Errorf("open %s: %w", path, os.ErrNotExist)
	}
	return content, nil
}

func (m *memFS) WriteFile(path, content string) error {
	m.ops = append(m.ops, "write "+path)
	m.files[path] = content
	return nil
}

func (m *memFS) RemoveFile(path string) error {
	m.ops = append(m.ops, "remove "+path)
	delete(m.files, path)
	return nil
}

func testGuard(t *testing.T) *PathGuard {
	t.Helper()
	guard, err := NewPathGuard(t.TempDir())
	require.NoError(t, err)
	return guard
}

func patchText(lines ...string) string {
	return strings.Join(lines, "\n") + "\n"
}
