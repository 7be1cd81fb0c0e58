package preview

import (
	"fmt"
	"strings"

	"github.com/bluekeyes/go-gitdiff/gitdiff"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/epuerta/applypatch/internal/patch"
)

const (
	devNull      = "/dev/null"
	contextLines = 3
)

// FileDiff is the rendered change for one path of a commit.
type FileDiff struct {
	Path    string
	Target  string // differs from Path when the file is moved
	Type    patch.ActionType
	Diff    string // unified diff, empty when the content is unchanged
	Added   int
	Deleted int
}

// Preview describes what applying a commit would do, without doing it.
type Preview struct {
	Files []FileDiff
	Fuzz  int
}

// FromPlan builds the preview of a prepared plan.
func FromPlan(plan *patch.Plan) (*Preview, error) {
	p, err := Build(plan.Commit)
	if err != nil {
		return nil, err
	}
	p.Fuzz = plan.Fuzz
	return p, nil
}

// Build renders every change of commit in commit order.
func Build(commit patch.Commit) (*Preview, error) {
	p := &Preview{}
	for _, path := range commit.Paths {
		fd, err := buildFile(path, commit.Changes[path])
		if err != nil {
			return nil, err
		}
		p.Files = append(p.Files, fd)
	}
	return p, nil
}

func buildFile(path string, change patch.FileChange) (FileDiff, error) {
	fd := FileDiff{Path: path, Target: path, Type: change.Type}
	from, to := "a/"+path, "b/"+path

	switch change.Type {
	case patch.ActionAdd:
		from = devNull
	case patch.ActionDelete:
		to = devNull
		fd.Target = ""
	case patch.ActionUpdate:
		if change.MovePath != "" {
			fd.Target = change.MovePath
			to = "b/" + change.MovePath
		}
	}

	text, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        splitLines(change.OldContent),
		B:        splitLines(change.NewContent),
		FromFile: from,
		ToFile:   to,
		Context:  contextLines,
	})
	if err != nil {
		return fd, fmt.Errorf("error rendering diff for %s: %w", path, err)
	}
	fd.Diff = text

	fd.Added, fd.Deleted, err = countLines(text)
	if err != nil {
		return fd, fmt.Errorf("error reading diff for %s: %w", path, err)
	}
	return fd, nil
}

// countLines parses a unified diff and sums its added and deleted lines.
func countLines(diff string) (int, int, error) {
	if diff == "" {
		return 0, 0, nil
	}
	files, _, err := gitdiff.Parse(strings.NewReader(diff))
	if err != nil {
		return 0, 0, err
	}

	var added, deleted int64
	for _, file := range files {
		for _, frag := range file.TextFragments {
			added += frag.LinesAdded
			deleted += frag.LinesDeleted
		}
	}
	return int(added), int(deleted), nil
}

// splitLines splits text into newline terminated lines. A missing final
// newline is not represented in the preview.
func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	lines := strings.SplitAfter(text, "\n")
	if last := len(lines) - 1; lines[last] == "" {
		lines = lines[:last]
	} else {
		lines[last] += "\n"
	}
	return lines
}

// Totals sums the line counts of every file.
func (p *Preview) Totals() (added, deleted int) {
	for _, fd := range p.Files {
		added += fd.Added
		deleted += fd.Deleted
	}
	return added, deleted
}

// Text concatenates the unified diffs of every file.
func (p *Preview) Text() string {
	var sb strings.Builder
	for _, fd := range p.Files {
		sb.WriteString(fd.Diff)
	}
	return sb.String()
}

// Stat summarizes the preview one file per line, followed by the totals.
func (p *Preview) Stat() string {
	var sb strings.Builder
	for _, fd := range p.Files {
		name := fd.Path
		if fd.Target != "" && fd.Target != fd.Path {
			name = fd.Path + " -> " + fd.Target
		}
		fmt.Fprintf(&sb, "%s %s | +%d -%d\n", fd.Letter(), name, fd.Added, fd.Deleted)
	}

	added, deleted := p.Totals()
	fmt.Fprintf(&sb, "%d %s changed, %d insertions(+), %d deletions(-)",
		len(p.Files), plural(len(p.Files), "file", "files"), added, deleted)
	if p.Fuzz > 0 {
		fmt.Fprintf(&sb, ", fuzz %d", p.Fuzz)
	}
	sb.WriteString("\n")
	return sb.String()
}

// Letter is the one character status used in Stat.
func (fd FileDiff) Letter() string {
	switch {
	case fd.Type == patch.ActionAdd:
		return "A"
	case fd.Type == patch.ActionDelete:
		return "D"
	case fd.Target != fd.Path:
		return "R"
	default:
		return "M"
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
