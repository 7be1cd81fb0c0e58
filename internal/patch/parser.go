package patch

import (
	"strings"
)

// Constants for patch parsing
const (
	PatchBeginMarker = "*** Begin Patch"
	PatchEndMarker   = "*** End Patch"
	UpdateFilePrefix = "*** Update File: "
	AddFilePrefix    = "*** Add File: "
	DeleteFilePrefix = "*** Delete File: "
	MoveToPrefix     = "*** Move to: "
	EndOfFileMarker  = "*** End of File"
	HunkHeader       = "@@"
)

// Parser turns patch lines into a Patch, matching update hunks against the
// current contents of the files they touch.
type Parser struct {
	CurrentFiles map[string]string
	Lines        []string
	Index        int
	Patch        Patch
	Fuzz         int

	guard *PathGuard
}

// NewParser creates a parser over lines. currentFiles must be keyed by the
// normalized paths produced by guard.
func NewParser(currentFiles map[string]string, lines []string, guard *PathGuard) *Parser {
	return &Parser{
		CurrentFiles: currentFiles,
		Lines:        lines,
		Patch:        newPatch(),
		guard:        guard,
	}
}

// isDone reports whether the input is exhausted or the current line starts
// with one of prefixes.
func (p *Parser) isDone(prefixes ...string) bool {
	if p.Index >= len(p.Lines) {
		return true
	}
	return p.startsWith(prefixes...)
}

func (p *Parser) startsWith(prefixes ...string) bool {
	if p.Index >= len(p.Lines) {
		return false
	}
	for _, prefix := range prefixes {
		if strings.HasPrefix(p.Lines[p.Index], prefix) {
			return true
		}
	}
	return false
}

// readPath consumes a directive line carrying a non-empty path after prefix.
func (p *Parser) readPath(prefix string) (string, bool) {
	if p.Index >= len(p.Lines) {
		return "", false
	}
	rest, ok := strings.CutPrefix(p.Lines[p.Index], prefix)
	if !ok || rest == "" {
		return "", false
	}
	p.Index++
	return rest, true
}

// Parse consumes the whole patch body up to and including *** End Patch.
func (p *Parser) Parse() error {
	for !p.isDone(PatchEndMarker) {
		if path, ok := p.readPath(UpdateFilePrefix); ok {
			if err := p.parseUpdateDirective(path); err != nil {
				return err
			}
			continue
		}

		if path, ok := p.readPath(DeleteFilePrefix); ok {
			path, err := p.guard.Normalize(path)
			if err != nil {
				return err
			}
			if _, exists := p.Patch.Actions[path]; exists {
				return newError(StageParse, "Duplicate delete for file: %s", path)
			}
			if _, exists := p.CurrentFiles[path]; !exists {
				return newError(StageParse, "Delete File Error - missing file: %s", path)
			}
			p.Patch.add(path, PatchAction{Type: ActionDelete})
			continue
		}

		if path, ok := p.readPath(AddFilePrefix); ok {
			path, err := p.guard.Normalize(path)
			if err != nil {
				return err
			}
			if _, exists := p.Patch.Actions[path]; exists {
				return newError(StageParse, "Duplicate add for file: %s", path)
			}
			if _, exists := p.CurrentFiles[path]; exists {
				return newError(StageParse, "Add File Error - file already exists: %s", path)
			}
			action, err := p.parseAddFile()
			if err != nil {
				return err
			}
			p.Patch.add(path, action)
			continue
		}

		return newError(StageParse, "Unknown line while parsing: %s", p.Lines[p.Index])
	}

	if !p.startsWith(PatchEndMarker) {
		return newError(StageParse, "Missing *** End Patch sentinel")
	}
	p.Index++
	return nil
}

func (p *Parser) parseUpdateDirective(rawPath string) error {
	path, err := p.guard.Normalize(rawPath)
	if err != nil {
		return err
	}
	if _, exists := p.Patch.Actions[path]; exists {
		return newError(StageParse, "Duplicate update for file: %s", path)
	}

	moveTo := ""
	if rawMove, ok := p.readPath(MoveToPrefix); ok {
		if moveTo, err = p.guard.Normalize(rawMove); err != nil {
			return err
		}
		if moveTo == path {
			moveTo = ""
		}
	}

	text, exists := p.CurrentFiles[path]
	if !exists {
		return newError(StageParse, "Update File Error - missing file: %s", path)
	}

	action, err := p.parseUpdateFile(text)
	if err != nil {
		return err
	}
	action.MovePath = moveTo
	p.Patch.add(path, action)
	return nil
}

// parseUpdateFile parses the hunks of one update against the file text.
func (p *Parser) parseUpdateFile(text string) (PatchAction, error) {
	action := PatchAction{Type: ActionUpdate}
	fileLines := strings.Split(text, "\n")
	index := 0

	for !p.isDone(
		PatchEndMarker,
		UpdateFilePrefix,
		DeleteFilePrefix,
		AddFilePrefix,
		EndOfFileMarker,
	) {
		defStr, hasHeader := p.readHunkHeader()
		if !hasHeader && index != 0 {
			return action, newError(StageParse, "Invalid line in update section:\n%s", p.Lines[p.Index])
		}
		if strings.TrimSpace(defStr) != "" {
			index = p.seekHeaderLine(fileLines, defStr, index)
		}

		oldContext, chunks, endIndex, eof, err := peekNextSection(p.Lines, p.Index)
		if err != nil {
			return action, err
		}

		newIndex, fuzz := findContext(fileLines, oldContext, index, eof)
		if newIndex == -1 {
			eofLabel := ""
			if eof {
				eofLabel = "EOF "
			}
			return action, newError(StageMatch, "Invalid %scontext at %d:\n%s",
				eofLabel, index, strings.Join(oldContext, "\n"))
		}
		p.Fuzz += fuzz

		for _, chunk := range chunks {
			chunk.OrigIndex += newIndex
			action.Chunks = append(action.Chunks, chunk)
		}
		index = newIndex + len(oldContext)
		p.Index = endIndex
	}

	return action, nil
}

// readHunkHeader consumes an "@@" or "@@ <context>" line. "@@ " with nothing
// after it counts as a bare header in any position, including between hunks,
// where a stricter reading would reject the line that follows it.
func (p *Parser) readHunkHeader() (string, bool) {
	line := p.Lines[p.Index]
	if line == HunkHeader {
		p.Index++
		return "", true
	}
	if defStr, ok := strings.CutPrefix(line, HunkHeader+" "); ok {
		p.Index++
		return defStr, true
	}
	return "", false
}

// seekHeaderLine moves the search start just past the line named by an
// "@@ <context>" header. An exact hit costs nothing, a whitespace-insensitive
// hit adds one to the fuzz, and a header found nowhere leaves index as is.
func (p *Parser) seekHeaderLine(fileLines []string, defStr string, index int) int {
	if !containsLine(fileLines[:index], defStr, identity) {
		for i := index; i < len(fileLines); i++ {
			if fileLines[i] == defStr {
				return i + 1
			}
		}
	}

	if !containsLine(fileLines[:index], defStr, strings.TrimSpace) {
		trimmed := strings.TrimSpace(defStr)
		for i := index; i < len(fileLines); i++ {
			if strings.TrimSpace(fileLines[i]) == trimmed {
				p.Fuzz++
				return i + 1
			}
		}
	}
	return index
}

func (p *Parser) parseAddFile() (PatchAction, error) {
	var lines []string
	for !p.isDone(PatchEndMarker, UpdateFilePrefix, DeleteFilePrefix, AddFilePrefix) {
		line := p.Lines[p.Index]
		p.Index++
		if !strings.HasPrefix(line, "+") {
			return PatchAction{}, newError(StageParse, "Invalid Add File line (missing '+'): %s", line)
		}
		lines = append(lines, line[1:])
	}
	return PatchAction{Type: ActionAdd, NewFile: strings.Join(lines, "\n")}, nil
}

// TextToPatch parses patch text against the original file contents and
// returns the patch with its accumulated fuzz.
func TextToPatch(text string, orig map[string]string, guard *PathGuard) (Patch, int, error) {
	lines := splitPatchLines(text)
	if len(lines) < 2 || !strings.HasPrefix(lines[0], PatchBeginMarker) || lines[len(lines)-1] != PatchEndMarker {
		return Patch{}, 0, newError(StageParse, "Invalid patch text - missing sentinels")
	}

	parser := NewParser(orig, lines, guard)
	parser.Index = 1

	if err := parser.Parse(); err != nil {
		return Patch{}, 0, err
	}
	return parser.Patch, parser.Fuzz, nil
}

// splitPatchLines splits on newlines, drops the empty element left by a
// trailing newline and strips carriage returns so CRLF patches compare equal.
func splitPatchLines(text string) []string {
	if text == "" {
		return nil
	}
	lines := strings.Split(strings.TrimSuffix(text, "\n"), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}

func identity(s string) string { return s }

func containsLine(lines []string, want string, norm func(string) string) bool {
	want = norm(want)
	for _, line := range lines {
		if norm(line) == want {
			return true
		}
	}
	return false
}
