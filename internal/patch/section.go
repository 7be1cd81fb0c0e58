package patch

import "strings"

type lineMode int

const (
	modeKeep lineMode = iota
	modeAdd
	modeDelete
)

// sectionTerminators end a run of edit lines.
var sectionTerminators = []string{
	HunkHeader,
	PatchEndMarker,
	UpdateFilePrefix,
	DeleteFilePrefix,
	AddFilePrefix,
	EndOfFileMarker,
}

// peekNextSection scans the edit lines starting at index. It returns the old
// side of the section (context plus deleted lines), the chunks relative to the
// start of that old side, the index of the first unconsumed line, and whether
// the section was terminated by *** End of File.
func peekNextSection(lines []string, index int) ([]string, []Chunk, int, bool, error) {
	var (
		old      []string
		delLines []string
		insLines []string
		chunks   []Chunk
	)
	mode := modeKeep
	start := index

	flush := func() {
		if len(insLines) > 0 || len(delLines) > 0 {
			chunks = append(chunks, Chunk{
				OrigIndex: len(old) - len(delLines),
				DelLines:  delLines,
				InsLines:  insLines,
			})
		}
		delLines, insLines = nil, nil
	}

	for index < len(lines) {
		s := lines[index]
		if hasAnyPrefix(s, sectionTerminators) || s == "***" {
			break
		}
		if strings.HasPrefix(s, "***") {
			return nil, nil, 0, false, newError(StageParse, "Invalid Line: %s", s)
		}
		index++

		lastMode := mode
		if s == "" {
			s = " "
		}
		switch s[0] {
		case '+':
			mode = modeAdd
		case '-':
			mode = modeDelete
		case ' ':
			mode = modeKeep
		default:
			return nil, nil, 0, false, newError(StageParse, "Invalid Line: %s", s)
		}
		s = s[1:]

		if mode == modeKeep && lastMode != mode {
			flush()
		}

		switch mode {
		case modeDelete:
			delLines = append(delLines, s)
			old = append(old, s)
		case modeAdd:
			insLines = append(insLines, s)
		default:
			old = append(old, s)
		}
	}
	flush()

	if index < len(lines) && lines[index] == EndOfFileMarker {
		return old, chunks, index + 1, true, nil
	}
	if index == start {
		return nil, nil, 0, false, newError(StageParse, "Nothing in this section")
	}
	return old, chunks, index, false, nil
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if strings.HasPrefix(s, prefix) {
			return true
		}
	}
	return false
}
