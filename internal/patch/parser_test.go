package patch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextToPatch(t *testing.T) {
	text := patchText(
		"*** Begin Patch",
		"*** Update File: testfile.txt",
		" Line 1",
		" Line 2",
		"-Line 3",
		"+Line 3 modified",
		" Line 4",
		"*** End Patch",
	)
	files := map[string]string{
		"testfile.txt": "Line 1\nLine 2\nLine 3\nLine 4",
	}

	parsed, fuzz, err := TextToPatch(text, files, testGuard(t))
	require.NoError(t, err)
	assert.Equal(t, 0, fuzz)
	assert.Equal(t, []string{"testfile.txt"}, parsed.Paths)

	action, ok := parsed.Actions["testfile.txt"]
	require.True(t, ok, "action for testfile.txt not found")
	assert.Equal(t, ActionUpdate, action.Type)
	require.Len(t, action.Chunks, 1)

	chunk := action.Chunks[0]
	assert.Equal(t, 2, chunk.OrigIndex)
	assert.Equal(t, []string{"Line 3"}, chunk.DelLines)
	assert.Equal(t, []string{"Line 3 modified"}, chunk.InsLines)
}

func TestTextToPatchAddDeleteAndMove(t *testing.T) {
	text := patchText(
		"*** Begin Patch",
		"*** Add File: docs/new.txt",
		"+hello",
		"+",
		"+world",
		"*** Delete File: old.txt",
		"*** Update File: src/a.txt",
		"*** Move to: src/b.txt",
		"@@",
		" keep",
		"*** End Patch",
	)
	files := map[string]string{
		"old.txt":   "bye",
		"src/a.txt": "keep",
	}

	parsed, _, err := TextToPatch(text, files, testGuard(t))
	require.NoError(t, err)
	assert.Equal(t, []string{"docs/new.txt", "old.txt", "src/a.txt"}, parsed.Paths)

	assert.Equal(t, PatchAction{Type: ActionAdd, NewFile: "hello\n\nworld"}, parsed.Actions["docs/new.txt"])
	assert.Equal(t, ActionDelete, parsed.Actions["old.txt"].Type)

	update := parsed.Actions["src/a.txt"]
	assert.Equal(t, ActionUpdate, update.Type)
	assert.Equal(t, "src/b.txt", update.MovePath)
	assert.Empty(t, update.Chunks)
}

func TestTextToPatchErrors(t *testing.T) {
	files := map[string]string{
		"a.txt": "one\ntwo",
		"b.txt": "three",
	}

	cases := []struct {
		name  string
		lines []string
		want  string
		stage Stage
	}{
		{
			name:  "missing begin",
			lines: []string{"*** Update File: a.txt", "*** End Patch"},
			want:  "Invalid patch text - missing sentinels",
			stage: StageParse,
		},
		{
			name:  "missing end",
			lines: []string{"*** Begin Patch", "*** Delete File: a.txt"},
			want:  "Invalid patch text - missing sentinels",
			stage: StageParse,
		},
		{
			name:  "unknown line",
			lines: []string{"*** Begin Patch", "garbage", "*** End Patch"},
			want:  "Unknown line while parsing: garbage",
			stage: StageParse,
		},
		{
			name:  "duplicate update",
			lines: []string{"*** Begin Patch", "*** Update File: a.txt", " one", "*** Update File: a.txt", " one", "*** End Patch"},
			want:  "Duplicate update for file: a.txt",
			stage: StageParse,
		},
		{
			name:  "duplicate delete",
			lines: []string{"*** Begin Patch", "*** Delete File: b.txt", "*** Delete File: b.txt", "*** End Patch"},
			want:  "Duplicate delete for file: b.txt",
			stage: StageParse,
		},
		{
			name:  "duplicate add",
			lines: []string{"*** Begin Patch", "*** Add File: c.txt", "+x", "*** Add File: c.txt", "+y", "*** End Patch"},
			want:  "Duplicate add for file: c.txt",
			stage: StageParse,
		},
		{
			name:  "update missing file",
			lines: []string{"*** Begin Patch", "*** Update File: missing.txt", " one", "*** End Patch"},
			want:  "Update File Error - missing file: missing.txt",
			stage: StageParse,
		},
		{
			name:  "delete missing file",
			lines: []string{"*** Begin Patch", "*** Delete File: missing.txt", "*** End Patch"},
			want:  "Delete File Error - missing file: missing.txt",
			stage: StageParse,
		},
		{
			name:  "add existing file",
			lines: []string{"*** Begin Patch", "*** Add File: a.txt", "+x", "*** End Patch"},
			want:  "Add File Error - file already exists: a.txt",
			stage: StageParse,
		},
		{
			name:  "add line without plus",
			lines: []string{"*** Begin Patch", "*** Add File: c.txt", "+x", "y", "*** End Patch"},
			want:  "Invalid Add File line (missing '+'): y",
			stage: StageParse,
		},
		{
			name:  "second hunk without header",
			lines: []string{"*** Begin Patch", "*** Update File: a.txt", " one", "*** End of File", " two", "*** End Patch"},
			want:  "Invalid line in update section:\n two",
			stage: StageParse,
		},
		{
			name:  "context not found",
			lines: []string{"*** Begin Patch", "*** Update File: a.txt", " zero", "-one", "*** End Patch"},
			want:  "Invalid context at 0:\nzero\none",
			stage: StageMatch,
		},
		{
			name:  "eof context not found",
			lines: []string{"*** Begin Patch", "*** Update File: a.txt", "-nine", "*** End of File", "*** End Patch"},
			want:  "Invalid EOF context at 0:\nnine",
			stage: StageMatch,
		},
		{
			name:  "empty hunk",
			lines: []string{"*** Begin Patch", "*** Update File: a.txt", "@@", "*** End Patch"},
			want:  "Nothing in this section",
			stage: StageParse,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := TextToPatch(patchText(tc.lines...), files, testGuard(t))
			require.Error(t, err)
			assert.Equal(t, tc.want, err.Error())
			assert.Equal(t, tc.stage, StageOf(err))
		})
	}
}

func TestUpdateSectionRejectsBadPrefix(t *testing.T) {
	text := patchText(
		"*** Begin Patch",
		"*** Update File: a.txt",
		"@@",
		"-one",
		"+ONE",
		"@@",
		" two",
		"x",
		"*** End Patch",
	)

	_, _, err := TextToPatch(text, map[string]string{"a.txt": "one\ntwo"}, testGuard(t))
	require.Error(t, err)
	assert.Equal(t, "Invalid Line: x", err.Error())
}

const repeatedBlocks = "func a() {\n\treturn 1\n}\nfunc b() {\n\treturn 1\n}"

func TestHunkHeaderSelectsLocation(t *testing.T) {
	cases := []struct {
		name      string
		header    string
		wantIndex int
		wantFuzz  int
	}{
		{name: "exact header", header: "@@ func b() {", wantIndex: 4, wantFuzz: 0},
		{name: "whitespace drifted header", header: "@@    func b() {  ", wantIndex: 4, wantFuzz: 1},
		{name: "unknown header is ignored", header: "@@ func c() {", wantIndex: 1, wantFuzz: 0},
		{name: "bare header", header: "@@", wantIndex: 1, wantFuzz: 0},
		{name: "header with empty context", header: "@@ ", wantIndex: 1, wantFuzz: 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			text := patchText(
				"*** Begin Patch",
				"*** Update File: f.go",
				tc.header,
				"-\treturn 1",
				"+\treturn 2",
				"*** End Patch",
			)

			parsed, fuzz, err := TextToPatch(text, map[string]string{"f.go": repeatedBlocks}, testGuard(t))
			require.NoError(t, err)
			assert.Equal(t, tc.wantFuzz, fuzz)

			chunks := parsed.Actions["f.go"].Chunks
			require.Len(t, chunks, 1)
			assert.Equal(t, tc.wantIndex, chunks[0].OrigIndex)
		})
	}
}

func TestMultipleHunksAccumulateFuzz(t *testing.T) {
	text := patchText(
		"*** Begin Patch",
		"*** Update File: f.txt",
		"@@",
		" x",
		"-1",
		"+one",
		"@@",
		" y",
		"-2",
		"+two",
		"*** End Patch",
	)

	parsed, fuzz, err := TextToPatch(text, map[string]string{"f.txt": "x \n1\ny \n2"}, testGuard(t))
	require.NoError(t, err)
	assert.Equal(t, 2, fuzz)

	chunks := parsed.Actions["f.txt"].Chunks
	require.Len(t, chunks, 2)
	assert.Equal(t, 1, chunks[0].OrigIndex)
	assert.Equal(t, 3, chunks[1].OrigIndex)
}

func TestTextToPatchAcceptsCRLF(t *testing.T) {
	text := "*** Begin Patch\r\n*** Update File: a.txt\r\n a\r\n-b\r\n+B\r\n*** End Patch\r\n"

	parsed, fuzz, err := TextToPatch(text, map[string]string{"a.txt": "a\nb\nc"}, testGuard(t))
	require.NoError(t, err)
	assert.Equal(t, 0, fuzz)
	assert.Equal(t, []Chunk{{OrigIndex: 1, DelLines: []string{"b"}, InsLines: []string{"B"}}}, parsed.Actions["a.txt"].Chunks)
}

func TestTextToPatchRejectsTraversal(t *testing.T) {
	files := map[string]string{"file.txt": "hello"}

	cases := map[string][]string{
		"update": {"*** Update File: ../evil.txt", "@@", " hello"},
		"delete": {"*** Delete File: ../evil.txt"},
		"add":    {"*** Add File: ../evil.txt", "+malicious"},
		"move":   {"*** Update File: file.txt", "*** Move to: ../evil.txt", "@@", " hello"},
	}

	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			lines := append([]string{"*** Begin Patch"}, body...)
			lines = append(lines, "*** End Patch")

			_, _, err := TextToPatch(patchText(lines...), files, testGuard(t))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "Path outside repository: ../evil.txt")
			assert.Equal(t, StageParse, StageOf(err))
		})
	}
}
