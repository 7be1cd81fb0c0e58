package patch

import (
	"strings"
)

// getUpdatedFile replays the chunks of an update over the original text.
func getUpdatedFile(text string, action PatchAction, path string) (string, error) {
	if action.Type != ActionUpdate {
		return "", newError(StageCompile, "%s: expected an update action, got %s", path, action.Type)
	}

	origLines := strings.Split(text, "\n")
	destLines := make([]string, 0, len(origLines))
	origIndex := 0

	for _, chunk := range action.Chunks {
		if chunk.OrigIndex > len(origLines) {
			return "", newError(StageCompile, "%s: chunk.orig_index %d exceeds file length", path, chunk.OrigIndex)
		}
		if origIndex > chunk.OrigIndex {
			return "", newError(StageCompile, "%s: overlapping chunks at %d > %d", path, origIndex, chunk.OrigIndex)
		}

		destLines = append(destLines, origLines[origIndex:chunk.OrigIndex]...)
		destLines = append(destLines, chunk.InsLines...)
		origIndex = chunk.OrigIndex + len(chunk.DelLines)
	}

	if origIndex < len(origLines) {
		destLines = append(destLines, origLines[origIndex:]...)
	}
	return strings.Join(destLines, "\n"), nil
}

// PatchToCommit resolves every action of patch into a FileChange using the
// original contents in orig.
func PatchToCommit(patch Patch, orig map[string]string) (Commit, error) {
	commit := newCommit()

	for _, path := range patch.Paths {
		action := patch.Actions[path]
		switch action.Type {
		case ActionDelete:
			commit.add(path, FileChange{
				Type:       ActionDelete,
				OldContent: orig[path],
			})
		case ActionAdd:
			commit.add(path, FileChange{
				Type:       ActionAdd,
				NewContent: action.NewFile,
			})
		case ActionUpdate:
			newContent, err := getUpdatedFile(orig[path], action, path)
			if err != nil {
				return Commit{}, err
			}
			commit.add(path, FileChange{
				Type:       ActionUpdate,
				OldContent: orig[path],
				NewContent: newContent,
				MovePath:   action.MovePath,
			})
		default:
			return Commit{}, newError(StageCompile, "%s: unknown action type %q", path, action.Type)
		}
	}

	return commit, nil
}
