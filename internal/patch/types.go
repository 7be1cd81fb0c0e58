package patch

import (
	"errors"
	"fmt"
)

// ActionType defines the type of patch action
type ActionType string

const (
	// ActionAdd represents adding a new file
	ActionAdd ActionType = "add"
	// ActionDelete represents deleting an existing file
	ActionDelete ActionType = "delete"
	// ActionUpdate represents updating an existing file
	ActionUpdate ActionType = "update"
)

// Chunk is one contiguous edit inside an update. OrigIndex is the 0-based line
// in the original file where DelLines start and InsLines take their place.
type Chunk struct {
	OrigIndex int
	DelLines  []string
	InsLines  []string
}

// PatchAction represents an action to be performed on a file
type PatchAction struct {
	Type     ActionType
	NewFile  string  // Content for new files (only used for ActionAdd)
	Chunks   []Chunk // Chunks for updates, ordered by OrigIndex
	MovePath string  // Destination when an update renames the file
}

// Patch maps normalized paths to the single action for each path.
// Paths keeps the order in which the directives appeared.
type Patch struct {
	Actions map[string]PatchAction
	Paths   []string
}

func newPatch() Patch {
	return Patch{Actions: make(map[string]PatchAction)}
}

func (p *Patch) add(path string, action PatchAction) {
	p.Actions[path] = action
	p.Paths = append(p.Paths, path)
}

// FileChange represents the change to be made to a file
type FileChange struct {
	Type       ActionType
	OldContent string
	NewContent string
	MovePath   string
}

// Commit is the fully resolved set of changes, keyed by source path.
// Paths preserves the patch order and is the order changes are applied in.
type Commit struct {
	Changes map[string]FileChange
	Paths   []string
}

func newCommit() Commit {
	return Commit{Changes: make(map[string]FileChange)}
}

func (c *Commit) add(path string, change FileChange) {
	c.Changes[path] = change
	c.Paths = append(c.Paths, path)
}

// Stage tags where in the pipeline a DiffError was raised.
type Stage string

const (
	StageParse   Stage = "parse"
	StageLoad    Stage = "load"
	StageMatch   Stage = "match"
	StageCompile Stage = "compile"
	StageApply   Stage = "apply"
)

// DiffError is the single error kind of the patch pipeline.
type DiffError struct {
	Stage   Stage
	Message string
	Err     error
}

func (e *DiffError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DiffError) Unwrap() error {
	return e.Err
}

func newError(stage Stage, format string, args ...interface{}) *DiffError {
	return &DiffError{Stage: stage, Message: fmt.Sprintf(format, args...)}
}

func wrapError(stage Stage, err error, format string, args ...interface{}) *DiffError {
	return &DiffError{Stage: stage, Message: fmt.Sprintf(format, args...), Err: err}
}

// StageOf returns the stage of the first DiffError in err's chain, or "" when
// err did not come from the patch pipeline.
func StageOf(err error) Stage {
	var diffErr *DiffError
	if errors.As(err, &diffErr) {
		return diffErr.Stage
	}
	return ""
}
