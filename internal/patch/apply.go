package patch

import (
	"errors"
	"os"
	"strings"
)

// Done is returned by ApplyPatch on success.
const Done = "Done!"

// FileSystem is the only boundary between the patch pipeline and real storage.
// Paths are the normalized, root-relative paths produced by a PathGuard.
type FileSystem interface {
	// ReadFile returns the whole text of path. A missing path fails with an
	// error wrapping os.ErrNotExist.
	ReadFile(path string) (string, error)
	// WriteFile creates or overwrites path, creating parent directories.
	WriteFile(path, content string) error
	// RemoveFile deletes path. A missing file is not an error.
	RemoveFile(path string) error
}

// Funcs adapts three plain functions to FileSystem.
type Funcs struct {
	Open   func(path string) (string, error)
	Write  func(path, content string) error
	Remove func(path string) error
}

func (f Funcs) ReadFile(path string) (string, error) { return f.Open(path) }
func (f Funcs) WriteFile(path, content string) error { return f.Write(path, content) }
func (f Funcs) RemoveFile(path string) error         { return f.Remove(path) }

// Plan is a parsed and compiled patch. Building one never touches the
// filesystem beyond reading the files the patch updates or deletes.
type Plan struct {
	Patch  Patch
	Commit Commit
	Fuzz   int
}

// Prepare identifies and loads the files a patch needs, parses it and
// compiles the resulting commit.
func Prepare(text string, guard *PathGuard, fs FileSystem) (*Plan, error) {
	if !strings.HasPrefix(text, PatchBeginMarker) {
		return nil, newError(StageParse, "Patch text must start with %s", PatchBeginMarker)
	}

	paths, err := IdentifyFilesNeeded(text, guard)
	if err != nil {
		return nil, err
	}
	orig, err := LoadFiles(paths, fs)
	if err != nil {
		return nil, err
	}
	added, err := IdentifyFilesAdded(text, guard)
	if err != nil {
		return nil, err
	}
	if err := probeExisting(added, orig, fs); err != nil {
		return nil, err
	}

	parsed, fuzz, err := TextToPatch(text, orig, guard)
	if err != nil {
		return nil, err
	}
	commit, err := PatchToCommit(parsed, orig)
	if err != nil {
		return nil, err
	}
	return &Plan{Patch: parsed, Commit: commit, Fuzz: fuzz}, nil
}

// ApplyPatch runs the whole pipeline and returns Done on success. Nothing is
// written unless the entire patch parses and compiles.
func ApplyPatch(text string, guard *PathGuard, fs FileSystem) (string, error) {
	plan, err := Prepare(text, guard, fs)
	if err != nil {
		return "", err
	}
	if err := ApplyCommit(plan.Commit, fs); err != nil {
		return "", err
	}
	return Done, nil
}

// ApplyCommit performs exactly one write or remove per change, plus the
// removal of the source of a moved file, in commit order. There is no
// rollback: writes that succeeded before a failure stay in place.
func ApplyCommit(commit Commit, fs FileSystem) error {
	for _, path := range commit.Paths {
		change := commit.Changes[path]
		switch change.Type {
		case ActionDelete:
			if err := fs.RemoveFile(path); err != nil {
				return wrapError(StageApply, err, "Failed to delete %s", path)
			}
		case ActionAdd:
			if err := fs.WriteFile(path, change.NewContent); err != nil {
				return wrapError(StageApply, err, "Failed to write %s", path)
			}
		case ActionUpdate:
			target := path
			moved := change.MovePath != "" && change.MovePath != path
			if moved {
				target = change.MovePath
			}
			if err := fs.WriteFile(target, change.NewContent); err != nil {
				return wrapError(StageApply, err, "Failed to write %s", target)
			}
			if moved {
				if err := fs.RemoveFile(path); err != nil {
					return wrapError(StageApply, err, "Failed to remove %s after move", path)
				}
			}
		default:
			return newError(StageApply, "%s: unknown change type %q", path, change.Type)
		}
	}
	return nil
}

// LoadFiles reads each path once through fs.
func LoadFiles(paths []string, fs FileSystem) (map[string]string, error) {
	orig := make(map[string]string, len(paths))
	for _, path := range paths {
		if _, loaded := orig[path]; loaded {
			continue
		}
		content, err := fs.ReadFile(path)
		if err != nil {
			return nil, wrapError(StageLoad, err, "File not found: %s", path)
		}
		orig[path] = content
	}
	return orig, nil
}

// probeExisting records the content of any added path that already exists so
// the parser can reject the Add File directive. Only a missing file counts as
// absent.
func probeExisting(paths []string, orig map[string]string, fs FileSystem) error {
	for _, path := range paths {
		if _, loaded := orig[path]; loaded {
			continue
		}
		content, err := fs.ReadFile(path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return wrapError(StageLoad, err, "Add File Error - cannot check %s", path)
		}
		orig[path] = content
	}
	return nil
}

// IdentifyFilesNeeded lists the normalized paths of every Update File
// directive followed by every Delete File directive.
func IdentifyFilesNeeded(text string, guard *PathGuard) ([]string, error) {
	lines := splitPatchLines(text)
	updates, err := directivePaths(lines, UpdateFilePrefix, guard)
	if err != nil {
		return nil, err
	}
	deletes, err := directivePaths(lines, DeleteFilePrefix, guard)
	if err != nil {
		return nil, err
	}
	return append(updates, deletes...), nil
}

// IdentifyFilesAdded lists the normalized paths of every Add File directive.
func IdentifyFilesAdded(text string, guard *PathGuard) ([]string, error) {
	return directivePaths(splitPatchLines(text), AddFilePrefix, guard)
}

func directivePaths(lines []string, prefix string, guard *PathGuard) ([]string, error) {
	var paths []string
	for _, line := range lines {
		raw, ok := strings.CutPrefix(line, prefix)
		if !ok || raw == "" {
			continue
		}
		path, err := guard.Normalize(raw)
		if err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}
