package tool

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/epuerta/applypatch/internal/logging"
	"github.com/epuerta/applypatch/internal/patch"
)

// ApplyPatchName is the name models call the tool by.
const ApplyPatchName = "apply_patch"

const applyPatchDescription = `Edit files by applying a patch in the following format.

*** Begin Patch
*** Update File: path/to/file.py
@@ def example():
-    pass
+    return 1
*** Add File: path/to/new.txt
+first line
*** Delete File: path/to/old.txt
*** End Patch

Each Update File section may be followed by "*** Move to: new/path". Hunks start
with "@@" optionally followed by a line that precedes the change. Lines start with
" " for context, "-" for removal and "+" for insertion. Show three lines of
context around each change and end a hunk that touches the end of the file with
"*** End of File". Paths are relative to the workspace root.`

// ApplyPatchOptions configure the apply_patch tool.
type ApplyPatchOptions struct {
	Guard *patch.PathGuard
	FS    patch.FileSystem
	// MaxFuzz rejects patches whose context matched too loosely. Zero
	// accepts any fuzz.
	MaxFuzz int
	Logger  logging.Logger
}

const leadingSpace = " \t\r\n"

type applyPatchArgs struct {
	Input string `json:"input"`
}

// NewApplyPatch returns the apply_patch tool bound to one workspace.
func NewApplyPatch(opts ApplyPatchOptions) *Tool {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNilLogger()
	}

	return &Tool{
		Name:        ApplyPatchName,
		Description: applyPatchDescription,
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"input": map[string]interface{}{
					"type":        "string",
					"description": "The entire patch, from *** Begin Patch to *** End Patch",
					"pattern":     `^\*\*\* Begin Patch`,
				},
			},
			"required":             []string{"input"},
			"additionalProperties": false,
		},
		Raw: isRawPatch,
		Fn: func(args string) (string, error) {
			if isRawPatch(args) {
				return applyPatch(strings.TrimLeft(args, leadingSpace), opts, logger)
			}
			var params applyPatchArgs
			if err := json.Unmarshal([]byte(args), &params); err != nil {
				return "", fmt.Errorf("failed to parse arguments: %w", err)
			}
			return applyPatch(params.Input, opts, logger)
		},
	}
}

func applyPatch(text string, opts ApplyPatchOptions, logger logging.Logger) (string, error) {
	plan, err := patch.Prepare(text, opts.Guard, opts.FS)
	if err != nil {
		logger.Log("apply_patch: %s failed: %v", patch.StageOf(err), err)
		return "", err
	}
	logger.Log("apply_patch: %d changes, fuzz %d", len(plan.Commit.Paths), plan.Fuzz)

	if opts.MaxFuzz > 0 && plan.Fuzz > opts.MaxFuzz {
		return "", fmt.Errorf("patch context matched with fuzz %d, above the limit of %d", plan.Fuzz, opts.MaxFuzz)
	}
	if err := patch.ApplyCommit(plan.Commit, opts.FS); err != nil {
		logger.Log("apply_patch: apply failed: %v", err)
		return "", err
	}
	return patch.Done, nil
}

// isRawPatch reports whether args is patch text rather than a JSON object.
func isRawPatch(args string) bool {
	return strings.HasPrefix(strings.TrimLeft(args, leadingSpace), patch.PatchBeginMarker)
}
