package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	openai "github.com/sashabaranov/go-openai"
	"github.com/spf13/cobra"

	"github.com/epuerta/applypatch/internal/config"
	"github.com/epuerta/applypatch/internal/fsys"
	"github.com/epuerta/applypatch/internal/logging"
	"github.com/epuerta/applypatch/internal/patch"
	"github.com/epuerta/applypatch/internal/preview"
	"github.com/epuerta/applypatch/internal/tool"
	"github.com/epuerta/applypatch/internal/ui"
)

// errNoPatch is returned when stdin is empty.
var errNoPatch = errors.New("Please pass patch text through stdin")

// session is the configuration and workspace of one command run.
type session struct {
	cfg    *config.Config
	logger logging.Logger
	guard  *patch.PathGuard
	fs     *fsys.FS
	runID  string
}

func newSession(cmd *cobra.Command) (*session, error) {
	cfg, err := config.Load(config.Options{Flags: cmd.Flags()})
	if err != nil {
		return nil, err
	}

	base, logPath, err := logging.Open(cfg.Debug, cfg.LogFile)
	if err != nil {
		return nil, fmt.Errorf("error creating file logger: %w", err)
	}
	runID := uuid.NewString()
	logger := logging.WithPrefix(base, runID[:8])
	logger.Log("--- applypatch session start --- version=%s command=%q", Version, cmd.CommandPath())
	if logPath != "" {
		logger.Log("Debug logging enabled. Log file: %s", logPath)
	}
	logger.Log("Config loaded: root=%s max_fuzz=%d dry_run=%t confirm=%t file=%q",
		cfg.Root, cfg.MaxFuzz, cfg.DryRun, cfg.Confirm, cfg.ConfigFile)

	if info, err := os.Stat(cfg.Root); err != nil || !info.IsDir() {
		logger.Close()
		return nil, fmt.Errorf("root %s is not a directory", cfg.Root)
	}
	guard, err := patch.NewPathGuard(cfg.Root)
	if err != nil {
		logger.Close()
		return nil, err
	}

	return &session{
		cfg:    cfg,
		logger: logger,
		guard:  guard,
		fs:     fsys.NewOS(guard.Root()),
		runID:  runID,
	}, nil
}

func (s *session) close() {
	s.logger.Log("--- applypatch session end ---")
	_ = s.logger.Close()
}

func (s *session) registry() *tool.Registry {
	r := tool.NewRegistry()
	r.Register(tool.NewApplyPatch(tool.ApplyPatchOptions{
		Guard:   s.guard,
		FS:      s.fs,
		MaxFuzz: s.cfg.MaxFuzz,
		Logger:  s.logger,
	}))
	return r
}

func readPatch(in io.Reader) (string, error) {
	data, err := io.ReadAll(in)
	if err != nil {
		return "", fmt.Errorf("error reading stdin: %w", err)
	}
	if len(data) == 0 {
		return "", errNoPatch
	}
	return string(data), nil
}

// runApply is the root command: prepare, optionally preview or confirm,
// then write.
func runApply(cmd *cobra.Command, s *streams) error {
	text, err := readPatch(s.in)
	if err != nil {
		return err
	}

	sess, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer sess.close()
	log := sess.logger

	plan, err := patch.Prepare(text, sess.guard, sess.fs)
	if err != nil {
		log.Log("Prepare failed at %s stage: %v", patch.StageOf(err), err)
		return err
	}
	log.Log("Prepared %d changes with fuzz %d", len(plan.Commit.Paths), plan.Fuzz)

	if !sess.cfg.FuzzAllowed(plan.Fuzz) {
		return fmt.Errorf("patch context matched with fuzz %d, above --max-fuzz %d", plan.Fuzz, sess.cfg.MaxFuzz)
	}

	if sess.cfg.DryRun || sess.cfg.Confirm {
		pv, err := preview.FromPlan(plan)
		if err != nil {
			return err
		}
		if sess.cfg.DryRun {
			log.Log("Dry run, nothing written")
			fmt.Fprint(s.out, pv.Render(sess.cfg.Color))
			return nil
		}

		approved, err := confirm(cmd.Context(), s, pv, sess.cfg.Color)
		if err != nil {
			return err
		}
		log.Log("Approval result: %t", approved)
		if !approved {
			return errors.New("Patch not applied")
		}
	}

	for _, path := range plan.Commit.Paths {
		change := plan.Commit.Changes[path]
		if change.MovePath != "" {
			log.Log("%s %s -> %s", change.Type, path, change.MovePath)
		} else {
			log.Log("%s %s", change.Type, path)
		}
	}
	if err := patch.ApplyCommit(plan.Commit, sess.fs); err != nil {
		log.Log("Apply failed: %v", err)
		return err
	}

	fmt.Fprintln(s.out, patch.Done)
	return nil
}

func confirm(ctx context.Context, s *streams, pv *preview.Preview, color bool) (bool, error) {
	tty, err := s.openTTY()
	if err != nil {
		return false, fmt.Errorf("--confirm needs a terminal: %w", err)
	}
	defer tty.Close()

	body := pv.Text()
	if color {
		body = preview.Colorize(body)
	}
	model := ui.NewApprovalModel("Apply patch?", strings.TrimSpace(pv.Stat()), body)
	return ui.GetApproval(ctx, model, tty, s.errOut)
}

func filesCmd(s *streams) *cobra.Command {
	return &cobra.Command{
		Use:   "files < patch.txt",
		Short: "List the files a patch reads and the files it adds",
		Long: `Print one line per path named by the patch on stdin. Paths the patch
updates or deletes are prefixed with "needed", paths it adds with "added".`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readPatch(s.in)
			if err != nil {
				return err
			}
			sess, err := newSession(cmd)
			if err != nil {
				return err
			}
			defer sess.close()

			needed, err := patch.IdentifyFilesNeeded(text, sess.guard)
			if err != nil {
				return err
			}
			added, err := patch.IdentifyFilesAdded(text, sess.guard)
			if err != nil {
				return err
			}
			for _, path := range needed {
				fmt.Fprintf(s.out, "needed\t%s\n", path)
			}
			for _, path := range added {
				fmt.Fprintf(s.out, "added\t%s\n", path)
			}
			return nil
		},
	}
}

func toolSchemaCmd(s *streams) *cobra.Command {
	return &cobra.Command{
		Use:   "tool-schema",
		Short: "Print the apply_patch function tool definition as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r := tool.NewRegistry()
			r.Register(tool.NewApplyPatch(tool.ApplyPatchOptions{}))
			return writeJSON(s.out, r.Definitions())
		},
	}
}

func toolCallCmd(s *streams) *cobra.Command {
	return &cobra.Command{
		Use:   "tool-call < call.json",
		Short: "Execute one tool call read from stdin and print the tool result message",
		Long: `Read a chat completion tool call, for example

  {"id": "call_1", "type": "function",
   "function": {"name": "apply_patch", "arguments": "{\"input\": \"*** Begin Patch...\"}"}}

run it against --root and print the tool message to send back to the model.
Patch failures are reported inside the message, not as an exit status.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := io.ReadAll(s.in)
			if err != nil {
				return fmt.Errorf("error reading stdin: %w", err)
			}
			var call openai.ToolCall
			if err := json.Unmarshal(data, &call); err != nil {
				return fmt.Errorf("error decoding tool call: %w", err)
			}

			sess, err := newSession(cmd)
			if err != nil {
				return err
			}
			defer sess.close()

			sess.logger.Log("Tool call %s: %s", call.ID, call.Function.Name)
			return writeJSON(s.out, sess.registry().Handle(call))
		},
	}
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
