package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	// Version is set during build
	Version = "dev"
	// GitCommit is set during build
	GitCommit = "none"
	// BuildDate is set during build
	BuildDate = "unknown"
)

// streams are the process handles a command talks to. openTTY supplies the
// keyboard for --confirm, since stdin carries the patch.
type streams struct {
	in      io.Reader
	out     io.Writer
	errOut  io.Writer
	openTTY func() (io.ReadCloser, error)
}

func osStreams() *streams {
	return &streams{
		in:     os.Stdin,
		out:    os.Stdout,
		errOut: os.Stderr,
		openTTY: func() (io.ReadCloser, error) {
			return os.Open("/dev/tty")
		},
	}
}

// newRootCmd builds the command tree bound to s.
func newRootCmd(s *streams) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "applypatch [flags] < patch.txt",
		Short: "Apply a *** Begin Patch / *** End Patch file edit to the working tree",
		Long: `applypatch reads a patch in the pseudo-diff format from stdin and applies it
to the files under --root. Nothing is written unless the whole patch parses
and every hunk finds its context.

Examples:
  applypatch < change.patch
  applypatch --dry-run < change.patch
  applypatch --confirm --root ./project < change.patch`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApply(cmd, s)
		},
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildDate),
	}
	rootCmd.SetIn(s.in)
	rootCmd.SetOut(s.out)
	rootCmd.SetErr(s.errOut)

	flags := rootCmd.PersistentFlags()
	flags.StringP("root", "r", "", "Directory patch paths are resolved against (default: current directory)")
	flags.Int("max-fuzz", 0, "Refuse patches whose context matched with more fuzz than this (0: no limit)")
	flags.Bool("color", true, "Color the preview")
	flags.Bool("debug", false, "Enable debug logging to a file")
	flags.String("log-file", "", "Path to the log file (default: <user cache>/applypatch/logs/applypatch-<timestamp>.log)")

	rootCmd.Flags().BoolP("dry-run", "n", false, "Show the diff and stats without writing anything")
	rootCmd.Flags().BoolP("confirm", "c", false, "Show the diff and ask before writing")

	rootCmd.AddCommand(filesCmd(s))
	rootCmd.AddCommand(toolSchemaCmd(s))
	rootCmd.AddCommand(toolCallCmd(s))
	rootCmd.AddCommand(completionCmd(s))

	return rootCmd
}

// completionCmd creates the completion command for shell completion scripts
func completionCmd(s *streams) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for applypatch.
To load completions:

Bash:
  $ source <(applypatch completion bash)

Zsh:
  $ source <(applypatch completion zsh)

Fish:
  $ applypatch completion fish | source
`,
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"bash", "zsh", "fish"},
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(s.out)
			case "zsh":
				return cmd.Root().GenZshCompletion(s.out)
			default:
				return cmd.Root().GenFishCompletion(s.out, true)
			}
		},
	}

	return cmd
}

func execute(ctx context.Context, s *streams, args []string) error {
	rootCmd := newRootCmd(s)
	rootCmd.SetArgs(args)
	return rootCmd.ExecuteContext(ctx)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s := osStreams()
	if err := execute(ctx, s, os.Args[1:]); err != nil {
		fmt.Fprintln(s.errOut, err)
		stop()
		os.Exit(1)
	}
}
