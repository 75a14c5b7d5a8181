package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/vango-dev/pagegen/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Output streams, replaced in tests.
var (
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

// globalFlags are the persistent flags shared by every command.
type globalFlags struct {
	verbose   bool
	logFormat string
	noColor   bool
}

func main() {
	os.Exit(run(os.Args[1:]))
}

// run executes the CLI and returns the process exit code.
func run(args []string) int {
	rootCmd := newRootCmd()
	rootCmd.SetArgs(args)

	if err := rootCmd.Execute(); err != nil {
		errors.Fprint(stderr, err)
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	var flags globalFlags

	rootCmd := &cobra.Command{
		Use:   "pagegen",
		Short: "Generate routes and views from a directory of pages",
		Long: `pagegen turns a directory tree of plain-text pages into a route table
and one view per page.

Every file under the pages directory becomes a page: its name is the
page identifier, its path is the route, and its text is the body.
File and directory names must be ASCII letters and digits only.

  pages/
  ├── Page0                   → /Page0
  └── SubDir0/
      └── SubDir0Page0        → /SubDir0/SubDir0Page0`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if flags.noColor {
				errors.DisableColors()
			}
			logger, err := newLogger(stderr, flags.verbose, flags.logFormat)
			if err != nil {
				return err
			}
			slog.SetDefault(logger)
			return nil
		},
	}

	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	rootCmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "Log discovered pages and emitted routes")
	rootCmd.PersistentFlags().StringVar(&flags.logFormat, "log-format", "text", "Log format (text or json)")
	rootCmd.PersistentFlags().BoolVar(&flags.noColor, "no-color", false, "Disable colored error output")

	// Add commands
	rootCmd.AddCommand(
		initCmd(),
		genCmd(),
		checkCmd(),
		previewCmd(),
		versionCmd(),
	)

	return rootCmd
}

// newLogger creates the CLI logger.
func newLogger(w io.Writer, verbose bool, format string) (*slog.Logger, error) {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.Attr{
					Key:   a.Key,
					Value: slog.StringValue(a.Value.Time().Format(time.RFC3339)),
				}
			}
			return a
		},
	}

	switch format {
	case "", "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, errors.New("E144").
			WithDetail("Unknown log format \"" + format + "\"").
			WithSuggestion("Use --log-format text or --log-format json")
	}
}

// success prints a success message.
func success(format string, args ...any) {
	fsuccess(stdout, format, args...)
}

// info prints an info message.
func info(format string, args ...any) {
	finfo(stdout, format, args...)
}

// warn prints a warning message.
func warn(format string, args ...any) {
	fmt.Fprintf(stdout, "%s %s\n", mark("\033[33m", "⚠"), fmt.Sprintf(format, args...))
}

func fsuccess(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", mark("\033[32m", "✓"), fmt.Sprintf(format, args...))
}

func finfo(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "  %s\n", fmt.Sprintf(format, args...))
}

// mark colors a status symbol unless --no-color is set.
func mark(code, symbol string) string {
	if !errors.ColorsEnabled() {
		return symbol
	}
	return code + symbol + "\033[0m"
}
