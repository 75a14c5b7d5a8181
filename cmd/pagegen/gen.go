package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/vango-dev/pagegen/internal/build"
	"github.com/vango-dev/pagegen/internal/config"
	"github.com/vango-dev/pagegen/internal/errors"
	"github.com/vango-dev/pagegen/internal/metrics"
	"github.com/vango-dev/pagegen/internal/publish"
	"github.com/vango-dev/pagegen/pkg/pages"
)

// genFlags are the flags shared by gen and check.
type genFlags struct {
	dir       string
	routes    string
	output    string
	format    string
	pkg       string
	home      string
	homeText  string
	dryRun    bool
	noPublish bool
}

func genCmd() *cobra.Command {
	var flags genFlags

	cmd := &cobra.Command{
		Use:   "gen",
		Short: "Generate the route table and views",
		Long: `Scan the pages directory and generate the route table and views.

Predefined routes are emitted first, in the order given, followed by one
route per page in walk order. Settings come from pagegen.json when one is
found in this directory or a parent; flags override them.

The output is deterministic. An unchanged result leaves the output file
untouched.

Examples:
  pagegen gen
  pagegen gen --dir content --output site/pages_gen.go
  pagegen gen --routes '[{"path":"/","identifier":"Home"}]'
  pagegen gen --routes @routes.json --format json
  pagegen gen --dry-run`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGen(cmd.Context(), flags)
		},
	}

	addInputFlags(cmd, &flags)
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "Output file (default from pagegen.json)")
	cmd.Flags().StringVar(&flags.format, "format", "", "Output format: go or json")
	cmd.Flags().StringVar(&flags.pkg, "package", "", "Package name of generated Go code")
	cmd.Flags().StringVar(&flags.home, "home", "", "Identifier of the route page views link to")
	cmd.Flags().StringVar(&flags.homeText, "home-text", "", "Text of the home link")
	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "Render without writing or publishing")
	cmd.Flags().BoolVar(&flags.noPublish, "no-publish", false, "Skip the S3 upload configured in pagegen.json")

	return cmd
}

func addInputFlags(cmd *cobra.Command, flags *genFlags) {
	cmd.Flags().StringVarP(&flags.dir, "dir", "d", "", "Pages directory (default from pagegen.json)")
	cmd.Flags().StringVar(&flags.routes, "routes", "", "Predefined routes as a JSON array, or @file")
}

func runGen(ctx context.Context, flags genFlags) error {
	cfg, err := loadConfig(flags)
	if err != nil {
		return err
	}

	ctx, stop := signalContext(ctx)
	defer stop()

	var m *metrics.Metrics
	if cfg.Metrics.Textfile != "" {
		m = metrics.New(metrics.WithNamespace(cfg.Metrics.Namespace))
	}

	var publisher publish.Publisher
	if cfg.HasPublish() && !flags.noPublish && !flags.dryRun {
		s3cfg := cfg.Publish.S3
		publisher = publish.NewS3Publisher(publish.S3Options{
			Bucket:    s3cfg.Bucket,
			Prefix:    s3cfg.Prefix,
			Region:    s3cfg.Region,
			Endpoint:  s3cfg.Endpoint,
			PathStyle: s3cfg.PathStyle,
		})
	}

	// A dry run prints the artifact on stdout, so status goes to stderr.
	status := stdout
	if flags.dryRun {
		status = stderr
	}

	builder := build.New(cfg, build.Options{
		DryRun:    flags.dryRun,
		Metrics:   m,
		Publisher: publisher,
		OnProgress: func(step string) {
			finfo(status, "%s", step)
		},
	})

	result, err := builder.Build(ctx)
	if err != nil {
		return err
	}

	switch {
	case flags.dryRun:
		fsuccess(status, "Generated %d routes from %d pages (dry run)", len(result.Artifact.Routes), len(result.Pages))
		stdout.Write(result.Code)
	case result.Unchanged:
		success("%s is up to date (%d pages)", relPath(result.Output), len(result.Pages))
	default:
		success("Generated %s (%d routes, %d pages) in %s",
			relPath(result.Output), len(result.Artifact.Routes), len(result.Pages), result.Duration.Round(time.Millisecond))
	}
	if result.PublishedKey != "" {
		info("Published s3://%s/%s", cfg.Publish.S3.Bucket, result.PublishedKey)
	}
	return nil
}

// loadConfig loads pagegen.json from the working directory or its parents,
// applies flag overrides and validates the result.
func loadConfig(flags genFlags) (*config.Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	cfg, err := config.LoadOrDefault(wd)
	if err != nil {
		return nil, err
	}

	// Apply command-line overrides. Paths given on the command line are
	// relative to the working directory, not to pagegen.json.
	if flags.dir != "" {
		cfg.Pages = absPath(wd, flags.dir)
	}
	if flags.output != "" {
		cfg.Output = absPath(wd, flags.output)
	}
	if flags.format != "" {
		cfg.Format = flags.format
	}
	if flags.pkg != "" {
		cfg.Package = flags.pkg
	}
	if flags.home != "" {
		cfg.Home = flags.home
	}
	if flags.homeText != "" {
		cfg.HomeText = flags.homeText
	}
	if flags.routes != "" {
		routes, err := readRoutes(wd, flags.routes)
		if err != nil {
			return nil, err
		}
		cfg.Routes = routes
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// readRoutes parses the --routes flag: a JSON array, or @file naming a file
// that holds one.
func readRoutes(wd, value string) ([]pages.Route, error) {
	data := []byte(value)
	source := "--routes"
	if name, ok := strings.CutPrefix(value, "@"); ok {
		source = absPath(wd, name)
		var err error
		data, err = os.ReadFile(source)
		if err != nil {
			return nil, errors.New("E123").
				WithFile(source).
				WithDetail("Cannot read " + source).
				Wrap(err)
		}
	}

	input, err := pages.ParseInput(wd, data)
	if err != nil {
		return nil, errors.New("E123").
			WithDetail("Cannot parse " + source).
			WithExample(`[{"path": "/", "identifier": "Home"}]`).
			Wrap(err)
	}

	// An explicit empty block means no predefined routes, not the defaults.
	if input.Routes == nil {
		return []pages.Route{}, nil
	}
	return input.Routes, nil
}

// signalContext returns a context canceled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func absPath(wd, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(wd, path)
}

// relPath returns path relative to the working directory when it is inside it.
func relPath(path string) string {
	wd, err := os.Getwd()
	if err != nil {
		return path
	}
	rel, err := filepath.Rel(wd, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return rel
}
