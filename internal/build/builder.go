package build

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	stderrors "errors"
	"go/token"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/vango-dev/pagegen/internal/config"
	"github.com/vango-dev/pagegen/internal/errors"
	"github.com/vango-dev/pagegen/internal/metrics"
	"github.com/vango-dev/pagegen/internal/publish"
	"github.com/vango-dev/pagegen/pkg/pages"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/vango-dev/pagegen/internal/build"

// Result contains the generation output.
type Result struct {
	// RunID identifies the run in logs, spans and published metadata.
	RunID string

	// Duration is how long the run took.
	Duration time.Duration

	// Pages are the discovered pages in walk order.
	Pages []pages.Page

	// Artifact is the emitted route table and views.
	Artifact *pages.Artifact

	// Code is the rendered artifact.
	Code []byte

	// Hash is the SHA256 of Code.
	Hash string

	// Output is the path written to. Empty for dry runs.
	Output string

	// Unchanged is true when Output already held Code and was left alone.
	Unchanged bool

	// PublishedKey is the object key the artifact was uploaded to, if any.
	PublishedKey string
}

// Options configures the builder. Zero values fall back to the config.
type Options struct {
	// Input overrides the pages directory and predefined routes.
	Input *pages.Input

	// Output overrides the output path.
	Output string

	// Format overrides the output format ("go" or "json").
	Format string

	// Emit overrides package, home identifier and home text.
	Emit pages.EmitOptions

	// DryRun renders without writing, publishing or exporting metrics.
	DryRun bool

	// Logger receives progress and discovery logs. Default: slog.Default().
	Logger *slog.Logger

	// Metrics records run metrics. Nil disables metrics.
	Metrics *metrics.Metrics

	// Publisher uploads the artifact after a successful write.
	Publisher publish.Publisher

	// Tracer creates stage spans. Default: the global tracer provider.
	Tracer trace.Tracer

	// OnProgress is called with progress updates.
	OnProgress func(step string)
}

// Builder runs page generation.
type Builder struct {
	config  *config.Config
	options Options
}

// New creates a new builder.
func New(cfg *config.Config, options Options) *Builder {
	// Apply config defaults to options
	if options.Input == nil {
		options.Input = cfg.Input()
	}
	if options.Output == "" {
		options.Output = cfg.OutputPath()
	}
	if options.Format == "" {
		options.Format = cfg.Format
	}
	def := cfg.EmitOptions()
	if options.Emit.Package == "" {
		options.Emit.Package = def.Package
	}
	if options.Emit.Home == "" {
		options.Emit.Home = def.Home
	}
	if options.Emit.HomeText == "" {
		options.Emit.HomeText = def.HomeText
	}
	if options.Logger == nil {
		options.Logger = slog.Default()
	}
	if options.Tracer == nil {
		options.Tracer = otel.Tracer(tracerName)
	}

	return &Builder{
		config:  cfg,
		options: options,
	}
}

// Input returns the generator input the builder runs on.
func (b *Builder) Input() *pages.Input {
	return b.options.Input
}

// EmitOptions returns the emit options the builder runs with.
func (b *Builder) EmitOptions() pages.EmitOptions {
	return b.options.Emit
}

// Discover walks the pages directory and returns the pages found.
func (b *Builder) Discover(ctx context.Context) ([]pages.Page, error) {
	var found []pages.Page
	err := b.stage(ctx, metrics.StageWalk, func(ctx context.Context) error {
		var err error
		found, err = b.discover()
		return err
	})
	return found, err
}

// Generate discovers pages and emits the artifact without rendering it.
func (b *Builder) Generate(ctx context.Context) (*pages.Artifact, []pages.Page, error) {
	ctx, span := b.options.Tracer.Start(ctx, "pagegen.generate")
	defer span.End()

	a, found, err := b.generate(ctx, b.options.Logger)
	if err != nil {
		b.fail(span, err)
		return nil, nil, err
	}
	b.options.Metrics.RecordSuccess(len(found), len(a.Routes))
	return a, found, nil
}

// Build performs a full generation run: discover, emit, render, write,
// publish. A run that fails before the write stage leaves the output, the
// metrics textfile and the bucket untouched.
func (b *Builder) Build(ctx context.Context) (*Result, error) {
	start := time.Now()
	result := &Result{RunID: uuid.NewString()}
	logger := b.options.Logger.With("run_id", result.RunID)

	ctx, span := b.options.Tracer.Start(ctx, "pagegen.build",
		trace.WithAttributes(
			attribute.String("pagegen.run_id", result.RunID),
			attribute.String("pagegen.dir", b.options.Input.Dir),
			attribute.String("pagegen.format", b.options.Format),
		))
	defer span.End()

	if err := b.build(ctx, logger, result); err != nil {
		b.fail(span, err)
		logger.Debug("generation failed", "error", err)
		return nil, err
	}

	result.Duration = time.Since(start)
	span.SetAttributes(
		attribute.Int("pagegen.pages", len(result.Pages)),
		attribute.Int("pagegen.routes", len(result.Artifact.Routes)),
	)

	b.options.Metrics.RecordSuccess(len(result.Pages), len(result.Artifact.Routes))
	if !b.options.DryRun {
		if err := b.options.Metrics.WriteTextfile(b.config.MetricsPath()); err != nil {
			// The artifact is already written; report without failing the run.
			logger.Warn("metrics export failed", "error", err)
		}
	}

	logger.Info("generation complete",
		"pages", len(result.Pages),
		"routes", len(result.Artifact.Routes),
		"output", result.Output,
		"unchanged", result.Unchanged,
		"duration", result.Duration,
	)
	return result, nil
}

func (b *Builder) build(ctx context.Context, logger *slog.Logger, result *Result) error {
	if err := b.checkOptions(); err != nil {
		return err
	}

	a, found, err := b.generate(ctx, logger)
	if err != nil {
		return err
	}
	result.Pages = found
	result.Artifact = a

	// Render
	b.progress("Rendering " + b.options.Format + "...")
	err = b.stage(ctx, metrics.StageRender, func(ctx context.Context) error {
		code, err := pages.Render(a, b.options.Format)
		if err != nil {
			return errors.New("E020").Wrap(err)
		}
		result.Code = code
		result.Hash = hashBytes(code)
		return nil
	})
	if err != nil {
		return err
	}
	logger.Debug("artifact rendered", "bytes", len(result.Code), "sha256", result.Hash)

	if b.options.DryRun {
		return nil
	}

	// Write
	b.progress("Writing " + b.options.Output + "...")
	err = b.stage(ctx, metrics.StageWrite, func(ctx context.Context) error {
		unchanged, err := writeIfChanged(b.options.Output, result.Code, result.Hash)
		if err != nil {
			return errors.New("E142").WithFile(b.options.Output).Wrap(err)
		}
		result.Output = b.options.Output
		result.Unchanged = unchanged
		return nil
	})
	if err != nil {
		return err
	}

	// Publish
	if b.options.Publisher == nil {
		return nil
	}
	b.progress("Publishing...")
	return b.stage(ctx, metrics.StagePublish, func(ctx context.Context) error {
		key, err := b.options.Publisher.Publish(ctx, publish.Object{
			Name:  filepath.Base(b.options.Output),
			Body:  result.Code,
			RunID: result.RunID,
		})
		if err != nil {
			return err
		}
		result.PublishedKey = key
		logger.Info("artifact published", "key", key)
		return nil
	})
}

// generate runs the walk and emit stages.
func (b *Builder) generate(ctx context.Context, logger *slog.Logger) (*pages.Artifact, []pages.Page, error) {
	b.progress("Scanning " + b.options.Input.Dir + "...")
	found, err := b.Discover(ctx)
	if err != nil {
		return nil, nil, err
	}
	for _, p := range found {
		logger.Debug("page discovered", "name", p.Name, "path", p.Path, "bytes", len(p.Content))
	}

	b.progress("Emitting routes...")
	var a *pages.Artifact
	err = b.stage(ctx, metrics.StageEmit, func(ctx context.Context) error {
		var err error
		a, err = pages.Emit(b.options.Input.Routes, found, b.options.Emit)
		if err != nil {
			return convert(err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	for _, r := range a.Routes {
		logger.Debug("route emitted", "path", r.Path, "identifier", r.Identifier, "generated", r.Generated)
	}

	return a, found, nil
}

// discover scans the pages directory.
func (b *Builder) discover() ([]pages.Page, error) {
	dir := b.options.Input.Dir
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		if err == nil {
			err = stderrors.New("not a directory")
		}
		return nil, errors.New("E003").
			WithFile(dir).
			WithDetail("Pages directory " + dir + " does not exist or is not a directory").
			WithSuggestion("Create the directory or set \"pages\" in pagegen.json").
			Wrap(&pages.Error{Kind: pages.KindCantReadFile, Path: dir, Err: err})
	}

	found, err := pages.NewScanner(dir).Scan()
	if err != nil {
		return nil, convert(err)
	}
	return found, nil
}

// checkOptions validates the options that would otherwise only fail after
// the walk.
func (b *Builder) checkOptions() error {
	switch b.options.Format {
	case "go", "json":
	default:
		return errors.New("E021").
			WithDetail("Unknown format \"" + b.options.Format + "\"").
			WithSuggestion("Use --format go or --format json")
	}
	if b.options.Format == "go" && !token.IsIdentifier(b.options.Emit.Package) {
		return errors.New("E022").
			WithDetail("\"" + b.options.Emit.Package + "\" is not a Go identifier")
	}
	return nil
}

// stage runs fn in a child span after checking ctx, and records its duration.
func (b *Builder) stage(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	ctx, span := b.options.Tracer.Start(ctx, "pagegen."+name)
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	b.options.Metrics.ObserveStage(name, time.Since(start))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (b *Builder) fail(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	b.options.Metrics.RecordFailure(err)
}

// progress reports build progress.
func (b *Builder) progress(step string) {
	if b.options.OnProgress != nil {
		b.options.OnProgress(step)
	}
}

// convert maps discovery errors onto coded errors.
func convert(err error) error {
	if e := errors.FromPages(err); e != nil {
		return e
	}
	return err
}

// writeIfChanged atomically replaces path with data unless it already holds
// data. It reports whether the file was left alone.
func writeIfChanged(path string, data []byte, hash string) (bool, error) {
	if existing, err := hashFile(path); err == nil && existing == hash {
		return true, nil
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return false, err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return false, err
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, bytes.NewReader(data)); err != nil {
		tmp.Close()
		return false, err
	}
	if err := tmp.Close(); err != nil {
		return false, err
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return false, err
	}
	return false, os.Rename(tmp.Name(), path)
}

// hashFile returns the SHA256 hash of a file.
func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// hashBytes returns the SHA256 hash of data.
func hashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
