package build

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vango-dev/pagegen/internal/config"
	"github.com/vango-dev/pagegen/internal/errors"
	"github.com/vango-dev/pagegen/internal/metrics"
	"github.com/vango-dev/pagegen/internal/publish"
	"github.com/vango-dev/pagegen/pkg/pages"
	"go.opentelemetry.io/otel/trace/noop"
)

var scenarioA = map[string]string{
	"Page0":                                      "Page0Content",
	"SubDir0/SubDir0Page0":                       "SubDir0Page0Content",
	"SubDir0/SubDir0Page1":                       "SubDir0Page1Content",
	"SubDir1/SubDir1Page0":                       "SubDir1Page0Content",
	"SubDir1/SubDir1SubDir0/SubDir1SubDir1Page0": "SubDir1SubDir1Page0Content",
}

// newProject creates a project directory with the given pages and returns
// a config rooted at it.
func newProject(t *testing.T, files map[string]string) *config.Config {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, "pages", filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	return config.NewAt(root)
}

type fakePublisher struct {
	objects []publish.Object
	err     error
}

func (f *fakePublisher) Publish(ctx context.Context, obj publish.Object) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.objects = append(f.objects, obj)
	return "site/" + obj.Name, nil
}

func TestNew(t *testing.T) {
	cfg := config.NewAt(t.TempDir())
	cfg.Format = "json"
	cfg.Package = "docs"

	builder := New(cfg, Options{})

	assert.Equal(t, "json", builder.options.Format)
	assert.Equal(t, "docs", builder.options.Emit.Package)
	assert.Equal(t, cfg.OutputPath(), builder.options.Output)
	assert.Equal(t, cfg.PagesPath(), builder.Input().Dir)
	assert.Equal(t, pages.DefaultRoutes(), builder.Input().Routes)
}

func TestNew_OptionsOverride(t *testing.T) {
	cfg := config.NewAt(t.TempDir())

	builder := New(cfg, Options{
		Input:  &pages.Input{Dir: "/content"},
		Format: "json",
		Output: "/out/pages.json",
		Emit:   pages.EmitOptions{Home: "Index"},
	})

	assert.Equal(t, "/content", builder.Input().Dir)
	assert.Nil(t, builder.Input().Routes)
	assert.Equal(t, "json", builder.options.Format)
	assert.Equal(t, "/out/pages.json", builder.options.Output)
	assert.Equal(t, "Index", builder.options.Emit.Home)
	assert.Equal(t, pages.DefaultHomeText, builder.options.Emit.HomeText)
}

func TestBuild_ScenarioA(t *testing.T) {
	cfg := newProject(t, scenarioA)

	result, err := New(cfg, Options{}).Build(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, result.RunID)
	assert.Len(t, result.Pages, 5)
	assert.Len(t, result.Artifact.Routes, 7)
	assert.Equal(t, cfg.OutputPath(), result.Output)
	assert.False(t, result.Unchanged)

	data, err := os.ReadFile(cfg.OutputPath())
	require.NoError(t, err)
	assert.Equal(t, result.Code, data)

	code := string(data)
	assert.True(t, strings.HasPrefix(code, "// Code generated by pagegen. DO NOT EDIT."))
	assert.Contains(t, code, "package site")
	assert.Contains(t, code, `"/SubDir1/SubDir1SubDir0/SubDir1SubDir1Page0"`)
	assert.Contains(t, code, `"SubDir1SubDir1Page0Content"`)

	// Predefined routes first, then generated routes in walk order.
	var ids []string
	for _, r := range result.Artifact.Routes {
		ids = append(ids, r.Identifier)
	}
	want := []string{"Home", "NotFound", "Page0", "SubDir0Page0", "SubDir0Page1", "SubDir1Page0", "SubDir1SubDir1Page0"}
	if diff := cmp.Diff(want, ids); diff != "" {
		t.Errorf("route order mismatch (-want +got):\n%s", diff)
	}
}

func TestBuild_JSON(t *testing.T) {
	cfg := newProject(t, map[string]string{"About": "About us"})
	cfg.Format = "json"
	cfg.Output = "pages.json"

	result, err := New(cfg, Options{}).Build(context.Background())
	require.NoError(t, err)

	var got pages.Artifact
	require.NoError(t, json.Unmarshal(result.Code, &got))

	want := pages.Artifact{
		Package: "site",
		Routes: []pages.RouteEntry{
			{Route: pages.Route{Path: "/", Identifier: "Home"}},
			{Route: pages.Route{Path: "/:..segments", Identifier: "NotFound", Params: []string{"segments"}}},
			{Route: pages.Route{Path: "/About", Identifier: "About"}, Generated: true},
		},
		Views: []pages.View{{
			Identifier: "About",
			Title:      "About",
			Body:       "About us",
			Home:       pages.Link{To: "Home", Text: "Go Home"},
		}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("manifest mismatch (-want +got):\n%s", diff)
	}
}

func TestBuild_Unchanged(t *testing.T) {
	cfg := newProject(t, scenarioA)
	builder := New(cfg, Options{})

	first, err := builder.Build(context.Background())
	require.NoError(t, err)

	second, err := builder.Build(context.Background())
	require.NoError(t, err)

	assert.True(t, second.Unchanged)
	assert.Equal(t, first.Hash, second.Hash)
	assert.NotEqual(t, first.RunID, second.RunID)
}

func TestBuild_InvalidNameWritesNothing(t *testing.T) {
	files := map[string]string{"sub_dir_0/SubDir0Page0": "x"}
	for k, v := range scenarioA {
		files[k] = v
	}
	cfg := newProject(t, files)
	cfg.Metrics.Textfile = "pagegen.prom"

	pub := &fakePublisher{}
	m := metrics.New()
	result, err := New(cfg, Options{Publisher: pub, Metrics: m}).Build(context.Background())
	require.Error(t, err)
	assert.Nil(t, result)

	var e *errors.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, "E001", e.Code)
	assert.Contains(t, e.Message, "sub_dir_0")
	assert.ErrorIs(t, err, pages.ErrInvalidName)

	assert.NoFileExists(t, cfg.OutputPath())
	assert.NoFileExists(t, cfg.MetricsPath())
	assert.Empty(t, pub.objects)
}

func TestBuild_MissingPagesDir(t *testing.T) {
	cfg := config.NewAt(t.TempDir())

	_, err := New(cfg, Options{}).Build(context.Background())

	var e *errors.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, "E003", e.Code)
	assert.ErrorIs(t, err, pages.ErrCantReadFile)
}

func TestBuild_InvalidOptions(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		code string
	}{
		{"format", Options{Format: "yaml"}, "E021"},
		{"package", Options{Emit: pages.EmitOptions{Package: "my-site"}}, "E022"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := newProject(t, scenarioA)

			_, err := New(cfg, tt.opts).Build(context.Background())

			var e *errors.Error
			require.ErrorAs(t, err, &e)
			assert.Equal(t, tt.code, e.Code)
			assert.NoFileExists(t, cfg.OutputPath())
		})
	}
}

func TestBuild_JSONAllowsAnyPackage(t *testing.T) {
	cfg := newProject(t, scenarioA)

	_, err := New(cfg, Options{Format: "json", Emit: pages.EmitOptions{Package: "my-site"}}).Build(context.Background())
	assert.NoError(t, err)
}

func TestBuild_DryRun(t *testing.T) {
	cfg := newProject(t, scenarioA)
	cfg.Metrics.Textfile = "pagegen.prom"
	pub := &fakePublisher{}

	result, err := New(cfg, Options{DryRun: true, Publisher: pub, Metrics: metrics.New()}).Build(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, result.Code)
	assert.Empty(t, result.Output)
	assert.NoFileExists(t, cfg.OutputPath())
	assert.NoFileExists(t, cfg.MetricsPath())
	assert.Empty(t, pub.objects)
}

func TestBuild_Publish(t *testing.T) {
	cfg := newProject(t, scenarioA)
	pub := &fakePublisher{}

	result, err := New(cfg, Options{Publisher: pub}).Build(context.Background())
	require.NoError(t, err)

	require.Len(t, pub.objects, 1)
	assert.Equal(t, "pages_gen.go", pub.objects[0].Name)
	assert.Equal(t, result.RunID, pub.objects[0].RunID)
	assert.Equal(t, result.Code, pub.objects[0].Body)
	assert.Equal(t, "site/pages_gen.go", result.PublishedKey)
}

func TestBuild_PublishError(t *testing.T) {
	cfg := newProject(t, scenarioA)
	cause := stderrors.New("bucket gone")

	_, err := New(cfg, Options{Publisher: &fakePublisher{err: cause}}).Build(context.Background())
	assert.ErrorIs(t, err, cause)
}

func TestBuild_MetricsTextfile(t *testing.T) {
	cfg := newProject(t, scenarioA)
	cfg.Metrics.Textfile = "metrics/pagegen.prom"

	_, err := New(cfg, Options{Metrics: metrics.New()}).Build(context.Background())
	require.NoError(t, err)

	data, err := os.ReadFile(cfg.MetricsPath())
	require.NoError(t, err)
	assert.Contains(t, string(data), "pagegen_pages_discovered 5")
	assert.Contains(t, string(data), "pagegen_routes_emitted 7")
	assert.Contains(t, string(data), `pagegen_stage_duration_seconds_count{stage="walk"} 1`)
}

func TestBuild_Canceled(t *testing.T) {
	cfg := newProject(t, scenarioA)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(cfg, Options{}).Build(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NoFileExists(t, cfg.OutputPath())
}

func TestBuild_LogsDiscoveredPages(t *testing.T) {
	cfg := newProject(t, scenarioA)

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	result, err := New(cfg, Options{Logger: logger, Tracer: noop.NewTracerProvider().Tracer("test")}).Build(context.Background())
	require.NoError(t, err)

	out := buf.String()
	assert.Equal(t, 5, strings.Count(out, "msg=\"page discovered\""))
	assert.Contains(t, out, "name=SubDir1SubDir1Page0")
	assert.Contains(t, out, "run_id="+result.RunID)
	assert.Contains(t, out, "msg=\"generation complete\"")
}

func TestGenerate(t *testing.T) {
	cfg := newProject(t, scenarioA)

	a, found, err := New(cfg, Options{}).Generate(context.Background())
	require.NoError(t, err)

	assert.Len(t, found, 5)
	assert.Len(t, a.Views, 5)
	assert.NoFileExists(t, cfg.OutputPath())
}

func TestDiscover(t *testing.T) {
	cfg := newProject(t, map[string]string{"B": "b", "A": "a"})

	found, err := New(cfg, Options{}).Discover(context.Background())
	require.NoError(t, err)

	want := []pages.Page{
		{Name: "A", Path: "/A", Content: "a"},
		{Name: "B", Path: "/B", Content: "b"},
	}
	if diff := cmp.Diff(want, found); diff != "" {
		t.Errorf("Discover() mismatch (-want +got):\n%s", diff)
	}
}

func TestBuilder_Progress(t *testing.T) {
	cfg := newProject(t, scenarioA)

	var steps []string
	builder := New(cfg, Options{
		OnProgress: func(step string) {
			steps = append(steps, step)
		},
	})

	_, err := builder.Build(context.Background())
	require.NoError(t, err)

	require.Len(t, steps, 4)
	assert.True(t, strings.HasPrefix(steps[0], "Scanning "))
	assert.Equal(t, "Emitting routes...", steps[1])
	assert.Equal(t, "Rendering go...", steps[2])
	assert.True(t, strings.HasPrefix(steps[3], "Writing "))
}

func TestHashFile(t *testing.T) {
	tmpDir := t.TempDir()
	testFile := filepath.Join(tmpDir, "test.txt")

	content := []byte("hello world")
	require.NoError(t, os.WriteFile(testFile, content, 0644))

	hash, err := hashFile(testFile)
	require.NoError(t, err)
	assert.Len(t, hash, 64)
	assert.Equal(t, hashBytes(content), hash)

	// Different content should produce different hash
	require.NoError(t, os.WriteFile(testFile, []byte("different content"), 0644))
	hash2, _ := hashFile(testFile)
	assert.NotEqual(t, hash, hash2)
}

func TestHashFile_NotFound(t *testing.T) {
	_, err := hashFile("/nonexistent/file.txt")
	assert.Error(t, err)
}

func TestWriteIfChanged(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out.go")
	data := []byte("package site\n")

	unchanged, err := writeIfChanged(path, data, hashBytes(data))
	require.NoError(t, err)
	assert.False(t, unchanged)

	unchanged, err = writeIfChanged(path, data, hashBytes(data))
	require.NoError(t, err)
	assert.True(t, unchanged)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files should be cleaned up")
}
