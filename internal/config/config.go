package config

import (
	"encoding/json"
	stderrors "errors"
	"go/token"
	"net"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/vango-dev/pagegen/internal/errors"
	"github.com/vango-dev/pagegen/pkg/pages"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "pagegen.json"

	// DefaultPages is the default pages directory.
	DefaultPages = "pages"

	// DefaultOutput is the default generated file.
	DefaultOutput = "pages_gen.go"

	// DefaultFormat is the default output format.
	DefaultFormat = "go"

	// DefaultPort is the default preview server port.
	DefaultPort = 3000

	// DefaultHost is the default preview server host.
	DefaultHost = "localhost"

	// DefaultNamespace is the default metrics namespace.
	DefaultNamespace = "pagegen"
)

// Config represents the pagegen.json configuration.
type Config struct {
	// Pages is the path to the pages directory.
	Pages string `json:"pages,omitempty" validate:"required"`

	// Output is the path of the generated file.
	Output string `json:"output,omitempty" validate:"required"`

	// Format is the output format: "go" or "json".
	Format string `json:"format,omitempty" validate:"oneof=go json"`

	// Package is the package name of generated Go code.
	Package string `json:"package,omitempty" validate:"goident"`

	// Home is the identifier of the route page views link back to.
	Home string `json:"home,omitempty" validate:"required"`

	// HomeText is the text of the home link.
	HomeText string `json:"homeText,omitempty"`

	// Routes are the predefined routes emitted before the generated ones.
	// When absent or null, pages.DefaultRoutes() is used; an explicit empty
	// list means no predefined routes. Save keeps the two apart.
	Routes []pages.Route `json:"routes"`

	// Metrics contains generation metrics configuration.
	Metrics MetricsConfig `json:"metrics,omitempty"`

	// Publish contains artifact publishing configuration.
	Publish PublishConfig `json:"publish,omitempty"`

	// Preview contains preview server configuration.
	Preview PreviewConfig `json:"preview,omitempty"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// MetricsConfig contains generation metrics settings.
type MetricsConfig struct {
	// Textfile is a path to write metrics to in the Prometheus text format
	// (for the node_exporter textfile collector). Empty disables it.
	Textfile string `json:"textfile,omitempty"`

	// Namespace is the metrics namespace.
	Namespace string `json:"namespace,omitempty"`
}

// PublishConfig contains artifact publishing settings.
type PublishConfig struct {
	// S3 uploads the generated artifact to a bucket after each successful run.
	S3 *S3Config `json:"s3,omitempty" validate:"omitempty"`
}

// S3Config contains S3 upload settings.
type S3Config struct {
	// Bucket is the target bucket.
	Bucket string `json:"bucket" validate:"required"`

	// Prefix is prepended to the object key.
	Prefix string `json:"prefix,omitempty"`

	// Region is the bucket region.
	Region string `json:"region" validate:"required"`

	// Endpoint overrides the S3 endpoint (e.g., for MinIO).
	Endpoint string `json:"endpoint,omitempty" validate:"omitempty,url"`

	// PathStyle forces path-style addressing.
	PathStyle bool `json:"pathStyle,omitempty"`
}

// PreviewConfig contains preview server settings.
type PreviewConfig struct {
	// Port is the port to run the preview server on.
	Port int `json:"port,omitempty" validate:"min=0,max=65535"`

	// Host is the host to bind to.
	Host string `json:"host,omitempty"`

	// HotReload reloads browsers when pages change.
	HotReload bool `json:"hotReload"`

	// Ignore contains patterns to ignore while watching.
	Ignore []string `json:"ignore,omitempty"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterValidation("goident", func(fl validator.FieldLevel) bool {
		return token.IsIdentifier(fl.Field().String())
	})
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// New creates a new Config with default values.
func New() *Config {
	return &Config{
		Pages:    DefaultPages,
		Output:   DefaultOutput,
		Format:   DefaultFormat,
		Package:  pages.DefaultPackage,
		Home:     pages.DefaultHome,
		HomeText: pages.DefaultHomeText,
		Metrics: MetricsConfig{
			Namespace: DefaultNamespace,
		},
		Preview: PreviewConfig{
			Port:      DefaultPort,
			Host:      DefaultHost,
			HotReload: true,
		},
	}
}

// NewAt creates a default Config rooted at dir, for projects without a
// pagegen.json. Relative paths resolve against dir.
func NewAt(dir string) *Config {
	cfg := New()
	cfg.configPath = filepath.Join(dir, ConfigFileName)
	return cfg
}

// Load reads configuration from the specified directory.
// It looks for pagegen.json in the directory.
func Load(dir string) (*Config, error) {
	configPath := filepath.Join(dir, ConfigFileName)
	return LoadFile(configPath)
}

// LoadFile reads configuration from the specified file path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("E141").
				WithDetail("No pagegen.json found in " + filepath.Dir(path)).
				WithSuggestion("Create pagegen.json or pass --dir to 'pagegen gen'")
		}
		return nil, errors.New("E120").Wrap(err)
	}

	cfg := New()
	if err := json.Unmarshal(data, cfg); err != nil {
		e := errors.New("E120").
			WithDetail("Failed to parse pagegen.json: " + err.Error()).
			WithSuggestion("Check that pagegen.json is valid JSON").
			Wrap(err)
		var syntaxErr *json.SyntaxError
		if stderrors.As(err, &syntaxErr) {
			line, col := position(data, syntaxErr.Offset)
			e.WithLocation(path, line, col)
		}
		return nil, e
	}

	cfg.configPath = path
	cfg.applyDefaults()

	return cfg, nil
}

// position converts a byte offset into a 1-based line and column.
func position(data []byte, offset int64) (line, col int) {
	if offset > int64(len(data)) {
		offset = int64(len(data))
	}
	line, col = 1, 1
	for _, b := range data[:offset] {
		if b == '\n' {
			line++
			col = 1
			continue
		}
		col++
	}
	return line, col
}

// Save writes the configuration to the file it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.Newf(errors.CategoryConfig, "no config path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.New("E120").Wrap(err)
	}

	// Add newline at end of file
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("E120").Wrap(err)
	}

	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory containing the config file.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return ""
	}
	return filepath.Dir(c.configPath)
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if c.Pages == "" {
		c.Pages = DefaultPages
	}
	if c.Output == "" {
		c.Output = DefaultOutput
	}
	if c.Format == "" {
		c.Format = DefaultFormat
	}
	if c.Package == "" {
		c.Package = pages.DefaultPackage
	}
	if c.Home == "" {
		c.Home = pages.DefaultHome
	}
	if c.HomeText == "" {
		c.HomeText = pages.DefaultHomeText
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = DefaultNamespace
	}
	if c.Preview.Port == 0 {
		c.Preview.Port = DefaultPort
	}
	if c.Preview.Host == "" {
		c.Preview.Host = DefaultHost
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) || len(verrs) == 0 {
		return errors.New("E122").Wrap(err)
	}

	fe := verrs[0]
	field := strings.TrimPrefix(fe.Namespace(), "Config.")
	if fe.Tag() == "required" {
		return errors.New("E121").
			WithDetail("Field '" + field + "' is required").
			Wrap(err)
	}
	return errors.New("E122").
		WithDetail("Field '" + field + "' failed the '" + fe.Tag() + "' check (value: " + fieldValue(fe) + ")").
		Wrap(err)
}

func fieldValue(fe validator.FieldError) string {
	b, err := json.Marshal(fe.Value())
	if err != nil {
		return "?"
	}
	return string(b)
}

// PredefinedRoutes returns the configured predefined routes, or the default
// Home and NotFound routes when none are configured.
func (c *Config) PredefinedRoutes() []pages.Route {
	if c.Routes == nil {
		return pages.DefaultRoutes()
	}
	return c.Routes
}

// Input returns the generator input described by the configuration.
func (c *Config) Input() *pages.Input {
	return &pages.Input{
		Dir:    c.PagesPath(),
		Routes: c.PredefinedRoutes(),
	}
}

// EmitOptions returns the emit options described by the configuration.
func (c *Config) EmitOptions() pages.EmitOptions {
	return pages.EmitOptions{
		Package:  c.Package,
		Home:     c.Home,
		HomeText: c.HomeText,
	}
}

// resolve returns path relative to the config directory unless absolute.
func (c *Config) resolve(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.Dir(), path)
}

// PagesPath returns the absolute path to the pages directory.
func (c *Config) PagesPath() string {
	path := c.Pages
	if path == "" {
		path = DefaultPages
	}
	return c.resolve(path)
}

// OutputPath returns the absolute path to the generated file.
func (c *Config) OutputPath() string {
	path := c.Output
	if path == "" {
		path = DefaultOutput
	}
	return c.resolve(path)
}

// MetricsPath returns the absolute path of the metrics textfile, or "".
func (c *Config) MetricsPath() string {
	return c.resolve(c.Metrics.Textfile)
}

// HasPublish returns true if S3 publishing is configured.
func (c *Config) HasPublish() bool {
	return c.Publish.S3 != nil
}

// PreviewAddress returns the address string for the preview server.
func (c *Config) PreviewAddress() string {
	return net.JoinHostPort(c.Preview.Host, strconv.Itoa(c.Preview.Port))
}

// PreviewURL returns the full URL for the preview server.
func (c *Config) PreviewURL() string {
	return "http://" + c.PreviewAddress()
}

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	path := filepath.Join(dir, ConfigFileName)
	_, err := os.Stat(path)
	return err == nil
}

// FindProjectRoot walks up directories to find the project root.
// Returns the directory containing pagegen.json, or an error if not found.
func FindProjectRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		if Exists(dir) {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("E141").
				WithDetail("No pagegen.json found in " + startDir + " or any parent directory").
				WithSuggestion("Create pagegen.json or pass --dir to 'pagegen gen'")
		}
		dir = parent
	}
}

// LoadFromWorkingDir loads configuration from the current working directory.
func LoadFromWorkingDir() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	root, err := FindProjectRoot(wd)
	if err != nil {
		return nil, err
	}

	return Load(root)
}

// LoadOrDefault loads pagegen.json from dir or its parents. If there is
// none, it returns the defaults rooted at dir.
func LoadOrDefault(dir string) (*Config, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}

	root, err := FindProjectRoot(abs)
	if err != nil {
		return NewAt(abs), nil
	}

	return Load(root)
}
