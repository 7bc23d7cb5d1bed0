// Package config loads the image-styles YAML configuration.
package config

import (
	stderrors "errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/ironsheep/image-styles/internal/derivative"
	serrors "github.com/ironsheep/image-styles/internal/errors"
	"github.com/ironsheep/image-styles/internal/markup"
	"github.com/ironsheep/image-styles/internal/pipeline"
	"github.com/ironsheep/image-styles/internal/style"
)

// DefaultPath is the configuration file used when none is given.
const DefaultPath = "image-styles.yaml"

// Defaults
const (
	DefaultImagesBaseDir = "content"
	DefaultStaticDir     = "static"
	DefaultGenerateDir   = "dist"
	DefaultAddr          = ":8080"
)

// Config represents the application configuration
type Config struct {
	ImagesBaseDir   string            `yaml:"images_base_dir"`
	StaticDir       string            `yaml:"static_dir"`
	GenerateDir     string            `yaml:"generate_dir"`
	ExtraExtensions []string          `yaml:"extra_extensions,omitempty"`
	PipelineTimeout time.Duration     `yaml:"pipeline_timeout,omitempty"`
	ImageHeaders    map[string]string `yaml:"image_headers,omitempty"`

	ImageStyles         map[string]style.Definition       `yaml:"image_styles"`
	ResponsiveStyles    map[string]markup.ResponsiveStyle `yaml:"responsive_styles,omitempty"`
	ForceGenerateImages map[string]string                 `yaml:"force_generate_images,omitempty"`

	Server ServerConfig `yaml:"server"`
}

// ServerConfig configures the HTTP transport.
type ServerConfig struct {
	Addr string `yaml:"addr"`
	// ServeStatic serves files from StaticDir for requests the resolver passes
	// through.
	ServeStatic bool `yaml:"serve_static"`
}

// Load reads, parses, defaults and validates the configuration at path.
// Variables from a .env file in the working directory are loaded first and
// never override the process environment.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("configuration file not found: %s", path)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse expands ${VAR} references in data, decodes it and applies defaults.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.ApplyDefaults()
	return &cfg, nil
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	c.ImagesBaseDir = trimDir(c.ImagesBaseDir)
	if c.ImagesBaseDir == "" {
		c.ImagesBaseDir = DefaultImagesBaseDir
	}
	c.StaticDir = trimDir(c.StaticDir)
	if c.StaticDir == "" {
		c.StaticDir = DefaultStaticDir
	}
	c.GenerateDir = trimDir(c.GenerateDir)
	if c.GenerateDir == "" {
		c.GenerateDir = DefaultGenerateDir
	}
	if c.PipelineTimeout == 0 {
		c.PipelineTimeout = pipeline.DefaultTimeout
	}
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultAddr
	}
	if c.ImageStyles == nil {
		c.ImageStyles = map[string]style.Definition{}
	}
}

// trimDir strips trailing slashes. The filesystem root stays "/".
func trimDir(dir string) string {
	dir = strings.TrimSpace(dir)
	trimmed := strings.TrimRight(dir, "/")
	if trimmed == "" && dir != "" {
		return "/"
	}
	return trimmed
}

// Validate reports every problem found, joined. Problems that only affect
// individual requests or entries (unknown styles in force_generate_images,
// broken responsive styles) are left to the components that log them.
func (c *Config) Validate() error {
	var errs []error

	for name := range c.ImageStyles {
		if reason := invalidStyleName(name); reason != "" {
			errs = append(errs, serrors.ConfigInvalid("image_styles", fmt.Sprintf("style %q %s", name, reason)))
		}
	}
	for _, ext := range c.ExtraExtensions {
		if !derivative.IsOptionalExtension(ext) {
			errs = append(errs, serrors.ConfigInvalid("extra_extensions", fmt.Sprintf("unsupported extension %q", ext)))
		}
	}
	if c.PipelineTimeout < 0 {
		errs = append(errs, serrors.ConfigInvalid("pipeline_timeout", "must be positive"))
	}
	return stderrors.Join(errs...)
}

// invalidStyleName explains why name cannot be used as a style, or returns "".
// Style names end up in file names and query strings.
func invalidStyleName(name string) string {
	switch {
	case strings.TrimSpace(name) == "":
		return "must not be empty"
	case strings.ContainsAny(name, `/\?&#=% `):
		return "must not contain path, query or space characters"
	case strings.HasPrefix(name, "."):
		return "must not start with a dot"
	}
	return ""
}

// Types returns the supported extension table.
func (c *Config) Types() (*derivative.Types, error) {
	return derivative.NewTypes(c.ExtraExtensions...)
}

// Catalog builds the style catalog with the given macros (DefaultMacros when nil).
func (c *Config) Catalog(macros *style.Macros) *style.Catalog {
	return style.NewCatalog(c.ImageStyles, macros)
}
