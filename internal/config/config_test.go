package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	serrors "github.com/ironsheep/image-styles/internal/errors"
	"github.com/ironsheep/image-styles/internal/style"
)

type styleDef = style.Definition

const sample = `
images_base_dir: /content/
static_dir: public
generate_dir: ${TEST_IMAGE_STYLES_OUT}
extra_extensions: [".webp"]
pipeline_timeout: 5s
image_headers:
  Cache-Control: max-age=7200
image_styles:
  small:
    macros: ["scaleAndCrop|160|90"]
  thumb:
    actions: ["resize|100|100", "grayscale"]
responsive_styles:
  card:
    srcset: "small 160w, thumb 100w"
    sizes: "50vw"
force_generate_images:
  small: "**/*"
server:
  addr: ":9090"
  serve_static: true
`

func TestParse(t *testing.T) {
	t.Setenv("TEST_IMAGE_STYLES_OUT", "build/out")

	cfg, err := Parse([]byte(sample))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "/content", cfg.ImagesBaseDir)
	assert.Equal(t, "public", cfg.StaticDir)
	assert.Equal(t, "build/out", cfg.GenerateDir)
	assert.Equal(t, 5*time.Second, cfg.PipelineTimeout)
	assert.Equal(t, "max-age=7200", cfg.ImageHeaders["Cache-Control"])
	assert.Equal(t, []string{"scaleAndCrop|160|90"}, cfg.ImageStyles["small"].Macros)
	assert.Equal(t, []string{"resize|100|100", "grayscale"}, cfg.ImageStyles["thumb"].Actions)
	assert.Equal(t, "small 160w, thumb 100w", cfg.ResponsiveStyles["card"].Srcset)
	assert.Equal(t, "**/*", cfg.ForceGenerateImages["small"])
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.True(t, cfg.Server.ServeStatic)

	types, err := cfg.Types()
	require.NoError(t, err)
	assert.True(t, types.Supported("a.webp"))

	catalog := cfg.Catalog(nil)
	r, err := catalog.Resolve("small")
	require.NoError(t, err)
	assert.Equal(t, []string{"gravity|Center", "resize|160|90^", "extent|160|90|+0|+45"}, r.Actions.Strings())
}

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]byte("image_styles: {}\n"))
	require.NoError(t, err)

	assert.Equal(t, DefaultImagesBaseDir, cfg.ImagesBaseDir)
	assert.Equal(t, DefaultStaticDir, cfg.StaticDir)
	assert.Equal(t, DefaultGenerateDir, cfg.GenerateDir)
	assert.Equal(t, 30*time.Second, cfg.PipelineTimeout)
	assert.Equal(t, DefaultAddr, cfg.Server.Addr)
	assert.NotNil(t, cfg.ImageStyles)
	assert.NoError(t, cfg.Validate())
}

func TestParse_Empty(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultImagesBaseDir, cfg.ImagesBaseDir)
	assert.Empty(t, cfg.ImageStyles)
}

func TestParse_Malformed(t *testing.T) {
	_, err := Parse([]byte("image_styles: [unclosed"))
	assert.Error(t, err)

	_, err = Parse([]byte("pipeline_timeout: forever\n"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want int
	}{
		{"valid", Config{ImageStyles: map[string]styleDef{"small": {}}}, 0},
		{"slash in name", Config{ImageStyles: map[string]styleDef{"a/b": {}}}, 1},
		{"query in name", Config{ImageStyles: map[string]styleDef{"a?b": {}}}, 1},
		{"empty name", Config{ImageStyles: map[string]styleDef{"": {}}}, 1},
		{"dot name", Config{ImageStyles: map[string]styleDef{"..": {}}}, 1},
		{"bad extension", Config{ExtraExtensions: []string{".tiff"}}, 1},
		{"negative timeout", Config{PipelineTimeout: -time.Second}, 1},
		{"several", Config{
			ImageStyles:     map[string]styleDef{"a b": {}},
			ExtraExtensions: []string{".exe"},
		}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.want == 0 {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			joined, ok := err.(interface{ Unwrap() []error })
			require.True(t, ok)
			assert.Len(t, joined.Unwrap(), tt.want)
			assert.True(t, serrors.IsCategory(joined.Unwrap()[0], serrors.CategoryConfig))
		})
	}
}

func TestTrimDir(t *testing.T) {
	assert.Equal(t, "content", trimDir("content/"))
	assert.Equal(t, "/srv/content", trimDir("/srv/content//"))
	assert.Equal(t, "/", trimDir("/"))
	assert.Equal(t, "", trimDir("  "))
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "image-styles.yaml")
	require.NoError(t, os.WriteFile(path, []byte("image_styles:\n  small:\n    actions: [\"resize|10\"]\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Contains(t, cfg.ImageStyles, "small")
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "configuration file not found")
}

func TestLoad_Invalid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "image-styles.yaml")
	require.NoError(t, os.WriteFile(path, []byte("image_styles:\n  a/b: {}\n"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}
