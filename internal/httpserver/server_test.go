package httpserver

import (
	"bytes"
	"image"
	"image/color"
	_ "image/jpeg"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	dimaging "github.com/disintegration/imaging"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/image-styles/internal/metrics"
	"github.com/ironsheep/image-styles/internal/pipeline"
	"github.com/ironsheep/image-styles/internal/resolver"
	"github.com/ironsheep/image-styles/internal/style"
)

type testEnv struct {
	content string
	static  string
	handler http.Handler
	source  []byte
}

func newTestEnv(t *testing.T, fallback http.Handler) *testEnv {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	env := &testEnv{content: t.TempDir(), static: t.TempDir()}

	cat := filepath.Join(env.content, "animals", "cat.jpg")
	require.NoError(t, os.MkdirAll(filepath.Dir(cat), 0o755))
	require.NoError(t, dimaging.Save(dimaging.New(467, 700, color.NRGBA{120, 80, 60, 255}), cat))
	data, err := os.ReadFile(cat)
	require.NoError(t, err)
	env.source = data

	reg := prom.NewRegistry()
	rec := metrics.NewPrometheusRecorder(reg)
	res := resolver.New(resolver.Options{
		Catalog: style.NewCatalog(map[string]style.Definition{
			"small":  {Macros: []string{"scaleAndCrop|160|90"}},
			"broken": {Actions: []string{"explode", "resize|10", "vanish"}},
		}, nil),
		Generator: pipeline.New(pipeline.Options{Logger: logger}),
		BaseDir:   env.content,
		StaticDir: env.static,
		Headers:   map[string]string{"X-Served-By": "image-styles"},
		Metrics:   rec,
		Logger:    logger,
	})

	srv := New(Options{
		Addr:     ":0",
		Resolver: res,
		Fallback: fallback,
		Metrics:  metrics.HTTPHandler(reg),
		Logger:   logger,
	})
	env.handler = srv.Handler()
	return env
}

func (e *testEnv) get(target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, nil)
	rec := env.get("/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())
}

func TestServeSource(t *testing.T) {
	env := newTestEnv(t, nil)
	rec := env.get("/animals/cat.jpg")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/jpeg", rec.Header().Get("Content-Type"))
	assert.Equal(t, "max-age=86400", rec.Header().Get("Cache-Control"))
	assert.Equal(t, "image-styles", rec.Header().Get("X-Served-By"))
	assert.Equal(t, env.source, rec.Body.Bytes())
}

func TestServeUnknownStyle(t *testing.T) {
	env := newTestEnv(t, nil)
	rec := env.get("/animals/cat.jpg?style=doesNotExist")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, env.source, rec.Body.Bytes())
}

func TestServeGeneratedThenCached(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.get("/animals/cat.jpg?style=small")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	img, _, err := image.Decode(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, image.Pt(160, 90), img.Bounds().Size())

	target := filepath.Join(env.static, "image-styles", "animals", "cat--small.jpg")
	onDisk, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, onDisk, rec.Body.Bytes())

	again := env.get("/animals/cat.jpg?style=small")
	assert.Equal(t, http.StatusOK, again.Code)
	assert.Equal(t, onDisk, again.Body.Bytes())
}

func TestServePipelineFailure(t *testing.T) {
	env := newTestEnv(t, nil)
	rec := env.get("/animals/cat.jpg?style=broken")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "explode is not a valid action")
}

func TestPassThrough(t *testing.T) {
	env := newTestEnv(t, nil)
	assert.Equal(t, http.StatusNotFound, env.get("/animals/dog.jpg").Code)
	assert.Equal(t, http.StatusNotFound, env.get("/readme.txt").Code)
}

func TestPassThroughFallback(t *testing.T) {
	fallback := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	env := newTestEnv(t, fallback)
	assert.Equal(t, http.StatusTeapot, env.get("/index.html").Code)
}

func TestStaticFallback(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "robots.txt"), []byte("User-agent: *"), 0o644))

	env := newTestEnv(t, StaticFallback(dir))
	rec := env.get("/robots.txt")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "User-agent: *", rec.Body.String())
}

func TestHead(t *testing.T) {
	env := newTestEnv(t, nil)
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodHead, "/animals/cat.jpg", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/jpeg", rec.Header().Get("Content-Type"))
	assert.Zero(t, rec.Body.Len())
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t, nil)
	env.get("/animals/cat.jpg")

	rec := env.get("/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `image_styles_requests_total{outcome="served_source"} 1`)
}
