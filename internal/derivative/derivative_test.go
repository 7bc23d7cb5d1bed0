package derivative

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	serrors "github.com/ironsheep/image-styles/internal/errors"
)

func TestTargetPath(t *testing.T) {
	tests := []struct {
		name   string
		source string
		style  string
		root   string
		want   string
	}{
		{"styled root file", "/cat.jpg", "small", "static", filepath.Join("static", "image-styles", "cat--small.jpg")},
		{"styled nested", "/photos/2020/cat.png", "thumb", "static", filepath.Join("static", "image-styles", "photos", "2020", "cat--thumb.png")},
		{"unstyled", "/photos/cat.jpg", "", "dist", filepath.Join("dist", "photos", "cat.jpg")},
		{"relative source", "photos/cat.jpg", "small", "out", filepath.Join("out", "image-styles", "photos", "cat--small.jpg")},
		{"dot segments cannot escape", "/../../etc/cat.jpg", "small", "out", filepath.Join("out", "image-styles", "etc", "cat--small.jpg")},
		{"multiple dots keep last extension", "/a.b.jpeg", "s", "r", filepath.Join("r", "image-styles", "a.b--s.jpeg")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TargetPath(tt.source, tt.style, tt.root)
			assert.Equal(t, tt.want, got)
			// Pure: the same inputs always give the same path.
			assert.Equal(t, got, TargetPath(tt.source, tt.style, tt.root))
		})
	}
}

func TestGeneratePath(t *testing.T) {
	assert.Equal(t,
		filepath.Join("dist", "image-styles", "photos", "cat--small.jpg"),
		GeneratePath("dist", Key{Source: "/photos/cat.jpg", Style: "small"}))
	assert.Equal(t,
		filepath.Join("dist", "image-styles", "photos", "cat.jpg"),
		GeneratePath("dist", Key{Source: "/photos/cat.jpg"}))
}

func TestPublicPath(t *testing.T) {
	assert.Equal(t, "image-styles/cat--small.jpg", PublicPath(Key{Source: "/cat.jpg", Style: "small"}))
	assert.Equal(t, "image-styles/a/cat.jpg", PublicPath(Key{Source: "/a/cat.jpg"}))
}

func TestSourcePath(t *testing.T) {
	assert.Equal(t, filepath.Join("content", "photos", "cat.jpg"), SourcePath("content", "/photos/cat.jpg"))
	assert.Equal(t, filepath.Join("content", "passwd"), SourcePath("content", "/../../passwd"))
}

func TestKeyQuery(t *testing.T) {
	assert.Equal(t, "/cat.jpg", Key{Source: "/cat.jpg"}.Query())
	assert.Equal(t, "/cat.jpg?style=small", Key{Source: "/cat.jpg", Style: "small"}.Query())
}

func TestParseQuery(t *testing.T) {
	tests := []struct {
		entry string
		want  Key
	}{
		{"/cat.jpg", Key{Source: "/cat.jpg"}},
		{"/cat.jpg?style=small", Key{Source: "/cat.jpg", Style: "small"}},
		{"/cat.jpg?foo=1&style=thumb", Key{Source: "/cat.jpg", Style: "thumb"}},
		{"/cat.jpg?", Key{Source: "/cat.jpg"}},
		{"/cat.jpg?foo=bar", Key{Source: "/cat.jpg"}},
	}
	for _, tt := range tests {
		t.Run(tt.entry, func(t *testing.T) {
			got, err := ParseQuery(tt.entry)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			if tt.want.Style != "" {
				back, err := ParseQuery(got.Query())
				require.NoError(t, err)
				assert.Equal(t, got, back)
			}
		})
	}

	_, err := ParseQuery("/cat.jpg?style=%zz")
	assert.Error(t, err)
}

func TestTypes(t *testing.T) {
	types := DefaultTypes()

	m, ok := types.Lookup(".jpe")
	assert.True(t, ok)
	assert.Equal(t, "image/jpeg", m)

	m, ok = types.ForPath("/a/B.PNG")
	assert.True(t, ok)
	assert.Equal(t, "image/png", m)

	assert.False(t, types.Supported("/a/b.webp"))
	assert.False(t, types.Supported("/a/b.txt"))
	assert.Equal(t, []string{".gif", ".jpe", ".jpeg", ".jpg", ".png"}, types.Extensions())
}

func TestNewTypes_Extra(t *testing.T) {
	types, err := NewTypes("webp", ".SVG", ".png")
	require.NoError(t, err)

	m, ok := types.Lookup(".webp")
	assert.True(t, ok)
	assert.Equal(t, "image/webp", m)
	m, _ = types.Lookup(".svg")
	assert.Equal(t, "image/svg+xml", m)
	assert.False(t, types.Supported("x.svgz"))

	_, err = NewTypes(".tiff")
	assert.Error(t, err)

	assert.True(t, IsOptionalExtension(".svgz"))
	assert.True(t, IsOptionalExtension("jpg"))
	assert.False(t, IsOptionalExtension(".exe"))
}

func TestExistsAndEnsureDir(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "image-styles", "a", "b", "cat--small.jpg")

	assert.False(t, Exists(target))
	require.NoError(t, EnsureDir(target))
	require.NoError(t, EnsureDir(target), "EnsureDir must be idempotent")

	info, err := os.Stat(filepath.Dir(target))
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	// A directory is not a cached derivative.
	assert.False(t, Exists(filepath.Dir(target)))

	require.NoError(t, os.WriteFile(target, []byte("x"), 0o644))
	assert.True(t, Exists(target))
}

func TestCopy(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "cat.jpg")
	content := []byte("\xff\xd8\xff\xe0 not really a jpeg \x00\x01\x02")
	require.NoError(t, os.WriteFile(src, content, 0o644))

	dst := filepath.Join(dir, "out", "cat.jpg")
	require.NoError(t, EnsureDir(dst))
	require.NoError(t, Copy(src, dst))

	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, content, got)
	assertNoTempFiles(t, filepath.Dir(dst))
}

func TestCopy_MissingSource(t *testing.T) {
	dir := t.TempDir()
	err := Copy(filepath.Join(dir, "missing.jpg"), filepath.Join(dir, "out.jpg"))
	require.Error(t, err)
	assert.True(t, serrors.IsCategory(err, serrors.CategorySourceNotFound))
	assert.False(t, Exists(filepath.Join(dir, "out.jpg")))
}

func TestWriteFile_FailureLeavesNothing(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "cat--small.jpg")

	err := WriteFile(target, func(w io.Writer) error {
		_, _ = w.Write([]byte("partial"))
		return errors.New("encoder exploded")
	})
	require.Error(t, err)
	assert.True(t, serrors.IsCategory(err, serrors.CategoryFileSystem))
	assert.False(t, Exists(target))
	assertNoTempFiles(t, dir)
}

func TestWriteFile_Replaces(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "cat--small.jpg")
	require.NoError(t, os.WriteFile(target, []byte("old"), 0o644))

	require.NoError(t, WriteFile(target, func(w io.Writer) error {
		_, err := w.Write([]byte("new"))
		return err
	}))

	got, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "new", string(got))
}

func assertNoTempFiles(t *testing.T, dir string) {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, ".*.tmp.*"))
	require.NoError(t, err)
	assert.Empty(t, matches)
}
