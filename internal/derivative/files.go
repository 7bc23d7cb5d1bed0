package derivative

import (
	"io"
	"os"
	"path/filepath"

	serrors "github.com/ironsheep/image-styles/internal/errors"
)

// Exists reports whether a regular file is present at p.
func Exists(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.Mode().IsRegular()
}

// EnsureDir creates the parent directory chain of p. It is a no-op when the
// directories already exist.
func EnsureDir(p string) error {
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return serrors.FileSystem("create directory", err).WithContext("path", filepath.Dir(p))
	}
	return nil
}

// Copy writes a byte-identical copy of src to dst. It returns once the copy
// is synced and in place.
func Copy(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		if os.IsNotExist(err) {
			return serrors.SourceNotFound(src)
		}
		return serrors.FileSystem("open source", err).WithContext("path", src)
	}
	defer in.Close()

	return WriteFile(dst, func(w io.Writer) error {
		_, err := io.Copy(w, in)
		return err
	})
}

// WriteFile writes p through write. Content goes to a temporary file in the
// same directory, which is synced, closed and renamed over p, so readers see
// either no file or the complete file. WriteFile returns only after the rename.
func WriteFile(p string, write func(w io.Writer) error) error {
	dir := filepath.Dir(p)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(p)+".tmp.*")
	if err != nil {
		return serrors.FileSystem("create temporary file", err).WithContext("path", p)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if err := write(tmp); err != nil {
		return serrors.FileSystem("write", err).WithContext("path", p)
	}
	if err := tmp.Chmod(0o644); err != nil {
		return serrors.FileSystem("chmod", err).WithContext("path", p)
	}
	if err := tmp.Sync(); err != nil {
		return serrors.FileSystem("sync", err).WithContext("path", p)
	}
	if err := tmp.Close(); err != nil {
		return serrors.FileSystem("close", err).WithContext("path", p)
	}
	if err := os.Rename(tmpName, p); err != nil {
		return serrors.FileSystem("rename", err).WithContext("path", p)
	}
	committed = true
	syncDir(dir)
	return nil
}

// syncDir persists the rename. Not every platform supports syncing a
// directory, so failures are ignored.
func syncDir(dir string) {
	f, err := os.Open(dir)
	if err != nil {
		return
	}
	_ = f.Sync()
	_ = f.Close()
}
