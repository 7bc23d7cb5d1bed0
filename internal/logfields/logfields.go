package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyStyle      = "style"
	KeySource     = "source"
	KeyTarget     = "target"
	KeyEntry      = "entry"
	KeyRunID      = "run_id"
	KeyOutcome    = "outcome"
	KeyPattern    = "pattern"
	KeyDurationMS = "duration_ms"
	KeyError      = "error"
)

func Style(name string) slog.Attr     { return slog.String(KeyStyle, name) }
func Source(path string) slog.Attr    { return slog.String(KeySource, path) }
func Target(path string) slog.Attr    { return slog.String(KeyTarget, path) }
func Entry(e string) slog.Attr        { return slog.String(KeyEntry, e) }
func RunID(id string) slog.Attr       { return slog.String(KeyRunID, id) }
func Outcome(o string) slog.Attr      { return slog.String(KeyOutcome, o) }
func Pattern(p string) slog.Attr      { return slog.String(KeyPattern, p) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
