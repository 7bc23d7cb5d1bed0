package errors

import "fmt"

// Convenience constructors for the failure modes of the engine.

func UnknownStyle(name string) *Error {
	return New(CategoryUnknownStyle, SeverityWarning, fmt.Sprintf("%s is not a valid image style", name)).
		WithContext("style", name)
}

// InvalidMacro reports a problem with the index-th (1-based) macro of a style.
func InvalidMacro(styleName string, index int, reason string) *Error {
	return New(CategoryInvalidMacro, SeverityError,
		fmt.Sprintf("image style %s: macro %d: %s", styleName, index, reason)).
		WithContext("style", styleName).
		WithContext("index", index)
}

// InvalidAction reports a problem with the index-th (1-based) action of a style.
func InvalidAction(styleName string, index int, reason string) *Error {
	return New(CategoryInvalidAction, SeverityError,
		fmt.Sprintf("image style %s: action %d: %s", styleName, index, reason)).
		WithContext("style", styleName).
		WithContext("index", index)
}

func ExecutionFailure(styleName, operation string, cause error) *Error {
	return Wrap(cause, CategoryPipelineExecution, SeverityError,
		fmt.Sprintf("image style %s: %s failed", styleName, operation)).
		WithContext("style", styleName).
		WithContext("operation", operation)
}

func SourceNotFound(path string) *Error {
	return New(CategorySourceNotFound, SeverityWarning, "source image not found").
		WithContext("path", path)
}

// UnaddressableSource reports a source whose path cannot be written as a
// registry entry, because the entry syntax reserves the character.
func UnaddressableSource(path string) *Error {
	return New(CategorySourceNotFound, SeverityWarning,
		fmt.Sprintf("source image %s cannot be addressed: its path contains %q", path, "?")).
		WithContext("path", path)
}

func GlobNoMatches(styleName, pattern string) *Error {
	return New(CategoryGlobNoMatches, SeverityWarning,
		fmt.Sprintf("no images found using the glob pattern %s", pattern)).
		WithContext("style", styleName).
		WithContext("pattern", pattern)
}

func ConfigInvalid(field, reason string) *Error {
	return New(CategoryConfig, SeverityError, fmt.Sprintf("invalid configuration: %s: %s", field, reason)).
		WithContext("field", field)
}

func FileSystem(operation string, cause error) *Error {
	return Wrap(cause, CategoryFileSystem, SeverityError, operation+" failed").
		WithContext("operation", operation)
}
