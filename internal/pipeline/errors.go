package pipeline

import (
	stderrors "errors"
	"fmt"
)

// Errors is the aggregated failure of one pipeline run. Its message is the
// first recorded error; All returns every one of them in order.
type Errors struct {
	Style string
	errs  []error
}

func (e *Errors) Error() string {
	if len(e.errs) == 0 {
		return fmt.Sprintf("image style %s failed", e.Style)
	}
	return e.errs[0].Error()
}

// All returns a copy of the recorded errors.
func (e *Errors) All() []error {
	return append([]error(nil), e.errs...)
}

// Len returns the number of recorded errors.
func (e *Errors) Len() int { return len(e.errs) }

// Unwrap exposes every recorded error to errors.Is and errors.As.
func (e *Errors) Unwrap() []error { return e.errs }

// AllErrors returns the errors aggregated in err, or err itself when it is not
// an *Errors.
func AllErrors(err error) []error {
	if err == nil {
		return nil
	}
	var pe *Errors
	if stderrors.As(err, &pe) {
		return pe.All()
	}
	return []error{err}
}
