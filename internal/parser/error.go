package parser

import (
	"errors"
	"fmt"
)

// LineError wraps a failure while consuming one source line.
type LineError struct {
	Line int // 1-based
	Err  error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("error while parsing line %d: %v", e.Line, e.Err)
}

func (e *LineError) Unwrap() error { return e.Err }

// ErrorLine returns the line number carried by err, if it wraps a
// LineError.
func ErrorLine(err error) (int, bool) {
	var le *LineError
	if errors.As(err, &le) {
		return le.Line, true
	}
	return 0, false
}

func lineError(line int, err error) error {
	return &LineError{Line: line, Err: err}
}
