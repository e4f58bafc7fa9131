package exitcode

import (
	"errors"
	"fmt"
)

const (
	Success         = 0
	UsageError      = 1
	ValidationError = 2
	SourceConnError = 3
	DestConnError   = 4
	ReadError       = 5
	WriteError      = 6
)

// Error pairs a failure with the process exit code it should produce.
// Commands return it instead of calling os.Exit so deferred Close calls run.
type Error struct {
	Code int
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("exit %d: %v", e.Code, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Wrap returns an *Error carrying code, or nil when err is nil.
func Wrap(code int, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Err: err}
}

// From extracts the exit code for err: Success for nil, the carried code
// for an *Error, UsageError otherwise.
func From(err error) int {
	if err == nil {
		return Success
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return UsageError
}
