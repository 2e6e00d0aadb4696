// Package output maps svgconv failures to exit codes and renders
// human-readable status lines.
package output

import "errors"

// Exit codes:
// 0 = Success
// 1 = Usage error (bad or missing flags, malformed replacement pair)
// 2 = I/O error (unreadable input, unwritable output)
// 3 = Conversion error (unsupported format, malformed svg, backend failure)
const (
	ExitSuccess         = 0
	ExitUserError       = 1
	ExitIOError         = 2
	ExitConversionError = 3
)

// ExitError is an error that carries an exit code for the CLI.
type ExitError struct {
	Code    int
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *ExitError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap returns the underlying cause for errors.Is/errors.As support.
func (e *ExitError) Unwrap() error {
	return e.Cause
}

// NewUserError creates an error for usage mistakes (exit code 1).
// Raised before any file is touched.
func NewUserError(message string) *ExitError {
	return &ExitError{
		Code:    ExitUserError,
		Message: message,
	}
}

// NewIOError creates an error for file system failures (exit code 2).
func NewIOError(message string, cause error) *ExitError {
	return &ExitError{
		Code:    ExitIOError,
		Message: message,
		Cause:   cause,
	}
}

// NewConversionError creates an error for converter failures (exit code 3).
func NewConversionError(message string, cause error) *ExitError {
	return &ExitError{
		Code:    ExitConversionError,
		Message: message,
		Cause:   cause,
	}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitSuccess for nil, ExitUserError for non-ExitError errors.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}

	// cobra flag parsing errors and the like
	return ExitUserError
}
