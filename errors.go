package svgconv

import (
	"errors"
	"fmt"
)

// defines common errors in library
var (
	ErrCommandNotAvailable = errors.New("inkscape not available")
	ErrUnsupportedFormat   = errors.New("unsupported output format")
	ErrUnknownBackend      = errors.New("unknown backend")
	ErrEmptyImage          = errors.New("svg has no drawable size")
	ErrImageTooLarge       = errors.New("svg output exceeds the pixel limit")
)

// ConversionError reports a failed conversion together with the backend
// and target format involved.
type ConversionError struct {
	Backend string
	Format  string
	Err     error
}

func (e *ConversionError) Error() string {
	if e.Format == "" {
		return fmt.Sprintf("%s: %v", e.Backend, e.Err)
	}
	return fmt.Sprintf("%s: convert to %s: %v", e.Backend, e.Format, e.Err)
}

func (e *ConversionError) Unwrap() error {
	return e.Err
}

func conversionError(backend, format string, err error) error {
	return &ConversionError{
		Backend: backend,
		Format:  format,
		Err:     err,
	}
}
