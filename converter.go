package svgconv

import (
	"context"
	"os"
	"path/filepath"
)

// Converter turns svg markup into another image format
type Converter interface {
	// Name of the backend
	Name() string

	// Available reports whether the backend can run on this system
	Available() bool

	// Formats lists supported output format identifiers
	Formats() []string

	// Convert svg bytes into the given format
	Convert(ctx context.Context, svg []byte, format string) ([]byte, error)
}

// New create converter for the configured backend, auto by default
func New(opts ...Option) (Converter, error) {
	options := mergeOptions(defaultOptions(), opts...)

	switch options.backend {
	case "", BackendAuto:
		return newAuto(options), nil
	case BackendRaster:
		return newRaster(options), nil
	case BackendInkscape:
		return newInkscape(options), nil
	}

	return nil, conversionError(options.backend, "", ErrUnknownBackend)
}

// Backends returns every known backend configured with opts
func Backends(opts ...Option) []Converter {
	options := mergeOptions(defaultOptions(), opts...)

	return []Converter{
		newInkscape(options),
		newRaster(options),
	}
}

// Convert svg into format using a converter built from opts
func Convert(ctx context.Context, svg []byte, format string, opts ...Option) ([]byte, error) {
	conv, err := New(opts...)
	if err != nil {
		return nil, err
	}

	return conv.Convert(ctx, svg, format)
}

// SaveToFile converts svg to the format implied by filename extension
// and writes it, creating parent directories as needed
func SaveToFile(ctx context.Context, svg []byte, filename string, opts ...Option) error {
	format := FormatFromPath(filename)

	data := svg
	if !IsTextFormat(format) {
		var err error
		data, err = Convert(ctx, svg, format, opts...)
		if err != nil {
			return err
		}
	}

	if dir := filepath.Dir(filename); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	return os.WriteFile(filename, data, 0o644)
}

// autoConverter picks the first available backend that supports the
// requested format, inkscape first
type autoConverter struct {
	options  Options
	backends []Converter
}

func newAuto(options Options) *autoConverter {
	return &autoConverter{
		options: options,
		backends: []Converter{
			newInkscape(options),
			newRaster(options),
		},
	}
}

func (a *autoConverter) Name() string {
	return BackendAuto
}

func (a *autoConverter) Available() bool {
	for _, b := range a.backends {
		if b.Available() {
			return true
		}
	}

	return false
}

func (a *autoConverter) Formats() []string {
	seen := make(map[string]bool)
	var formats []string
	for _, b := range a.backends {
		if !b.Available() {
			continue
		}
		for _, f := range b.Formats() {
			if !seen[f] {
				seen[f] = true
				formats = append(formats, f)
			}
		}
	}

	return formats
}

func (a *autoConverter) Convert(ctx context.Context, svg []byte, format string) ([]byte, error) {
	f := NormalizeFormat(format)
	if f == FormatSVG {
		return svg, nil
	}

	for _, b := range a.backends {
		if !supports(b.Formats(), f) || !b.Available() {
			continue
		}

		a.options.debug("auto backend selected", "backend", b.Name(), "format", f)

		return b.Convert(ctx, svg, f)
	}

	return nil, conversionError(BackendAuto, f, ErrUnsupportedFormat)
}
