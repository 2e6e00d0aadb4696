package svgconv

import (
	"io"
	"log/slog"
	"strings"
)

// backend names accepted by Backend option
const (
	BackendAuto     = "auto"
	BackendRaster   = "raster"
	BackendInkscape = "inkscape"
)

// Option define method to modify config options
type Option func(o *Options)

// Options of configuration package
type Options struct {
	// backend used by New, one of auto, raster or inkscape
	backend string

	// command name, by default is "inkscape"
	// but it may depends on system setup
	// therefore allow user to override if needed
	commandName string

	// maximum retry attempt of a failed inkscape export
	maxRetry int

	// set verbosity
	verbose bool
	logger  *slog.Logger

	// rendering hints, zero means "use document size"
	dpi           float64
	width, height int
	background    string

	// directory for intermediate export files
	tempDir string
}

// Backend selects the converter returned by New
func Backend(name string) Option {
	return func(o *Options) {
		o.backend = strings.ToLower(strings.TrimSpace(name))
	}
}

// CommandName customize inkscape executable name
// this may vary based on system setup / configuration
func CommandName(commandName string) Option {
	return func(o *Options) {
		o.commandName = commandName
	}
}

// MaxRetry override maximum retry attempt when running
// inkscape export process
func MaxRetry(retry int) Option {
	return func(o *Options) {
		o.maxRetry = retry
	}
}

// Verbose override log verbosity
// useful for debugging
func Verbose(verbose bool) Option {
	return func(o *Options) {
		o.verbose = verbose
	}
}

// Logger sets the logger used for debug output
func Logger(logger *slog.Logger) Option {
	return func(o *Options) {
		o.logger = logger
	}
}

// DPI sets the export resolution. 96 maps one SVG user unit to one pixel.
func DPI(dpi float64) Option {
	return func(o *Options) {
		o.dpi = dpi
	}
}

// Size forces the output size in pixels. A zero side is derived from the
// document aspect ratio.
func Size(width, height int) Option {
	return func(o *Options) {
		o.width = width
		o.height = height
	}
}

// Width forces the output width in pixels
func Width(width int) Option {
	return func(o *Options) {
		o.width = width
	}
}

// Height forces the output height in pixels
func Height(height int) Option {
	return func(o *Options) {
		o.height = height
	}
}

// Background sets the color painted behind the drawing, e.g. "white" or "#ff000080"
func Background(color string) Option {
	return func(o *Options) {
		o.background = strings.TrimSpace(color)
	}
}

// TempDir overrides the directory used for intermediate files
func TempDir(dir string) Option {
	return func(o *Options) {
		o.tempDir = dir
	}
}

func defaultOptions() Options {
	return Options{
		backend:     BackendAuto,
		commandName: defaultCmdName,
		maxRetry:    0,
		verbose:     false,
		dpi:         defaultDPI,
	}
}

func mergeOptions(dest Options, opts ...Option) Options {
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&dest)
	}

	if dest.logger == nil {
		dest.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return dest
}

func (o Options) debug(msg string, args ...any) {
	if !o.verbose {
		return
	}

	o.logger.Debug(msg, args...)
}
