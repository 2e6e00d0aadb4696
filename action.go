package svgconv

import (
	"strconv"
	"strings"
)

/*
Subset of inkscape 1.x command line export options used by the backend:

--pipe                       :  Read input file from standard input.
--export-filename=FILENAME   :  Output file name.
--export-type=TYPE[,TYPE]*   :  File type(s) to export: [svg,png,ps,eps,pdf,emf,wmf,xaml].
--export-dpi=DPI             :  Resolution for bitmaps and rasterized filters; default is 96.
--export-width=WIDTH         :  Bitmap width in pixels (overrides --export-dpi).
--export-height=HEIGHT       :  Bitmap height in pixels (overrides --export-dpi).
--export-background=COLOR    :  Background color for exported bitmaps (any SVG color string).
--export-background-opacity=VALUE
                             :  Background opacity for exported bitmaps (0.0 to 1.0, or 1 to 255).
--version                    :  Print Inkscape version number.
*/

// Pipe .
func Pipe() string {
	return "--pipe"
}

// ExportType .
func ExportType(format string) string {
	return "--export-type=" + format
}

// ExportFileName .
func ExportFileName(filePath string) string {
	return "--export-filename=" + filePath
}

// ExportDpi .
func ExportDpi(dpi float64) string {
	return "--export-dpi=" + strconv.FormatFloat(dpi, 'f', -1, 64)
}

// ExportWidth .
func ExportWidth(width int) string {
	return "--export-width=" + strconv.Itoa(width)
}

// ExportHeight .
func ExportHeight(height int) string {
	return "--export-height=" + strconv.Itoa(height)
}

// ExportBackground .
func ExportBackground(color string) string {
	return "--export-background=" + color
}

// ExportBackgroundOpacity .
func ExportBackgroundOpacity(opacity float64) string {
	return "--export-background-opacity=" + strconv.FormatFloat(opacity, 'f', -1, 64)
}

// Version print inkscape version and return
func Version() string {
	return "--version"
}

// exportArgs builds the argument list of a single piped export
func exportArgs(options Options, format, output string) []string {
	args := []string{
		Pipe(),
		ExportType(format),
		ExportFileName(output),
	}

	if options.dpi > 0 && options.dpi != defaultDPI {
		args = append(args, ExportDpi(options.dpi))
	}
	if options.width > 0 {
		args = append(args, ExportWidth(options.width))
	}
	if options.height > 0 {
		args = append(args, ExportHeight(options.height))
	}
	if bg := strings.TrimSpace(options.background); bg != "" {
		args = append(args, ExportBackground(bg), ExportBackgroundOpacity(1))
	}

	return args
}
