package svgconv

import (
	"path/filepath"
	"strings"
)

// FormatSVG is the identity format, svg text is written as is
const FormatSVG = "svg"

var formatAliases = map[string]string{
	"jpg": "jpeg",
	"tif": "tiff",
}

// NormalizeFormat lower-cases a format identifier, strips a leading dot and
// resolves aliases such as jpg -> jpeg.
func NormalizeFormat(format string) string {
	f := strings.ToLower(strings.TrimSpace(format))
	f = strings.TrimPrefix(f, ".")
	if alias, ok := formatAliases[f]; ok {
		return alias
	}

	return f
}

// FormatFromPath sniffs the output format from the file extension.
// Returns an empty string when the path has no extension.
func FormatFromPath(path string) string {
	return NormalizeFormat(filepath.Ext(path))
}

// IsTextFormat reports whether the format is written as svg text
// without going through a converter.
func IsTextFormat(format string) bool {
	f := NormalizeFormat(format)
	return f == "" || f == FormatSVG
}

func supports(formats []string, format string) bool {
	for _, f := range formats {
		if f == format {
			return true
		}
	}

	return false
}
