package svgconv

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"math"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

const (
	jpegQuality = 90

	// 8192x8192, 256 MiB as RGBA
	maxPixels = 1 << 26
)

// imageEncoder writes an image.Image in one format
type imageEncoder interface {
	Encode(w io.Writer, img image.Image) error
}

type pngEncoder struct{}

func (pngEncoder) Encode(w io.Writer, img image.Image) error {
	return png.Encode(w, img)
}

type jpegEncoder struct{}

func (jpegEncoder) Encode(w io.Writer, img image.Image) error {
	return jpeg.Encode(w, img, &jpeg.Options{Quality: jpegQuality})
}

type gifEncoder struct{}

func (gifEncoder) Encode(w io.Writer, img image.Image) error {
	return gif.Encode(w, img, nil)
}

type bmpEncoder struct{}

func (bmpEncoder) Encode(w io.Writer, img image.Image) error {
	return bmp.Encode(w, img)
}

type tiffEncoder struct{}

func (tiffEncoder) Encode(w io.Writer, img image.Image) error {
	return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
}

var rasterEncoders = map[string]imageEncoder{
	"png":  pngEncoder{},
	"jpeg": jpegEncoder{},
	"gif":  gifEncoder{},
	"bmp":  bmpEncoder{},
	"tiff": tiffEncoder{},
}

var rasterFormats = []string{"png", "jpeg", "gif", "bmp", "tiff"}

// Raster converts svg in process by rasterizing it with oksvg and
// encoding the result with the Go image encoders.
type Raster struct {
	options Options
}

// NewRaster create pure Go raster converter
func NewRaster(opts ...Option) *Raster {
	return newRaster(mergeOptions(defaultOptions(), opts...))
}

func newRaster(options Options) *Raster {
	return &Raster{options: options}
}

// Name satisfy Converter interface
func (r *Raster) Name() string {
	return BackendRaster
}

// Available always true, no external dependency
func (r *Raster) Available() bool {
	return true
}

// Formats satisfy Converter interface
func (r *Raster) Formats() []string {
	return rasterFormats
}

// Convert svg into format
func (r *Raster) Convert(ctx context.Context, svg []byte, format string) ([]byte, error) {
	f := NormalizeFormat(format)
	if f == FormatSVG {
		return svg, nil
	}

	enc, ok := rasterEncoders[f]
	if !ok {
		return nil, conversionError(BackendRaster, f, ErrUnsupportedFormat)
	}

	if err := ctx.Err(); err != nil {
		return nil, conversionError(BackendRaster, f, err)
	}

	img, err := r.Rasterize(svg, f)
	if err != nil {
		return nil, conversionError(BackendRaster, f, err)
	}

	var buf bytes.Buffer
	if err := enc.Encode(&buf, img); err != nil {
		return nil, conversionError(BackendRaster, f, err)
	}

	r.options.debug("rasterized", "format", f, "width", img.Bounds().Dx(), "height", img.Bounds().Dy(), "bytes", buf.Len())

	return buf.Bytes(), nil
}

// Rasterize draws svg onto a new RGBA image. format only affects the
// default background: formats without alpha get white.
func (r *Raster) Rasterize(svg []byte, format string) (*image.RGBA, error) {
	mode := oksvg.IgnoreErrorMode
	if r.options.verbose {
		mode = oksvg.WarnErrorMode
	}

	icon, err := oksvg.ReadIconStream(bytes.NewReader(svg), mode)
	if err != nil {
		return nil, fmt.Errorf("parse svg: %w", err)
	}

	fw, fh := targetSize(icon.ViewBox.W, icon.ViewBox.H, r.options)
	if !(fw >= 1 && fh >= 1) {
		return nil, ErrEmptyImage
	}
	if fw*fh > maxPixels {
		return nil, fmt.Errorf("%w: %.0fx%.0f pixels", ErrImageTooLarge, fw, fh)
	}
	w, h := int(fw), int(fh)

	icon.SetTarget(0, 0, float64(w), float64(h))

	img := image.NewRGBA(image.Rect(0, 0, w, h))

	bg, err := r.background(format)
	if err != nil {
		return nil, err
	}
	if bg != nil {
		draw.Draw(img, img.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)
	}

	scanner := rasterx.NewScannerGV(w, h, img, img.Bounds())
	dasher := rasterx.NewDasher(w, h, scanner)
	icon.Draw(dasher, 1)

	return img, nil
}

func (r *Raster) background(format string) (color.Color, error) {
	if r.options.background == "" {
		if format == "jpeg" || format == "bmp" {
			return color.White, nil
		}
		return nil, nil
	}

	c, err := oksvg.ParseSVGColor(r.options.background)
	if err != nil {
		return nil, fmt.Errorf("background %q: %w", r.options.background, err)
	}

	return c, nil
}

// targetSize resolves output pixels from the view box and size options.
// An explicit width or height wins; a missing side keeps the aspect ratio.
// Sizes stay float so oversized documents can be rejected before any
// integer conversion.
func targetSize(vbW, vbH float64, options Options) (float64, float64) {
	w, h := float64(options.width), float64(options.height)

	switch {
	case w > 0 && h > 0:
		return w, h
	case w > 0:
		if vbW <= 0 {
			return 0, 0
		}
		return w, math.Round(w * vbH / vbW)
	case h > 0:
		if vbH <= 0 {
			return 0, 0
		}
		return math.Round(h * vbW / vbH), h
	}

	scale := 1.0
	if options.dpi > 0 {
		scale = options.dpi / defaultDPI
	}

	return math.Ceil(vbW * scale), math.Ceil(vbH * scale)
}
