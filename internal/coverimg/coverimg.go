// Package coverimg prepares local image files before they are embedded as
// a book cover.
package coverimg

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/png"
	"net/http"
	"strings"

	"github.com/disintegration/imaging"
)

const (
	DefaultJPEGQuality = 90
	minJPEGQuality     = 60
	defaultMaxPixels   = 100 * 1000 * 1000 // 100 megapixels
)

var ErrNotImage = errors.New("not a supported image")

// Options controls how a cover is prepared. Zero values disable the
// corresponding step.
type Options struct {
	MaxWidth    int
	MaxHeight   int
	JPEGQuality int
	MaxFileSize int
	MaxPixels   int // Total pixel count limit for decode (width * height)
}

// Image is a prepared cover image.
// Warning is set when the image was returned as-is although a step was
// requested, or when size limits could not be met. Data is usable either way.
type Image struct {
	Data    []byte
	MIME    string
	Width   int
	Height  int
	Warning string
}

// DetectMediaType returns the MIME type of an image from its content.
func DetectMediaType(data []byte) (string, error) {
	if _, format, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
		return formatToMediaType(format), nil
	}
	if mime := http.DetectContentType(data); strings.HasPrefix(mime, "image/") {
		return mime, nil
	}
	return "", ErrNotImage
}

// Prepare detects the type of input and, when the options ask for it,
// downscales and re-encodes it. Input that needs no change is returned
// unchanged.
func Prepare(input []byte, opts Options) (Image, error) {
	mime, err := DetectMediaType(input)
	if err != nil {
		return Image{}, err
	}
	out := Image{Data: input, MIME: mime}

	cfg, _, cfgErr := image.DecodeConfig(bytes.NewReader(input))
	if cfgErr != nil {
		// SVG and other formats only sniffed by content
		return out, nil
	}
	out.Width, out.Height = cfg.Width, cfg.Height

	tooWide := opts.MaxWidth > 0 && cfg.Width > opts.MaxWidth
	tooTall := opts.MaxHeight > 0 && cfg.Height > opts.MaxHeight
	tooBig := opts.MaxFileSize > 0 && len(input) > opts.MaxFileSize
	if !tooWide && !tooTall && !tooBig {
		return out, nil
	}

	maxPixels := opts.MaxPixels
	if maxPixels <= 0 {
		maxPixels = defaultMaxPixels
	}
	pixels := uint64(cfg.Width) * uint64(cfg.Height)
	if pixels > uint64(maxPixels) {
		out.Warning = fmt.Sprintf("image too large to decode: %dx%d (%d pixels)", cfg.Width, cfg.Height, pixels)
		return out, nil
	}

	if mime == "image/gif" {
		if animated, err := isAnimatedGIF(input); err == nil && animated {
			out.Warning = "animated gif kept as-is"
			return out, nil
		}
	}

	src, err := imaging.Decode(bytes.NewReader(input), imaging.AutoOrientation(true))
	if err != nil {
		out.Warning = fmt.Sprintf("image decode failed: %v", err)
		return out, nil
	}

	processed := src
	if tooWide || tooTall {
		processed = imaging.Fit(src, limit(opts.MaxWidth, cfg.Width), limit(opts.MaxHeight, cfg.Height), imaging.Lanczos)
	}

	quality := opts.JPEGQuality
	if quality <= 0 {
		quality = DefaultJPEGQuality
	}
	if quality > 100 {
		quality = 100
	}

	var data []byte
	if hasAlpha(processed) {
		data, err = encode(processed, imaging.PNG, imaging.PNGCompressionLevel(png.BestCompression))
		out.MIME = "image/png"
	} else {
		data, quality, err = encodeJPEGWithSizeLimit(processed, quality, opts.MaxFileSize)
		out.MIME = "image/jpeg"
	}
	if err != nil {
		return Image{}, err
	}

	out.Data = data
	out.Width = processed.Bounds().Dx()
	out.Height = processed.Bounds().Dy()
	if opts.MaxFileSize > 0 && len(out.Data) > opts.MaxFileSize {
		out.Warning = fmt.Sprintf("%s size %d exceeds limit %d bytes at quality %d", out.MIME, len(out.Data), opts.MaxFileSize, quality)
	}
	return out, nil
}

func limit(bound, actual int) int {
	if bound > 0 {
		return bound
	}
	return actual
}

func encodeJPEGWithSizeLimit(img image.Image, quality, maxSize int) ([]byte, int, error) {
	best, err := encode(img, imaging.JPEG, imaging.JPEGQuality(quality))
	if err != nil {
		return nil, 0, fmt.Errorf("jpeg encode failed: %w", err)
	}
	if maxSize <= 0 || len(best) <= maxSize {
		return best, quality, nil
	}

	bestQuality := quality
	for q := quality - 5; q >= minJPEGQuality; q -= 5 {
		candidate, err := encode(img, imaging.JPEG, imaging.JPEGQuality(q))
		if err != nil {
			return nil, 0, fmt.Errorf("jpeg re-encode failed at quality %d: %w", q, err)
		}
		best, bestQuality = candidate, q
		if len(candidate) <= maxSize {
			break
		}
	}
	return best, bestQuality, nil
}

func encode(img image.Image, format imaging.Format, opts ...imaging.EncodeOption) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, format, opts...); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func formatToMediaType(format string) string {
	switch strings.ToLower(format) {
	case "jpeg", "jpg":
		return "image/jpeg"
	case "png":
		return "image/png"
	case "gif":
		return "image/gif"
	case "bmp":
		return "image/bmp"
	case "tiff":
		return "image/tiff"
	default:
		return "image/" + strings.ToLower(format)
	}
}

func isAnimatedGIF(data []byte) (bool, error) {
	g, err := gif.DecodeAll(bytes.NewReader(data))
	if err != nil {
		return false, err
	}
	return len(g.Image) > 1, nil
}

func hasAlpha(img image.Image) bool {
	if o, ok := img.(interface{ Opaque() bool }); ok {
		return !o.Opaque()
	}
	bounds := img.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			_, _, _, a := img.At(x, y).RGBA()
			if a < 0xFFFF {
				return true
			}
		}
	}
	return false
}
