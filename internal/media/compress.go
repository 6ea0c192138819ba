// Package media turns user supplied photos into small JPEG data URLs
// suitable for the size-limited local store.
package media

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"math"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// DefaultMaxFileBytes is the largest accepted input.
const DefaultMaxFileBytes = 5 * 1024 * 1024

const dataURLPrefix = "data:image/jpeg;base64,"

// MaxPixels bounds the declared canvas of an input image. Decoding
// allocates the full canvas before scaling.
const MaxPixels = 50_000_000

// Options controls output size and quality.
type Options struct {
	MaxWidth     int
	Quality      float64
	MaxFileBytes int64
}

// DefaultOptions favours storage capacity.
func DefaultOptions() Options {
	return Options{MaxWidth: 600, Quality: 0.6, MaxFileBytes: DefaultMaxFileBytes}
}

// DetailOptions keeps more detail at a higher storage cost.
func DetailOptions() Options {
	return Options{MaxWidth: 800, Quality: 0.8, MaxFileBytes: DefaultMaxFileBytes}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.MaxWidth <= 0 {
		o.MaxWidth = d.MaxWidth
	}
	if o.Quality <= 0 || o.Quality > 1 {
		o.Quality = d.Quality
	}
	if o.MaxFileBytes <= 0 {
		o.MaxFileBytes = d.MaxFileBytes
	}
	return o
}

// Encoded is a compressed photo. It can only be produced by this
// package, so holding one proves the photo went through compression.
type Encoded struct {
	dataURL string
	Width   int
	Height  int
}

// DataURL returns the JPEG data URL.
func (e Encoded) DataURL() string { return e.dataURL }

// Size returns the length of the data URL in bytes.
func (e Encoded) Size() int { return len(e.dataURL) }

// CompressFile reads and compresses the image at path.
func CompressFile(path string, opts Options) (Encoded, error) {
	opts = opts.withDefaults()

	info, err := os.Stat(path)
	if err != nil {
		return Encoded{}, &Error{Kind: ReadError, Err: err}
	}
	if info.IsDir() {
		return Encoded{}, &Error{Kind: ReadError, Err: fmt.Errorf("%s is a directory", path)}
	}
	if info.Size() > opts.MaxFileBytes {
		return Encoded{}, &Error{Kind: FileTooLarge, Err: fmt.Errorf("%d bytes exceeds %d", info.Size(), opts.MaxFileBytes)}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Encoded{}, &Error{Kind: ReadError, Err: err}
	}

	return Compress(data, mime.TypeByExtension(strings.ToLower(filepath.Ext(path))), opts)
}

// CompressReader reads at most MaxFileBytes+1 bytes from r and
// compresses them.
func CompressReader(r io.Reader, mimeType string, opts Options) (Encoded, error) {
	opts = opts.withDefaults()

	data, err := io.ReadAll(io.LimitReader(r, opts.MaxFileBytes+1))
	if err != nil {
		return Encoded{}, &Error{Kind: ReadError, Err: err}
	}
	return Compress(data, mimeType, opts)
}

// Compress downscales data so its width is at most opts.MaxWidth and
// re-encodes it as JPEG. An empty mimeType is sniffed from the content.
func Compress(data []byte, mimeType string, opts Options) (Encoded, error) {
	opts = opts.withDefaults()

	if int64(len(data)) > opts.MaxFileBytes {
		return Encoded{}, &Error{Kind: FileTooLarge, Err: fmt.Errorf("%d bytes exceeds %d", len(data), opts.MaxFileBytes)}
	}

	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}
	if !strings.HasPrefix(mimeType, "image/") {
		return Encoded{}, &Error{Kind: UnsupportedType, Err: fmt.Errorf("type %s", mimeType)}
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Encoded{}, &Error{Kind: DecodeError, Err: err}
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return Encoded{}, &Error{Kind: DecodeError, Err: fmt.Errorf("%dx%d exceeds %d pixels", cfg.Width, cfg.Height, MaxPixels)}
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return Encoded{}, &Error{Kind: DecodeError, Err: err}
	}

	w, h := ScaledSize(src.Bounds().Dx(), src.Bounds().Dy(), opts.MaxWidth)

	// JPEG has no alpha, so transparent pixels are flattened onto white.
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: jpegQuality(opts.Quality)}); err != nil {
		return Encoded{}, &Error{Kind: DecodeError, Err: fmt.Errorf("encoding jpeg: %w", err)}
	}

	return Encoded{
		dataURL: dataURLPrefix + base64.StdEncoding.EncodeToString(buf.Bytes()),
		Width:   w,
		Height:  h,
	}, nil
}

// ScaledSize returns the output dimensions for an image of w x h. Width
// is capped at maxWidth with height scaled to keep the aspect ratio and
// rounded. Images are never upscaled.
func ScaledSize(w, h, maxWidth int) (int, int) {
	if w <= maxWidth {
		return w, h
	}
	nh := int(math.Round(float64(h) * float64(maxWidth) / float64(w)))
	return maxWidth, max(nh, 1)
}

func jpegQuality(q float64) int {
	return min(max(int(math.Round(q*100)), 1), 100)
}

// Info describes a stored photo.
type Info struct {
	Width  int
	Height int
	Bytes  int
}

// Inspect decodes the header of a stored data URL.
func Inspect(dataURL string) (Info, error) {
	comma := strings.IndexByte(dataURL, ',')
	if !strings.HasPrefix(dataURL, "data:") || comma < 0 {
		return Info{}, &Error{Kind: DecodeError, Err: fmt.Errorf("not a data URL")}
	}
	raw, err := base64.StdEncoding.DecodeString(dataURL[comma+1:])
	if err != nil {
		return Info{}, &Error{Kind: DecodeError, Err: err}
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return Info{}, &Error{Kind: DecodeError, Err: err}
	}
	return Info{Width: cfg.Width, Height: cfg.Height, Bytes: len(raw)}, nil
}
