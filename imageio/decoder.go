// Package imageio loads raster images and writes stego images losslessly
package imageio

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	// Decoders for every raster format accepted as a cover.
	_ "image/gif"
	_ "image/jpeg"

	"golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"picstego/stego"
)

// Format is a lossless output encoding.
type Format string

const (
	FormatPNG Format = "png"
	FormatBMP Format = "bmp"
)

// ParseFormat accepts "png" or "bmp", case-insensitively. Empty means PNG.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")) {
	case "", "png":
		return FormatPNG, nil
	case "bmp":
		return FormatBMP, nil
	default:
		return "", fmt.Errorf("unsupported output format %q (lossless formats: png, bmp)", s)
	}
}

func (f Format) ContentType() string {
	if f == FormatBMP {
		return "image/bmp"
	}
	return "image/png"
}

func (f Format) Extension() string {
	return "." + string(f)
}

// ImageMetadata describes a decoded cover.
type ImageMetadata struct {
	Format string
	Width  int
	Height int
}

func (m ImageMetadata) Pixels() int {
	return m.Width * m.Height
}

// ErrTooLarge is returned when an image exceeds the configured pixel limit.
var ErrTooLarge = errors.New("image exceeds pixel limit")

type ImageDecoder struct {
	maxPixels int
}

// NewImageDecoder returns a decoder rejecting images above maxPixels.
// Zero disables the limit.
func NewImageDecoder(maxPixels int) *ImageDecoder {
	return &ImageDecoder{maxPixels: maxPixels}
}

// Inspect reads only the header of data.
func (d *ImageDecoder) Inspect(data []byte) (*ImageMetadata, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, stego.Wrap(stego.KindInputFormat, "decode", fmt.Errorf("failed to read image header: %w", err))
	}
	meta := &ImageMetadata{Format: format, Width: cfg.Width, Height: cfg.Height}
	if d.maxPixels > 0 && meta.Pixels() > d.maxPixels {
		return meta, fmt.Errorf("%w: %dx%d is above %d pixels", ErrTooLarge, meta.Width, meta.Height, d.maxPixels)
	}
	return meta, nil
}

// Decode checks the pixel limit from the header, then decodes data and
// normalizes it to an RGB buffer.
func (d *ImageDecoder) Decode(data []byte) (*stego.PixelBuffer, *ImageMetadata, error) {
	meta, err := d.Inspect(data)
	if err != nil {
		return nil, meta, err
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, meta, stego.Wrap(stego.KindInputFormat, "decode", fmt.Errorf("failed to decode %s image: %w", meta.Format, err))
	}

	buf, err := stego.FromImage(img)
	if err != nil {
		return nil, meta, err
	}
	return buf, meta, nil
}

// LoadFile decodes the image at path. A missing file is a NotFound error.
func (d *ImageDecoder) LoadFile(path string) (*stego.PixelBuffer, *ImageMetadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil, stego.Wrap(stego.KindNotFound, "load", fmt.Errorf("file %s not found: %w", path, err))
		}
		return nil, nil, stego.Wrap(stego.KindProcessing, "load", fmt.Errorf("failed to read %s: %w", path, err))
	}
	return d.Decode(data)
}

// Encode writes buf in a lossless format.
func Encode(w io.Writer, buf *stego.PixelBuffer, format Format) error {
	img := buf.ToImage()
	var err error
	switch format {
	case FormatBMP:
		err = bmp.Encode(w, img)
	case FormatPNG, "":
		encoder := png.Encoder{CompressionLevel: png.BestCompression}
		err = encoder.Encode(w, img)
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
	if err != nil {
		return stego.Wrap(stego.KindProcessing, "encode", fmt.Errorf("failed to encode %s: %w", format, err))
	}
	return nil
}

// EncodeBytes is Encode into memory.
func EncodeBytes(buf *stego.PixelBuffer, format Format) ([]byte, error) {
	var out bytes.Buffer
	if err := Encode(&out, buf, format); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// FormatFromPath picks the output format from a .png or .bmp extension.
// Any other extension is an InputFormat error.
func FormatFromPath(path string) (Format, error) {
	ext := filepath.Ext(path)
	if ext == "" {
		return "", stego.Wrap(stego.KindInputFormat, "write", fmt.Errorf("output %s has no extension (lossless formats: png, bmp)", path))
	}
	format, err := ParseFormat(ext)
	if err != nil {
		return "", stego.Wrap(stego.KindInputFormat, "write", fmt.Errorf("output %s: %w", path, err))
	}
	return format, nil
}

// WriteFile encodes buf to path in the format named by its extension.
func WriteFile(path string, buf *stego.PixelBuffer) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return stego.Wrap(stego.KindProcessing, "write", fmt.Errorf("failed to create %s: %w", path, err))
	}
	if err := Encode(f, buf, format); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return stego.Wrap(stego.KindProcessing, "write", fmt.Errorf("failed to close %s: %w", path, err))
	}
	return nil
}

// OutputName derives the download name for a stego image.
func OutputName(inputName string, format Format) string {
	base := strings.TrimSuffix(filepath.Base(inputName), filepath.Ext(inputName))
	if base == "" || base == "." || base == string(filepath.Separator) {
		base = "image"
	}
	return fmt.Sprintf("%s_stego%s", base, format.Extension())
}
