package stego

import (
	"fmt"
	"image"
	"image/color"
)

// ChannelsPerPixel is fixed: the codec only works on R, G and B.
const ChannelsPerPixel = 3

// PixelBuffer is a decoded RGB image. Pix holds Width*Height triples in
// row-major order; the pixel at (x, y) starts at Pix[(y*Width+x)*3].
type PixelBuffer struct {
	Width  int
	Height int
	Pix    []uint8
}

// NewPixelBuffer allocates a zeroed buffer.
func NewPixelBuffer(width, height int) *PixelBuffer {
	return &PixelBuffer{
		Width:  width,
		Height: height,
		Pix:    make([]uint8, width*height*ChannelsPerPixel),
	}
}

func (b *PixelBuffer) validate(op string) error {
	if b == nil {
		return newError(KindInputFormat, op, "nil pixel buffer")
	}
	if b.Width <= 0 || b.Height <= 0 {
		return newError(KindInputFormat, op, fmt.Sprintf("invalid dimensions %dx%d", b.Width, b.Height))
	}
	if len(b.Pix) != b.Width*b.Height*ChannelsPerPixel {
		return newError(KindInputFormat, op,
			fmt.Sprintf("expected %d channel values for %dx%d RGB, got %d",
				b.Width*b.Height*ChannelsPerPixel, b.Width, b.Height, len(b.Pix)))
	}
	return nil
}

// Clone returns a deep copy.
func (b *PixelBuffer) Clone() *PixelBuffer {
	pix := make([]uint8, len(b.Pix))
	copy(pix, b.Pix)
	return &PixelBuffer{Width: b.Width, Height: b.Height, Pix: pix}
}

// At returns the RGB triple at (x, y).
func (b *PixelBuffer) At(x, y int) (r, g, bl uint8) {
	i := (y*b.Width + x) * ChannelsPerPixel
	return b.Pix[i], b.Pix[i+1], b.Pix[i+2]
}

// Set stores the RGB triple at (x, y).
func (b *PixelBuffer) Set(x, y int, r, g, bl uint8) {
	i := (y*b.Width + x) * ChannelsPerPixel
	b.Pix[i], b.Pix[i+1], b.Pix[i+2] = r, g, bl
}

// FromImage normalizes img into an RGB buffer. Alpha is dropped without
// compositing, gray is expanded to three equal channels and every other
// color model goes through non-premultiplied RGBA conversion.
func FromImage(img image.Image) (*PixelBuffer, error) {
	const op = "normalize"
	if img == nil {
		return nil, newError(KindInputFormat, op, "nil image")
	}
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= 0 || h <= 0 {
		return nil, newError(KindInputFormat, op, fmt.Sprintf("invalid dimensions %dx%d", w, h))
	}

	buf := NewPixelBuffer(w, h)
	switch src := img.(type) {
	case *image.NRGBA:
		for y := 0; y < h; y++ {
			row := src.Pix[y*src.Stride : y*src.Stride+w*4]
			for x := 0; x < w; x++ {
				buf.Set(x, y, row[x*4], row[x*4+1], row[x*4+2])
			}
		}
	case *image.Gray:
		for y := 0; y < h; y++ {
			row := src.Pix[y*src.Stride : y*src.Stride+w]
			for x := 0; x < w; x++ {
				buf.Set(x, y, row[x], row[x], row[x])
			}
		}
	default:
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				c := color.NRGBAModel.Convert(img.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.NRGBA)
				buf.Set(x, y, c.R, c.G, c.B)
			}
		}
	}
	return buf, nil
}

// ToImage renders the buffer as an opaque NRGBA image.
func (b *PixelBuffer) ToImage() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, b.Width, b.Height))
	for i, j := 0, 0; i < len(b.Pix); i, j = i+ChannelsPerPixel, j+4 {
		img.Pix[j] = b.Pix[i]
		img.Pix[j+1] = b.Pix[i+1]
		img.Pix[j+2] = b.Pix[i+2]
		img.Pix[j+3] = 0xff
	}
	return img
}
