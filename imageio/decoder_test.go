package imageio

import (
	"bytes"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"picstego/stego"
)

func gradient(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 7), G: uint8(y * 11), B: uint8(x ^ y), A: 255})
		}
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatPNG, "PNG": FormatPNG, ".png": FormatPNG, "bmp": FormatBMP, ".BMP": FormatBMP} {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseFormat("jpeg")
	assert.Error(t, err)
}

func TestLosslessRoundTrip(t *testing.T) {
	for _, format := range []Format{FormatPNG, FormatBMP} {
		t.Run(string(format), func(t *testing.T) {
			buf, err := stego.FromImage(gradient(20, 13))
			require.NoError(t, err)
			buf, err = stego.Embed(buf, "survives re-encoding")
			require.NoError(t, err)

			data, err := EncodeBytes(buf, format)
			require.NoError(t, err)

			decoded, meta, err := NewImageDecoder(0).Decode(data)
			require.NoError(t, err)
			assert.Equal(t, string(format), meta.Format)
			assert.Equal(t, buf.Pix, decoded.Pix)

			msg, err := stego.Extract(decoded)
			require.NoError(t, err)
			assert.Equal(t, "survives re-encoding", msg)
		})
	}
}

func TestDecodeOtherFormats(t *testing.T) {
	src := gradient(9, 9)

	var jpg bytes.Buffer
	require.NoError(t, jpeg.Encode(&jpg, src, &jpeg.Options{Quality: 90}))
	buf, meta, err := NewImageDecoder(0).Decode(jpg.Bytes())
	require.NoError(t, err)
	assert.Equal(t, "jpeg", meta.Format)
	assert.Equal(t, 9, buf.Width)

	var g bytes.Buffer
	require.NoError(t, gif.Encode(&g, src, nil))
	buf, meta, err = NewImageDecoder(0).Decode(g.Bytes())
	require.NoError(t, err)
	assert.Equal(t, "gif", meta.Format)
	assert.Len(t, buf.Pix, 9*9*3)
}

func TestDecodeGarbage(t *testing.T) {
	_, _, err := NewImageDecoder(0).Decode([]byte("definitely not an image"))
	assert.ErrorIs(t, err, stego.ErrInputFormat)
}

func TestDecodePixelLimit(t *testing.T) {
	data := encodePNG(t, gradient(10, 10))

	_, meta, err := NewImageDecoder(99).Decode(data)
	assert.ErrorIs(t, err, ErrTooLarge)
	require.NotNil(t, meta)
	assert.Equal(t, 100, meta.Pixels())

	_, _, err = NewImageDecoder(100).Decode(data)
	assert.NoError(t, err)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()

	_, _, err := NewImageDecoder(0).LoadFile(filepath.Join(dir, "missing.png"))
	assert.ErrorIs(t, err, stego.ErrNotFound)
	assert.Equal(t, stego.KindNotFound, stego.KindOf(err))

	path := filepath.Join(dir, "cover.png")
	require.NoError(t, os.WriteFile(path, encodePNG(t, gradient(4, 4)), 0o600))
	buf, meta, err := NewImageDecoder(0).LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "png", meta.Format)
	assert.Equal(t, 4, buf.Height)
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()
	buf, err := stego.FromImage(gradient(6, 6))
	require.NoError(t, err)

	for _, name := range []string{"out.png", "out.bmp", "OUT.BMP"} {
		path := filepath.Join(dir, name)
		require.NoError(t, WriteFile(path, buf))

		back, _, err := NewImageDecoder(0).LoadFile(path)
		require.NoError(t, err, name)
		assert.Equal(t, buf.Pix, back.Pix, name)
	}
}

func TestWriteFileRejectsUnknownExtension(t *testing.T) {
	dir := t.TempDir()
	buf := stego.NewPixelBuffer(2, 2)

	for _, name := range []string{"out.jpg", "out.data", "out"} {
		path := filepath.Join(dir, name)
		err := WriteFile(path, buf)
		assert.ErrorIs(t, err, stego.ErrInputFormat, name)
		_, statErr := os.Stat(path)
		assert.True(t, os.IsNotExist(statErr), name)
	}
}

func TestFormatFromPath(t *testing.T) {
	format, err := FormatFromPath("a/b.png")
	require.NoError(t, err)
	assert.Equal(t, FormatPNG, format)

	format, err = FormatFromPath("b.Bmp")
	require.NoError(t, err)
	assert.Equal(t, FormatBMP, format)

	_, err = FormatFromPath("b.jpeg")
	assert.ErrorIs(t, err, stego.ErrInputFormat)
}

func TestOutputName(t *testing.T) {
	assert.Equal(t, "cat_stego.png", OutputName("cat.jpg", FormatPNG))
	assert.Equal(t, "photo.v2_stego.bmp", OutputName("dir/photo.v2.heic", FormatBMP))
	assert.Equal(t, "image_stego.png", OutputName("", FormatPNG))
}

func TestCalculatePSNR(t *testing.T) {
	a := stego.NewPixelBuffer(2, 2)
	b := a.Clone()
	assert.True(t, math.IsInf(CalculatePSNR(a, b), 1))
	assert.Equal(t, "inf", FormatPSNR(CalculatePSNR(a, b)))

	b.Pix[0] = 1
	psnr := CalculatePSNR(a, b)
	// mse = 1/12
	assert.InDelta(t, 20*math.Log10(255/math.Sqrt(1.0/12)), psnr, 1e-9)
	assert.True(t, ValidatePSNR(psnr, 40))
	assert.False(t, ValidatePSNR(psnr, 100))
	assert.True(t, ValidatePSNR(psnr, 0))
	assert.True(t, ValidatePSNR(math.Inf(1), 100))

	assert.Equal(t, 0.0, CalculatePSNR(a, stego.NewPixelBuffer(3, 3)))
	assert.Equal(t, 0.0, CalculatePSNR(nil, b))
}
