// Package stego hides UTF-8 text in the least significant bits of RGB pixels.
//
// A frame is a 32-bit big-endian count of payload bits followed by the
// payload, written one bit per channel in row-major pixel order, R then G
// then B. The frame has no marker or checksum, so extracting from an image
// that carries no message can yield arbitrary text.
//
// Embedded bits only survive lossless storage. Callers must persist the
// returned buffer as PNG or another format that does not requantize pixels.
package stego

import (
	"fmt"
	"image"

	"github.com/zedseven/binmani"

	"picstego/bitcodec"
)

// Capacity is the number of LSB slots in the buffer.
func Capacity(buf *PixelBuffer) int {
	return buf.Width * buf.Height * ChannelsPerPixel
}

// MaxMessageBytes is the largest UTF-8 payload, in bytes, that fits.
func MaxMessageBytes(buf *PixelBuffer) int {
	n := (Capacity(buf) - bitcodec.HeaderBits) / 8
	if n < 0 {
		return 0
	}
	return n
}

// FrameBits builds the header and payload bits for message.
func FrameBits(message string) (bitcodec.Bits, error) {
	payload := bitcodec.TextToBits(message)
	header, err := bitcodec.IntToBits(uint64(len(payload)), bitcodec.HeaderBits)
	if err != nil {
		return nil, newError(KindCapacity, "embed",
			fmt.Sprintf("payload of %d bits exceeds the %d-bit length header", len(payload), bitcodec.HeaderBits))
	}
	return append(header, payload...), nil
}

// Embed writes message into buf and returns it. The buffer is modified in
// place; the caller hands it over and must use the returned value.
func Embed(buf *PixelBuffer, message string) (*PixelBuffer, error) {
	if err := buf.validate("embed"); err != nil {
		return nil, err
	}

	frame, err := FrameBits(message)
	if err != nil {
		return nil, err
	}
	if err := writeFrame(buf, frame); err != nil {
		return nil, err
	}
	return buf, nil
}

// EmbedImage normalizes img to RGB and embeds message into the result.
func EmbedImage(img image.Image, message string) (*PixelBuffer, error) {
	buf, err := FromImage(img)
	if err != nil {
		return nil, err
	}
	return Embed(buf, message)
}

func writeFrame(buf *PixelBuffer, frame bitcodec.Bits) error {
	capacity := Capacity(buf)
	required := (len(frame) + ChannelsPerPixel - 1) / ChannelsPerPixel
	if required > buf.Width*buf.Height {
		return newError(KindCapacity, "embed",
			fmt.Sprintf("%d bits need %d pixels, image has %d (%d bits)",
				len(frame), required, buf.Width*buf.Height, capacity))
	}

	// Pix is already in row-major R, G, B order.
	for i, bit := range frame {
		buf.Pix[i] = uint8(binmani.WriteTo(uint16(buf.Pix[i]), 0, 1, uint16(bit)))
	}
	return nil
}

// Extract reads a frame from buf and decodes its payload. The buffer is not
// modified.
func Extract(buf *PixelBuffer) (string, error) {
	if err := buf.validate("extract"); err != nil {
		return "", err
	}

	capacity := Capacity(buf)
	if capacity < bitcodec.HeaderBits {
		return "", newError(KindInvalidFrame, "extract",
			fmt.Sprintf("image holds %d bits, fewer than the %d-bit header", capacity, bitcodec.HeaderBits))
	}

	harvested := harvest(buf, bitcodec.HeaderBits+capacity)
	declared := bitcodec.BitsToInt(harvested[:bitcodec.HeaderBits])
	if declared > uint64(capacity) {
		return "", newError(KindInvalidFrame, "extract",
			fmt.Sprintf("declared length %d exceeds capacity %d", declared, capacity))
	}

	end := bitcodec.HeaderBits + int(declared)
	if end > len(harvested) {
		end = len(harvested)
	}
	return bitcodec.BitsToText(harvested[bitcodec.HeaderBits:end]), nil
}

// ExtractImage normalizes img to RGB and extracts from the result.
func ExtractImage(img image.Image) (string, error) {
	buf, err := FromImage(img)
	if err != nil {
		return "", err
	}
	return Extract(buf)
}

// harvest collects channel LSBs in traversal order, at most limit of them.
func harvest(buf *PixelBuffer, limit int) bitcodec.Bits {
	n := len(buf.Pix)
	if limit < n {
		n = limit
	}
	bits := make(bitcodec.Bits, n)
	for i := range bits {
		bits[i] = uint8(binmani.ReadFrom(uint16(buf.Pix[i]), 0, 1))
	}
	return bits
}

// Diff lists the channel slots whose LSB differs between two buffers of the
// same geometry. Slot i is channel i%3 of pixel i/3.
func Diff(before, after *PixelBuffer) ([]int, error) {
	if err := before.validate("diff"); err != nil {
		return nil, err
	}
	if err := after.validate("diff"); err != nil {
		return nil, err
	}
	if before.Width != after.Width || before.Height != after.Height {
		return nil, newError(KindInputFormat, "diff",
			fmt.Sprintf("geometry mismatch %dx%d vs %dx%d", before.Width, before.Height, after.Width, after.Height))
	}

	var slots []int
	for i := range before.Pix {
		if (before.Pix[i]^after.Pix[i])&1 != 0 {
			slots = append(slots, i)
		}
	}
	return slots, nil
}
