// Package bitcodec converts between text, unsigned integers and bit sequences
package bitcodec

import (
	"errors"
	"strings"
	"unicode"
)

// HeaderBits is the width of the length header that prefixes every frame.
const HeaderBits = 32

const bitsInByte = 8

// ErrOverflow is returned when a number does not fit in the requested width.
var ErrOverflow = errors.New("bitcodec: value does not fit in bit length")

// Bits is an ordered sequence of 0/1 values.
type Bits []uint8

func TextToBits(text string) Bits {
	return BytesToBits([]byte(printable(text)))
}

// BitsToText decodes whole bytes from bits as UTF-8. A trailing group of
// fewer than 8 bits is discarded and invalid byte sequences are dropped.
func BitsToText(bits Bits) string {
	return strings.ToValidUTF8(string(BitsToBytes(bits)), "")
}

// IntToBits renders n as exactly length bits, most significant bit first.
func IntToBits(n uint64, length int) (Bits, error) {
	if length < 0 {
		return nil, ErrOverflow
	}
	if length < 64 && n>>uint(length) != 0 {
		return nil, ErrOverflow
	}

	bits := make(Bits, length)
	for i := 0; i < length; i++ {
		shift := length - 1 - i
		if shift < 64 {
			bits[i] = uint8((n >> uint(shift)) & 1)
		}
	}
	return bits, nil
}

func BitsToInt(bits Bits) uint64 {
	var n uint64
	for _, b := range bits {
		n = (n << 1) | uint64(b&1)
	}
	return n
}

func BytesToBits(data []byte) Bits {
	bits := make(Bits, 0, len(data)*bitsInByte)
	for _, b := range data {
		for i := 7; i >= 0; i-- {
			bits = append(bits, (b>>i)&1)
		}
	}
	return bits
}

func BitsToBytes(bits Bits) []byte {
	out := make([]byte, 0, len(bits)/bitsInByte)
	for i := 0; i+bitsInByte <= len(bits); i += bitsInByte {
		var b byte
		for j := range bitsInByte {
			b = (b << 1) | (bits[i+j] & 1)
		}
		out = append(out, b)
	}
	return out
}

// printable keeps printable runes and the ASCII space. Control characters,
// byte order marks, line breaks and other separators are removed.
func printable(text string) string {
	return strings.Map(func(r rune) rune {
		if r == ' ' || unicode.IsPrint(r) {
			return r
		}
		return -1
	}, text)
}
