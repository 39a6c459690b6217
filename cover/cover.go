// Package cover generates cover images to hide messages in when the user
// has none at hand.
//
// A cover is a base color with per-channel noise on top. Noise keeps the
// LSB plane of the cover busy, so an embedded frame does not stand out as a
// flat region turned into a checkerboard.
package cover

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand"
	"strconv"
	"strings"

	"picstego/stego"
)

const (
	DefaultWidth  = 640
	DefaultHeight = 480
	// MaxSide bounds each dimension of a generated cover.
	MaxSide = 4096
)

// Config holds parameters for cover generation.
type Config struct {
	Width  int    // Pixel width (default: 640)
	Height int    // Pixel height (default: 480)
	Color  string // Base color "#rrggbb", or "" / "random"
	Noise  int    // Max per-channel deviation from the base color (default: 24)
	Seed   int64  // Zero picks a random seed
}

// Generate renders a cover. The same non-zero seed and config always
// produce the same pixels.
func Generate(cfg Config) (*stego.PixelBuffer, error) {
	w, h := cfg.Width, cfg.Height
	if w == 0 {
		w = DefaultWidth
	}
	if h == 0 {
		h = DefaultHeight
	}
	if w < 0 || h < 0 || w > MaxSide || h > MaxSide {
		return nil, fmt.Errorf("invalid cover size %dx%d: each side must be within 1..%d", w, h, MaxSide)
	}

	noise := cfg.Noise
	if noise == 0 {
		noise = 24
	}
	if noise < 0 || noise > 127 {
		return nil, fmt.Errorf("invalid noise %d: expected 1..127", noise)
	}

	seed := cfg.Seed
	if seed == 0 {
		var b [8]byte
		if _, err := crand.Read(b[:]); err != nil {
			return nil, fmt.Errorf("random seed: %w", err)
		}
		seed = int64(binary.BigEndian.Uint64(b[:]))
	}
	rng := rand.New(rand.NewSource(seed))

	base, err := parseColor(cfg.Color, rng)
	if err != nil {
		return nil, err
	}

	buf := stego.NewPixelBuffer(w, h)
	for i := range buf.Pix {
		v := int(base[i%stego.ChannelsPerPixel]) + rng.Intn(2*noise+1) - noise
		buf.Pix[i] = uint8(min(max(v, 0), 255))
	}
	return buf, nil
}

// parseColor accepts "#rrggbb", "random" or "".
func parseColor(s string, rng *rand.Rand) ([3]uint8, error) {
	if s == "" || s == "random" {
		return [3]uint8{uint8(rng.Intn(256)), uint8(rng.Intn(256)), uint8(rng.Intn(256))}, nil
	}

	hex := strings.TrimPrefix(s, "#")
	if len(hex) != 6 {
		return [3]uint8{}, fmt.Errorf("invalid color %q: expected 6-char hex", s)
	}

	var c [3]uint8
	for i := range c {
		v, err := strconv.ParseUint(hex[i*2:i*2+2], 16, 8)
		if err != nil {
			return [3]uint8{}, fmt.Errorf("invalid channel %d in %q: %w", i, s, err)
		}
		c[i] = uint8(v)
	}
	return c, nil
}
