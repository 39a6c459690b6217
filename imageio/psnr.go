package imageio

import (
	"math"
	"strconv"

	"picstego/stego"
)

// CalculatePSNR compares two buffers channel by channel. Mismatched or empty
// buffers score 0; identical buffers score +Inf.
func CalculatePSNR(original, modified *stego.PixelBuffer) float64 {
	if original == nil || modified == nil || len(original.Pix) != len(modified.Pix) {
		return 0.0
	}

	if len(original.Pix) == 0 {
		return 0.0
	}

	var mse float64
	for i := range original.Pix {
		diff := float64(original.Pix[i]) - float64(modified.Pix[i])
		mse += diff * diff
	}
	mse /= float64(len(original.Pix))

	if mse == 0 {
		return math.Inf(1)
	}

	// PSNR = 20 * log10(MAX / sqrt(MSE)), MAX = 255 for 8-bit channels
	maxSignalValue := 255.0
	return 20 * math.Log10(maxSignalValue/math.Sqrt(mse))
}

// ValidatePSNR reports whether psnr reaches minDB. A zero minDB accepts
// anything, and an unchanged image always passes.
func ValidatePSNR(psnr, minDB float64) bool {
	return minDB <= 0 || math.IsInf(psnr, 1) || psnr >= minDB
}

// FormatPSNR renders a PSNR value for headers and CLI output.
func FormatPSNR(psnr float64) string {
	if math.IsInf(psnr, 1) {
		return "inf"
	}
	return strconv.FormatFloat(psnr, 'f', 2, 64)
}
