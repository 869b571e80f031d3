// Package stats computes the fidelity metrics spec.md §4.3 and §8 attach to
// an embed operation: PSNR between the original and watermarked image, and
// (via watermark.BER) bit error rate between an expected and recovered
// watermark. PSNR is expressed in terms of gonum's stat package, the same
// way the pack's DWT-DCT-SVD watermarking examples lean on gonum for their
// numerical work, rather than hand-rolled summation.
package stats

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/revwat/revwat/imgbuf"
)

// PSNR computes the peak signal-to-noise ratio in decibels between two
// same-shaped images, per spec.md §8's "PSNR ≥ 48 dB" testable property.
// It returns +Inf when the images are identical (zero MSE).
func PSNR(orig, modified *imgbuf.Image) float64 {
	if !orig.SameShape(modified) {
		return math.NaN()
	}

	n := orig.Width * orig.Height
	sqErrs := make([]float64, 0, n)
	for y := 0; y < orig.Height; y++ {
		for x := 0; x < orig.Width; x++ {
			d := float64(orig.At(x, y)) - float64(modified.At(x, y))
			sqErrs = append(sqErrs, d*d)
		}
	}
	mse := stat.Mean(sqErrs, nil)
	if mse == 0 {
		return math.Inf(1)
	}

	maxVal := float64(orig.MaxSample())
	return 20*math.Log10(maxVal) - 10*math.Log10(mse)
}
