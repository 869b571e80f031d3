// Package predictor implements the prediction kernel used by the reversible
// codec to compute per-pixel prediction errors (spec.md §4.1).
package predictor

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidKernel is returned when a kernel is not square, not odd-sided,
// does not sum to 1, or has a nonzero center.
var ErrInvalidKernel = errors.New("invalid kernel")

// Kernel is an odd-sided square matrix of non-negative weights summing to 1,
// with a zero center, as required by spec.md §3.
type Kernel struct {
	Weights [][]float64
	Size    int // K
	Half    int // r = (K-1)/2
}

// Default4Neighbor returns the 4-neighbor average kernel: weight 1/4 on each
// cardinal neighbor, 0 elsewhere, 0 at the center. This is the reference
// default named in spec.md §3.
func Default4Neighbor() Kernel {
	w := [][]float64{
		{0, 0.25, 0},
		{0.25, 0, 0.25},
		{0, 0.25, 0},
	}
	return Kernel{Weights: w, Size: 3, Half: 1}
}

// NewKernel validates and wraps a raw weight matrix.
func NewKernel(weights [][]float64) (Kernel, error) {
	k := Kernel{Weights: weights}
	if err := k.validate(); err != nil {
		return Kernel{}, err
	}
	k.Size = len(weights)
	k.Half = (k.Size - 1) / 2
	return k, nil
}

func (k Kernel) validate() error {
	n := len(k.Weights)
	if n == 0 || n%2 == 0 {
		return fmt.Errorf("%w: size %d must be odd and positive", ErrInvalidKernel, n)
	}
	sum := 0.0
	for i, row := range k.Weights {
		if len(row) != n {
			return fmt.Errorf("%w: row %d has length %d, want %d", ErrInvalidKernel, i, len(row), n)
		}
		for j, v := range row {
			if v < 0 {
				return fmt.Errorf("%w: negative weight at (%d,%d)", ErrInvalidKernel, i, j)
			}
			sum += v
		}
	}
	center := n / 2
	if k.Weights[center][center] != 0 {
		return fmt.Errorf("%w: center entry must be 0", ErrInvalidKernel)
	}
	if math.Abs(sum-1.0) > 1e-9 {
		return fmt.Errorf("%w: weights sum to %v, want 1", ErrInvalidKernel, sum)
	}
	return nil
}

// Samples is the minimal read-only view the predictor needs from an image,
// satisfied by *imgbuf.Image without importing it here (keeps predictor
// dependency-free and independently testable).
type Samples interface {
	At(x, y int) uint32
	InBounds(x, y int) bool
}

// Predict returns p(x,y) = floor(sum_{i,j} K[i,j] * I[x+i-r, y+j-r]), the
// floor-rounded convex combination of the neighborhood defined by spec.md
// §4.1. Floor (not round-to-nearest) is required so the inverse codec step
// can reconstruct the identical prediction from the already-modified image.
func Predict(k Kernel, s Samples, x, y int) (int64, error) {
	r := k.Half
	if x < r || y < r {
		return 0, fmt.Errorf("predictor: (%d,%d) too close to border for half-size %d", x, y, r)
	}
	acc := 0.0
	for i := 0; i < k.Size; i++ {
		for j := 0; j < k.Size; j++ {
			w := k.Weights[i][j]
			if w == 0 {
				continue
			}
			sx, sy := x+i-r, y+j-r
			if !s.InBounds(sx, sy) {
				return 0, fmt.Errorf("predictor: neighbor (%d,%d) out of bounds", sx, sy)
			}
			acc += w * float64(s.At(sx, sy))
		}
	}
	return int64(math.Floor(acc)), nil
}

// EligibleBounds returns the half-open range [r, w-r) x [r, h-r) of center
// coordinates for which a full kernel footprint fits inside the image.
func EligibleBounds(k Kernel, width, height int) (xMin, xMax, yMin, yMax int) {
	r := k.Half
	return r, width - r, r, height - r
}
