// Package imgbuf provides a bounds-checked, bit-depth aware pixel grid used
// by the predictor and reversible codec. It is the Image Buffer component:
// a thin, deep-copyable layer over a flat sample slice so the codec never
// touches Go's image.Image directly.
package imgbuf

import "fmt"

// Image is a two-dimensional grid of unsigned integer samples with a fixed
// bit depth. Samples are stored row-major in Pix; Pix[y*Width+x] is the
// sample at (x, y).
type Image struct {
	Width    int
	Height   int
	BitDepth int // D; samples lie in [0, 2^D - 1]
	Pix      []uint32
}

// New allocates a zeroed image of the given dimensions and bit depth.
func New(width, height, bitDepth int) (*Image, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("imgbuf: invalid dimensions %dx%d", width, height)
	}
	if bitDepth <= 0 || bitDepth > 32 {
		return nil, fmt.Errorf("imgbuf: invalid bit depth %d", bitDepth)
	}
	return &Image{
		Width:    width,
		Height:   height,
		BitDepth: bitDepth,
		Pix:      make([]uint32, width*height),
	}, nil
}

// MaxSample returns 2^D - 1, the largest representable sample value.
func (img *Image) MaxSample() uint32 {
	return (uint32(1) << uint(img.BitDepth)) - 1
}

// InBounds reports whether (x, y) is a valid coordinate.
func (img *Image) InBounds(x, y int) bool {
	return x >= 0 && x < img.Width && y >= 0 && y < img.Height
}

// At returns the sample at (x, y). It panics on out-of-bounds access, the
// same contract Go's own image.Image implementations use internally for
// their index arithmetic (callers are expected to bounds-check via
// InBounds first when the coordinate is not already known-good).
func (img *Image) At(x, y int) uint32 {
	if !img.InBounds(x, y) {
		panic(fmt.Sprintf("imgbuf: (%d,%d) out of bounds %dx%d", x, y, img.Width, img.Height))
	}
	return img.Pix[y*img.Width+x]
}

// Set assigns the sample at (x, y), clamped to never exceed MaxSample.
func (img *Image) Set(x, y int, v uint32) {
	if !img.InBounds(x, y) {
		panic(fmt.Sprintf("imgbuf: (%d,%d) out of bounds %dx%d", x, y, img.Width, img.Height))
	}
	if max := img.MaxSample(); v > max {
		v = max
	}
	img.Pix[y*img.Width+x] = v
}

// Clone returns a deep copy. The codec never mutates its input image; every
// operation clones first, preserving spec.md's "Images are immutable
// inputs" lifecycle rule.
func (img *Image) Clone() *Image {
	out := &Image{
		Width:    img.Width,
		Height:   img.Height,
		BitDepth: img.BitDepth,
		Pix:      make([]uint32, len(img.Pix)),
	}
	copy(out.Pix, img.Pix)
	return out
}

// Equal reports whether two images have identical dimensions, bit depth,
// and sample values.
func (img *Image) Equal(other *Image) bool {
	if img.Width != other.Width || img.Height != other.Height || img.BitDepth != other.BitDepth {
		return false
	}
	for i, v := range img.Pix {
		if other.Pix[i] != v {
			return false
		}
	}
	return true
}

// SameShape reports whether two images share width, height, and bit depth,
// the precondition stats.PSNR checks before comparing two images.
func (img *Image) SameShape(other *Image) bool {
	return img.Width == other.Width && img.Height == other.Height && img.BitDepth == other.BitDepth
}
