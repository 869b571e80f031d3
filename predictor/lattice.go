package predictor

import "fmt"

// Lattice describes the regular grid of block origins spec.md §3 defines:
// origins at (r + i*S, r + j*S) for a kernel half-size r and stride S. Two
// origins are guaranteed non-overlapping in kernel footprint when S >= K.
type Lattice struct {
	Kernel Kernel
	Stride int
	Cols   int // number of origins along x
	Rows   int // number of origins along y
}

// NewLattice computes the block lattice for an image of the given
// dimensions under kernel k and stride s.
func NewLattice(k Kernel, stride, width, height int) (Lattice, error) {
	if stride <= 0 {
		return Lattice{}, fmt.Errorf("predictor: stride must be positive, got %d", stride)
	}
	r := k.Half
	usableW := width - 2*r
	usableH := height - 2*r
	if usableW <= 0 || usableH <= 0 {
		return Lattice{Kernel: k, Stride: stride, Cols: 0, Rows: 0}, nil
	}
	cols := (usableW-1)/stride + 1
	rows := (usableH-1)/stride + 1
	return Lattice{Kernel: k, Stride: stride, Cols: cols, Rows: rows}, nil
}

// Origin returns the pixel coordinate of lattice cell (col, row).
func (l Lattice) Origin(col, row int) (x, y int) {
	r := l.Kernel.Half
	return r + col*l.Stride, r + row*l.Stride
}

// Cells returns the total number of lattice cells (block origins).
func (l Lattice) Cells() int {
	return l.Cols * l.Rows
}

// Index returns the row-major traversal index of cell (col, row), the
// fixed order spec.md §3/§4.3 requires for mask lookup and watermark bit
// consumption.
func (l Lattice) Index(col, row int) int {
	return row*l.Cols + col
}
