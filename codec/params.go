package codec

import (
	"fmt"

	"github.com/revwat/revwat/predictor"
)

// OverflowScheme names the side-channel scheme used to transport the
// overflow map, persisted into the ledger's removal_parameters so a reader
// knows how to interpret a watermarked image independent of this binary's
// source (spec.md §4.3: "any equivalent side-channel ... is conformant
// provided the ledger records which scheme is in use").
//
// This implementation transports O by running the same histogram-shift
// primitive used for the watermark itself over the complementary partition
// of the lattice (the mask==0 cells the watermark pass already leaves
// untouched), rather than by overwriting arbitrary pixels' least
// significant bits. A plain LSB overwrite is not actually invertible
// without separately preserving every carrier's displaced bits, which
// reintroduces the same problem one level down; reusing the proven
// reversible primitive sidesteps that, at the cost of requiring enough
// non-eligible lattice cells to carry the (small) overflow payload.
const OverflowScheme = "pe-shift-complement-v1"

// Params bundles the codec-configuration parameters threaded through every
// operation: kernel, stride, high threshold, and bit depth (spec.md §4.3).
type Params struct {
	Kernel   predictor.Kernel
	Stride   int
	THi      int64
	BitDepth int
}

// Validate checks the parameter bundle for internal consistency.
func (p Params) Validate() error {
	if p.Stride <= 0 {
		return fmt.Errorf("codec: stride must be positive, got %d", p.Stride)
	}
	if p.Stride < p.Kernel.Size {
		return fmt.Errorf("codec: stride %d must be >= kernel size %d for disjoint footprints", p.Stride, p.Kernel.Size)
	}
	if p.BitDepth <= 0 || p.BitDepth > 16 {
		return fmt.Errorf("codec: unsupported bit depth %d", p.BitDepth)
	}
	if p.THi < 0 {
		return fmt.Errorf("codec: t_hi must be >= 0, got %d", p.THi)
	}
	return nil
}

// maxSample returns 2^D - 1 for the configured bit depth.
func (p Params) maxSample() int64 {
	return (int64(1) << uint(p.BitDepth)) - 1
}

// Stats reports the outcome of an embed operation, per spec.md §4.3.
type Stats struct {
	EligibleBlocks int
	ModifiedBlocks int
	BitsEmbedded   int
	PSNR           float64
}
