package codec

import (
	"fmt"

	"github.com/revwat/revwat/imgbuf"
	"github.com/revwat/revwat/predictor"
	"github.com/revwat/revwat/watermark"
)

// Extract recovers the watermark from an already-watermarked image without
// requiring the original (spec.md §4.3). It also returns a best-effort
// restored preview image when the overflow map can be read back; callers
// that need a guaranteed-exact restoration should use Remove instead.
func Extract(img *imgbuf.Image, secretKey []byte, params Params, expectedBits int) (watermark.W, *imgbuf.Image, error) {
	if expectedBits <= 0 || expectedBits > watermark.Bits {
		expectedBits = watermark.Bits
	}
	if err := params.Validate(); err != nil {
		return watermark.W{}, nil, err
	}

	lat, err := predictor.NewLattice(params.Kernel, params.Stride, img.Width, img.Height)
	if err != nil {
		return watermark.W{}, nil, err
	}
	mask, err := watermark.SelectionMask(secretKey, lat.Cols, lat.Rows)
	if err != nil {
		return watermark.W{}, nil, err
	}

	restored, overflow, ovErr := restoreOverflowChannel(img, lat, mask, params)
	restorable := ovErr == nil

	var skip map[Coord]bool
	var base *imgbuf.Image
	if restorable {
		skip = make(map[Coord]bool, len(overflow))
		for _, c := range overflow {
			skip[Coord{X: c.X, Y: c.Y}] = true
		}
		base = restored
	} else {
		// No coordinates recoverable: treat every eligible cell as
		// candidate and let the inverse rule's own bounds checking skip
		// anything inconsistent. Best-effort only, per this function's
		// contract.
		base = img.Clone()
	}

	selected := func(col, row int) bool { return mask.At(col, row) == 1 }
	recoveredBits := inverseShiftCyclic(img, base, lat, selected, params.Kernel, params.THi, watermark.Bits, skip)
	var fixed [watermark.Bits]byte
	copy(fixed[:], recoveredBits)
	w := watermark.FromBits(fixed)

	if !restorable {
		return w, nil, nil
	}
	return w, base, nil
}

// restoreOverflowChannel reads O back from the non-eligible partition of
// the lattice and returns a clone of img with that partition's histogram
// shifts undone. The watermark partition is left untouched here; callers
// finish the restoration with inverseShiftCyclic over mask==1 cells.
func restoreOverflowChannel(img *imgbuf.Image, lat predictor.Lattice, mask watermark.Mask, params Params) (*imgbuf.Image, []Coord, error) {
	complement := func(col, row int) bool { return mask.At(col, row) == 0 }
	restored := img.Clone()

	header := inverseShiftSequential(img, restored, lat, complement, params.Kernel, params.THi, overflowHeaderBits)
	if len(header) < overflowHeaderBits {
		return nil, nil, fmt.Errorf("codec: %w: image too small to carry overflow header", ErrOverflowMapUnrecoverable)
	}
	n := coordCountFromHeader(header)
	total := overflowHeaderBits + n*32

	full := inverseShiftSequential(img, restored, lat, complement, params.Kernel, params.THi, total)
	if len(full) < total {
		return nil, nil, fmt.Errorf("codec: %w: declared %d coords exceeds non-eligible lattice capacity", ErrOverflowMapUnrecoverable, n)
	}
	return restored, parseOverflowPayload(full), nil
}

// VerifyWatermark compares a recovered watermark against the one expected
// for a removal, per spec.md §4.3's "If W' ≠ W the operation fails with
// WatermarkMismatch."
func VerifyWatermark(expected, recovered watermark.W) error {
	if !expected.Equal(recovered) {
		return fmt.Errorf("codec: %w: expected %s, got %s", ErrWatermarkMismatch, expected.Hex, recovered.Hex)
	}
	return nil
}
