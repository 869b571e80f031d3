package codec

import (
	"fmt"

	"github.com/revwat/revwat/imgbuf"
	"github.com/revwat/revwat/predictor"
	"github.com/revwat/revwat/watermark"
)

// Remove performs the full reversal of spec.md §4.3: unlike Extract, it
// requires the overflow map to be recoverable and returns the
// exactly-restored original image alongside the recovered watermark.
// Callers compare the recovered watermark against the one recorded at
// embed time (via VerifyWatermark) before trusting the restoration — the
// batch layer, which reads that watermark from the ledger, owns that
// comparison since spec.md's remove() signature
// carries no expected-watermark parameter of its own.
func Remove(img *imgbuf.Image, secretKey []byte, params Params) (*imgbuf.Image, watermark.W, error) {
	if err := params.Validate(); err != nil {
		return nil, watermark.W{}, err
	}

	lat, err := predictor.NewLattice(params.Kernel, params.Stride, img.Width, img.Height)
	if err != nil {
		return nil, watermark.W{}, err
	}
	mask, err := watermark.SelectionMask(secretKey, lat.Cols, lat.Rows)
	if err != nil {
		return nil, watermark.W{}, err
	}

	restored, overflow, err := restoreOverflowChannel(img, lat, mask, params)
	if err != nil {
		return nil, watermark.W{}, fmt.Errorf("codec: remove: %w", err)
	}
	skip := make(map[Coord]bool, len(overflow))
	for _, c := range overflow {
		skip[Coord{X: c.X, Y: c.Y}] = true
	}

	selected := func(col, row int) bool { return mask.At(col, row) == 1 }
	recoveredBits := inverseShiftCyclic(img, restored, lat, selected, params.Kernel, params.THi, watermark.Bits, skip)
	var fixed [watermark.Bits]byte
	copy(fixed[:], recoveredBits)

	return restored, watermark.FromBits(fixed), nil
}
