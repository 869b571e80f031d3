package codec

import (
	"fmt"

	"github.com/revwat/revwat/imgbuf"
	"github.com/revwat/revwat/predictor"
	"github.com/revwat/revwat/stats"
	"github.com/revwat/revwat/watermark"
)

// Embed performs the forward reversible-embedding pass of spec.md §4.3. It
// clones the input (images are immutable inputs, per spec.md §3's
// lifecycle rule), derives W and the selection mask, walks the eligible
// partition of the block lattice applying the histogram-shift rule, and
// then transports the resulting overflow map O through the complementary
// partition using the same reversible primitive (see OverflowScheme).
func Embed(img *imgbuf.Image, secretKey []byte, message string, params Params) (*imgbuf.Image, watermark.W, []Coord, Stats, error) {
	var zero Stats
	if err := params.Validate(); err != nil {
		return nil, watermark.W{}, nil, zero, err
	}

	lat, err := predictor.NewLattice(params.Kernel, params.Stride, img.Width, img.Height)
	if err != nil {
		return nil, watermark.W{}, nil, zero, err
	}
	mask, err := watermark.SelectionMask(secretKey, lat.Cols, lat.Rows)
	if err != nil {
		return nil, watermark.W{}, nil, zero, err
	}
	w := watermark.Derive(message, secretKey)

	eligible := countEligible(mask, lat, 1)
	if eligible == 0 {
		return nil, watermark.W{}, nil, zero, fmt.Errorf("codec: %w: no eligible blocks", ErrInsufficientCapacity)
	}

	out := img.Clone()
	maxSample := params.maxSample()

	selected := func(col, row int) bool { return mask.At(col, row) == 1 }
	res, err := forwardShiftCyclic(out, lat, selected, params.Kernel, params.THi, maxSample, w)
	if err != nil {
		return nil, watermark.W{}, nil, zero, err
	}

	bitsEmbedded := res.Modified
	if bitsEmbedded > watermark.Bits {
		bitsEmbedded = watermark.Bits
	}
	if bitsEmbedded == 0 {
		return nil, watermark.W{}, nil, zero, fmt.Errorf("codec: %w: no eligible block could be modified", ErrInsufficientCapacity)
	}

	if err := transportOverflow(out, lat, mask, params, res.Overflow); err != nil {
		return nil, watermark.W{}, nil, zero, err
	}

	psnr := stats.PSNR(img, out)
	return out, w, res.Overflow, Stats{
		EligibleBlocks: eligible,
		ModifiedBlocks: res.Modified,
		BitsEmbedded:   bitsEmbedded,
		PSNR:           psnr,
	}, nil
}

// transportOverflow embeds O into the non-eligible (mask==0) partition of
// the same lattice, using the exact same reversible histogram-shift rule
// as the watermark channel itself, so the same reversibility proof covers
// both channels.
func transportOverflow(out *imgbuf.Image, lat predictor.Lattice, mask watermark.Mask, params Params, overflow []Coord) error {
	payload := bytesToBits(overflowPayloadBytes(overflow))
	complement := func(col, row int) bool { return mask.At(col, row) == 0 }

	_, err := forwardShiftSequential(out, lat, complement, params.Kernel, params.THi, params.maxSample(), cycleBits(payload), len(payload))
	if err != nil {
		return fmt.Errorf("codec: %w: %d overflow coords need more non-eligible lattice capacity than this image has",
			ErrOverflowMapUnrecoverable, len(overflow))
	}
	return nil
}

func countEligible(mask watermark.Mask, lat predictor.Lattice, want byte) int {
	n := 0
	for row := 0; row < lat.Rows; row++ {
		for col := 0; col < lat.Cols; col++ {
			if mask.At(col, row) == want {
				n++
			}
		}
	}
	return n
}
