package codec

import (
	"errors"

	"github.com/revwat/revwat/predictor"
)

// Sentinel errors for the reversible codec, per spec.md §4.3/§7. Wrapped
// with context via fmt.Errorf("...: %w", err), the same idiom
// zanicar-stegano uses for stegano.ErrCapacityMax/ErrCapacityOverflow.
var (
	// ErrInvalidKernel is returned when the kernel is not convex or has the
	// wrong shape. Re-exported here so callers need only import codec.
	ErrInvalidKernel = predictor.ErrInvalidKernel

	// ErrInsufficientCapacity is returned when too few lattice cells are
	// eligible (or embeddable after overflow exclusion) to carry any bits.
	ErrInsufficientCapacity = errors.New("insufficient embedding capacity")

	// ErrOverflowMapUnrecoverable is returned when the mask==0 partition of
	// the lattice has too few cells to carry the overflow payload.
	ErrOverflowMapUnrecoverable = errors.New("overflow map unrecoverable")

	// ErrWatermarkMismatch is returned when a recovered watermark does not
	// match the one expected for a removal.
	ErrWatermarkMismatch = errors.New("watermark mismatch")

	// ErrImageShapeMismatch names the case of two images that should share
	// dimensions and bit depth but do not. No function in this package
	// returns it.
	ErrImageShapeMismatch = errors.New("image shape mismatch")

	// errShiftCapacity is the internal signal that a sequential
	// histogram-shift pass ran out of eligible cells before it drew
	// enough bits; callers translate it into ErrOverflowMapUnrecoverable
	// with image-specific context.
	errShiftCapacity = errors.New("sequential shift: insufficient informative cells")
)
