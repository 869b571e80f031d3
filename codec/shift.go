package codec

import (
	"github.com/revwat/revwat/imgbuf"
	"github.com/revwat/revwat/predictor"
)

// bitSource supplies the next bit for position i. watermark.W satisfies
// this directly (cycling modulo 256); cycleBits below backs the
// overflow-payload channel, whose natural length is whatever the payload
// serializes to.
type bitSource interface {
	Bit(i int) byte
}

// cycleBits is a bitSource over an arbitrary fixed-length bit string,
// cycling modulo its length the same way watermark.W cycles modulo 256.
type cycleBits []byte

func (c cycleBits) Bit(i int) byte {
	return c[i%len(c)]
}

// cellPredicate reports whether lattice cell (col, row) belongs to a
// channel's partition of the lattice. The watermark channel and the
// overflow-payload channel partition the lattice by the same selection
// mask (mask==1 and mask==0 respectively), so they never collide and
// share one predictor without extra bookkeeping.
type cellPredicate func(col, row int) bool

// shiftResult is the outcome of running a forward histogram-shift pass
// over one channel's partition of the lattice.
type shiftResult struct {
	Modified int
	Overflow []Coord
}

// forwardShiftCyclic runs spec.md §4.3's forward rule for the watermark
// channel: a bit is drawn from src for every eligible cell whose error
// clears the low bound, regardless of which branch it ultimately takes,
// and the draw index (therefore the bit position) advances on every
// successful modification. This matches spec.md's bits_embedded
// accounting, which is defined in terms of modified_blocks rather than in
// terms of which branch fired.
func forwardShiftCyclic(img *imgbuf.Image, lat predictor.Lattice, eligible cellPredicate, k predictor.Kernel, thi, maxSample int64, src bitSource) (shiftResult, error) {
	var res shiftResult
	consumed := 0
	for row := 0; row < lat.Rows; row++ {
		for col := 0; col < lat.Cols; col++ {
			if !eligible(col, row) {
				continue
			}
			x, y := lat.Origin(col, row)
			p, err := predictor.Predict(k, img, x, y)
			if err != nil {
				return res, err
			}
			orig := int64(img.At(x, y))
			e := orig - p
			if e < 0 || e < thi {
				continue
			}

			b := int64(src.Bit(consumed))
			var ePrime int64
			if e > thi {
				ePrime = e + 1
			} else {
				ePrime = e + b
			}
			newVal := p + ePrime
			nearSaturation := orig >= maxSample-1
			if newVal < 0 || newVal > maxSample || nearSaturation {
				res.Overflow = append(res.Overflow, Coord{X: x, Y: y})
				continue
			}

			img.Set(x, y, uint32(newVal))
			res.Modified++
			consumed++
		}
	}
	return res, nil
}

// inverseShiftCyclic undoes forwardShiftCyclic, recovering a fixed-size
// cyclic bit array: recovered[i] holds the bit last observed at draw
// position i mod modulus, left 0 if that position never landed on the
// informative threshold branch.
func inverseShiftCyclic(img, restored *imgbuf.Image, lat predictor.Lattice, eligible cellPredicate, k predictor.Kernel, thi int64, modulus int, skip map[Coord]bool) []byte {
	recovered := make([]byte, modulus)
	consumed := 0
	for row := 0; row < lat.Rows; row++ {
		for col := 0; col < lat.Cols; col++ {
			if !eligible(col, row) {
				continue
			}
			x, y := lat.Origin(col, row)
			if skip[Coord{X: x, Y: y}] {
				continue
			}
			p, err := predictor.Predict(k, img, x, y)
			if err != nil {
				continue
			}
			ePrime := int64(img.At(x, y)) - p
			if ePrime < thi {
				continue
			}

			switch {
			case ePrime == thi || ePrime == thi+1:
				bit := byte(ePrime - thi)
				recovered[consumed%modulus] = bit
				restored.Set(x, y, uint32(p+thi))
				consumed++
			default: // ePrime > t_hi+1: shift-only branch, no recoverable bit
				e := ePrime - 1
				restored.Set(x, y, uint32(p+e))
				consumed++
			}
		}
	}
	return recovered
}

// forwardShiftSequential embeds a finite, non-redundant bit string into the
// cells accepted by eligible. Unlike forwardShiftCyclic, only cells that
// land on the informative threshold branch draw and consume a bit from
// src; shift-only cells are still shifted (for a uniform, predictable
// transform) but never silently swallow a payload bit no cell actually
// encoded. Embedding stops once limit bits have been drawn.
func forwardShiftSequential(img *imgbuf.Image, lat predictor.Lattice, eligible cellPredicate, k predictor.Kernel, thi, maxSample int64, src bitSource, limit int) (shiftResult, error) {
	var res shiftResult
	drawn := 0
	for row := 0; row < lat.Rows && drawn < limit; row++ {
		for col := 0; col < lat.Cols; col++ {
			if drawn >= limit {
				break
			}
			if !eligible(col, row) {
				continue
			}
			x, y := lat.Origin(col, row)
			p, err := predictor.Predict(k, img, x, y)
			if err != nil {
				return res, err
			}
			orig := int64(img.At(x, y))
			e := orig - p
			if e < 0 || e < thi {
				continue
			}

			informative := e == thi
			var ePrime int64
			if !informative {
				ePrime = e + 1
			} else {
				ePrime = e + int64(src.Bit(drawn))
			}
			newVal := p + ePrime
			nearSaturation := orig >= maxSample-1
			if newVal < 0 || newVal > maxSample || nearSaturation {
				res.Overflow = append(res.Overflow, Coord{X: x, Y: y})
				continue
			}

			img.Set(x, y, uint32(newVal))
			res.Modified++
			if informative {
				drawn++
			}
		}
	}
	if drawn < limit {
		return res, errShiftCapacity
	}
	return res, nil
}

// inverseShiftSequential undoes forwardShiftSequential, reading back up to
// limit informative bits in draw order (or all of them if limit <= 0).
func inverseShiftSequential(img, restored *imgbuf.Image, lat predictor.Lattice, eligible cellPredicate, k predictor.Kernel, thi int64, limit int) []byte {
	var recovered []byte
	for row := 0; row < lat.Rows; row++ {
		for col := 0; col < lat.Cols; col++ {
			if limit > 0 && len(recovered) >= limit {
				return recovered
			}
			if !eligible(col, row) {
				continue
			}
			x, y := lat.Origin(col, row)
			p, err := predictor.Predict(k, img, x, y)
			if err != nil {
				continue
			}
			ePrime := int64(img.At(x, y)) - p
			if ePrime < thi {
				continue
			}

			switch {
			case ePrime == thi || ePrime == thi+1:
				recovered = append(recovered, byte(ePrime-thi))
				restored.Set(x, y, uint32(p+thi))
			default:
				e := ePrime - 1
				restored.Set(x, y, uint32(p+e))
			}
		}
	}
	return recovered
}
