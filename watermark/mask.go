package watermark

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"
)

// Mask is a binary grid over a block lattice. A cell is eligible for
// watermarking iff Bits[index] == 1 (spec.md §3: "selection mask").
type Mask struct {
	Cols, Rows int
	Bits       []byte // row-major, one byte (0 or 1) per cell
}

// At reports the mask bit for lattice cell (col, row).
func (m Mask) At(col, row int) byte {
	return m.Bits[row*m.Cols+col]
}

// domainSelection separates the selection mask's keystream from any other
// AES-CTR-derived material under the same secret key (SPEC_FULL.md §3).
const domainSelection = "select"

// deriveMask runs AES-128 in CTR mode keyed by SHA-256(secretKey||domain)[:16]
// with a zero IV, and takes one bit per cell from the keystream in row-major
// order. This is the reference reproducible generator documented in
// SPEC_FULL.md §3: any generator yielding the same bit sequence for the same
// key is conformant (spec.md §4.2); this implementation fixes one so that
// identical keys reproduce identical masks across platforms and across the
// embed/extract/remove operations within this program.
func deriveMask(secretKey []byte, domain string, cols, rows int) (Mask, error) {
	n := cols * rows
	key := keystreamKey(secretKey, domain)
	block, err := aes.NewCipher(key)
	if err != nil {
		return Mask{}, fmt.Errorf("watermark: mask cipher: %w", err)
	}
	iv := make([]byte, aes.BlockSize) // zero IV: deterministic by design, keyed per (secretKey, domain)
	stream := cipher.NewCTR(block, iv)

	keystream := make([]byte, n)
	stream.XORKeyStream(keystream, keystream) // keystream XOR 0 = keystream

	bits := make([]byte, n)
	for i, kb := range keystream {
		bits[i] = kb & 1
	}
	return Mask{Cols: cols, Rows: rows, Bits: bits}, nil
}

// SelectionMask derives the watermarking-eligibility mask from the secret
// key alone, per spec.md §4.2. Cells the mask excludes (bit 0) are exactly
// the partition the codec uses to transport the overflow map (see
// codec.OverflowScheme) — the two channels share this one mask rather than
// needing a second keyed generator.
func SelectionMask(secretKey []byte, cols, rows int) (Mask, error) {
	return deriveMask(secretKey, domainSelection, cols, rows)
}

func keystreamKey(secretKey []byte, domain string) []byte {
	return sha256Sum16(append(append([]byte{}, secretKey...), []byte(domain)...))
}
