package imgbuf

import (
	"crypto/sha256"
	"encoding/binary"
)

// bytesPerSample returns ceil(D/8), the serialization width used by Hash.
func (img *Image) bytesPerSample() int {
	n := img.BitDepth / 8
	if img.BitDepth%8 != 0 {
		n++
	}
	return n
}

// Hash computes SHA-256 over the raw pixel array, serialized row-major as
// little-endian unsigned integers of ceil(D/8) bytes per sample, per
// spec.md §6's "Image hashing" rule. Container metadata never enters this
// hash — only the pixel array does.
func (img *Image) Hash() [32]byte {
	bps := img.bytesPerSample()
	buf := make([]byte, bps)
	h := sha256.New()
	for _, v := range img.Pix {
		switch bps {
		case 1:
			buf[0] = byte(v)
		case 2:
			binary.LittleEndian.PutUint16(buf, uint16(v))
		default:
			full := make([]byte, 4)
			binary.LittleEndian.PutUint32(full, v)
			copy(buf, full[:bps])
		}
		h.Write(buf)
	}
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}
