package codec

import "encoding/binary"

// Coord is a single overflow-excluded pixel coordinate (spec.md §3:
// "Overflow map O: an ordered sequence of pixel coordinates").
type Coord struct {
	X, Y int
}

// overflowHeaderBits is the fixed-width length prefix: a 32-bit big-endian
// count of coordinates, per spec.md §4.3's "preceded by a fixed-width
// length prefix."
const overflowHeaderBits = 32

// overflowPayloadBytes serializes O as a 32-bit big-endian count followed
// by 16-bit big-endian (x, y) pairs.
func overflowPayloadBytes(coords []Coord) []byte {
	buf := make([]byte, 4+4*len(coords))
	binary.BigEndian.PutUint32(buf[0:4], uint32(len(coords)))
	for i, c := range coords {
		off := 4 + i*4
		binary.BigEndian.PutUint16(buf[off:off+2], uint16(c.X))
		binary.BigEndian.PutUint16(buf[off+2:off+4], uint16(c.Y))
	}
	return buf
}

// bytesToBits unpacks a byte slice into one 0/1 value per bit, MSB-first,
// the representation forwardShiftSequential/inverseShiftSequential consume
// and produce.
func bytesToBits(data []byte) []byte {
	bits := make([]byte, len(data)*8)
	for i, b := range data {
		for bit := 0; bit < 8; bit++ {
			bits[i*8+bit] = (b >> uint(7-bit)) & 1
		}
	}
	return bits
}

func bitsToBytes(bits []byte) []byte {
	out := make([]byte, (len(bits)+7)/8)
	for i, bit := range bits {
		if bit != 0 {
			out[i/8] |= 1 << uint(7-(i%8))
		}
	}
	return out
}

func coordCountFromHeader(headerBits []byte) int {
	header := bitsToBytes(headerBits)
	return int(binary.BigEndian.Uint32(header))
}

func parseOverflowPayload(bits []byte) []Coord {
	payload := bitsToBytes(bits)
	n := int(binary.BigEndian.Uint32(payload[0:4]))
	coords := make([]Coord, n)
	for i := range coords {
		off := 4 + i*4
		coords[i] = Coord{
			X: int(binary.BigEndian.Uint16(payload[off : off+2])),
			Y: int(binary.BigEndian.Uint16(payload[off+2 : off+4])),
		}
	}
	return coords
}
