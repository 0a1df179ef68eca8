package gbam

import "encoding/binary"

// Bitstream is the MSB-first flag-bit reader of spec.md §4.4: the quadtree
// decoder pulls one or two bits at a time to pick a tile's operation, and
// the stream is backed by 32-bit words rather than individual bytes so a
// decoder running on word-oriented hardware never has to touch the byte
// lanes directly. bitsLeft doubles as the sentinel: when it reaches zero
// the current word is spent and the next refill reads a fresh one,
// zero-padding past the end of data so a malformed or truncated flag
// stream degrades to "fill with zeros" instead of panicking.
type Bitstream struct {
	data     []byte
	pos      int
	word     uint32
	bitsLeft int
}

// NewBitstream wraps data (already sliced to the flag-byte region of one
// frame, §4.4) for reading.
func NewBitstream(data []byte) *Bitstream {
	return &Bitstream{data: data}
}

func (b *Bitstream) reload() {
	var buf [4]byte
	n := copy(buf[:], b.data[b.pos:])
	b.pos += n
	b.word = binary.BigEndian.Uint32(buf[:])
	b.bitsLeft = 32
}

// NextBit returns the next flag bit, MSB-first.
func (b *Bitstream) NextBit() byte {
	if b.bitsLeft == 0 {
		b.reload()
	}

	bit := byte(b.word >> 31 & 1)
	b.word <<= 1
	b.bitsLeft--

	return bit
}

// NextTwoBits returns the next two flag bits packed as a 2-bit value,
// high bit first, for the quadtree decoder's 4-way operation codes
// (spec.md §4.5-§4.6).
func (b *Bitstream) NextTwoBits() byte {
	hi := b.NextBit()
	lo := b.NextBit()

	return hi<<1 | lo
}
