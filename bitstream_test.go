package gbam

import "testing"

func TestBitstreamReadsMSBFirst(t *testing.T) {
	// 0xB2 = 1011 0010
	bs := NewBitstream([]byte{0xB2, 0x00, 0x00, 0x00})

	want := []byte{1, 0, 1, 1, 0, 0, 1, 0}
	for i, w := range want {
		if got := bs.NextBit(); got != w {
			t.Errorf("bit %d: got %d, want %d", i, got, w)
		}
	}
}

func TestBitstreamNextTwoBits(t *testing.T) {
	// 0xC0 = 1100 0000 -> first two-bit group is 11
	bs := NewBitstream([]byte{0xC0, 0x00, 0x00, 0x00})

	if got := bs.NextTwoBits(); got != 0b11 {
		t.Errorf("first two bits: got %02b, want 11", got)
	}
	if got := bs.NextTwoBits(); got != 0b00 {
		t.Errorf("second two bits: got %02b, want 00", got)
	}
}

func TestBitstreamRefillsAcrossWordBoundary(t *testing.T) {
	data := []byte{0x00, 0x00, 0x00, 0x01, 0x80, 0x00, 0x00, 0x00}
	bs := NewBitstream(data)

	for i := 0; i < 31; i++ {
		bs.NextBit()
	}

	if got := bs.NextBit(); got != 1 {
		t.Errorf("bit 31 (last of first word): got %d, want 1", got)
	}
	if got := bs.NextBit(); got != 1 {
		t.Errorf("bit 32 (first of second word, after refill): got %d, want 1", got)
	}
}

func TestBitstreamPadsPastEndOfData(t *testing.T) {
	bs := NewBitstream([]byte{0xFF})

	for i := 0; i < 8; i++ {
		if got := bs.NextBit(); got != 1 {
			t.Errorf("bit %d: got %d, want 1", i, got)
		}
	}
	// past the single real byte, the word is zero-padded
	for i := 8; i < 32; i++ {
		if got := bs.NextBit(); got != 0 {
			t.Errorf("padding bit %d: got %d, want 0", i, got)
		}
	}
}
