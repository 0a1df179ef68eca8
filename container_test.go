package gbam

import (
	"encoding/binary"
	"errors"
	"testing"
)

func makeAudioHeader(mode uint32, totalBody int) []byte {
	buf := make([]byte, HeaderSize+totalBody)
	copy(buf[0:4], "GBAL")
	binary.LittleEndian.PutUint32(buf[4:8], uint32(len(buf)))
	copy(buf[8:12], "MUSI")
	binary.LittleEndian.PutUint32(buf[0x10:0x14], mode)

	return buf
}

func TestParseAudioHeaderValid(t *testing.T) {
	data := makeAudioHeader(uint32(ModeStereoIMA4), 1024*3)

	h, err := ParseAudioHeader(data)
	if err != nil {
		t.Fatalf("ParseAudioHeader: unexpected error: %v", err)
	}
	if h.SampleRate() != 22050 || h.Channels() != 2 {
		t.Errorf("mode 0 geometry: got rate=%d channels=%d, want 22050/2", h.SampleRate(), h.Channels())
	}
	if h.TotalBlocks() != 3 {
		t.Errorf("TotalBlocks: got %d, want 3", h.TotalBlocks())
	}
}

func TestParseAudioHeaderBadMagic(t *testing.T) {
	data := makeAudioHeader(uint32(ModeStereoIMA4), 1024)
	data[0] = 'X'

	_, err := ParseAudioHeader(data)
	if !errors.Is(err, ErrBadMagic) {
		t.Errorf("got %v, want ErrBadMagic", err)
	}
}

func TestParseAudioHeaderUnsupportedMode(t *testing.T) {
	data := makeAudioHeader(99, 1024)

	_, err := ParseAudioHeader(data)
	if !errors.Is(err, ErrUnsupportedMode) {
		t.Errorf("got %v, want ErrUnsupportedMode", err)
	}
}

func TestParseAudioHeaderTooShort(t *testing.T) {
	_, err := ParseAudioHeader(make([]byte, 10))
	if !errors.Is(err, ErrShortContainer) {
		t.Errorf("got %v, want ErrShortContainer", err)
	}
}

func TestParseAudioHeaderZeroBlocks(t *testing.T) {
	data := makeAudioHeader(uint32(ModeStereoIMA4), 10)

	_, err := ParseAudioHeader(data)
	if !errors.Is(err, ErrShortContainer) {
		t.Errorf("got %v, want ErrShortContainer for zero whole blocks", err)
	}
}

func TestParseVideoHeaderValid(t *testing.T) {
	buf := make([]byte, HeaderSize)
	copy(buf[0:4], "GBAM")
	binary.LittleEndian.PutUint32(buf[4:8], uint32(len(buf)))
	binary.LittleEndian.PutUint32(buf[8:12], 7)
	binary.LittleEndian.PutUint16(buf[12:14], uint16(VersionGen1))

	h, err := ParseVideoHeader(buf)
	if err != nil {
		t.Fatalf("ParseVideoHeader: unexpected error: %v", err)
	}
	if h.FrameCount != 7 {
		t.Errorf("FrameCount: got %d, want 7", h.FrameCount)
	}
	if h.Key != VersionGen1 {
		t.Errorf("Key: got %#x, want %#x", uint16(h.Key), uint16(VersionGen1))
	}
}

func TestFrameHeaderFlagBytes(t *testing.T) {
	fh := frameHeader{obfuscated: uint16(VersionGen1) ^ 42}

	if got := fh.flagBytes(VersionGen1); got != 42 {
		t.Errorf("flagBytes: got %d, want 42", got)
	}
}

func TestFrameHeaderIsAborted(t *testing.T) {
	cases := []struct {
		frameLen int
		want     bool
	}{
		{0, true},
		{0xFFFF, true},
		{120, false},
	}

	for _, c := range cases {
		fh := frameHeader{frameLen: c.frameLen}
		if got := fh.isAborted(); got != c.want {
			t.Errorf("isAborted(frameLen=%d): got %v, want %v", c.frameLen, got, c.want)
		}
	}
}
