package gbam

import (
	"encoding/binary"
	"testing"
)

// buildMinimalVideoStream builds a GBAM container with the given number of
// otherwise-empty (all copy-same) frames, for exercising the I-frame table
// builder without needing full pixel payloads.
func buildMinimalVideoStream(key VersionKey, frameCount int) []byte {
	const numBlocks = gridCols * gridRows

	flagBytes := (numBlocks*2 + 7) / 8
	flagBits := make([]byte, flagBytes) // all zero -> every tile is opCopySame

	frameBody := make([]byte, 0, 6+flagBytes)
	frameBody = append(frameBody, 0, 0)
	obfBuf := make([]byte, 2)
	binary.LittleEndian.PutUint16(obfBuf, uint16(flagBytes)^uint16(key))
	frameBody = append(frameBody, obfBuf...)
	frameBody = append(frameBody, 0, 0) // paletteLen = 0
	frameBody = append(frameBody, flagBits...)
	binary.LittleEndian.PutUint16(frameBody[0:2], uint16(len(frameBody)))

	header := make([]byte, HeaderSize)
	copy(header[0:4], "GBAM")
	binary.LittleEndian.PutUint32(header[8:12], uint32(frameCount))
	binary.LittleEndian.PutUint16(header[12:14], uint16(key))

	out := append([]byte{}, header...)
	for i := 0; i < frameCount; i++ {
		out = append(out, frameBody...)
	}
	binary.LittleEndian.PutUint32(out[4:8], uint32(len(out)))

	return out
}

func TestBuildIFrameTableEveryMinuteBoundary(t *testing.T) {
	frameCount := FramesPerMinute*2 + 10
	data := buildMinimalVideoStream(VersionV130, frameCount)

	header, err := ParseVideoHeader(data)
	if err != nil {
		t.Fatalf("ParseVideoHeader: %v", err)
	}

	table := buildIFrameTable(data, header)
	if len(table) != 3 {
		t.Fatalf("iframe table length: got %d, want 3 (minute 0, 1, 2)", len(table))
	}
	if table[0] != HeaderSize {
		t.Errorf("table[0]: got %d, want %d", table[0], HeaderSize)
	}
	if table[1] <= table[0] || table[2] <= table[1] {
		t.Errorf("iframe table offsets not strictly increasing: %v", table)
	}
}

func TestPlayerResyncToMinuteWrapsOutOfRange(t *testing.T) {
	videoData := buildMinimalVideoStream(VersionV130, FramesPerMinute+5)
	audioData := buildMode2Audio(4)

	p, err := NewPlayer(audioData, videoData, &fakeSink{}, &fakeFrameSink{}, &fakeTicker{})
	if err != nil {
		t.Fatalf("NewPlayer: %v", err)
	}

	p.resyncToMinute(99)

	if p.video.frameIndex != 0 {
		t.Errorf("out-of-range resync: got frameIndex=%d, want 0", p.video.frameIndex)
	}
	if p.video.offset != HeaderSize {
		t.Errorf("out-of-range resync: got offset=%d, want %d", p.video.offset, HeaderSize)
	}
}

func TestPlayerOnTickAdvancesFrameEverySixthTick(t *testing.T) {
	videoData := buildMinimalVideoStream(VersionV130, 20)
	audioData := buildMode2Audio(4)

	sink := &fakeFrameSink{}
	p, err := NewPlayer(audioData, videoData, &fakeSink{}, sink, &fakeTicker{})
	if err != nil {
		t.Fatalf("NewPlayer: %v", err)
	}

	p.state = playerRunning

	for i := 0; i < TicksPerFrame-1; i++ {
		p.onTick()
	}
	if sink.presented != 0 {
		t.Fatalf("before sixth tick: got %d presented frames, want 0", sink.presented)
	}

	p.onTick()
	if sink.presented != 1 {
		t.Errorf("after sixth tick: got %d presented frames, want 1", sink.presented)
	}
}

type fakeFrameSink struct {
	presented int
}

func (s *fakeFrameSink) Present(frame *Frame) { s.presented++ }
