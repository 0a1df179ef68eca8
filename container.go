package gbam

import (
	"encoding/binary"
	"fmt"
)

const (
	// HeaderSize is the fixed header size shared by both the audio and the
	// video container.
	HeaderSize = 512

	audioMagic  = "GBAL"
	audioMarker = "MUSI"

	videoMagic = "GBAM"
)

// VersionKey selects the XOR constant used to recover a video frame's
// flag_bytes count from its obfuscated header word (§3, §6).
type VersionKey uint16

// Known container versions.
const (
	VersionGen1 VersionKey = 0xD669
	VersionGen3 VersionKey = 0xD6AC
	VersionV130 VersionKey = 0x0000
)

// AudioMode identifies one of the five ADPCM wire formats (§3).
type AudioMode uint32

// Supported audio modes.
const (
	ModeStereoIMA4 AudioMode = iota
	ModeMono3Bit
	ModeMonoIMA4
	ModeMono2Bit
	ModeMono2BitSmall
)

// audioModeInfo is the per-mode table from spec.md §3.
type audioModeInfo struct {
	sampleRate int
	channels   int
	blockSize  int
	headerSize int
}

var audioModeTable = [5]audioModeInfo{
	ModeStereoIMA4:    {sampleRate: 22050, channels: 2, blockSize: 1024, headerSize: 8},
	ModeMono3Bit:      {sampleRate: 11025, channels: 1, blockSize: 1024, headerSize: 4},
	ModeMonoIMA4:      {sampleRate: 22050, channels: 1, blockSize: 512, headerSize: 4},
	ModeMono2Bit:      {sampleRate: 22050, channels: 1, blockSize: 512, headerSize: 4},
	ModeMono2BitSmall: {sampleRate: 11025, channels: 1, blockSize: 256, headerSize: 4},
}

// AudioHeader is the decoded fixed 512-byte audio container header.
type AudioHeader struct {
	FileSize int
	Mode     AudioMode

	sampleRate  int
	channels    int
	blockSize   int
	headerSize  int
	totalBlocks int
}

// ParseAudioHeader validates the magic/marker and mode selector of an audio
// container and computes the mode-dependent block geometry. data must be at
// least HeaderSize bytes; anything past the first block header is read
// separately by the block engine.
func ParseAudioHeader(data []byte) (AudioHeader, error) {
	if len(data) < HeaderSize {
		return AudioHeader{}, fmt.Errorf("%w: %d bytes", ErrShortContainer, len(data))
	}

	if string(data[0:4]) != audioMagic || string(data[8:12]) != audioMarker {
		return AudioHeader{}, ErrBadMagic
	}

	fileSize := binary.LittleEndian.Uint32(data[4:8])
	mode := binary.LittleEndian.Uint32(data[0x10:0x14])
	if mode > uint32(ModeMono2BitSmall) {
		return AudioHeader{}, fmt.Errorf("%w: mode %d", ErrUnsupportedMode, mode)
	}

	info := audioModeTable[mode]
	body := len(data) - HeaderSize
	totalBlocks := body / info.blockSize
	if totalBlocks == 0 {
		return AudioHeader{}, ErrShortContainer
	}

	return AudioHeader{
		FileSize:    int(fileSize),
		Mode:        AudioMode(mode),
		sampleRate:  info.sampleRate,
		channels:    info.channels,
		blockSize:   info.blockSize,
		headerSize:  info.headerSize,
		totalBlocks: totalBlocks,
	}, nil
}

// SampleRate returns the PCM sample rate in Hz for this container's mode.
func (h AudioHeader) SampleRate() int { return h.sampleRate }

// Channels returns the channel count (1 or 2) for this container's mode.
func (h AudioHeader) Channels() int { return h.channels }

// BlockSize returns the fixed on-disk size of one block, in bytes.
func (h AudioHeader) BlockSize() int { return h.blockSize }

// BlockHeaderSize returns the size, in bytes, of the per-block reseed header.
func (h AudioHeader) BlockHeaderSize() int { return h.headerSize }

// TotalBlocks returns the number of whole blocks following the 512-byte
// header.
func (h AudioHeader) TotalBlocks() int { return h.totalBlocks }

// VideoHeader is the decoded fixed 512-byte video container header.
type VideoHeader struct {
	FileSize   int
	FrameCount int
	Key        VersionKey
}

// ParseVideoHeader validates the magic of a video container and reads its
// frame count and obfuscation key. data must be at least HeaderSize bytes;
// frame bodies immediately follow, back to back, starting at HeaderSize.
func ParseVideoHeader(data []byte) (VideoHeader, error) {
	if len(data) < HeaderSize {
		return VideoHeader{}, fmt.Errorf("%w: %d bytes", ErrShortContainer, len(data))
	}

	if string(data[0:4]) != videoMagic {
		return VideoHeader{}, ErrBadMagic
	}

	fileSize := binary.LittleEndian.Uint32(data[4:8])
	frameCount := binary.LittleEndian.Uint32(data[8:12])
	key := binary.LittleEndian.Uint16(data[12:14])

	return VideoHeader{
		FileSize:   int(fileSize),
		FrameCount: int(frameCount),
		Key:        VersionKey(key),
	}, nil
}

// frameHeader is the 6-byte header preceding every video frame body (§3, §6).
type frameHeader struct {
	frameLen   int
	obfuscated uint16
	paletteLen int
}

func readFrameHeader(data []byte, offset int) (frameHeader, bool) {
	if offset+6 > len(data) {
		return frameHeader{}, false
	}

	return frameHeader{
		frameLen:   int(binary.LittleEndian.Uint16(data[offset : offset+2])),
		obfuscated: binary.LittleEndian.Uint16(data[offset+2 : offset+4]),
		paletteLen: int(binary.LittleEndian.Uint16(data[offset+4 : offset+6])),
	}, true
}

// flagBytes recovers the flag-stream length from the obfuscated header word
// using the container's version key (§3).
func (f frameHeader) flagBytes(key VersionKey) int {
	return int(f.obfuscated ^ uint16(key))
}

// isAborted reports whether this frame header signals end-of-stream (§7).
func (f frameHeader) isAborted() bool {
	return f.frameLen == 0 || f.frameLen == 0xFFFF
}
