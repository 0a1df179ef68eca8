package gbam

import (
	"encoding/binary"
	"sync"
	"time"
)

// BufferSamples is the default double-buffer swap granularity N: samples
// per channel held in each of the two PCM buffers. It must be a multiple
// of 8 so mode 1's 8-sample decode unit never straddles a swap (spec.md
// §3), and is sized for roughly a 21Hz swap rate at 22050Hz per spec.md's
// worked example.
const BufferSamples = 1024

type audioState int

const (
	audioUninitialized audioState = iota
	audioReady
	audioPlaying
	audioPaused
	audioFinished
)

// AudioInfo summarizes a parsed audio container, for UI/progress display.
type AudioInfo struct {
	Mode         AudioMode
	SampleRate   int
	Channels     int
	TotalBlocks  int
	TotalSamples int
	TotalMinutes int
}

// pcmBuffer is one of the two fixed-capacity double-buffer slots.
type pcmBuffer struct {
	Left  []int8
	Right []int8
}

// AudioEngine is the ADPCM audio decoder and double-buffered streaming
// core of spec.md §4.2-§4.3. It owns one container's worth of decoder
// state; the public methods are its foreground API (spec.md §6), while
// OnBufferConsumed is invoked from the tick context (spec.md §5).
type AudioEngine struct {
	state audioState

	data   []byte
	header AudioHeader
	info   AudioInfo

	left  ChannelState
	right ChannelState

	blockIndex  int
	byteInBlock int

	// monoQueue buffers decoded-but-not-yet-emitted samples for modes
	// that pack more than one sample per input byte/group (modes 1, 2,
	// 3, 4). It is always empty for mode 0.
	monoQueue []int8

	bufA, bufB       pcmBuffer
	n                int
	activeBuffer     int
	samplesDecoded   int
	nextMinuteSample int
	currentMinute    int

	syncMu     sync.Mutex
	syncSet    bool
	syncMinute int

	sink   SampleSink
	ticker Ticker
	handle TickerHandle
}

// NewAudioEngine constructs an idle engine with the default double-buffer
// granularity. Call Init to load a container.
func NewAudioEngine() *AudioEngine {
	return &AudioEngine{n: BufferSamples}
}

// Init parses data as an audio container (spec.md §3, §6) and prepares the
// engine to play. It does not start playback. Returns false (leaving the
// engine Uninitialized) on any container error.
func (e *AudioEngine) Init(data []byte, sink SampleSink, ticker Ticker) bool {
	header, err := ParseAudioHeader(data)
	if err != nil {
		e.state = audioUninitialized

		return false
	}

	e.data = data
	e.header = header
	e.sink = sink
	e.ticker = ticker

	samplesPerBlock := monoSamplesPerBlock(header)
	e.info = AudioInfo{
		Mode:         header.Mode,
		SampleRate:   header.sampleRate,
		Channels:     header.channels,
		TotalBlocks:  header.totalBlocks,
		TotalSamples: header.totalBlocks * samplesPerBlock,
		TotalMinutes: (header.totalBlocks * samplesPerBlock) / (header.sampleRate * 60),
	}

	e.bufA = pcmBuffer{Left: make([]int8, e.n)}
	e.bufB = pcmBuffer{Left: make([]int8, e.n)}
	if header.channels == 2 {
		e.bufA.Right = make([]int8, e.n)
		e.bufB.Right = make([]int8, e.n)
	}

	e.resetCursor()
	e.state = audioReady

	return true
}

// Info returns the parsed container summary.
func (e *AudioEngine) Info() AudioInfo { return e.info }

// IsPlaying reports whether playback is under way: it is true in the
// Playing state and stays true while Paused; IsPaused tells the two apart.
func (e *AudioEngine) IsPlaying() bool { return e.state == audioPlaying || e.state == audioPaused }

// IsPaused reports whether the engine is in the Paused state.
func (e *AudioEngine) IsPaused() bool { return e.state == audioPaused }

// IsFinished reports whether the stream has played to its end.
func (e *AudioEngine) IsFinished() bool { return e.state == audioFinished }

// CurrentMinute returns the minute index of the most recently crossed
// minute boundary.
func (e *AudioEngine) CurrentMinute() int { return e.currentMinute }

// TotalMinutes returns the container's duration in whole minutes.
func (e *AudioEngine) TotalMinutes() int { return e.info.TotalMinutes }

// ProgressPercent returns playback progress in [0, 100].
func (e *AudioEngine) ProgressPercent() float64 {
	if e.info.TotalSamples == 0 {
		return 0
	}

	return 100 * float64(e.samplesDecoded) / float64(e.info.TotalSamples)
}

// CheckMinuteSync is the read-and-clear accessor for sync_minute
// (spec.md §3, §5, property 6): it returns the most recently crossed
// minute exactly once, and (0, false) thereafter until another minute
// passes.
func (e *AudioEngine) CheckMinuteSync() (int, bool) {
	e.syncMu.Lock()
	defer e.syncMu.Unlock()

	if !e.syncSet {
		return 0, false
	}

	e.syncSet = false

	return e.syncMinute, true
}

func (e *AudioEngine) setSyncMinute(minute int) {
	e.syncMu.Lock()
	e.syncMinute = minute
	e.syncSet = true
	e.syncMu.Unlock()
}

// Start begins playback: preloads both buffers and hands the active one
// to the sink.
func (e *AudioEngine) Start() {
	if e.state != audioReady {
		return
	}

	e.refill(&e.bufA)
	e.refill(&e.bufB)
	e.activeBuffer = 0

	e.state = audioPlaying
	e.handle = e.ticker.Register(bufferPeriod(e.header), e.onBufferTick)
	e.handle.Start()

	e.submitActive()
}

// Stop halts playback and returns the engine to Ready without resetting
// the decode cursor.
func (e *AudioEngine) Stop() {
	if e.state != audioPlaying && e.state != audioPaused {
		return
	}

	if e.handle != nil {
		e.handle.Stop()
	}

	e.state = audioReady
}

// Pause stops the ticker without mutating buffers or decoder state
// (spec.md §4.3). is_playing remains true across the pause/resume cycle
// per spec.md's state machine note; callers should use IsPaused to detect
// the pause.
func (e *AudioEngine) Pause() {
	if e.state != audioPlaying {
		return
	}

	if e.handle != nil {
		e.handle.Stop()
	}

	e.state = audioPaused
}

// Resume restarts the ticker and re-enables the sink with the same active
// buffer.
func (e *AudioEngine) Resume() {
	if e.state != audioPaused {
		return
	}

	e.state = audioPlaying
	if e.handle != nil {
		e.handle.Start()
	}
}

// Restart stops, resets cursors and samples_decoded to 0, clears
// sync_minute and re-parses the first block header (spec.md §4.3). If
// the engine was Playing, Paused or Finished it then re-preloads both
// buffers and starts; from Ready it stays Ready.
func (e *AudioEngine) Restart() {
	wasPlaying := e.state == audioPlaying || e.state == audioPaused || e.state == audioFinished
	if e.handle != nil {
		e.handle.Stop()
	}

	e.resetCursor()
	e.state = audioReady

	if wasPlaying {
		e.Start()
	}
}

// SeekMinute seeks to the start of minute m (spec.md §4.3, properties 7-8).
// m == 0 is equivalent to Restart. m >= TotalMinutes wraps to minute 0.
func (e *AudioEngine) SeekMinute(m int) {
	if m <= 0 || m >= e.info.TotalMinutes {
		e.Restart()

		return
	}

	if e.handle != nil {
		e.handle.Stop()
	}

	samplesPerBlock := monoSamplesPerBlock(e.header)
	samplesPerMinute := e.header.sampleRate * 60

	targetSample := m * samplesPerMinute
	targetBlock := targetSample / samplesPerBlock
	if targetBlock >= e.header.totalBlocks {
		targetBlock = e.header.totalBlocks - 1
	}

	e.blockIndex = targetBlock
	e.byteInBlock = 0
	e.monoQueue = e.monoQueue[:0]
	e.parseBlockHeader()

	e.samplesDecoded = targetBlock * samplesPerBlock
	e.nextMinuteSample = (m + 1) * samplesPerMinute
	e.currentMinute = m
	e.syncSet = false

	e.state = audioReady
	e.Start()
}

// Shutdown returns the engine to Uninitialized, releasing its container.
func (e *AudioEngine) Shutdown() {
	if e.handle != nil {
		e.handle.Stop()
	}

	*e = AudioEngine{n: BufferSamples}
}

func (e *AudioEngine) resetCursor() {
	e.blockIndex = 0
	e.byteInBlock = 0
	e.monoQueue = e.monoQueue[:0]
	e.samplesDecoded = 0
	e.currentMinute = 0
	e.nextMinuteSample = e.header.sampleRate * 60
	e.syncSet = false
	e.left = ChannelState{}
	e.right = ChannelState{}
	e.parseBlockHeader()
}

func (e *AudioEngine) submitActive() {
	buf := e.activeBufferPtr()
	e.sink.Submit(e, e.activeBuffer, buf.Left, buf.Right)
}

func (e *AudioEngine) activeBufferPtr() *pcmBuffer {
	if e.activeBuffer == 0 {
		return &e.bufA
	}

	return &e.bufB
}

func (e *AudioEngine) inactiveBufferPtr() *pcmBuffer {
	if e.activeBuffer == 0 {
		return &e.bufB
	}

	return &e.bufA
}

// onBufferTick is registered with the Ticker at the buffer-consumed rate;
// it performs the refill-and-swap protocol of spec.md §4.3 step 1-3.
func (e *AudioEngine) onBufferTick() {
	e.OnBufferConsumed(e.activeBuffer)
}

// OnBufferConsumed is the sink's completion hook (spec.md §9): the sink
// invokes this once it has fully drained the buffer named by bufferID.
func (e *AudioEngine) OnBufferConsumed(bufferID int) {
	if e.state != audioPlaying {
		return
	}
	if bufferID != e.activeBuffer {
		return
	}

	e.activeBuffer = 1 - e.activeBuffer
	e.submitActive()

	drained := e.inactiveBufferPtr()
	e.refill(drained)

	e.samplesDecoded += e.n
	if e.samplesDecoded >= e.nextMinuteSample {
		e.currentMinute++
		e.nextMinuteSample += e.header.sampleRate * 60
		e.setSyncMinute(e.currentMinute)
	}
}

// refill fills buf with n samples per channel, decoding ahead as needed
// and padding with zero once the stream is finished (spec.md §4.2).
func (e *AudioEngine) refill(buf *pcmBuffer) {
	for i := 0; i < e.n; i++ {
		if e.state == audioFinished || e.blockIndex >= e.header.totalBlocks {
			buf.Left[i] = 0
			if buf.Right != nil {
				buf.Right[i] = 0
			}

			continue
		}

		switch e.header.Mode {
		case ModeStereoIMA4:
			l, r := e.nextStereoSample()
			buf.Left[i] = l
			buf.Right[i] = r
		default:
			buf.Left[i] = e.nextMonoSample()
		}
	}
}

// nextStereoSample implements mode 0's per-byte L/R nibble pair
// (spec.md §4.2).
func (e *AudioEngine) nextStereoSample() (int8, int8) {
	b, ok := e.readBodyByte()
	if !ok {
		return 0, 0
	}

	l := decodeIMA4(&e.left, b&0x0F)
	r := decodeIMA4(&e.right, (b>>4)&0x0F)

	return int8(l >> 8), int8(r >> 8)
}

// nextMonoSample dispatches the sub-byte packed modes (1, 2, 3, 4),
// draining monoQueue first as spec.md §4.2's invariant requires.
func (e *AudioEngine) nextMonoSample() int8 {
	if len(e.monoQueue) > 0 {
		s := e.monoQueue[0]
		e.monoQueue = e.monoQueue[1:]

		return s
	}

	switch e.header.Mode {
	case ModeMono3Bit:
		return e.decodeMono3BitGroup()
	case ModeMonoIMA4:
		return e.decodeMono4BitPair()
	case ModeMono2Bit, ModeMono2BitSmall:
		return e.decodeMono2BitGroup()
	}

	return 0
}

// decodeMono3BitGroup reads three body bytes as a 24-bit little-endian
// group, extracts eight 3-bit codes LSB-first, decodes all eight, emits
// the first and queues the remaining seven (spec.md §4.2).
func (e *AudioEngine) decodeMono3BitGroup() int8 {
	var raw [3]byte
	for i := range raw {
		b, ok := e.readBodyByte()
		if !ok {
			return 0
		}
		raw[i] = b
	}

	group := uint32(raw[0]) | uint32(raw[1])<<8 | uint32(raw[2])<<16

	var samples [8]int8
	for i := 0; i < 8; i++ {
		code := byte((group >> uint(i*3)) & 0x7)
		samples[i] = int8(decode3Bit(&e.left, code) >> 8)
	}

	e.monoQueue = append(e.monoQueue, samples[1:]...)

	return samples[0]
}

// decodeMono4BitPair reads one body byte, emits its low nibble now and
// queues the decoded high nibble for the next call (spec.md §4.2).
func (e *AudioEngine) decodeMono4BitPair() int8 {
	b, ok := e.readBodyByte()
	if !ok {
		return 0
	}

	low := int8(decodeIMA4(&e.left, b&0x0F) >> 8)
	high := int8(decodeIMA4(&e.left, (b>>4)&0x0F) >> 8)

	e.monoQueue = append(e.monoQueue, high)

	return low
}

// decodeMono2BitGroup reads one body byte, decodes its four 2-bit codes
// LSB-first, emits the first and queues the remaining three
// (spec.md §4.2).
func (e *AudioEngine) decodeMono2BitGroup() int8 {
	b, ok := e.readBodyByte()
	if !ok {
		return 0
	}

	var samples [4]int8
	for i := 0; i < 4; i++ {
		code := (b >> uint(i*2)) & 0x3
		samples[i] = int8(decode2Bit(&e.left, code) >> 8)
	}

	e.monoQueue = append(e.monoQueue, samples[1:]...)

	return samples[0]
}

// readBodyByte reads the next body byte, advancing to the following
// block (re-seeding channel state from its header) once the current
// block's body is exhausted (spec.md §4.2).
func (e *AudioEngine) readBodyByte() (byte, bool) {
	bodySize := e.header.blockSize - e.header.headerSize

	if e.byteInBlock >= bodySize {
		e.advanceBlock()
		if e.state == audioFinished {
			return 0, false
		}
	}

	off := HeaderSize + e.blockIndex*e.header.blockSize + e.header.headerSize + e.byteInBlock
	if off >= len(e.data) {
		e.state = audioFinished

		return 0, false
	}

	b := e.data[off]
	e.byteInBlock++

	return b, true
}

func (e *AudioEngine) advanceBlock() {
	e.blockIndex++
	e.byteInBlock = 0
	e.monoQueue = e.monoQueue[:0]

	if e.blockIndex >= e.header.totalBlocks {
		e.state = audioFinished

		return
	}

	e.parseBlockHeader()
}

// parseBlockHeader re-seeds the per-channel decoder state from the
// current block's header (spec.md §3): two little-endian 16-bit words
// for mono modes, four for stereo.
func (e *AudioEngine) parseBlockHeader() {
	off := HeaderSize + e.blockIndex*e.header.blockSize
	if off+e.header.headerSize > len(e.data) {
		e.state = audioFinished

		return
	}

	switch e.header.Mode {
	case ModeStereoIMA4:
		e.left.Predictor = int32(binary.LittleEndian.Uint16(e.data[off : off+2]))
		e.left.StepIndex = clampRange(int32(binary.LittleEndian.Uint16(e.data[off+2:off+4])), 0, 88)
		e.right.Predictor = int32(binary.LittleEndian.Uint16(e.data[off+4 : off+6]))
		e.right.StepIndex = clampRange(int32(binary.LittleEndian.Uint16(e.data[off+6:off+8])), 0, 88)
	case ModeMono3Bit:
		e.left.Predictor = int32(binary.LittleEndian.Uint16(e.data[off : off+2]))
		e.left.StepIndex = clampRange(int32(binary.LittleEndian.Uint16(e.data[off+2:off+4])), 0, 88)
	case ModeMonoIMA4:
		raw := binary.LittleEndian.Uint16(e.data[off : off+2])
		e.left.Predictor = int32(raw) - 0x8000
		e.left.StepIndex = clampRange(int32(binary.LittleEndian.Uint16(e.data[off+2:off+4])), 0, 88)
	case ModeMono2Bit, ModeMono2BitSmall:
		e.left.Predictor = int32(binary.LittleEndian.Uint16(e.data[off : off+2]))
		e.left.StepIndex = clampRange(int32(binary.LittleEndian.Uint16(e.data[off+2:off+4])), 0, 0x160)
	}
}

// bufferPeriod is the real-time interval one double-buffer swap covers
// at the container's sample rate, the period the buffer-consumed tick
// is registered at (spec.md §4.3).
func bufferPeriod(h AudioHeader) time.Duration {
	return time.Duration(BufferSamples) * time.Second / time.Duration(h.sampleRate)
}

// monoSamplesPerBlock computes the per-block sample count from spec.md
// §3's table, in terms of the block body size.
func monoSamplesPerBlock(h AudioHeader) int {
	body := h.blockSize - h.headerSize

	switch h.Mode {
	case ModeStereoIMA4:
		return body
	case ModeMono3Bit:
		return (body / 3) * 8
	case ModeMonoIMA4:
		return body * 2
	case ModeMono2Bit, ModeMono2BitSmall:
		return body * 4
	}

	return 0
}
