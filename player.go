package gbam

import "time"

// tickPeriod60Hz is the player's master tick rate: the hardware vblank
// interrupt this decoder was designed against (spec.md §4.8).
const tickPeriod60Hz = time.Second / 60

// Frame pacing constants from spec.md §4.8: the hardware tick fires at
// 60Hz; every sixth tick advances the target video frame, giving a
// steady 10fps, and minute boundaries land every 600 frames.
const (
	FramesPerSecond = 10
	TicksPerFrame   = 6
	FramesPerMinute = FramesPerSecond * 60
)

type playerState int

const (
	playerIdle playerState = iota
	playerRunning
	playerSeeking
)

// Player is the high-level A/V playback and sync engine of spec.md §4.8:
// it owns one AudioEngine and one VideoDecoder, paces video frames off a
// single 60Hz ticker registration, and resyncs video to the audio clock
// at every minute boundary using a table of keyframe offsets built once
// at load time.
type Player struct {
	audio *AudioEngine
	video *VideoDecoder

	frameSink FrameSink
	ticker    Ticker
	handle    TickerHandle

	state       playerState
	tickCount   int
	targetFrame int

	iframeTable []int
}

// NewPlayer parses both containers and builds the I-frame table
// (spec.md §4.8). audioData and videoData must come from the same
// recording; the player does not itself validate that they match.
func NewPlayer(audioData, videoData []byte, sampleSink SampleSink, frameSink FrameSink, ticker Ticker) (*Player, error) {
	audio := NewAudioEngine()
	if !audio.Init(audioData, sampleSink, ticker) {
		_, err := ParseAudioHeader(audioData)

		return nil, err
	}

	video, err := NewVideoDecoder(videoData)
	if err != nil {
		return nil, err
	}

	p := &Player{
		audio:     audio,
		video:     video,
		frameSink: frameSink,
		ticker:    ticker,
	}
	p.iframeTable = buildIFrameTable(videoData, video.header)

	return p, nil
}

// buildIFrameTable walks the video stream once, recording the byte
// offset of every frame that lands on a minute boundary (spec.md §4.8).
// Index m of the returned slice is the offset of minute m's first frame;
// table[0] is always HeaderSize.
func buildIFrameTable(data []byte, header VideoHeader) []int {
	table := []int{HeaderSize}

	offset := HeaderSize
	count := 0
	for count < header.FrameCount {
		fh, ok := readFrameHeader(data, offset)
		if !ok || fh.isAborted() {
			break
		}

		offset += fh.frameLen
		count++

		if count%FramesPerMinute == 0 {
			table = append(table, offset)
		}
	}

	return table
}

// Start begins playback: starts the audio engine and registers the
// 60Hz frame-pacing tick.
func (p *Player) Start() {
	if p.state != playerIdle {
		return
	}

	p.audio.Start()
	p.handle = p.ticker.Register(tickPeriod60Hz, p.onTick)
	p.handle.Start()
	p.state = playerRunning
}

// Pause stops both the audio engine and the frame-pacing tick, leaving
// the video cursor where it is.
func (p *Player) Pause() {
	if p.state != playerRunning {
		return
	}

	p.audio.Pause()
	if p.handle != nil {
		p.handle.Stop()
	}
	p.state = playerIdle
}

// Resume restarts audio and the frame-pacing tick from a paused state.
func (p *Player) Resume() {
	if p.state != playerIdle || p.audio.IsFinished() {
		return
	}

	p.audio.Resume()
	if p.handle != nil {
		p.handle.Start()
	}
	p.state = playerRunning
}

// Restart seeks both streams back to the beginning and starts playback.
func (p *Player) Restart() {
	if p.handle != nil {
		p.handle.Stop()
	}

	p.audio.Restart()
	p.resyncToMinute(0)
	p.tickCount = 0
	p.targetFrame = 0
	p.state = playerIdle
	p.Start()
}

// SeekNextMinute jumps both streams forward to the start of the next
// whole minute, wrapping to 0 past the end (spec.md §4.8).
func (p *Player) SeekNextMinute() {
	p.seekMinute(p.audio.CurrentMinute() + 1)
}

// SeekPreviousMinute jumps both streams back to the start of the
// previous whole minute, clamped at 0.
func (p *Player) SeekPreviousMinute() {
	target := p.audio.CurrentMinute() - 1
	if target < 0 {
		target = 0
	}
	p.seekMinute(target)
}

func (p *Player) seekMinute(minute int) {
	p.audio.SeekMinute(minute)
	p.resyncToMinute(minute)
}

// resyncToMinute jumps the video cursor to the I-frame table entry for
// minute, or wraps to minute 0 if minute is out of range (spec.md §4.8,
// the minute-boundary resync that follows every sync_minute signal).
func (p *Player) resyncToMinute(minute int) {
	p.state = playerSeeking

	offset := HeaderSize
	frameIndex := 0
	if minute >= 0 && minute < len(p.iframeTable) {
		offset = p.iframeTable[minute]
		frameIndex = minute * FramesPerMinute
	}

	p.video.SeekOffset(offset, frameIndex)
	p.targetFrame = frameIndex
	p.tickCount = 0
	p.state = playerRunning
}

// onTick is registered at 60Hz. Every call checks for a pending
// minute-sync signal from the audio engine; every sixth call advances one
// video frame (spec.md §4.8's 10fps pacing, layered on top of minute
// resync).
func (p *Player) onTick() {
	if minute, ok := p.audio.CheckMinuteSync(); ok {
		p.resyncToMinute(minute)
	}

	p.tickCount++
	if p.tickCount < TicksPerFrame {
		return
	}
	p.tickCount = 0
	p.targetFrame++

	frame, err := p.video.DecodeFrame()
	if err != nil {
		p.resyncToMinute(0)

		return
	}

	p.frameSink.Present(frame)
}

// IsPlaying reports whether the player is actively advancing frames.
func (p *Player) IsPlaying() bool { return p.state == playerRunning }

// CurrentMinute returns the audio engine's current minute index.
func (p *Player) CurrentMinute() int { return p.audio.CurrentMinute() }

// TotalMinutes returns the container's duration in whole minutes.
func (p *Player) TotalMinutes() int { return p.audio.TotalMinutes() }

// Shutdown tears down both the audio engine and the frame-pacing tick.
func (p *Player) Shutdown() {
	if p.handle != nil {
		p.handle.Stop()
	}
	p.audio.Shutdown()
}
