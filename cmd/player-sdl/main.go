// Command player-sdl plays a GBAL/GBAM recording through an SDL2 window,
// adapted from the teacher's nested examples/player-sdl MPEG player. SDL's
// audio device pulls samples through a callback instead of being pushed
// to like raylib's stream, so the sink here buffers decoded PCM and lets
// SDL drain it on its own thread.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/veandco/go-sdl2/sdl"

	"github.com/handheldhq/gbam"
)

func main() {
	if len(os.Args) < 3 {
		fmt.Printf("Usage: %s <audio.gbal> <video.gbam>\n", filepath.Base(os.Args[0]))
		os.Exit(1)
	}

	audioData, err := os.ReadFile(os.Args[1])
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	videoData, err := os.ReadFile(os.Args[2])
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_AUDIO); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer sdl.Quit()

	window, err := sdl.CreateWindow("gbam player", sdl.WINDOWPOS_CENTERED, sdl.WINDOWPOS_CENTERED,
		gbam.FrameWidth*2, gbam.FrameHeight*2, sdl.WINDOW_RESIZABLE)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer window.Destroy()

	renderer, err := sdl.CreateRenderer(window, -1, sdl.RENDERER_ACCELERATED)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer renderer.Destroy()

	texture, err := renderer.CreateTexture(sdl.PIXELFORMAT_RGBA32, sdl.TEXTUREACCESS_STREAMING,
		gbam.FrameWidth, gbam.FrameHeight)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer texture.Destroy()

	header, err := gbam.ParseAudioHeader(audioData)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	sampleSink := newSdlSampleSink()

	spec := &sdl.AudioSpec{
		Freq:     int32(header.SampleRate()),
		Format:   sdl.AUDIO_S16SYS,
		Channels: uint8(header.Channels()),
		Samples:  uint16(gbam.BufferSamples),
		Callback: sdl.AudioCallback(sampleSink.fill),
	}
	if err := sdl.OpenAudio(spec, nil); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer sdl.CloseAudio()

	frameSink := &sdlFrameSink{texture: texture}
	ticker := newSdlTicker()

	player, err := gbam.NewPlayer(audioData, videoData, sampleSink, frameSink, ticker)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	sdl.PauseAudio(false)
	player.Start()
	defer player.Shutdown()

	running := true
	for running {
		for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
			switch e := event.(type) {
			case *sdl.QuitEvent:
				running = false
			case *sdl.KeyboardEvent:
				if e.Type != sdl.KEYDOWN {
					continue
				}
				switch e.Keysym.Sym {
				case sdl.K_ESCAPE, sdl.K_q:
					running = false
				case sdl.K_SPACE:
					if player.IsPlaying() {
						player.Pause()
					} else {
						player.Resume()
					}
				case sdl.K_RIGHT:
					player.SeekNextMinute()
				case sdl.K_LEFT:
					player.SeekPreviousMinute()
				case sdl.K_r:
					player.Restart()
				}
			}
		}

		ticker.tick()

		renderer.Clear()
		renderer.Copy(texture, nil, nil)
		renderer.Present()

		sdl.Delay(1000 / 60)
	}
}

// sdlFrameSink converts decoded RGB555 frames to RGBA32 and uploads them
// to a streaming SDL texture.
type sdlFrameSink struct {
	texture *sdl.Texture
	rgba    [gbam.FrameWidth * gbam.FrameHeight * 4]byte
}

func (s *sdlFrameSink) Present(frame *gbam.Frame) {
	for i, px := range frame.Pixels {
		o := i * 4
		s.rgba[o+0] = byte(px&0x1F) << 3
		s.rgba[o+1] = byte(px>>5&0x1F) << 3
		s.rgba[o+2] = byte(px>>10&0x1F) << 3
		s.rgba[o+3] = 0xFF
	}

	s.texture.Update(nil, s.rgba[:], gbam.FrameWidth*4)
}

// sdlSampleSink queues decoded PCM for SDL's pull-style audio callback,
// which runs on SDL's own audio thread; fill is invoked there, Submit
// from the main decode thread, so access to the queue is mutex-guarded.
type sdlSampleSink struct {
	mu    sync.Mutex
	bytes []byte

	pendingEngine   *gbam.AudioEngine
	pendingBufferID int
	pendingLen      int
	consumed        int
}

func newSdlSampleSink() *sdlSampleSink {
	return &sdlSampleSink{}
}

func (s *sdlSampleSink) Submit(engine *gbam.AudioEngine, bufferID int, left, right []int8) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(left)
	buf := make([]byte, 0, n*4)
	for i := 0; i < n; i++ {
		l := int16(left[i]) << 8
		r := l
		if right != nil {
			r = int16(right[i]) << 8
		}
		buf = append(buf, byte(l), byte(l>>8), byte(r), byte(r>>8))
	}

	s.bytes = append(s.bytes, buf...)
	s.pendingEngine = engine
	s.pendingBufferID = bufferID
	s.pendingLen = len(buf)
	s.consumed = 0
}

// fill is SDL's audio callback: it drains queued bytes into out, and
// once a full submitted buffer's worth of bytes has been served, calls
// back into the engine so it can refill and swap.
func (s *sdlSampleSink) fill(out []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := copy(out, s.bytes)
	for i := n; i < len(out); i++ {
		out[i] = 0
	}
	s.bytes = s.bytes[n:]

	s.consumed += n
	if s.pendingEngine != nil && s.consumed >= s.pendingLen {
		engine, bufferID := s.pendingEngine, s.pendingBufferID
		s.pendingEngine = nil
		go engine.OnBufferConsumed(bufferID)
	}
}

// sdlTicker drives the player's pacing from the main event loop, which
// polls at roughly 60Hz via the sdl.Delay at the bottom of the loop.
type sdlTicker struct {
	handles []*sdlTickerHandle
}

func newSdlTicker() *sdlTicker { return &sdlTicker{} }

func (t *sdlTicker) Register(period time.Duration, callback func()) gbam.TickerHandle {
	h := &sdlTickerHandle{period: period, callback: callback}
	t.handles = append(t.handles, h)

	return h
}

func (t *sdlTicker) tick() {
	const step = time.Second / 60

	for _, h := range t.handles {
		if !h.running {
			continue
		}

		h.accum += step
		for h.accum >= h.period {
			h.accum -= h.period
			h.callback()
		}
	}
}

type sdlTickerHandle struct {
	period   time.Duration
	callback func()
	running  bool
	accum    time.Duration
}

func (h *sdlTickerHandle) Start() { h.running = true }
func (h *sdlTickerHandle) Stop()  { h.running = false }
