// Command player-rl plays a GBAL/GBAM recording through a raylib window,
// adapted from the teacher's examples/player-rl MPEG player.
package main

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/jfbus/httprs"

	"github.com/handheldhq/gbam"
)

func main() {
	if len(os.Args) < 3 {
		fmt.Printf("Usage: %s <audio.gbal> <video.gbam or url>\n", filepath.Base(os.Args[0]))
		os.Exit(1)
	}

	audioData, err := readAll(os.Args[1])
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	videoData, err := readAll(os.Args[2])
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	rl.SetConfigFlags(rl.FlagVsyncHint | rl.FlagWindowResizable)
	rl.InitWindow(gbam.FrameWidth*2, gbam.FrameHeight*2, "gbam player")
	defer rl.CloseWindow()

	rl.InitAudioDevice()
	defer rl.CloseAudioDevice()

	frameSink := newFrameSink()
	defer rl.UnloadTexture(frameSink.texture)

	sampleSink := newSampleSink()
	defer rl.UnloadAudioStream(sampleSink.stream)

	ticker := clockTicker{}

	player, err := gbam.NewPlayer(audioData, videoData, sampleSink, frameSink, ticker)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	sampleSink.configure(audioDeviceHint(audioData))
	player.Start()

	for !rl.WindowShouldClose() {
		sampleSink.poll()

		if rl.IsKeyPressed(rl.KeyRight) {
			player.SeekNextMinute()
		} else if rl.IsKeyPressed(rl.KeyLeft) {
			player.SeekPreviousMinute()
		} else if rl.IsKeyPressed(rl.KeySpace) {
			if player.IsPlaying() {
				player.Pause()
			} else {
				player.Resume()
			}
		} else if rl.IsKeyPressed(rl.KeyR) {
			player.Restart()
		}

		rl.BeginDrawing()
		rl.ClearBackground(rl.Black)
		rl.DrawTexturePro(
			frameSink.texture,
			rl.NewRectangle(0, 0, float32(gbam.FrameWidth), float32(gbam.FrameHeight)),
			rl.NewRectangle(0, 0, float32(rl.GetScreenWidth()), float32(rl.GetScreenHeight())),
			rl.NewVector2(0, 0),
			0,
			rl.White,
		)
		rl.EndDrawing()
	}

	player.Shutdown()
}

// audioDeviceHint reads just enough of the audio header to pick the
// sample rate and channel count for the raylib stream.
func audioDeviceHint(data []byte) (sampleRate, channels int) {
	h, err := gbam.ParseAudioHeader(data)
	if err != nil {
		return 22050, 1
	}

	return h.SampleRate(), h.Channels()
}

func readAll(arg string) ([]byte, error) {
	r, err := openFile(arg)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	return io.ReadAll(r)
}

func openFile(arg string) (io.ReadCloser, error) {
	if strings.HasPrefix(arg, "http://") || strings.HasPrefix(arg, "https://") {
		res, err := http.Get(arg)
		if err != nil {
			return nil, err
		}

		return io.NopCloser(httprs.NewHttpReadSeeker(res)), nil
	}

	return os.Open(arg)
}

// clockTicker implements gbam.Ticker on top of the standard library's
// time.Ticker, the nearest stand-in a desktop build has for the
// hardware's DMA timer interrupt.
type clockTicker struct{}

func (clockTicker) Register(period time.Duration, callback func()) gbam.TickerHandle {
	return &clockHandle{period: period, callback: callback}
}

type clockHandle struct {
	period   time.Duration
	callback func()
	ticker   *time.Ticker
	done     chan struct{}
}

func (h *clockHandle) Start() {
	if h.ticker != nil {
		return
	}

	h.ticker = time.NewTicker(h.period)
	h.done = make(chan struct{})

	go func() {
		for {
			select {
			case <-h.ticker.C:
				h.callback()
			case <-h.done:
				return
			}
		}
	}()
}

func (h *clockHandle) Stop() {
	if h.ticker == nil {
		return
	}

	h.ticker.Stop()
	close(h.done)
	h.ticker = nil
}

// frameSink blits decoded RGB555 frames into an RGBA raylib texture.
type frameSink struct {
	texture rl.Texture2D
	rgba    []byte
}

func newFrameSink() *frameSink {
	img := &rl.Image{
		Width:   gbam.FrameWidth,
		Height:  gbam.FrameHeight,
		Format:  rl.UncompressedR8g8b8a8,
		Mipmaps: 1,
	}

	return &frameSink{
		texture: rl.LoadTextureFromImage(img),
		rgba:    make([]byte, gbam.FrameWidth*gbam.FrameHeight*4),
	}
}

func (s *frameSink) Present(frame *gbam.Frame) {
	for i, px := range frame.Pixels {
		r := byte(px&0x1F) << 3
		g := byte(px>>5&0x1F) << 3
		b := byte(px>>10&0x1F) << 3

		o := i * 4
		s.rgba[o+0] = r
		s.rgba[o+1] = g
		s.rgba[o+2] = b
		s.rgba[o+3] = 0xFF
	}

	rl.UpdateTexture(s.texture, s.rgba)
}

// sampleSink hands decoded PCM buffers to a raylib audio stream, calling
// back into the engine only once raylib reports the buffer consumed
// (spec.md §9's Submit/on_buffer_consumed round trip).
type sampleSink struct {
	stream   rl.AudioStream
	channels int

	pendingEngine   *gbam.AudioEngine
	pendingBufferID int
	pending         []int16
}

func newSampleSink() *sampleSink {
	return &sampleSink{}
}

func (s *sampleSink) configure(sampleRate, channels int) {
	s.channels = channels
	rl.SetAudioStreamBufferSizeDefault(int32(gbam.BufferSamples * channels))
	s.stream = rl.LoadAudioStream(uint32(sampleRate), 16, uint32(channels))
	rl.PlayAudioStream(s.stream)
}

func (s *sampleSink) Submit(engine *gbam.AudioEngine, bufferID int, left, right []int8) {
	s.pendingEngine = engine
	s.pendingBufferID = bufferID

	if right == nil {
		buf := make([]int16, len(left))
		for i, v := range left {
			buf[i] = int16(v) << 8
		}
		s.pending = buf

		return
	}

	buf := make([]int16, len(left)*2)
	for i := range left {
		buf[2*i] = int16(left[i]) << 8
		buf[2*i+1] = int16(right[i]) << 8
	}
	s.pending = buf
}

func (s *sampleSink) poll() {
	if s.pending == nil {
		return
	}

	if !rl.IsAudioStreamProcessed(s.stream) {
		return
	}

	rl.UpdateAudioStream(s.stream, s.pending, int32(len(s.pending)))
	s.pendingEngine.OnBufferConsumed(s.pendingBufferID)
	s.pending = nil
}
