// Command player-eb plays a GBAL/GBAM recording through an ebiten window,
// adapted from the teacher's examples/player-eb MPEG player.
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	ebaudio "github.com/hajimehoshi/ebiten/v2/audio"

	"github.com/handheldhq/gbam"
)

var errEnd = errors.New("end")

type game struct {
	player *gbam.Player
	ticker *ebitenTicker
	img    *ebiten.Image
	pause  bool
}

func (g *game) Update() error {
	g.ticker.Tick()

	if ebiten.IsKeyPressed(ebiten.KeyEscape) || ebiten.IsKeyPressed(ebiten.KeyQ) {
		return errEnd
	}

	if inpututilPressed(ebiten.KeySpace) {
		g.pause = !g.pause
		if g.pause {
			g.player.Pause()
		} else {
			g.player.Resume()
		}
	}
	if inpututilPressed(ebiten.KeyRight) {
		g.player.SeekNextMinute()
	}
	if inpututilPressed(ebiten.KeyLeft) {
		g.player.SeekPreviousMinute()
	}

	return nil
}

func (g *game) Draw(screen *ebiten.Image) {
	screen.DrawImage(g.img, nil)
}

func (g *game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return gbam.FrameWidth, gbam.FrameHeight
}

// inpututilPressed reports whether key is currently held, not whether it
// was just pressed; the teacher's example polls IsKeyPressed directly and accepts the auto-repeat, so this does
// too rather than pulling in the inpututil package for one helper.
func inpututilPressed(key ebiten.Key) bool { return ebiten.IsKeyPressed(key) }

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

	header, err := gbam.ParseAudioHeader(audioData)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	audioContext := ebaudio.NewContext(header.SampleRate())

	img := ebiten.NewImage(gbam.FrameWidth, gbam.FrameHeight)
	frameSink := &ebitenFrameSink{img: img}
	sampleSink := newEbitenSampleSink(audioContext, header.SampleRate(), header.Channels())
	ticker := &ebitenTicker{}

	player, err := gbam.NewPlayer(audioData, videoData, sampleSink, frameSink, ticker)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	g := &game{player: player, ticker: ticker, img: img}

	ebiten.SetWindowTitle(filepath.Base(os.Args[2]))
	ebiten.SetWindowSize(gbam.FrameWidth*2, gbam.FrameHeight*2)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	player.Start()

	if err := ebiten.RunGame(g); err != nil && !errors.Is(err, errEnd) {
		fmt.Println(err)
		os.Exit(1)
	}

	player.Shutdown()
}

// ebitenTicker drives the player's 60Hz pacing off ebiten's own Update
// cadence instead of a free-running goroutine, since ebiten already
// calls Update once per tick at its configured TPS. Register is called
// twice: once by Player for the frame-pacing period, once by AudioEngine
// for the buffer-consumed period; each gets its own handle, and Tick
// advances both on every ebiten Update.
type ebitenTicker struct {
	handles []*ebitenTickerHandle
}

func (t *ebitenTicker) Register(period time.Duration, callback func()) gbam.TickerHandle {
	h := &ebitenTickerHandle{period: period, callback: callback}
	t.handles = append(t.handles, h)

	return h
}

// Tick advances every running handle by one ebiten Update step (assumed
// to be 1/60s, ebiten's default TPS) and fires its callback for every
// whole period elapsed, so a handle registered at a slower period (the
// audio buffer-consumed tick) doesn't fire on every single Update call.
func (t *ebitenTicker) Tick() {
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

type ebitenTickerHandle struct {
	period   time.Duration
	callback func()
	running  bool
	accum    time.Duration
}

func (h *ebitenTickerHandle) Start() { h.running = true }
func (h *ebitenTickerHandle) Stop()  { h.running = false }

type ebitenFrameSink struct {
	img *ebiten.Image
}

func (s *ebitenFrameSink) Present(frame *gbam.Frame) {
	pix := make([]byte, gbam.FrameWidth*gbam.FrameHeight*4)
	for i, px := range frame.Pixels {
		o := i * 4
		pix[o+0] = byte(px&0x1F) << 3
		pix[o+1] = byte(px>>5&0x1F) << 3
		pix[o+2] = byte(px>>10&0x1F) << 3
		pix[o+3] = 0xFF
	}
	s.img.WritePixels(pix)
}

// ebitenSampleSink streams PCM through an ebiten audio.Player backed by
// a small internal queue; OnBufferConsumed fires once the queued bytes
// for a submission have been fully read by the player.
type ebitenSampleSink struct {
	player   *ebaudio.Player
	queue    *sampleQueue
	channels int
}

func newEbitenSampleSink(ctx *ebaudio.Context, sampleRate, channels int) *ebitenSampleSink {
	q := &sampleQueue{}
	p, _ := ctx.NewPlayer(q)
	p.Play()

	return &ebitenSampleSink{player: p, queue: q, channels: channels}
}

func (s *ebitenSampleSink) Submit(engine *gbam.AudioEngine, bufferID int, left, right []int8) {
	n := len(left)
	buf := make([]byte, 0, n*4)

	for i := 0; i < n; i++ {
		l := int16(left[i]) << 8
		buf = append(buf, byte(l), byte(l>>8))

		r := l
		if right != nil {
			r = int16(right[i]) << 8
		}
		buf = append(buf, byte(r), byte(r>>8))
	}

	s.queue.push(buf, func() { engine.OnBufferConsumed(bufferID) })
}

// sampleQueue is a minimal io.Reader queue of pending PCM chunks, each
// with a completion callback invoked once fully drained by Read.
type sampleQueue struct {
	chunks []queuedChunk
}

type queuedChunk struct {
	data []byte
	done func()
}

func (q *sampleQueue) push(data []byte, done func()) {
	q.chunks = append(q.chunks, queuedChunk{data: data, done: done})
}

func (q *sampleQueue) Read(p []byte) (int, error) {
	if len(q.chunks) == 0 {
		return 0, nil
	}

	n := copy(p, q.chunks[0].data)
	q.chunks[0].data = q.chunks[0].data[n:]

	if len(q.chunks[0].data) == 0 {
		done := q.chunks[0].done
		q.chunks = q.chunks[1:]
		done()
	}

	return n, nil
}
