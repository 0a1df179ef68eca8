// Command player-web plays a GBAL/GBAM recording in a browser tab via
// WebAssembly, adapted from the teacher's examples/player-web MPEG
// player. Video is blitted to a 2D canvas; audio is scheduled as a chain
// of Web Audio AudioBufferSourceNodes, one per submitted PCM buffer.
package main

import (
	"io"
	"net/http"
	"time"

	"github.com/gowebapi/webapi"
	"github.com/gowebapi/webapi/core/js"
	"github.com/gowebapi/webapi/core/jsconv"
	"github.com/gowebapi/webapi/dom"
	"github.com/gowebapi/webapi/html"
	"github.com/gowebapi/webapi/html/canvas"
	"github.com/gowebapi/webapi/html/htmlevent"
	"github.com/gowebapi/webapi/media/audio"
	"github.com/jfbus/httprs"

	"github.com/handheldhq/gbam"
)

type app struct {
	window *webapi.Window
	canvas *canvas.HTMLCanvasElement
	ctx2d  *canvas.CanvasRenderingContext2D
	status *dom.Element

	audioContext *audio.AudioContext
	nextPos      float64
	sampleRate   int
	channels     int

	player *gbam.Player
	ticker *webTicker
}

func main() {
	win := webapi.GetWindow()
	doc := win.Document()

	cv := canvas.HTMLCanvasElementFromWrapper(doc.GetElementById("gbam-canvas"))
	cv.SetWidth(gbam.FrameWidth)
	cv.SetHeight(gbam.FrameHeight)

	ctxU, _ := cv.GetContext("2d", nil)
	ctx2d := canvas.CanvasRenderingContext2DFromWrapper(ctxU)

	status := doc.GetElementById("gbam-status")

	a := &app{window: win, canvas: cv, ctx2d: ctx2d, status: status, ticker: newWebTicker()}

	audioURL := js.Global().Get("gbamAudioURL").String()
	videoURL := js.Global().Get("gbamVideoURL").String()

	go a.load(audioURL, videoURL)

	select {}
}

func (a *app) load(audioURL, videoURL string) {
	audioData, err := fetch(audioURL)
	if err != nil {
		a.status.SetInnerHTML(err.Error())
		return
	}

	videoData, err := fetch(videoURL)
	if err != nil {
		a.status.SetInnerHTML(err.Error())
		return
	}

	header, err := gbam.ParseAudioHeader(audioData)
	if err != nil {
		a.status.SetInnerHTML(err.Error())
		return
	}
	a.sampleRate = header.SampleRate()
	a.channels = header.Channels()

	a.audioContext = audio.NewAudioContext(&audio.AudioContextOptions{
		SampleRate: float32(a.sampleRate),
	})
	a.audioContext.Resume()

	frameSink := &webFrameSink{ctx2d: a.ctx2d}
	sampleSink := &webSampleSink{app: a}

	player, err := gbam.NewPlayer(audioData, videoData, sampleSink, frameSink, a.ticker)
	if err != nil {
		a.status.SetInnerHTML(err.Error())
		return
	}
	a.player = player

	a.canvas.SetOnClick(func(event *htmlevent.MouseEvent, currentTarget *html.HTMLElement) {
		if a.player.IsPlaying() {
			a.player.Pause()
		} else {
			a.player.Resume()
		}
	})

	player.Start()
	a.window.RequestAnimationFrame(js.FuncOf(a.onFrame))
}

func (a *app) onFrame(this js.Value, args []js.Value) interface{} {
	a.ticker.tick()
	a.window.RequestAnimationFrame(js.FuncOf(a.onFrame))
	return nil
}

func fetch(url string) ([]byte, error) {
	res, err := http.Get(url)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	r := httprs.NewHttpReadSeeker(res)
	return io.ReadAll(r)
}

type webFrameSink struct {
	ctx2d *canvas.CanvasRenderingContext2D
}

func (s *webFrameSink) Present(frame *gbam.Frame) {
	rgba := make([]byte, gbam.FrameWidth*gbam.FrameHeight*4)
	for i, px := range frame.Pixels {
		o := i * 4
		rgba[o+0] = byte(px&0x1F) << 3
		rgba[o+1] = byte(px>>5&0x1F) << 3
		rgba[o+2] = byte(px>>10&0x1F) << 3
		rgba[o+3] = 0xFF
	}

	data := canvas.NewImageData(jsconv.UInt8ToJs(rgba), gbam.FrameWidth, &gbam.FrameHeight)
	s.ctx2d.PutImageData(data, 0, 0)
}

// webSampleSink schedules one AudioBufferSourceNode per submitted PCM
// buffer back to back on the AudioContext's clock, and calls
// OnBufferConsumed as soon as the node is scheduled (the browser's own
// audio thread handles actual playback timing from here).
type webSampleSink struct {
	app *app
}

func (s *webSampleSink) Submit(engine *gbam.AudioEngine, bufferID int, left, right []int8) {
	a := s.app
	n := len(left)

	buf := a.audioContext.CreateBuffer(uint32(a.channels), uint32(n), float32(a.sampleRate))

	leftF := make([]float32, n)
	for i, v := range left {
		leftF[i] = float32(v) / 128
	}
	buf.GetChannelData(0).JSValue().Call("set", jsconv.Float32ToJs(leftF))

	if right != nil {
		rightF := make([]float32, n)
		for i, v := range right {
			rightF[i] = float32(v) / 128
		}
		buf.GetChannelData(1).JSValue().Call("set", jsconv.Float32ToJs(rightF))
	}

	ct := a.audioContext.CurrentTime()
	if a.nextPos < ct {
		a.nextPos = ct
	}

	src := a.audioContext.CreateBufferSource()
	src.SetBuffer(buf)
	src.JSValue().Call("connect", a.audioContext.Destination().JSValue())
	src.JSValue().Call("start", a.nextPos)

	a.nextPos += buf.Duration()

	engine.OnBufferConsumed(bufferID)
}

// webTicker drives the player's pacing from requestAnimationFrame,
// which the browser calls at the display's refresh rate (assumed 60Hz).
type webTicker struct {
	handles []*webTickerHandle
}

func newWebTicker() *webTicker { return &webTicker{} }

func (t *webTicker) Register(period time.Duration, callback func()) gbam.TickerHandle {
	h := &webTickerHandle{period: period, callback: callback}
	t.handles = append(t.handles, h)

	return h
}

// tick advances every running handle by one requestAnimationFrame step
// (assumed 1/60s) and fires its callback for every whole period elapsed.
func (t *webTicker) tick() {
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

type webTickerHandle struct {
	period   time.Duration
	callback func()
	running  bool
	accum    time.Duration
}

func (h *webTickerHandle) Start() { h.running = true }
func (h *webTickerHandle) Stop()  { h.running = false }
