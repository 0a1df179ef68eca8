package gbam

import "time"

// SampleSink is the hardware sound FIFO / DMA abstraction of spec.md §9.
// Submit hands the sink one full PCM buffer to drain at the container's
// sample rate; the sink must call engine.OnBufferConsumed(bufferID) once it
// has fully drained the buffer, handing control back to the engine for the
// next swap. left is always populated; right is nil for mono containers.
type SampleSink interface {
	Submit(engine *AudioEngine, bufferID int, left, right []int8)
}

// FrameSink is the framebuffer hardware abstraction of spec.md §9. Present
// blits one decoded 240x160 RGB555 frame.
type FrameSink interface {
	Present(frame *Frame)
}

// TickerHandle controls one periodic callback registered with a Ticker.
type TickerHandle interface {
	Start()
	Stop()
}

// Ticker is the timer/DMA-IRQ abstraction of spec.md §9. Register arranges
// for callback to be invoked roughly every period until the returned
// handle is stopped. A single Ticker implementation is expected to host
// both the audio-buffer-consumed registration (period = N/samplerate) and
// the video frame-pacing registration (period = 1/60s) side by side, each
// independently startable and stoppable, matching the two distinct-period
// callbacks spec.md §9 describes.
type Ticker interface {
	Register(period time.Duration, callback func()) TickerHandle
}
