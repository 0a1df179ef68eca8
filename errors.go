package gbam

import "errors"

// Sentinel errors returned by container validation and header decoding.
//
// These mirror the teacher's single-sentinel style (ErrInvalidMPEG,
// ErrInvalidHeader): callers compare with errors.Is, nothing here carries
// structured fields.
var (
	// ErrBadMagic is returned when an audio container does not begin with
	// "GBAL" ... "MUSI".
	ErrBadMagic = errors.New("gbam: bad container magic")

	// ErrUnsupportedMode is returned when the audio mode selector is > 4.
	ErrUnsupportedMode = errors.New("gbam: unsupported audio mode")

	// ErrShortContainer is returned when an audio container is smaller than
	// the 512-byte header, or contains zero whole blocks.
	ErrShortContainer = errors.New("gbam: container too short")

	// ErrDecodeAborted is returned by the video frame driver when a frame
	// header reports frame_len of 0 or 0xFFFF. Callers should treat this as
	// end-of-stream and wrap the cursor back to the first frame.
	ErrDecodeAborted = errors.New("gbam: video decode aborted")
)
