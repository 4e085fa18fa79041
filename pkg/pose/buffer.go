package pose

import "github.com/teslashibe/go-repcount/pkg/ring"

// DefaultBufferSize holds six seconds of history at 30 fps.
const DefaultBufferSize = 180

// FrameBuffer is a fixed-capacity history of frames with chronological and
// time-windowed retrieval.
type FrameBuffer struct {
	frames *ring.Buffer[Frame]
}

// NewFrameBuffer creates a buffer retaining at most capacity frames.
func NewFrameBuffer(capacity int) *FrameBuffer {
	return &FrameBuffer{frames: ring.New[Frame](capacity)}
}

// Append stores f, dropping the oldest frame when full.
func (b *FrameBuffer) Append(f Frame) {
	b.frames.Append(f)
}

// Len returns the number of retained frames.
func (b *FrameBuffer) Len() int {
	return b.frames.Len()
}

// Cap returns the buffer capacity.
func (b *FrameBuffer) Cap() int {
	return b.frames.Cap()
}

// Chronological returns every retained frame, oldest first.
func (b *FrameBuffer) Chronological() []Frame {
	return b.frames.Chronological()
}

// RecentFrames returns the last min(n, Len) frames in time order.
func (b *FrameBuffer) RecentFrames(n int) []Frame {
	return b.frames.Last(n)
}

// TimeWindow returns the frames no older than duration relative to the
// newest frame, oldest first. The walk stops at the first frame outside
// the window, so timestamps must be non-decreasing.
func (b *FrameBuffer) TimeWindow(duration float64) []Frame {
	newest, ok := b.frames.Newest(0)
	if !ok {
		return nil
	}

	n := 0
	for i := 0; i < b.frames.Len(); i++ {
		f, _ := b.frames.Newest(i)
		if newest.Time-f.Time > duration {
			break
		}
		n++
	}
	return b.frames.Last(n)
}

// Reset drops all frames.
func (b *FrameBuffer) Reset() {
	b.frames.Reset()
}
