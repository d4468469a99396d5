package audio

import (
	"fmt"

	"github.com/go-audio/audio"
)

// Buffer is decoded PCM audio plus its format metadata.
// Samples are interleaved 16-bit values stored in a go-audio IntBuffer.
type Buffer struct {
	Path string
	PCM  *audio.IntBuffer
}

// NewBuffer allocates a zeroed buffer holding the given number of frames
func NewBuffer(frames, sampleRate, channels int) *Buffer {
	if frames < 0 {
		frames = 0
	}
	return &Buffer{
		PCM: &audio.IntBuffer{
			Format: &audio.Format{
				NumChannels: channels,
				SampleRate:  sampleRate,
			},
			Data:           make([]int, frames*channels),
			SourceBitDepth: 16,
		},
	}
}

// SampleRate returns the sample rate in Hz
func (b *Buffer) SampleRate() int {
	return b.PCM.Format.SampleRate
}

// Channels returns the number of interleaved channels
func (b *Buffer) Channels() int {
	return b.PCM.Format.NumChannels
}

// BitDepth returns the bit depth of the samples
func (b *Buffer) BitDepth() int {
	if b.PCM.SourceBitDepth == 0 {
		return 16
	}
	return b.PCM.SourceBitDepth
}

// Frames returns the number of sample frames (samples per channel)
func (b *Buffer) Frames() int {
	if b.Channels() == 0 {
		return 0
	}
	return len(b.PCM.Data) / b.Channels()
}

// DurationMillis returns the length of the audio in whole milliseconds
func (b *Buffer) DurationMillis() int64 {
	return MillisFromFrames(b.Frames(), b.SampleRate())
}

// DurationString returns a human-readable duration string (M:SS.mmm format)
func (b *Buffer) DurationString() string {
	ms := b.DurationMillis()
	minutes := ms / 60000
	seconds := (ms % 60000) / 1000
	return fmt.Sprintf("%d:%02d.%03d", minutes, seconds, ms%1000)
}

// SameFormat reports whether two buffers can be concatenated sample for sample
func (b *Buffer) SameFormat(other *Buffer) bool {
	return b.SampleRate() == other.SampleRate() &&
		b.Channels() == other.Channels() &&
		b.BitDepth() == other.BitDepth()
}

// Slice returns a copy of frames [start, end). Bounds clamp to the buffer.
func (b *Buffer) Slice(start, end int) *Buffer {
	frames := b.Frames()
	start = clamp(start, 0, frames)
	end = clamp(end, start, frames)

	ch := b.Channels()
	out := NewBuffer(end-start, b.SampleRate(), ch)
	out.PCM.SourceBitDepth = b.BitDepth()
	copy(out.PCM.Data, b.PCM.Data[start*ch:end*ch])
	return out
}

// FramesFromMillis converts milliseconds to a frame count, truncating.
// Slicing and silence generation both go through here so they round the same way.
func FramesFromMillis(ms int64, sampleRate int) int {
	if ms <= 0 {
		return 0
	}
	return int(ms * int64(sampleRate) / 1000)
}

// MillisFromFrames converts a frame count to milliseconds, truncating
func MillisFromFrames(frames, sampleRate int) int64 {
	if sampleRate <= 0 {
		return 0
	}
	return int64(frames) * 1000 / int64(sampleRate)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
