package audio

import (
	"context"
	"fmt"
	"io"

	"github.com/braheezy/shine-mp3/pkg/mp3"
)

// shineRates lists the MPEG-1, MPEG-2 and MPEG-2.5 sample rates shine can encode
var shineRates = map[int]bool{
	48000: true, 44100: true, 32000: true,
	24000: true, 22050: true, 16000: true,
	12000: true, 11025: true, 8000: true,
}

// ShineEncoder is a pure-Go MP3 encoder; it needs no external binaries
type ShineEncoder struct{}

func (e *ShineEncoder) Name() string { return EncoderShine }

// Encode writes buf to w as MP3
func (e *ShineEncoder) Encode(ctx context.Context, w io.Writer, buf *Buffer) error {
	if !shineRates[buf.SampleRate()] {
		return fmt.Errorf("unsupported sample rate %d Hz", buf.SampleRate())
	}
	if ch := buf.Channels(); ch != 1 && ch != 2 {
		return fmt.Errorf("unsupported channel count %d", ch)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if buf.Frames() == 0 {
		return nil
	}

	enc := mp3.NewEncoder(buf.SampleRate(), buf.Channels())
	if err := enc.Write(w, shineLayout(buf)); err != nil {
		return fmt.Errorf("failed to write MP3 data: %w", err)
	}
	return nil
}

// shineFrameSamples is the number of frames per channel shine consumes for one MP3 frame
func shineFrameSamples(sampleRate int) int {
	if sampleRate >= 32000 {
		return 1152 // MPEG-1: two granules
	}
	return 576
}

// shineLayout arranges samples the way shine's Write walks them. Write advances
// 2*pass samples per MP3 frame and reads pass*channels of them through an
// unsafe pointer, so every pass is a whole zero-padded block (mono samples
// fill the first half) and the backing array keeps one spare block past len
// for the pointer the encoder leaves behind after the last frame.
func shineLayout(buf *Buffer) []int16 {
	pass := shineFrameSamples(buf.SampleRate())
	block := 2 * pass
	frames := buf.Frames()
	passes := (frames + pass - 1) / pass

	out := make([]int16, (passes+1)*block)
	samples := int16Samples(buf)

	if buf.Channels() == 2 {
		copy(out, samples)
	} else {
		for p := 0; p < passes; p++ {
			start := p * pass
			end := min(start+pass, frames)
			copy(out[p*block:], samples[start:end])
		}
	}

	return out[:passes*block]
}
