package audio

import "fmt"

// GenerateSilence creates a zero-amplitude buffer matching the format of ref
func GenerateSilence(ref *Buffer, frames int) *Buffer {
	out := NewBuffer(frames, ref.SampleRate(), ref.Channels())
	out.PCM.SourceBitDepth = ref.BitDepth()
	return out
}

// Concat joins buffers of identical format into a new buffer
func Concat(parts ...*Buffer) (*Buffer, error) {
	if len(parts) == 0 {
		return nil, fmt.Errorf("nothing to concatenate")
	}

	first := parts[0]
	total := 0
	for i, p := range parts {
		if !p.SameFormat(first) {
			return nil, fmt.Errorf("format mismatch at part %d: %d Hz/%d ch vs %d Hz/%d ch",
				i, p.SampleRate(), p.Channels(), first.SampleRate(), first.Channels())
		}
		total += len(p.PCM.Data)
	}

	out := NewBuffer(0, first.SampleRate(), first.Channels())
	out.PCM.SourceBitDepth = first.BitDepth()
	out.PCM.Data = make([]int, 0, total)
	for _, p := range parts {
		out.PCM.Data = append(out.PCM.Data, p.PCM.Data...)
	}
	out.Path = first.Path
	return out, nil
}

// ToMono converts interleaved audio to mono float64 samples normalized to [-1.0, 1.0]
func ToMono(buf *Buffer) []float64 {
	ch := buf.Channels()
	if ch == 0 {
		return nil
	}

	maxVal := float64(int(1) << uint(buf.BitDepth()-1))
	numFrames := buf.Frames()
	mono := make([]float64, numFrames)

	for i := 0; i < numFrames; i++ {
		sum := 0
		for c := 0; c < ch; c++ {
			sum += buf.PCM.Data[i*ch+c]
		}
		mono[i] = float64(sum) / float64(ch) / maxVal
	}

	return mono
}
