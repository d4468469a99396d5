package analysis

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// SilenceOpts configures silence detection.
type SilenceOpts struct {
	// ThresholdDB is the level in dBFS below which a window counts as silent.
	// Used as given: 0 means full scale. DefaultSilenceOpts sets -40 dBFS.
	ThresholdDB float64

	// MinSilenceMs is the shortest span reported.
	// Default: 500 milliseconds.
	MinSilenceMs int

	// WindowMs is the RMS analysis window.
	// Default: 10 milliseconds.
	WindowMs int
}

// DefaultSilenceOpts returns the default options for silence detection.
func DefaultSilenceOpts() SilenceOpts {
	return SilenceOpts{
		ThresholdDB:  -40,
		MinSilenceMs: 500,
		WindowMs:     10,
	}
}

// Span is a silent region in milliseconds, end exclusive
type Span struct {
	StartMs int64
	EndMs   int64
}

// DurationMs returns the length of the span
func (s Span) DurationMs() int64 { return s.EndMs - s.StartMs }

// RMSdBFS returns the RMS level of normalized samples in dBFS.
// Digital silence returns -Inf.
func RMSdBFS(samples []float64) float64 {
	if len(samples) == 0 {
		return math.Inf(-1)
	}
	rms := math.Sqrt(floats.Dot(samples, samples) / float64(len(samples)))
	if rms == 0 {
		return math.Inf(-1)
	}
	return 20 * math.Log10(rms)
}

// DetectSilence scans mono samples and returns every span quieter than
// opts.ThresholdDB that lasts at least opts.MinSilenceMs.
func DetectSilence(mono []float64, sampleRate int, opts SilenceOpts) []Span {
	def := DefaultSilenceOpts()
	if opts.WindowMs <= 0 {
		opts.WindowMs = def.WindowMs
	}
	if opts.MinSilenceMs <= 0 {
		opts.MinSilenceMs = def.MinSilenceMs
	}

	window := sampleRate * opts.WindowMs / 1000
	if window < 1 || len(mono) == 0 {
		return nil
	}

	var spans []Span
	runStart := -1

	flush := func(end int) {
		if runStart < 0 {
			return
		}
		span := Span{
			StartMs: int64(runStart) * 1000 / int64(sampleRate),
			EndMs:   int64(end) * 1000 / int64(sampleRate),
		}
		if span.DurationMs() >= int64(opts.MinSilenceMs) {
			spans = append(spans, span)
		}
		runStart = -1
	}

	for start := 0; start < len(mono); start += window {
		end := start + window
		if end > len(mono) {
			end = len(mono)
		}

		if RMSdBFS(mono[start:end]) < opts.ThresholdDB {
			if runStart < 0 {
				runStart = start
			}
		} else {
			flush(start)
		}
	}
	flush(len(mono))

	return spans
}

// LevelBetween returns the RMS level in dBFS of mono[startMs, endMs)
func LevelBetween(mono []float64, sampleRate int, startMs, endMs int64) float64 {
	start := clampIndex(int(startMs*int64(sampleRate)/1000), len(mono))
	end := clampIndex(int(endMs*int64(sampleRate)/1000), len(mono))
	if start >= end {
		return math.Inf(-1)
	}
	return RMSdBFS(mono[start:end])
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i > n {
		return n
	}
	return i
}
