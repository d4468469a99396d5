package analysis

import (
	"fmt"
	"math"

	"github.com/shidetake/splicer/internal/audio"
)

// VerifyOptions describes the splice a spliced file is expected to contain
type VerifyOptions struct {
	InsertAtMs       int64
	SilenceMs        int64
	ToleranceMs      int64   // allowed drift from codec delay and frame padding (default 100)
	ProbeMs          int64   // length of audio correlated on each side of the splice (default 2000)
	ThresholdDB      float64 // level the inserted span must stay under, used as given
	DownsampleFactor int     // decimation before correlation (default 4)
}

// DefaultVerifyOptions returns the verification defaults for a splice of
// silenceMs at insertAtMs
func DefaultVerifyOptions(insertAtMs, silenceMs int64) VerifyOptions {
	return VerifyOptions{
		InsertAtMs:       insertAtMs,
		SilenceMs:        silenceMs,
		ToleranceMs:      100,
		ProbeMs:          2000,
		ThresholdDB:      DefaultSilenceOpts().ThresholdDB,
		DownsampleFactor: 4,
	}
}

// setDefaults fills in the non-positive tuning fields
func (o *VerifyOptions) setDefaults() {
	if o.ToleranceMs <= 0 {
		o.ToleranceMs = 100
	}
	if o.ProbeMs <= 0 {
		o.ProbeMs = 2000
	}
	if o.DownsampleFactor < 1 {
		o.DownsampleFactor = 4
	}
}

// Check is the outcome of a single verification step
type Check struct {
	Name    string
	OK      bool
	Skipped bool
	Detail  string
}

// Report collects the verification checks for one spliced file
type Report struct {
	OriginalDurationMs int64
	SplicedDurationMs  int64
	EffectiveInsertMs  int64 // insertion point after clamping to the original length
	Checks             []Check
}

// Passed reports whether no check failed
func (r *Report) Passed() bool {
	for _, c := range r.Checks {
		if !c.OK && !c.Skipped {
			return false
		}
	}
	return true
}

// Verify compares an original recording with its spliced version and checks that
// the spliced one is the original with SilenceMs of silence at InsertAtMs.
func Verify(original, spliced *audio.Buffer, opts VerifyOptions) (*Report, error) {
	if original.SampleRate() != spliced.SampleRate() {
		return nil, fmt.Errorf("sample rate mismatch: original (%d Hz) vs spliced (%d Hz)",
			original.SampleRate(), spliced.SampleRate())
	}
	if opts.InsertAtMs < 0 || opts.SilenceMs < 0 {
		return nil, fmt.Errorf("insertion point and silence must be non-negative")
	}
	opts.setDefaults()

	rate := original.SampleRate()
	origMono := audio.ToMono(original)
	splicedMono := audio.ToMono(spliced)

	report := &Report{
		OriginalDurationMs: original.DurationMillis(),
		SplicedDurationMs:  spliced.DurationMillis(),
		EffectiveInsertMs:  opts.InsertAtMs,
	}
	if report.EffectiveInsertMs > report.OriginalDurationMs {
		report.EffectiveInsertMs = report.OriginalDurationMs
	}
	at := report.EffectiveInsertMs

	// Duration grows by the silence
	delta := report.SplicedDurationMs - report.OriginalDurationMs
	report.Checks = append(report.Checks, Check{
		Name:   "duration",
		OK:     abs64(delta-opts.SilenceMs) <= opts.ToleranceMs,
		Detail: fmt.Sprintf("grew by %d ms (expected %d ms)", delta, opts.SilenceMs),
	})

	// The inserted span is silent; stay clear of the edges by the tolerance
	report.Checks = append(report.Checks, silenceCheck(splicedMono, rate, at, opts))

	// Content before the insertion point is not shifted
	headStart := max(at-opts.ProbeMs, 0)
	report.Checks = append(report.Checks, alignmentCheck("head",
		origMono, splicedMono, rate,
		headStart, at,
		headStart, at+opts.ToleranceMs,
		0, opts))

	// Content after the insertion point is shifted by the silence
	tailEnd := min(at+opts.ProbeMs, report.OriginalDurationMs)
	report.Checks = append(report.Checks, alignmentCheck("tail",
		origMono, splicedMono, rate,
		at, tailEnd,
		at, tailEnd+opts.SilenceMs+opts.ToleranceMs,
		opts.SilenceMs, opts))

	return report, nil
}

func silenceCheck(mono []float64, rate int, at int64, opts VerifyOptions) Check {
	margin := min(opts.ToleranceMs, opts.SilenceMs/4)
	start, end := at+margin, at+opts.SilenceMs-margin
	if end <= start {
		return Check{Name: "silence", Skipped: true, Detail: "inserted span too short to measure"}
	}

	level := LevelBetween(mono, rate, start, end)
	return Check{
		Name:   "silence",
		OK:     level < opts.ThresholdDB,
		Detail: fmt.Sprintf("%s over [%d, %d) ms (threshold %.0f dBFS)", formatDB(level), start, end, opts.ThresholdDB),
	}
}

// alignmentCheck locates original[probeStart, probeEnd) inside spliced[searchStart, searchEnd)
// and expects it at expectMs from searchStart
func alignmentCheck(name string, orig, spliced []float64, rate int,
	probeStart, probeEnd, searchStart, searchEnd, expectMs int64, opts VerifyOptions) Check {

	toIdx := func(ms int64) int { return audio.FramesFromMillis(ms, rate) }

	if probeEnd-probeStart < opts.ToleranceMs {
		return Check{Name: name, Skipped: true, Detail: "not enough audio on this side of the splice"}
	}

	probe, err := extractSegment(orig, toIdx(probeStart), min(toIdx(probeEnd), len(orig)))
	if err != nil {
		return Check{Name: name, Detail: err.Error()}
	}
	if RMSdBFS(probe) < -60 {
		return Check{Name: name, Skipped: true, Detail: "probe is silent, nothing to align"}
	}

	region, err := extractSegment(spliced, toIdx(searchStart), min(toIdx(searchEnd), len(spliced)))
	if err != nil {
		return Check{Name: name, Detail: fmt.Sprintf("spliced audio too short: %v", err)}
	}

	offset, err := DetectOffset(region, probe, rate, opts.DownsampleFactor)
	if err != nil {
		return Check{Name: name, Detail: err.Error()}
	}

	gotMs := int64(math.Round(offset.OffsetSeconds * 1000))
	return Check{
		Name: name,
		OK:   abs64(gotMs-expectMs) <= opts.ToleranceMs,
		Detail: fmt.Sprintf("offset %s (expected %s, confidence %.2f)",
			FormatOffsetSeconds(offset.OffsetSeconds), FormatOffsetSeconds(float64(expectMs)/1000), offset.Confidence),
	}
}

// FormatOffsetSeconds formats seconds to a human-readable string with sign
func FormatOffsetSeconds(seconds float64) string {
	absSeconds := math.Abs(seconds)
	sign := ""
	if seconds > 0 {
		sign = "+"
	} else if seconds < 0 {
		sign = "-"
	}
	return fmt.Sprintf("%s%.3fs", sign, absSeconds)
}

func formatDB(db float64) string {
	if math.IsInf(db, -1) {
		return "-inf dBFS"
	}
	return fmt.Sprintf("%.1f dBFS", db)
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
