package analysis

import (
	"math"
	"math/rand"
	"testing"

	"github.com/shidetake/splicer/internal/audio"
)

const testRate = 8000

// noise returns deterministic white noise in [-0.5, 0.5)
func noise(n int, seed int64) []float64 {
	r := rand.New(rand.NewSource(seed))
	out := make([]float64, n)
	for i := range out {
		out[i] = r.Float64() - 0.5
	}
	return out
}

// withSilence returns buf with gapMs of silence spliced in at atMs
func withSilence(t *testing.T, buf *audio.Buffer, atMs, gapMs int64) *audio.Buffer {
	t.Helper()
	at := audio.FramesFromMillis(atMs, buf.SampleRate())
	gap := audio.FramesFromMillis(gapMs, buf.SampleRate())
	out, err := audio.Concat(buf.Slice(0, at), audio.GenerateSilence(buf, gap), buf.Slice(at, buf.Frames()))
	if err != nil {
		t.Fatalf("Concat: %v", err)
	}
	return out
}

// monoBuffer packs normalized samples into a 16-bit mono buffer
func monoBuffer(samples []float64, sampleRate int) *audio.Buffer {
	buf := audio.NewBuffer(len(samples), sampleRate, 1)
	for i, v := range samples {
		buf.PCM.Data[i] = int(v * 32767)
	}
	return buf
}

func TestDetectOffset(t *testing.T) {
	mixed := noise(4000, 1)

	tests := []struct {
		name       string
		start      int
		downsample int
	}{
		{"at start", 0, 1},
		{"middle", 1234, 1},
		{"middle downsampled", 1200, 4},
		{"near end", 3000, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			local := mixed[tt.start : tt.start+800]

			res, err := DetectOffset(mixed, local, testRate, tt.downsample)
			if err != nil {
				t.Fatalf("DetectOffset: %v", err)
			}

			if d := res.OffsetSamples - tt.start; d < -tt.downsample || d > tt.downsample {
				t.Errorf("OffsetSamples = %d, want %d", res.OffsetSamples, tt.start)
			}
			if res.Confidence < 0.5 {
				t.Errorf("Confidence = %.2f, want a clear peak", res.Confidence)
			}
		})
	}
}

func TestDetectOffsetEmpty(t *testing.T) {
	if _, err := DetectOffset(nil, []float64{1}, testRate, 1); err == nil {
		t.Error("expected error for empty reference")
	}
	if _, err := DetectOffset([]float64{1}, nil, testRate, 1); err == nil {
		t.Error("expected error for empty probe")
	}
}

func TestNextPowerOfTwo(t *testing.T) {
	tests := map[int]int{1: 1, 2: 2, 3: 4, 1000: 1024, 1024: 1024}
	for in, want := range tests {
		if got := nextPowerOfTwo(in); got != want {
			t.Errorf("nextPowerOfTwo(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestRMSdBFS(t *testing.T) {
	if got := RMSdBFS(make([]float64, 100)); !math.IsInf(got, -1) {
		t.Errorf("RMSdBFS(zeros) = %v, want -Inf", got)
	}

	full := make([]float64, 100)
	for i := range full {
		full[i] = 1
	}
	if got := RMSdBFS(full); math.Abs(got) > 1e-9 {
		t.Errorf("RMSdBFS(ones) = %v, want 0", got)
	}

	tenth := make([]float64, 100)
	for i := range tenth {
		tenth[i] = 0.1
	}
	if got := RMSdBFS(tenth); math.Abs(got+20) > 1e-9 {
		t.Errorf("RMSdBFS(0.1) = %v, want -20", got)
	}
}

func TestDetectSilence(t *testing.T) {
	// 1s noise, 0.6s silence, 1s noise, 0.2s silence
	var mono []float64
	mono = append(mono, noise(testRate, 2)...)
	mono = append(mono, make([]float64, testRate*6/10)...)
	mono = append(mono, noise(testRate, 3)...)
	mono = append(mono, make([]float64, testRate*2/10)...)

	spans := DetectSilence(mono, testRate, DefaultSilenceOpts())

	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1: %+v", len(spans), spans)
	}
	if spans[0].StartMs != 1000 || spans[0].EndMs != 1600 {
		t.Errorf("span = [%d, %d), want [1000, 1600)", spans[0].StartMs, spans[0].EndMs)
	}

	opts := DefaultSilenceOpts()
	opts.MinSilenceMs = 100
	short := DetectSilence(mono, testRate, opts)
	if len(short) != 2 {
		t.Fatalf("with 100 ms minimum got %d spans, want 2: %+v", len(short), short)
	}
	if short[1].EndMs != 2800 {
		t.Errorf("trailing span ends at %d, want 2800", short[1].EndMs)
	}
}

func TestDetectSilenceFullScaleThreshold(t *testing.T) {
	var mono []float64
	mono = append(mono, noise(testRate, 2)...)
	mono = append(mono, make([]float64, testRate/2)...)

	// Noise peaks at -6 dBFS, so everything sits under a 0 dBFS threshold
	opts := DefaultSilenceOpts()
	opts.ThresholdDB = 0
	spans := DetectSilence(mono, testRate, opts)

	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1: %+v", len(spans), spans)
	}
	if spans[0].StartMs != 0 || spans[0].EndMs != 1500 {
		t.Errorf("span = [%d, %d), want [0, 1500)", spans[0].StartMs, spans[0].EndMs)
	}
}

func TestVerifyAcceptsCorrectSplice(t *testing.T) {
	orig := monoBuffer(noise(testRate*4, 4), testRate)
	spliced := withSilence(t, orig, 1500, 500)

	report, err := Verify(orig, spliced, DefaultVerifyOptions(1500, 500))
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}

	if !report.Passed() {
		for _, c := range report.Checks {
			t.Logf("%s ok=%v skipped=%v: %s", c.Name, c.OK, c.Skipped, c.Detail)
		}
		t.Fatal("expected report to pass")
	}
	if len(report.Checks) != 4 {
		t.Errorf("got %d checks, want 4", len(report.Checks))
	}
}

func TestVerifyRejectsWrongSplice(t *testing.T) {
	orig := monoBuffer(noise(testRate*4, 5), testRate)
	// Silence landed 700 ms late
	spliced := withSilence(t, orig, 2200, 500)

	report, err := Verify(orig, spliced, DefaultVerifyOptions(1500, 500))
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}

	if report.Passed() {
		t.Fatal("expected report to fail")
	}
	for _, c := range report.Checks {
		if c.Name == "silence" && c.OK {
			t.Error("silence check passed on audio that is not silent")
		}
		if c.Name == "duration" && !c.OK {
			t.Error("duration check should still pass")
		}
	}
}

func TestVerifyClampedSplice(t *testing.T) {
	orig := monoBuffer(noise(testRate, 6), testRate)
	spliced := withSilence(t, orig, 1000, 300)

	report, err := Verify(orig, spliced, DefaultVerifyOptions(55000, 300))
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}

	if report.EffectiveInsertMs != 1000 {
		t.Errorf("EffectiveInsertMs = %d, want 1000", report.EffectiveInsertMs)
	}
	if !report.Passed() {
		t.Fatalf("expected clamped splice to pass: %+v", report.Checks)
	}
}

func TestVerifyFullScaleThreshold(t *testing.T) {
	orig := monoBuffer(noise(testRate*4, 5), testRate)
	spliced := withSilence(t, orig, 2200, 500)

	silenceOK := func(opts VerifyOptions) bool {
		t.Helper()
		report, err := Verify(orig, spliced, opts)
		if err != nil {
			t.Fatalf("Verify: %v", err)
		}
		for _, c := range report.Checks {
			if c.Name == "silence" {
				return c.OK
			}
		}
		t.Fatal("report has no silence check")
		return false
	}

	opts := DefaultVerifyOptions(1500, 500)
	if silenceOK(opts) {
		t.Error("silence check passed on noise at -40 dBFS")
	}
	opts.ThresholdDB = 0
	if !silenceOK(opts) {
		t.Error("silence check failed on noise under a 0 dBFS threshold")
	}
}

func TestDefaultVerifyOptions(t *testing.T) {
	opts := DefaultVerifyOptions(55000, 1000)
	if opts.InsertAtMs != 55000 || opts.SilenceMs != 1000 {
		t.Errorf("splice = %d/%d ms, want 55000/1000 ms", opts.InsertAtMs, opts.SilenceMs)
	}
	if opts.ThresholdDB != DefaultSilenceOpts().ThresholdDB {
		t.Errorf("ThresholdDB = %v, want %v", opts.ThresholdDB, DefaultSilenceOpts().ThresholdDB)
	}
	if opts.ToleranceMs != 100 || opts.ProbeMs != 2000 || opts.DownsampleFactor != 4 {
		t.Errorf("tuning = %+v, want tolerance 100, window 2000, downsample 4", opts)
	}
}

func TestVerifySampleRateMismatch(t *testing.T) {
	a := audio.NewBuffer(10, 44100, 2)
	b := audio.NewBuffer(10, 48000, 2)

	if _, err := Verify(a, b, DefaultVerifyOptions(0, 0)); err == nil {
		t.Fatal("expected sample rate mismatch error")
	}
}

func TestFormatOffsetSeconds(t *testing.T) {
	tests := map[float64]string{
		0:      "0.000s",
		1.5:    "+1.500s",
		-0.025: "-0.025s",
	}
	for in, want := range tests {
		if got := FormatOffsetSeconds(in); got != want {
			t.Errorf("FormatOffsetSeconds(%v) = %q, want %q", in, got, want)
		}
	}
}
