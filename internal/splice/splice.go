// Package splice inserts a span of silence into an MP3 file.
package splice

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/shidetake/splicer/internal/audio"
)

// Overflow decides what happens when the insertion point is past the end of the input
type Overflow string

const (
	// OverflowClamp inserts at the end of the input instead
	OverflowClamp Overflow = "clamp"
	// OverflowError fails with a RangeError
	OverflowError Overflow = "error"
	// OverflowPad pads with silence up to the insertion point first
	OverflowPad Overflow = "pad"
)

// ParseOverflow validates an overflow policy name
func ParseOverflow(s string) (Overflow, error) {
	switch o := Overflow(s); o {
	case OverflowClamp, OverflowError, OverflowPad:
		return o, nil
	case "":
		return OverflowClamp, nil
	default:
		return "", fmt.Errorf("unknown overflow policy %q (want clamp, error or pad)", s)
	}
}

// Options describes one splice run
type Options struct {
	InputPath  string
	OutputPath string
	InsertAtMs int64
	SilenceMs  int64
	Overflow   Overflow
	Encoder    audio.Encoder
	Logger     *slog.Logger
}

// Result summarizes a completed splice
type Result struct {
	OutputPath       string
	InputDurationMs  int64
	OutputDurationMs int64
	InsertedAtMs     int64 // where the silence actually starts
	PaddingMs        int64 // extra silence added under OverflowPad
	Clamped          bool
}

// Splice decodes the input, inserts SilenceMs of silence at InsertAtMs and
// writes the result to OutputPath. Nothing is written unless every step succeeds.
func Splice(ctx context.Context, opts Options) (*Result, error) {
	if opts.InsertAtMs < 0 || opts.SilenceMs < 0 {
		return nil, fmt.Errorf("insertion point and silence must be non-negative (got %d ms, %d ms)",
			opts.InsertAtMs, opts.SilenceMs)
	}
	if samePath(opts.InputPath, opts.OutputPath) {
		return nil, fmt.Errorf("output %s would overwrite the input", opts.OutputPath)
	}
	overflow, err := ParseOverflow(string(opts.Overflow))
	if err != nil {
		return nil, err
	}
	enc := opts.Encoder
	if enc == nil {
		enc = &audio.ShineEncoder{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	// Step 1: Decode input
	buf, err := audio.DecodeMP3(opts.InputPath)
	if err != nil {
		return nil, &DecodeError{Path: opts.InputPath, Err: err}
	}
	logger.Debug("decoded input",
		"path", opts.InputPath,
		"sample_rate", buf.SampleRate(),
		"channels", buf.Channels(),
		"duration", buf.DurationString())

	// Step 2: Resolve the insertion point against the decoded length
	rate := buf.SampleRate()
	at := audio.FramesFromMillis(opts.InsertAtMs, rate)
	gap := audio.FramesFromMillis(opts.SilenceMs, rate)
	result := &Result{
		OutputPath:      opts.OutputPath,
		InputDurationMs: buf.DurationMillis(),
		InsertedAtMs:    opts.InsertAtMs,
	}

	if at > buf.Frames() {
		switch overflow {
		case OverflowError:
			return nil, &RangeError{InsertAtMs: opts.InsertAtMs, DurationMs: result.InputDurationMs}
		case OverflowPad:
			pad := at - buf.Frames()
			result.PaddingMs = audio.MillisFromFrames(pad, rate)
			gap += pad
			at = buf.Frames()
			logger.Warn("insertion point beyond end of input, padding with silence",
				"insert_at_ms", opts.InsertAtMs,
				"duration_ms", result.InputDurationMs,
				"padding_ms", result.PaddingMs)
		default:
			at = buf.Frames()
			result.Clamped = true
			result.InsertedAtMs = result.InputDurationMs
			logger.Warn("insertion point beyond end of input, appending silence",
				"insert_at_ms", opts.InsertAtMs,
				"duration_ms", result.InputDurationMs)
		}
	}

	// Step 3: Build the silence segment and splice it between the two halves
	silence := audio.GenerateSilence(buf, gap)
	out, err := audio.Concat(buf.Slice(0, at), silence, buf.Slice(at, buf.Frames()))
	if err != nil {
		return nil, fmt.Errorf("failed to splice silence: %w", err)
	}
	result.OutputDurationMs = out.DurationMillis()
	logger.Debug("inserted silence",
		"at_frame", at,
		"silence_frames", gap,
		"output_duration", out.DurationString())

	// Step 4: Encode and move into place
	if err := audio.WriteFileAtomic(ctx, opts.OutputPath, out, enc); err != nil {
		return nil, &EncodeError{Path: opts.OutputPath, Err: err}
	}
	logger.Debug("wrote output", "path", opts.OutputPath, "encoder", enc.Name())

	return result, nil
}

// samePath reports whether both paths name the same file
func samePath(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA == nil && errB == nil && absA == absB {
		return true
	}
	infoA, errA := os.Stat(a)
	infoB, errB := os.Stat(b)
	return errA == nil && errB == nil && os.SameFile(infoA, infoB)
}
