package audio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Encoder names accepted by NewEncoder
const (
	EncoderShine  = "shine"
	EncoderFFmpeg = "ffmpeg"
)

// DefaultBitrateKbps matches the constant bitrate the voiceover pipeline has always used
const DefaultBitrateKbps = 128

// ErrEncoderUnavailable is returned when the selected encoder backend cannot run on this host
var ErrEncoderUnavailable = errors.New("encoder unavailable")

// Encoder writes a Buffer as MP3 data
type Encoder interface {
	Name() string
	Encode(ctx context.Context, w io.Writer, buf *Buffer) error
}

// NewEncoder returns the encoder backend with the given name
func NewEncoder(name string, bitrateKbps int) (Encoder, error) {
	switch name {
	case EncoderShine, "":
		return &ShineEncoder{}, nil
	case EncoderFFmpeg:
		if bitrateKbps <= 0 {
			bitrateKbps = DefaultBitrateKbps
		}
		return &FFmpegEncoder{Binary: "ffmpeg", BitrateKbps: bitrateKbps}, nil
	default:
		return nil, fmt.Errorf("unknown encoder %q (want %s or %s)", name, EncoderShine, EncoderFFmpeg)
	}
}

// WriteFileAtomic encodes buf into a temporary file next to path and renames it
// into place once the encoder has finished. On failure nothing is left at path.
func WriteFileAtomic(ctx context.Context, path string, buf *Buffer, enc Encoder) (err error) {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create output file in %s: %w", dir, err)
	}
	tmpPath := tmp.Name()

	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	if err = enc.Encode(ctx, tmp, buf); err != nil {
		return fmt.Errorf("%s encoder: %w", enc.Name(), err)
	}
	if err = tmp.Chmod(outputMode(path)); err != nil {
		return fmt.Errorf("failed to set mode on %s: %w", tmpPath, err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("failed to flush %s: %w", tmpPath, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", tmpPath, err)
	}
	if err = os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to move output into place at %s: %w", path, err)
	}
	return nil
}

// outputMode keeps the permissions of a file being replaced and defaults to 0644
func outputMode(path string) os.FileMode {
	if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
		return info.Mode().Perm()
	}
	return 0o644
}
