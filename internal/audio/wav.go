package audio

import (
	"fmt"
	"os"

	"github.com/go-audio/wav"
)

// WriteWAV writes the buffer as a PCM WAV file
func WriteWAV(path string, buf *Buffer) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create WAV file %s: %w", path, err)
	}
	defer f.Close()

	encoder := wav.NewEncoder(f, buf.SampleRate(), buf.BitDepth(), buf.Channels(), 1)

	if err := encoder.Write(buf.PCM); err != nil {
		return fmt.Errorf("failed to write WAV data to %s: %w", path, err)
	}

	// Close patches the RIFF header sizes, so its error matters
	if err := encoder.Close(); err != nil {
		return fmt.Errorf("failed to finalize WAV file %s: %w", path, err)
	}

	return nil
}
