package audio

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
)

// FFmpegEncoder pipes raw PCM through an ffmpeg process using libmp3lame
type FFmpegEncoder struct {
	Binary      string
	BitrateKbps int
}

func (e *FFmpegEncoder) Name() string { return EncoderFFmpeg }

// Encode writes buf to w as MP3
func (e *FFmpegEncoder) Encode(ctx context.Context, w io.Writer, buf *Buffer) error {
	bin, err := exec.LookPath(e.Binary)
	if err != nil {
		return fmt.Errorf("%w: %s not found in PATH", ErrEncoderUnavailable, e.Binary)
	}

	pcm := new(bytes.Buffer)
	pcm.Grow(len(buf.PCM.Data) * 2)
	if err := binary.Write(pcm, binary.LittleEndian, int16Samples(buf)); err != nil {
		return fmt.Errorf("failed to pack PCM: %w", err)
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, e.args(buf)...)
	cmd.Stdin = pcm
	cmd.Stdout = w
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return fmt.Errorf("ffmpeg failed: %w", err)
		}
		return fmt.Errorf("ffmpeg failed: %w: %s", err, lastLine(msg))
	}
	return nil
}

func (e *FFmpegEncoder) args(buf *Buffer) []string {
	bitrate := e.BitrateKbps
	if bitrate <= 0 {
		bitrate = DefaultBitrateKbps
	}
	return []string{
		"-hide_banner",
		"-loglevel", "error",
		"-f", "s16le",
		"-ar", strconv.Itoa(buf.SampleRate()),
		"-ac", strconv.Itoa(buf.Channels()),
		"-i", "pipe:0",
		"-c:a", "libmp3lame",
		"-b:a", strconv.Itoa(bitrate) + "k",
		"-f", "mp3",
		"pipe:1",
	}
}

func lastLine(s string) string {
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	return s
}
