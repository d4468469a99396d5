package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/hajimehoshi/go-mp3"
)

// go-mp3 always emits 16-bit little-endian stereo; mono streams are duplicated to both channels
const (
	mp3DecodedChannels = 2
	mp3BitDepth        = 16
)

// DecodeMP3 reads an MP3 file into a Buffer
func DecodeMP3(path string) (*Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open MP3 file %s: %w", path, err)
	}
	defer f.Close()

	buf, err := ReadMP3(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	buf.Path = path
	return buf, nil
}

// ReadMP3 decodes an MP3 stream into a Buffer with the channel count of the stream
func ReadMP3(r io.Reader) (*Buffer, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read mp3 data: %w", err)
	}

	decoder, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create mp3 decoder: %w", err)
	}

	raw, err := io.ReadAll(decoder)
	if err != nil {
		return nil, fmt.Errorf("mp3 decode error: %w", err)
	}

	frames := len(raw) / (2 * mp3DecodedChannels)
	if frames == 0 {
		return nil, fmt.Errorf("mp3 stream contains no audio frames")
	}

	channels := StreamChannels(data)
	buf := NewBuffer(frames, decoder.SampleRate(), channels)
	buf.PCM.SourceBitDepth = mp3BitDepth

	// Convert bytes to int16 samples, keeping only the left copy of mono streams
	for i := 0; i < frames; i++ {
		for c := 0; c < channels; c++ {
			off := (i*mp3DecodedChannels + c) * 2
			buf.PCM.Data[i*channels+c] = int(int16(binary.LittleEndian.Uint16(raw[off:])))
		}
	}

	return buf, nil
}

// StreamChannels returns 1 when the first MPEG audio frame header of data is
// in mono mode and 2 otherwise
func StreamChannels(data []byte) int {
	pos := id3v2Size(data)
	for i := pos; i+4 <= len(data); i++ {
		if !isFrameHeader(data[i:]) {
			continue
		}
		if data[i+3]>>6 == 3 {
			return 1
		}
		return 2
	}
	return mp3DecodedChannels
}

// id3v2Size returns the length of a leading ID3v2 tag, or 0
func id3v2Size(data []byte) int {
	if len(data) < 10 || string(data[:3]) != "ID3" {
		return 0
	}
	size := int(data[6]&0x7f)<<21 | int(data[7]&0x7f)<<14 | int(data[8]&0x7f)<<7 | int(data[9]&0x7f)
	size += 10
	if data[5]&0x10 != 0 {
		size += 10 // footer
	}
	return size
}

func isFrameHeader(h []byte) bool {
	if h[0] != 0xff || h[1]&0xe0 != 0xe0 {
		return false
	}
	version := (h[1] >> 3) & 0x03
	layer := (h[1] >> 1) & 0x03
	bitrate := h[2] >> 4
	rate := (h[2] >> 2) & 0x03
	return version != 1 && layer != 0 && bitrate != 0x0f && rate != 0x03
}

// int16Samples flattens the buffer to interleaved int16, saturating out-of-range values
func int16Samples(buf *Buffer) []int16 {
	out := make([]int16, len(buf.PCM.Data))
	for i, v := range buf.PCM.Data {
		switch {
		case v > 32767:
			v = 32767
		case v < -32768:
			v = -32768
		}
		out[i] = int16(v)
	}
	return out
}
