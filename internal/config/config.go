package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/shidetake/splicer/internal/audio"
	"github.com/shidetake/splicer/internal/splice"
)

const (
	DefaultInputPath   = "public/voiceover.mp3"
	DefaultOutputPath  = "public/voiceover-with-pause.mp3"
	DefaultInsertAtMs  = 55000
	DefaultSilenceMs   = 1000
	DefaultEncoder     = audio.EncoderShine
	DefaultBitrateKbps = audio.DefaultBitrateKbps
	DefaultOverflow    = string(splice.OverflowClamp)
	DefaultLogLevel    = "warn"
)

// Config holds the splice configuration.
type Config struct {
	InputPath   string `json:"input"`
	OutputPath  string `json:"output"`
	InsertAtMs  int64  `json:"insert_at_ms"`
	SilenceMs   int64  `json:"silence_ms"`
	Encoder     string `json:"encoder"`
	BitrateKbps int    `json:"bitrate_kbps"`
	Overflow    string `json:"overflow"`
	LogLevel    string `json:"log_level"`
}

// Default returns the configuration reproducing the voiceover pause edit.
func Default() Config {
	return Config{
		InputPath:   DefaultInputPath,
		OutputPath:  DefaultOutputPath,
		InsertAtMs:  DefaultInsertAtMs,
		SilenceMs:   DefaultSilenceMs,
		Encoder:     DefaultEncoder,
		BitrateKbps: DefaultBitrateKbps,
		Overflow:    DefaultOverflow,
		LogLevel:    DefaultLogLevel,
	}
}

// Validate checks that the configuration describes a runnable splice.
func (c Config) Validate() error {
	if strings.TrimSpace(c.InputPath) == "" {
		return fmt.Errorf("config: input path is required")
	}
	if strings.TrimSpace(c.OutputPath) == "" {
		return fmt.Errorf("config: output path is required")
	}
	if filepath.Clean(c.InputPath) == filepath.Clean(c.OutputPath) {
		return fmt.Errorf("config: output path must differ from input path (%s)", c.InputPath)
	}
	if c.InsertAtMs < 0 {
		return fmt.Errorf("config: insertion point must be non-negative, got %d ms", c.InsertAtMs)
	}
	if c.SilenceMs < 0 {
		return fmt.Errorf("config: silence duration must be non-negative, got %d ms", c.SilenceMs)
	}
	if c.BitrateKbps <= 0 {
		return fmt.Errorf("config: bitrate must be positive, got %d kbps", c.BitrateKbps)
	}
	if _, err := audio.NewEncoder(c.Encoder, c.BitrateKbps); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if _, err := splice.ParseOverflow(c.Overflow); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	switch strings.ToLower(c.LogLevel) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("config: unknown log level %q", c.LogLevel)
	}
	return nil
}
