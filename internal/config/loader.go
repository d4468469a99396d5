package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variables read by Loader
const (
	EnvInput    = "SPLICER_INPUT"
	EnvOutput   = "SPLICER_OUTPUT"
	EnvInsertAt = "SPLICER_INSERT_AT_MS"
	EnvSilence  = "SPLICER_SILENCE_MS"
	EnvEncoder  = "SPLICER_ENCODER"
	EnvBitrate  = "SPLICER_BITRATE_KBPS"
	EnvOverflow = "SPLICER_OVERFLOW"
	EnvLogLevel = "SPLICER_LOG_LEVEL"
)

// Loader loads configuration from an optional .env file and environment
// variables. Tests can override Lookup to inject deterministic maps.
type Loader struct {
	// EnvFile is read with godotenv before the environment. A missing file is ignored.
	EnvFile string
	Lookup  func(string) (string, bool)
}

// Load returns defaults overridden by the .env file and then by the process
// environment. The result is not validated; flags may still change it.
func (l Loader) Load() (Config, error) {
	lookup := l.Lookup
	if lookup == nil {
		lookup = os.LookupEnv
	}

	if l.EnvFile != "" {
		fileVars, err := godotenv.Read(l.EnvFile)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("config: read %s: %w", l.EnvFile, err)
		}
		lookup = layered(lookup, fileVars)
	}

	cfg := Default()

	overrideString(lookup, EnvInput, &cfg.InputPath)
	overrideString(lookup, EnvOutput, &cfg.OutputPath)
	overrideString(lookup, EnvEncoder, &cfg.Encoder)
	overrideString(lookup, EnvOverflow, &cfg.Overflow)
	overrideString(lookup, EnvLogLevel, &cfg.LogLevel)
	if err := overrideInt64(lookup, EnvInsertAt, &cfg.InsertAtMs); err != nil {
		return Config{}, err
	}
	if err := overrideInt64(lookup, EnvSilence, &cfg.SilenceMs); err != nil {
		return Config{}, err
	}
	if err := overrideInt(lookup, EnvBitrate, &cfg.BitrateKbps); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// layered prefers the process environment and falls back to values from the .env file
func layered(env func(string) (string, bool), file map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		if v, ok := env(key); ok && strings.TrimSpace(v) != "" {
			return v, true
		}
		v, ok := file[key]
		return v, ok
	}
}

func overrideString(lookup func(string) (string, bool), key string, target *string) {
	if value, ok := lookup(key); ok && strings.TrimSpace(value) != "" {
		*target = strings.TrimSpace(value)
	}
}

func overrideInt(lookup func(string) (string, bool), key string, target *int) error {
	if value, ok := lookup(key); ok && strings.TrimSpace(value) != "" {
		parsed, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("config: invalid value for %s: %w", key, err)
		}
		*target = parsed
	}
	return nil
}

func overrideInt64(lookup func(string) (string, bool), key string, target *int64) error {
	if value, ok := lookup(key); ok && strings.TrimSpace(value) != "" {
		parsed, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
		if err != nil {
			return fmt.Errorf("config: invalid value for %s: %w", key, err)
		}
		*target = parsed
	}
	return nil
}
