package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/shidetake/splicer/internal/audio"
	"github.com/shidetake/splicer/internal/config"
	"github.com/shidetake/splicer/internal/splice"
)

// Run executes the splice described by cfg and prints the status line on success
func Run(ctx context.Context, cfg config.Config, stdout, stderr io.Writer) error {
	logger := newLogger(cfg.LogLevel, stderr)

	enc, err := audio.NewEncoder(cfg.Encoder, cfg.BitrateKbps)
	if err != nil {
		return err
	}

	logger.Info("splicing",
		"input", cfg.InputPath,
		"output", cfg.OutputPath,
		"insert_at_ms", cfg.InsertAtMs,
		"silence_ms", cfg.SilenceMs,
		"encoder", enc.Name(),
		"overflow", cfg.Overflow)

	res, err := splice.Splice(ctx, splice.Options{
		InputPath:  cfg.InputPath,
		OutputPath: cfg.OutputPath,
		InsertAtMs: cfg.InsertAtMs,
		SilenceMs:  cfg.SilenceMs,
		Overflow:   splice.Overflow(cfg.Overflow),
		Encoder:    enc,
		Logger:     logger,
	})
	if err != nil {
		return err
	}

	logger.Info("spliced",
		"input_duration_ms", res.InputDurationMs,
		"output_duration_ms", res.OutputDurationMs,
		"inserted_at_ms", res.InsertedAtMs,
		"clamped", res.Clamped)

	fmt.Fprintf(stdout, "Done! Saved to %s\n", res.OutputPath)
	return nil
}

func newLogger(level string, w io.Writer) *slog.Logger {
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: parseLevel(level),
	})
	return slog.New(handler)
}

func parseLevel(value string) slog.Leveler {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning", "":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}
