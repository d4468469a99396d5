package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shidetake/splicer/internal/config"
	"github.com/shidetake/splicer/internal/splice"
)

// NewRootCommand builds the splicer command tree writing to the given streams
func NewRootCommand(stdout, stderr io.Writer) *cobra.Command {
	flags := &spliceFlags{}

	rootCmd := &cobra.Command{
		Use:   "splicer [flags]",
		Short: "Insert a pause into an MP3 file",
		Long: `Splicer - MP3 Pause Inserter

Decodes an MP3 file, inserts a span of silence at a given timestamp and
writes the result as a new MP3 file. The input is never modified.

Defaults reproduce the voiceover edit: 1000 ms of silence at 55000 ms,
public/voiceover.mp3 -> public/voiceover-with-pause.mp3.

Example:
  splicer
  splicer -i talk.mp3 -o talk-paused.mp3 --at 90000 --silence 1500
  splicer --encoder ffmpeg --bitrate 192 --overflow pad

Environment:
  SPLICER_INPUT, SPLICER_OUTPUT, SPLICER_INSERT_AT_MS, SPLICER_SILENCE_MS,
  SPLICER_ENCODER, SPLICER_BITRATE_KBPS, SPLICER_OVERFLOW, SPLICER_LOG_LEVEL
  (also read from the --env-file, default .env)`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.resolve(cmd)
			if err != nil {
				return err
			}

			// Validate input file before doing any work
			if err := validateFile(cfg.InputPath); err != nil {
				return &splice.DecodeError{Path: cfg.InputPath, Err: err}
			}

			return Run(cmd.Context(), cfg, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
		SilenceUsage:  true, // Don't show usage on errors during execution
		SilenceErrors: true, // main prints the error
	}

	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	flags.bind(rootCmd)

	rootCmd.AddCommand(newInspectCommand(), newVerifyCommand())

	return rootCmd
}

// Execute runs the root command
func Execute(ctx context.Context) error {
	return NewRootCommand(os.Stdout, os.Stderr).ExecuteContext(ctx)
}

// validateFile checks if a file exists and has .mp3 extension
func validateFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("file does not exist: %s: %w", path, err)
		}
		return fmt.Errorf("cannot access file: %w", err)
	}

	if info.IsDir() {
		return fmt.Errorf("path is a directory, not a file: %s", path)
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".mp3" {
		return fmt.Errorf("file must be MP3 format (got %s): %s", ext, path)
	}

	return nil
}

// loadConfig reads defaults, the .env file and the environment
func loadConfig(envFile string) (config.Config, error) {
	return config.Loader{EnvFile: envFile}.Load()
}
