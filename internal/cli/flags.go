package cli

import (
	"github.com/spf13/cobra"

	"github.com/shidetake/splicer/internal/config"
)

// spliceFlags holds the raw command-line values for the splice command
type spliceFlags struct {
	envFile    string
	input      string
	output     string
	insertAtMs int64
	silenceMs  int64
	encoder    string
	bitrate    int
	overflow   string
	verbose    bool
}

func (f *spliceFlags) bind(cmd *cobra.Command) {
	def := config.Default()

	cmd.PersistentFlags().StringVar(&f.envFile, "env-file", ".env", "Dotenv file with SPLICER_* settings (ignored if missing)")
	cmd.PersistentFlags().BoolVarP(&f.verbose, "verbose", "v", false, "Log each step to stderr")

	cmd.Flags().StringVarP(&f.input, "input", "i", def.InputPath, "Path to the input MP3 file")
	cmd.Flags().StringVarP(&f.output, "output", "o", def.OutputPath, "Path to write the spliced MP3 file (overwritten)")
	cmd.Flags().Int64Var(&f.insertAtMs, "at", def.InsertAtMs, "Insertion point in milliseconds")
	cmd.Flags().Int64Var(&f.silenceMs, "silence", def.SilenceMs, "Silence duration in milliseconds")
	cmd.Flags().StringVar(&f.encoder, "encoder", def.Encoder, "MP3 encoder backend: shine or ffmpeg")
	cmd.Flags().IntVar(&f.bitrate, "bitrate", def.BitrateKbps, "Bitrate in kbps for the ffmpeg encoder")
	cmd.Flags().StringVar(&f.overflow, "overflow", def.Overflow, "When --at is past the end: clamp, error or pad")
}

// resolve layers explicitly set flags over the environment and validates the result
func (f *spliceFlags) resolve(cmd *cobra.Command) (config.Config, error) {
	cfg, err := loadConfig(f.envFile)
	if err != nil {
		return config.Config{}, err
	}

	changed := cmd.Flags().Changed
	if changed("input") {
		cfg.InputPath = f.input
	}
	if changed("output") {
		cfg.OutputPath = f.output
	}
	if changed("at") {
		cfg.InsertAtMs = f.insertAtMs
	}
	if changed("silence") {
		cfg.SilenceMs = f.silenceMs
	}
	if changed("encoder") {
		cfg.Encoder = f.encoder
	}
	if changed("bitrate") {
		cfg.BitrateKbps = f.bitrate
	}
	if changed("overflow") {
		cfg.Overflow = f.overflow
	}
	if f.verbose {
		cfg.LogLevel = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}
