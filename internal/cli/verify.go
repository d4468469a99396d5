package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shidetake/splicer/internal/analysis"
	"github.com/shidetake/splicer/internal/audio"
)

// ErrVerifyFailed is returned when a spliced file does not match the expected edit
var ErrVerifyFailed = errors.New("verification failed")

func newVerifyCommand() *cobra.Command {
	var (
		originalPath string
		splicedPath  string
	)
	opts := analysis.DefaultVerifyOptions(0, 0)

	cmd := &cobra.Command{
		Use:   "verify --original <in.mp3> --spliced <out.mp3>",
		Short: "Check that a spliced file is the original with silence inserted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Unset --at/--silence fall back to the configured splice
			envFile, _ := cmd.Flags().GetString("env-file")
			cfg, err := loadConfig(envFile)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("at") {
				opts.InsertAtMs = cfg.InsertAtMs
			}
			if !cmd.Flags().Changed("silence") {
				opts.SilenceMs = cfg.SilenceMs
			}

			for _, p := range []string{originalPath, splicedPath} {
				if err := validateFile(p); err != nil {
					return err
				}
			}

			original, err := audio.DecodeMP3(originalPath)
			if err != nil {
				return fmt.Errorf("failed to load original: %w", err)
			}
			spliced, err := audio.DecodeMP3(splicedPath)
			if err != nil {
				return fmt.Errorf("failed to load spliced: %w", err)
			}

			report, err := analysis.Verify(original, spliced, opts)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Original: %d ms, spliced: %d ms, insertion at %d ms\n",
				report.OriginalDurationMs, report.SplicedDurationMs, report.EffectiveInsertMs)
			for _, c := range report.Checks {
				mark := "✓"
				switch {
				case c.Skipped:
					mark = "-"
				case !c.OK:
					mark = "✗"
				}
				fmt.Fprintf(out, "  %s %s: %s\n", mark, c.Name, c.Detail)
			}

			if !report.Passed() {
				return ErrVerifyFailed
			}
			fmt.Fprintln(out, "Splice verified.")
			return nil
		},
		SilenceUsage: true,
	}

	cmd.Flags().StringVar(&originalPath, "original", "", "Path to the original MP3 file (required)")
	cmd.Flags().StringVar(&splicedPath, "spliced", "", "Path to the spliced MP3 file (required)")
	cmd.Flags().Int64Var(&opts.InsertAtMs, "at", 0, "Expected insertion point in milliseconds (default from config)")
	cmd.Flags().Int64Var(&opts.SilenceMs, "silence", 0, "Expected silence duration in milliseconds (default from config)")
	cmd.Flags().Int64Var(&opts.ToleranceMs, "tolerance", opts.ToleranceMs, "Allowed drift in milliseconds")
	cmd.Flags().Float64Var(&opts.ThresholdDB, "threshold", opts.ThresholdDB, "Level in dBFS the inserted span must stay under")

	for _, name := range []string{"original", "spliced"} {
		cobra.CheckErr(cmd.MarkFlagRequired(name))
	}

	return cmd
}
