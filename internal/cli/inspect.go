package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/shidetake/splicer/internal/analysis"
	"github.com/shidetake/splicer/internal/audio"
)

func newInspectCommand() *cobra.Command {
	opts := analysis.DefaultSilenceOpts()
	var pcmOut string

	cmd := &cobra.Command{
		Use:   "inspect <file.mp3>",
		Short: "Show format, duration and silent spans of an MP3 file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			if err := validateFile(path); err != nil {
				return err
			}

			buf, err := audio.DecodeMP3(path)
			if err != nil {
				return fmt.Errorf("failed to load audio: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s (%d channels, %d Hz, %d-bit, %s)\n",
				filepath.Base(path),
				buf.Channels(),
				buf.SampleRate(),
				buf.BitDepth(),
				buf.DurationString())

			spans := analysis.DetectSilence(audio.ToMono(buf), buf.SampleRate(), opts)
			fmt.Fprintf(out, "Silent spans (< %.0f dBFS, >= %d ms): %d\n", opts.ThresholdDB, opts.MinSilenceMs, len(spans))
			for _, s := range spans {
				fmt.Fprintf(out, "  %s - %s (%d ms)\n", formatMillis(s.StartMs), formatMillis(s.EndMs), s.DurationMs())
			}

			if pcmOut != "" {
				if err := audio.WriteWAV(pcmOut, buf); err != nil {
					return err
				}
				fmt.Fprintf(out, "Decoded PCM written to %s\n", pcmOut)
			}

			return nil
		},
		SilenceUsage: true,
	}

	cmd.Flags().Float64Var(&opts.ThresholdDB, "threshold", opts.ThresholdDB, "Level in dBFS below which audio counts as silence")
	cmd.Flags().IntVar(&opts.MinSilenceMs, "min-silence", opts.MinSilenceMs, "Shortest silent span to report, in milliseconds")
	cmd.Flags().StringVar(&pcmOut, "pcm-out", "", "Also write the decoded PCM to this WAV file")

	return cmd
}

// formatMillis renders a timestamp as M:SS.mmm
func formatMillis(ms int64) string {
	return fmt.Sprintf("%d:%02d.%03d", ms/60000, (ms%60000)/1000, ms%1000)
}
