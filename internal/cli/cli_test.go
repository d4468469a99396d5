package cli

import (
	"bytes"
	"context"
	"errors"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	goaudiowav "github.com/go-audio/wav"
	"github.com/spf13/cobra"

	"github.com/shidetake/splicer/internal/audio"
	"github.com/shidetake/splicer/internal/splice"
)

// writeNoise encodes deterministic stereo noise and returns its path
func writeNoise(t *testing.T, dir string, ms int64) string {
	t.Helper()

	r := rand.New(rand.NewSource(7))
	frames := audio.FramesFromMillis(ms, 44100)
	buf := audio.NewBuffer(frames, 44100, 2)
	for i := 0; i < frames; i++ {
		v := int((r.Float64() - 0.5) * 20000)
		buf.PCM.Data[i*2] = v
		buf.PCM.Data[i*2+1] = v
	}

	path := filepath.Join(dir, "voiceover.mp3")
	if err := audio.WriteFileAtomic(context.Background(), path, buf, &audio.ShineEncoder{}); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}
	return path
}

// run executes the command tree and returns stdout, stderr and the error
func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	cmd := NewRootCommand(&stdout, &stderr)
	cmd.SetArgs(append(args, "--env-file", filepath.Join(t.TempDir(), "none.env")))
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestSplicePrintsSingleStatusLine(t *testing.T) {
	dir := t.TempDir()
	in := writeNoise(t, dir, 2000)
	out := filepath.Join(dir, "voiceover-with-pause.mp3")

	stdout, stderr, err := run(t, "-i", in, "-o", out, "--at", "1000", "--silence", "500")
	if err != nil {
		t.Fatalf("splice failed: %v (stderr: %s)", err, stderr)
	}

	want := "Done! Saved to " + out + "\n"
	if stdout != want {
		t.Errorf("stdout = %q, want %q", stdout, want)
	}
	if stderr != "" {
		t.Errorf("stderr = %q, want nothing at default log level", stderr)
	}
	if _, err := os.Stat(out); err != nil {
		t.Errorf("output missing: %v", err)
	}
}

func TestSpliceVerboseLogs(t *testing.T) {
	dir := t.TempDir()
	in := writeNoise(t, dir, 500)

	_, stderr, err := run(t, "-v", "-i", in, "-o", filepath.Join(dir, "out.mp3"), "--at", "100", "--silence", "100")
	if err != nil {
		t.Fatalf("splice failed: %v", err)
	}
	if !strings.Contains(stderr, "decoded input") {
		t.Errorf("expected debug logs on stderr, got %q", stderr)
	}
}

func TestSpliceMissingInput(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out.mp3")

	stdout, _, err := run(t, "-i", filepath.Join(dir, "missing.mp3"), "-o", out)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected not-exist error, got %v", err)
	}
	var decErr *splice.DecodeError
	if !errors.As(err, &decErr) {
		t.Errorf("expected *splice.DecodeError, got %T: %v", err, err)
	}
	if stdout != "" {
		t.Errorf("stdout = %q, want nothing on failure", stdout)
	}
	if _, statErr := os.Stat(out); !os.IsNotExist(statErr) {
		t.Error("output file should not exist")
	}
}

func TestSpliceRejectsNonMP3Input(t *testing.T) {
	dir := t.TempDir()
	notes := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(notes, []byte("not audio"), 0o644); err != nil {
		t.Fatal(err)
	}

	for _, in := range []string{notes, dir} {
		_, _, err := run(t, "-i", in, "-o", filepath.Join(dir, "out.mp3"))
		var decErr *splice.DecodeError
		if !errors.As(err, &decErr) {
			t.Errorf("input %s: expected *splice.DecodeError, got %T: %v", in, err, err)
			continue
		}
		if decErr.Path != in {
			t.Errorf("DecodeError.Path = %q, want %q", decErr.Path, in)
		}
	}
}

func TestSpliceRejectsInvalidFlags(t *testing.T) {
	dir := t.TempDir()
	in := writeNoise(t, dir, 300)
	out := filepath.Join(dir, "out.mp3")

	tests := [][]string{
		{"-i", in, "-o", out, "--overflow", "wrap"},
		{"-i", in, "-o", out, "--encoder", "lame"},
		{"-i", in, "-o", out, "--silence", "-1"},
		{"-i", in, "-o", in},
		{"-i", filepath.Join(dir), "-o", out},
	}

	for _, args := range tests {
		if _, _, err := run(t, args...); err == nil {
			t.Errorf("args %v: expected error, got nil", args)
		}
	}
}

func TestSpliceOverflowErrorFlag(t *testing.T) {
	dir := t.TempDir()
	in := writeNoise(t, dir, 300)

	_, _, err := run(t, "-i", in, "-o", filepath.Join(dir, "out.mp3"), "--overflow", "error")
	if err == nil || !strings.Contains(err.Error(), "beyond input duration") {
		t.Fatalf("expected range error for default 55 s insertion, got %v", err)
	}
}

func TestSpliceReadsEnvironment(t *testing.T) {
	dir := t.TempDir()
	in := writeNoise(t, dir, 1000)
	out := filepath.Join(dir, "env-out.mp3")

	t.Setenv("SPLICER_INPUT", in)
	t.Setenv("SPLICER_OUTPUT", out)
	t.Setenv("SPLICER_INSERT_AT_MS", "500")
	t.Setenv("SPLICER_SILENCE_MS", "200")

	stdout, _, err := run(t)
	if err != nil {
		t.Fatalf("splice failed: %v", err)
	}
	if !strings.Contains(stdout, out) {
		t.Errorf("stdout = %q, want output path from environment", stdout)
	}
}

func TestInspectReportsInsertedSilence(t *testing.T) {
	dir := t.TempDir()
	in := writeNoise(t, dir, 3000)
	out := filepath.Join(dir, "out.mp3")
	wav := filepath.Join(dir, "dump.wav")

	if _, _, err := run(t, "-i", in, "-o", out, "--at", "1500", "--silence", "1000"); err != nil {
		t.Fatalf("splice failed: %v", err)
	}

	stdout, _, err := run(t, "inspect", out, "--pcm-out", wav)
	if err != nil {
		t.Fatalf("inspect failed: %v", err)
	}

	if !strings.Contains(stdout, "2 channels, 44100 Hz") {
		t.Errorf("inspect output missing format: %q", stdout)
	}
	if !strings.Contains(stdout, ">= 500 ms): 1\n") {
		t.Errorf("expected exactly one silent span, got %q", stdout)
	}

	f, err := os.Open(wav)
	if err != nil {
		t.Fatalf("PCM dump missing: %v", err)
	}
	defer f.Close()
	dump, err := goaudiowav.NewDecoder(f).FullPCMBuffer()
	if err != nil {
		t.Fatalf("PCM dump unreadable: %v", err)
	}
	if dump.Format.SampleRate != 44100 || dump.Format.NumChannels != 2 {
		t.Errorf("dump format = %d Hz/%d ch, want 44100 Hz/2 ch", dump.Format.SampleRate, dump.Format.NumChannels)
	}
}

func TestVerifySplicedFile(t *testing.T) {
	dir := t.TempDir()
	in := writeNoise(t, dir, 3000)
	out := filepath.Join(dir, "out.mp3")

	if _, _, err := run(t, "-i", in, "-o", out, "--at", "1500", "--silence", "1000"); err != nil {
		t.Fatalf("splice failed: %v", err)
	}

	stdout, _, err := run(t, "verify", "--original", in, "--spliced", out, "--at", "1500", "--silence", "1000")
	if err != nil {
		t.Fatalf("verify failed: %v\n%s", err, stdout)
	}
	if !strings.Contains(stdout, "Splice verified.") {
		t.Errorf("stdout = %q, want success line", stdout)
	}

	// The same file does not contain a pause at 500 ms
	stdout, _, err = run(t, "verify", "--original", in, "--spliced", out, "--at", "500", "--silence", "1000")
	if !errors.Is(err, ErrVerifyFailed) {
		t.Fatalf("expected ErrVerifyFailed, got %v\n%s", err, stdout)
	}
}

func TestVerifyRequiresPaths(t *testing.T) {
	_, _, err := run(t, "verify")
	if err == nil {
		t.Fatal("expected error for missing --original/--spliced")
	}
	if !strings.Contains(err.Error(), "required flag") {
		t.Errorf("error = %v, want required flag error", err)
	}

	cmd, _, err := NewRootCommand(&bytes.Buffer{}, &bytes.Buffer{}).Find([]string{"verify"})
	if err != nil {
		t.Fatalf("verify command not found: %v", err)
	}
	for _, name := range []string{"original", "spliced"} {
		f := cmd.Flags().Lookup(name)
		if f == nil {
			t.Fatalf("--%s not defined", name)
		}
		if got := f.Annotations[cobra.BashCompOneRequiredFlag]; len(got) != 1 || got[0] != "true" {
			t.Errorf("--%s required annotation = %v, want [true]", name, got)
		}
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]string{
		"debug": "DEBUG",
		"INFO":  "INFO",
		"":      "WARN",
		"error": "ERROR",
		"nope":  "WARN",
	}
	for in, want := range tests {
		if got := parseLevel(in).Level().String(); got != want {
			t.Errorf("parseLevel(%q) = %s, want %s", in, got, want)
		}
	}
}
