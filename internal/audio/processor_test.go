package audio

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"alforqan/internal/logging"
	"alforqan/internal/testsupport"
)

const probeFixedDuration = `#!/bin/sh
echo '{"streams":[{"index":0,"codec_type":"audio","duration":"4.0"}],"format":{"duration":"4.0"}}'
`

// stubCommands reroutes ffmpeg invocations to the helper process and records
// the arguments of every call.
func stubCommands(t *testing.T, calls *[][]string) {
	t.Helper()
	original := commandContext
	commandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		*calls = append(*calls, append([]string(nil), args...))
		mode := "write"
		for _, arg := range args {
			if strings.Contains(arg, "volumedetect") {
				mode = "measure"
			}
		}
		output := ""
		if mode == "write" && len(args) > 0 && args[len(args)-1] != "-" {
			output = args[len(args)-1]
		}
		cmd := exec.CommandContext(ctx, os.Args[0], "-test.run=TestHelperProcess")
		cmd.Env = append(os.Environ(),
			"GO_WANT_HELPER_PROCESS=1",
			"AUDIO_HELPER_MODE="+mode,
			"AUDIO_HELPER_OUTPUT="+output,
		)
		return cmd
	}
	t.Cleanup(func() {
		commandContext = original
	})
}

func TestPresetLookup(t *testing.T) {
	s, ok := Preset("Conservative")
	if !ok {
		t.Fatal("expected conservative preset to exist")
	}
	if s.SilenceThresholdDB != -60 || s.MinSilenceMS != 500 {
		t.Fatalf("unexpected conservative preset: %+v", s)
	}
	if _, ok := Preset("nonsense"); ok {
		t.Fatal("expected unknown preset to be rejected")
	}
}

func TestPrepareAppliesGainAndTrim(t *testing.T) {
	var calls [][]string
	stubCommands(t, &calls)

	cfg := testsupport.NewConfig(t)
	settings, _ := Preset("default")
	processor := NewProcessor(cfg, settings, logging.NewNop())

	workDir := t.TempDir()
	input := filepath.Join(workDir, "001001.mp3")
	testsupport.WriteFile(t, input, 512)

	prepared, err := processor.Prepare(context.Background(), []string{input}, workDir)
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if len(prepared) != 1 {
		t.Fatalf("expected one prepared clip, got %d", len(prepared))
	}
	if _, err := os.Stat(prepared[0]); err != nil {
		t.Fatalf("expected prepared clip on disk: %v", err)
	}
	if len(calls) != 2 {
		t.Fatalf("expected measure and process calls, got %d", len(calls))
	}

	filter := findFlagValue(t, calls[1], "-af")
	// Helper reports -30 dBFS, so reaching -20 needs +10 dB.
	if !strings.Contains(filter, "volume=+10.00dB") {
		t.Fatalf("expected gain stage in filter, got %q", filter)
	}
	if !strings.Contains(filter, "silenceremove=start_periods=1:start_threshold=-50dB:start_silence=0.300") {
		t.Fatalf("expected silence trim in filter, got %q", filter)
	}
	if !strings.Contains(filter, "adelay=40:all=1") || !strings.Contains(filter, "apad=pad_dur=0.040") {
		t.Fatalf("expected padding stages in filter, got %q", filter)
	}
	if strings.Count(filter, "areverse") != 2 {
		t.Fatalf("expected tail trim to reverse twice, got %q", filter)
	}
}

func TestPrepareRejectsEmptyInput(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	settings, _ := Preset("default")
	processor := NewProcessor(cfg, settings, logging.NewNop())
	if _, err := processor.Prepare(context.Background(), nil, t.TempDir()); err == nil {
		t.Fatal("expected error for empty input list")
	}
}

func TestMergeCrossfadesAndReportsEffectiveDurations(t *testing.T) {
	var calls [][]string
	stubCommands(t, &calls)

	cfg := testsupport.NewConfig(t)
	probeDir := t.TempDir()
	probe := testsupport.WriteStubBinary(t, probeDir, "ffprobe-stub", probeFixedDuration)

	settings, _ := Preset("default")
	processor := NewProcessor(cfg, settings, logging.NewNop(), WithProber(NewProber(probe)))

	workDir := t.TempDir()
	inputs := make([]string, 3)
	for i := range inputs {
		inputs[i] = filepath.Join(workDir, fmt.Sprintf("prepared_%03d.mp3", i))
		testsupport.WriteFile(t, inputs[i], 256)
	}
	output := filepath.Join(workDir, "merged.mp3")

	result, err := processor.Merge(context.Background(), inputs, output)
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if _, err := os.Stat(output); err != nil {
		t.Fatalf("expected merged track on disk: %v", err)
	}

	wantEffective := []float64{4.0, 3.75, 3.75}
	if len(result.EffectiveDurations) != len(wantEffective) {
		t.Fatalf("expected %d effective durations, got %d", len(wantEffective), len(result.EffectiveDurations))
	}
	for i, want := range wantEffective {
		if diff := result.EffectiveDurations[i] - want; diff > 0.001 || diff < -0.001 {
			t.Fatalf("effective duration %d: expected %.3f, got %.3f", i, want, result.EffectiveDurations[i])
		}
	}
	if diff := result.TotalDuration - 11.5; diff > 0.001 || diff < -0.001 {
		t.Fatalf("expected total duration 11.5, got %.3f", result.TotalDuration)
	}

	graph := findFlagValue(t, calls[len(calls)-1], "-filter_complex")
	want := "[0:a][1:a]acrossfade=d=0.250[x1];[x1][2:a]acrossfade=d=0.250[out]"
	if graph != want {
		t.Fatalf("expected crossfade graph %q, got %q", want, graph)
	}
}

func TestMergeSingleClipCopies(t *testing.T) {
	var calls [][]string
	stubCommands(t, &calls)

	cfg := testsupport.NewConfig(t)
	probeDir := t.TempDir()
	probe := testsupport.WriteStubBinary(t, probeDir, "ffprobe-stub", probeFixedDuration)

	settings, _ := Preset("default")
	processor := NewProcessor(cfg, settings, logging.NewNop(), WithProber(NewProber(probe)))

	workDir := t.TempDir()
	input := filepath.Join(workDir, "prepared_000.mp3")
	testsupport.WriteFile(t, input, 256)
	output := filepath.Join(workDir, "merged.mp3")

	result, err := processor.Merge(context.Background(), []string{input}, output)
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if result.TotalDuration != 4.0 {
		t.Fatalf("expected single clip duration 4.0, got %.3f", result.TotalDuration)
	}
	if idx := findFlag(calls[len(calls)-1], "-c"); idx == -1 {
		t.Fatalf("expected stream copy for single clip, got %v", calls[len(calls)-1])
	}
}

func TestFormatDuration(t *testing.T) {
	cases := []struct {
		seconds float64
		want    string
	}{
		{0, "00:00:00"},
		{59.9, "00:00:59"},
		{61, "00:01:01"},
		{3661.2, "01:01:01"},
		{-3, "00:00:00"},
	}
	for _, tc := range cases {
		if got := FormatDuration(tc.seconds); got != tc.want {
			t.Fatalf("FormatDuration(%.1f): expected %q, got %q", tc.seconds, tc.want, got)
		}
	}
}

func findFlag(args []string, flag string) int {
	for i, arg := range args {
		if arg == flag {
			return i
		}
	}
	return -1
}

func findFlagValue(t *testing.T, args []string, flag string) string {
	t.Helper()
	idx := findFlag(args, flag)
	if idx == -1 || idx+1 >= len(args) {
		t.Fatalf("expected %s flag in %v", flag, args)
	}
	return args[idx+1]
}

func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}
	switch os.Getenv("AUDIO_HELPER_MODE") {
	case "measure":
		fmt.Fprintln(os.Stderr, "[Parsed_volumedetect_0 @ 0x5555] mean_volume: -30.0 dB")
		fmt.Fprintln(os.Stderr, "[Parsed_volumedetect_0 @ 0x5555] max_volume: -12.4 dB")
		os.Exit(0)
	case "write":
		if output := os.Getenv("AUDIO_HELPER_OUTPUT"); output != "" {
			os.WriteFile(output, []byte("stub-audio"), 0o644)
		}
		os.Exit(0)
	case "failure":
		fmt.Fprintln(os.Stderr, "conversion failed")
		os.Exit(1)
	default:
		os.Exit(0)
	}
}
