package ffprobe_test

import (
	"context"
	"testing"

	"alforqan/internal/media/ffprobe"
	"alforqan/internal/testsupport"
)

const probeScript = `#!/bin/sh
cat <<'JSON'
{
  "streams": [
    {"index": 0, "codec_name": "mp3", "codec_type": "audio", "duration": "4.218", "sample_rate": "44100", "channels": 2}
  ],
  "format": {
    "filename": "001001.mp3",
    "nb_streams": 1,
    "duration": "4.232",
    "size": "67840",
    "bit_rate": "128000",
    "format_name": "mp3"
  }
}
JSON
`

func TestInspectParsesOutput(t *testing.T) {
	dir := t.TempDir()
	binary := testsupport.WriteStubBinary(t, dir, "ffprobe-stub", probeScript)

	result, err := ffprobe.Inspect(context.Background(), binary, "001001.mp3")
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	if result.AudioStreamCount() != 1 {
		t.Fatalf("expected one audio stream, got %d", result.AudioStreamCount())
	}
	if got := result.DurationSeconds(); got != 4.232 {
		t.Fatalf("expected duration 4.232, got %f", got)
	}
	if got := result.SizeBytes(); got != 67840 {
		t.Fatalf("expected size 67840, got %d", got)
	}
	if got := result.BitRate(); got != 128000 {
		t.Fatalf("expected bitrate 128000, got %d", got)
	}
}

func TestInspectFallsBackToStreamDuration(t *testing.T) {
	dir := t.TempDir()
	binary := testsupport.WriteStubBinary(t, dir, "ffprobe-stream", `#!/bin/sh
echo '{"streams":[{"index":0,"codec_type":"audio","duration":"2.5"}],"format":{"duration":""}}'
`)

	result, err := ffprobe.Inspect(context.Background(), binary, "clip.mp3")
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	if got := result.DurationSeconds(); got != 2.5 {
		t.Fatalf("expected stream duration fallback 2.5, got %f", got)
	}
}

func TestInspectRejectsEmptyPath(t *testing.T) {
	if _, err := ffprobe.Inspect(context.Background(), "ffprobe", "  "); err == nil {
		t.Fatal("expected error for empty path")
	}
}
