package render

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"alforqan/internal/scene"
	"alforqan/internal/services"
)

func testSpec(t *testing.T, mode string) scene.Spec {
	t.Helper()
	opts := scene.Options{
		BackgroundStyle:   "gradient",
		ColorScheme:       "prayer_night",
		Gradient:          true,
		GradientDirection: "up",
		AspectRatio:       "16:9",
		Quality:           "high",
		FrameRate:         30,
		Mode:              mode,
		FontSize:          48,
		InfoFontSize:      28,
	}
	verses := []string{"بِسْمِ اللَّهِ الرَّحْمَٰنِ الرَّحِيمِ"}
	spec, err := scene.Build(opts, verses, "Al-Fatihah (الفاتحة)", []float64{5.0})
	if err != nil {
		t.Fatalf("build spec: %v", err)
	}
	return spec
}

func stubRenderer(t *testing.T, calls *[][]string, mode string) {
	t.Helper()
	original := commandContext
	commandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		*calls = append(*calls, append([]string(nil), args...))
		cmd := exec.CommandContext(ctx, os.Args[0], "-test.run=TestHelperProcess")
		cmd.Env = append(os.Environ(), "GO_WANT_HELPER_PROCESS=1", "RENDER_HELPER_MODE="+mode)
		return cmd
	}
	t.Cleanup(func() {
		commandContext = original
	})
}

func TestNewFFmpegWithBinary(t *testing.T) {
	client := NewFFmpeg(WithBinary("/opt/ffmpeg"))
	if client.binary != "/opt/ffmpeg" {
		t.Fatalf("expected binary override, got %q", client.binary)
	}
}

func TestRenderRequiresAudioForVideo(t *testing.T) {
	client := NewFFmpeg()
	spec := testSpec(t, "video")
	if _, err := client.Render(context.Background(), spec, "", t.TempDir(), nil); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRenderRequiresOutputDir(t *testing.T) {
	client := NewFFmpeg()
	spec := testSpec(t, "video")
	if _, err := client.Render(context.Background(), spec, "audio.mp3", "", nil); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRenderReportsProgress(t *testing.T) {
	var calls [][]string
	stubRenderer(t, &calls, "progress")

	client := NewFFmpeg()
	spec := testSpec(t, "video")
	outputDir := t.TempDir()

	var updates []ProgressUpdate
	output, err := client.Render(context.Background(), spec, "merged.mp3", outputDir, func(update ProgressUpdate) {
		updates = append(updates, update)
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if output != filepath.Join(outputDir, "rendered.mp4") {
		t.Fatalf("unexpected output path %q", output)
	}

	if len(updates) < 3 {
		t.Fatalf("expected start, encoding, and completion updates, got %v", updates)
	}
	if updates[0].Percent != 0 || updates[0].Stage != "encoding" {
		t.Fatalf("unexpected first update %+v", updates[0])
	}
	sawMidpoint := false
	for _, update := range updates {
		if update.Stage == "encoding" && update.Percent > 40 && update.Percent < 60 {
			sawMidpoint = true
		}
	}
	if !sawMidpoint {
		t.Fatalf("expected a midpoint encoding update, got %v", updates)
	}
	last := updates[len(updates)-1]
	if last.Percent != 100 || last.Stage != "complete" {
		t.Fatalf("unexpected final update %+v", last)
	}
}

func TestRenderSurfacesToolFailure(t *testing.T) {
	var calls [][]string
	stubRenderer(t, &calls, "failure")

	client := NewFFmpeg()
	spec := testSpec(t, "video")

	_, err := client.Render(context.Background(), spec, "merged.mp3", t.TempDir(), nil)
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
	if !strings.Contains(err.Error(), "filter parse error") {
		t.Fatalf("expected stderr tail in error, got %v", err)
	}
}

func TestBuildArgsVideo(t *testing.T) {
	spec := testSpec(t, "video")
	args, err := buildArgs(spec, "merged.mp3", "/out/rendered.mp4")
	if err != nil {
		t.Fatalf("buildArgs: %v", err)
	}
	joined := strings.Join(args, " ")

	if !strings.Contains(joined, "gradients=s=1920x1080") {
		t.Fatalf("expected gradient background source, got %s", joined)
	}
	// prayer_night palette blended bottom to top
	if !strings.Contains(joined, "c0=0x0A2342") || !strings.Contains(joined, "y0=1080:x1=960:y1=0") {
		t.Fatalf("expected upward gradient endpoints, got %s", joined)
	}
	if !strings.Contains(joined, "-c:v libx264") || !strings.Contains(joined, "-pix_fmt yuv420p") {
		t.Fatalf("expected h264 encode flags, got %s", joined)
	}
	if !strings.Contains(joined, "-progress pipe:1") {
		t.Fatalf("expected progress reporting flag, got %s", joined)
	}
	if !strings.Contains(joined, "-t 5.500") {
		t.Fatalf("expected total duration including tail, got %s", joined)
	}

	graph := ""
	for i, arg := range args {
		if arg == "-filter_complex" {
			graph = args[i+1]
		}
	}
	if !strings.HasPrefix(graph, "[0:v]") || !strings.HasSuffix(graph, "[v]") {
		t.Fatalf("expected labeled filter graph, got %q", graph)
	}
	if !strings.Contains(graph, "enable='between(t,0.000,5.000)'") {
		t.Fatalf("expected enable window for the verse, got %q", graph)
	}
	if !strings.Contains(graph, "fontsize=48") || !strings.Contains(graph, "fontsize=28") {
		t.Fatalf("expected verse and info font sizes, got %q", graph)
	}
}

func TestBuildArgsImageMode(t *testing.T) {
	spec := testSpec(t, "image")
	args, err := buildArgs(spec, "", "/out/rendered.png")
	if err != nil {
		t.Fatalf("buildArgs: %v", err)
	}
	joined := strings.Join(args, " ")
	if !strings.Contains(joined, "-frames:v 1") {
		t.Fatalf("expected single frame output, got %s", joined)
	}
	if strings.Contains(joined, "-c:a") || strings.Contains(joined, "merged.mp3") {
		t.Fatalf("expected no audio handling in image mode, got %s", joined)
	}
	if strings.Contains(joined, "enable='between") {
		t.Fatalf("expected no timing windows in image mode, got %s", joined)
	}
}

func TestBuildArgsSolidBackground(t *testing.T) {
	spec := testSpec(t, "video")
	spec.Style = scene.StyleSolid
	args, err := buildArgs(spec, "merged.mp3", "/out/rendered.mp4")
	if err != nil {
		t.Fatalf("buildArgs: %v", err)
	}
	joined := strings.Join(args, " ")
	if !strings.Contains(joined, "color=c=0x0A2342") {
		t.Fatalf("expected solid color source, got %s", joined)
	}
}

func filterGraph(t *testing.T, spec scene.Spec) string {
	t.Helper()
	args, err := buildArgs(spec, "merged.mp3", "/out/rendered.mp4")
	if err != nil {
		t.Fatalf("buildArgs: %v", err)
	}
	for i, arg := range args {
		if arg == "-filter_complex" {
			return args[i+1]
		}
	}
	t.Fatal("no filter graph in args")
	return ""
}

func TestPatternStylesAlterFilterGraph(t *testing.T) {
	base := testSpec(t, "video")
	plain := filterGraph(t, base)
	if strings.Contains(plain, "geq") || strings.Contains(plain, "drawgrid") {
		t.Fatalf("expected no pattern treatment for gradient, got %q", plain)
	}

	patternStyles := []scene.BackgroundStyle{
		scene.StyleGrid,
		scene.StyleDiagonalSquare,
		scene.StyleDiagonalSquareDots,
		scene.StyleDiagonalPoints,
		scene.StyleDiamondDots,
		scene.StyleHexagonal,
		scene.StyleGeometricStars,
		scene.StyleStarMotifGeometric,
	}
	graphs := map[string]scene.BackgroundStyle{plain: base.Style}
	for _, style := range patternStyles {
		spec := testSpec(t, "video")
		spec.Style = style
		graph := filterGraph(t, spec)

		if previous, seen := graphs[graph]; seen {
			t.Fatalf("style %s produced the same graph as %s", style, previous)
		}
		graphs[graph] = style

		if style == scene.StyleGrid {
			if !strings.Contains(graph, "drawgrid=") {
				t.Fatalf("expected drawgrid for %s, got %q", style, graph)
			}
			continue
		}
		if !strings.Contains(graph, "format=rgb24,geq=") {
			t.Fatalf("expected geq mask for %s, got %q", style, graph)
		}
	}
}

func TestPatternOverlayBlendsAccentColor(t *testing.T) {
	spec := testSpec(t, "video")
	spec.Style = scene.StyleHexagonal
	graph := filterGraph(t, spec)

	// prayer_night accent #89A7E0
	if !strings.Contains(graph, "0.25*137") || !strings.Contains(graph, "0.25*167") || !strings.Contains(graph, "0.25*224") {
		t.Fatalf("expected accent channels in geq blend, got %q", graph)
	}
	if !strings.Contains(graph, "mod(Y,") {
		t.Fatalf("expected row lines in hexagonal mask, got %q", graph)
	}
}

func TestEscapeDrawtext(t *testing.T) {
	got := escapeDrawtext(`50% of a:b\c`)
	if !strings.Contains(got, `\%`) || !strings.Contains(got, `\:`) || !strings.Contains(got, `\\`) {
		t.Fatalf("expected escaped metacharacters, got %q", got)
	}
	if quoted := escapeDrawtext(`it's`); quoted != `it'\''s` {
		t.Fatalf("expected quote to close, escape, reopen, got %q", quoted)
	}
}

func TestParseProgressLine(t *testing.T) {
	update, ok := parseProgressLine("out_time_us=2500000", 5.0)
	if !ok {
		t.Fatal("expected progress line to parse")
	}
	if update.Percent < 49.9 || update.Percent > 50.1 {
		t.Fatalf("expected ~50 percent, got %.2f", update.Percent)
	}

	if _, ok := parseProgressLine("frame=120", 5.0); !ok {
		t.Fatal("expected frame counter to be consumed silently")
	}
	if _, ok := parseProgressLine("[libx264 @ 0x55] frame I:2", 5.0); ok {
		t.Fatal("expected diagnostic line to be left for the tail")
	}

	update, ok = parseProgressLine("progress=end", 5.0)
	if !ok || update.Percent != 99 {
		t.Fatalf("expected finalizing update, got %+v ok=%v", update, ok)
	}
}

func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}
	switch os.Getenv("RENDER_HELPER_MODE") {
	case "progress":
		fmt.Println("frame=60")
		fmt.Println("out_time_us=2750000")
		fmt.Println("progress=continue")
		fmt.Println("out_time_us=5500000")
		fmt.Println("progress=end")
		os.Exit(0)
	case "failure":
		fmt.Println("[AVFilterGraph @ 0x55] filter parse error")
		os.Exit(1)
	default:
		os.Exit(0)
	}
}
