package render

import (
	"fmt"
	"strconv"
	"strings"

	"alforqan/internal/scene"
)

// lineSpacing stretches the line height relative to the font size.
const lineSpacing = 1.5

// buildArgs assembles the full ffmpeg invocation for a scene.
func buildArgs(spec scene.Spec, audioPath, outputPath string) ([]string, error) {
	geometry := spec.Geometry

	args := []string{"-hide_banner", "-y"}
	args = append(args, "-f", "lavfi", "-i", backgroundSource(spec))
	if spec.Mode == scene.ModeVideo {
		args = append(args, "-i", audioPath)
	}

	args = append(args, "-filter_complex", textGraph(spec), "-map", "[v]")

	if spec.Mode == scene.ModeImage {
		args = append(args,
			"-frames:v", "1",
			outputPath,
		)
		return args, nil
	}

	args = append(args,
		"-map", "1:a",
		"-c:v", "libx264",
		"-preset", "medium",
		"-crf", "18",
		"-pix_fmt", "yuv420p",
		"-r", fmt.Sprintf("%d", geometry.FrameRate),
		"-c:a", "aac",
		"-b:a", "192k",
		"-t", fmt.Sprintf("%.3f", spec.Timeline.Total),
		"-progress", "pipe:1",
		"-nostats",
		outputPath,
	)
	return args, nil
}

// backgroundSource builds the lavfi source for the configured background.
// Solid backgrounds use the color source; everything else blends the first
// three palette colors along the gradient direction.
func backgroundSource(spec scene.Spec) string {
	geometry := spec.Geometry
	size := fmt.Sprintf("%dx%d", geometry.Width, geometry.Height)
	duration := spec.Timeline.Total
	if spec.Mode == scene.ModeImage {
		duration = 1
	}

	if spec.Style == scene.StyleSolid || !spec.Gradient {
		return fmt.Sprintf("color=c=%s:s=%s:r=%d:d=%.3f",
			ffmpegColor(spec.Scheme.BaseColor()), size, geometry.FrameRate, duration)
	}

	colors := spec.Scheme.GradientColors()
	x0, y0, x1, y1 := spec.Direction.Endpoints(geometry.Width, geometry.Height)
	return fmt.Sprintf("gradients=s=%s:c0=%s:c1=%s:c2=%s:x0=%d:y0=%d:x1=%d:y1=%d:nb_colors=3:speed=0:r=%d:d=%.3f",
		size,
		ffmpegColor(colors[0]), ffmpegColor(colors[1]), ffmpegColor(colors[2]),
		x0, y0, x1, y1,
		geometry.FrameRate, duration)
}

// textGraph chains the pattern treatment and every drawtext overlay into
// a single filter graph labeled [v].
func textGraph(spec scene.Spec) string {
	filters := patternOverlay(spec)

	lineHeight := float64(spec.FontSize) * lineSpacing
	for i, verse := range spec.Verses {
		segment := spec.Timeline.Segments[i]
		blockTop := (float64(spec.Geometry.Height) - lineHeight*float64(len(verse.Lines))) / 2
		for lineIdx, line := range verse.Lines {
			y := blockTop + float64(lineIdx)*lineHeight
			filters = append(filters, verseDrawtext(spec, line, segment, y))
		}
	}

	if spec.Info != "" {
		filters = append(filters, infoDrawtext(spec))
	}

	return "[0:v]" + strings.Join(filters, ",") + "[v]"
}

// pattern overlays blend the accent color at this opacity
const patternOpacity = 0.25

// patternOverlay layers the style's geometric motif over the background.
// The plain grid maps directly onto drawgrid; the remaining lattices are
// per-pixel geq masks blending the accent color at a fixed opacity.
func patternOverlay(spec scene.Spec) []string {
	if !spec.Style.HasPattern() {
		return nil
	}

	cell := spec.Geometry.Height / 16
	if cell < 24 {
		cell = 24
	}

	if spec.Style == scene.StyleGrid {
		return []string{fmt.Sprintf("drawgrid=w=%d:h=%d:t=1:color=%s@%.2f",
			cell, cell, ffmpegColor(spec.Scheme.AccentColor()), patternOpacity)}
	}

	mask := patternMask(spec.Style, cell, spec.Geometry.Height)
	r, g, b := colorComponents(spec.Scheme.AccentColor())
	keep := fmt.Sprintf("%.2f", 1-patternOpacity)
	blend := fmt.Sprintf("%.2f", patternOpacity)
	geq := fmt.Sprintf(
		"geq=r='if(%[1]s,%[5]s*r(X,Y)+%[6]s*%[2]d,r(X,Y))':g='if(%[1]s,%[5]s*g(X,Y)+%[6]s*%[3]d,g(X,Y))':b='if(%[1]s,%[5]s*b(X,Y)+%[6]s*%[4]d,b(X,Y))'",
		mask, r, g, b, keep, blend)
	return []string{"format=rgb24", geq}
}

// patternMask builds the geq pixel predicate for a lattice style. All
// coordinates are frame pixels; the height offset keeps X-Y non-negative
// so mod behaves on the anti-diagonal.
func patternMask(style scene.BackgroundStyle, cell, height int) string {
	thickness := cell / 24
	if thickness < 1 {
		thickness = 1
	}
	dot := cell / 6
	if dot < 3 {
		dot = 3
	}
	arm := cell / 3
	half := cell / 2

	lattice := fmt.Sprintf("lt(mod(X+Y,%[1]d),%[2]d)+lt(mod(X-Y+%[3]d,%[1]d),%[2]d)", cell, thickness, height)
	points := fmt.Sprintf("lt(mod(X+Y,%[1]d),%[2]d)*lt(mod(X-Y+%[3]d,%[1]d),%[2]d)", cell, dot, height)

	switch style {
	case scene.StyleDiagonalSquare:
		return lattice
	case scene.StyleDiagonalSquareDots:
		return lattice + "+" + points
	case scene.StyleDiagonalPoints:
		return points
	case scene.StyleDiamondDots:
		// dots sit at diamond centers, half a cell off the line crossings
		centers := fmt.Sprintf("lt(mod(X+Y+%[4]d,%[1]d),%[2]d)*lt(mod(X-Y+%[3]d+%[4]d,%[1]d),%[2]d)",
			cell, dot, height, half)
		return lattice + "+" + centers
	case scene.StyleHexagonal:
		// horizontal rows plus both diagonals approximate the hex mesh
		rows := fmt.Sprintf("lt(mod(Y,%d),%d)", cell, thickness)
		return rows + "+" + lattice
	case scene.StyleGeometricStars:
		return starArms(cell, thickness, arm)
	case scene.StyleStarMotifGeometric:
		return starArms(cell, thickness, arm) + "+" + diagonalArms(cell, thickness, arm)
	}
	return lattice
}

// starArms draws a plus motif centered in each cell.
func starArms(cell, thickness, arm int) string {
	half := cell / 2
	vertical := fmt.Sprintf("lt(abs(mod(X,%[1]d)-%[2]d),%[3]d)*lt(abs(mod(Y,%[1]d)-%[2]d),%[4]d)",
		cell, half, thickness, arm)
	horizontal := fmt.Sprintf("lt(abs(mod(Y,%[1]d)-%[2]d),%[3]d)*lt(abs(mod(X,%[1]d)-%[2]d),%[4]d)",
		cell, half, thickness, arm)
	return vertical + "+" + horizontal
}

// diagonalArms extends the plus motif to an eight point star.
func diagonalArms(cell, thickness, arm int) string {
	half := cell / 2
	main := fmt.Sprintf("lt(abs(mod(X,%[1]d)-mod(Y,%[1]d)),%[2]d)*lt(abs(mod(X,%[1]d)-%[3]d),%[4]d)",
		cell, thickness, half, arm)
	anti := fmt.Sprintf("lt(abs(mod(X,%[1]d)+mod(Y,%[1]d)-%[1]d),%[2]d)*lt(abs(mod(X,%[1]d)-%[3]d),%[4]d)",
		cell, thickness, half, arm)
	return main + "+" + anti
}

func verseDrawtext(spec scene.Spec, line string, segment scene.Segment, y float64) string {
	options := []string{
		"text='" + escapeDrawtext(line) + "'",
		fmt.Sprintf("fontcolor=%s", ffmpegColor(spec.Scheme.TextColor())),
		fmt.Sprintf("fontsize=%d", spec.FontSize),
		"x=(w-text_w)/2",
		fmt.Sprintf("y=%.0f", y),
	}
	if spec.VerseFont != "" {
		options = append(options, "fontfile='"+escapeDrawtext(spec.VerseFont)+"'")
	}
	if spec.Mode == scene.ModeVideo {
		options = append(options,
			fmt.Sprintf("enable='between(t,%.3f,%.3f)'", segment.Start, segment.End()),
			fadeAlpha(segment),
		)
	}
	return "drawtext=" + strings.Join(options, ":")
}

func infoDrawtext(spec scene.Spec) string {
	bottomOffset := float64(spec.Geometry.Height) * spec.Geometry.InfoBottomMargin()
	options := []string{
		"text='" + escapeDrawtext(spec.Info) + "'",
		fmt.Sprintf("fontcolor=%s", ffmpegColor(spec.Scheme.TextColor())),
		fmt.Sprintf("fontsize=%d", spec.InfoFontSize),
		"x=(w-text_w)/2",
		fmt.Sprintf("y=h-%.0f-text_h", bottomOffset),
	}
	font := spec.InfoFont
	if font == "" {
		font = spec.VerseFont
	}
	if font != "" {
		options = append(options, "fontfile='"+escapeDrawtext(font)+"'")
	}
	return "drawtext=" + strings.Join(options, ":")
}

// fadeAlpha ramps opacity up over the write window and back down over the
// unwrite window, holding full opacity in between.
func fadeAlpha(segment scene.Segment) string {
	if segment.Write <= 0 {
		return "alpha=1"
	}
	return fmt.Sprintf("alpha='max(0,min(1,if(lt(t,%.3f),(t-%.3f)/%.3f,(%.3f-t)/%.3f)))'",
		segment.UnwriteStart(), segment.Start, segment.Write, segment.End(), segment.Unwrite)
}

// escapeDrawtext quotes text for a drawtext option value. The value sits
// inside single quotes, so embedded quotes are closed, escaped, reopened.
func escapeDrawtext(text string) string {
	replacer := strings.NewReplacer(
		`\`, `\\`,
		`'`, `'\''`,
		`:`, `\:`,
		`%`, `\%`,
	)
	return replacer.Replace(text)
}

// ffmpegColor turns a #RRGGBB palette entry into ffmpeg 0xRRGGBB notation.
func ffmpegColor(hex string) string {
	return "0x" + strings.TrimPrefix(hex, "#")
}

// colorComponents splits a #RRGGBB palette entry into 8-bit channels for
// geq expressions.
func colorComponents(hex string) (r, g, b int) {
	value, err := strconv.ParseUint(strings.TrimPrefix(hex, "#"), 16, 32)
	if err != nil {
		return 255, 255, 255
	}
	return int(value >> 16 & 0xff), int(value >> 8 & 0xff), int(value & 0xff)
}
