package scene

import "strings"

// textWidthFraction is the share of the frame width the verse text may fill.
const textWidthFraction = 0.6

// minLineChars keeps very small frames from producing one word per line.
const minLineChars = 8

// MaxLineChars estimates how many glyphs fit on a wrapped line. Arabic glyph
// advance averages roughly half the point size under the bundled fonts.
func MaxLineChars(pixelWidth, fontSize int) int {
	if fontSize <= 0 {
		return minLineChars
	}
	avgGlyphWidth := float64(fontSize) * 0.5
	max := int(float64(pixelWidth) * textWidthFraction / avgGlyphWidth)
	if max < minLineChars {
		return minLineChars
	}
	return max
}

// Wrap breaks text into lines of at most maxChars runes, never splitting
// inside a word. Words longer than maxChars get their own line.
func Wrap(text string, maxChars int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	if maxChars < 1 {
		maxChars = 1
	}

	var lines []string
	var current strings.Builder
	currentLen := 0
	for _, word := range words {
		wordLen := len([]rune(word))
		switch {
		case currentLen == 0:
			current.WriteString(word)
			currentLen = wordLen
		case currentLen+1+wordLen <= maxChars:
			current.WriteString(" ")
			current.WriteString(word)
			currentLen += 1 + wordLen
		default:
			lines = append(lines, current.String())
			current.Reset()
			current.WriteString(word)
			currentLen = wordLen
		}
	}
	if currentLen > 0 {
		lines = append(lines, current.String())
	}
	return lines
}
