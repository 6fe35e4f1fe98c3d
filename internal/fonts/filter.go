package fonts

import "unicode"

// renderableRanges approximates the coverage of the bundled Quranic fonts.
// Code points outside these ranges are dropped before rendering so a glyph
// gap never shows up as a placeholder box.
var renderableRanges = []struct {
	lo, hi rune
}{
	{0x0020, 0x007E}, // basic latin
	{0x0600, 0x06FF}, // arabic
	{0x0750, 0x077F}, // arabic supplement
	{0x08A0, 0x08FF}, // arabic extended-a
	{0xFB50, 0xFDFF}, // arabic presentation forms-a
	{0xFE70, 0xFEFF}, // arabic presentation forms-b
	{0x2010, 0x2015}, // dashes used in transliteration
}

// strippedRunes never render cleanly even inside the covered ranges.
var strippedRunes = map[rune]struct{}{
	0x06DD: {}, // end of ayah sign, rendered separately
	0xFDFD: {}, // bismillah ligature
	0xFEFF: {}, // zero width no-break space
}

// IsRenderable reports whether a code point survives filtering.
func IsRenderable(r rune) bool {
	if _, stripped := strippedRunes[r]; stripped {
		return false
	}
	if unicode.IsControl(r) {
		return false
	}
	for _, rng := range renderableRanges {
		if r >= rng.lo && r <= rng.hi {
			return true
		}
	}
	return false
}

// FilterText drops code points the rendering fonts cannot display.
func FilterText(text string) string {
	filtered := make([]rune, 0, len(text))
	for _, r := range text {
		if IsRenderable(r) {
			filtered = append(filtered, r)
		}
	}
	return string(filtered)
}

// UnsupportedRunes lists the distinct code points FilterText would drop,
// in order of first appearance.
func UnsupportedRunes(text string) []rune {
	seen := make(map[rune]struct{})
	var dropped []rune
	for _, r := range text {
		if IsRenderable(r) {
			continue
		}
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		dropped = append(dropped, r)
	}
	return dropped
}
