package quran

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// NormalizeText canonicalizes Arabic verse text: NFC composition, collapsed
// internal whitespace, and trimmed edges. Rendering depends on stable code
// point sequences so the drawtext filters and font filtering see the same
// characters the dataset intended.
func NormalizeText(text string) string {
	composed := norm.NFC.String(text)
	fields := strings.Fields(composed)
	return strings.Join(fields, " ")
}
