package scene

import (
	"sort"
	"strings"

	"alforqan/internal/services"
)

// ColorScheme names a five color palette. The last color renders text and
// the leading colors build the background.
type ColorScheme string

const (
	SchemeDesertSunset      ColorScheme = "desert_sunset"
	SchemeMosqueAzure       ColorScheme = "mosque_azure"
	SchemeGoldenDome        ColorScheme = "golden_dome"
	SchemeArabesque         ColorScheme = "arabesque"
	SchemePrayerNight       ColorScheme = "prayer_night"
	SchemeCalligraphy       ColorScheme = "calligraphy"
	SchemePersianGarden     ColorScheme = "persian_garden"
	SchemeAndalusian        ColorScheme = "andalusian"
	SchemeDamascusMorning   ColorScheme = "damascus_morning"
	SchemeMedinaEvening     ColorScheme = "medina_evening"
	SchemeOttomanRoyal      ColorScheme = "ottoman_royal"
	SchemePropheticGreen    ColorScheme = "prophetic_green"
	SchemeKaabaBlack        ColorScheme = "kaaba_black"
	SchemeIslamicManuscript ColorScheme = "islamic_manuscript"
)

var colorSchemes = map[ColorScheme][5]string{
	SchemeDesertSunset:      {"#B76E22", "#C69749", "#E3C770", "#EAD7BB", "#FFFFFF"},
	SchemeMosqueAzure:       {"#006C67", "#00A9A5", "#90E0EF", "#CAF0F8", "#FFFFFF"},
	SchemeGoldenDome:        {"#916A3D", "#C4A962", "#DAC585", "#F0E6C8", "#FFFFFF"},
	SchemeArabesque:         {"#1F4E5F", "#5B8A72", "#BAC7A7", "#E5E4CC", "#FFFFFF"},
	SchemePrayerNight:       {"#0A2342", "#2C4A7F", "#537EC5", "#89A7E0", "#FFFFFF"},
	SchemeCalligraphy:       {"#2C3E50", "#34495E", "#5D6D7E", "#85929E", "#FFFFFF"},
	SchemePersianGarden:     {"#2A6041", "#4B8063", "#89B6A5", "#C4E3D7", "#FFFFFF"},
	SchemeAndalusian:        {"#7B4B94", "#9B6B9E", "#BB8FA9", "#DDC4DD", "#FFFFFF"},
	SchemeDamascusMorning:   {"#D68438", "#E4A853", "#F2CC8F", "#FAE6BE", "#FFFFFF"},
	SchemeMedinaEvening:     {"#553772", "#674EA7", "#9B8ABA", "#C3B7D9", "#FFFFFF"},
	SchemeOttomanRoyal:      {"#8C1C13", "#BF4342", "#E7D7C1", "#F4E6CC", "#FFFFFF"},
	SchemePropheticGreen:    {"#0B4619", "#1B6B3C", "#4E9B5E", "#8FBC94", "#FFFFFF"},
	SchemeKaabaBlack:        {"#191919", "#2D2D2D", "#4D4D4D", "#808080", "#FFFFFF"},
	SchemeIslamicManuscript: {"#8B4513", "#BC7642", "#DEB887", "#F5DEB3", "#FFFFFF"},
}

// ParseColorScheme resolves a case-insensitive scheme name.
func ParseColorScheme(name string) (ColorScheme, error) {
	scheme := ColorScheme(strings.ToLower(strings.TrimSpace(name)))
	if _, ok := colorSchemes[scheme]; !ok {
		return "", services.Wrap(services.ErrValidation, "scene", "parse", "unknown color scheme "+name, nil)
	}
	return scheme, nil
}

// SchemeNames lists all scheme names sorted alphabetically.
func SchemeNames() []string {
	names := make([]string, 0, len(colorSchemes))
	for scheme := range colorSchemes {
		names = append(names, string(scheme))
	}
	sort.Strings(names)
	return names
}

// Colors returns the full five color palette.
func (c ColorScheme) Colors() []string {
	palette := colorSchemes[c]
	return palette[:]
}

// TextColor returns the color used for rendered text.
func (c ColorScheme) TextColor() string {
	palette := colorSchemes[c]
	return palette[len(palette)-1]
}

// GradientColors returns the three colors blended across the background.
func (c ColorScheme) GradientColors() []string {
	palette := colorSchemes[c]
	return palette[:3]
}

// BaseColor returns the solid background color.
func (c ColorScheme) BaseColor() string {
	palette := colorSchemes[c]
	return palette[0]
}

// AccentColor returns the color used for pattern overlays.
func (c ColorScheme) AccentColor() string {
	palette := colorSchemes[c]
	return palette[3]
}

// Title renders the scheme name for display, e.g. "Desert Sunset".
func (c ColorScheme) Title() string {
	words := strings.Split(string(c), "_")
	for i, word := range words {
		if word == "" {
			continue
		}
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	return strings.Join(words, " ")
}
