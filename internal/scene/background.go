package scene

import (
	"sort"
	"strings"

	"alforqan/internal/services"
)

// BackgroundStyle selects the background treatment behind the verse text.
type BackgroundStyle string

const (
	StyleSolid              BackgroundStyle = "solid"
	StyleGradient           BackgroundStyle = "gradient"
	StyleGrid               BackgroundStyle = "grid"
	StyleDiagonalSquare     BackgroundStyle = "diagonal_square"
	StyleDiagonalSquareDots BackgroundStyle = "diagonal_square_dots"
	StyleDiagonalPoints     BackgroundStyle = "diagonal_points"
	StyleDiamondDots        BackgroundStyle = "diamond_dots"
	StyleHexagonal          BackgroundStyle = "hexagonal"
	StyleGeometricStars     BackgroundStyle = "geometric_stars"
	StyleStarMotifGeometric BackgroundStyle = "star_motif_geometric"
)

var backgroundStyles = map[BackgroundStyle]struct{}{
	StyleSolid:              {},
	StyleGradient:           {},
	StyleGrid:               {},
	StyleDiagonalSquare:     {},
	StyleDiagonalSquareDots: {},
	StyleDiagonalPoints:     {},
	StyleDiamondDots:        {},
	StyleHexagonal:          {},
	StyleGeometricStars:     {},
	StyleStarMotifGeometric: {},
}

// ParseBackgroundStyle resolves a case-insensitive style name.
func ParseBackgroundStyle(name string) (BackgroundStyle, error) {
	style := BackgroundStyle(strings.ToLower(strings.TrimSpace(name)))
	if _, ok := backgroundStyles[style]; !ok {
		return "", services.Wrap(services.ErrValidation, "scene", "parse", "unknown background style "+name, nil)
	}
	return style, nil
}

// StyleNames lists all background style names sorted alphabetically.
func StyleNames() []string {
	names := make([]string, 0, len(backgroundStyles))
	for style := range backgroundStyles {
		names = append(names, string(style))
	}
	sort.Strings(names)
	return names
}

// HasPattern reports whether the style layers a geometric pattern over the base.
func (s BackgroundStyle) HasPattern() bool {
	return s != StyleSolid && s != StyleGradient
}

// GradientDirection points the background gradient.
type GradientDirection string

const (
	DirectionUp        GradientDirection = "up"
	DirectionDown      GradientDirection = "down"
	DirectionLeft      GradientDirection = "left"
	DirectionRight     GradientDirection = "right"
	DirectionUpLeft    GradientDirection = "up_left"
	DirectionUpRight   GradientDirection = "up_right"
	DirectionDownLeft  GradientDirection = "down_left"
	DirectionDownRight GradientDirection = "down_right"
)

// unit vectors per direction, y axis pointing down as in pixel space
var directionVectors = map[GradientDirection][2]int{
	DirectionUp:        {0, -1},
	DirectionDown:      {0, 1},
	DirectionLeft:      {-1, 0},
	DirectionRight:     {1, 0},
	DirectionUpLeft:    {-1, -1},
	DirectionUpRight:   {1, -1},
	DirectionDownLeft:  {-1, 1},
	DirectionDownRight: {1, 1},
}

// ParseGradientDirection resolves a case-insensitive direction name.
func ParseGradientDirection(name string) (GradientDirection, error) {
	direction := GradientDirection(strings.ToLower(strings.TrimSpace(name)))
	if _, ok := directionVectors[direction]; !ok {
		return "", services.Wrap(services.ErrValidation, "scene", "parse", "unknown gradient direction "+name, nil)
	}
	return direction, nil
}

// Endpoints maps the direction onto start and end pixel coordinates for a
// frame, the line along which the gradient colors blend.
func (d GradientDirection) Endpoints(width, height int) (x0, y0, x1, y1 int) {
	vec := directionVectors[d]
	midX, midY := width/2, height/2

	x0, x1 = midX, midX
	y0, y1 = midY, midY
	switch vec[0] {
	case 1:
		x0, x1 = 0, width
	case -1:
		x0, x1 = width, 0
	}
	switch vec[1] {
	case 1:
		y0, y1 = 0, height
	case -1:
		y0, y1 = height, 0
	}
	return x0, y0, x1, y1
}
