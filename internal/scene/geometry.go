package scene

import (
	"fmt"

	"alforqan/internal/services"
)

// Orientation classifies the frame shape.
type Orientation string

const (
	OrientationWidescreen Orientation = "widescreen"
	OrientationVertical   Orientation = "vertical"
	OrientationSquare     Orientation = "square"
)

// Geometry is the resolved pixel layout of the output.
type Geometry struct {
	Width       int         `json:"width"`
	Height      int         `json:"height"`
	FrameRate   int         `json:"frame_rate"`
	AspectRatio string      `json:"aspect_ratio"`
	Orientation Orientation `json:"orientation"`
}

// widescreen base dimensions per quality tier
var qualityDimensions = map[string][2]int{
	"low":        {854, 480},
	"medium":     {1280, 720},
	"high":       {1920, 1080},
	"production": {2560, 1440},
}

// QualityNames lists the supported quality tiers from low to production.
func QualityNames() []string {
	return []string{"low", "medium", "high", "production"}
}

// ResolveGeometry maps an aspect ratio and quality tier to pixel dimensions.
// Vertical output swaps the widescreen dimensions and square output uses the
// shorter side for both.
func ResolveGeometry(aspectRatio, quality string, frameRate int) (Geometry, error) {
	dims, ok := qualityDimensions[quality]
	if !ok {
		return Geometry{}, services.Wrap(services.ErrValidation, "scene", "geometry",
			fmt.Sprintf("unknown quality %q", quality), nil)
	}
	if frameRate <= 0 {
		return Geometry{}, services.Wrap(services.ErrValidation, "scene", "geometry",
			fmt.Sprintf("frame rate must be positive, got %d", frameRate), nil)
	}

	geometry := Geometry{FrameRate: frameRate, AspectRatio: aspectRatio}
	switch aspectRatio {
	case "16:9":
		geometry.Width, geometry.Height = dims[0], dims[1]
		geometry.Orientation = OrientationWidescreen
	case "9:16":
		geometry.Width, geometry.Height = dims[1], dims[0]
		geometry.Orientation = OrientationVertical
	case "1:1":
		side := dims[1]
		geometry.Width, geometry.Height = side, side
		geometry.Orientation = OrientationSquare
	default:
		return Geometry{}, services.Wrap(services.ErrValidation, "scene", "geometry",
			fmt.Sprintf("unknown aspect ratio %q", aspectRatio), nil)
	}
	return geometry, nil
}

// InfoBottomMargin returns the bottom margin for the info line as a fraction
// of frame height, tuned per orientation.
func (g Geometry) InfoBottomMargin() float64 {
	switch g.Orientation {
	case OrientationVertical:
		return 0.15
	case OrientationSquare:
		return 0.12
	default:
		return 0.10
	}
}
