// Package geo implements the cartographic projections used by the threat map.
package geo

import "fmt"

// Kind identifies one of the supported map projections.
type Kind string

const (
	NaturalEarth    Kind = "naturalEarth"
	Mercator        Kind = "mercator"
	Equirectangular Kind = "equirectangular"
	Robinson        Kind = "robinson"
	Winkel3         Kind = "winkel3"
	Eckert4         Kind = "eckert4"
	Orthographic    Kind = "orthographic"
)

// Kinds returns every supported projection in the order the control
// overlay cycles through them.
func Kinds() []Kind {
	return []Kind{NaturalEarth, Mercator, Equirectangular, Robinson, Winkel3, Eckert4, Orthographic}
}

// ParseKind converts a projection name as found in flags or config.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds() {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown projection %q", s)
}

func (k Kind) String() string { return string(k) }

// DisplayName is the human label shown on the projection switch button.
func (k Kind) DisplayName() string {
	switch k {
	case NaturalEarth:
		return "Natural Earth"
	case Mercator:
		return "Mercator"
	case Equirectangular:
		return "Equirectangular"
	case Robinson:
		return "Robinson"
	case Winkel3:
		return "Winkel Tripel"
	case Eckert4:
		return "Eckert IV"
	case Orthographic:
		return "Globe"
	}
	return string(k)
}

// MinZoom is the lowest view scale allowed for this projection. The globe
// clips badly below 0.8 so it gets a tighter floor.
func (k Kind) MinZoom() float64 {
	if k == Orthographic {
		return 0.8
	}
	return 0.5
}

// MaxZoom is shared by all projections.
const MaxZoom = 8.0

// scaleMultiplier is the per-kind fraction of min(viewport) used as the
// base projection scale.
func (k Kind) scaleMultiplier() float64 {
	switch k {
	case Mercator, NaturalEarth:
		return 0.08
	case Orthographic:
		return 0.4
	default:
		return 0.11
	}
}
