package settings

import "fmt"

// Density controls how much vertical room each row gets.
type Density string

const (
	DensityUltraThin Density = "ultra-thin"
	DensityThin      Density = "thin"
	DensityMedium    Density = "medium"
	DensityHigh      Density = "high"
	DensityUltraHigh Density = "ultra-high"
)

// DefaultDensity is used when nothing valid was persisted.
const DefaultDensity = DensityMedium

// Densities returns every level from tightest to loosest.
func Densities() []Density {
	return []Density{DensityUltraThin, DensityThin, DensityMedium, DensityHigh, DensityUltraHigh}
}

// Valid reports whether d is a known level.
func (d Density) Valid() bool {
	for _, v := range Densities() {
		if v == d {
			return true
		}
	}
	return false
}

// Next returns the following level, wrapping to the tightest.
func (d Density) Next() Density {
	all := Densities()
	for i, v := range all {
		if v == d {
			return all[(i+1)%len(all)]
		}
	}
	return DefaultDensity
}

// ParseDensity validates a stored or typed density name.
func ParseDensity(s string) (Density, error) {
	d := Density(s)
	if !d.Valid() {
		return "", fmt.Errorf("unknown density %q", s)
	}
	return d, nil
}
