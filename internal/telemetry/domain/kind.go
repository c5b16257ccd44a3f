package telemetry

import "fmt"

// Kind identifies one live telemetry quantity observed on a vessel.
// The set is finite and ordered; each kind maps to exactly one
// acquisition recipe in the stream factory.
type Kind int

const (
	KindMET Kind = iota
	KindOrbitalSpeed
	KindSurfaceSpeed
	KindSurfaceHorizontalSpeed
	KindSurfaceVerticalSpeed
	KindOrbitalApoapsis
	KindOrbitalPeriapsis
	KindGForce
	KindCenterOfMass
	KindAtmosphereDensity
	KindDynamicPressure
	KindStaticPressure
	KindAerodynamicForce
)

var kindNames = map[Kind]string{
	KindMET:                    "met",
	KindOrbitalSpeed:           "orbital_speed",
	KindSurfaceSpeed:           "surface_speed",
	KindSurfaceHorizontalSpeed: "surface_horizontal_speed",
	KindSurfaceVerticalSpeed:   "surface_vertical_speed",
	KindOrbitalApoapsis:        "orbital_apoapsis",
	KindOrbitalPeriapsis:       "orbital_periapsis",
	KindGForce:                 "g_force",
	KindCenterOfMass:           "center_of_mass",
	KindAtmosphereDensity:      "atmosphere_density",
	KindDynamicPressure:        "dynamic_pressure",
	KindStaticPressure:         "static_pressure",
	KindAerodynamicForce:       "aerodynamic_force",
}

// AllKinds returns every known kind in declaration order.
func AllKinds() []Kind {
	kinds := make([]Kind, 0, len(kindNames))
	for k := KindMET; k <= KindAerodynamicForce; k++ {
		kinds = append(kinds, k)
	}
	return kinds
}

// Valid returns true when the kind is part of the declared enumeration.
func (k Kind) Valid() bool {
	_, ok := kindNames[k]
	return ok
}

// String returns the stable wire/config name of the kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind resolves a config/wire name back to a Kind.
func ParseKind(name string) (Kind, error) {
	for k, n := range kindNames {
		if n == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("telemetry: unknown telemetry kind %q", name)
}
