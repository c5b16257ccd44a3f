package strategy

import (
	"fmt"

	telemetry "krpc-telemetry/internal/telemetry/domain"
)

// Default cadences per variant, in mission-elapsed seconds.
const (
	defaultOrbitalVelocityEvery = 5
	defaultSurfaceAscentEvery   = 1
	defaultAtmosphereEvery      = 1
	defaultFlightLoadsEvery     = 1
)

// OrbitalVelocity tracks orbital speed over mission time.
type OrbitalVelocity struct {
	every int64
}

// NewOrbitalVelocity constructs the variant. A non-positive cadence selects
// the default.
func NewOrbitalVelocity(every int64) *OrbitalVelocity {
	if every <= 0 {
		every = defaultOrbitalVelocityEvery
	}
	return &OrbitalVelocity{every: every}
}

func (s *OrbitalVelocity) Name() string { return "orbital_velocity" }

func (s *OrbitalVelocity) Kinds() []telemetry.Kind {
	return []telemetry.Kind{telemetry.KindMET, telemetry.KindOrbitalSpeed}
}

func (s *OrbitalVelocity) Columns() []telemetry.Kind {
	return []telemetry.Kind{telemetry.KindOrbitalSpeed}
}

func (s *OrbitalVelocity) CollectEvery() int64 { return s.every }

func (s *OrbitalVelocity) Row(met int64, snap telemetry.Snapshot) (telemetry.Row, error) {
	return scalarRow(s.Name(), met, snap, s.Columns())
}

// SurfaceAscent tracks surface-relative speeds and the orbit apsides, the
// quantities of interest while climbing out of the atmosphere.
type SurfaceAscent struct {
	every int64
}

// NewSurfaceAscent constructs the variant.
func NewSurfaceAscent(every int64) *SurfaceAscent {
	if every <= 0 {
		every = defaultSurfaceAscentEvery
	}
	return &SurfaceAscent{every: every}
}

func (s *SurfaceAscent) Name() string { return "surface_ascent" }

func (s *SurfaceAscent) Kinds() []telemetry.Kind {
	return append([]telemetry.Kind{telemetry.KindMET}, s.Columns()...)
}

func (s *SurfaceAscent) Columns() []telemetry.Kind {
	return []telemetry.Kind{
		telemetry.KindSurfaceSpeed,
		telemetry.KindSurfaceHorizontalSpeed,
		telemetry.KindSurfaceVerticalSpeed,
		telemetry.KindOrbitalApoapsis,
		telemetry.KindOrbitalPeriapsis,
	}
}

func (s *SurfaceAscent) CollectEvery() int64 { return s.every }

func (s *SurfaceAscent) Row(met int64, snap telemetry.Snapshot) (telemetry.Row, error) {
	return scalarRow(s.Name(), met, snap, s.Columns())
}

// Atmosphere tracks ambient density and pressure readings.
type Atmosphere struct {
	every int64
}

// NewAtmosphere constructs the variant.
func NewAtmosphere(every int64) *Atmosphere {
	if every <= 0 {
		every = defaultAtmosphereEvery
	}
	return &Atmosphere{every: every}
}

func (s *Atmosphere) Name() string { return "atmosphere" }

func (s *Atmosphere) Kinds() []telemetry.Kind {
	return append([]telemetry.Kind{telemetry.KindMET}, s.Columns()...)
}

func (s *Atmosphere) Columns() []telemetry.Kind {
	return []telemetry.Kind{
		telemetry.KindAtmosphereDensity,
		telemetry.KindDynamicPressure,
		telemetry.KindStaticPressure,
	}
}

func (s *Atmosphere) CollectEvery() int64 { return s.every }

func (s *Atmosphere) Row(met int64, snap telemetry.Snapshot) (telemetry.Row, error) {
	return scalarRow(s.Name(), met, snap, s.Columns())
}

// FlightLoads tracks structural load indicators: g-force and the magnitude
// of the aerodynamic force acting on the vessel.
type FlightLoads struct {
	every int64
}

// NewFlightLoads constructs the variant.
func NewFlightLoads(every int64) *FlightLoads {
	if every <= 0 {
		every = defaultFlightLoadsEvery
	}
	return &FlightLoads{every: every}
}

func (s *FlightLoads) Name() string { return "flight_loads" }

func (s *FlightLoads) Kinds() []telemetry.Kind {
	return []telemetry.Kind{telemetry.KindMET, telemetry.KindGForce, telemetry.KindAerodynamicForce}
}

func (s *FlightLoads) Columns() []telemetry.Kind {
	return []telemetry.Kind{telemetry.KindGForce, telemetry.KindAerodynamicForce}
}

func (s *FlightLoads) CollectEvery() int64 { return s.every }

func (s *FlightLoads) Row(met int64, snap telemetry.Snapshot) (telemetry.Row, error) {
	gforce, ok := snap[telemetry.KindGForce]
	if !ok {
		return telemetry.Row{}, fmt.Errorf("strategy %s: snapshot missing %s", s.Name(), telemetry.KindGForce)
	}
	g, ok := gforce.Float()
	if !ok {
		return telemetry.Row{}, fmt.Errorf("strategy %s: no scalar value for %s", s.Name(), telemetry.KindGForce)
	}
	aero, ok := snap[telemetry.KindAerodynamicForce]
	if !ok {
		return telemetry.Row{}, fmt.Errorf("strategy %s: snapshot missing %s", s.Name(), telemetry.KindAerodynamicForce)
	}
	force, ok := aero.Vec()
	if !ok {
		return telemetry.Row{}, fmt.Errorf("strategy %s: no vector value for %s", s.Name(), telemetry.KindAerodynamicForce)
	}
	return telemetry.Row{
		Met: met,
		Values: map[telemetry.Kind]float64{
			telemetry.KindGForce:           g,
			telemetry.KindAerodynamicForce: force.Magnitude(),
		},
	}, nil
}

// NewByName constructs a variant from its config name.
func NewByName(name string, every int64) (Strategy, error) {
	switch name {
	case "orbital_velocity":
		return NewOrbitalVelocity(every), nil
	case "surface_ascent":
		return NewSurfaceAscent(every), nil
	case "atmosphere":
		return NewAtmosphere(every), nil
	case "flight_loads":
		return NewFlightLoads(every), nil
	default:
		return nil, fmt.Errorf("strategy: unknown strategy %q", name)
	}
}
