package krpc

import (
	"context"
	"errors"
	"fmt"
	"math"

	telemetry "krpc-telemetry/internal/telemetry/domain"
)

// ErrUnknownKind indicates a telemetry kind outside the declared
// enumeration was requested. This is a programming or configuration error
// and is never retried.
var ErrUnknownKind = errors.New("krpc factory: unknown telemetry kind")

// Bridge is the subset of the transport client the factory needs.
type Bridge interface {
	AddStream(ctx context.Context, path string) (telemetry.Feed, error)
	ResolveFlight(ctx context.Context, frame string) (string, error)
}

// Reference frames understood by the bridge.
const (
	frameBody   = "body"
	frameVessel = "vessel"
)

// target names the remote object a recipe reads from.
type target int

const (
	targetVessel target = iota
	targetOrbit
	targetBodyFlight
	targetVesselFlight
)

type recipe struct {
	target    target
	attribute string
	transform telemetry.Transform
}

// recipes maps every telemetry kind to its acquisition recipe: which remote
// object the attribute hangs off, and the unit transform applied on read.
var recipes = map[telemetry.Kind]recipe{
	telemetry.KindMET:                    {targetVessel, "met", floorSeconds},
	telemetry.KindOrbitalSpeed:           {targetOrbit, "speed", roundDecimals(1)},
	telemetry.KindSurfaceSpeed:           {targetBodyFlight, "speed", roundDecimals(1)},
	telemetry.KindSurfaceHorizontalSpeed: {targetBodyFlight, "horizontal_speed", roundDecimals(1)},
	telemetry.KindSurfaceVerticalSpeed:   {targetBodyFlight, "vertical_speed", roundDecimals(1)},
	telemetry.KindOrbitalApoapsis:        {targetOrbit, "apoapsis_altitude", metersToKilometers},
	telemetry.KindOrbitalPeriapsis:       {targetOrbit, "periapsis_altitude", metersToKilometers},
	telemetry.KindGForce:                 {targetBodyFlight, "g_force", roundDecimals(1)},
	telemetry.KindCenterOfMass:           {targetBodyFlight, "center_of_mass", nil},
	telemetry.KindAtmosphereDensity:      {targetBodyFlight, "atmosphere_density", nil},
	telemetry.KindDynamicPressure:        {targetBodyFlight, "dynamic_pressure", nil},
	telemetry.KindStaticPressure:         {targetBodyFlight, "static_pressure", nil},
	telemetry.KindAerodynamicForce:       {targetVesselFlight, "aerodynamic_force", nil},
}

// Factory builds telemetry streams from acquisition recipes. The two derived
// flight accessors are resolved lazily, once each, the first time a kind
// needing them is requested, and cached for the life of the factory.
type Factory struct {
	bridge Bridge
	rate   float64

	bodyFlight   string
	vesselFlight string
}

// NewFactory constructs a factory. All streams it creates share one default
// update rate.
func NewFactory(bridge Bridge, rate float64) (*Factory, error) {
	if bridge == nil {
		return nil, errors.New("krpc factory: nil bridge")
	}
	if rate <= 0 {
		return nil, fmt.Errorf("krpc factory: non-positive rate %v", rate)
	}
	return &Factory{bridge: bridge, rate: rate}, nil
}

// Create builds the stream for a telemetry kind. Unknown kinds fail fast
// before any transport call, so no partial handle is ever constructed.
func (f *Factory) Create(ctx context.Context, kind telemetry.Kind) (*telemetry.Stream, error) {
	rec, ok := recipes[kind]
	if !ok {
		return nil, fmt.Errorf("%w %s", ErrUnknownKind, kind)
	}

	path, err := f.accessorPath(ctx, rec)
	if err != nil {
		return nil, err
	}
	feed, err := f.bridge.AddStream(ctx, path)
	if err != nil {
		return nil, err
	}
	return telemetry.NewStream(kind, feed, f.rate, rec.transform)
}

func (f *Factory) accessorPath(ctx context.Context, rec recipe) (string, error) {
	switch rec.target {
	case targetVessel:
		return "vessel." + rec.attribute, nil
	case targetOrbit:
		return "vessel.orbit." + rec.attribute, nil
	case targetBodyFlight:
		prefix, err := f.flightPrefix(ctx, frameBody, &f.bodyFlight)
		if err != nil {
			return "", err
		}
		return prefix + "." + rec.attribute, nil
	case targetVesselFlight:
		prefix, err := f.flightPrefix(ctx, frameVessel, &f.vesselFlight)
		if err != nil {
			return "", err
		}
		return prefix + "." + rec.attribute, nil
	default:
		return "", fmt.Errorf("krpc factory: unhandled target %d", rec.target)
	}
}

func (f *Factory) flightPrefix(ctx context.Context, frame string, cache *string) (string, error) {
	if *cache != "" {
		return *cache, nil
	}
	prefix, err := f.bridge.ResolveFlight(ctx, frame)
	if err != nil {
		return "", err
	}
	*cache = prefix
	return prefix, nil
}

func floorSeconds(v telemetry.Value) telemetry.Value {
	f, ok := v.Float()
	if !ok {
		return v
	}
	return telemetry.NumericValue(math.Floor(f))
}

func roundDecimals(decimals int) telemetry.Transform {
	factor := math.Pow(10, float64(decimals))
	return func(v telemetry.Value) telemetry.Value {
		f, ok := v.Float()
		if !ok {
			return v
		}
		return telemetry.NumericValue(math.Round(f*factor) / factor)
	}
}

func metersToKilometers(v telemetry.Value) telemetry.Value {
	f, ok := v.Float()
	if !ok {
		return v
	}
	return telemetry.NumericValue(math.Round(f / 1000))
}
