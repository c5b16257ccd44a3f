package strategy

import (
	"fmt"

	telemetry "krpc-telemetry/internal/telemetry/domain"
)

// Strategy is one sampling variant: it declares the telemetry kinds it
// needs, the fixed column schema of its accumulation table, its sampling
// cadence, and how a table row is derived from a snapshot. Variants are
// independent implementations selected at construction; the decimation
// timing itself lives in the application sampler, not here.
type Strategy interface {
	// Name identifies the variant in config, API paths and exports.
	Name() string
	// Kinds is the exact set of telemetry kinds the variant needs live.
	Kinds() []telemetry.Kind
	// Columns is the table schema, fixed at construction. Met is the table
	// index and is not listed.
	Columns() []telemetry.Kind
	// CollectEvery is the minimum spacing between accepted samples, in
	// mission-elapsed seconds.
	CollectEvery() int64
	// Row derives one table row from an accepted snapshot.
	Row(met int64, snap telemetry.Snapshot) (telemetry.Row, error)
}

// scalarRow builds a row from the scalar snapshot values of the given
// columns. A missing or non-scalar value is an error; the first snapshot
// after start may legitimately trip this until pushes arrive.
func scalarRow(name string, met int64, snap telemetry.Snapshot, columns []telemetry.Kind) (telemetry.Row, error) {
	values := make(map[telemetry.Kind]float64, len(columns))
	for _, kind := range columns {
		value, ok := snap[kind]
		if !ok {
			return telemetry.Row{}, fmt.Errorf("strategy %s: snapshot missing %s", name, kind)
		}
		f, ok := value.Float()
		if !ok {
			return telemetry.Row{}, fmt.Errorf("strategy %s: no scalar value for %s", name, kind)
		}
		values[kind] = f
	}
	return telemetry.Row{Met: met, Values: values}, nil
}
