package telemetry

import "math"

// Vector3 is a three-component telemetry value such as a force or a
// center-of-mass position, expressed in the frame the stream was created in.
type Vector3 struct {
	X float64
	Y float64
	Z float64
}

// Magnitude returns the euclidean length of the vector.
func (v Vector3) Magnitude() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Value is a single telemetry reading. Exactly one of Numeric or Vector is
// set, depending on the kind the reading belongs to.
type Value struct {
	Numeric *float64
	Vector  *Vector3
}

// NumericValue wraps a scalar reading.
func NumericValue(f float64) Value {
	return Value{Numeric: &f}
}

// VectorValue wraps a vector reading.
func VectorValue(v Vector3) Value {
	return Value{Vector: &v}
}

// Float returns the scalar component when present.
func (v Value) Float() (float64, bool) {
	if v.Numeric == nil {
		return 0, false
	}
	return *v.Numeric, true
}

// Vec returns the vector component when present.
func (v Value) Vec() (Vector3, bool) {
	if v.Vector == nil {
		return Vector3{}, false
	}
	return *v.Vector, true
}

// Transform converts a raw reading into its presentation unit/shape.
// A nil Transform means pass-through.
type Transform func(Value) Value
