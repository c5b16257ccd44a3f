package alarms

import (
	"errors"
	"fmt"

	telemetry "krpc-telemetry/internal/telemetry/domain"
)

// Operator compares a sampled value against a rule threshold.
type Operator string

const (
	OperatorGreater        Operator = ">"
	OperatorGreaterOrEqual Operator = ">="
	OperatorLess           Operator = "<"
	OperatorLessOrEqual    Operator = "<="
)

// Valid returns true when the operator is supported.
func (o Operator) Valid() bool {
	switch o {
	case OperatorGreater, OperatorGreaterOrEqual, OperatorLess, OperatorLessOrEqual:
		return true
	default:
		return false
	}
}

// Matches evaluates value against threshold.
func (o Operator) Matches(value, threshold float64) bool {
	switch o {
	case OperatorGreater:
		return value > threshold
	case OperatorGreaterOrEqual:
		return value >= threshold
	case OperatorLess:
		return value < threshold
	case OperatorLessOrEqual:
		return value <= threshold
	default:
		return false
	}
}

// Rule is a threshold alarm on one telemetry kind, evaluated against
// accepted samples. An example is flagging g-force above a structural
// limit during reentry.
type Rule struct {
	ID        string
	Name      string
	Kind      telemetry.Kind
	Operator  Operator
	Threshold float64
	Severity  string
	Enabled   bool
}

// Validate checks rule invariants.
func (r Rule) Validate() error {
	if r.ID == "" {
		return errors.New("alarm rule: empty id")
	}
	if r.Name == "" {
		return errors.New("alarm rule: empty name")
	}
	if !r.Kind.Valid() {
		return fmt.Errorf("alarm rule: unknown telemetry kind %s", r.Kind)
	}
	if !r.Operator.Valid() {
		return fmt.Errorf("alarm rule: invalid operator %q", r.Operator)
	}
	if r.Severity == "" {
		return errors.New("alarm rule: empty severity")
	}
	return nil
}
