package telemetry

import (
	"errors"
	"fmt"
	"sync"
)

// Row is one accepted sample keyed by mission elapsed time.
type Row struct {
	Met    int64
	Values map[Kind]float64
}

// Table is an append-only accumulation of accepted samples, indexed by
// mission elapsed time. Columns are fixed at construction; rows are never
// rewritten once appended. A single sampler writes while API readers may
// read concurrently.
type Table struct {
	mu      sync.RWMutex
	columns []Kind
	rows    []Row
}

// NewTable constructs an empty table with a fixed column set.
func NewTable(columns []Kind) (*Table, error) {
	if len(columns) == 0 {
		return nil, errors.New("telemetry table: no columns")
	}
	seen := make(map[Kind]struct{}, len(columns))
	for _, c := range columns {
		if !c.Valid() {
			return nil, fmt.Errorf("telemetry table: unknown telemetry kind %s", c)
		}
		if _, ok := seen[c]; ok {
			return nil, fmt.Errorf("telemetry table: duplicate column %s", c)
		}
		seen[c] = struct{}{}
	}
	return &Table{columns: append([]Kind(nil), columns...)}, nil
}

// Columns returns the declared column kinds in order.
func (t *Table) Columns() []Kind {
	return append([]Kind(nil), t.columns...)
}

// Append merges one new row. The row must carry a value for every declared
// column and its met must not precede the last appended met.
func (t *Table) Append(row Row) error {
	if t == nil {
		return errors.New("telemetry table: nil table")
	}
	values := make(map[Kind]float64, len(t.columns))
	for _, c := range t.columns {
		v, ok := row.Values[c]
		if !ok {
			return fmt.Errorf("telemetry table: row missing column %s", c)
		}
		values[c] = v
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if n := len(t.rows); n > 0 && row.Met < t.rows[n-1].Met {
		return fmt.Errorf("telemetry table: met regression %d -> %d", t.rows[n-1].Met, row.Met)
	}
	t.rows = append(t.rows, Row{Met: row.Met, Values: values})
	return nil
}

// Len returns the number of accumulated rows.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.rows)
}

// Rows returns a copy of all accumulated rows in met order.
func (t *Table) Rows() []Row {
	t.mu.RLock()
	defer t.mu.RUnlock()
	rows := make([]Row, len(t.rows))
	copy(rows, t.rows)
	return rows
}

// Last returns the most recently appended row.
func (t *Table) Last() (Row, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if len(t.rows) == 0 {
		return Row{}, false
	}
	return t.rows[len(t.rows)-1], true
}
