package export

import (
	"encoding/csv"
	"errors"
	"io"
	"strconv"

	telemetry "krpc-telemetry/internal/telemetry/domain"
)

// WriteTableCSV streams an accumulation table as CSV with met as the first
// column.
func WriteTableCSV(w io.Writer, table *telemetry.Table) error {
	if table == nil {
		return errors.New("export: nil table")
	}
	columns := table.Columns()

	writer := csv.NewWriter(w)
	header := make([]string, 0, len(columns)+1)
	header = append(header, "met")
	for _, c := range columns {
		header = append(header, c.String())
	}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, row := range table.Rows() {
		record := make([]string, 0, len(columns)+1)
		record = append(record, strconv.FormatInt(row.Met, 10))
		for _, c := range columns {
			record = append(record, strconv.FormatFloat(row.Values[c], 'f', -1, 64))
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
