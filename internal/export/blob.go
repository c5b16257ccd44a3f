package export

import (
	"errors"
	"time"

	"github.com/arloliu/mebo"

	telemetry "krpc-telemetry/internal/telemetry/domain"
)

// EncodeTableBlob packs an accumulation table into a compact mebo numeric
// blob. Each column becomes one metric named "<strategy>.<kind>"; met
// seconds are mapped onto the blob timeline relative to startTime.
func EncodeTableBlob(strategy string, table *telemetry.Table, startTime time.Time) ([]byte, error) {
	if table == nil {
		return nil, errors.New("export: nil table")
	}
	if strategy == "" {
		return nil, errors.New("export: empty strategy")
	}
	rows := table.Rows()
	if len(rows) == 0 {
		return nil, errors.New("export: empty table")
	}

	encoder, err := mebo.NewDefaultNumericEncoder(startTime)
	if err != nil {
		return nil, err
	}

	for _, column := range table.Columns() {
		metricID := mebo.MetricID(strategy + "." + column.String())
		if err := encoder.StartMetricID(metricID, len(rows)); err != nil {
			return nil, err
		}
		for _, row := range rows {
			ts := startTime.Add(time.Duration(row.Met) * time.Second).UnixMicro()
			if err := encoder.AddDataPoint(ts, row.Values[column], ""); err != nil {
				return nil, err
			}
		}
		if err := encoder.EndMetric(); err != nil {
			return nil, err
		}
	}

	return encoder.Finish()
}
