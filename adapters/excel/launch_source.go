package excel

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"launchdash/domain/launch"
	"launchdash/internal/errors"
	"launchdash/ports"
)

// LaunchSource loads launch records from a CSV or XLSX file
type LaunchSource struct {
	config ExcelConfig
	reader *DataReader
}

var _ ports.LaunchSource = (*LaunchSource)(nil)

// NewLaunchSource creates a file-backed launch source
func NewLaunchSource(config ExcelConfig) *LaunchSource {
	return &LaunchSource{config: config, reader: NewDataReader(config)}
}

// Load reads the file and converts every row into a launch record
func (s *LaunchSource) Load(ctx context.Context) (*launch.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := s.reader.ReadData()
	if err != nil {
		return nil, errors.DatasetLoad(s.config.FilePath, err)
	}

	records, err := ConvertRows(data)
	if err != nil {
		return nil, errors.DatasetLoad(s.config.FilePath, err)
	}
	return launch.NewDataset(s.config.FilePath, records), nil
}

// ConvertRows maps spreadsheet rows onto launch records. Every required column
// must be present in the header; blank or unparseable cells become missing values.
func ConvertRows(data *ExcelData) ([]launch.Record, error) {
	var missing []string
	for _, col := range launch.RequiredColumns {
		if !data.HasColumn(col) {
			missing = append(missing, strconv.Quote(col))
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required columns: %s", strings.Join(missing, ", "))
	}

	records := make([]launch.Record, 0, len(data.Rows))
	for _, row := range data.Rows {
		record := launch.Record{
			LaunchSite:             row[launch.ColumnLaunchSite],
			BoosterVersionCategory: row[launch.ColumnBoosterCategory],
			Outcome:                ParseOutcome(row[launch.ColumnClass]),
		}
		if payload, ok := ParsePayload(row[launch.ColumnPayloadMass]); ok {
			record.PayloadMassKg = payload
			record.PayloadKnown = true
		}
		records = append(records, record)
	}
	return records, nil
}

// ParsePayload parses a payload cell. Blank, NaN and infinite values are missing.
func ParsePayload(cell string) (float64, bool) {
	cell = strings.ReplaceAll(strings.TrimSpace(cell), ",", "")
	if cell == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		return 0, false
	}
	r := launch.Record{PayloadMassKg: v, PayloadKnown: true}
	return r.Payload()
}

// ParseOutcome parses a class cell ("1", "0", "1.0", ...). Anything else is unknown.
func ParseOutcome(cell string) launch.Outcome {
	v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
	if err != nil {
		return launch.OutcomeUnknown
	}
	switch v {
	case 1:
		return launch.OutcomeSuccess
	case 0:
		return launch.OutcomeFailure
	default:
		return launch.OutcomeUnknown
	}
}
