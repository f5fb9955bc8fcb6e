package history

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
)

// Export formats supported by the store.
const (
	FormatJSON = "json"
	FormatCSV  = "csv"
)

// csvHeader is the fixed first line of CSV exports. Spreadsheet consumers
// depend on the "Date,Build Number" prefix exactly as spelled.
var csvHeader = []string{"Date", "Build Number", "Test Name", "Status", "Duration (ms)"}

// Export serializes the persisted snapshot. JSON is the indented snapshot
// itself; CSV carries one row per test run under the fixed header.
func (s *Store) Export(ctx context.Context, format string) (string, error) {
	data, err := s.Load(ctx)
	if err != nil {
		return "", err
	}

	switch format {
	case FormatJSON:
		raw, err := json.MarshalIndent(data, "", "  ")
		if err != nil {
			return "", fmt.Errorf("failed to serialize snapshot: %w", err)
		}
		return string(raw), nil
	case FormatCSV:
		buf := &bytes.Buffer{}
		writer := csv.NewWriter(buf)
		if err := writer.Write(csvHeader); err != nil {
			return "", fmt.Errorf("failed to write CSV header: %w", err)
		}
		for _, run := range data.TestRuns {
			row := []string{
				run.Timestamp.UTC().Format(dayLayout),
				strconv.FormatInt(run.BuildNumber, 10),
				run.TestName,
				string(run.Status),
				strconv.FormatFloat(run.Duration, 'f', -1, 64),
			}
			if err := writer.Write(row); err != nil {
				return "", fmt.Errorf("failed to write CSV row for %q: %w", run.TestName, err)
			}
		}
		writer.Flush()
		if err := writer.Error(); err != nil {
			return "", fmt.Errorf("failed to flush CSV output: %w", err)
		}
		return buf.String(), nil
	default:
		return "", fmt.Errorf("unsupported export format %q, expected %q or %q", format, FormatJSON, FormatCSV)
	}
}
