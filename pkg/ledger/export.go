package ledger

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// ExportFormat represents supported export formats
type ExportFormat string

const (
	ExportFormatJSON ExportFormat = "json"
	ExportFormatCSV  ExportFormat = "csv"
)

// Export serializes the entries within the window in the requested format
func (l *Ledger) Export(start, end *time.Time, format ExportFormat) ([]byte, error) {
	entries := l.ExportEntries(start, end)

	switch format {
	case ExportFormatJSON:
		return json.MarshalIndent(entries, "", "  ")
	case ExportFormatCSV:
		return exportCSV(entries)
	default:
		return nil, fmt.Errorf("unsupported export format: %s", format)
	}
}

func exportCSV(entries []Entry) ([]byte, error) {
	var buf strings.Builder
	writer := csv.NewWriter(&buf)

	header := []string{
		"Timestamp", "Model", "Operation",
		"Input Units", "Output Units", "Image Count",
		"Cost", "Request ID", "User ID",
	}
	if err := writer.Write(header); err != nil {
		return nil, err
	}

	for _, e := range entries {
		row := []string{
			e.Timestamp.Format(time.RFC3339),
			e.Model,
			string(e.Operation),
			fmt.Sprintf("%d", e.InputUnits),
			fmt.Sprintf("%d", e.OutputUnits),
			fmt.Sprintf("%d", e.ImageCount),
			fmt.Sprintf("%.6f", e.Cost),
			e.RequestID,
			e.UserID,
		}
		if err := writer.Write(row); err != nil {
			return nil, err
		}
	}

	writer.Flush()
	return []byte(buf.String()), nil
}
