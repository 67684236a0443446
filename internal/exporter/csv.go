// Package exporter renders processed session data to downloadable
// artifacts: CSV, self-contained HTML, static images and Excel
// workbooks.
package exporter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"log/slog"
	"strconv"

	"datainsights/pkg/contracts/domain"
)

// CSVExporter reconstructs a session's series and statistics as a CSV
// document with a commented preamble.
type CSVExporter struct {
	logger *slog.Logger
}

// NewCSVExporter creates a CSV exporter.
func NewCSVExporter(logger *slog.Logger) *CSVExporter {
	return &CSVExporter{logger: logger.With(slog.String("component", "csv_exporter"))}
}

// Export writes every series as an _X/_Y/_Count_Stat column triple,
// followed by the master timeline and percentile columns. Shorter
// series are padded with empty cells so all columns share one row
// count.
func (e *CSVExporter) Export(data *domain.ProcessedData) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# Data Insights Export\n")
	fmt.Fprintf(&buf, "# Original file: %s\n", data.OriginalFilename)
	fmt.Fprintf(&buf, "# Number of series: %d\n", len(data.Series))
	fmt.Fprintf(&buf, "#\n")

	rows := maxRowCount(data)

	var header []string
	for _, s := range data.Series {
		header = append(header,
			s.Name+"_X",
			s.Name+"_Y",
			s.Name+"_Count_Stat",
		)
	}
	if data.Statistics != nil {
		header = append(header, "Timeline", "P10", "P50", "P90")
	}

	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}

	for row := 0; row < rows; row++ {
		var record []string

		for _, s := range data.Series {
			if row < s.Len() {
				record = append(record,
					strconv.Itoa(s.XValues[row]),
					formatOptionalFloat(s.YValues[row]),
					strconv.FormatBool(s.Defined[row]),
				)
			} else {
				record = append(record, "", "", "false")
			}
		}

		if stats := data.Statistics; stats != nil {
			if row < len(stats.Timeline) {
				record = append(record,
					strconv.Itoa(stats.Timeline[row]),
					formatOptionalFloat(stats.P10[row]),
					formatOptionalFloat(stats.P50[row]),
					formatOptionalFloat(stats.P90[row]),
				)
			} else {
				record = append(record, "", "", "", "")
			}
		}

		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("write csv row %d: %w", row, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}

	e.logger.Debug("csv export complete",
		slog.String("session_id", data.SessionID),
		slog.Int("rows", rows),
	)

	return buf.Bytes(), nil
}

func maxRowCount(data *domain.ProcessedData) int {
	rows := 0
	for _, s := range data.Series {
		if s.Len() > rows {
			rows = s.Len()
		}
	}
	if data.Statistics != nil && len(data.Statistics.Timeline) > rows {
		rows = len(data.Statistics.Timeline)
	}
	return rows
}

func formatOptionalFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'g', -1, 64)
}
