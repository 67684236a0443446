package exporter

import (
	"fmt"
	"log/slog"

	"github.com/xuri/excelize/v2"

	"datainsights/pkg/contracts/domain"
)

const (
	dataSheetName  = "Data"
	statsSheetName = "Statistics"
)

// XLSXExporter writes processed session data to an Excel workbook with
// one sheet for the raw series and one for the computed statistics.
type XLSXExporter struct {
	logger *slog.Logger
}

// NewXLSXExporter creates an Excel exporter.
func NewXLSXExporter(logger *slog.Logger) *XLSXExporter {
	return &XLSXExporter{logger: logger.With(slog.String("component", "xlsx_exporter"))}
}

// Export builds the workbook and returns its bytes.
func (e *XLSXExporter) Export(data *domain.ProcessedData) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := e.writeDataSheet(f, data); err != nil {
		return nil, err
	}
	if err := e.writeStatsSheet(f, data.Statistics); err != nil {
		return nil, err
	}

	// The workbook starts with a default sheet we replace.
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("delete default sheet: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("serialize workbook: %w", err)
	}

	e.logger.Debug("xlsx export complete",
		slog.String("session_id", data.SessionID),
		slog.Int("bytes", buf.Len()),
	)

	return buf.Bytes(), nil
}

func (e *XLSXExporter) writeDataSheet(f *excelize.File, data *domain.ProcessedData) error {
	idx, err := f.NewSheet(dataSheetName)
	if err != nil {
		return fmt.Errorf("create data sheet: %w", err)
	}
	f.SetActiveSheet(idx)

	col := 1
	for _, s := range data.Series {
		if err := setHeaderTriple(f, col, s.Name); err != nil {
			return err
		}

		for row := 0; row < s.Len(); row++ {
			y := interface{}(nil)
			if s.YValues[row] != nil {
				y = *s.YValues[row]
			}

			if err := setRow(f, dataSheetName, col, row+2, s.XValues[row], y, s.Defined[row]); err != nil {
				return err
			}
		}

		col += 3
	}

	return nil
}

func (e *XLSXExporter) writeStatsSheet(f *excelize.File, stats *domain.Statistics) error {
	if _, err := f.NewSheet(statsSheetName); err != nil {
		return fmt.Errorf("create statistics sheet: %w", err)
	}

	headers := []string{"Timeline", "P10", "P50", "P90", "Mean", "Count"}
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(statsSheetName, cell, h); err != nil {
			return err
		}
	}

	if stats == nil {
		return nil
	}

	for row, day := range stats.Timeline {
		values := []interface{}{
			day,
			optionalFloat(stats.P10[row]),
			optionalFloat(stats.P50[row]),
			optionalFloat(stats.P90[row]),
			optionalFloat(stats.Mean[row]),
			stats.Count[row],
		}

		for i, v := range values {
			if v == nil {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(i+1, row+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(statsSheetName, cell, v); err != nil {
				return err
			}
		}
	}

	return nil
}

func setHeaderTriple(f *excelize.File, col int, name string) error {
	headers := []string{name + "_X", name + "_Y", name + "_Count_Stat"}
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(col+i, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(dataSheetName, cell, h); err != nil {
			return err
		}
	}
	return nil
}

func setRow(f *excelize.File, sheet string, col, row int, x int, y interface{}, defined bool) error {
	values := []interface{}{x, y, defined}
	for i, v := range values {
		if v == nil {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(col+i, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return err
		}
	}
	return nil
}

func optionalFloat(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}
