// Package ingest parses uploaded CSV bytes into raw paired series.
//
// The expected layout is pairs of columns: the first column of each pair
// holds X values in fractional months, the second holds the Y
// measurement. A single header row names each series via the Y column
// header. Cells that fail numeric parsing degrade to undefined points
// instead of aborting the whole file.
package ingest

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// RawSeries is one (X, Y) column pair as parsed from the file, before
// unit conversion and timeline alignment.
type RawSeries struct {
	Name    string
	X       []float64 // fractional months, as written in the file
	Y       []*float64
	Defined []bool
}

// ValidationError reports a structurally unusable file.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

func newValidationError(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// Parse converts raw CSV bytes into a list of raw series.
//
// It fails with ValidationError when the file is empty, has an unpaired
// trailing column, or no pair yields a single numeric Y value. Rows
// whose X cell is not numeric are dropped for that series; rows whose Y
// cell is not numeric keep their X and are marked undefined.
func Parse(data []byte) ([]*RawSeries, error) {
	data = normalizeEncoding(data)

	if len(bytes.TrimSpace(data)) == 0 {
		return nil, newValidationError("CSV file is empty")
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, newValidationError("CSV parsing error: %v", err)
	}
	if len(records) == 0 {
		return nil, newValidationError("CSV file is empty")
	}

	header := records[0]
	if len(header)%2 != 0 {
		return nil, newValidationError("CSV must contain paired columns (X, Y), found %d columns", len(header))
	}

	rows := records[1:]
	seen := make(map[string]int)

	var result []*RawSeries
	anyDefined := false

	for pair := 0; pair*2 < len(header); pair++ {
		xIdx := pair * 2
		yIdx := xIdx + 1

		name := seriesName(header[xIdx], header[yIdx], pair)
		if n, dup := seen[name]; dup {
			seen[name] = n + 1
			name = fmt.Sprintf("%s_%d", name, n+1)
		} else {
			seen[name] = 1
		}

		series := &RawSeries{Name: name}

		for _, row := range rows {
			if xIdx >= len(row) {
				continue
			}

			xCell := strings.TrimSpace(row[xIdx])
			if xCell == "" {
				continue
			}

			x, err := strconv.ParseFloat(xCell, 64)
			if err != nil {
				// Non-numeric X leaves no timeline point to anchor the
				// row to, so it is dropped for this series.
				continue
			}

			var y *float64
			defined := false
			if yIdx < len(row) {
				if v, err := strconv.ParseFloat(strings.TrimSpace(row[yIdx]), 64); err == nil {
					y = &v
					defined = true
					anyDefined = true
				}
			}

			series.X = append(series.X, x)
			series.Y = append(series.Y, y)
			series.Defined = append(series.Defined, defined)
		}

		result = append(result, series)
	}

	if !anyDefined {
		return nil, newValidationError("CSV contains no numeric measurement values")
	}

	return result, nil
}

// seriesName derives a series name from the pair's headers: the Y
// header when present, then the shared header prefix, then a positional
// fallback.
func seriesName(xHeader, yHeader string, pair int) string {
	if name := strings.TrimSpace(yHeader); name != "" {
		return name
	}

	if prefix := sharedPrefix(strings.TrimSpace(xHeader), strings.TrimSpace(yHeader)); prefix != "" {
		return prefix
	}

	return fmt.Sprintf("series_%d", pair+1)
}

// sharedPrefix returns the common leading text of two headers, trimmed
// of separator characters.
func sharedPrefix(a, b string) string {
	max := len(a)
	if len(b) < max {
		max = len(b)
	}

	i := 0
	for i < max && a[i] == b[i] {
		i++
	}

	return strings.TrimRight(a[:i], " -_")
}

// normalizeEncoding strips a UTF-8 BOM and transcodes Latin-1 input so
// the CSV reader always sees valid UTF-8.
func normalizeEncoding(data []byte) []byte {
	data = bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})

	if utf8.Valid(data) {
		return data
	}

	// Latin-1 fallback: every byte maps to the code point of the same
	// value.
	out := make([]rune, 0, len(data))
	for _, b := range data {
		out = append(out, rune(b))
	}
	return []byte(string(out))
}
