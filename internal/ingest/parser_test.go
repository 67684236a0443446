package ingest

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTwoSeriesWithGaps(t *testing.T) {
	csv := "MonthA,ValA,MonthB,ValB\n" +
		"0,10,0,20\n" +
		"1,,1,30\n" +
		"2,15,2,\n"

	series, err := Parse([]byte(csv))
	require.NoError(t, err)
	require.Len(t, series, 2)

	valA := series[0]
	assert.Equal(t, "ValA", valA.Name)
	assert.Equal(t, []float64{0, 1, 2}, valA.X)
	require.Len(t, valA.Y, 3)
	assert.Equal(t, 10.0, *valA.Y[0])
	assert.Nil(t, valA.Y[1])
	assert.Equal(t, 15.0, *valA.Y[2])
	assert.Equal(t, []bool{true, false, true}, valA.Defined)

	valB := series[1]
	assert.Equal(t, "ValB", valB.Name)
	assert.Equal(t, []float64{0, 1, 2}, valB.X)
	require.Len(t, valB.Y, 3)
	assert.Equal(t, 20.0, *valB.Y[0])
	assert.Equal(t, 30.0, *valB.Y[1])
	assert.Nil(t, valB.Y[2])
}

func TestParseLengthsAlwaysMatch(t *testing.T) {
	csv := "X,Y\n0.5,1\nbad,2\n1.5,\n2.5,7\n"

	series, err := Parse([]byte(csv))
	require.NoError(t, err)
	require.Len(t, series, 1)

	s := series[0]
	assert.Len(t, s.X, 3) // the non-numeric X row is dropped
	assert.Len(t, s.Y, len(s.X))
	assert.Len(t, s.Defined, len(s.X))
}

func TestParseUnevenPairLengths(t *testing.T) {
	// Second pair runs out of rows before the first.
	csv := "XA,A,XB,B\n0,1,0,5\n1,2\n2,3\n"

	series, err := Parse([]byte(csv))
	require.NoError(t, err)
	require.Len(t, series, 2)

	assert.Len(t, series[0].X, 3)
	assert.Len(t, series[1].X, 1)
}

func TestParseValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		csv  string
	}{
		{name: "empty file", csv: ""},
		{name: "whitespace only", csv: "   \n  "},
		{name: "odd column count", csv: "X,Y,Z\n1,2,3\n"},
		{name: "no numeric measurements", csv: "X,Y\n1,abc\n2,def\n"},
		{name: "header only", csv: "X,Y\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.csv))
			require.Error(t, err)

			var verr *ValidationError
			assert.True(t, errors.As(err, &verr), "expected ValidationError, got %T", err)
		})
	}
}

func TestParseDuplicateSeriesNames(t *testing.T) {
	csv := "X,Val,X,Val\n0,1,0,2\n"

	series, err := Parse([]byte(csv))
	require.NoError(t, err)
	require.Len(t, series, 2)

	assert.Equal(t, "Val", series[0].Name)
	assert.Equal(t, "Val_2", series[1].Name)
}

func TestParseStripsUTF8BOM(t *testing.T) {
	csv := append([]byte{0xEF, 0xBB, 0xBF}, []byte("X,Y\n0,1\n")...)

	series, err := Parse(csv)
	require.NoError(t, err)
	require.Len(t, series, 1)
	assert.Equal(t, "Y", series[0].Name)
}

func TestParseLatin1Fallback(t *testing.T) {
	// 0xE9 is 'é' in Latin-1 and invalid as a standalone UTF-8 byte.
	csv := []byte("X,Temp\xe9rature\n0,1\n")

	series, err := Parse(csv)
	require.NoError(t, err)
	require.Len(t, series, 1)
	assert.Equal(t, "Température", series[0].Name)
}

func TestParseSeriesNameFallbacks(t *testing.T) {
	// Blank Y header with no shared prefix gets a positional name.
	series, err := Parse([]byte("Month,\n0,1\n"))
	require.NoError(t, err)
	require.Len(t, series, 1)
	assert.Equal(t, "series_1", series[0].Name)
}
