package feed

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drain(t *testing.T, rows *Rows) []Row {
	t.Helper()
	var out []Row
	for {
		row, err := rows.Next()
		if err == io.EOF {
			return out
		}
		require.NoError(t, err)
		out = append(out, row)
	}
}

func TestParseBareJSONArray(t *testing.T) {
	data := []byte(`[
		{"Stock #": "A1", "Weight": 1.01, "Shape": "RD"},
		{"Stock #": "A2", "Weight": 0.9, "Shape": "PS"}
	]`)

	rows, err := Parse(data)
	require.NoError(t, err)

	got := drain(t, rows)
	require.Len(t, got, 2)
	assert.Equal(t, "A1", got[0]["Stock #"])
	assert.Equal(t, "1.01", got[0]["Weight"])
	assert.Equal(t, "PS", got[1]["Shape"])
}

func TestParseWrappedJSON(t *testing.T) {
	for _, key := range []string{"data", "diamonds", "result", "results"} {
		data := []byte(`{"` + key + `": [{"stock": "B1", "carat": "2.00"}]}`)

		rows, err := Parse(data)
		require.NoError(t, err, "wrapper key %q", key)

		got := drain(t, rows)
		require.Len(t, got, 1)
		assert.Equal(t, "B1", got[0]["stock"])
	}
}

func TestParseWrappedJSONPrefersFirstKnownKey(t *testing.T) {
	data := []byte(`{
		"results": [{"stock": "WRONG"}],
		"data": [{"stock": "RIGHT"}]
	}`)

	rows, err := Parse(data)
	require.NoError(t, err)

	got := drain(t, rows)
	require.Len(t, got, 1)
	assert.Equal(t, "RIGHT", got[0]["stock"])
}

func TestParseUnrecognizedJSONObject(t *testing.T) {
	_, err := Parse([]byte(`{"inventory": [{"stock": "C1"}]}`))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnrecognizedJSONShape)
}

func TestParseJSONArrayOfNonObjects(t *testing.T) {
	_, err := Parse([]byte(`["a", "b"]`))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnrecognizedJSONShape)
}

func TestParseJSONNumbersKeepPrecision(t *testing.T) {
	data := []byte(`[{"stock": "D1", "price": 1234.56789012345}]`)

	rows, err := Parse(data)
	require.NoError(t, err)

	got := drain(t, rows)
	require.Len(t, got, 1)
	assert.Equal(t, "1234.56789012345", got[0]["price"])
}

func TestParseCSV(t *testing.T) {
	data := []byte("Stock #,Weight,Shape\nA1,1.01,RD\nA2,0.90,PS\n")

	rows, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, []string{"Stock #", "Weight", "Shape"}, rows.Headers())

	got := drain(t, rows)
	require.Len(t, got, 2)
	assert.Equal(t, "RD", got[0]["Shape"])
	assert.Equal(t, "A2", got[1]["Stock #"])
}

func TestParseCSVStripsBOM(t *testing.T) {
	data := []byte("\uFEFFStock,Carat\nX1,1.5\n")

	rows, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, []string{"Stock", "Carat"}, rows.Headers())
}

func TestParseCSVSkipsBlankRows(t *testing.T) {
	data := []byte("Stock,Carat\nA1,1.0\n,\n  ,  \nA2,2.0\n")

	rows, err := Parse(data)
	require.NoError(t, err)

	got := drain(t, rows)
	require.Len(t, got, 2)
	assert.Equal(t, "A1", got[0]["Stock"])
	assert.Equal(t, "A2", got[1]["Stock"])
}

func TestParseCSVRaggedRows(t *testing.T) {
	// Rows shorter than the header simply omit the trailing columns.
	data := []byte("Stock,Carat,Shape\nA1,1.0\n")

	rows, err := Parse(data)
	require.NoError(t, err)

	got := drain(t, rows)
	require.Len(t, got, 1)
	assert.Equal(t, "1.0", got[0]["Carat"])
	_, hasShape := got[0]["Shape"]
	assert.False(t, hasShape)
}

func TestHeadersCSV(t *testing.T) {
	headers, err := Headers([]byte("Stock #, Weight ,Shape\nA1,1.0,RD\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"Stock #", "Weight", "Shape"}, headers)
}

func TestHeadersJSON(t *testing.T) {
	headers, err := Headers([]byte(`{"data": [{"stock": "A1", "carat": 1}]}`))
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"stock", "carat"}, headers)
}

func TestHeadersEmptyJSONArray(t *testing.T) {
	_, err := Headers([]byte(`[]`))
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrUnrecognizedJSONShape))
}
