package feed

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gemhub-inventory-api/internal/model"
)

func TestCoerceFloat(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"1.20", 1.20, true},
		{"1.20 ct", 1.20, true},
		{"$4,500.00", 4500.00, true},
		{" 0.9 ", 0.9, true},
		{"-2.5%", -2.5, true},
		{"N/A", 0, false},
		{"", 0, false},
		{"   ", 0, false},
		{"carats", 0, false},
	}
	for _, tt := range tests {
		got, ok := CoerceFloat(tt.in)
		assert.Equal(t, tt.ok, ok, "input %q", tt.in)
		if tt.ok {
			assert.InDelta(t, tt.want, got, 1e-9, "input %q", tt.in)
		}
	}
}

func TestMapRow(t *testing.T) {
	mapping := model.Mapping{
		model.FieldStockID: "Stock #",
		model.FieldCarat:   "Weight",
		model.FieldShape:   "Shape",
		model.FieldPrice:   "Price",
		model.FieldColor:   "none",
		model.FieldClarity: "",
	}
	mapper := NewMapper(mapping)

	record := mapper.MapRow(Row{
		"Stock #":  "A1",
		"Weight":   "1.20 ct",
		"Shape":    "  Round  ",
		"Price":    "N/A",
		"Color":    "D",
		"Comments": "nice stone",
	})

	assert.Equal(t, "A1", record.StockID())
	assert.Equal(t, 1.20, record[model.FieldCarat])
	assert.Equal(t, "Round", record[model.FieldShape])

	// Uncoercible numeric is absent, not zero.
	_, hasPrice := record[model.FieldPrice]
	assert.False(t, hasPrice)

	// "none" sentinel and empty mapping entries do not capture columns.
	_, hasColor := record[model.FieldColor]
	assert.False(t, hasColor)
}

func TestNormalizeRow(t *testing.T) {
	row := DefaultSynonyms.NormalizeRow(Row{
		"Shape":        "RD",
		"Cut":          "ex",
		"Fluorescence": "NON",
		"Status":       "sold out",
		"Color":        "D",
		"Clarity":      "*",
		"Polish":       "",
	})

	assert.Equal(t, "Round", row["Shape"])
	assert.Equal(t, "Excellent", row["Cut"])
	assert.Equal(t, "None", row["Fluorescence"])
	// No synonym table is keyed "status"; the value passes through.
	assert.Equal(t, "sold out", row["Status"])
	// Unknown values, blanks, and the "*" placeholder pass through.
	assert.Equal(t, "D", row["Color"])
	assert.Equal(t, "*", row["Clarity"])
	assert.Equal(t, "", row["Polish"])
}

func TestNormalizeRowAvailabilityColumn(t *testing.T) {
	row := DefaultSynonyms.NormalizeRow(Row{"Availability": "In Stock"})
	assert.Equal(t, "AVAILABLE", row["Availability"])
}

func processAll(t *testing.T, payload string, mapping model.Mapping) ([]model.Record, []RowError, error) {
	t.Helper()
	rows, err := Parse([]byte(payload))
	require.NoError(t, err)
	return Process(rows, mapping, DefaultSynonyms)
}

func TestProcessValidBatch(t *testing.T) {
	mapping := model.Mapping{
		model.FieldStockID: "Stock",
		model.FieldCarat:   "Carat",
		model.FieldShape:   "Shape",
	}

	records, diags, err := processAll(t, "Stock,Carat,Shape\nA1,1.01,RD\nA2,0.90,PS\n", mapping)
	require.NoError(t, err)
	assert.Empty(t, diags)
	require.Len(t, records, 2)
	assert.Equal(t, "A1", records[0].StockID())
	assert.Equal(t, "Round", records[0][model.FieldShape])
	assert.Equal(t, "Pear", records[1][model.FieldShape])
}

func TestProcessSkipsRowsMissingMandatoryFields(t *testing.T) {
	mapping := model.Mapping{
		model.FieldStockID: "Stock",
		model.FieldCarat:   "Carat",
	}

	records, diags, err := processAll(t, "Stock,Carat\nA1,1.0\nA2,N/A\n,2.0\n", mapping)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "A1", records[0].StockID())
	require.Len(t, diags, 2)
	assert.Equal(t, 2, diags[0].Row)
	assert.Equal(t, 3, diags[1].Row)
}

func TestProcessAllRowsInvalid(t *testing.T) {
	mapping := model.Mapping{
		model.FieldStockID: "Stock",
		model.FieldCarat:   "Carat",
	}

	records, diags, err := processAll(t, "Stock,Carat\nA1,N/A\nA2,broken\n", mapping)
	require.Error(t, err)
	assert.Nil(t, records)
	assert.Len(t, diags, 2)

	var allInvalid *AllRowsInvalidError
	require.ErrorAs(t, err, &allInvalid)
	assert.Equal(t, 2, allInvalid.Count)
	assert.Equal(t, 1, allInvalid.Sample.Row)
}

func TestProcessEmptyMappedRowsAreNotAnError(t *testing.T) {
	// The mapping captures none of the feed's columns: every row maps to an
	// empty record, which is ignored silently rather than failing the batch.
	mapping := model.Mapping{
		model.FieldStockID: "SKU",
		model.FieldCarat:   "Ct",
	}

	records, diags, err := processAll(t, "Stock,Carat\nA1,1.0\n", mapping)
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.Empty(t, diags)
}
