package feed

import (
	"fmt"
	"io"

	"gemhub-inventory-api/internal/model"
)

// RowError is a per-row diagnostic recorded while processing a batch.
type RowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// AllRowsInvalidError is returned when every candidate row in a batch failed
// validation. A feed with zero candidate rows is not an error.
type AllRowsInvalidError struct {
	Count  int
	Sample RowError
}

func (e *AllRowsInvalidError) Error() string {
	return fmt.Sprintf("processing failed for all %d rows; sample error (row %d): %s",
		e.Count, e.Sample.Row, e.Sample.Message)
}

// Process drains a row sequence through normalization, mapping, and
// validation. Rows missing the mandatory stock identifier or weight are
// skipped and recorded as diagnostics; rows that mapped to nothing at all
// are ignored silently. The batch fails only when every candidate row
// failed.
func Process(rows *Rows, mapping model.Mapping, synonyms SynonymTable) ([]model.Record, []RowError, error) {
	mapper := NewMapper(mapping)
	var records []model.Record
	var diags []RowError

	rowNum := 0
	for {
		row, err := rows.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, diags, fmt.Errorf("row read failed: %w", err)
		}
		rowNum++

		record := mapper.MapRow(synonyms.NormalizeRow(row))
		if record.StockID() != "" && record.HasCarat() {
			records = append(records, record)
			continue
		}
		if len(record) > 0 {
			diags = append(diags, RowError{
				Row:     rowNum,
				Message: "missing stockId or carat after mapping",
			})
		}
	}

	if len(records) == 0 && len(diags) > 0 {
		return nil, diags, &AllRowsInvalidError{Count: len(diags), Sample: diags[0]}
	}
	return records, diags, nil
}
