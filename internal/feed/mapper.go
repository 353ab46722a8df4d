package feed

import (
	"math"
	"strconv"
	"strings"

	"gemhub-inventory-api/internal/model"
)

// unmappedSentinel marks a mapping entry the supplier explicitly left blank.
const unmappedSentinel = "none"

// Mapper projects raw rows onto canonical records using the inverse of a
// supplier's declared field mapping.
type Mapper struct {
	inverse map[string]model.Field
}

// NewMapper builds a mapper from a canonical-field → source-column mapping.
// Entries with an empty column or the "none" sentinel are skipped.
func NewMapper(mapping model.Mapping) *Mapper {
	inverse := make(map[string]model.Field, len(mapping))
	for field, column := range mapping {
		column = strings.TrimSpace(column)
		if column == "" || column == unmappedSentinel {
			continue
		}
		inverse[column] = field
	}
	return &Mapper{inverse: inverse}
}

// MapRow projects one raw row into a canonical record. Unmapped columns are
// dropped. Numeric fields are coerced tolerantly; a value that cannot be
// coerced is omitted from the record, never stored as zero.
func (m *Mapper) MapRow(row Row) model.Record {
	record := make(model.Record)
	for column, value := range row {
		field, ok := m.inverse[strings.TrimSpace(column)]
		if !ok {
			continue
		}
		if field.IsNumeric() {
			if num, ok := CoerceFloat(value); ok {
				record[field] = num
			}
			continue
		}
		trimmed := strings.TrimSpace(value)
		if trimmed != "" {
			record[field] = trimmed
		}
	}
	return record
}

// CoerceFloat parses a numeric feed value after stripping every character
// that is not a digit, dot, or minus sign ("1.20 ct" → 1.20). It reports
// false for values with no usable number ("N/A", "").
func CoerceFloat(value string) (float64, bool) {
	if strings.TrimSpace(value) == "" {
		return 0, false
	}
	var b strings.Builder
	for _, r := range value {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			b.WriteRune(r)
		}
	}
	num, err := strconv.ParseFloat(b.String(), 64)
	if err != nil || math.IsNaN(num) || math.IsInf(num, 0) {
		return 0, false
	}
	return num, true
}
