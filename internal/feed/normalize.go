package feed

import "strings"

// SynonymTable maps a lower-cased column name to a lower-cased-value →
// canonical-value table. Values are normalized before mapping so a supplier
// feed may say "rd" where the marketplace vocabulary says "Round".
type SynonymTable map[string]map[string]string

// DefaultSynonyms covers the common trade abbreviations for the graded
// attributes. Engines may supply their own table instead.
var DefaultSynonyms = SynonymTable{
	"shape": {
		"rd":  "Round",
		"rbc": "Round",
		"br":  "Round",
		"ps":  "Pear",
		"pr":  "Princess",
		"pc":  "Princess",
		"em":  "Emerald",
		"em.": "Emerald",
		"as":  "Asscher",
		"sq":  "Asscher",
		"ov":  "Oval",
		"mq":  "Marquise",
		"mar": "Marquise",
		"cu":  "Cushion",
		"cus": "Cushion",
		"rad": "Radiant",
		"ra":  "Radiant",
		"hs":  "Heart",
		"ht":  "Heart",
	},
	"cut": {
		"ex":  "Excellent",
		"exc": "Excellent",
		"vg":  "Very Good",
		"gd":  "Good",
		"g":   "Good",
		"f":   "Fair",
		"fr":  "Fair",
		"id":  "Ideal",
	},
	"polish": {
		"ex": "Excellent",
		"vg": "Very Good",
		"gd": "Good",
		"g":  "Good",
		"f":  "Fair",
	},
	"symmetry": {
		"ex": "Excellent",
		"vg": "Very Good",
		"gd": "Good",
		"g":  "Good",
		"f":  "Fair",
	},
	"fluorescence": {
		"n":    "None",
		"non":  "None",
		"fnt":  "Faint",
		"f":    "Faint",
		"med":  "Medium",
		"m":    "Medium",
		"stg":  "Strong",
		"st":   "Strong",
		"vst":  "Very Strong",
		"vstg": "Very Strong",
	},
	"availability": {
		"a":         "AVAILABLE",
		"avail":     "AVAILABLE",
		"available": "AVAILABLE",
		"in stock":  "AVAILABLE",
		"s":         "SOLD",
		"sold":      "SOLD",
		"sold out":  "SOLD",
		"hold":      "ON_HOLD",
		"on hold":   "ON_HOLD",
		"memo":      "ON_MEMO",
	},
}

// NormalizeRow replaces each value that has a synonym entry for its column
// with the canonical value. Blank values and the placeholder "*" pass
// through untouched, as does the original column casing.
func (t SynonymTable) NormalizeRow(row Row) Row {
	if len(t) == 0 {
		return row
	}
	out := make(Row, len(row))
	for header, value := range row {
		out[header] = t.normalize(header, value)
	}
	return out
}

func (t SynonymTable) normalize(header, value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" || trimmed == "*" {
		return value
	}
	table, ok := t[strings.ToLower(header)]
	if !ok {
		return value
	}
	if canonical, ok := table[strings.ToLower(trimmed)]; ok {
		return canonical
	}
	return value
}
