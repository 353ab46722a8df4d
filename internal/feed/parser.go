package feed

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ErrUnrecognizedJSONShape is returned when a payload parses as JSON but no
// array of records can be located in it.
var ErrUnrecognizedJSONShape = errors.New("could not find an array of records in the JSON payload")

// wrapperKeys are tried in order when a JSON payload is an object rather
// than a bare array.
var wrapperKeys = []string{"data", "diamonds", "result", "results"}

// Row is one raw source row: column name to raw string value. Column casing
// is preserved for the mapper's inverse lookup.
type Row map[string]string

// Rows is a single-pass sequence of raw rows produced by Parse.
type Rows struct {
	headers []string
	csv     *csv.Reader
	json    []map[string]interface{}
	pos     int
}

// Headers returns the detected column names. For JSON payloads these are the
// keys of the first record.
func (r *Rows) Headers() []string {
	return r.headers
}

// Next returns the next row, or io.EOF when the sequence is exhausted.
func (r *Rows) Next() (Row, error) {
	if r.csv != nil {
		return r.nextCSV()
	}
	if r.pos >= len(r.json) {
		return nil, io.EOF
	}
	item := r.json[r.pos]
	r.pos++
	row := make(Row, len(item))
	for k, v := range item {
		row[strings.TrimSpace(k)] = stringifyJSONValue(v)
	}
	return row, nil
}

func (r *Rows) nextCSV() (Row, error) {
	for {
		rec, err := r.csv.Read()
		if err != nil {
			return nil, err
		}
		empty := true
		for _, v := range rec {
			if strings.TrimSpace(v) != "" {
				empty = false
				break
			}
		}
		if empty {
			continue
		}
		row := make(Row, len(r.headers))
		for i, h := range r.headers {
			if i < len(rec) {
				row[h] = rec[i]
			}
		}
		return row, nil
	}
}

// Parse detects the payload format and returns a row sequence. JSON is tried
// first: a bare array, or an array under one of the known wrapper keys.
// Anything that fails JSON parsing is treated as delimited text with the
// first line as the header. The input is never empty; the caller handles the
// empty-feed case before parsing.
func Parse(data []byte) (*Rows, error) {
	if items, ok, err := tryJSON(data); ok {
		if err != nil {
			return nil, err
		}
		return &Rows{headers: jsonHeaders(items), json: items}, nil
	}
	return parseCSV(data)
}

// Headers parses just far enough to return the column list, for the
// mapping-configuration preview flows. Detection is identical to Parse.
func Headers(data []byte) ([]string, error) {
	rows, err := Parse(data)
	if err != nil {
		return nil, err
	}
	if len(rows.headers) == 0 {
		return nil, fmt.Errorf("could not extract any headers")
	}
	return rows.headers, nil
}

// tryJSON reports whether the buffer is JSON and, if so, locates the record
// array in it.
func tryJSON(data []byte) ([]map[string]interface{}, bool, error) {
	var parsed interface{}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&parsed); err != nil {
		return nil, false, nil
	}

	switch v := parsed.(type) {
	case []interface{}:
		items, err := toRecordSlice(v)
		return items, true, err
	case map[string]interface{}:
		for _, key := range wrapperKeys {
			if arr, ok := v[key].([]interface{}); ok {
				items, err := toRecordSlice(arr)
				return items, true, err
			}
		}
		return nil, true, ErrUnrecognizedJSONShape
	default:
		// Valid JSON scalar (e.g. a bare number) is not a record payload;
		// fall through to delimited-text parsing.
		return nil, false, nil
	}
}

func toRecordSlice(arr []interface{}) ([]map[string]interface{}, error) {
	items := make([]map[string]interface{}, 0, len(arr))
	for _, el := range arr {
		obj, ok := el.(map[string]interface{})
		if !ok {
			return nil, ErrUnrecognizedJSONShape
		}
		items = append(items, obj)
	}
	return items, nil
}

func jsonHeaders(items []map[string]interface{}) []string {
	if len(items) == 0 {
		return nil
	}
	headers := make([]string, 0, len(items[0]))
	for k := range items[0] {
		headers = append(headers, strings.TrimSpace(k))
	}
	return headers
}

func parseCSV(data []byte) (*Rows, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header row: %w", err)
	}
	headers := make([]string, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		h = strings.TrimPrefix(h, "\uFEFF")
		headers[i] = h
	}
	return &Rows{headers: headers, csv: reader}, nil
}

func stringifyJSONValue(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(b)
	}
}
