package simpleexcel

import (
	"strconv"
)

// Column maps one sheet column to a field of the exported records.
type Column struct {
	// Header is split on the exporter's header separator; each segment becomes
	// one header row. Shorter headers repeat their last segment.
	Header string
	// Field is the name passed to FieldReader.FieldValue or used as a map key.
	Field string
	// Value, when set, extracts the cell value and takes precedence over Field.
	Value func(record interface{}) (interface{}, bool)
	// Width fixes the column width. Zero means auto-fit.
	Width float64
}

// FieldReader is implemented by records that expose their fields by name.
type FieldReader interface {
	FieldValue(name string) (interface{}, bool)
}

// Record is a map-backed FieldReader, e.g. the output of ConvertToRecords.
type Record map[string]interface{}

// FieldValue implements FieldReader.
func (r Record) FieldValue(name string) (interface{}, bool) {
	v, ok := r[name]
	return v, ok
}

// Row is a raw value record. Its field names are decimal indexes: "0", "1", ...
type Row []interface{}

// FieldValue implements FieldReader.
func (r Row) FieldValue(name string) (interface{}, bool) {
	idx, err := strconv.Atoi(name)
	if err != nil || idx < 0 || idx >= len(r) {
		return nil, false
	}
	return r[idx], true
}

// resolveField looks up a column value: accessor, then FieldReader, then plain map.
func resolveField(col Column, record interface{}) (interface{}, bool) {
	if col.Value != nil {
		return col.Value(record)
	}
	switch rec := record.(type) {
	case FieldReader:
		return rec.FieldValue(col.Field)
	case map[string]interface{}:
		v, ok := rec[col.Field]
		return v, ok
	}
	return nil, false
}
