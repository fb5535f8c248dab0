package schema

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// RowError is a single field-level validation failure.
type RowError struct {
	RowIndex int    `json:"rowIndex"`
	Field    string `json:"field"`
	Message  string `json:"message"`
}

// boolean values accepted for boolean columns, lowercase string form
var booleanTokens = map[string]struct{}{
	"true": {}, "false": {}, "1": {}, "0": {}, "yes": {}, "no": {},
}

// ValidateRow checks one row's data against every column of the template.
// Checks are exhaustive per row: a single row may report several errors,
// but a missing required value suppresses further checks for that field.
// The function is pure; it never mutates data.
func ValidateRow(rowIndex int, data map[string]any, def *Definition) []RowError {
	var errs []RowError
	for _, column := range def.Columns {
		value := data[column.Key]
		if isEmpty(value) {
			if column.Required {
				errs = append(errs, RowError{
					RowIndex: rowIndex,
					Field:    column.Key,
					Message:  fmt.Sprintf("%s is required", column.Label),
				})
			}
			continue
		}

		str := stringify(value)

		switch column.Type {
		case TypeNumber:
			if _, err := strconv.ParseFloat(str, 64); err != nil {
				errs = append(errs, RowError{
					RowIndex: rowIndex,
					Field:    column.Key,
					Message:  fmt.Sprintf("%s must be numeric", column.Label),
				})
			}
		case TypeBoolean:
			if _, ok := booleanTokens[strings.ToLower(str)]; !ok {
				errs = append(errs, RowError{
					RowIndex: rowIndex,
					Field:    column.Key,
					Message:  fmt.Sprintf("%s must be a boolean", column.Label),
				})
			}
		}
		// date columns carry caller-controlled formats; presence is enough

		if column.MaxLength > 0 && utf8.RuneCountInString(str) > column.MaxLength {
			errs = append(errs, RowError{
				RowIndex: rowIndex,
				Field:    column.Key,
				Message:  fmt.Sprintf("%s must be <= %d characters", column.Label, column.MaxLength),
			})
		}
	}
	return errs
}

// ValidateRows validates a whole row set, flattening per-row errors.
func ValidateRows(rows []Row, def *Definition) []RowError {
	var errs []RowError
	for _, row := range rows {
		errs = append(errs, ValidateRow(row.RowIndex, row.Data, def)...)
	}
	return errs
}

// Row pairs a caller-assigned ordinal with its column-keyed values.
type Row struct {
	RowIndex int            `json:"rowIndex"`
	Data     map[string]any `json:"data"`
}

// isEmpty treats nil and the empty string as absent. An empty string in a
// required column is a validation error, not a valid empty value.
func isEmpty(value any) bool {
	if value == nil {
		return true
	}
	if s, ok := value.(string); ok {
		return s == ""
	}
	return false
}

// Stringify renders a cell value in its canonical string form, the same
// form validation compares and measures.
func Stringify(value any) string {
	if value == nil {
		return ""
	}
	return stringify(value)
}

// stringify renders a value the way it is compared and measured: numbers
// without a trailing ".0" when integral, everything else via fmt.
func stringify(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	default:
		return fmt.Sprintf("%v", v)
	}
}
