package schema

import (
	"encoding/json"

	"github.com/go-playground/validator/v10"
)

// ColumnType enumerates the value types a template column may declare.
type ColumnType string

const (
	TypeString  ColumnType = "string"
	TypeNumber  ColumnType = "number"
	TypeBoolean ColumnType = "boolean"
	TypeDate    ColumnType = "date"
)

// Column is a single column of a template definition.
type Column struct {
	Key       string     `json:"key" validate:"required"`
	Label     string     `json:"label" validate:"required"`
	Type      ColumnType `json:"type" validate:"omitempty,oneof=string number boolean date"`
	Required  bool       `json:"required"`
	MaxLength int        `json:"maxLength,omitempty" validate:"omitempty,gt=0"`
	Options   []string   `json:"options,omitempty"`
}

// Definition is the column schema a product template stores and a
// dataset's rows are validated against.
type Definition struct {
	Code        string   `json:"code" validate:"required,min=2"`
	Name        string   `json:"name" validate:"required,min=2"`
	ProductCode string   `json:"productCode" validate:"required,min=2"`
	Columns     []Column `json:"columns" validate:"required,min=1,dive"`
}

var validate = validator.New()

// ParseDefinition decodes and validates a stored template schema document.
// A failure here is a data integrity fault of the stored template, not a
// caller error.
func ParseDefinition(raw []byte) (*Definition, error) {
	var def Definition
	if err := json.Unmarshal(raw, &def); err != nil {
		return nil, err
	}
	for i := range def.Columns {
		if def.Columns[i].Type == "" {
			def.Columns[i].Type = TypeString
		}
	}
	if err := validate.Struct(&def); err != nil {
		return nil, err
	}
	return &def, nil
}

// MarshalDefinition encodes a definition for storage.
func MarshalDefinition(def *Definition) ([]byte, error) {
	return json.Marshal(def)
}
