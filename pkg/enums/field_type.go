package enums

import "fmt"

// FieldType identifies how a variant table field stores its values.
type FieldType string

const (
	FieldTypeText   FieldType = "text"
	FieldTypeNumber FieldType = "number"
	FieldTypeImage  FieldType = "image"
)

var validFieldTypes = []FieldType{
	FieldTypeText,
	FieldTypeNumber,
	FieldTypeImage,
}

// String implements fmt.Stringer.
func (f FieldType) String() string {
	return string(f)
}

// IsValid reports whether the value matches a known FieldType.
func (f FieldType) IsValid() bool {
	for _, candidate := range validFieldTypes {
		if candidate == f {
			return true
		}
	}
	return false
}

// ParseFieldType converts raw input into a FieldType.
func ParseFieldType(value string) (FieldType, error) {
	for _, candidate := range validFieldTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid field type %q", value)
}
