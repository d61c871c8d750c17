package eip712

import (
	"errors"
	"fmt"
)

// Type-string parse errors
var (
	ErrInvalidArraySize      = errors.New("invalid array size")
	ErrUnexpectedToken       = errors.New("unexpected token")
	ErrUnsupportedArrayDepth = errors.New("unsupported array depth")
	ErrNonExistentType       = errors.New("non-existent type")
)

// Schema errors raised while resolving types or encoding values
var (
	ErrUnknownType          = errors.New("unknown type")
	ErrCyclicTypeDependency = errors.New("cyclic type dependency")
	ErrFieldTypeMismatch    = errors.New("field type mismatch")
	ErrArrayLengthMismatch  = errors.New("array length mismatch")
	ErrUnknownField         = errors.New("unknown field")
	ErrInvalidFieldName     = errors.New("invalid field name")
	ErrInvalidDocument      = errors.New("invalid typed data document")
)

// ParseError reports why a type string could not be parsed. Kind is one of the
// parse sentinels above and is matched with errors.Is.
type ParseError struct {
	Kind  error
	Token string
	Input string
}

func (e *ParseError) Error() string {
	switch {
	case errors.Is(e.Kind, ErrUnexpectedToken):
		return fmt.Sprintf("unexpected token %q in type %q", e.Token, e.Input)
	case errors.Is(e.Kind, ErrInvalidArraySize):
		return fmt.Sprintf("invalid array size %q in type %q", e.Token, e.Input)
	case errors.Is(e.Kind, ErrUnsupportedArrayDepth):
		return fmt.Sprintf("type %q nests arrays deeper than %d levels", e.Input, MaxArrayDepth)
	default:
		return fmt.Sprintf("type %q does not name a type", e.Input)
	}
}

func (e *ParseError) Unwrap() error { return e.Kind }

// FieldTypeMismatchError is returned when a value does not fit its declared type.
// Found describes the value that was supplied ("null" when the field is missing).
type FieldTypeMismatchError struct {
	Field    string
	Expected string
	Found    string
}

func (e *FieldTypeMismatchError) Error() string {
	return fmt.Sprintf("field %q: expected %s, found %s", e.Field, e.Expected, e.Found)
}

func (e *FieldTypeMismatchError) Unwrap() error { return ErrFieldTypeMismatch }

// ArrayLengthMismatchError is returned when a fixed-size array value has the
// wrong number of elements.
type ArrayLengthMismatchError struct {
	Field    string
	Expected uint64
	Found    int
}

func (e *ArrayLengthMismatchError) Error() string {
	return fmt.Sprintf("field %q: expected %d elements, found %d", e.Field, e.Expected, e.Found)
}

func (e *ArrayLengthMismatchError) Unwrap() error { return ErrArrayLengthMismatch }

func mismatch(field, expected string, found Value) error {
	return &FieldTypeMismatchError{Field: field, Expected: expected, Found: found.describe()}
}
