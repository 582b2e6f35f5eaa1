package parser

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrStructuralValidation = errors.New("receipt failed structural validation")
	ErrUnrecognizedLine     = errors.New("unrecognized receipt line")
)

// Header fields a receipt cannot be ingested without
const (
	FieldDate          = "date"
	FieldReceiptNumber = "receipt_number"
	FieldTotal         = "total"
)

// StructuralValidationError names the required header fields that were not found
type StructuralValidationError struct {
	Missing []string
}

func (e *StructuralValidationError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: missing %s", ErrStructuralValidation.Error(), strings.Join(e.Missing, ", "))
}

func (e *StructuralValidationError) Unwrap() error { return ErrStructuralValidation }

// UnrecognizedLineError is returned instead of a warning under PolicyFail
type UnrecognizedLineError struct {
	Line int // 0-based index into the receipt's lines
	Text string
}

func (e *UnrecognizedLineError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s %d: %q", ErrUnrecognizedLine.Error(), e.Line+1, e.Text)
}

func (e *UnrecognizedLineError) Unwrap() error { return ErrUnrecognizedLine }
