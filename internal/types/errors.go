package types

import (
	"errors"
	"fmt"
)

// Sentinel errors for adjrules operations.
var (
	// ErrValidation indicates a caller-supplied flat record is missing or has a malformed required field.
	ErrValidation = errors.New("invalid flat record")

	// ErrStructure indicates an original rule document lacks the nested shape an update needs.
	ErrStructure = errors.New("invalid rule document structure")

	// ErrCoercionFailed indicates a strict numeric conversion failed.
	ErrCoercionFailed = errors.New("type coercion failed")

	// ErrFieldNotFound indicates a document path could not be resolved.
	ErrFieldNotFound = errors.New("field not found")

	// ErrUnknownField indicates a label outside the fixed column set.
	ErrUnknownField = errors.New("unknown field label")

	// ErrReadOnlyField indicates an edit to an addressing column.
	ErrReadOnlyField = errors.New("field is read-only")

	// ErrRowOutOfRange indicates an edit or query on a row that does not exist.
	ErrRowOutOfRange = errors.New("row out of range")

	// ErrNoRules indicates an export produced no rule documents.
	ErrNoRules = errors.New("no rules to export")

	// ErrSchema indicates a document failed schema validation.
	ErrSchema = errors.New("document does not match schema")
)

// ValidationError names the flat-record field that failed validation.
type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("%s: field %q: %s (got %q)", ErrValidation, e.Field, e.Reason, e.Value)
	}
	return fmt.Sprintf("%s: field %q: %s", ErrValidation, e.Field, e.Reason)
}

// Unwrap enables errors.Is(err, ErrValidation).
func (e *ValidationError) Unwrap() error { return ErrValidation }

// StructuralError names the document path that could not be navigated.
type StructuralError struct {
	Path   string
	Reason string
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrStructure, e.Path, e.Reason)
}

// Unwrap enables errors.Is(err, ErrStructure).
func (e *StructuralError) Unwrap() error { return ErrStructure }
