package projection

import (
	"errors"
	"fmt"
)

// Severity separates type-wide misconfiguration from per-instance problems.
type Severity int

const (
	// SeveritySoft affects one field or one record. Callers skip it and continue.
	SeveritySoft Severity = iota
	// SeverityFatal affects every instance of a type. Callers stop processing the type.
	SeverityFatal
)

// String returns the severity name.
func (s Severity) String() string {
	if s == SeverityFatal {
		return "fatal"
	}
	return "soft"
}

// ErrorCode categorizes projection failures.
type ErrorCode string

// Fatal (schema-level) codes.
const (
	// CodeUnknownType indicates the object's type is not in the catalog.
	CodeUnknownType ErrorCode = "UNKNOWN_TYPE"

	// CodeMissingPrimaryKey indicates the type declares no primary key.
	CodeMissingPrimaryKey ErrorCode = "MISSING_PRIMARY_KEY"

	// CodeUnsupportedPrimaryKey indicates the primary key is neither string nor int.
	CodeUnsupportedPrimaryKey ErrorCode = "UNSUPPORTED_PRIMARY_KEY"

	// CodeUnsupportedScope indicates a database scope with no zone rule.
	CodeUnsupportedScope ErrorCode = "UNSUPPORTED_SCOPE"
)

// Soft (instance-level) codes.
const (
	// CodePrimaryKeyMismatch indicates the primary-key value's runtime type
	// disagrees with its declared kind.
	CodePrimaryKeyMismatch ErrorCode = "PRIMARY_KEY_MISMATCH"

	// CodeInvalidRecordName indicates a string primary key the remote store rejects.
	CodeInvalidRecordName ErrorCode = "INVALID_RECORD_NAME"

	// CodeValueMismatch indicates a property value's runtime type disagrees
	// with its declared kind.
	CodeValueMismatch ErrorCode = "VALUE_MISMATCH"

	// CodeUnsupportedKind indicates a property kind the record format cannot carry.
	CodeUnsupportedKind ErrorCode = "UNSUPPORTED_KIND"

	// CodeUnsupportedElement indicates a collection element kind the record
	// format cannot carry.
	CodeUnsupportedElement ErrorCode = "UNSUPPORTED_ELEMENT"

	// CodeTargetNotSyncable indicates a relationship target that does not
	// satisfy the projection contract.
	CodeTargetNotSyncable ErrorCode = "TARGET_NOT_SYNCABLE"
)

// Sentinel causes for invalid record names.
var (
	ErrNonASCIIName      = errors.New("record name must contain only ASCII characters")
	ErrNameTooLong       = fmt.Errorf("record name must not exceed %d characters", MaxRecordNameLength)
	ErrLeadingUnderscore = errors.New("record name must not start with an underscore")
)

// Error is a projection failure with a severity and a code.
type Error struct {
	Severity Severity
	Code     ErrorCode
	TypeName string
	Field    string
	Message  string

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	switch {
	case e.TypeName != "" && e.Field != "":
		return fmt.Sprintf("%s: %s (type=%s, field=%s)", e.Code, msg, e.TypeName, e.Field)
	case e.TypeName != "":
		return fmt.Sprintf("%s: %s (type=%s)", e.Code, msg, e.TypeName)
	default:
		return fmt.Sprintf("%s: %s", e.Code, msg)
	}
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// IsFatal reports whether err is a schema-level projection failure.
// Uses errors.As to handle wrapped errors.
func IsFatal(err error) bool {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Severity == SeverityFatal
	}
	return false
}

// IsSoft reports whether err is an instance-level projection failure.
func IsSoft(err error) bool {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Severity == SeveritySoft
	}
	return false
}

// CodeOf returns the code of a projection failure, or "" for other errors.
func CodeOf(err error) ErrorCode {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Code
	}
	return ""
}

func fatalError(code ErrorCode, typeName, field, message string) *Error {
	return &Error{Severity: SeverityFatal, Code: code, TypeName: typeName, Field: field, Message: message}
}

func softError(code ErrorCode, typeName, field, message string) *Error {
	return &Error{Severity: SeveritySoft, Code: code, TypeName: typeName, Field: field, Message: message}
}
