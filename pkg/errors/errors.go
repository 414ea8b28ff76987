// Package errors provides categorized application errors for the
// reconciliation tool.
//
// Errors carry a category, a machine-readable code, optional context and a
// suggestion for the operator. Categories map to process exit codes so the
// CLI can fail in a way scripts can distinguish.
package errors

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrorCategory represents different categories of errors
type ErrorCategory string

const (
	CategoryFile           ErrorCategory = "file"
	CategoryParse          ErrorCategory = "parse"
	CategoryValidation     ErrorCategory = "validation"
	CategoryConfiguration  ErrorCategory = "configuration"
	CategoryExtraction     ErrorCategory = "extraction"
	CategoryReconciliation ErrorCategory = "reconciliation"
	CategoryInternal       ErrorCategory = "internal"
)

// ErrorCode represents specific error codes within categories
type ErrorCode string

const (
	// File errors
	CodeFileNotFound   ErrorCode = "file_not_found"
	CodeFilePermission ErrorCode = "file_permission"
	CodeFileCorrupted  ErrorCode = "file_corrupted"

	// Parse errors
	CodeInvalidFormat ErrorCode = "invalid_format"
	CodeMissingColumn ErrorCode = "missing_column"
	CodeInvalidData   ErrorCode = "invalid_data"

	// Validation errors
	CodeInvalidAmount ErrorCode = "invalid_amount"
	CodeInvalidToken  ErrorCode = "invalid_token"
	CodeMissingField  ErrorCode = "missing_field"
	CodeOutOfRange    ErrorCode = "out_of_range"

	// Configuration errors
	CodeInvalidConfig ErrorCode = "invalid_config"
	CodeMissingConfig ErrorCode = "missing_config"

	// Extraction errors
	CodeDocumentUnreadable ErrorCode = "document_unreadable"
	CodeNoTokens           ErrorCode = "no_tokens"

	// Reconciliation errors
	CodeNoRelatedDocuments ErrorCode = "no_related_documents"
	CodeProcessingError    ErrorCode = "processing_error"

	// Internal errors
	CodeUnexpectedError ErrorCode = "unexpected_error"
)

// ReconcilerError is the base error type for all application errors
type ReconcilerError struct {
	Category   ErrorCategory     `json:"category"`
	Code       ErrorCode         `json:"code"`
	Message    string            `json:"message"`
	Suggestion string            `json:"suggestion,omitempty"`
	Context    Context           `json:"context,omitempty"`
	Cause      error             `json:"-"`
	StackTrace errors.StackTrace `json:"-"`
}

// Context provides additional information about the error
type Context map[string]interface{}

// Error implements the error interface
func (e *ReconcilerError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("%s (suggestion: %s)", e.Message, e.Suggestion)
	}
	return e.Message
}

// Unwrap returns the underlying cause error
func (e *ReconcilerError) Unwrap() error {
	return e.Cause
}

// GetExitCode returns an appropriate exit code for the error
func (e *ReconcilerError) GetExitCode() int {
	switch e.Category {
	case CategoryFile:
		return 2
	case CategoryParse, CategoryValidation:
		return 3
	case CategoryConfiguration:
		return 4
	case CategoryExtraction:
		return 5
	case CategoryReconciliation, CategoryInternal:
		return 6
	default:
		return 1
	}
}

// WithContext adds context information to the error
func (e *ReconcilerError) WithContext(key string, value interface{}) *ReconcilerError {
	if e.Context == nil {
		e.Context = make(Context)
	}
	e.Context[key] = value
	return e
}

// WithSuggestion adds a suggestion for fixing the error
func (e *ReconcilerError) WithSuggestion(suggestion string) *ReconcilerError {
	e.Suggestion = suggestion
	return e
}

// New creates a new ReconcilerError
func New(category ErrorCategory, code ErrorCode, message string) *ReconcilerError {
	return &ReconcilerError{
		Category:   category,
		Code:       code,
		Message:    message,
		StackTrace: errors.New("").(stackTracer).StackTrace(),
	}
}

// Wrap wraps an existing error with ReconcilerError context
func Wrap(err error, category ErrorCategory, code ErrorCode, message string) *ReconcilerError {
	if err == nil {
		return nil
	}

	return &ReconcilerError{
		Category:   category,
		Code:       code,
		Message:    message,
		Cause:      err,
		StackTrace: errors.WithStack(err).(stackTracer).StackTrace(),
	}
}

// stackTracer interface for extracting stack traces
type stackTracer interface {
	StackTrace() errors.StackTrace
}

// AsReconcilerError extracts a ReconcilerError from an error chain
func AsReconcilerError(err error) (*ReconcilerError, bool) {
	var rerr *ReconcilerError
	if errors.As(err, &rerr) {
		return rerr, true
	}
	return nil, false
}

// FileError creates a file-related error
func FileError(code ErrorCode, path string, err error) *ReconcilerError {
	msg := fmt.Sprintf("file error: %s", path)
	switch code {
	case CodeFileNotFound:
		msg = fmt.Sprintf("file not found: %s", path)
	case CodeFilePermission:
		msg = fmt.Sprintf("permission denied: %s", path)
	case CodeFileCorrupted:
		msg = fmt.Sprintf("file is corrupted or unreadable: %s", path)
	}
	return Wrap(err, CategoryFile, code, msg).WithContext("path", path)
}

// ParseFailure creates a parse-related error
func ParseFailure(code ErrorCode, path string, line int, err error) *ReconcilerError {
	msg := fmt.Sprintf("failed to parse %s", path)
	if line > 0 {
		msg = fmt.Sprintf("failed to parse %s at line %d", path, line)
	}
	e := Wrap(err, CategoryParse, code, msg).WithContext("path", path)
	if line > 0 {
		e = e.WithContext("line", line)
	}
	return e
}

// ValidationError creates a validation error for a named field
func ValidationError(code ErrorCode, field string, value interface{}, err error) *ReconcilerError {
	msg := fmt.Sprintf("validation failed for %s", field)
	var e *ReconcilerError
	if err != nil {
		e = Wrap(err, CategoryValidation, code, msg)
	} else {
		e = New(CategoryValidation, code, msg)
	}
	e = e.WithContext("field", field)
	if value != nil {
		e = e.WithContext("value", value)
	}
	return e
}

// ConfigError creates a configuration error
func ConfigError(code ErrorCode, message string) *ReconcilerError {
	return New(CategoryConfiguration, code, message)
}

// ExtractionError creates a per-document extraction error
func ExtractionError(code ErrorCode, document string, err error) *ReconcilerError {
	msg := fmt.Sprintf("failed to extract tokens from document %s", document)
	if code == CodeNoTokens {
		msg = fmt.Sprintf("document %s yielded no tokens", document)
	}
	var e *ReconcilerError
	if err != nil {
		e = Wrap(err, CategoryExtraction, code, msg)
	} else {
		e = New(CategoryExtraction, code, msg)
	}
	return e.WithContext("document", document)
}

// ReconciliationError creates a reconciliation-phase error
func ReconciliationError(code ErrorCode, message string, err error) *ReconcilerError {
	if err == nil {
		return New(CategoryReconciliation, code, message)
	}
	return Wrap(err, CategoryReconciliation, code, message)
}
