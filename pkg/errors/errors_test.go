package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestReconcilerError(t *testing.T) {
	tests := []struct {
		name       string
		category   ErrorCategory
		code       ErrorCode
		message    string
		cause      error
		expectCode int
	}{
		{
			name:       "file error",
			category:   CategoryFile,
			code:       CodeFileNotFound,
			message:    "file not found",
			cause:      errors.New("no such file"),
			expectCode: 2,
		},
		{
			name:       "parse error",
			category:   CategoryParse,
			code:       CodeInvalidFormat,
			message:    "invalid format",
			cause:      nil,
			expectCode: 3,
		},
		{
			name:       "validation error",
			category:   CategoryValidation,
			code:       CodeInvalidToken,
			message:    "invalid token",
			cause:      nil,
			expectCode: 3,
		},
		{
			name:       "configuration error",
			category:   CategoryConfiguration,
			code:       CodeInvalidConfig,
			message:    "invalid config",
			cause:      errors.New("missing field"),
			expectCode: 4,
		},
		{
			name:       "extraction error",
			category:   CategoryExtraction,
			code:       CodeNoTokens,
			message:    "no tokens",
			cause:      nil,
			expectCode: 5,
		},
		{
			name:       "reconciliation error",
			category:   CategoryReconciliation,
			code:       CodeNoRelatedDocuments,
			message:    "no related documents",
			cause:      nil,
			expectCode: 6,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var err *ReconcilerError
			if tt.cause != nil {
				err = Wrap(tt.cause, tt.category, tt.code, tt.message)
			} else {
				err = New(tt.category, tt.code, tt.message)
			}

			if err.Category != tt.category {
				t.Errorf("expected category %s, got %s", tt.category, err.Category)
			}
			if err.Code != tt.code {
				t.Errorf("expected code %s, got %s", tt.code, err.Code)
			}
			if err.Message != tt.message {
				t.Errorf("expected message %s, got %s", tt.message, err.Message)
			}
			if err.GetExitCode() != tt.expectCode {
				t.Errorf("expected exit code %d, got %d", tt.expectCode, err.GetExitCode())
			}
			if err.Error() != tt.message {
				t.Errorf("expected error string %s, got %s", tt.message, err.Error())
			}
			if tt.cause != nil && err.Unwrap() != tt.cause {
				t.Errorf("expected to unwrap to %v, got %v", tt.cause, err.Unwrap())
			}
		})
	}
}

func TestWrapNil(t *testing.T) {
	if err := Wrap(nil, CategoryFile, CodeFileNotFound, "should vanish"); err != nil {
		t.Errorf("Wrap(nil) = %v, want nil", err)
	}
}

func TestReconcilerErrorWithContext(t *testing.T) {
	err := New(CategoryFile, CodeFileNotFound, "test error").
		WithContext("file", "/path/to/file").
		WithContext("line", 42).
		WithSuggestion("check file path")

	if err.Context["file"] != "/path/to/file" {
		t.Errorf("expected file context '/path/to/file', got %v", err.Context["file"])
	}
	if err.Context["line"] != 42 {
		t.Errorf("expected line context 42, got %v", err.Context["line"])
	}
	if err.Suggestion != "check file path" {
		t.Errorf("expected suggestion 'check file path', got %s", err.Suggestion)
	}

	expected := "test error (suggestion: check file path)"
	if err.Error() != expected {
		t.Errorf("expected error string '%s', got '%s'", expected, err.Error())
	}
}

func TestSpecificErrorConstructors(t *testing.T) {
	t.Run("FileError", func(t *testing.T) {
		cause := errors.New("permission denied")
		err := FileError(CodeFilePermission, "/test/file.csv", cause)

		if err.Category != CategoryFile {
			t.Errorf("expected file category, got %s", err.Category)
		}
		if err.Context["path"] != "/test/file.csv" {
			t.Errorf("expected path context, got %v", err.Context["path"])
		}
		if !errors.Is(err, cause) {
			t.Error("expected the cause in the error chain")
		}
	})

	t.Run("ParseFailure", func(t *testing.T) {
		err := ParseFailure(CodeInvalidData, "dump.csv", 7, errors.New("bad number"))

		if err.Category != CategoryParse {
			t.Errorf("expected parse category, got %s", err.Category)
		}
		if err.Context["line"] != 7 {
			t.Errorf("expected line context 7, got %v", err.Context["line"])
		}
	})

	t.Run("ValidationError without cause", func(t *testing.T) {
		err := ValidationError(CodeInvalidAmount, "premium", "abc", nil)

		if err == nil {
			t.Fatal("ValidationError(nil cause) = nil")
		}
		if err.Category != CategoryValidation {
			t.Errorf("expected validation category, got %s", err.Category)
		}
		if err.Context["field"] != "premium" || err.Context["value"] != "abc" {
			t.Errorf("unexpected context: %v", err.Context)
		}
	})

	t.Run("ExtractionError without cause", func(t *testing.T) {
		err := ExtractionError(CodeNoTokens, "statement", nil)

		if err == nil {
			t.Fatal("ExtractionError(nil cause) = nil")
		}
		if err.Category != CategoryExtraction {
			t.Errorf("expected extraction category, got %s", err.Category)
		}
		if err.Context["document"] != "statement" {
			t.Errorf("expected document context, got %v", err.Context["document"])
		}
	})

	t.Run("ReconciliationError", func(t *testing.T) {
		err := ReconciliationError(CodeProcessingError, "balance pass failed", errors.New("boom"))

		if err.Category != CategoryReconciliation {
			t.Errorf("expected reconciliation category, got %s", err.Category)
		}
		if err.GetExitCode() != 6 {
			t.Errorf("expected exit code 6, got %d", err.GetExitCode())
		}
	})
}

func TestAsReconcilerError(t *testing.T) {
	inner := New(CategoryParse, CodeInvalidData, "bad cell")
	wrapped := fmt.Errorf("processing document: %w", inner)

	rerr, ok := AsReconcilerError(wrapped)
	if !ok {
		t.Fatal("AsReconcilerError() did not find the error in the chain")
	}
	if rerr.Code != CodeInvalidData {
		t.Errorf("expected code %s, got %s", CodeInvalidData, rerr.Code)
	}

	if _, ok := AsReconcilerError(errors.New("plain")); ok {
		t.Error("AsReconcilerError() matched a plain error")
	}
}
