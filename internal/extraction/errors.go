package extraction

import (
	"errors"
	"fmt"
)

// ExtractionErrorCode represents specific extraction error types.
type ExtractionErrorCode string

const (
	ErrMLServiceUnavailable ExtractionErrorCode = "ML_SERVICE_UNAVAILABLE"
	ErrMLServiceTimeout     ExtractionErrorCode = "ML_SERVICE_TIMEOUT"
	ErrMLServiceRejected    ExtractionErrorCode = "ML_SERVICE_REJECTED"
	ErrMLNotConfigured      ExtractionErrorCode = "ML_NOT_CONFIGURED"
	ErrInvalidDocument      ExtractionErrorCode = "INVALID_DOCUMENT"
	ErrNoReceiptData        ExtractionErrorCode = "NO_RECEIPT_DATA"
	ErrArchiveFailed        ExtractionErrorCode = "ARCHIVE_FAILED"
)

// ExtractionError is a structured error for categorization and receipt
// scanning failures.
type ExtractionError struct {
	Code      ExtractionErrorCode
	Message   string
	Method    string // e.g. "ml-classifier" or "pdf-text"
	Retryable bool
	Cause     error
}

func (e *ExtractionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *ExtractionError) Unwrap() error {
	return e.Cause
}

// IsRetryable returns whether this error is retryable.
func (e *ExtractionError) IsRetryable() bool {
	return e.Retryable
}

// CodeOf returns the code of the first ExtractionError in err's chain, or ""
// when there is none.
func CodeOf(err error) ExtractionErrorCode {
	var extErr *ExtractionError
	if errors.As(err, &extErr) {
		return extErr.Code
	}
	return ""
}
