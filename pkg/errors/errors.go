package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// ErrorTypeNavigation represents page navigation failures (timeouts, network)
	ErrorTypeNavigation ErrorType = "navigation"
	// ErrorTypeBrowser represents browser session failures (launch, context creation)
	ErrorTypeBrowser ErrorType = "browser"
	// ErrorTypeExtraction represents row or field extraction failures
	ErrorTypeExtraction ErrorType = "extraction"
	// ErrorTypeDelivery represents digest delivery failures
	ErrorTypeDelivery ErrorType = "delivery"
	// ErrorTypeConfiguration represents configuration errors
	ErrorTypeConfiguration ErrorType = "configuration"
	// ErrorTypeCancelled represents work stopped by a cancelled or expired context
	ErrorTypeCancelled ErrorType = "cancelled"
)

// ScrapeError represents an error raised while producing a schedule digest
type ScrapeError struct {
	Type    ErrorType
	Stage   string
	Message string
	Err     error
	Time    time.Time
}

// Error implements the error interface
func (e *ScrapeError) Error() string {
	if e.Stage == "" {
		if e.Err != nil {
			return fmt.Sprintf("[%s] %s - %v", e.Type, e.Message, e.Err)
		}
		return fmt.Sprintf("[%s] %s", e.Type, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %s - %v", e.Type, e.Stage, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Type, e.Stage, e.Message)
}

// Unwrap returns the underlying error
func (e *ScrapeError) Unwrap() error {
	return e.Err
}

// IsRetryable returns true if the error is retryable
func (e *ScrapeError) IsRetryable() bool {
	switch e.Type {
	case ErrorTypeNavigation:
		return true
	default:
		return false
	}
}

// New creates a new ScrapeError
func New(errType ErrorType, stage, message string, err error) *ScrapeError {
	return &ScrapeError{
		Type:    errType,
		Stage:   stage,
		Message: message,
		Err:     err,
		Time:    time.Now(),
	}
}

// NewNavigation creates a new navigation error
func NewNavigation(stage, message string, err error) *ScrapeError {
	return New(ErrorTypeNavigation, stage, message, err)
}

// NewBrowser creates a new browser session error
func NewBrowser(stage, message string, err error) *ScrapeError {
	return New(ErrorTypeBrowser, stage, message, err)
}

// NewExtraction creates a new extraction error
func NewExtraction(stage, message string, err error) *ScrapeError {
	return New(ErrorTypeExtraction, stage, message, err)
}

// NewDelivery creates a new delivery error
func NewDelivery(stage, message string, err error) *ScrapeError {
	return New(ErrorTypeDelivery, stage, message, err)
}

// NewConfiguration creates a new configuration error
func NewConfiguration(message string, err error) *ScrapeError {
	return New(ErrorTypeConfiguration, "", message, err)
}

// NewCancelled creates a new cancellation error
func NewCancelled(stage, message string, err error) *ScrapeError {
	return New(ErrorTypeCancelled, stage, message, err)
}

// IsRetryable reports whether err (or anything it wraps) is a retryable ScrapeError
func IsRetryable(err error) bool {
	var se *ScrapeError
	if stderrors.As(err, &se) {
		return se.IsRetryable()
	}
	return false
}

// Is reports whether err wraps a ScrapeError of the given type
func Is(err error, errType ErrorType) bool {
	var se *ScrapeError
	if stderrors.As(err, &se) {
		return se.Type == errType
	}
	return false
}
