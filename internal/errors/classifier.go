package errors

import (
	"errors"
	"syscall"
)

// ErrorCategory represents the category of an error for retry logic.
type ErrorCategory int

const (
	ErrorTransient  ErrorCategory = iota // Temporary errors - retry with backoff
	ErrorPermanent                       // Permanent errors - no retry
	ErrorCritical                        // System-level errors - alert immediately
	ErrorContract                        // Contract violations - no retry, fix the caller
)

// Classifier categorizes errors for the persistence retry logic.
type Classifier struct{}

// NewClassifier creates a new error classifier.
func NewClassifier() *Classifier {
	return &Classifier{}
}

// Classify determines the category of an error.
func (c *Classifier) Classify(err error) ErrorCategory {
	if err == nil {
		return ErrorPermanent // Should not happen, but safe default
	}

	// System-level errors from the sqlite backend
	var sysErr syscall.Errno
	if errors.As(err, &sysErr) {
		switch sysErr {
		case syscall.EAGAIN, syscall.ENOMEM, syscall.ETIMEDOUT, syscall.EBUSY:
			return ErrorTransient
		case syscall.ENOENT, syscall.EINVAL, syscall.EEXIST:
			return ErrorPermanent
		case syscall.EIO, syscall.ENOSPC:
			return ErrorCritical
		}
	}

	switch {
	case errors.Is(err, ErrUnknownExpr),
		errors.Is(err, ErrUnknownUpdate),
		errors.Is(err, ErrNilColumn),
		errors.Is(err, ErrInvalidFilter),
		errors.Is(err, ErrInvalidUpdate),
		errors.Is(err, ErrInvalidPath):
		return ErrorContract
	case errors.Is(err, ErrInvalidJSON), errors.Is(err, ErrNotNumeric):
		return ErrorContract
	case errors.Is(err, ErrDocNotFound),
		errors.Is(err, ErrStoreClosed):
		return ErrorPermanent
	}

	// Default: treat as permanent (no retry)
	return ErrorPermanent
}

// ShouldRetry returns true if the error category indicates retry is appropriate.
func (c *Classifier) ShouldRetry(category ErrorCategory) bool {
	return category == ErrorTransient
}

// IsCritical returns true if the error requires immediate attention.
func (c *Classifier) IsCritical(category ErrorCategory) bool {
	return category == ErrorCritical
}
