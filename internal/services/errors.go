package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrExternalTool  = errors.New("external tool error")
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("not found")
	ErrTimeout       = errors.New("timeout")
	ErrTransient     = errors.New("transient failure")

	ErrDetectionUnavailable = errors.New("language detection unavailable")
	ErrDetectionTimeout     = errors.New("language detection timeout")
	ErrCodecUnavailable     = errors.New("audio codec unavailable")
	ErrCodecTimeout         = errors.New("audio codec timeout")
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsRetryable reports whether a stage failure should be re-entered by the
// workflow rather than escalated to the job. Timeouts and unavailable
// dependencies are retryable; validation and configuration problems are not.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	switch {
	case errors.Is(err, ErrValidation), errors.Is(err, ErrConfiguration), errors.Is(err, ErrNotFound):
		return false
	case errors.Is(err, context.Canceled):
		return false
	case errors.Is(err, ErrTimeout),
		errors.Is(err, ErrTransient),
		errors.Is(err, ErrDetectionTimeout),
		errors.Is(err, ErrDetectionUnavailable),
		errors.Is(err, ErrCodecTimeout),
		errors.Is(err, ErrCodecUnavailable),
		errors.Is(err, context.DeadlineExceeded):
		return true
	default:
		return false
	}
}

// Marker returns the first sentinel found in the error chain, or nil.
func Marker(err error) error {
	for _, marker := range []error{
		ErrDetectionUnavailable, ErrDetectionTimeout,
		ErrCodecUnavailable, ErrCodecTimeout,
		ErrValidation, ErrConfiguration, ErrNotFound,
		ErrTimeout, ErrExternalTool, ErrTransient,
	} {
		if errors.Is(err, marker) {
			return marker
		}
	}
	return nil
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
