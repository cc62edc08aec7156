package pacer

import (
	"errors"
	"fmt"
)

// ConfigError represents an invalid pace filter configuration.
//
// Configuration errors are fatal to the filter instance: they surface at
// pipeline registration time and prevent the pipeline from running. Runtime
// resolution problems (a template that renders to garbage) are never
// ConfigErrors; those degrade to a zero-length delay instead.
type ConfigError struct {
	// Code identifies the error category.
	Code ConfigErrorCode

	// Option is the offending configuration key, when known.
	Option string

	// Message is a human-readable description.
	Message string
}

// ConfigErrorCode categorizes configuration errors.
type ConfigErrorCode string

const (
	// ErrCodeMissingTime indicates `time` was absent outside replay mode.
	ErrCodeMissingTime ConfigErrorCode = "MISSING_TIME"

	// ErrCodeBadNumber indicates a numeric option that does not parse.
	ErrCodeBadNumber ConfigErrorCode = "BAD_NUMBER"

	// ErrCodeNotPositive indicates `every` was zero or negative.
	ErrCodeNotPositive ConfigErrorCode = "NOT_POSITIVE"

	// ErrCodeUnknownOption indicates an unrecognized configuration key.
	ErrCodeUnknownOption ConfigErrorCode = "UNKNOWN_OPTION"
)

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Option != "" {
		return fmt.Sprintf("%s: %s (option=%s)", e.Code, e.Message, e.Option)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsConfigError returns true if the error is a pace filter ConfigError.
// Uses errors.As to handle wrapped errors.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

func newMissingTimeError() *ConfigError {
	return &ConfigError{
		Code:    ErrCodeMissingTime,
		Option:  "time",
		Message: "time is required unless replay is enabled",
	}
}

func newBadNumberError(option string, value any) *ConfigError {
	return &ConfigError{
		Code:    ErrCodeBadNumber,
		Option:  option,
		Message: fmt.Sprintf("cannot interpret %v as a number", value),
	}
}
