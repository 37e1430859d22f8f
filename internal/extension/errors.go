package extension

import (
	"errors"
	"fmt"
)

// Extension configuration errors. They are only ever returned while the
// registry is being built; a frozen registry cannot fail.
var (
	// ErrInvalid indicates a descriptor that is missing required fields.
	ErrInvalid = errors.New("invalid extension")

	// ErrDuplicate indicates an extension name registered twice.
	ErrDuplicate = errors.New("duplicate extension")

	// ErrConflict indicates two extensions claiming the same grammar token
	// or node kind without declaring how they share it.
	ErrConflict = errors.New("conflicting extensions")

	// ErrFrozen indicates registration after the registry was frozen.
	ErrFrozen = errors.New("registry is frozen")

	// ErrUnknown indicates a built-in extension name that does not exist.
	ErrUnknown = errors.New("unknown extension")
)

// ConfigError describes a rejected extension configuration.
type ConfigError struct {
	Extension string // Extension being registered
	Other     string // Extension it conflicts with, if any
	Detail    string // What was wrong
	Err       error  // One of the sentinel errors above
}

// Error implements error.
func (e *ConfigError) Error() string {
	msg := fmt.Sprintf("extension %q: %v", e.Extension, e.Err)
	if e.Other != "" {
		msg += fmt.Sprintf(" with %q", e.Other)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

// Unwrap returns the sentinel error.
func (e *ConfigError) Unwrap() error {
	return e.Err
}

func configError(name string, err error, format string, args ...any) *ConfigError {
	return &ConfigError{Extension: name, Err: err, Detail: fmt.Sprintf(format, args...)}
}
