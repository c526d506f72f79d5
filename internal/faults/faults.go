// Package faults defines the sentinel error markers shared across warden
// components. Callers wrap failures with a marker so downstream code can
// classify them with errors.Is instead of string matching.
package faults

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrConfiguration marks errors that must abort startup.
	ErrConfiguration = errors.New("configuration error")
	// ErrDelivery marks a destination's permanent rejection; retrying the
	// same payload will not succeed.
	ErrDelivery = errors.New("delivery rejected")
	// ErrIntegration marks tracker API failures.
	ErrIntegration = errors.New("integration error")
	// ErrTimeout marks deadline expiry on an external call.
	ErrTimeout = errors.New("timeout")
	// ErrTransient marks failures worth retrying.
	ErrTransient = errors.New("transient failure")
)

// Wrap tags err with the given marker and a component/operation detail
// prefix. The marker should be one of the exported sentinels above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsTransient reports whether a failed operation is worth retrying.
// Unclassified errors count as transient so an adapter that forgets to
// tag a failure still gets its retries.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	return !errors.Is(err, ErrDelivery) && !errors.Is(err, ErrConfiguration)
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "failure"
	}
	return strings.Join(parts, ": ")
}
