// Package logging centralizes slog construction and the structured field
// vocabulary shared across warden components. All loggers flow through
// New/NewFromConfig so console and JSON output stay consistent, and the
// attr helpers keep call sites terse.
package logging
