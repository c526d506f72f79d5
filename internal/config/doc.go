// Package config loads, normalizes, and validates warden's TOML
// configuration. Configuration is read once at startup into an immutable
// Config that components receive by injection; validation failures for
// enabled components are fatal, unknown keys only warn.
package config
