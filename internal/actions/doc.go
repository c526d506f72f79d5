// Package actions turns high-severity findings into issue-tracker
// actions while suppressing duplicates. Every created action is recorded
// in a SQLite store keyed by an issue signature; a finding whose
// signature was acted on within the renotify window is skipped.
package actions
