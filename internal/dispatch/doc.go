// Package dispatch contains the orchestrator that turns stabilized
// change events into reports: it resolves the applicable checkers,
// serializes runs per path, bounds checker parallelism, isolates
// failures and timeouts, and discards superseded runs.
package dispatch
