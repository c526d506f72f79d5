// Package report defines the aggregated result of one dispatch cycle and
// the pure aggregation that merges per-checker findings into it.
package report
