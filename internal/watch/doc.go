// Package watch turns raw filesystem activity into stabilized change
// events. It contains the fsnotify-backed change source, the per-path
// debouncer that coalesces bursts of notices, and the bounded event
// queue consumed by the dispatcher.
package watch
