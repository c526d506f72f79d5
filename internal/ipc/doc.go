// Package ipc exposes daemon control over a Unix domain socket using
// JSON-RPC. The CLI's status and stop commands are its only clients.
package ipc
