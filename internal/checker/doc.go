// Package checker defines the contract every file checker implements,
// the severity scale findings are graded on, and the static registry
// that maps configured checker identifiers to instances.
package checker
