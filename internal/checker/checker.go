package checker

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"warden/internal/watch"
)

// Descriptor declares what a checker handles. Descriptors are immutable
// after startup; the registry combines them with per-instance
// configuration to route events.
type Descriptor struct {
	ID             string
	Extensions     []string
	Kinds          []watch.Kind
	AutoFixAllowed bool
}

// Accepts reports whether the descriptor covers the given path and change kind.
func (d Descriptor) Accepts(path string, kind watch.Kind) bool {
	if !d.acceptsKind(kind) {
		return false
	}
	if len(d.Extensions) == 0 {
		return true
	}
	ext := strings.ToLower(filepath.Ext(path))
	for _, accepted := range d.Extensions {
		if strings.ToLower(accepted) == ext {
			return true
		}
	}
	return false
}

func (d Descriptor) acceptsKind(kind watch.Kind) bool {
	if len(d.Kinds) == 0 {
		return kind != watch.KindDeleted
	}
	for _, accepted := range d.Kinds {
		if accepted == kind {
			return true
		}
	}
	return false
}

// Finding is one issue or observation produced by a checker run.
type Finding struct {
	CheckerID  string            `json:"checker_id"`
	Severity   Severity          `json:"severity"`
	Message    string            `json:"message"`
	FixApplied bool              `json:"fix_applied"`
	Suggestion string            `json:"suggestion,omitempty"`
	Line       int               `json:"line,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// Target describes the file a checker is invoked against. AllowFix is the
// effective fix permission for this invocation: it is false unless the
// descriptor, the instance configuration, and the run mode all permit
// mutation.
type Target struct {
	Path     string
	Kind     watch.Kind
	AllowFix bool
}

// Checker is the pluggable contract the dispatcher invokes. Run must
// observe ctx between units of work and abort promptly when it is
// canceled, discarding any partially prepared fix rather than applying
// it. A checker must not mutate the file when Target.AllowFix is false.
type Checker interface {
	Describe() Descriptor
	Run(ctx context.Context, target Target) ([]Finding, error)
}

// ExecutionError wraps a checker failure with its cause so the dispatcher
// can isolate it into a synthetic finding without losing detail.
type ExecutionError struct {
	CheckerID string
	Cause     error
}

func (e *ExecutionError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("checker %s failed", e.CheckerID)
	}
	return fmt.Sprintf("checker %s failed: %v", e.CheckerID, e.Cause)
}

func (e *ExecutionError) Unwrap() error {
	return e.Cause
}

// NewExecutionError builds an ExecutionError, preserving an existing one.
func NewExecutionError(checkerID string, cause error) error {
	var existing *ExecutionError
	if errors.As(cause, &existing) {
		return cause
	}
	return &ExecutionError{CheckerID: checkerID, Cause: cause}
}
