package watch

import (
	"fmt"
	"strings"
	"time"
)

// Kind classifies a filesystem change.
type Kind string

const (
	KindCreated  Kind = "created"
	KindModified Kind = "modified"
	KindDeleted  Kind = "deleted"
	KindRenamed  Kind = "renamed"
)

// Kinds lists every recognized change kind in a stable order.
func Kinds() []Kind {
	return []Kind{KindCreated, KindModified, KindDeleted, KindRenamed}
}

// ParseKind converts a configuration string into a Kind.
func ParseKind(value string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(value))) {
	case KindCreated:
		return KindCreated, nil
	case KindModified:
		return KindModified, nil
	case KindDeleted:
		return KindDeleted, nil
	case KindRenamed:
		return KindRenamed, nil
	default:
		return "", fmt.Errorf("unknown event kind %q", value)
	}
}

// ChangeNotice is a raw, undebounced change observation from a Source.
type ChangeNotice struct {
	Path       string
	Kind       Kind
	ObservedAt time.Time
}

// StabilizedEvent is a debounced change ready for dispatch. Generation
// increments for the path on every notice, so a run started for an older
// generation can detect it has been superseded.
type StabilizedEvent struct {
	Path         string
	Kind         Kind
	StabilizedAt time.Time
	Generation   uint64
}
