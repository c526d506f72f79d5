package watch

import "strings"

// DefaultIgnorePatterns are skipped by the change source and the batch
// scanner unless overridden in configuration.
var DefaultIgnorePatterns = []string{
	".git",
	"node_modules",
	"__pycache__",
	".pyc",
	"venv",
	".env",
	".warden",
	".DS_Store",
}

// Ignorer decides whether a path should be excluded from checking. A path
// matches when any pattern appears as a substring, mirroring the loose
// matching users expect from ignore lists.
type Ignorer struct {
	patterns []string
}

// NewIgnorer builds an Ignorer from the given patterns, falling back to
// DefaultIgnorePatterns when the list is empty.
func NewIgnorer(patterns []string) *Ignorer {
	if len(patterns) == 0 {
		patterns = DefaultIgnorePatterns
	}
	cleaned := make([]string, 0, len(patterns))
	for _, p := range patterns {
		if p = strings.TrimSpace(p); p != "" {
			cleaned = append(cleaned, p)
		}
	}
	return &Ignorer{patterns: cleaned}
}

// Match reports whether path should be ignored.
func (i *Ignorer) Match(path string) bool {
	for _, pattern := range i.patterns {
		if strings.Contains(path, pattern) {
			return true
		}
	}
	return false
}
