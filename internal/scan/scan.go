// Package scan runs the checker pipeline over a directory tree in one
// batch, either walking every file or narrowing to git-reported changes.
package scan

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"warden/internal/checker"
	"warden/internal/dispatch"
	"warden/internal/logging"
	"warden/internal/watch"
)

// Options configures a batch scan.
type Options struct {
	Root       string
	Diff       bool   // narrow to git-changed files
	Since      string // git time expression, implies Diff
	Ignorer    *watch.Ignorer
	Dispatcher *dispatch.Dispatcher
	Logger     *slog.Logger
}

// Summary aggregates the outcome of one scan.
type Summary struct {
	FilesScanned      int
	FilesWithFindings int
	Findings          map[checker.Severity]int
	FixesApplied      int
	Duration          time.Duration
}

// TotalFindings returns the finding count across all severities.
func (s *Summary) TotalFindings() int {
	total := 0
	for _, n := range s.Findings {
		total += n
	}
	return total
}

// HasAtOrAbove reports whether any finding reached the given severity.
func (s *Summary) HasAtOrAbove(min checker.Severity) bool {
	for sev, n := range s.Findings {
		if sev >= min && n > 0 {
			return true
		}
	}
	return false
}

// Scanner feeds files through the dispatch pipeline synchronously.
type Scanner struct {
	opts   Options
	logger *slog.Logger
}

// New builds a Scanner. The dispatcher should be constructed with
// StaticGenerations so batch events are never considered stale.
func New(opts Options) (*Scanner, error) {
	if opts.Root == "" {
		return nil, fmt.Errorf("scan: root directory required")
	}
	if opts.Dispatcher == nil {
		return nil, fmt.Errorf("scan: dispatcher required")
	}
	if opts.Ignorer == nil {
		opts.Ignorer = watch.NewIgnorer(nil)
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Scanner{
		opts:   opts,
		logger: logger.With(logging.String(logging.FieldComponent, "scan")),
	}, nil
}

// Run scans the tree and returns a summary. Files are dispatched one at
// a time; the dispatcher's own parallelism still applies within each
// file's checker set.
func (s *Scanner) Run(ctx context.Context) (*Summary, error) {
	start := time.Now()

	files, err := s.collect(ctx)
	if err != nil {
		return nil, err
	}

	summary := &Summary{Findings: make(map[checker.Severity]int)}
	for _, path := range files {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		rep := s.opts.Dispatcher.Handle(ctx, watch.StabilizedEvent{
			Path:         path,
			Kind:         watch.KindModified,
			StabilizedAt: time.Now(),
		})
		summary.FilesScanned++
		if rep == nil {
			continue
		}
		if len(rep.Findings) > 0 {
			summary.FilesWithFindings++
		}
		for _, f := range rep.Findings {
			summary.Findings[f.Severity]++
		}
		summary.FixesApplied += rep.FixesApplied()
	}
	summary.Duration = time.Since(start)

	s.logger.Info("scan complete",
		logging.Int("files", summary.FilesScanned),
		logging.Int("findings", summary.TotalFindings()),
		logging.Int("fixes", summary.FixesApplied),
		logging.Duration("duration", summary.Duration))
	return summary, nil
}

// collect resolves the file list. In diff mode a failing git command
// falls back to a full walk; an invalid --since value is an error so a
// typo never silently widens the scan.
func (s *Scanner) collect(ctx context.Context) ([]string, error) {
	if s.opts.Diff || s.opts.Since != "" {
		if s.opts.Since != "" && !ValidateSince(s.opts.Since) {
			return nil, fmt.Errorf("invalid --since value %q", s.opts.Since)
		}
		files, err := gitChangedFiles(ctx, s.opts.Root, s.opts.Since)
		if err == nil {
			return s.filterExisting(files), nil
		}
		s.logger.Warn("git diff failed, falling back to full scan", logging.Error(err))
	}
	return s.walk()
}

func (s *Scanner) filterExisting(files []string) []string {
	kept := files[:0]
	for _, path := range files {
		if s.opts.Ignorer.Match(path) {
			continue
		}
		info, err := os.Stat(path)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		kept = append(kept, path)
	}
	return kept
}

func (s *Scanner) walk() ([]string, error) {
	var files []string
	err := filepath.WalkDir(s.opts.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != s.opts.Root && s.opts.Ignorer.Match(path) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || s.opts.Ignorer.Match(path) {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", s.opts.Root, err)
	}
	return files, nil
}
