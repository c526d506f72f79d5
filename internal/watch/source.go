package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"warden/internal/logging"
)

// FSSource streams change notices for a directory tree. fsnotify watches
// are per-directory, so the source walks the tree at startup and adds
// watches for directories created later.
type FSSource struct {
	root    string
	ignorer *Ignorer
	logger  *slog.Logger
	observe func(ChangeNotice)

	watcher *fsnotify.Watcher
}

// NewFSSource prepares a watcher rooted at root. Notices flow to observe;
// paths matching the ignorer never do.
func NewFSSource(root string, ignorer *Ignorer, logger *slog.Logger, observe func(ChangeNotice)) (*FSSource, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("stat watch root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("watch root %s is not a directory", root)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	if ignorer == nil {
		ignorer = NewIgnorer(nil)
	}
	return &FSSource{
		root:    root,
		ignorer: ignorer,
		logger:  logging.NewComponentLogger(logger, "watch"),
		observe: observe,
		watcher: watcher,
	}, nil
}

// Run watches until ctx is canceled. It returns nil on clean shutdown.
func (s *FSSource) Run(ctx context.Context) error {
	defer s.watcher.Close()

	if err := s.addTree(s.root); err != nil {
		return err
	}
	s.logger.Info("file watcher started", logging.String("root", s.root))

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("file watcher stopped")
			return nil
		case event, ok := <-s.watcher.Events:
			if !ok {
				return nil
			}
			s.handle(event)
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("filesystem watch error",
				logging.Error(err),
				logging.String(logging.FieldEventType, "watch_error"),
				logging.String(logging.FieldErrorHint, "if the kernel event buffer overflowed, run a full scan to reconcile"),
			)
		}
	}
}

func (s *FSSource) handle(event fsnotify.Event) {
	path := event.Name
	if s.ignorer.Match(path) {
		return
	}

	kind, ok := mapOp(event.Op)
	if !ok {
		return
	}

	if kind == KindCreated {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if err := s.addTree(path); err != nil {
				s.logger.Warn("failed to watch new directory",
					logging.String(logging.FieldPath, path),
					logging.Error(err),
				)
			}
			return
		}
	}
	if kind != KindDeleted {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			return
		}
	}

	s.observe(ChangeNotice{Path: path, Kind: kind, ObservedAt: time.Now()})
}

func (s *FSSource) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && s.ignorer.Match(path) {
			return filepath.SkipDir
		}
		if err := s.watcher.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}

func mapOp(op fsnotify.Op) (Kind, bool) {
	switch {
	case op.Has(fsnotify.Create):
		return KindCreated, true
	case op.Has(fsnotify.Write):
		return KindModified, true
	case op.Has(fsnotify.Remove):
		return KindDeleted, true
	case op.Has(fsnotify.Rename):
		return KindRenamed, true
	default:
		return "", false
	}
}
