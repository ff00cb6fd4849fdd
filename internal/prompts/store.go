package prompts

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Store serves the current prompt pack. When created with an override path
// it layers that file over the embedded defaults and can watch it for changes.
type Store struct {
	path   string
	base   *Pack
	logger *zap.Logger

	mu   sync.RWMutex
	pack *Pack

	watcher *fsnotify.Watcher
	done    chan struct{}
	reloads chan struct{}
}

// NewStore creates a store. An empty path serves the embedded defaults.
func NewStore(path string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	base := Default()
	s := &Store{
		path:    path,
		base:    base,
		pack:    base,
		logger:  logger,
		reloads: make(chan struct{}, 1),
	}
	if path == "" {
		return s, nil
	}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Instruction implements Provider.
func (s *Store) Instruction(kind Kind) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pack.Instruction(kind)
}

// Path returns the override file path, if any.
func (s *Store) Path() string {
	return s.path
}

// Reload re-reads the override file. On error the previous pack stays active.
func (s *Store) Reload() error {
	if s.path == "" {
		return nil
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("read prompt pack %s: %w", s.path, err)
	}
	pack, err := Parse(data)
	if err != nil {
		return fmt.Errorf("parse prompt pack %s: %w", s.path, err)
	}

	s.mu.Lock()
	s.pack = pack.withDefaults(s.base)
	s.mu.Unlock()

	s.logger.Info("prompt pack loaded", zap.String("path", s.path))
	return nil
}

// Reloaded delivers a signal after every successful reload triggered by Watch.
func (s *Store) Reloaded() <-chan struct{} {
	return s.reloads
}

// Watch starts reloading the override file whenever it is written or
// replaced. It is a no-op for a store without an override path.
func (s *Store) Watch() error {
	if s.path == "" || s.watcher != nil {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	// Watch the directory: editors often replace the file instead of writing it.
	if err := watcher.Add(filepath.Dir(s.path)); err != nil {
		watcher.Close()
		return fmt.Errorf("watch %s: %w", filepath.Dir(s.path), err)
	}

	s.watcher = watcher
	s.done = make(chan struct{})
	go s.watchLoop(watcher, s.done)
	return nil
}

func (s *Store) watchLoop(watcher *fsnotify.Watcher, done <-chan struct{}) {
	target := filepath.Clean(s.path)
	for {
		select {
		case <-done:
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if err := s.Reload(); err != nil {
				s.logger.Warn("prompt pack reload failed", zap.Error(err))
				continue
			}
			select {
			case s.reloads <- struct{}{}:
			default:
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			s.logger.Warn("prompt watcher error", zap.Error(err))
		}
	}
}

// Close stops watching. Safe to call on a store that never watched.
func (s *Store) Close() error {
	if s.watcher == nil {
		return nil
	}
	close(s.done)
	err := s.watcher.Close()
	s.watcher = nil
	return err
}
