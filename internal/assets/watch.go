package assets

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watch reloads robot descriptions when their files change on disk. It blocks
// until ctx is cancelled. Descriptions loaded after Watch starts are watched too.
func (s *Server) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	s.mu.Lock()
	s.watcher = w
	s.watched = make(map[string]bool)
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.watcher = nil
		s.watched = nil
		s.mu.Unlock()
	}()

	for _, f := range s.robotFiles() {
		s.watchFile(f)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			s.reloadFile(filepath.Clean(event.Name))
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			s.log.Warn("file watcher error", zap.Error(err))
		}
	}
}

// watchFile adds the directory of a resolved file to the active watcher.
// Directories are watched so editors that replace files are still seen.
func (s *Server) watchFile(full string) {
	dir := filepath.Dir(full)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.watcher == nil || s.watched[dir] {
		return
	}
	if err := s.watcher.Add(dir); err != nil {
		s.log.Warn("cannot watch directory", zap.String("dir", dir), zap.Error(err))
		return
	}
	s.watched[dir] = true
}

// reloadFile reloads the robots loaded from a resolved path, if any.
func (s *Server) reloadFile(full string) {
	for _, f := range s.robotFiles() {
		if f == full {
			s.reload(full)
			return
		}
	}
}
