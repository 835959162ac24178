package cli

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// debounce groups the burst of events an editor produces on save.
const debounce = 100 * time.Millisecond

// watcher calls a function whenever one file changes. The parent directory
// is watched, so editors that replace the file on save are handled.
type watcher struct {
	fs       *fsnotify.Watcher
	target   string
	debounce time.Duration
	log      *zap.Logger
}

func newWatcher(path string, log *zap.Logger) (*watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		fw.Close()
		return nil, err
	}
	return &watcher{fs: fw, target: abs, debounce: debounce, log: log}, nil
}

// Run calls fn after every change of the target until ctx is done. Errors
// returned by fn are logged and do not stop the watch.
func (w *watcher) Run(ctx context.Context, fn func() error) error {
	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			name, err := filepath.Abs(ev.Name)
			if err != nil || name != w.target || ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.log.Debug("changed", zap.String("file", name), zap.Stringer("op", ev.Op))
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			if err := fn(); err != nil {
				w.log.Warn("regeneration failed", zap.Error(err))
			}
		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			return err
		}
	}
}

// Close stops watching.
func (w *watcher) Close() error {
	return w.fs.Close()
}
