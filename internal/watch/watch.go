package watch

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/karagenc/rduprc/internal/rc"
	"go.uber.org/zap"
)

// Watcher reloads an rc file every time it changes on disk.
type Watcher struct {
	path    string
	log     *zap.Logger
	loader  *rc.Loader
	watcher *fsnotify.Watcher

	updates  chan rc.Settings
	stopped  chan struct{}
	stopOnce sync.Once
}

func New(path string, log *zap.Logger) (*Watcher, error) {
	if log == nil {
		log = zap.NewNop()
	}
	path, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	// Editors replace files by renaming, so watch the directory rather than the file.
	err = watcher.Add(filepath.Dir(path))
	if err != nil {
		watcher.Close()
		return nil, err
	}
	return &Watcher{
		path:    path,
		log:     log,
		loader:  rc.NewLoader(log),
		watcher: watcher,
		updates: make(chan rc.Settings, 1),
		stopped: make(chan struct{}),
	}, nil
}

func (w *Watcher) Path() string { return w.path }

func (w *Watcher) Updates() <-chan rc.Settings { return w.updates }

// Run delivers a freshly loaded Settings on Updates for each change
// until Close is called. Updates is closed when Run returns.
func (w *Watcher) Run() error {
	defer close(w.updates)
	const relevant = fsnotify.Create | fsnotify.Write | fsnotify.Rename | fsnotify.Remove
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path || event.Op&relevant == 0 {
				continue
			}
			w.log.Sugar().Debugf("event received. op: %s path: %s", event.Op, event.Name)
			settings := w.loader.Load(w.path)
			select {
			case w.updates <- settings:
			case <-w.stopped:
				return nil
			}
		case err, ok := <-w.watcher.Errors:
			if ok {
				w.log.Error(fmt.Sprintf("watch: %v", err))
			}
		case <-w.stopped:
			return nil
		}
	}
}

func (w *Watcher) Close() (err error) {
	w.stopOnce.Do(func() {
		close(w.stopped)
		err = w.watcher.Close()
	})
	return
}
