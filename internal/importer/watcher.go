package importer

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/livetemplate/studio/internal/workspace"
)

// Watcher imports files dropped into an inbox directory.
type Watcher struct {
	watcher  *fsnotify.Watcher
	dir      string
	importer *Importer
	ws       *workspace.Workspace
	log      *zap.Logger
	done     chan struct{}
}

// NewWatcher watches dir (created if missing) and imports into ws.
func NewWatcher(dir string, im *Importer, ws *workspace.Workspace, log *zap.Logger) (*Watcher, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsWatcher.Add(dir); err != nil {
		fsWatcher.Close()
		return nil, err
	}

	return &Watcher{
		watcher:  fsWatcher,
		dir:      dir,
		importer: im,
		ws:       ws,
		log:      log,
		done:     make(chan struct{}),
	}, nil
}

// Start begins watching in the background.
func (w *Watcher) Start() {
	go func() {
		for {
			select {
			case event, ok := <-w.watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
					w.importFile(event.Name)
				}

			case err, ok := <-w.watcher.Errors:
				if !ok {
					return
				}
				w.log.Warn("watch error", zap.Error(err))

			case <-w.done:
				return
			}
		}
	}()
}

// Stop stops the watcher.
func (w *Watcher) Stop() error {
	close(w.done)
	return w.watcher.Close()
}

func (w *Watcher) importFile(path string) {
	name := filepath.Base(path)
	if strings.HasPrefix(name, ".") {
		return
	}
	target, ok := TargetForFile(name)
	if !ok {
		w.log.Debug("ignoring file", zap.String("file", name))
		return
	}

	f, err := os.Open(path)
	if err != nil {
		w.log.Warn("open failed", zap.String("file", name), zap.Error(err))
		return
	}
	defer f.Close()

	if err := w.importer.Import(context.Background(), w.ws, target, name, f); err != nil {
		w.log.Warn("import failed", zap.String("file", name), zap.Error(err))
		return
	}
	w.log.Info("imported", zap.String("file", name), zap.String("target", string(target)))
}
