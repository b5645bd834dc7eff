// Package workspace holds a project's code buffers, favicon and page
// background, mirrored to a store on every change.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/livetemplate/studio/internal/store"
)

// Key names a buffer or setting. Keys double as store keys.
type Key string

const (
	HTML       Key = "html"
	CSS        Key = "css"
	JS         Key = "js"
	Favicon    Key = "favicon"
	Background Key = "background"
)

// Keys lists every workspace key in a stable order.
var Keys = []Key{HTML, CSS, JS, Favicon, Background}

// ParseKey validates a key name.
func ParseKey(s string) (Key, bool) {
	for _, k := range Keys {
		if string(k) == s {
			return k, true
		}
	}
	return "", false
}

// Snapshot is a copy of every buffer.
type Snapshot struct {
	HTML       string `json:"html"`
	CSS        string `json:"css"`
	JS         string `json:"js"`
	Favicon    string `json:"favicon"`
	Background string `json:"background"`
}

// Get returns the buffer for k.
func (s Snapshot) Get(k Key) string {
	switch k {
	case HTML:
		return s.HTML
	case CSS:
		return s.CSS
	case JS:
		return s.JS
	case Favicon:
		return s.Favicon
	case Background:
		return s.Background
	}
	return ""
}

func (s *Snapshot) set(k Key, v string) {
	switch k {
	case HTML:
		s.HTML = v
	case CSS:
		s.CSS = v
	case JS:
		s.JS = v
	case Favicon:
		s.Favicon = v
	case Background:
		s.Background = v
	}
}

// Listener is notified after a change has been applied.
type Listener func(snap Snapshot, changed []Key)

// Workspace is one project's buffers. Safe for concurrent use.
type Workspace struct {
	project string
	store   store.Store

	mu        sync.RWMutex
	buffers   Snapshot
	listeners []Listener
}

// Load rehydrates project from st. Keys never written are seeded from
// defaults and persisted.
func Load(ctx context.Context, st store.Store, project string, defaults Snapshot) (*Workspace, error) {
	saved, err := st.All(ctx, project)
	if err != nil {
		return nil, fmt.Errorf("load workspace %s: %w", project, err)
	}

	w := &Workspace{project: project, store: st}
	for _, k := range Keys {
		if v, ok := saved[string(k)]; ok {
			w.buffers.set(k, v)
			continue
		}
		v := defaults.Get(k)
		w.buffers.set(k, v)
		if err := st.Set(ctx, project, string(k), v); err != nil {
			return nil, fmt.Errorf("seed %s: %w", k, err)
		}
	}
	return w, nil
}

// Project returns the project name.
func (w *Workspace) Project() string {
	return w.project
}

// Get returns the current value of k.
func (w *Workspace) Get(k Key) string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.buffers.Get(k)
}

// Snapshot returns a copy of every buffer.
func (w *Workspace) Snapshot() Snapshot {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.buffers
}

// OnChange registers a listener for applied changes.
func (w *Workspace) OnChange(l Listener) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.listeners = append(w.listeners, l)
}

// Set replaces the whole value of k.
func (w *Workspace) Set(ctx context.Context, k Key, value string) error {
	return w.apply(ctx, map[Key]string{k: value})
}

// ApplySave replaces the HTML and CSS buffers with generated code. It is
// the target of the visual builder's save action.
func (w *Workspace) ApplySave(ctx context.Context, html, css string) error {
	return w.apply(ctx, map[Key]string{HTML: html, CSS: css})
}

// SetBackground changes the shared page background.
func (w *Workspace) SetBackground(ctx context.Context, color string) error {
	return w.Set(ctx, Background, color)
}

func (w *Workspace) apply(ctx context.Context, changes map[Key]string) error {
	var errs []error
	var changed []Key

	w.mu.Lock()
	for _, k := range Keys {
		v, ok := changes[k]
		if !ok {
			continue
		}
		if err := w.store.Set(ctx, w.project, string(k), v); err != nil {
			errs = append(errs, err)
			continue
		}
		if w.buffers.Get(k) != v {
			w.buffers.set(k, v)
			changed = append(changed, k)
		}
	}
	snap := w.buffers
	listeners := append([]Listener(nil), w.listeners...)
	w.mu.Unlock()

	if len(changed) > 0 {
		for _, l := range listeners {
			l(snap, changed)
		}
	}
	return errors.Join(errs...)
}
