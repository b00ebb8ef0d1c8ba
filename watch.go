package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// navigationSource defines the interface for streams of tab URL changes
type navigationSource interface {
	navigations(ctx context.Context) (<-chan tab, error)
}

// watcher keeps the cache bypass marker of every tracked tab in line with
// the stored preference, both when a tab navigates and when the
// preferences file changes
type watcher struct {
	dispatch  *dispatcher
	tabs      tabBrowser
	nav       navigationSource
	store     prefStore
	defaults  prefs
	prefsPath string
	logger    *zap.Logger

	// last URL seen per tab, owned by the navigation loop
	lastURL map[string]string
}

// newWatcher creates a new watcher instance
func newWatcher(d *dispatcher, tabs tabBrowser, nav navigationSource, store prefStore, defaults prefs, prefsPath string, logger *zap.Logger) *watcher {
	return &watcher{
		dispatch:  d,
		tabs:      tabs,
		nav:       nav,
		store:     store,
		defaults:  defaults,
		prefsPath: prefsPath,
		logger:    logger,
		lastURL:   map[string]string{},
	}
}

// run blocks until ctx is done or a watch fails
func (w *watcher) run(ctx context.Context) error {
	events, err := w.nav.navigations(ctx)
	if err != nil {
		return fmt.Errorf("failed to subscribe to navigations: %w", err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer fsw.Close()

	// watch the directory, the file itself is replaced on every write
	dir := filepath.Dir(w.prefsPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create preferences directory: %w", err)
	}
	if err := fsw.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	w.logger.Info("watching tabs and preferences", zap.String("prefs", w.prefsPath))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return w.watchNavigations(gctx, events) })
	g.Go(func() error { return w.watchPrefs(gctx, fsw) })

	err = g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}

	return err
}

// watchNavigations applies the stored preference to each tab that lands on
// a tracked URL
func (w *watcher) watchNavigations(ctx context.Context, events <-chan tab) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case t, ok := <-events:
			if !ok {
				return errors.New("navigation stream closed")
			}
			if t.closed {
				delete(w.lastURL, t.id)
				continue
			}
			if w.lastURL[t.id] == t.url {
				continue // title or load state change
			}
			w.lastURL[t.id] = t.url

			if !isTrackedURL(t.url) || !w.extensionEnabled(ctx) {
				continue
			}

			w.logger.Debug("tracked tab navigated", zap.String("tab", t.id), zap.String("url", t.url))
			_ = w.dispatch.handle(ctx, newNoCacheIntent(nil), t.id)
		}
	}
}

// watchPrefs re-applies the stored preference to every tracked tab when the
// preferences file is rewritten
func (w *watcher) watchPrefs(ctx context.Context, fsw *fsnotify.Watcher) error {
	name := filepath.Base(w.prefsPath)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-fsw.Events:
			if !ok {
				return errors.New("file watcher closed")
			}
			if filepath.Base(event.Name) != name || !event.Has(fsnotify.Write|fsnotify.Create|fsnotify.Rename) {
				continue
			}

			w.reapply(ctx)

		case err, ok := <-fsw.Errors:
			if !ok {
				return errors.New("file watcher closed")
			}
			w.logger.Warn("file watcher error", zap.Error(err))
		}
	}
}

// reapply dispatches a stored-state toggle to every tracked tab
func (w *watcher) reapply(ctx context.Context) {
	if !w.extensionEnabled(ctx) {
		return
	}

	tabs, err := w.tabs.List(ctx)
	if err != nil {
		w.logger.Error("error listing tabs", zap.Error(err))
		return
	}

	for _, t := range tabs {
		if !isTrackedURL(t.url) {
			continue
		}

		if err := w.dispatch.handle(ctx, newNoCacheIntent(nil), t.id); err != nil {
			return // storage is unreadable, already logged
		}
	}
}

// extensionEnabled reports whether automatic rewriting is switched on
func (w *watcher) extensionEnabled(ctx context.Context) bool {
	values, err := w.store.Get(ctx, prefExtensionEnabled)
	if err != nil {
		w.logger.Error("error reading storage", zap.Error(err))
		return false
	}

	return values.valueOr(prefExtensionEnabled, w.defaults[prefExtensionEnabled])
}
