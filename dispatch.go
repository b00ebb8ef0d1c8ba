package main

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var errUnsupportedIntent = errors.New("unsupported intent")

// dispatcher routes intents from the popup and watcher surfaces to the
// right tab
type dispatcher struct {
	store    prefStore
	tabs     tabBrowser
	defaults prefs
	marker   string
	logger   *zap.Logger
	locks    *tabLocks
}

// newDispatcher creates a new dispatcher instance
func newDispatcher(store prefStore, tabs tabBrowser, defaults prefs, logger *zap.Logger) *dispatcher {
	return &dispatcher{
		store:    store,
		tabs:     tabs,
		defaults: defaults,
		marker:   noCacheMarker,
		logger:   logger,
		locks:    newTabLocks(),
	}
}

// handle applies in to tabID, or to the active tab when tabID is empty.
// Storage failures abort and are returned; tab failures are logged only
func (d *dispatcher) handle(ctx context.Context, in intent, tabID string) error {
	if in.ID == "" {
		in.ID = uuid.NewString()
	}
	logger := d.logger.With(zap.String("intent", in.ID), zap.String("kind", string(in.Kind)))

	switch in.Kind {
	case intentToggleClass:
		return d.toggleClass(ctx, logger, in, tabID)
	case intentToggleNoCache:
		return d.toggleNoCache(ctx, logger, in, tabID)
	case intentGetFormInfo:
		logger.Debug("form info is not served by this surface")
		return errUnsupportedIntent
	default:
		logger.Warn("ignoring unknown intent")
		return fmt.Errorf("%w: %q", errUnsupportedIntent, in.Kind)
	}
}

func (d *dispatcher) toggleClass(ctx context.Context, logger *zap.Logger, in intent, tabID string) error {
	if in.ClassName == "" {
		return errors.New("class name cannot be empty")
	}

	t, ok := d.resolve(ctx, logger, tabID)
	if !ok {
		return nil
	}

	if err := d.tabs.ToggleClass(ctx, t.id, in.ClassName, in.Enabled); err != nil {
		logger.Error("error toggling class", zap.String("tab", t.id), zap.Error(err))
		return nil
	}

	logger.Debug("toggled class", zap.String("tab", t.id), zap.String("class", in.ClassName))
	return nil
}

func (d *dispatcher) toggleNoCache(ctx context.Context, logger *zap.Logger, in intent, tabID string) error {
	if tabID == "" {
		active, ok := d.resolve(ctx, logger, "")
		if !ok {
			return nil
		}
		tabID = active.id
	}

	// read, decide and navigate as one step per tab
	unlock := d.locks.lock(tabID)
	defer unlock()

	// read the URL once the lock is held so a previous toggle is observed
	t, ok := d.resolve(ctx, logger, tabID)
	if !ok {
		return nil
	}

	if !isTrackedURL(t.url) {
		logger.Debug("skipping untracked tab", zap.String("tab", t.id))
		return nil
	}

	enabled, err := d.noCacheEnabled(ctx, in)
	if err != nil {
		logger.Error("error reading storage", zap.Error(err))
		return err
	}

	newURL := applyMarker(t.url, enabled, d.marker)
	if newURL == t.url {
		return nil
	}

	if err := d.tabs.SetURL(ctx, t.id, newURL); err != nil {
		logger.Error("error updating tab URL", zap.String("tab", t.id), zap.Error(err))
		return nil
	}

	logger.Info("updated tab URL",
		zap.String("tab", t.id),
		zap.Bool("nocache", enabled),
		zap.String("url", newURL))
	return nil
}

// noCacheEnabled returns the explicit state carried by the intent, or the
// stored preference
func (d *dispatcher) noCacheEnabled(ctx context.Context, in intent) (bool, error) {
	if in.Enabled != nil {
		return *in.Enabled, nil
	}

	values, err := d.store.Get(ctx, prefNoCacheEnabled)
	if err != nil {
		return false, err
	}

	return values.valueOr(prefNoCacheEnabled, d.defaults[prefNoCacheEnabled]), nil
}

// resolve looks up tabID, or the active tab when empty
func (d *dispatcher) resolve(ctx context.Context, logger *zap.Logger, tabID string) (tab, bool) {
	var (
		t   tab
		err error
	)
	if tabID == "" {
		t, err = d.tabs.Active(ctx)
	} else {
		t, err = d.tabs.Get(ctx, tabID)
	}

	if err != nil {
		logger.Error("error resolving tab", zap.String("tab", tabID), zap.Error(err))
		return tab{}, false
	}

	return t, true
}

// tabLocks hands out one mutex per tab ID and forgets it once unused
type tabLocks struct {
	mu    sync.Mutex
	locks map[string]*tabLock
}

type tabLock struct {
	sync.Mutex
	refs int
}

func newTabLocks() *tabLocks {
	return &tabLocks{locks: map[string]*tabLock{}}
}

// lock blocks until the tab's mutex is held and returns its release func
func (l *tabLocks) lock(tabID string) func() {
	l.mu.Lock()
	tl, ok := l.locks[tabID]
	if !ok {
		tl = &tabLock{}
		l.locks[tabID] = tl
	}
	tl.refs++
	l.mu.Unlock()

	tl.Lock()

	return func() {
		tl.Unlock()

		l.mu.Lock()
		tl.refs--
		if tl.refs == 0 {
			delete(l.locks, tabID)
		}
		l.mu.Unlock()
	}
}
