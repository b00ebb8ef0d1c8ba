package main

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

var errBoom = errors.New("boom")

// memStore is an in-memory prefStore whose reads and writes can be made to fail
type memStore struct {
	mu      sync.Mutex
	values  prefs
	failGet bool
	failSet bool
	gets    int
}

func newMemStore(values prefs) *memStore {
	if values == nil {
		values = prefs{}
	}
	return &memStore{values: values}
}

func (s *memStore) Get(_ context.Context, names ...string) (prefs, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.gets++
	if s.failGet {
		return nil, &storageError{op: "read", keys: names, err: errBoom}
	}

	out := prefs{}
	for _, n := range names {
		if v, ok := s.values[n]; ok {
			out[n] = v
		}
	}
	return out, nil
}

func (s *memStore) Set(_ context.Context, values prefs) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failSet {
		return &storageError{op: "write", keys: values.keys(), err: errBoom}
	}
	for k, v := range values {
		s.values[k] = v
	}
	return nil
}

// fakeTabs is an in-memory browser; SetURL updates the tab it targets
type fakeTabs struct {
	mu        sync.Mutex
	tabs      map[string]*tab
	order     []string
	setURLs   []string
	toggled   []string
	failSet   bool
	failClass bool
	events    chan tab
}

func newFakeTabs(tabs ...tab) *fakeTabs {
	f := &fakeTabs{tabs: map[string]*tab{}, events: make(chan tab, 16)}
	for i := range tabs {
		t := tabs[i]
		f.tabs[t.id] = &t
		f.order = append(f.order, t.id)
	}
	return f
}

func (f *fakeTabs) Active(_ context.Context) (tab, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.order) == 0 {
		return tab{}, &tabError{op: "active", err: errTabNotFound}
	}
	return *f.tabs[f.order[0]], nil
}

func (f *fakeTabs) Get(_ context.Context, tabID string) (tab, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	t, ok := f.tabs[tabID]
	if !ok {
		return tab{}, &tabError{op: "get", tabID: tabID, err: errTabNotFound}
	}
	return *t, nil
}

func (f *fakeTabs) List(_ context.Context) ([]tab, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := []tab{}
	for _, id := range f.order {
		out = append(out, *f.tabs[id])
	}
	return out, nil
}

func (f *fakeTabs) SetURL(_ context.Context, tabID, newURL string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failSet {
		return &tabError{op: "navigate", tabID: tabID, err: errBoom}
	}
	f.setURLs = append(f.setURLs, newURL)
	f.tabs[tabID].url = newURL
	return nil
}

// ToggleClass records tabID:className, with =true or =false when forced
func (f *fakeTabs) ToggleClass(_ context.Context, tabID, className string, force *bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failClass {
		return &tabError{op: "toggle class", tabID: tabID, err: errBoom}
	}

	entry := tabID + ":" + className
	if force != nil {
		entry += fmt.Sprintf("=%t", *force)
	}
	f.toggled = append(f.toggled, entry)
	return nil
}

func (f *fakeTabs) navigations(_ context.Context) (<-chan tab, error) {
	return f.events, nil
}

func (f *fakeTabs) url(tabID string) string {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.tabs[tabID].url
}

func (f *fakeTabs) setCalls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]string(nil), f.setURLs...)
}

func newObservedLogger() (*zap.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zap.DebugLevel)
	return zap.New(core), logs
}
