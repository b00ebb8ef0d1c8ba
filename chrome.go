package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// chromeTabs drives the tabs of an already running Chromium browser over the
// DevTools protocol - it satisfies the tabBrowser interface
type chromeTabs struct {
	browserCtx context.Context
	timeout    time.Duration
	logger     *zap.Logger

	mu       sync.Mutex
	attached map[target.ID]context.Context
}

// newChromeTabs connects to the browser whose DevTools endpoint is
// debuggerURL, without opening a tab
func newChromeTabs(ctx context.Context, debuggerURL string, timeout time.Duration, logger *zap.Logger) (*chromeTabs, error) {
	// these contexts are never cancelled: cancelling a chromedp context
	// closes the tabs attached through it
	base := context.WithoutCancel(ctx)
	allocCtx, _ := chromedp.NewRemoteAllocator(base, debuggerURL)
	browserCtx, _ := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(logger.Sugar().Debugf),
		chromedp.WithErrorf(logger.Sugar().Errorf),
	)

	ct := &chromeTabs{
		browserCtx: browserCtx,
		timeout:    timeout,
		logger:     logger,
		attached:   map[target.ID]context.Context{},
	}

	chromedp.ListenBrowser(browserCtx, func(ev interface{}) {
		if e, ok := ev.(*target.EventTargetDestroyed); ok {
			ct.forget(e.TargetID)
		}
	})

	// allocates the browser connection
	if _, err := chromedp.Targets(browserCtx); err != nil {
		return nil, &tabError{op: "connect", err: fmt.Errorf("failed to reach %s: %w", debuggerURL, err)}
	}

	return ct, nil
}

// Active returns the most recently focused page. Chromium lists page
// targets in activation order, so that is the first one
func (ct *chromeTabs) Active(ctx context.Context) (tab, error) {
	tabs, err := ct.listPages(ctx, "active")
	if err != nil {
		return tab{}, err
	}

	if len(tabs) == 0 {
		return tab{}, &tabError{op: "active", err: errTabNotFound}
	}

	return tabs[0], nil
}

// Get returns the current state of tabID
func (ct *chromeTabs) Get(ctx context.Context, tabID string) (tab, error) {
	tabs, err := ct.listPages(ctx, "get")
	if err != nil {
		return tab{}, err
	}

	for _, t := range tabs {
		if t.id == tabID {
			return t, nil
		}
	}

	return tab{}, &tabError{op: "get", tabID: tabID, err: errTabNotFound}
}

// List returns every open page
func (ct *chromeTabs) List(ctx context.Context) ([]tab, error) {
	return ct.listPages(ctx, "list")
}

// SetURL navigates tabID to newURL. A hash-only change stays a same-document
// navigation, as it would when typed into the address bar
func (ct *chromeTabs) SetURL(ctx context.Context, tabID, newURL string) error {
	var navigated string
	err := ct.run(ctx, tabID, chromedp.Evaluate(setLocationJS(newURL), &navigated))
	if err != nil {
		return &tabError{op: "navigate", tabID: tabID, err: err}
	}

	return nil
}

// ToggleClass flips className on the document root of tabID, or forces it
// on or off, injecting the highlight stylesheet first if the page does not
// have it yet
func (ct *chromeTabs) ToggleClass(ctx context.Context, tabID, className string, force *bool) error {
	var present bool
	err := ct.run(ctx, tabID,
		chromedp.Evaluate(ensureStyleJS(className), nil),
		chromedp.Evaluate(toggleClassJS(className, force), &present),
	)
	if err != nil {
		return &tabError{op: "toggle class", tabID: tabID, err: err}
	}

	ct.logger.Debug("class toggled", zap.String("tab", tabID), zap.Bool("present", present))
	return nil
}

// navigations streams every page whose URL changed, and every page that
// closed. The channel is never closed; stop reading once ctx is done
func (ct *chromeTabs) navigations(ctx context.Context) (<-chan tab, error) {
	listenCtx, cancel := context.WithCancel(ct.browserCtx)
	context.AfterFunc(ctx, cancel)

	out := make(chan tab, 64)
	chromedp.ListenBrowser(listenCtx, func(ev interface{}) {
		if t, ok := navigationEvent(ev); ok {
			ct.send(out, t)
		}
	})

	browser := chromedp.FromContext(ct.browserCtx).Browser
	err := target.SetDiscoverTargets(true).Do(cdp.WithExecutor(ct.browserCtx, browser))
	if err != nil {
		cancel()
		return nil, &tabError{op: "discover", err: err}
	}

	return out, nil
}

// navigationEvent maps a browser event to the page it concerns
func navigationEvent(ev interface{}) (tab, bool) {
	switch e := ev.(type) {
	case *target.EventTargetInfoChanged:
		if e.TargetInfo == nil || e.TargetInfo.Type != "page" {
			return tab{}, false
		}
		return tab{id: string(e.TargetInfo.TargetID), url: e.TargetInfo.URL, title: e.TargetInfo.Title}, true
	case *target.EventTargetDestroyed:
		return tab{id: string(e.TargetID), closed: true}, true
	}

	return tab{}, false
}

// send hands t to out without blocking the browser's event loop
func (ct *chromeTabs) send(out chan<- tab, t tab) bool {
	select {
	case out <- t:
		return true
	default:
		ct.logger.Warn("dropping navigation event", zap.String("tab", t.id))
		return false
	}
}

// listPages returns all page targets except the browser's own tooling
func (ct *chromeTabs) listPages(ctx context.Context, op string) ([]tab, error) {
	callCtx, cancel := ct.callContext(ctx, ct.browserCtx)
	defer cancel()

	infos, err := chromedp.Targets(callCtx)
	if err != nil {
		return nil, &tabError{op: op, err: err}
	}

	return pageTabs(infos), nil
}

// pageTabs keeps the targets that are ordinary pages
func pageTabs(infos []*target.Info) []tab {
	tabs := []tab{}
	for _, info := range infos {
		if info == nil || info.Type != "page" || strings.HasPrefix(info.URL, "devtools://") {
			continue
		}

		tabs = append(tabs, tab{id: string(info.TargetID), url: info.URL, title: info.Title})
	}

	return tabs
}

// run executes actions inside tabID, attaching to it on first use
func (ct *chromeTabs) run(ctx context.Context, tabID string, actions ...chromedp.Action) error {
	tabCtx, err := ct.tabContext(tabID)
	if err != nil {
		return err
	}

	callCtx, cancel := ct.callContext(ctx, tabCtx)
	defer cancel()

	return chromedp.Run(callCtx, actions...)
}

// tabContext returns the chromedp context attached to tabID
func (ct *chromeTabs) tabContext(tabID string) (context.Context, error) {
	if tabID == "" {
		return nil, errors.New("tab ID cannot be empty")
	}

	ct.mu.Lock()
	defer ct.mu.Unlock()

	id := target.ID(tabID)
	if tabCtx, ok := ct.attached[id]; ok {
		return tabCtx, nil
	}

	tabCtx, _ := chromedp.NewContext(ct.browserCtx, chromedp.WithTargetID(id))

	// attach with the long-lived context so the session outlives this call
	if err := chromedp.Run(tabCtx); err != nil {
		return nil, fmt.Errorf("failed to attach: %w", err)
	}

	ct.attached[id] = tabCtx
	return tabCtx, nil
}

// forget drops the attached context of a closed tab
func (ct *chromeTabs) forget(id target.ID) {
	ct.mu.Lock()
	delete(ct.attached, id)
	ct.mu.Unlock()
}

// callContext derives a per-call context from the chromedp context parent
// that ends on the call timeout or when ctx ends
func (ct *chromeTabs) callContext(ctx, parent context.Context) (context.Context, context.CancelFunc) {
	callCtx, cancel := context.WithTimeout(parent, ct.timeout)
	stop := context.AfterFunc(ctx, cancel)

	return callCtx, func() {
		stop()
		cancel()
	}
}
