package main

import (
	"context"
	"errors"
	"fmt"
)

var errTabNotFound = errors.New("tab not found")

// tab is a snapshot of one browser page
type tab struct {
	id    string
	url   string
	title string

	// set on navigation events for a page that went away
	closed bool
}

// tabBrowser defines the interface for looking up and mutating browser tabs
type tabBrowser interface {
	Active(ctx context.Context) (tab, error)
	Get(ctx context.Context, tabID string) (tab, error)
	List(ctx context.Context) ([]tab, error)
	SetURL(ctx context.Context, tabID, newURL string) error
	// ToggleClass flips className, or sets it to *force when force is not nil
	ToggleClass(ctx context.Context, tabID, className string, force *bool) error
}

// tabError reports a failed tab lookup, navigation or script run
type tabError struct {
	op    string
	tabID string
	err   error
}

func (e *tabError) Error() string {
	if e.tabID == "" {
		return fmt.Sprintf("tab %s: %v", e.op, e.err)
	}

	return fmt.Sprintf("tab %s %s: %v", e.op, e.tabID, e.err)
}

func (e *tabError) Unwrap() error {
	return e.err
}
