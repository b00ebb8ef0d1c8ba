package main

import (
	"github.com/google/uuid"
)

type intentKind string

const (
	intentToggleClass   intentKind = "TOGGLE_CLASS"
	intentToggleNoCache intentKind = "TOGGLE_NOCACHE"
	intentGetFormInfo   intentKind = "GET_FORM_INFO"
)

// intent is a short-lived request from a UI surface to change page state
type intent struct {
	ID        string     `json:"id,omitempty"`
	Kind      intentKind `json:"type"`
	Enabled   *bool      `json:"enabled,omitempty"`
	ClassName string     `json:"className,omitempty"`
}

// newNoCacheIntent creates a TOGGLE_NOCACHE intent. A nil enabled means the
// stored preference decides
func newNoCacheIntent(enabled *bool) intent {
	return intent{ID: uuid.NewString(), Kind: intentToggleNoCache, Enabled: enabled}
}

// newToggleClassIntent creates a TOGGLE_CLASS intent for className. A nil
// enabled flips the class, otherwise the page is set to match
func newToggleClassIntent(className string, enabled *bool) intent {
	return intent{ID: uuid.NewString(), Kind: intentToggleClass, Enabled: enabled, ClassName: className}
}

func boolPtr(b bool) *bool {
	return &b
}
