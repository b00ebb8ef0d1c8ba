package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsTrackedURL(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"https://assets-gbr.mkt.dynamics.com/forms/1", true},
		{"https://assets-eur.mkt.dynamics.com/page", true},
		{"HTTPS://ASSETS-USA.MKT.DYNAMICS.COM/x", true},
		{"https://assets-Aus.mkt.dynamics.com/", true},
		{"https://assets-gb.mkt.dynamics.com/", false},
		{"https://assets-gbrr.mkt.dynamics.com/", false},
		{"https://assets-g1r.mkt.dynamics.com/", false},
		{"http://assets-gbr.mkt.dynamics.com/", false},
		{"https://assets-gbr.mkt.dynamics.com", false},
		{"https://evil.com/assets-gbr.mkt.dynamics.com/", false},
		{" https://assets-gbr.mkt.dynamics.com/", false},
		{"https://assets-gbr.mkt.dynamics.com.evil.com/", false},
		{"https://example.com/", false},
		{"", false},
		{"not a url", false},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, isTrackedURL(tt.url))
		})
	}
}
