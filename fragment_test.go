package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

var fragmentURLs = []string{
	"https://assets-eur.mkt.dynamics.com/page",
	"https://assets-eur.mkt.dynamics.com/page#d365mkt-nocache",
	"https://assets-gbr.mkt.dynamics.com/forms/1?x=1#section",
	"https://assets-usa.mkt.dynamics.com/#d365mkt-nocache?after=1",
	"",
}

func TestApplyMarker(t *testing.T) {
	t.Run("appends when enabled", func(t *testing.T) {
		got := applyMarker("https://assets-eur.mkt.dynamics.com/page", true, noCacheMarker)
		assert.Equal(t, "https://assets-eur.mkt.dynamics.com/page#d365mkt-nocache", got)
	})

	t.Run("strips when disabled", func(t *testing.T) {
		got := applyMarker("https://assets-eur.mkt.dynamics.com/page#d365mkt-nocache", false, noCacheMarker)
		assert.Equal(t, "https://assets-eur.mkt.dynamics.com/page", got)
	})

	t.Run("strips only the first occurrence", func(t *testing.T) {
		got := applyMarker("https://assets-eur.mkt.dynamics.com/a#d365mkt-nocache?q=1#d365mkt-nocache", false, noCacheMarker)
		assert.Equal(t, "https://assets-eur.mkt.dynamics.com/a?q=1#d365mkt-nocache", got)
	})

	t.Run("doubled marker loses one occurrence per call", func(t *testing.T) {
		u := "https://assets-gbr.mkt.dynamics.com/forms/1#d365mkt-nocache#d365mkt-nocache"

		once := applyMarker(u, false, noCacheMarker)
		assert.Equal(t, "https://assets-gbr.mkt.dynamics.com/forms/1#d365mkt-nocache", once)
		assert.Equal(t, "https://assets-gbr.mkt.dynamics.com/forms/1", applyMarker(once, false, noCacheMarker))
		assert.Equal(t, u, applyMarker(u, true, noCacheMarker))
	})

	t.Run("keeps other fragment and query content", func(t *testing.T) {
		u := "https://assets-eur.mkt.dynamics.com/a?q=1#top"
		assert.Equal(t, u+noCacheMarker, applyMarker(u, true, noCacheMarker))
		assert.Equal(t, u, applyMarker(u+noCacheMarker, false, noCacheMarker))
	})

	t.Run("leaves already correct URLs alone", func(t *testing.T) {
		on := "https://assets-eur.mkt.dynamics.com/page#d365mkt-nocache"
		off := "https://assets-eur.mkt.dynamics.com/page"
		assert.Equal(t, on, applyMarker(on, true, noCacheMarker))
		assert.Equal(t, off, applyMarker(off, false, noCacheMarker))
	})
}

func TestApplyMarkerIdempotent(t *testing.T) {
	for _, u := range fragmentURLs {
		for _, enabled := range []bool{true, false} {
			once := applyMarker(u, enabled, noCacheMarker)
			twice := applyMarker(once, enabled, noCacheMarker)
			assert.Equal(t, once, twice, "url=%q enabled=%t", u, enabled)
		}
	}
}

func TestApplyMarkerRoundTrip(t *testing.T) {
	for _, u := range fragmentURLs {
		if strings.Contains(u, noCacheMarker) {
			continue
		}

		assert.Equal(t, u, applyMarker(applyMarker(u, true, noCacheMarker), false, noCacheMarker))
	}
}

func TestApplyMarkerNeverDuplicates(t *testing.T) {
	u := "https://assets-eur.mkt.dynamics.com/page"
	for range 5 {
		u = applyMarker(u, true, noCacheMarker)
	}

	assert.Equal(t, 1, strings.Count(u, noCacheMarker))
}
