package main

import "strings"

// noCacheMarker is the URL hash that makes Dynamics 365 serve an uncached form
const noCacheMarker = "#d365mkt-nocache"

// applyMarker appends marker to rawURL when enabled and strips its first
// occurrence when disabled. It never looks at the host, so callers must gate
// it on isTrackedURL
func applyMarker(rawURL string, enabled bool, marker string) string {
	present := strings.Contains(rawURL, marker)

	switch {
	case enabled && !present:
		return rawURL + marker
	case !enabled && present:
		return strings.Replace(rawURL, marker, "", 1)
	}

	return rawURL
}
