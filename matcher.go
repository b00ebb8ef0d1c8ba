package main

import "regexp"

// trackedURLPattern matches Dynamics 365 Marketing form asset URLs such as
// https://assets-gbr.mkt.dynamics.com/... or https://assets-usa.mkt.dynamics.com/...
var trackedURLPattern = regexp.MustCompile(`(?i)^https://assets-[a-z]{3}\.mkt\.dynamics\.com/`)

// isTrackedURL reports whether the given URL belongs to a Dynamics 365
// Marketing asset host and may therefore be rewritten
func isTrackedURL(rawURL string) bool {
	return trackedURLPattern.MatchString(rawURL)
}
