// Package util holds the small ambient logging helper used by checker,
// kept deliberately thin — this is not a general-purpose utility
// grab-bag. Debug dumping of a Report lives in checker/report.go.
package util

import "log"

// Logf prefixes a log line with a short component tag and an owner
// identifier, e.g. Logf("SM", "node-2", "advancing to %v", Prepared).
// Mirrors the call shape a quorum-consensus codebase tends to settle on
// once every component wants to say who it is before it says what
// happened.
func Logf(tag string, owner string, format string, args ...interface{}) {
	log.Printf("[%s] %s: "+format, append([]interface{}{tag, owner}, args...)...)
}
