package auth

import "crypto/subtle"

// APIKeyMatches compares a presented key against the configured key in
// constant time. An empty configured key means the gate is disabled and
// every request passes.
func APIKeyMatches(configured, presented string) bool {
	if configured == "" {
		return true
	}
	return subtle.ConstantTimeCompare([]byte(configured), []byte(presented)) == 1
}
