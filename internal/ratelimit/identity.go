package ratelimit

import (
	"net/http"
	"strings"
)

// UnknownClient is the shared bucket for requests that carry no client
// address headers.
const UnknownClient = "unknown"

// ClientIdentifier derives the rate limit key for r: the first entry of
// X-Forwarded-For, then X-Real-IP, then UnknownClient. Only the headers are
// consulted; the service is expected to run behind a proxy that sets them.
func ClientIdentifier(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
		return realIP
	}
	return UnknownClient
}
