package ratelimit

import (
	"net/http/httptest"
	"testing"
)

func TestClientIdentifier(t *testing.T) {
	tests := []struct {
		name      string
		forwarded string
		realIP    string
		want      string
	}{
		{name: "first forwarded entry", forwarded: "203.0.113.7, 10.0.0.1", realIP: "198.51.100.2", want: "203.0.113.7"},
		{name: "single forwarded entry", forwarded: " 203.0.113.8 ", want: "203.0.113.8"},
		{name: "real ip fallback", realIP: "198.51.100.2", want: "198.51.100.2"},
		{name: "empty forwarded entry falls back", forwarded: " , 10.0.0.1", realIP: "198.51.100.3", want: "198.51.100.3"},
		{name: "no headers", want: UnknownClient},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/leads", nil)
			if tt.forwarded != "" {
				req.Header.Set("X-Forwarded-For", tt.forwarded)
			}
			if tt.realIP != "" {
				req.Header.Set("X-Real-IP", tt.realIP)
			}
			if got := ClientIdentifier(req); got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}
