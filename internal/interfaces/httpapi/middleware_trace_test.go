package httpapi

import "testing"

func TestShouldTraceRequest(t *testing.T) {
	cases := map[string]bool{
		"/healthz":              false,
		" /healthz ":            false,
		"/readyz/":              false,
		"/v1/queue-stats":       false,
		"/v1/teams":             true,
		"/v1/notifications":     true,
		"/v1/teams/1-2/matches": true,
		"/v1/players/86745912/": true,
		"/":                     true,
	}
	for path, want := range cases {
		if got := shouldTraceRequest(path); got != want {
			t.Fatalf("shouldTraceRequest(%q)=%v want=%v", path, got, want)
		}
	}
}
