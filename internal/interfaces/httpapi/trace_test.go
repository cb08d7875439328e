package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go.opentelemetry.io/otel/attribute"
)

func TestShouldCreateHTTPAPISpan(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want bool
	}{
		{name: "handler span", in: "httpapi.Handler.ImportTeam", want: true},
		{name: "middleware span", in: "httpapi.RequestLogging", want: false},
		{name: "helper span", in: "httpapi.writeError", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := shouldCreateHTTPAPISpan(tt.in)
			if got != tt.want {
				t.Fatalf("shouldCreateHTTPAPISpan(%q)=%v want=%v", tt.in, got, tt.want)
			}
		})
	}
}

func TestRouteAttributes(t *testing.T) {
	var got []attribute.KeyValue
	mux := http.NewServeMux()
	mux.HandleFunc("PUT /v1/teams/{teamKey}/matches/{matchID}", func(_ http.ResponseWriter, r *http.Request) {
		got = routeAttributes(r)
	})
	mux.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPut, "/v1/teams/9517508-16435/matches/7400000001", nil))

	want := map[attribute.Key]string{
		"team.key": "9517508-16435",
		"match.id": "7400000001",
	}
	if len(got) != len(want) {
		t.Fatalf("unexpected attributes: %v", got)
	}
	for _, kv := range got {
		if want[kv.Key] != kv.Value.AsString() {
			t.Fatalf("unexpected attribute %s=%s", kv.Key, kv.Value.AsString())
		}
	}

	if attrs := routeAttributes(httptest.NewRequest(http.MethodGet, "/v1/teams", nil)); len(attrs) != 0 {
		t.Fatalf("unbound route must not add attributes, got=%v", attrs)
	}
}
