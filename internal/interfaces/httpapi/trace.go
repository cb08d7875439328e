package httpapi

import (
	"context"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var apiTracer = otel.Tracer("dota-team-tracker/internal/interfaces/httpapi")
var noopSpan = trace.SpanFromContext(context.Background())

// routeParams maps mux wildcards to span attribute keys.
var routeParams = []struct {
	wildcard string
	key      attribute.Key
}{
	{wildcard: "teamKey", key: "team.key"},
	{wildcard: "matchID", key: "match.id"},
	{wildcard: "accountID", key: "player.account_id"},
}

// startSpan opens a child span for handler entry points only. Requests
// without a parent span, e.g. health checks, stay untraced.
func startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	parent := trace.SpanFromContext(ctx)
	if !parent.SpanContext().IsValid() {
		return ctx, noopSpan
	}
	if !shouldCreateHTTPAPISpan(name) {
		return ctx, noopSpan
	}
	return apiTracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func shouldCreateHTTPAPISpan(name string) bool {
	return strings.HasPrefix(name, "httpapi.Handler.")
}

// routeAttributes returns the team, match and player ids bound by the route.
func routeAttributes(r *http.Request) []attribute.KeyValue {
	out := make([]attribute.KeyValue, 0, len(routeParams))
	for _, p := range routeParams {
		if v := strings.TrimSpace(r.PathValue(p.wildcard)); v != "" {
			out = append(out, p.key.String(v))
		}
	}
	return out
}
