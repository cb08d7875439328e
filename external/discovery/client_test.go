package discovery

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/riskibarqy/dota-team-tracker/internal/platform/logging"
	"github.com/riskibarqy/dota-team-tracker/internal/platform/resilience"
	"github.com/riskibarqy/dota-team-tracker/internal/usecase"
)

type fakeProviderA struct {
	mu       sync.Mutex
	requests []string
	queued   int
	status   int
}

func (f *fakeProviderA) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.requests = append(f.requests, r.Method+" "+r.URL.Path)
	polls := 0
	for _, req := range f.requests {
		if req[:3] == "GET" {
			polls++
		}
	}
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if f.status != 0 {
		w.WriteHeader(f.status)
		_, _ = w.Write([]byte(`{"error":"nope"}`))
		return
	}
	if r.Method == http.MethodPost || polls <= f.queued {
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte(`{"status":"queued"}`))
		return
	}

	switch r.URL.Path {
	case "/v1/teams/9517508/leagues/16435/matches":
		_, _ = w.Write([]byte(`{"status":"ready","team_name":"Crows","match_ids":[7400000001,7400000002,0],"roster":[{"account_id":86745912,"name":" carry "},{"account_id":0}]}`))
	case "/v1/leagues/16435":
		_, _ = w.Write([]byte(`{"status":"ready","league_name":"Amateur Dota League"}`))
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func newTestClient(baseURL string, breaker resilience.CircuitBreakerConfig) *Client {
	return NewClient(ClientConfig{
		BaseURL:         baseURL,
		Timeout:         2 * time.Second,
		PollInterval:    time.Millisecond,
		PollMaxAttempts: 5,
		Logger:          logging.NewNop(),
		CircuitBreaker:  breaker,
	})
}

func TestClient_DiscoverTeam(t *testing.T) {
	t.Parallel()

	fake := &fakeProviderA{queued: 2}
	server := httptest.NewServer(fake)
	defer server.Close()

	got, err := newTestClient(server.URL, resilience.CircuitBreakerConfig{}).DiscoverTeam(context.Background(), "9517508", "16435")
	if err != nil {
		t.Fatalf("DiscoverTeam: %v", err)
	}
	if got.TeamName != "Crows" {
		t.Fatalf("unexpected team name: %q", got.TeamName)
	}
	if !slices.Equal(got.MatchIDs, []string{"7400000001", "7400000002"}) {
		t.Fatalf("unexpected match ids: %v", got.MatchIDs)
	}
	if len(got.Roster) != 1 || got.Roster[0].AccountID != "86745912" || got.Roster[0].Name != "carry" {
		t.Fatalf("unexpected roster: %+v", got.Roster)
	}

	fake.mu.Lock()
	defer fake.mu.Unlock()
	if fake.requests[0] != "POST /v1/teams/9517508/leagues/16435/matches" || len(fake.requests) != 4 {
		t.Fatalf("unexpected request log: %v", fake.requests)
	}
}

func TestClient_ResolveLeague(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(&fakeProviderA{})
	defer server.Close()

	name, err := newTestClient(server.URL, resilience.CircuitBreakerConfig{}).ResolveLeague(context.Background(), "16435")
	if err != nil {
		t.Fatalf("ResolveLeague: %v", err)
	}
	if name != "Amateur Dota League" {
		t.Fatalf("unexpected league name: %q", name)
	}
}

func TestClient_HardErrorAndCircuit(t *testing.T) {
	t.Parallel()

	fake := &fakeProviderA{status: http.StatusBadGateway}
	server := httptest.NewServer(fake)
	defer server.Close()

	client := newTestClient(server.URL, resilience.CircuitBreakerConfig{
		Enabled:          true,
		FailureThreshold: 2,
		OpenTimeout:      time.Minute,
		HalfOpenMaxReq:   1,
	})

	for i := 0; i < 2; i++ {
		_, err := client.DiscoverTeam(context.Background(), "9517508", "16435")
		var perr *usecase.ProviderError
		if !errors.As(err, &perr) || perr.Status != http.StatusBadGateway || !errors.Is(err, usecase.ErrProviderHardError) {
			t.Fatalf("attempt %d: expected hard error status 502, got=%v", i, err)
		}
	}

	fake.mu.Lock()
	before := len(fake.requests)
	fake.mu.Unlock()

	_, err := client.DiscoverTeam(context.Background(), "9517508", "16435")
	if !errors.Is(err, usecase.ErrDependencyUnavailable) || !errors.Is(err, usecase.ErrProviderHardError) {
		t.Fatalf("expected open circuit to fail fast, got=%v", err)
	}
	fake.mu.Lock()
	defer fake.mu.Unlock()
	if len(fake.requests) != before {
		t.Fatalf("open circuit must not reach the provider")
	}
}

func TestClient_RequiresBaseURL(t *testing.T) {
	t.Parallel()

	_, err := newTestClient("", resilience.CircuitBreakerConfig{}).DiscoverTeam(context.Background(), "1", "2")
	if !errors.Is(err, usecase.ErrProviderHardError) {
		t.Fatalf("expected hard error without base url, got=%v", err)
	}
}

func TestClient_PollTimeoutsOpenCircuit(t *testing.T) {
	t.Parallel()

	fake := &fakeProviderA{queued: 1 << 20}
	server := httptest.NewServer(fake)
	defer server.Close()

	client := newTestClient(server.URL, resilience.CircuitBreakerConfig{
		Enabled:          true,
		FailureThreshold: 2,
		OpenTimeout:      time.Minute,
		HalfOpenMaxReq:   1,
	})

	for i := 0; i < 2; i++ {
		_, err := client.DiscoverTeam(context.Background(), "9517508", "16435")
		if !errors.Is(err, usecase.ErrProviderTimeout) {
			t.Fatalf("attempt %d: expected poll timeout, got=%v", i, err)
		}
	}

	_, err := client.ResolveLeague(context.Background(), "16435")
	if !errors.Is(err, usecase.ErrDependencyUnavailable) {
		t.Fatalf("stalled provider should open the circuit, got=%v", err)
	}
}
