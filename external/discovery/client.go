package discovery

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/jonboulle/clockwork"
	"github.com/riskibarqy/dota-team-tracker/external/provider"
	"github.com/riskibarqy/dota-team-tracker/internal/platform/logging"
	"github.com/riskibarqy/dota-team-tracker/internal/platform/queue"
	"github.com/riskibarqy/dota-team-tracker/internal/platform/resilience"
	"github.com/riskibarqy/dota-team-tracker/internal/usecase"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	ProviderName       = "provider-a"
	opTeamDiscovery    = "team_match_discovery"
	opLeagueResolve    = "league_resolve"
	maxResponseBytes   = 4 << 20
	defaultHTTPTimeout = 15 * time.Second
)

type ClientConfig struct {
	HTTPClient      *http.Client
	BaseURL         string
	Timeout         time.Duration
	PollInterval    time.Duration
	PollMaxAttempts int
	Clock           clockwork.Clock
	Logger          *logging.Logger
	CircuitBreaker  resilience.CircuitBreakerConfig
	Observer        func(provider.Transition)
}

// Client talks to Provider A, which answers 202 while a query is queued
// on its side and 200 once the result is ready.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	poller         *provider.Poller
	logger         *logging.Logger
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	logger = logger.Named(ProviderName)

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = defaultHTTPTimeout
	}
	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)

	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		poller: provider.NewPoller(provider.PollerConfig{
			Provider:    ProviderName,
			Interval:    cfg.PollInterval,
			MaxAttempts: cfg.PollMaxAttempts,
			Clock:       cfg.Clock,
			Logger:      logger,
			Observer:    cfg.Observer,
		}),
		logger:         logger,
		breaker:        resilience.NewCircuitBreaker(breakerCfg),
		circuitEnabled: breakerCfg.Enabled,
	}
}

type rosterMember struct {
	AccountID int64  `json:"account_id"`
	Name      string `json:"name"`
}

type teamMatchesEnvelope struct {
	Status   string         `json:"status"`
	TeamName string         `json:"team_name"`
	MatchIDs []int64        `json:"match_ids"`
	Roster   []rosterMember `json:"roster"`
}

type leagueEnvelope struct {
	Status     string `json:"status"`
	LeagueName string `json:"league_name"`
}

func (c *Client) teamMatchesURL(teamID, leagueID string) string {
	return fmt.Sprintf("%s/v1/teams/%s/leagues/%s/matches", c.baseURL, teamID, leagueID)
}

func (c *Client) leagueURL(leagueID string) string {
	return fmt.Sprintf("%s/v1/leagues/%s", c.baseURL, leagueID)
}

func (c *Client) SubmitTeamMatchDiscovery(ctx context.Context, teamID, leagueID string) (provider.Response, error) {
	return c.do(ctx, http.MethodPost, c.teamMatchesURL(teamID, leagueID))
}

func (c *Client) PollTeamMatchDiscovery(ctx context.Context, teamID, leagueID string) (provider.Response, error) {
	return c.do(ctx, http.MethodGet, c.teamMatchesURL(teamID, leagueID))
}

func (c *Client) SubmitLeagueResolve(ctx context.Context, leagueID string) (provider.Response, error) {
	return c.do(ctx, http.MethodPost, c.leagueURL(leagueID))
}

func (c *Client) PollLeagueResolve(ctx context.Context, leagueID string) (provider.Response, error) {
	return c.do(ctx, http.MethodGet, c.leagueURL(leagueID))
}

// DiscoverTeam runs the full team query and returns match ids in provider order.
func (c *Client) DiscoverTeam(ctx context.Context, teamID, leagueID string) (usecase.TeamDiscovery, error) {
	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		span.SetAttributes(attribute.String("provider_a.team_id", teamID), attribute.String("provider_a.league_id", leagueID))
	}

	body, err := c.await(ctx, provider.Request{
		Op:     opTeamDiscovery,
		Submit: func(ctx context.Context) (provider.Response, error) { return c.SubmitTeamMatchDiscovery(ctx, teamID, leagueID) },
		Poll:   func(ctx context.Context) (provider.Response, error) { return c.PollTeamMatchDiscovery(ctx, teamID, leagueID) },
	})
	if err != nil {
		return usecase.TeamDiscovery{}, err
	}

	var env teamMatchesEnvelope
	if err := sonic.Unmarshal(body, &env); err != nil {
		return usecase.TeamDiscovery{}, usecase.NewProviderHardError(ProviderName, opTeamDiscovery, http.StatusOK, crerr.Wrap(err, "decode team discovery payload"))
	}

	out := usecase.TeamDiscovery{
		TeamName: strings.TrimSpace(env.TeamName),
		MatchIDs: make([]string, 0, len(env.MatchIDs)),
		Roster:   make([]usecase.DiscoveredMember, 0, len(env.Roster)),
	}
	for _, id := range env.MatchIDs {
		if id <= 0 {
			continue
		}
		out.MatchIDs = append(out.MatchIDs, strconv.FormatInt(id, 10))
	}
	for _, m := range env.Roster {
		if m.AccountID <= 0 {
			continue
		}
		out.Roster = append(out.Roster, usecase.DiscoveredMember{
			AccountID: strconv.FormatInt(m.AccountID, 10),
			Name:      strings.TrimSpace(m.Name),
		})
	}

	c.logger.InfoContext(ctx, "team discovery ready", "team_id", teamID, "league_id", leagueID, "matches", len(out.MatchIDs), "roster", len(out.Roster))
	return out, nil
}

func (c *Client) ResolveLeague(ctx context.Context, leagueID string) (string, error) {
	body, err := c.await(ctx, provider.Request{
		Op:     opLeagueResolve,
		Submit: func(ctx context.Context) (provider.Response, error) { return c.SubmitLeagueResolve(ctx, leagueID) },
		Poll:   func(ctx context.Context) (provider.Response, error) { return c.PollLeagueResolve(ctx, leagueID) },
	})
	if err != nil {
		return "", err
	}

	var env leagueEnvelope
	if err := sonic.Unmarshal(body, &env); err != nil {
		return "", usecase.NewProviderHardError(ProviderName, opLeagueResolve, http.StatusOK, crerr.Wrap(err, "decode league payload"))
	}
	return strings.TrimSpace(env.LeagueName), nil
}

func (c *Client) await(ctx context.Context, req provider.Request) ([]byte, error) {
	if c.baseURL == "" {
		return nil, usecase.NewProviderHardError(ProviderName, req.Op, 0, crerr.New("DISCOVERY_BASE_URL is not configured"))
	}
	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "provider circuit breaker rejected request", "op", req.Op, "state", c.breaker.State())
			return nil, usecase.NewProviderHardError(ProviderName, req.Op, 0, fmt.Errorf("%w: %w", usecase.ErrDependencyUnavailable, err))
		}
	}

	body, err := c.poller.SubmitAndAwait(ctx, req)
	if c.circuitEnabled {
		switch {
		case err != nil && ctx.Err() != nil:
			// the caller left; the provider's health is unknown
			c.breaker.Release()
		case isCircuitFailure(err):
			c.breaker.RecordFailure()
		default:
			c.breaker.RecordSuccess()
		}
	}
	return body, err
}

func (c *Client) do(ctx context.Context, method, fullURL string) (provider.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, fullURL, nil)
	if err != nil {
		return provider.Response{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return provider.Response{}, fmt.Errorf("send %s request: %w", method, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return provider.Response{}, fmt.Errorf("read response body: %w", err)
	}
	return provider.Response{Status: resp.StatusCode, Body: raw}, nil
}

// isCircuitFailure counts outages and stalled polling, not provider-side
// rejections of one query.
func isCircuitFailure(err error) bool {
	if err == nil {
		return false
	}
	if queue.IsTransient(err) || crerr.Is(err, usecase.ErrProviderTimeout) {
		return true
	}
	var perr *usecase.ProviderError
	if crerr.As(err, &perr) {
		return perr.Status >= 500 || perr.Status == http.StatusTooManyRequests
	}
	return false
}
