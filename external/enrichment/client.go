package enrichment

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/dota-team-tracker/external/provider"
	"github.com/riskibarqy/dota-team-tracker/internal/domain/match"
	"github.com/riskibarqy/dota-team-tracker/internal/domain/player"
	"github.com/riskibarqy/dota-team-tracker/internal/platform/logging"
	"github.com/riskibarqy/dota-team-tracker/internal/platform/queue"
	"github.com/riskibarqy/dota-team-tracker/internal/platform/resilience"
	"github.com/riskibarqy/dota-team-tracker/internal/usecase"
	"github.com/sourcegraph/conc/pool"
	"github.com/valyala/fasthttp"
)

const (
	ProviderName        = "provider-b"
	defaultBaseURL      = "https://api.opendota.com/api"
	defaultTimeout      = 15 * time.Second
	opEnrichMatch       = "enrich_match"
	opFetchPlayer       = "fetch_player"
	maxResponseBodySize = 8 << 20
)

var apiKeyParamRegex = regexp.MustCompile(`api_key=[^&\s"']+`)

type ClientConfig struct {
	BaseURL        string
	APIKey         string
	Timeout        time.Duration
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Client is Provider B. Each lookup is a single GET.
type Client struct {
	http           *fasthttp.Client
	baseURL        string
	apiKey         string
	timeout        time.Duration
	logger         *logging.Logger
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)

	return &Client{
		http: &fasthttp.Client{
			Name:                "dota-team-tracker",
			ReadTimeout:         timeout,
			WriteTimeout:        timeout,
			MaxResponseBodySize: maxResponseBodySize,
		},
		baseURL:        baseURL,
		apiKey:         strings.TrimSpace(cfg.APIKey),
		timeout:        timeout,
		logger:         logger.Named(ProviderName),
		breaker:        resilience.NewCircuitBreaker(breakerCfg),
		circuitEnabled: breakerCfg.Enabled,
	}
}

func (c *Client) EnrichMatch(ctx context.Context, matchID, teamID string) (match.Detail, error) {
	tid, err := strconv.ParseInt(strings.TrimSpace(teamID), 10, 64)
	if err != nil || tid <= 0 {
		return match.Detail{}, fmt.Errorf("team id %q must be a positive integer", teamID)
	}

	var payload matchPayload
	if err := c.getJSON(ctx, opEnrichMatch, "/matches/"+url.PathEscape(matchID), &payload); err != nil {
		return match.Detail{}, err
	}

	detail, err := toDetail(payload, tid)
	if err != nil {
		return match.Detail{}, usecase.NewProviderHardError(ProviderName, opEnrichMatch, http.StatusOK, err)
	}
	return detail, nil
}

// FetchPlayer loads profile, win/loss and hero stats concurrently.
func (c *Client) FetchPlayer(ctx context.Context, accountID string) (player.Profile, error) {
	base := "/players/" + url.PathEscape(accountID)

	var (
		profile playerPayload
		wl      winLossPayload
		heroes  []heroPayload
	)
	p := pool.New().WithContext(ctx).WithCancelOnError().WithFirstError()
	p.Go(func(ctx context.Context) error { return c.getJSON(ctx, opFetchPlayer, base, &profile) })
	p.Go(func(ctx context.Context) error { return c.getJSON(ctx, opFetchPlayer, base+"/wl", &wl) })
	p.Go(func(ctx context.Context) error { return c.getJSON(ctx, opFetchPlayer, base+"/heroes", &heroes) })
	if err := p.Wait(); err != nil {
		return player.Profile{}, err
	}

	return toProfile(profile, wl, heroes), nil
}

func (c *Client) getJSON(ctx context.Context, op, path string, target any) error {
	var raw []byte
	call := func() error {
		status, body, err := c.get(ctx, path)
		if err != nil {
			return queue.MarkTransient(usecase.NewProviderHardError(ProviderName, op, 0, err))
		}
		if status != fasthttp.StatusOK {
			return usecase.NewProviderHardError(ProviderName, op, status, fmt.Errorf("path=%s body=%s", path, provider.Abbreviate(string(body), 256)))
		}
		raw = body
		return nil
	}

	var err error
	if c.circuitEnabled {
		err = c.breaker.Execute(call, isCircuitFailure)
		if crerr.Is(err, resilience.ErrCircuitOpen) {
			c.logger.WarnContext(ctx, "provider circuit breaker rejected request", "op", op, "state", c.breaker.State())
			return usecase.NewProviderHardError(ProviderName, op, 0, fmt.Errorf("%w: %w", usecase.ErrDependencyUnavailable, err))
		}
	} else {
		err = call()
	}
	if err != nil {
		c.logger.WarnContext(ctx, "provider request failed", "op", op, "path", path, "error", err)
		return err
	}

	if err := sonic.Unmarshal(raw, target); err != nil {
		return usecase.NewProviderHardError(ProviderName, op, fasthttp.StatusOK, crerr.Wrap(err, "decode provider payload"))
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string) (int, []byte, error) {
	if err := ctx.Err(); err != nil {
		return 0, nil, err
	}

	fullURL := c.baseURL + path
	if c.apiKey != "" {
		fullURL += "?api_key=" + url.QueryEscape(c.apiKey)
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(fullURL)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("Accept", "application/json")

	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := c.http.DoDeadline(req, resp, deadline); err != nil {
		return 0, nil, fmt.Errorf("send request: %s", c.redact(err.Error()))
	}

	body := append([]byte(nil), resp.Body()...)
	return resp.StatusCode(), body, nil
}

func (c *Client) redact(value string) string {
	if c.apiKey != "" {
		value = strings.ReplaceAll(value, c.apiKey, "REDACTED")
	}
	return apiKeyParamRegex.ReplaceAllString(value, "api_key=REDACTED")
}

func isCircuitFailure(err error) bool {
	if err == nil {
		return false
	}
	if queue.IsTransient(err) {
		return true
	}
	var perr *usecase.ProviderError
	if crerr.As(err, &perr) {
		return perr.Status >= 500 || perr.Status == http.StatusTooManyRequests
	}
	return false
}
