package provider

import (
	"context"
	"fmt"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/jonboulle/clockwork"
	"github.com/riskibarqy/dota-team-tracker/internal/platform/logging"
	"github.com/riskibarqy/dota-team-tracker/internal/platform/queue"
	"github.com/riskibarqy/dota-team-tracker/internal/usecase"
)

const (
	DefaultPollInterval = time.Second
	DefaultMaxAttempts  = 20
)

// PollState is the lifecycle of one submit-and-poll call.
type PollState string

const (
	StateSubmitted PollState = "submitted"
	StatePolling   PollState = "polling"
	StateReady     PollState = "ready"
	StateFailed    PollState = "failed"
	StateTimedOut  PollState = "timed_out"
)

type Transition struct {
	Provider string
	Op       string
	State    PollState
	Attempt  int
	Status   int
}

type Response struct {
	Status int
	Body   []byte
}

// Call performs one HTTP round trip. Transport failures are returned as
// errors; any status code, good or bad, is a Response.
type Call func(ctx context.Context) (Response, error)

type Request struct {
	Op     string
	Submit Call
	Poll   Call
}

type PollerConfig struct {
	Provider    string
	Interval    time.Duration
	MaxAttempts int
	Clock       clockwork.Clock
	Logger      *logging.Logger
	Observer    func(Transition)
}

// Poller drives the "202 queued, then GET until 200 ready" protocol.
type Poller struct {
	provider    string
	interval    time.Duration
	maxAttempts int
	clock       clockwork.Clock
	logger      *logging.Logger
	observer    func(Transition)
}

func NewPoller(cfg PollerConfig) *Poller {
	interval := cfg.Interval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	clock := cfg.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	provider := strings.TrimSpace(cfg.Provider)
	if provider == "" {
		provider = "provider"
	}

	return &Poller{
		provider:    provider,
		interval:    interval,
		maxAttempts: maxAttempts,
		clock:       clock,
		logger:      logger,
		observer:    cfg.Observer,
	}
}

type outcome int

const (
	outcomeReady outcome = iota
	outcomeQueued
	outcomeHard
)

// SubmitAndAwait submits req and polls at a fixed interval until the
// provider reports ready. It gives up with ErrProviderTimeout after exactly
// MaxAttempts polls. Any status other than 200 or 202 stops polling with
// ErrProviderHardError; transport failures are hard errors marked transient.
func (p *Poller) SubmitAndAwait(ctx context.Context, req Request) ([]byte, error) {
	if req.Submit == nil || req.Poll == nil {
		return nil, fmt.Errorf("%s %s: submit and poll calls are required", p.provider, req.Op)
	}

	resp, err := req.Submit(ctx)
	if err != nil {
		return nil, p.fail(ctx, req.Op, 0, 0, queue.MarkTransient(usecase.NewProviderHardError(p.provider, req.Op, 0, err)))
	}
	p.transition(ctx, req.Op, StateSubmitted, 0, resp.Status)
	switch classify(resp) {
	case outcomeReady:
		p.transition(ctx, req.Op, StateReady, 0, resp.Status)
		return resp.Body, nil
	case outcomeHard:
		return nil, p.fail(ctx, req.Op, 0, resp.Status, usecase.NewProviderHardError(p.provider, req.Op, resp.Status, bodyError(resp.Body)))
	}

	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%s %s: polling abandoned after %d polls: %w", p.provider, req.Op, attempt-1, ctx.Err())
		case <-p.clock.After(p.interval):
		}

		p.transition(ctx, req.Op, StatePolling, attempt, 0)
		resp, err = req.Poll(ctx)
		if err != nil {
			perr := usecase.NewProviderHardError(p.provider, req.Op, 0, err)
			perr.Attempts = attempt
			return nil, p.fail(ctx, req.Op, attempt, 0, queue.MarkTransient(perr))
		}

		switch classify(resp) {
		case outcomeReady:
			p.transition(ctx, req.Op, StateReady, attempt, resp.Status)
			return resp.Body, nil
		case outcomeHard:
			perr := usecase.NewProviderHardError(p.provider, req.Op, resp.Status, bodyError(resp.Body))
			perr.Attempts = attempt
			return nil, p.fail(ctx, req.Op, attempt, resp.Status, perr)
		}
	}

	p.transition(ctx, req.Op, StateTimedOut, p.maxAttempts, 0)
	p.logger.WarnContext(ctx, "provider poll ceiling reached",
		"provider", p.provider,
		"op", req.Op,
		"polls", p.maxAttempts,
		"interval", p.interval.String(),
	)
	return nil, usecase.NewProviderTimeout(p.provider, req.Op, p.maxAttempts)
}

func (p *Poller) fail(ctx context.Context, op string, attempt, status int, err error) error {
	p.transition(ctx, op, StateFailed, attempt, status)
	p.logger.WarnContext(ctx, "provider call failed", "provider", p.provider, "op", op, "attempt", attempt, "status", status, "error", err)
	return err
}

func (p *Poller) transition(ctx context.Context, op string, state PollState, attempt, status int) {
	p.logger.DebugContext(ctx, "provider poll transition", "provider", p.provider, "op", op, "state", string(state), "attempt", attempt, "status", status)
	if p.observer != nil {
		p.observer(Transition{Provider: p.provider, Op: op, State: state, Attempt: attempt, Status: status})
	}
}

func classify(resp Response) outcome {
	switch resp.Status {
	case 200:
		if isQueuedBody(resp.Body) {
			return outcomeQueued
		}
		return outcomeReady
	case 202:
		return outcomeQueued
	default:
		return outcomeHard
	}
}

func isQueuedBody(body []byte) bool {
	if len(body) == 0 {
		return false
	}
	var envelope struct {
		Status string `json:"status"`
	}
	if err := sonic.Unmarshal(body, &envelope); err != nil {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(envelope.Status), "queued")
}

func bodyError(body []byte) error {
	text := strings.TrimSpace(string(body))
	if text == "" {
		return nil
	}
	return fmt.Errorf("body=%s", Abbreviate(text, 256))
}

// Abbreviate truncates s to n bytes for logs and error messages.
func Abbreviate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
