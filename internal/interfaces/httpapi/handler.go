package httpapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	sonic "github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"
	"github.com/riskibarqy/dota-team-tracker/internal/platform/logging"
	"github.com/riskibarqy/dota-team-tracker/internal/usecase"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

type Handler struct {
	teamService   *usecase.TeamService
	matchService  *usecase.MatchService
	playerService *usecase.PlayerService
	statsService  *usecase.StatsService
	notifications *usecase.NotificationFeed
	logger        *logging.Logger
	validator     *validator.Validate
}

func NewHandler(
	teamService *usecase.TeamService,
	matchService *usecase.MatchService,
	playerService *usecase.PlayerService,
	statsService *usecase.StatsService,
	notifications *usecase.NotificationFeed,
	logger *logging.Logger,
) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		teamService:   teamService,
		matchService:  matchService,
		playerService: playerService,
		statsService:  statsService,
		notifications: notifications,
		logger:        logger.Named("httpapi"),
		validator:     validator.New(),
	}
}

func (h *Handler) decodeRequest(ctx context.Context, r *http.Request, payload any) error {
	decoder := sonic.ConfigDefault.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(payload); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: request body is required", usecase.ErrInvalidInput)
		}
		return fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err)
	}
	return h.validateRequest(ctx, payload)
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}

func parseLimit(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return defaultListLimit, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return 0, fmt.Errorf("%w: limit must be a positive integer", usecase.ErrInvalidInput)
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	return limit, nil
}

type importTeamRequest struct {
	TeamID   string `json:"team_id" validate:"required,numeric"`
	LeagueID string `json:"league_id" validate:"required,numeric"`
}

type addMatchRequest struct {
	MatchID string `json:"match_id" validate:"required,numeric"`
}

type editMatchRequest struct {
	MatchID string `json:"match_id" validate:"required,numeric"`
}

type addPlayerRequest struct {
	AccountID string `json:"account_id" validate:"required,numeric"`
}

type editPlayerRequest struct {
	AccountID string `json:"account_id" validate:"required,numeric"`
}
