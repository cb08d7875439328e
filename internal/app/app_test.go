package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/riskibarqy/dota-team-tracker/internal/config"
	"github.com/riskibarqy/dota-team-tracker/internal/platform/logging"
	"github.com/stretchr/testify/require"
)

func memoryConfig() config.Config {
	return config.Config{
		AppEnv:               config.EnvDev,
		ServiceName:          "dota-team-tracker-api",
		HTTPAddr:             ":0",
		ReadTimeout:          time.Second,
		WriteTimeout:         time.Second,
		QueueWorkers:         2,
		QueueRetryBackoff:    time.Millisecond,
		QueueStatsInterval:   time.Second,
		CacheTTL:             time.Minute,
		CacheLeagueTTL:       time.Hour,
		StorageDriver:        config.StorageMemory,
		PersistDebounce:      time.Millisecond,
		HistoryEnabled:       true,
		HistoryTimeout:       time.Second,
		NotificationCapacity: 10,
		NotificationTTL:      time.Minute,
	}
}

func TestNew_MemoryStorageServesHealthz(t *testing.T) {
	a, err := New(memoryConfig(), logging.NewNop())
	require.NoError(t, err)
	require.NotEmpty(t, a.Origin)
	require.NotNil(t, a.storage.history)

	ctx := context.Background()
	require.NoError(t, a.Start(ctx))

	rec := httptest.NewRecorder()
	a.Server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	a.Server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/teams", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	require.NoError(t, a.Shutdown(ctx))
}

func TestNew_HistoryDisabledLeavesRepositoryUnset(t *testing.T) {
	cfg := memoryConfig()
	cfg.HistoryEnabled = false

	a, err := New(cfg, logging.NewNop())
	require.NoError(t, err)
	require.Nil(t, a.storage.history)
	require.NoError(t, a.Shutdown(context.Background()))
}

func TestNew_RejectsEmptyAddr(t *testing.T) {
	cfg := memoryConfig()
	cfg.HTTPAddr = ""

	_, err := New(cfg, logging.NewNop())
	require.Error(t, err)
}
