package app

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/dota-team-tracker/internal/config"
	"github.com/riskibarqy/dota-team-tracker/internal/domain/history"
	"github.com/riskibarqy/dota-team-tracker/internal/domain/kvstore"
	"github.com/riskibarqy/dota-team-tracker/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/dota-team-tracker/internal/infrastructure/repository/postgres"
	"github.com/riskibarqy/dota-team-tracker/internal/platform/logging"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"
	"go.opentelemetry.io/otel/attribute"
)

type storage struct {
	kv      kvstore.Repository
	history history.Repository
	db      *sqlx.DB
}

func (s storage) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func openStorage(cfg config.Config, origin string, logger *logging.Logger) (storage, error) {
	switch cfg.StorageDriver {
	case config.StoragePostgres:
		return openPostgres(cfg, origin, logger)
	default:
		out := storage{kv: memory.NewKVBus().Repository(origin)}
		if cfg.HistoryEnabled {
			out.history = memory.NewHistoryRepository()
		}
		logger.Info("storage configured", "driver", config.StorageMemory)
		return out, nil
	}
}

func openPostgres(cfg config.Config, origin string, logger *logging.Logger) (storage, error) {
	dsn := normalizeDBURL(cfg.DBURL, cfg.DBSSLMode)
	db, err := otelsqlx.Open("postgres", dsn,
		otelsql.WithAttributes(attribute.String("db.system", "postgresql")),
		otelsql.WithDBName(dbNameFromURL(dsn)),
		otelsql.WithQueryFormatter(formatDBQueryForTrace),
	)
	if err != nil {
		return storage{}, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return storage{}, fmt.Errorf("ping postgres: %w", err)
	}

	out := storage{
		kv: postgres.NewKVRepository(db, dsn, origin, logger),
		db: db,
	}
	if cfg.HistoryEnabled {
		out.history = postgres.NewHistoryRepository(db)
	}
	logger.Info("storage configured", "driver", config.StoragePostgres, "db_name", dbNameFromURL(dsn))
	return out, nil
}
