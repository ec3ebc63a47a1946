package main

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"property-billing/pkg/config"
	"property-billing/pkg/database/postgresql"
	applogger "property-billing/pkg/logger"
)

// env: то, что нужно командам, работающим с базой.
type env struct {
	cfg    *config.Config
	logger *zap.Logger
	pool   *pgxpool.Pool
}

// openEnv читает конфиг и подключается к PostgreSQL. Логи только в stdout.
func openEnv(ctx context.Context) (*env, error) {
	cfg, err := config.New()
	if err != nil {
		return nil, err
	}
	logger, err := applogger.NewLogger(cfg.Log.Level, "")
	if err != nil {
		return nil, err
	}
	pool, err := postgresql.ConnectDB(ctx, cfg.Postgres, logger)
	if err != nil {
		return nil, fmt.Errorf("подключение к базе: %w", err)
	}
	return &env{cfg: cfg, logger: logger, pool: pool}, nil
}

func (e *env) Close() {
	e.pool.Close()
	_ = e.logger.Sync()
}
