package timescaledb

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"go.uber.org/fx"

	"carbon-admin-console/config"
	"carbon-admin-console/internal/model"
)

type UsageStore interface {
	StoreUsageEvents(ctx context.Context, events []model.LLMUsageEvent) error
	Close()
}

type timescaleUsageStore struct {
	pool      *pgxpool.Pool
	tableName string
}

const (
	usageEventsTableName = "llm_usage_events"
	colTime              = "time"
	colModel             = "model"
	colProvider          = "provider"
	colUserID            = "user_id"
	colFeature           = "feature"
	colPromptTokens      = "prompt_tokens"
	colCompletionTokens  = "completion_tokens"
	colCostUSD           = "cost_usd"
	colDurationMs        = "duration_ms"
	colSuccess           = "success"
)

var usageColumns = []string{
	colTime, colModel, colProvider, colUserID, colFeature,
	colPromptTokens, colCompletionTokens, colCostUSD, colDurationMs, colSuccess,
}

func ProvideTimescaleDBPool(lc fx.Lifecycle, cfg *config.Config) (UsageStore, *pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.TimescaleDB.DSN)
	if err != nil {
		log.Error().Err(err).Msg("Failed to parse TimescaleDB DSN")
		return nil, nil, fmt.Errorf("invalid TimescaleDB DSN: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		log.Error().Err(err).Msg("Unable to create connection pool to TimescaleDB")
		return nil, nil, fmt.Errorf("failed to connect to TimescaleDB: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		log.Error().Err(err).Msg("Failed to ping TimescaleDB")
		return nil, nil, fmt.Errorf("failed to ping TimescaleDB: %w", err)
	}
	log.Info().Msg("TimescaleDB connection pool created and verified.")

	store := &timescaleUsageStore{
		pool:      pool,
		tableName: usageEventsTableName,
	}

	setupCtx, cancelSetup := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelSetup()
	if err := store.ensureHypertable(setupCtx); err != nil {
		pool.Close()
		log.Error().Err(err).Msg("Failed to ensure TimescaleDB hypertable exists")
		return nil, nil, fmt.Errorf("failed ensuring hypertable: %w", err)
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			log.Info().Msg("Closing TimescaleDB connection pool...")
			store.Close()
			return nil
		},
	})

	return store, pool, nil
}

func (s *timescaleUsageStore) ensureHypertable(ctx context.Context) error {
	createTableSQL := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			%s TIMESTAMPTZ NOT NULL,
			%s TEXT NOT NULL,
			%s TEXT NOT NULL DEFAULT '',
			%s TEXT NOT NULL DEFAULT '',
			%s TEXT NOT NULL DEFAULT '',
			%s BIGINT NOT NULL DEFAULT 0,
			%s BIGINT NOT NULL DEFAULT 0,
			%s DOUBLE PRECISION NOT NULL DEFAULT 0,
			%s BIGINT NOT NULL DEFAULT 0,
			%s BOOLEAN NOT NULL DEFAULT TRUE
		);`,
		s.tableName, colTime, colModel, colProvider, colUserID, colFeature,
		colPromptTokens, colCompletionTokens, colCostUSD, colDurationMs, colSuccess)

	if _, err := s.pool.Exec(ctx, createTableSQL); err != nil {
		return fmt.Errorf("failed to create base table %s: %w", s.tableName, err)
	}
	log.Info().Str("table", s.tableName).Msg("Ensured base table exists.")

	checkHyperSQL := `SELECT EXISTS (
        SELECT 1 FROM timescaledb_information.hypertables WHERE hypertable_name = $1
    );`
	var isHypertable bool
	_ = s.pool.QueryRow(ctx, checkHyperSQL, s.tableName).Scan(&isHypertable)

	if !isHypertable {
		log.Info().Str("table", s.tableName).Msg("Table is not a hypertable, attempting to create...")
		if _, err := s.pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS timescaledb;"); err != nil {
			log.Warn().Err(err).Msg("Failed to ensure timescaledb extension exists (permission issue?). Trying to proceed...")
		}

		createHyperSQL := fmt.Sprintf(
			"SELECT create_hypertable('%s', '%s', if_not_exists => TRUE, chunk_time_interval => INTERVAL '1 day');",
			s.tableName,
			colTime,
		)
		_, err := s.pool.Exec(ctx, createHyperSQL)
		if err != nil && !strings.Contains(err.Error(), "already a hypertable") {
			return fmt.Errorf("failed to create hypertable %s: %w", s.tableName, err)
		}
		log.Info().Str("table", s.tableName).Msg("Successfully ensured hypertable.")
	} else {
		log.Info().Str("table", s.tableName).Msg("Table is already a hypertable.")
	}

	indexSQL := fmt.Sprintf(`
        CREATE INDEX IF NOT EXISTS idx_%s_model_time ON %s (model, time DESC);
        CREATE INDEX IF NOT EXISTS idx_%s_user_time ON %s (user_id, time DESC);
    `, s.tableName, s.tableName, s.tableName, s.tableName)
	if _, err := s.pool.Exec(ctx, indexSQL); err != nil {
		log.Warn().Err(err).Msg("Failed to create indexes on usage table (continuing)")
	} else {
		log.Info().Str("table", s.tableName).Msg("Ensured indexes exist on usage table.")
	}

	return nil
}

func usageRow(e model.LLMUsageEvent) []interface{} {
	return []interface{}{
		e.Time, e.Model, e.Provider, e.UserID, e.Feature,
		e.PromptTokens, e.CompletionTokens, e.CostUSD, e.DurationMs, e.Success,
	}
}

// StoreUsageEvents bulk inserts events with COPY.
func (s *timescaleUsageStore) StoreUsageEvents(ctx context.Context, events []model.LLMUsageEvent) error {
	if len(events) == 0 {
		return nil
	}

	source := pgx.CopyFromSlice(len(events), func(i int) ([]interface{}, error) {
		return usageRow(events[i]), nil
	})

	copyCount, err := s.pool.CopyFrom(ctx, pgx.Identifier{s.tableName}, usageColumns, source)
	if err != nil {
		log.Error().Err(err).Msg("Failed to bulk insert usage events into TimescaleDB")
		return fmt.Errorf("timescaledb copyfrom failed: %w", err)
	}

	if int(copyCount) != len(events) {
		log.Warn().Int64("inserted", copyCount).Int("expected", len(events)).Msg("TimescaleDB CopyFrom event count mismatch")
	} else {
		log.Debug().Int64("count", copyCount).Msg("Successfully inserted usage events into TimescaleDB")
	}
	return nil
}

func (s *timescaleUsageStore) Close() {
	s.pool.Close()
}
