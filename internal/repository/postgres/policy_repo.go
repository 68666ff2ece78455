package postgres

/*
Файл policy_repo.go — необязательный источник описаний политик в PostgreSQL.
Политики читаются один раз при старте ("холодная загрузка"), после чего реестр
запечатывается и база в горячем пути больше не участвует.
*/

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/avast/retry-go/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/xela07ax/claims-authz-harness/internal/infra"
	"github.com/xela07ax/claims-authz-harness/internal/policy"
)

type PolicyRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewPolicyRepo открывает пул и ждет доступности базы с экспоненциальным бэкоффом.
func NewPolicyRepo(ctx context.Context, cfg infra.DatabaseConfig, logger *zap.Logger) (*PolicyRepo, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("postgres: invalid database url: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to create pool: %w", err)
	}

	attempts := cfg.ConnectRetries
	if attempts == 0 {
		attempts = 1
	}
	log := logger.Named("policy-repo")

	r := retry.New(
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.DelayType(retry.BackOffDelay),
	)
	err = r.Do(func() error {
		pingCtx, cancel := context.WithTimeout(ctx, connectTimeout(cfg))
		defer cancel()

		if pingErr := pool.Ping(pingCtx); pingErr != nil {
			log.Warn("database unreachable, retrying", zap.Error(pingErr))
			return pingErr
		}
		return nil
	})
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: database unreachable: %w", err)
	}

	return &PolicyRepo{pool: pool, logger: log}, nil
}

func connectTimeout(cfg infra.DatabaseConfig) time.Duration {
	if cfg.ConnectTimeout > 0 {
		return cfg.ConnectTimeout
	}
	return 5 * time.Second
}

// LoadDefinitions читает все политики. Требования хранятся в JSONB:
// [{"kind":"claim_equals","type":"role","value":"Admin"}]
func (r *PolicyRepo) LoadDefinitions(ctx context.Context) ([]policy.Definition, error) {
	query := `SELECT name, requirements FROM policies ORDER BY name`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to query policies: %w", err)
	}
	defer rows.Close()

	var results []policy.Definition
	for rows.Next() {
		var (
			name string
			raw  []byte
		)
		if err := rows.Scan(&name, &raw); err != nil {
			return nil, fmt.Errorf("postgres: failed to scan policy: %w", err)
		}
		def, err := decodeDefinition(name, raw)
		if err != nil {
			return nil, err
		}
		results = append(results, def)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: failed to read policies: %w", err)
	}

	r.logger.Info("policies loaded", zap.Int("count", len(results)))
	return results, nil
}

func decodeDefinition(name string, raw []byte) (policy.Definition, error) {
	def := policy.Definition{Name: name}
	if len(raw) == 0 {
		return def, nil
	}
	if err := json.Unmarshal(raw, &def.Requirements); err != nil {
		return policy.Definition{}, fmt.Errorf("postgres: policy %q has malformed requirements: %w", name, err)
	}
	return def, nil
}

func (r *PolicyRepo) Close() {
	r.pool.Close()
}
