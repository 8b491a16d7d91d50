package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/rushteam/hybridrec/advisory"
	"github.com/rushteam/hybridrec/config"
	_ "github.com/rushteam/hybridrec/config/builders" // 注册内置排序节点
	"github.com/rushteam/hybridrec/core"
	"github.com/rushteam/hybridrec/signal"
	"github.com/rushteam/hybridrec/store"
)

// Closer 释放 FromConfig 打开的外部资源（Redis 连接、数据库连接池）。
type Closer func() error

// FromConfig 按配置装配引擎：订单存储、外部建议客户端、情境规则表与排序流水线。
// 返回的 Closer 永不为 nil。
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func FromConfig(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*Engine, Closer, error) {
	noop := func() error { return nil }
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, noop, err
	}

	historyStore, closeStore, err := OpenStore(ctx, cfg.Store)
	if err != nil {
		return nil, noop, err
	}

	opts := []Option{WithConfig(cfg), WithLogger(logger)}

	var advisor core.AdvisoryService
	if cfg.Advisory.Enabled {
		client, err := advisory.New(advisory.Config{
			Endpoint:         cfg.Advisory.Endpoint,
			Timeout:          cfg.Advisory.Timeout,
			RatePerSecond:    cfg.Advisory.RatePerSecond,
			Burst:            cfg.Advisory.Burst,
			FailureThreshold: cfg.Advisory.FailureThreshold,
			OpenTimeout:      cfg.Advisory.OpenTimeout,
		}, advisory.WithLogger(logger))
		if err != nil {
			return nil, noop, errors.Join(err, closeStore())
		}
		advisor = client
	}

	if cfg.Engine.RulesFile != "" {
		rules, err := signal.LoadRulesFile(cfg.Engine.RulesFile)
		if err != nil {
			return nil, noop, errors.Join(err, closeStore())
		}
		opts = append(opts, WithRules(rules))
	}
	if cfg.Engine.PipelineFile != "" {
		p, err := config.LoadPipeline(cfg.Engine.PipelineFile)
		if err != nil {
			return nil, noop, errors.Join(err, closeStore())
		}
		opts = append(opts, WithPipeline(p))
	}

	eng, err := New(historyStore, advisor, opts...)
	if err != nil {
		return nil, noop, errors.Join(err, closeStore())
	}
	return eng, closeStore, nil
}

// OpenStore 按配置打开订单存储。SQL 后端会自动建表。
func OpenStore(ctx context.Context, cfg config.StoreConfig) (core.OrderHistoryStore, Closer, error) {
	noop := func() error { return nil }
	switch cfg.Backend {
	case "", config.BackendMemory:
		return store.NewMemoryOrderStore(), noop, nil
	case config.BackendRedis:
		s, err := store.NewRedisOrderStore(ctx, cfg.RedisAddr, cfg.RedisDB, cfg.RedisPrefix)
		if err != nil {
			return nil, noop, err
		}
		return s, s.Close, nil
	case config.BackendPostgres, config.BackendSQLite:
		s, err := store.OpenSQLOrderStore(ctx, store.Dialect(cfg.Backend), cfg.DSN)
		if err != nil {
			return nil, noop, err
		}
		if err := s.EnsureSchema(ctx); err != nil {
			return nil, noop, errors.Join(err, s.Close())
		}
		return s, s.Close, nil
	default:
		return nil, noop, core.NewDomainError(core.ModuleConfig, core.ErrorCodeInvalidInput,
			fmt.Sprintf("unknown store backend %q", cfg.Backend))
	}
}
