// Package config 加载引擎配置，并提供配置驱动的排序流水线节点注册表。
//
// 配置分三层加载，后者覆盖前者：
//  1. 结构体默认值（Default）
//  2. 可选的 YAML 文件
//  3. 环境变量，前缀 HYBRIDREC_，第一个下划线分隔配置段：
//     HYBRIDREC_ENGINE_SIGNAL_TIMEOUT=5s     -> engine.signal_timeout
//     HYBRIDREC_WEIGHTS_EXTERNAL=0.3         -> weights.external
//     HYBRIDREC_ADVISORY_ENDPOINT=http://... -> advisory.endpoint
//
// YAML 示例：
//
//	engine:
//	  signal_timeout: 3s
//	  default_limit: 10
//	  rules_file: rules.yaml
//	weights:
//	  collaborative: 0.25
//	  content: 0.20
//	  contextual: 0.15
//	  trending: 0.15
//	  external: 0.25
//	store:
//	  backend: redis
//	  redis_addr: localhost:6379
package config

import (
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/rushteam/hybridrec/core"
	"github.com/rushteam/hybridrec/rank"
)

const (
	// EnvPrefix 环境变量前缀
	EnvPrefix = "HYBRIDREC_"

	// PathEnvVar 未显式传入路径时，从该环境变量读取配置文件路径
	PathEnvVar = "HYBRIDREC_CONFIG"

	// weightSumTolerance 权重和允许的浮点误差
	weightSumTolerance = 1e-6
)

// 存储后端
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
)

// Config 是引擎的完整配置。
type Config struct {
	Engine   EngineConfig   `koanf:"engine"`
	Weights  WeightsConfig  `koanf:"weights"`
	Signals  SignalsConfig  `koanf:"signals"`
	Store    StoreConfig    `koanf:"store"`
	Advisory AdvisoryConfig `koanf:"advisory"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// EngineConfig 引擎级配置。
type EngineConfig struct {
	// SignalTimeout 单个信号的超时时间
	SignalTimeout time.Duration `koanf:"signal_timeout" validate:"gt=0"`

	// DefaultLimit 请求未指定数量时返回的推荐条数
	DefaultLimit int `koanf:"default_limit" validate:"gte=1,lte=100"`

	// MaxConcurrent 信号最大并发数，0 表示不限制
	MaxConcurrent int `koanf:"max_concurrent" validate:"gte=0"`

	// RulesFile 情境规则表（YAML），为空时使用内置规则
	RulesFile string `koanf:"rules_file"`

	// PipelineFile 排序流水线配置（YAML），为空时使用默认流水线
	PipelineFile string `koanf:"pipeline_file"`
}

// WeightsConfig 各信号权重，总和需在 (0, 1] 内。
type WeightsConfig struct {
	Collaborative float64 `koanf:"collaborative" validate:"gte=0,lte=1"`
	Content       float64 `koanf:"content" validate:"gte=0,lte=1"`
	Contextual    float64 `koanf:"contextual" validate:"gte=0,lte=1"`
	Trending      float64 `koanf:"trending" validate:"gte=0,lte=1"`
	External      float64 `koanf:"external" validate:"gte=0,lte=1"`
}

// SignalsConfig 各信号的阈值与窗口。
type SignalsConfig struct {
	ComparisonPoolSize     int           `koanf:"comparison_pool_size" validate:"gte=1"`
	MaxSimilarUsers        int           `koanf:"max_similar_users" validate:"gte=1"`
	UserHistoryLimit       int           `koanf:"user_history_limit" validate:"gte=1"`
	CollaborativeThreshold float64       `koanf:"collaborative_threshold" validate:"gt=0,lt=1"`
	ContentThreshold       float64       `koanf:"content_threshold" validate:"gt=0,lt=1"`
	PriceReasonDiff        float64       `koanf:"price_reason_diff" validate:"gt=0"`
	TrendingWindow         time.Duration `koanf:"trending_window" validate:"gt=0"`
	TrendingTopN           int           `koanf:"trending_top_n" validate:"gte=1"`
}

// StoreConfig 订单历史存储配置。
type StoreConfig struct {
	Backend     string `koanf:"backend" validate:"oneof=memory redis postgres sqlite"`
	DSN         string `koanf:"dsn" validate:"required_if=Backend postgres,required_if=Backend sqlite"`
	RedisAddr   string `koanf:"redis_addr" validate:"required_if=Backend redis"`
	RedisDB     int    `koanf:"redis_db" validate:"gte=0"`
	RedisPrefix string `koanf:"redis_prefix"`
}

// AdvisoryConfig 外部建议服务配置。Enabled 为 false 时外部建议信号不启用。
type AdvisoryConfig struct {
	Enabled          bool          `koanf:"enabled"`
	Endpoint         string        `koanf:"endpoint" validate:"omitempty,url"`
	Timeout          time.Duration `koanf:"timeout" validate:"gte=0"`
	RatePerSecond    float64       `koanf:"rate_per_second" validate:"gte=0"`
	Burst            int           `koanf:"burst" validate:"gte=0"`
	FailureThreshold uint32        `koanf:"failure_threshold"`
	OpenTimeout      time.Duration `koanf:"open_timeout" validate:"gte=0"`
}

// LoggingConfig 日志配置。
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error"`
	Format string `koanf:"format" validate:"oneof=json console"`
}

// Default 返回默认配置。
func Default() *Config {
	d := &core.DefaultSignalConfig{}
	w := rank.DefaultWeights()
	return &Config{
		Engine: EngineConfig{
			SignalTimeout: d.DefaultTimeout(),
			DefaultLimit:  d.DefaultLimit(),
		},
		Weights: WeightsConfig{
			Collaborative: w[core.AlgorithmCollaborative],
			Content:       w[core.AlgorithmContent],
			Contextual:    w[core.AlgorithmContextual],
			Trending:      w[core.AlgorithmTrending],
			External:      w[core.AlgorithmExternal],
		},
		Signals: SignalsConfig{
			ComparisonPoolSize:     d.DefaultComparisonPoolSize(),
			MaxSimilarUsers:        d.DefaultMaxSimilarUsers(),
			UserHistoryLimit:       d.DefaultUserHistoryLimit(),
			CollaborativeThreshold: 0.3,
			ContentThreshold:       0.6,
			PriceReasonDiff:        20,
			TrendingWindow:         d.DefaultTrendingWindow(),
			TrendingTopN:           d.DefaultTrendingTopN(),
		},
		Store: StoreConfig{
			Backend:     BackendMemory,
			RedisPrefix: "hybridrec",
		},
		Advisory: AdvisoryConfig{
			Timeout:          2 * time.Second,
			FailureThreshold: 5,
			OpenTimeout:      30 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load 按 默认值 -> YAML 文件 -> 环境变量 的顺序加载并校验配置。
// path 为空时读取 HYBRIDREC_CONFIG；两者都为空时不加载文件。
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, configError("load defaults", err)
	}

	if path == "" {
		path = os.Getenv(PathEnvVar)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, configError(fmt.Sprintf("load config file %s", path), err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, configError("load environment", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, configError("unmarshal", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// envKey 把 HYBRIDREC_ENGINE_SIGNAL_TIMEOUT 转为 engine.signal_timeout。
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	section, rest, ok := strings.Cut(s, "_")
	if !ok {
		return s
	}
	return section + "." + rest
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate 校验字段取值与权重和。
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return configError("invalid configuration", err)
	}
	if c.Advisory.Enabled && c.Advisory.Endpoint == "" {
		return core.NewDomainError(core.ModuleConfig, core.ErrorCodeInvalidInput,
			"config: advisory.endpoint is required when advisory is enabled")
	}
	sum := c.Weights.Collaborative + c.Weights.Content + c.Weights.Contextual +
		c.Weights.Trending + c.Weights.External
	if sum <= 0 || sum > 1+weightSumTolerance || math.IsNaN(sum) {
		return core.NewDomainError(core.ModuleConfig, core.ErrorCodeInvalidInput,
			fmt.Sprintf("config: weights must sum to (0, 1], got %.4f", sum))
	}
	return nil
}

// CombinerWeights 转为合并器使用的权重表。
func (c *Config) CombinerWeights() rank.Weights {
	return rank.Weights{
		core.AlgorithmCollaborative: c.Weights.Collaborative,
		core.AlgorithmContent:       c.Weights.Content,
		core.AlgorithmContextual:    c.Weights.Contextual,
		core.AlgorithmTrending:      c.Weights.Trending,
		core.AlgorithmExternal:      c.Weights.External,
	}
}

func configError(msg string, err error) error {
	return core.WrapDomainError(core.ModuleConfig, core.ErrorCodeInvalidInput, "config: "+msg, err)
}

// DefaultComparisonPoolSize 返回 signals.comparison_pool_size，实现 core.SignalConfig。
func (c *Config) DefaultComparisonPoolSize() int { return c.Signals.ComparisonPoolSize }

// DefaultMaxSimilarUsers 返回 signals.max_similar_users。
func (c *Config) DefaultMaxSimilarUsers() int { return c.Signals.MaxSimilarUsers }

// DefaultUserHistoryLimit 返回 signals.user_history_limit。
func (c *Config) DefaultUserHistoryLimit() int { return c.Signals.UserHistoryLimit }

// DefaultTrendingWindow 返回 signals.trending_window。
func (c *Config) DefaultTrendingWindow() time.Duration { return c.Signals.TrendingWindow }

// DefaultTrendingTopN 返回 signals.trending_top_n。
func (c *Config) DefaultTrendingTopN() int { return c.Signals.TrendingTopN }

// DefaultTimeout 返回 engine.signal_timeout。
func (c *Config) DefaultTimeout() time.Duration { return c.Engine.SignalTimeout }

// DefaultLimit 返回 engine.default_limit。
func (c *Config) DefaultLimit() int { return c.Engine.DefaultLimit }

var _ core.SignalConfig = (*Config)(nil)
