package engine

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/rushteam/hybridrec/config"
	"github.com/rushteam/hybridrec/core"
	"github.com/rushteam/hybridrec/pipeline"
	"github.com/rushteam/hybridrec/rank"
	"github.com/rushteam/hybridrec/signal"
)

// Option 配置 Engine。
type Option func(*options)

type options struct {
	logger        zerolog.Logger
	weights       rank.Weights
	timeout       time.Duration
	maxConcurrent int
	defaultLimit  int
	now           func() time.Time
	neighborhood  signal.NeighborhoodProvider
	rules         []signal.Rule
	pipeline      *pipeline.Pipeline
	signalConfig  core.SignalConfig

	collaborativeThreshold float64
	contentThreshold       float64
	priceReasonDiff        float64
}

func defaultOptions() *options {
	return &options{
		logger:       zerolog.Nop(),
		now:          time.Now,
		signalConfig: &core.DefaultSignalConfig{},
	}
}

// WithLogger 设置日志，引擎会派生 component=hybridrec 的子 logger。
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithWeights 覆盖信号权重，未出现的信号权重为 0。
func WithWeights(w rank.Weights) Option {
	return func(o *options) {
		if w != nil {
			o.weights = w.Clone()
		}
	}
}

// WithTimeout 设置单个信号的超时时间。
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// WithMaxConcurrent 限制信号并发数，0 表示不限制。
func WithMaxConcurrent(n int) Option {
	return func(o *options) { o.maxConcurrent = n }
}

// WithDefaultLimit 设置请求未指定数量时的返回条数。
func WithDefaultLimit(n int) Option {
	return func(o *options) { o.defaultLimit = n }
}

// WithClock 注入时钟。请求未携带时间时用它决定情境规则的时间。
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithNeighborhood 替换协同信号的相似用户查找策略。
func WithNeighborhood(n signal.NeighborhoodProvider) Option {
	return func(o *options) { o.neighborhood = n }
}

// WithRules 替换情境规则表。
func WithRules(rules []signal.Rule) Option {
	return func(o *options) { o.rules = rules }
}

// WithPipeline 替换排序流水线。
func WithPipeline(p *pipeline.Pipeline) Option {
	return func(o *options) { o.pipeline = p }
}

// WithSignalConfig 设置信号默认值来源。
func WithSignalConfig(c core.SignalConfig) Option {
	return func(o *options) {
		if c != nil {
			o.signalConfig = c
		}
	}
}

// WithConfig 从配置文件应用权重、超时、阈值与默认值。
func WithConfig(cfg *config.Config) Option {
	return func(o *options) {
		if cfg == nil {
			return
		}
		o.weights = cfg.CombinerWeights()
		o.timeout = cfg.Engine.SignalTimeout
		o.maxConcurrent = cfg.Engine.MaxConcurrent
		o.defaultLimit = cfg.Engine.DefaultLimit
		o.signalConfig = cfg
		o.collaborativeThreshold = cfg.Signals.CollaborativeThreshold
		o.contentThreshold = cfg.Signals.ContentThreshold
		o.priceReasonDiff = cfg.Signals.PriceReasonDiff
	}
}
