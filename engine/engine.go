// Package engine 是推荐引擎的入口：并发执行五个信号，合并打分并输出带解释的推荐列表。
//
//	eng, err := engine.New(store.NewMemoryOrderStore(), advisoryClient,
//	    engine.WithLogger(logger),
//	    engine.WithTimeout(2*time.Second),
//	)
//	recs := eng.GetRecommendations(ctx, core.Request{
//	    UserID:     "u1",
//	    MerchantID: "m1",
//	    Cart:       cart,
//	    Candidates: menu,
//	})
//
// 引擎无状态，可并发调用；推荐结果不缓存。
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/rushteam/hybridrec/core"
	"github.com/rushteam/hybridrec/metrics"
	"github.com/rushteam/hybridrec/rank"
	"github.com/rushteam/hybridrec/rerank"
	"github.com/rushteam/hybridrec/signal"
)

// Engine 是混合推荐引擎。
type Engine struct {
	fanout       *signal.Fanout
	combiner     *rank.Combiner
	ranker       *rerank.Ranker
	logger       zerolog.Logger
	now          func() time.Time
	defaultLimit int
}

// New 创建引擎。store 为 nil 时协同与热门信号输出为空；advisory 为 nil 时外部建议信号输出为空。
func New(store core.OrderHistoryStore, advisory core.AdvisoryService, opts ...Option) (*Engine, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	contextual, err := signal.NewContextual(o.rules)
	if err != nil {
		return nil, fmt.Errorf("contextual rules: %w", err)
	}

	defaultLimit := o.defaultLimit
	if defaultLimit <= 0 {
		defaultLimit = o.signalConfig.DefaultLimit()
	}
	timeout := o.timeout
	if timeout <= 0 {
		timeout = o.signalConfig.DefaultTimeout()
	}

	neighborhood := o.neighborhood
	if neighborhood == nil {
		neighborhood = &signal.LinearScanNeighborhood{Store: store, Config: o.signalConfig}
	}

	// 信号顺序决定理由的拼接顺序
	signals := []signal.Signal{
		&signal.Collaborative{
			Store:        store,
			Neighborhood: neighborhood,
			Threshold:    o.collaborativeThreshold,
			Config:       o.signalConfig,
		},
		&signal.Content{
			Threshold:       o.contentThreshold,
			PriceReasonDiff: o.priceReasonDiff,
		},
		contextual,
		&signal.Trending{Store: store, Config: o.signalConfig},
		&signal.External{Service: advisory},
	}

	return &Engine{
		fanout: &signal.Fanout{
			Signals:       signals,
			Timeout:       timeout,
			MaxConcurrent: o.maxConcurrent,
		},
		combiner:     rank.NewCombiner(o.weights),
		ranker:       rerank.NewRanker(o.pipeline),
		logger:       o.logger.With().Str("component", "hybridrec").Logger(),
		now:          o.now,
		defaultLimit: defaultLimit,
	}, nil
}

// GetRecommendations 返回按综合分降序排列的推荐列表。
//
// 永不返回错误：信号失败会降级为空，最坏情况下返回空列表（非 nil）。
// 购物车中的物品不会出现在结果中；输入不会被修改。
func (e *Engine) GetRecommendations(ctx context.Context, req core.Request) (recs []core.Recommendation) {
	start := time.Now()
	requestID := uuid.NewString()
	if req.Limit <= 0 {
		req.Limit = e.defaultLimit
	}

	logger := e.logger.With().
		Str("request_id", requestID).
		Str("user_id", req.UserID).
		Str("merchant_id", req.MerchantID).
		Logger()
	ctx = logger.WithContext(ctx)

	defer func() {
		if r := recover(); r != nil {
			logger.Error().Interface("panic", r).Msg("recommendation panicked")
			recs = []core.Recommendation{}
		}
		metrics.RecordRecommendations(len(recs), time.Since(start))
	}()

	if len(req.Candidates) == 0 {
		logger.Debug().Msg("no candidates")
		return []core.Recommendation{}
	}

	rctx := core.NewRecommendContext(requestID, req, e.now())
	scores := e.fanout.Run(ctx, rctx)
	merged := e.combiner.Combine(scores)

	recs, err := e.ranker.Rank(ctx, rctx, merged)
	if err != nil {
		logger.Warn().Err(err).Msg("rank failed")
		return []core.Recommendation{}
	}

	logger.Debug().
		Int("cart", len(req.Cart)).
		Int("candidates", len(req.Candidates)).
		Int("scores", len(scores)).
		Int("merged", len(merged)).
		Int("returned", len(recs)).
		Dur("latency", time.Since(start)).
		Msg("recommendations ready")
	return recs
}
