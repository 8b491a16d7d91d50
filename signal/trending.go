package signal

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/rushteam/hybridrec/core"
)

const (
	trendingTopScore  = 100.0
	trendingRankStep  = 15.0
	trendingMinScore  = 40.0
	trendingFullCount = 50.0
)

// Trending 是热门信号：统计商家近一段时间（默认 7 天）内各候选物品的下单量。
//
// 排名第 r（从 0 开始）的物品得分 max(100 - 15r, 40)，
// 置信度 min(下单量/50, 1)。购物车中的物品不参与排名。
type Trending struct {
	Store core.OrderHistoryStore

	// Window 统计窗口，<= 0 时使用默认值 7 天
	Window time.Duration

	// TopN 输出物品数，<= 0 时使用默认值 5
	TopN int

	// Config 提供默认值，nil 时使用 core.DefaultSignalConfig
	Config core.SignalConfig
}

func (s *Trending) Name() string { return core.AlgorithmTrending }

func (s *Trending) Score(ctx context.Context, rctx *core.RecommendContext) ([]core.SignalScore, error) {
	if s.Store == nil || rctx == nil || rctx.MerchantID == "" || len(rctx.Candidates) == 0 {
		return nil, nil
	}

	cfg := s.Config
	if cfg == nil {
		cfg = &core.DefaultSignalConfig{}
	}
	window := s.Window
	if window <= 0 {
		window = cfg.DefaultTrendingWindow()
	}
	topN := s.TopN
	if topN <= 0 {
		topN = cfg.DefaultTrendingTopN()
	}

	since := rctx.Context.Now.Add(-window)
	orders, err := s.Store.FetchRecentMerchantOrders(ctx, rctx.MerchantID, since)
	if err != nil {
		return nil, fmt.Errorf("fetch merchant orders: %w", err)
	}

	candidates := make(map[string]struct{}, len(rctx.Candidates))
	for _, item := range rctx.Candidates {
		if item.ID != "" && !rctx.InCart(item.ID) {
			candidates[item.ID] = struct{}{}
		}
	}

	counts := make(map[string]int)
	for _, o := range orders {
		for _, l := range o.Lines {
			if l.Quantity <= 0 {
				continue
			}
			if _, ok := candidates[l.ItemID]; !ok {
				continue
			}
			counts[l.ItemID] += l.Quantity
		}
	}
	if len(counts) == 0 {
		return nil, nil
	}

	type itemCount struct {
		id  string
		qty int
	}
	ranked := make([]itemCount, 0, len(counts))
	for id, qty := range counts {
		ranked = append(ranked, itemCount{id: id, qty: qty})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].qty != ranked[j].qty {
			return ranked[i].qty > ranked[j].qty
		}
		return ranked[i].id < ranked[j].id
	})
	if len(ranked) > topN {
		ranked = ranked[:topN]
	}

	out := make([]core.SignalScore, 0, len(ranked))
	for rank, rc := range ranked {
		out = append(out, core.SignalScore{
			ItemID:     rc.id,
			RawScore:   math.Max(trendingTopScore-trendingRankStep*float64(rank), trendingMinScore),
			Reasons:    []string{fmt.Sprintf("ordered %d times this week, trend item", rc.qty)},
			Algorithm:  core.AlgorithmTrending,
			Confidence: math.Min(float64(rc.qty)/trendingFullCount, 1),
		})
	}
	return out, nil
}
