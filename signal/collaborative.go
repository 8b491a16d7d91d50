package signal

import (
	"context"
	"fmt"
	"math"

	"github.com/rushteam/hybridrec/core"
)

// DefaultCollaborativeThreshold 是协同信号的最低购买占比（不含）。
const DefaultCollaborativeThreshold = 0.3

// Collaborative 是基于用户的协同信号（User-CF 的在线简化版）。
//
// 核心思想："买过相同东西的用户，也会买相似的东西"
//
// 算法流程：
//  1. 读取目标用户历史订单，构建行为画像
//  2. 通过 NeighborhoodProvider 找到相似用户
//  3. 对每个候选物品，统计相似用户中买过它的占比
//  4. 占比 > Threshold 时输出：RawScore = 占比×100，Confidence = 占比
//
// 没有历史、没有相似用户都是正常状态，返回空结果。
type Collaborative struct {
	Store core.OrderHistoryStore

	// Neighborhood 相似用户查找策略，nil 时使用 LinearScanNeighborhood
	Neighborhood NeighborhoodProvider

	// HistoryLimit 读取用户历史订单条数，<= 0 时使用默认值 50
	HistoryLimit int

	// Threshold 最低购买占比，<= 0 时使用 DefaultCollaborativeThreshold
	Threshold float64

	// Config 提供默认值，nil 时使用 core.DefaultSignalConfig
	Config core.SignalConfig
}

func (s *Collaborative) Name() string { return core.AlgorithmCollaborative }

func (s *Collaborative) Score(ctx context.Context, rctx *core.RecommendContext) ([]core.SignalScore, error) {
	if s.Store == nil || rctx == nil || rctx.UserID == "" || len(rctx.Candidates) == 0 {
		return nil, nil
	}

	cfg := s.Config
	if cfg == nil {
		cfg = &core.DefaultSignalConfig{}
	}
	limit := s.HistoryLimit
	if limit <= 0 {
		limit = cfg.DefaultUserHistoryLimit()
	}
	threshold := s.Threshold
	if threshold <= 0 {
		threshold = DefaultCollaborativeThreshold
	}

	orders, err := s.Store.FetchUserOrderHistory(ctx, rctx.UserID, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch user history: %w", err)
	}
	profile := rctx.NewProfile(orders)
	purchased := profile.PurchasedItems()
	if len(purchased) == 0 {
		return nil, nil
	}

	neighborhood := s.Neighborhood
	if neighborhood == nil {
		neighborhood = &LinearScanNeighborhood{Store: s.Store, Config: cfg}
	}
	similar, err := neighborhood.SimilarUsers(ctx, rctx.UserID, purchased)
	if err != nil {
		return nil, fmt.Errorf("similar users: %w", err)
	}
	if len(similar) == 0 {
		return nil, nil
	}

	neighborItems := make([]map[string]struct{}, 0, len(similar))
	for _, h := range similar {
		neighborItems = append(neighborItems, h.PurchasedItems())
	}

	out := make([]core.SignalScore, 0)
	seen := make(map[string]struct{}, len(rctx.Candidates))
	for _, item := range rctx.Candidates {
		if item.ID == "" || rctx.InCart(item.ID) {
			continue
		}
		if _, dup := seen[item.ID]; dup {
			continue
		}
		seen[item.ID] = struct{}{}

		buyers := 0
		for _, items := range neighborItems {
			if _, ok := items[item.ID]; ok {
				buyers++
			}
		}
		fraction := float64(buyers) / float64(len(similar))
		if fraction <= threshold {
			continue
		}
		out = append(out, core.SignalScore{
			ItemID:     item.ID,
			RawScore:   fraction * 100,
			Reasons:    []string{fmt.Sprintf("%d%% of similar users bought this.", int(math.Round(fraction*100)))},
			Algorithm:  core.AlgorithmCollaborative,
			Confidence: fraction,
		})
	}
	return out, nil
}
