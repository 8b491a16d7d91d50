package rerank

import (
	"context"

	"github.com/rushteam/hybridrec/core"
	"github.com/rushteam/hybridrec/filter"
	"github.com/rushteam/hybridrec/pipeline"
)

// Ranker 把合并后的分数转成最终推荐列表。
//
// 默认 Pipeline：剔除购物车物品 → 按分数降序 → 分类/分档/理由去重 → 截断。
// 合并分数对应的物品不在候选集中时直接丢弃（没有可返回的物品信息）。
// 无论 Pipeline 如何配置，输出都不含购物车物品，理由已去重，按 FinalScore 降序，且不超过 Limit。
type Ranker struct {
	Pipeline *pipeline.Pipeline
}

// DefaultPipeline 返回默认的排序 Pipeline。
func DefaultPipeline() *pipeline.Pipeline {
	return &pipeline.Pipeline{
		Nodes: []pipeline.Node{
			filter.NewInCartNode(),
			&SortNode{},
			&ClassifyNode{},
			&TopNNode{},
		},
	}
}

// NewRanker 创建 Ranker，p 为 nil 时使用 DefaultPipeline。
func NewRanker(p *pipeline.Pipeline) *Ranker {
	if p == nil {
		p = DefaultPipeline()
	}
	return &Ranker{Pipeline: p}
}

// Rank 生成最终推荐。返回值永不为 nil。
func (r *Ranker) Rank(
	ctx context.Context,
	rctx *core.RecommendContext,
	merged map[string]*core.MergedScore,
) ([]core.Recommendation, error) {
	if rctx == nil || len(merged) == 0 {
		return []core.Recommendation{}, nil
	}

	catalog := core.IndexCatalog(rctx.Candidates)
	items := make([]*core.Recommendation, 0, len(merged))
	for id, m := range merged {
		if m == nil {
			continue
		}
		item, ok := catalog[id]
		if !ok {
			continue
		}
		items = append(items, &core.Recommendation{
			ItemID:     id,
			Item:       item,
			FinalScore: m.CombinedScore,
			Reasons:    append([]string(nil), m.Reasons...),
			Algorithms: append([]string(nil), m.Algorithms...),
			Confidence: m.Confidence,
		})
	}

	p := r.Pipeline
	if p == nil {
		p = DefaultPipeline()
	}
	ranked, err := p.Run(ctx, rctx, items)
	if err != nil {
		return []core.Recommendation{}, err
	}

	limit := rctx.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	// 自定义 Pipeline 可能缺少购物车过滤、排序或理由去重，这里统一兜底
	kept := make([]*core.Recommendation, 0, len(ranked))
	for _, it := range ranked {
		if it == nil || rctx.InCart(it.ItemID) {
			continue
		}
		it.Reasons = DedupeReasons(it.Reasons)
		kept = append(kept, it)
	}
	SortByScore(kept)

	out := make([]core.Recommendation, 0, min(len(kept), limit))
	for _, it := range kept[:min(len(kept), limit)] {
		out = append(out, *it)
	}
	return out, nil
}
