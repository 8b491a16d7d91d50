package filter

import (
	"context"

	"github.com/rushteam/hybridrec/core"
)

// BlacklistFilter 是黑名单过滤器，过滤掉黑名单中的物品（例如商家临时下架、售罄）。
type BlacklistFilter struct {
	ids map[string]struct{}
}

// NewBlacklistFilter 创建一个黑名单过滤器。
func NewBlacklistFilter(itemIDs []string) *BlacklistFilter {
	ids := make(map[string]struct{}, len(itemIDs))
	for _, id := range itemIDs {
		if id != "" {
			ids[id] = struct{}{}
		}
	}
	return &BlacklistFilter{ids: ids}
}

func (f *BlacklistFilter) Name() string {
	return "filter.blacklist"
}

func (f *BlacklistFilter) ShouldFilter(
	_ context.Context,
	_ *core.RecommendContext,
	item *core.Recommendation,
) (bool, error) {
	if item == nil {
		return true, nil
	}
	_, ok := f.ids[item.ItemID]
	return ok, nil
}

// MinScoreFilter 过滤掉综合分不高于 Min 的物品。
type MinScoreFilter struct {
	Min float64
}

func (f *MinScoreFilter) Name() string {
	return "filter.min_score"
}

func (f *MinScoreFilter) ShouldFilter(
	_ context.Context,
	_ *core.RecommendContext,
	item *core.Recommendation,
) (bool, error) {
	if item == nil {
		return true, nil
	}
	return item.FinalScore <= f.Min, nil
}
