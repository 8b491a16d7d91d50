package rerank

import (
	"context"
	"sort"

	"github.com/rushteam/hybridrec/core"
	"github.com/rushteam/hybridrec/pipeline"
)

// SortNode 按 FinalScore 降序排序，分数相同时按 ItemID 升序，保证结果确定。
type SortNode struct{}

func (n *SortNode) Name() string {
	return "rerank.sort"
}

func (n *SortNode) Kind() pipeline.Kind {
	return pipeline.KindRank
}

func (n *SortNode) Process(
	_ context.Context,
	_ *core.RecommendContext,
	items []*core.Recommendation,
) ([]*core.Recommendation, error) {
	out := make([]*core.Recommendation, 0, len(items))
	for _, it := range items {
		if it != nil {
			out = append(out, it)
		}
	}
	SortByScore(out)
	return out, nil
}

// SortByScore 原地排序：FinalScore 降序，分数相同时按 ItemID 升序。items 不能含 nil。
func SortByScore(items []*core.Recommendation) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].FinalScore != items[j].FinalScore {
			return items[i].FinalScore > items[j].FinalScore
		}
		return items[i].ItemID < items[j].ItemID
	})
}
