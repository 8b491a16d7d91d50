package rerank

import (
	"context"
	"strings"

	"github.com/rushteam/hybridrec/core"
	"github.com/rushteam/hybridrec/pipeline"
)

// Diversity 是一个简单的多样性 ReRank：限制同一菜品类目最多出现 MaxPerCategory 次。
// 按输入顺序保留每个类目的前 MaxPerCategory 个，超出的直接丢弃，其余物品相对顺序不变。
// 放在 rerank.sort 之后使用时保留的是各类目分数最高的物品。
// 类目取 Item.Category（小写），空类目不受限制。
type Diversity struct {
	MaxPerCategory int // 默认 2
}

func (n *Diversity) Name() string {
	return "rerank.diversity"
}

func (n *Diversity) Kind() pipeline.Kind {
	return pipeline.KindReRank
}

func (n *Diversity) Process(
	_ context.Context,
	_ *core.RecommendContext,
	items []*core.Recommendation,
) ([]*core.Recommendation, error) {
	if len(items) == 0 {
		return items, nil
	}

	limit := n.MaxPerCategory
	if limit <= 0 {
		limit = 2
	}

	seen := make(map[string]int, 16)
	out := make([]*core.Recommendation, 0, len(items))

	for _, it := range items {
		if it == nil {
			continue
		}
		cate := strings.ToLower(strings.TrimSpace(it.Item.Category))
		if cate == "" {
			out = append(out, it)
			continue
		}
		if seen[cate] >= limit {
			continue
		}
		seen[cate]++
		out = append(out, it)
	}
	return out, nil
}
