package filter

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/rushteam/hybridrec/core"
	"github.com/rushteam/hybridrec/pipeline"
)

// FilterNode 是过滤 Node，可以组合多个过滤器进行过滤。
// 如果任何一个过滤器返回 true，该物品就会被过滤掉。
type FilterNode struct {
	Filters []Filter
}

func (n *FilterNode) Name() string {
	return "filter.node"
}

func (n *FilterNode) Kind() pipeline.Kind {
	return pipeline.KindFilter
}

func (n *FilterNode) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Recommendation,
) ([]*core.Recommendation, error) {
	if len(n.Filters) == 0 || len(items) == 0 {
		return items, nil
	}

	logger := zerolog.Ctx(ctx)
	out := make([]*core.Recommendation, 0, len(items))
	filtered := 0

	for _, item := range items {
		if item == nil {
			continue
		}

		shouldFilter := false
		for _, f := range n.Filters {
			ok, err := f.ShouldFilter(ctx, rctx, item)
			if err != nil {
				// 过滤器错误时记录但不中断流程
				logger.Debug().Err(err).Str("filter", f.Name()).Str("item_id", item.ItemID).Msg("filter failed")
				continue
			}
			if ok {
				shouldFilter = true
				break
			}
		}

		if shouldFilter {
			filtered++
			continue
		}
		out = append(out, item)
	}

	if filtered > 0 {
		logger.Debug().Int("filtered", filtered).Int("kept", len(out)).Msg("filter node applied")
	}
	return out, nil
}
