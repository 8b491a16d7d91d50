package rerank

import (
	"context"

	"github.com/rushteam/hybridrec/core"
	"github.com/rushteam/hybridrec/pipeline"
)

// DefaultLimit 是推荐结果的默认数量。
const DefaultLimit = 10

// TopNNode 是一个 Top-N 截断节点，用于在排序后截取前 N 个物品。
//
// N <= 0 时使用请求上的 rctx.Limit；两者都未设置时使用 DefaultLimit。
//
// 示例：
//
//	p := &pipeline.Pipeline{
//	    Nodes: []pipeline.Node{
//	        filter.NewInCartNode(),
//	        &rerank.SortNode{},
//	        &rerank.ClassifyNode{},
//	        &rerank.TopNNode{},
//	    },
//	}
type TopNNode struct {
	// N 要保留的物品数量（Top N）
	N int
}

func (n *TopNNode) Name() string {
	return "rerank.topn"
}

func (n *TopNNode) Kind() pipeline.Kind {
	return pipeline.KindReRank
}

func (n *TopNNode) Process(
	_ context.Context,
	rctx *core.RecommendContext,
	items []*core.Recommendation,
) ([]*core.Recommendation, error) {
	limit := n.N
	if limit <= 0 && rctx != nil {
		limit = rctx.Limit
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if len(items) <= limit {
		return items, nil
	}
	return items[:limit], nil
}
