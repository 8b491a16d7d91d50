package pipeline

import (
	"context"
	"fmt"

	"github.com/rushteam/hybridrec/core"
)

// Pipeline 把合并后的推荐结果依次交给 Node 链处理。
type Pipeline struct {
	Nodes []Node
}

func (p *Pipeline) Run(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Recommendation,
) ([]*core.Recommendation, error) {
	cur := items
	for _, node := range p.Nodes {
		if node == nil {
			continue
		}
		next, err := node.Process(ctx, rctx, cur)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", node.Name(), err)
		}
		cur = next
	}
	return cur, nil
}
