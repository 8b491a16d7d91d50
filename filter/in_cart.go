package filter

import (
	"context"

	"github.com/rushteam/hybridrec/core"
)

// InCart 过滤掉已在购物车中的物品。
type InCart struct{}

func (f *InCart) Name() string {
	return "filter.in_cart"
}

func (f *InCart) ShouldFilter(
	_ context.Context,
	rctx *core.RecommendContext,
	item *core.Recommendation,
) (bool, error) {
	if item == nil {
		return true, nil
	}
	if rctx == nil {
		return false, nil
	}
	return rctx.InCart(item.ItemID), nil
}

// NewInCartNode 返回只包含购物车过滤器的 FilterNode。
func NewInCartNode() *FilterNode {
	return &FilterNode{Filters: []Filter{&InCart{}}}
}
