// Package builders 注册内置的排序流水线节点，供配置驱动使用。
package builders

import (
	"github.com/rushteam/hybridrec/config"
	"github.com/rushteam/hybridrec/filter"
	"github.com/rushteam/hybridrec/pipeline"
	"github.com/rushteam/hybridrec/pkg/conv"
	"github.com/rushteam/hybridrec/rerank"
)

func init() {
	config.Register("filter.in_cart", BuildInCartNode)
	config.Register("filter.blacklist", BuildBlacklistNode)
	config.Register("filter.min_score", BuildMinScoreNode)
	config.Register("rerank.sort", BuildSortNode)
	config.Register("rerank.classify", BuildClassifyNode)
	config.Register("rerank.diversity", BuildDiversityNode)
	config.Register("rerank.topn", BuildTopNNode)
}

func BuildInCartNode(map[string]any) (pipeline.Node, error) {
	return filter.NewInCartNode(), nil
}

func BuildBlacklistNode(cfg map[string]any) (pipeline.Node, error) {
	ids := conv.SliceAnyToString(cfg["item_ids"])
	return &filter.FilterNode{Filters: []filter.Filter{filter.NewBlacklistFilter(ids)}}, nil
}

func BuildMinScoreNode(cfg map[string]any) (pipeline.Node, error) {
	return &filter.FilterNode{Filters: []filter.Filter{
		&filter.MinScoreFilter{Min: conv.ConfigGetFloat64(cfg, "min", 0)},
	}}, nil
}

func BuildSortNode(map[string]any) (pipeline.Node, error) {
	return &rerank.SortNode{}, nil
}

func BuildClassifyNode(cfg map[string]any) (pipeline.Node, error) {
	return &rerank.ClassifyNode{
		HighThreshold:   conv.ConfigGetFloat64(cfg, "high", 0),
		MediumThreshold: conv.ConfigGetFloat64(cfg, "medium", 0),
	}, nil
}

func BuildDiversityNode(cfg map[string]any) (pipeline.Node, error) {
	return &rerank.Diversity{MaxPerCategory: int(conv.ConfigGetInt64(cfg, "max_per_category", 0))}, nil
}

func BuildTopNNode(cfg map[string]any) (pipeline.Node, error) {
	return &rerank.TopNNode{N: int(conv.ConfigGetInt64(cfg, "n", 0))}, nil
}
