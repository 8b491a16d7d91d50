package rerank

import (
	"context"

	"github.com/rushteam/hybridrec/core"
	"github.com/rushteam/hybridrec/pipeline"
)

// 展示强度分档阈值（FinalScore）。
const (
	DefaultHighUrgency   = 80.0
	DefaultMediumUrgency = 60.0
)

// categoryPriority 决定推荐类别：按顺序取第一个参与打分的信号。
var categoryPriority = []struct {
	algorithm string
	category  core.RecommendationCategory
}{
	{core.AlgorithmTrending, core.CategoryTrending},
	{core.AlgorithmContextual, core.CategorySeasonal},
	{core.AlgorithmContent, core.CategorySimilar},
	{core.AlgorithmCollaborative, core.CategoryComplementary},
}

// ClassifyNode 给推荐打上类别、展示强度，并对理由去重。
type ClassifyNode struct {
	// HighThreshold FinalScore 大于该值为 high，<= 0 时使用 DefaultHighUrgency
	HighThreshold float64

	// MediumThreshold FinalScore 大于该值为 medium，<= 0 时使用 DefaultMediumUrgency
	MediumThreshold float64
}

func (n *ClassifyNode) Name() string {
	return "rerank.classify"
}

func (n *ClassifyNode) Kind() pipeline.Kind {
	return pipeline.KindPostProcess
}

func (n *ClassifyNode) Process(
	_ context.Context,
	_ *core.RecommendContext,
	items []*core.Recommendation,
) ([]*core.Recommendation, error) {
	high, medium := n.HighThreshold, n.MediumThreshold
	if high <= 0 {
		high = DefaultHighUrgency
	}
	if medium <= 0 {
		medium = DefaultMediumUrgency
	}
	for _, it := range items {
		if it == nil {
			continue
		}
		it.Category = Classify(it.Algorithms)
		it.Urgency = UrgencyFor(it.FinalScore, high, medium)
		it.Reasons = DedupeReasons(it.Reasons)
	}
	return items, nil
}

// Classify 根据参与打分的信号决定推荐类别。
func Classify(algorithms []string) core.RecommendationCategory {
	for _, p := range categoryPriority {
		for _, a := range algorithms {
			if a == p.algorithm {
				return p.category
			}
		}
	}
	return core.CategoryPersonalized
}

// UrgencyFor 把分数映射到展示强度：> high 为 high，> medium 为 medium，否则 low。
func UrgencyFor(score, high, medium float64) core.Urgency {
	switch {
	case score > high:
		return core.UrgencyHigh
	case score > medium:
		return core.UrgencyMedium
	default:
		return core.UrgencyLow
	}
}

// DedupeReasons 按首次出现顺序去重（大小写敏感），并去掉空串。
func DedupeReasons(reasons []string) []string {
	if len(reasons) == 0 {
		return []string{}
	}
	seen := make(map[string]struct{}, len(reasons))
	out := make([]string, 0, len(reasons))
	for _, r := range reasons {
		if r == "" {
			continue
		}
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	return out
}
