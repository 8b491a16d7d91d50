package rank

import (
	"math"

	"github.com/rushteam/hybridrec/core"
)

// Weights 是各信号在综合分中的权重，key 为 core.AlgorithmXxx。
type Weights map[string]float64

// DefaultWeights 返回默认权重：协同 0.25、内容 0.20、情境 0.15、热门 0.15、外部建议 0.25。
func DefaultWeights() Weights {
	return Weights{
		core.AlgorithmCollaborative: 0.25,
		core.AlgorithmContent:       0.20,
		core.AlgorithmContextual:    0.15,
		core.AlgorithmTrending:      0.15,
		core.AlgorithmExternal:      0.25,
	}
}

// Clone 返回权重副本。
func (w Weights) Clone() Weights {
	out := make(Weights, len(w))
	for k, v := range w {
		out[k] = v
	}
	return out
}

// Combiner 把各信号的打分按权重合并为每个物品一条 MergedScore。
//
// 合并规则：
//   - CombinedScore += weight × RawScore（权重与分数都截断为非负，保证单调不减）
//   - Reasons、Algorithms 按到达顺序追加（Algorithms 去重）
//   - Confidence 取最大值
//
// 未配置权重的信号权重为 0：只贡献理由，不贡献分数。
type Combiner struct {
	Weights Weights
}

// NewCombiner 创建合并器，w 为 nil 时使用 DefaultWeights。
func NewCombiner(w Weights) *Combiner {
	if w == nil {
		w = DefaultWeights()
	}
	return &Combiner{Weights: w.Clone()}
}

// Combine 合并打分。返回的 map 永不为 nil。
func (c *Combiner) Combine(scores []core.SignalScore) map[string]*core.MergedScore {
	out := make(map[string]*core.MergedScore)
	for _, s := range scores {
		if s.ItemID == "" {
			continue
		}
		contribution := nonNegative(c.Weights[s.Algorithm]) * nonNegative(s.RawScore)
		confidence := clamp01(s.Confidence)

		m, ok := out[s.ItemID]
		if !ok {
			m = &core.MergedScore{
				ItemID:     s.ItemID,
				Reasons:    make([]string, 0, len(s.Reasons)),
				Algorithms: make([]string, 0, 1),
			}
			out[s.ItemID] = m
		}
		m.CombinedScore += contribution
		m.Reasons = append(m.Reasons, s.Reasons...)
		if s.Algorithm != "" && !m.HasAlgorithm(s.Algorithm) {
			m.Algorithms = append(m.Algorithms, s.Algorithm)
		}
		if confidence > m.Confidence {
			m.Confidence = confidence
		}
	}
	return out
}

func nonNegative(v float64) float64 {
	if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
