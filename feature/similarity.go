package feature

import (
	"math"
	"sort"
)

// 相似度子项权重：类目匹配是最强的交叉销售信号，价格带与词面重合次之。
const (
	CategoryWeight = 0.4
	PriceWeight    = 0.3
	KeywordWeight  = 0.3
)

// Comparison 是两个特征集的比较结果，附带用于生成推荐理由的明细。
type Comparison struct {
	// Score 综合相似度 [0,1]
	Score float64

	// SharedCategories 双方共有的类目（排序后）
	SharedCategories []string

	// SharedKeywords 双方共有的关键词（排序后）
	SharedKeywords []string

	// PriceCompared 价格子项是否参与计算
	PriceCompared bool

	// PriceDiff 两个价格中点的绝对差（仅 PriceCompared 时有效）
	PriceDiff float64
}

// Similarity 计算两个特征集的加权相似度，取值 [0,1]。
func Similarity(a, b FeatureSet) float64 {
	return Compare(a, b).Score
}

// Compare 计算加权相似度并返回明细。
//
// 三个子项各自只在数据齐全时参与，权重按实际参与的子项重新归一；
// 没有任何子项参与时结果为 0：
//   - 类目 Jaccard（0.4）：双方类目都为空时跳过
//   - 价格相似度（0.3）：双方都有价格时参与，1 - |avg1-avg2| / max(avg1,avg2)，双方均价为 0 时为 1
//   - 关键词 Jaccard（0.3）：双方关键词都为空时跳过
func Compare(a, b FeatureSet) Comparison {
	var (
		out         Comparison
		weighted    float64
		totalWeight float64
	)

	if len(a.Categories) > 0 || len(b.Categories) > 0 {
		sim, shared := jaccardSimilarity(a.Categories, b.Categories)
		weighted += CategoryWeight * sim
		totalWeight += CategoryWeight
		out.SharedCategories = shared
	}

	if avgA, okA := a.AveragePrice(); okA {
		if avgB, okB := b.AveragePrice(); okB {
			weighted += PriceWeight * priceSimilarity(avgA, avgB)
			totalWeight += PriceWeight
			out.PriceCompared = true
			out.PriceDiff = math.Abs(avgA - avgB)
		}
	}

	if len(a.Keywords) > 0 || len(b.Keywords) > 0 {
		sim, shared := jaccardSimilarity(a.Keywords, b.Keywords)
		weighted += KeywordWeight * sim
		totalWeight += KeywordWeight
		out.SharedKeywords = shared
	}

	if totalWeight == 0 {
		return out
	}
	out.Score = clamp01(weighted / totalWeight)
	return out
}

// jaccardSimilarity 计算两个集合的 Jaccard 相似度，并返回交集（排序后）。
func jaccardSimilarity(a, b map[string]struct{}) (float64, []string) {
	small, large := a, b
	if len(small) > len(large) {
		small, large = large, small
	}
	shared := make([]string, 0)
	for k := range small {
		if _, ok := large[k]; ok {
			shared = append(shared, k)
		}
	}
	union := len(a) + len(b) - len(shared)
	if union == 0 {
		return 0, shared
	}
	sort.Strings(shared)
	return float64(len(shared)) / float64(union), shared
}

func priceSimilarity(avgA, avgB float64) float64 {
	hi := math.Max(avgA, avgB)
	if hi == 0 {
		return 1
	}
	return clamp01(1 - math.Abs(avgA-avgB)/hi)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
