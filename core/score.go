package core

// 信号（算法）名称，同时作为 SignalScore.Algorithm 与 MergedScore.Algorithms 的取值。
const (
	AlgorithmCollaborative = "collaborative"
	AlgorithmContent       = "content"
	AlgorithmContextual    = "contextual"
	AlgorithmTrending      = "trending"
	AlgorithmExternal      = "external"
)

// SignalScore 是单个信号对单个物品的打分结果。
// RawScore 的量纲由各信号自行定义；Confidence 取值 [0,1]。
type SignalScore struct {
	ItemID     string   `json:"item_id"`
	RawScore   float64  `json:"raw_score"`
	Reasons    []string `json:"reasons"`
	Algorithm  string   `json:"algorithm"`
	Confidence float64  `json:"confidence"`
}

// MergedScore 是多个信号对同一物品加权合并后的结果。
type MergedScore struct {
	ItemID        string   `json:"item_id"`
	CombinedScore float64  `json:"combined_score"`
	Reasons       []string `json:"reasons"`
	Algorithms    []string `json:"algorithms"`
	Confidence    float64  `json:"confidence"`
}

// HasAlgorithm 判断某个信号是否参与了该物品的打分。
func (m *MergedScore) HasAlgorithm(name string) bool {
	for _, a := range m.Algorithms {
		if a == name {
			return true
		}
	}
	return false
}

// Urgency 是推荐的展示强度分档。
type Urgency string

const (
	UrgencyLow    Urgency = "low"
	UrgencyMedium Urgency = "medium"
	UrgencyHigh   Urgency = "high"
)

func (u Urgency) String() string { return string(u) }

// RecommendationCategory 是推荐的类别标签，由参与打分的信号决定。
type RecommendationCategory string

const (
	CategoryTrending      RecommendationCategory = "trending"
	CategorySeasonal      RecommendationCategory = "seasonal"
	CategorySimilar       RecommendationCategory = "similar"
	CategoryComplementary RecommendationCategory = "complementary"
	CategoryPersonalized  RecommendationCategory = "personalized"
)

func (c RecommendationCategory) String() string { return string(c) }

// Recommendation 是引擎的最终输出单元，不做持久化。
type Recommendation struct {
	ItemID     string                 `json:"item_id"`
	Item       CatalogItem            `json:"item"`
	FinalScore float64                `json:"final_score"`
	Reasons    []string               `json:"reasons"`
	Algorithms []string               `json:"algorithms"`
	Confidence float64                `json:"confidence"`
	Urgency    Urgency                `json:"urgency"`
	Category   RecommendationCategory `json:"category"`
}
