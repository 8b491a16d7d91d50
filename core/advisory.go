package core

import "context"

// AdvisoryService 是外部建议服务（AI 搭配建议）的领域接口。
//
// 设计原则：
//   - 定义在领域层（core），由基础设施层（advisory）实现
//   - 引擎把它当作黑盒：只关心返回的建议名称、兼容度与理由
//   - 任何失败（超时、格式错误、熔断）都由外部建议信号降级为空
//
// 实现：
//   - advisory.Client（HTTP + 熔断 + 限流）
type AdvisoryService interface {
	// Suggest 根据购物车与候选物品返回搭配建议
	Suggest(ctx context.Context, req *AdvisoryRequest) ([]Suggestion, error)
}

// AdvisoryRequest 建议请求
type AdvisoryRequest struct {
	// MerchantID 商家 ID
	MerchantID string `json:"merchant_id"`

	// Cart 当前购物车
	Cart []CartLine `json:"cart"`

	// Candidates 候选物品（服务可从中挑选，但不保证名称完全一致）
	Candidates []CatalogItem `json:"candidates"`
}

// Suggestion 单条建议
type Suggestion struct {
	// SuggestedName 建议的物品名称（与候选物品做模糊匹配）
	SuggestedName string `json:"suggested_name"`

	// Compatibility 兼容度 0-100，缺失时由信号使用默认值
	Compatibility *float64 `json:"compatibility,omitempty"`

	// Reason 建议理由，原样作为推荐解释
	Reason string `json:"reason"`
}
