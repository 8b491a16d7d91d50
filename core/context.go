package core

import (
	"strings"
	"time"
)

// 常见天气取值（外部天气服务给出，大小写不敏感）。
const (
	WeatherRainy = "rainy"
	WeatherSunny = "sunny"
	WeatherSnowy = "snowy"
)

// RequestContext 是请求级的外部环境：当前时间、天气以及自定义参数。
// Now 由调用方或引擎入口注入，信号内部不读取系统时钟。
type RequestContext struct {
	Now     time.Time
	Weather string

	// Params 是请求级扩展参数，例如 "delivery_zone"、"is_holiday"，
	// 原样透传给情境规则 DSL（params.xxx）。
	Params map[string]any
}

// Hour 返回注入时间的小时（0-23）。
func (c RequestContext) Hour() int { return c.Now.Hour() }

// Month 返回注入时间的月份（1-12）。
func (c RequestContext) Month() int { return int(c.Now.Month()) }

// NormalizedWeather 返回小写天气。
func (c RequestContext) NormalizedWeather() string {
	return strings.ToLower(strings.TrimSpace(c.Weather))
}

// Request 是调用方入口参数：用户、购物车、商家、候选物品与可选上下文。
type Request struct {
	UserID     string
	MerchantID string
	Cart       []CartLine
	Candidates []CatalogItem
	Context    *RequestContext

	// Preferences 是用户偏好元数据，例如 "diet"、"spice_level"，
	// 写入本次调用的行为画像，规则 DSL 通过 profile.preferences.xxx 读取。
	Preferences map[string]any

	// Limit 是返回数量上限，<= 0 时使用默认值 10。
	Limit int
}

// RecommendContext 承载一次推荐调用的只读快照，贯穿全部信号透传。
// 各信号只读使用，不得修改其中的切片与 map。
type RecommendContext struct {
	RequestID  string
	UserID     string
	MerchantID string

	Cart       []CartLine
	Candidates []CatalogItem
	Context    RequestContext

	Preferences map[string]any

	// Limit 是本次请求的返回数量上限（由入口填充默认值）
	Limit int

	cartIDs map[string]struct{}
}

// NewRecommendContext 从请求构建快照。now 在请求未携带时间时使用。
func NewRecommendContext(requestID string, req Request, now time.Time) *RecommendContext {
	rc := RequestContext{Now: now}
	if req.Context != nil {
		rc = *req.Context
		if rc.Now.IsZero() {
			rc.Now = now
		}
	}
	var prefs map[string]any
	if len(req.Preferences) > 0 {
		prefs = make(map[string]any, len(req.Preferences))
		for k, v := range req.Preferences {
			prefs[k] = v
		}
	}
	return &RecommendContext{
		RequestID:   requestID,
		UserID:      req.UserID,
		MerchantID:  req.MerchantID,
		Cart:        req.Cart,
		Candidates:  req.Candidates,
		Context:     rc,
		Preferences: prefs,
		Limit:       req.Limit,
		cartIDs:     CartItemIDs(req.Cart),
	}
}

// NewProfile 用本次请求的用户与偏好构建行为画像，orders 可以为空。
func (rctx *RecommendContext) NewProfile(orders []OrderRecord) *UserBehaviorProfile {
	p := NewUserBehaviorProfile(rctx.UserID, orders)
	for k, v := range rctx.Preferences {
		p.SetPreference(k, v)
	}
	return p
}

// InCart 判断物品是否已在购物车中。
func (rctx *RecommendContext) InCart(itemID string) bool {
	if rctx.cartIDs == nil {
		// 直接构造的快照没有索引，退化为线性扫描（并发只读安全）
		for _, line := range rctx.Cart {
			if line.Item.ID != "" && line.Item.ID == itemID {
				return true
			}
		}
		return false
	}
	_, ok := rctx.cartIDs[itemID]
	return ok
}
