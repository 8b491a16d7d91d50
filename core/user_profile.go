package core

import (
	"sort"
	"time"
)

// OrderLine 是历史订单中的一行。
type OrderLine struct {
	ItemID   string `json:"item_id"`
	Quantity int    `json:"quantity"`
}

// OrderRecord 是一笔历史订单（由交易历史服务提供）。
type OrderRecord struct {
	ID         string      `json:"id"`
	UserID     string      `json:"user_id"`
	MerchantID string      `json:"merchant_id"`
	Lines      []OrderLine `json:"lines"`
	PlacedAt   time.Time   `json:"placed_at"`
}

// UserHistory 是比较池中一个用户及其订单。
type UserHistory struct {
	UserID string
	Orders []OrderRecord
}

// PurchasedItems 返回该用户至少购买过一次的物品集合。
func (h UserHistory) PurchasedItems() map[string]struct{} {
	return purchasedItems(h.Orders)
}

// BehaviorLine 是用户行为画像中的一条购买记录。
type BehaviorLine struct {
	ItemID   string
	Quantity int
	At       time.Time
}

// UserBehaviorProfile 是用户行为画像。
//
// 与推荐请求同生命周期：每次调用时从交易历史服务重新构建，引擎不做持久化。
//
//	维度          作用
//	Lines         协同信号的购买集合
//	Preferences   任意偏好元数据（来自 Request.Preferences，规则 DSL 中为 profile.preferences）
type UserBehaviorProfile struct {
	UserID      string
	Lines       []BehaviorLine
	Preferences map[string]any
}

// NewUserBehaviorProfile 从历史订单构建行为画像，行按时间倒序。
func NewUserBehaviorProfile(userID string, orders []OrderRecord) *UserBehaviorProfile {
	p := &UserBehaviorProfile{
		UserID:      userID,
		Lines:       make([]BehaviorLine, 0, len(orders)),
		Preferences: make(map[string]any),
	}
	for _, o := range orders {
		for _, l := range o.Lines {
			if l.ItemID == "" || l.Quantity <= 0 {
				continue
			}
			p.Lines = append(p.Lines, BehaviorLine{ItemID: l.ItemID, Quantity: l.Quantity, At: o.PlacedAt})
		}
	}
	sort.SliceStable(p.Lines, func(i, j int) bool {
		return p.Lines[i].At.After(p.Lines[j].At)
	})
	return p
}

// PurchasedItems 返回画像中出现过的物品集合。
func (p *UserBehaviorProfile) PurchasedItems() map[string]struct{} {
	out := make(map[string]struct{})
	if p == nil {
		return out
	}
	for _, l := range p.Lines {
		out[l.ItemID] = struct{}{}
	}
	return out
}

// SetPreference 写入偏好元数据。
func (p *UserBehaviorProfile) SetPreference(key string, value any) {
	if p.Preferences == nil {
		p.Preferences = make(map[string]any)
	}
	p.Preferences[key] = value
}

func purchasedItems(orders []OrderRecord) map[string]struct{} {
	out := make(map[string]struct{})
	for _, o := range orders {
		for _, l := range o.Lines {
			if l.ItemID == "" || l.Quantity <= 0 {
				continue
			}
			out[l.ItemID] = struct{}{}
		}
	}
	return out
}
