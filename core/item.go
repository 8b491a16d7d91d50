package core

import (
	"math"
	"strings"
)

// CatalogItem 是商家菜单中的一个可售物品（菜品、饮品、套餐等）。
// 引擎只读使用，所有权归目录服务；Price 为 nil 表示价格缺失。
type CatalogItem struct {
	ID          string   `json:"id" yaml:"id"`
	Name        string   `json:"name" yaml:"name"`
	Category    string   `json:"category" yaml:"category"`
	Price       *float64 `json:"price,omitempty" yaml:"price,omitempty"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Tags        []string `json:"tags,omitempty" yaml:"tags,omitempty"`
}

// PriceOf 返回一个价格指针，便于构造字面量。
func PriceOf(v float64) *float64 {
	return &v
}

// PriceValue 返回有效价格。缺失、负数、NaN、Inf 都视为无价格。
func (it CatalogItem) PriceValue() (float64, bool) {
	if it.Price == nil {
		return 0, false
	}
	p := *it.Price
	if p < 0 || math.IsNaN(p) || math.IsInf(p, 0) {
		return 0, false
	}
	return p, true
}

// AsItem 使 CatalogItem 满足 feature.Itemer。
func (it CatalogItem) AsItem() CatalogItem {
	return it
}

// LowerName 返回小写名称，供规则匹配使用。
// 按 Unicode 默认规则转换，不做土耳其语特殊处理：I 变为 i，不是 ı。
func (it CatalogItem) LowerName() string {
	return strings.ToLower(strings.TrimSpace(it.Name))
}

// LowerCategory 返回小写类目。
func (it CatalogItem) LowerCategory() string {
	return strings.ToLower(strings.TrimSpace(it.Category))
}

// CartLine 是购物车中的一行：物品引用 + 数量。
type CartLine struct {
	Item     CatalogItem `json:"item" yaml:"item"`
	Quantity int         `json:"quantity" yaml:"quantity"`
}

// AsItem 使 CartLine 满足 feature.Itemer。
func (l CartLine) AsItem() CatalogItem {
	return l.Item
}

// CartItemIDs 返回购物车中所有物品 ID 的集合（空 ID 跳过）。
func CartItemIDs(cart []CartLine) map[string]struct{} {
	ids := make(map[string]struct{}, len(cart))
	for _, line := range cart {
		if line.Item.ID == "" {
			continue
		}
		ids[line.Item.ID] = struct{}{}
	}
	return ids
}

// IndexCatalog 按 ID 建立候选物品索引，重复 ID 保留第一个。
func IndexCatalog(items []CatalogItem) map[string]CatalogItem {
	idx := make(map[string]CatalogItem, len(items))
	for _, it := range items {
		if it.ID == "" {
			continue
		}
		if _, ok := idx[it.ID]; ok {
			continue
		}
		idx[it.ID] = it
	}
	return idx
}
