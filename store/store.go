// Package store 提供 core.OrderHistoryStore 的实现：
//
//   - MemoryOrderStore：内存实现，用于测试/开发/原型
//   - RedisOrderStore：Redis 有序集合实现，生产常用
//   - SQLOrderStore：Postgres（pgx）/ SQLite（modernc）实现
//
// 注意：此包只包含实现，接口定义在 core 包。
//
//	var s core.OrderHistoryStore = store.NewMemoryOrderStore()
package store

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/rushteam/hybridrec/core"
)

// DefaultPoolHistoryLimit 是比较池中每个用户读取的最近订单数。
const DefaultPoolHistoryLimit = 50

// normalizeOrder 校验并规整待写入的订单：补齐 ID，丢弃无效行。
func normalizeOrder(o core.OrderRecord) (core.OrderRecord, error) {
	o.UserID = strings.TrimSpace(o.UserID)
	o.MerchantID = strings.TrimSpace(o.MerchantID)
	if o.UserID == "" || o.MerchantID == "" {
		return o, fmt.Errorf("%w: user_id and merchant_id are required", core.ErrInvalidOrder)
	}
	if o.PlacedAt.IsZero() {
		return o, fmt.Errorf("%w: placed_at is required", core.ErrInvalidOrder)
	}
	lines := make([]core.OrderLine, 0, len(o.Lines))
	for _, l := range o.Lines {
		if l.ItemID == "" || l.Quantity <= 0 {
			continue
		}
		lines = append(lines, l)
	}
	if len(lines) == 0 {
		return o, fmt.Errorf("%w: order has no valid lines", core.ErrInvalidOrder)
	}
	o.Lines = lines
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	o.PlacedAt = o.PlacedAt.UTC()
	return o, nil
}

// sortOrdersDesc 按下单时间倒序，时间相同按 ID 升序。
func sortOrdersDesc(orders []core.OrderRecord) {
	sort.SliceStable(orders, func(i, j int) bool {
		if !orders[i].PlacedAt.Equal(orders[j].PlacedAt) {
			return orders[i].PlacedAt.After(orders[j].PlacedAt)
		}
		return orders[i].ID < orders[j].ID
	})
}

func cloneOrder(o core.OrderRecord) core.OrderRecord {
	o.Lines = append([]core.OrderLine(nil), o.Lines...)
	return o
}

func unavailable(backend string, err error) error {
	return core.WrapDomainError(core.ModuleStore, core.ErrorCodeUnavailable, "store: "+backend+" unavailable", err)
}
