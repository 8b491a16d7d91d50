package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rushteam/hybridrec/core"
)

// MemoryOrderStore 是内存实现的交易历史存储，用于测试/开发/原型。
// 进程重启后数据丢失。
type MemoryOrderStore struct {
	mu         sync.RWMutex
	byUser     map[string][]core.OrderRecord
	byMerchant map[string][]core.OrderRecord
	lastActive map[string]time.Time
	ids        map[string]struct{}

	// PoolHistoryLimit 比较池中每个用户返回的订单数，<= 0 时使用 DefaultPoolHistoryLimit
	PoolHistoryLimit int
}

// NewMemoryOrderStore 创建内存存储，可选地预置订单（无效订单被忽略）。
func NewMemoryOrderStore(orders ...core.OrderRecord) *MemoryOrderStore {
	m := &MemoryOrderStore{
		byUser:     make(map[string][]core.OrderRecord),
		byMerchant: make(map[string][]core.OrderRecord),
		lastActive: make(map[string]time.Time),
		ids:        make(map[string]struct{}),
	}
	for _, o := range orders {
		_ = m.AppendOrder(context.Background(), o)
	}
	return m
}

func (m *MemoryOrderStore) Name() string { return "memory" }

func (m *MemoryOrderStore) AppendOrder(_ context.Context, order core.OrderRecord) error {
	o, err := normalizeOrder(order)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, dup := m.ids[o.ID]; dup {
		return fmt.Errorf("%w: duplicate order id %s", core.ErrInvalidOrder, o.ID)
	}
	m.ids[o.ID] = struct{}{}
	m.byUser[o.UserID] = append(m.byUser[o.UserID], o)
	m.byMerchant[o.MerchantID] = append(m.byMerchant[o.MerchantID], o)
	if o.PlacedAt.After(m.lastActive[o.UserID]) {
		m.lastActive[o.UserID] = o.PlacedAt
	}
	return nil
}

func (m *MemoryOrderStore) FetchUserOrderHistory(ctx context.Context, userID string, limit int) ([]core.OrderRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.userHistoryLocked(userID, limit), nil
}

func (m *MemoryOrderStore) FetchComparisonPoolHistories(ctx context.Context, excludeUserID string, poolSize int) ([]core.UserHistory, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if poolSize <= 0 {
		return []core.UserHistory{}, nil
	}
	perUser := m.PoolHistoryLimit
	if perUser <= 0 {
		perUser = DefaultPoolHistoryLimit
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	// 最近活跃的用户优先，活跃时间相同按用户 ID 升序
	users := make([]string, 0, len(m.lastActive))
	for u := range m.lastActive {
		if u != excludeUserID {
			users = append(users, u)
		}
	}
	sort.Slice(users, func(i, j int) bool {
		ti, tj := m.lastActive[users[i]], m.lastActive[users[j]]
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return users[i] < users[j]
	})
	if len(users) > poolSize {
		users = users[:poolSize]
	}

	out := make([]core.UserHistory, 0, len(users))
	for _, u := range users {
		out = append(out, core.UserHistory{UserID: u, Orders: m.userHistoryLocked(u, perUser)})
	}
	return out, nil
}

func (m *MemoryOrderStore) FetchRecentMerchantOrders(ctx context.Context, merchantID string, since time.Time) ([]core.OrderRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]core.OrderRecord, 0)
	for _, o := range m.byMerchant[merchantID] {
		if !o.PlacedAt.Before(since) {
			out = append(out, cloneOrder(o))
		}
	}
	sortOrdersDesc(out)
	return out, nil
}

func (m *MemoryOrderStore) userHistoryLocked(userID string, limit int) []core.OrderRecord {
	src := m.byUser[userID]
	out := make([]core.OrderRecord, 0, len(src))
	for _, o := range src {
		out = append(out, cloneOrder(o))
	}
	sortOrdersDesc(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

var (
	_ core.OrderHistoryStore = (*MemoryOrderStore)(nil)
	_ core.OrderWriter       = (*MemoryOrderStore)(nil)
)
