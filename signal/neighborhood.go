package signal

import (
	"context"

	"github.com/rushteam/hybridrec/core"
)

// NeighborhoodProvider 查找与目标用户相似的用户。
//
// 默认实现 LinearScanNeighborhood 线性扫描比较池；
// 需要更强的近邻检索时（离线 u2u 表、向量检索）替换实现即可，协同信号本身不变。
type NeighborhoodProvider interface {
	SimilarUsers(ctx context.Context, userID string, purchased map[string]struct{}) ([]core.UserHistory, error)
}

// LinearScanNeighborhood 从比较池中按池内顺序取前 MaxUsers 个“买过相同物品”的用户。
//
// 不做相似度排序：保留比较池原本的顺序（通常是最近活跃优先）。
type LinearScanNeighborhood struct {
	Store core.OrderHistoryStore

	// PoolSize 比较池大小，<= 0 时使用默认值 100
	PoolSize int

	// MaxUsers 保留的相似用户上限，<= 0 时使用默认值 10
	MaxUsers int

	// Config 提供默认值，nil 时使用 core.DefaultSignalConfig
	Config core.SignalConfig
}

func (n *LinearScanNeighborhood) SimilarUsers(
	ctx context.Context,
	userID string,
	purchased map[string]struct{},
) ([]core.UserHistory, error) {
	if n.Store == nil || len(purchased) == 0 {
		return nil, nil
	}

	cfg := n.Config
	if cfg == nil {
		cfg = &core.DefaultSignalConfig{}
	}
	poolSize := n.PoolSize
	if poolSize <= 0 {
		poolSize = cfg.DefaultComparisonPoolSize()
	}
	maxUsers := n.MaxUsers
	if maxUsers <= 0 {
		maxUsers = cfg.DefaultMaxSimilarUsers()
	}

	pool, err := n.Store.FetchComparisonPoolHistories(ctx, userID, poolSize)
	if err != nil {
		return nil, err
	}

	out := make([]core.UserHistory, 0, maxUsers)
	for _, h := range pool {
		if h.UserID == userID {
			continue // 跳过自己
		}
		if !overlaps(purchased, h.PurchasedItems()) {
			continue
		}
		out = append(out, h)
		if len(out) >= maxUsers {
			break
		}
	}
	return out, nil
}

func overlaps(a, b map[string]struct{}) bool {
	if len(a) > len(b) {
		a, b = b, a
	}
	for k := range a {
		if _, ok := b[k]; ok {
			return true
		}
	}
	return false
}
