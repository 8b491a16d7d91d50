package core

import (
	"context"
	"time"
)

// OrderHistoryStore 是交易历史的领域接口。
//
// 设计原则：
//   - 定义在领域层（core），由基础设施层（store）实现
//   - 只读：引擎不会写入任何历史数据
//   - 失败由调用方（信号）降级处理，不向推荐入口传播
//
// 使用场景：
//   - 协同信号：用户历史 + 比较池
//   - 热门信号：商家近 7 天订单
//
// 实现：
//   - store.MemoryOrderStore（测试/开发）
//   - store.RedisOrderStore
//   - store.SQLOrderStore（Postgres / SQLite）
type OrderHistoryStore interface {
	// Name 返回存储后端名称（用于日志/监控）
	Name() string

	// FetchUserOrderHistory 获取用户最近的订单，按下单时间倒序，最多 limit 条
	FetchUserOrderHistory(ctx context.Context, userID string, limit int) ([]OrderRecord, error)

	// FetchComparisonPoolHistories 获取除 excludeUserID 外最多 poolSize 个用户的最近订单
	FetchComparisonPoolHistories(ctx context.Context, excludeUserID string, poolSize int) ([]UserHistory, error)

	// FetchRecentMerchantOrders 获取商家在 since 之后（含）下的所有订单
	FetchRecentMerchantOrders(ctx context.Context, merchantID string, since time.Time) ([]OrderRecord, error)
}

// OrderWriter 是可选的写入接口，供数据同步任务与测试灌数使用；引擎本身不依赖它。
type OrderWriter interface {
	AppendOrder(ctx context.Context, order OrderRecord) error
}

// Store 错误定义（使用统一的 DomainError）
var (
	// ErrStoreUnavailable 表示后端不可用
	ErrStoreUnavailable = NewDomainError(ModuleStore, ErrorCodeUnavailable, "store: backend unavailable")

	// ErrInvalidOrder 表示写入的订单不合法
	ErrInvalidOrder = NewDomainError(ModuleStore, ErrorCodeInvalidInput, "store: invalid order")
)
