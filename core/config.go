package core

import "time"

// SignalConfig 是信号相关的配置接口，用于提供默认值。
type SignalConfig interface {
	// DefaultComparisonPoolSize 返回协同信号比较池的默认用户数
	DefaultComparisonPoolSize() int

	// DefaultMaxSimilarUsers 返回协同信号保留的相似用户上限
	DefaultMaxSimilarUsers() int

	// DefaultUserHistoryLimit 返回读取用户历史订单的默认条数
	DefaultUserHistoryLimit() int

	// DefaultTrendingWindow 返回热门信号的统计窗口
	DefaultTrendingWindow() time.Duration

	// DefaultTrendingTopN 返回热门信号保留的物品数
	DefaultTrendingTopN() int

	// DefaultTimeout 返回单个信号的默认超时时间
	DefaultTimeout() time.Duration

	// DefaultLimit 返回推荐结果的默认数量
	DefaultLimit() int
}

// DefaultSignalConfig 是默认的信号配置实现。
type DefaultSignalConfig struct{}

func (c *DefaultSignalConfig) DefaultComparisonPoolSize() int {
	return 100
}

func (c *DefaultSignalConfig) DefaultMaxSimilarUsers() int {
	return 10
}

func (c *DefaultSignalConfig) DefaultUserHistoryLimit() int {
	return 50
}

func (c *DefaultSignalConfig) DefaultTrendingWindow() time.Duration {
	return 7 * 24 * time.Hour
}

func (c *DefaultSignalConfig) DefaultTrendingTopN() int {
	return 5
}

func (c *DefaultSignalConfig) DefaultTimeout() time.Duration {
	return 3 * time.Second
}

func (c *DefaultSignalConfig) DefaultLimit() int {
	return 10
}

var _ SignalConfig = (*DefaultSignalConfig)(nil)
