// Package hybridrec 是外卖点餐场景的混合推荐引擎。
//
// 设计要点：
// - Signal-first: 协同、内容、情境、热门、外部建议五个信号并发打分，失败各自降级为空
// - Reasons-first: 每条推荐都带可读的理由，全链路透传、去重
// - Pipeline 可扩展: 排序阶段由 Node 串联（过滤 → 排序 → 分类 → 截断），可配置驱动
package hybridrec

import (
	"github.com/rushteam/hybridrec/core"
	"github.com/rushteam/hybridrec/engine"
	"github.com/rushteam/hybridrec/pipeline"
)

// 轻量 facade：便于直接 import "hybridrec" 使用核心抽象。
type Engine = engine.Engine
type Option = engine.Option
type Request = core.Request
type Recommendation = core.Recommendation
type CatalogItem = core.CatalogItem
type CartLine = core.CartLine
type Pipeline = pipeline.Pipeline
type Node = pipeline.Node
type Kind = pipeline.Kind

const (
	KindFilter      = pipeline.KindFilter
	KindRank        = pipeline.KindRank
	KindReRank      = pipeline.KindReRank
	KindPostProcess = pipeline.KindPostProcess
)

// New 创建推荐引擎，见 engine.New。
var New = engine.New
