package signal

import (
	"context"

	"github.com/rushteam/hybridrec/core"
)

// Signal 表示一个独立的打分策略（协同/内容/情境/热门/外部建议）。
// 你可以把它理解为“可并发 fan-out 的打分单元”。
//
// 约定：
//   - Name 返回 core.AlgorithmXxx 之一，作为 SignalScore.Algorithm
//   - Score 只读使用 rctx，不得修改其中的切片与 map
//   - 失败时返回 error，由 Fanout 降级为空结果，不影响其他信号
type Signal interface {
	Name() string
	Score(ctx context.Context, rctx *core.RecommendContext) ([]core.SignalScore, error)
}

// SignalFunc 把普通函数适配为 Signal，主要用于测试与临时策略。
type SignalFunc struct {
	SignalName string
	Fn         func(ctx context.Context, rctx *core.RecommendContext) ([]core.SignalScore, error)
}

func (s SignalFunc) Name() string { return s.SignalName }

func (s SignalFunc) Score(ctx context.Context, rctx *core.RecommendContext) ([]core.SignalScore, error) {
	if s.Fn == nil {
		return nil, nil
	}
	return s.Fn(ctx, rctx)
}
