package signal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/rushteam/hybridrec/core"
	"github.com/rushteam/hybridrec/metrics"
)

// DefaultTimeout 是单个信号的默认超时时间。
const DefaultTimeout = 3 * time.Second

// Fanout 并发执行多个信号，并按信号顺序拼接结果。
//
// 每个信号拥有独立的超时；错误、超时、panic 都会被记录并降级为空结果，
// 不中断其他信号。Run 在所有信号结束（或超时）后才返回。
type Fanout struct {
	Signals []Signal

	// Timeout 每个信号的超时时间，<= 0 时使用 DefaultTimeout
	Timeout time.Duration

	// MaxConcurrent 最大并发数（0 表示无限制）
	MaxConcurrent int
}

// Run 执行全部信号。日志从 ctx 中获取（zerolog.Ctx），未注入时不输出。
func (f *Fanout) Run(ctx context.Context, rctx *core.RecommendContext) []core.SignalScore {
	if len(f.Signals) == 0 || rctx == nil {
		return nil
	}

	timeout := f.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	// 每个信号写自己的槽位，合并顺序与 Signals 顺序一致，保证结果确定
	results := make([][]core.SignalScore, len(f.Signals))

	eg, egCtx := errgroup.WithContext(ctx)
	if f.MaxConcurrent > 0 {
		eg.SetLimit(f.MaxConcurrent)
	}

	for i, sig := range f.Signals {
		if sig == nil {
			continue
		}
		eg.Go(func() error {
			results[i] = f.runOne(egCtx, sig, rctx, timeout)
			// 降级在 runOne 内部完成，这里永远不返回错误
			return nil
		})
	}
	_ = eg.Wait()

	var total int
	for _, r := range results {
		total += len(r)
	}
	out := make([]core.SignalScore, 0, total)
	for _, r := range results {
		out = append(out, r...)
	}
	return out
}

type signalResult struct {
	scores []core.SignalScore
	err    error
}

// runOne 在独立超时下执行单个信号。
// 信号不响应 ctx 取消时，超时后直接放弃它的结果。
func (f *Fanout) runOne(
	ctx context.Context,
	sig Signal,
	rctx *core.RecommendContext,
	timeout time.Duration,
) []core.SignalScore {
	name := sig.Name()
	logger := zerolog.Ctx(ctx).With().Str("signal", name).Logger()
	start := time.Now()

	sigCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan signalResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- signalResult{err: &panicError{value: r}}
			}
		}()
		scores, err := sig.Score(sigCtx, rctx)
		done <- signalResult{scores: scores, err: err}
	}()

	var res signalResult
	select {
	case res = <-done:
	case <-sigCtx.Done():
		res = signalResult{err: sigCtx.Err()}
	}

	elapsed := time.Since(start)
	if res.err != nil {
		reason := failureReason(res.err)
		metrics.RecordSignal(name, elapsed, 0, reason)
		logger.Warn().
			Err(res.err).
			Str("reason", reason).
			Dur("elapsed", elapsed).
			Msg("signal degraded to empty result")
		return nil
	}

	scores := validScores(res.scores, name)
	metrics.RecordSignal(name, elapsed, len(scores), "")
	logger.Debug().
		Int("scores", len(scores)).
		Dur("elapsed", elapsed).
		Msg("signal finished")
	return scores
}

// validScores 过滤空 ID，并补齐缺失的 Algorithm。
func validScores(in []core.SignalScore, name string) []core.SignalScore {
	if len(in) == 0 {
		return nil
	}
	out := make([]core.SignalScore, 0, len(in))
	for _, s := range in {
		if s.ItemID == "" {
			continue
		}
		if s.Algorithm == "" {
			s.Algorithm = name
		}
		out = append(out, s)
	}
	return out
}

type panicError struct {
	value any
}

func (e *panicError) Error() string {
	return fmt.Sprintf("signal panic: %v", e.value)
}

func failureReason(err error) string {
	var pe *panicError
	switch {
	case errors.As(err, &pe):
		return metrics.ReasonPanic
	case errors.Is(err, context.DeadlineExceeded), core.IsTimeout(err):
		return metrics.ReasonTimeout
	default:
		return metrics.ReasonError
	}
}
