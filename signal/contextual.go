package signal

import (
	"context"
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"github.com/rushteam/hybridrec/core"
	"github.com/rushteam/hybridrec/pkg/dsl"
)

// contextualFullScore 是情境信号置信度达到 1 所需的累计分。
const contextualFullScore = 50.0

// Contextual 是情境信号：按时间、季节、天气等规则给候选物品加分。
//
// 规则表是数据驱动的（默认 DefaultRules，可用 LoadRulesYAML 替换）；
// 时钟来自 rctx.Context.Now，信号内部不读取系统时间。
type Contextual struct {
	rules []Rule
}

// NewContextual 创建情境信号，rules 为空时使用 DefaultRules。
func NewContextual(rules []Rule) (*Contextual, error) {
	if len(rules) == 0 {
		return &Contextual{rules: DefaultRules()}, nil
	}
	compiled := make([]Rule, len(rules))
	copy(compiled, rules)
	for i := range compiled {
		if err := compiled[i].Compile(); err != nil {
			return nil, fmt.Errorf("contextual: %w", err)
		}
	}
	return &Contextual{rules: compiled}, nil
}

// Rules 返回规则表副本。
func (s *Contextual) Rules() []Rule {
	out := make([]Rule, len(s.rules))
	copy(out, s.rules)
	return out
}

func (s *Contextual) Name() string { return core.AlgorithmContextual }

func (s *Contextual) Score(ctx context.Context, rctx *core.RecommendContext) ([]core.SignalScore, error) {
	if rctx == nil || len(rctx.Candidates) == 0 {
		return nil, nil
	}
	rules := s.rules
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	logger := zerolog.Ctx(ctx)
	// 情境规则只读取偏好，不需要历史订单
	profile := rctx.NewProfile(nil)

	out := make([]core.SignalScore, 0)
	seen := make(map[string]struct{}, len(rctx.Candidates))
	for _, item := range rctx.Candidates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if item.ID == "" || rctx.InCart(item.ID) {
			continue
		}
		if _, dup := seen[item.ID]; dup {
			continue
		}
		seen[item.ID] = struct{}{}

		in := dsl.InputFrom(rctx.Context, profile, item)
		var (
			total   float64
			reasons []string
		)
		for i := range rules {
			ok, err := rules[i].Matches(in)
			if err != nil {
				logger.Debug().Err(err).Str("rule", rules[i].Name).Str("item_id", item.ID).Msg("rule evaluation failed")
				continue
			}
			if !ok {
				continue
			}
			total += rules[i].Delta
			if rules[i].Reason != "" {
				reasons = append(reasons, rules[i].Reason)
			}
		}
		if total <= 0 {
			continue
		}
		out = append(out, core.SignalScore{
			ItemID:     item.ID,
			RawScore:   total,
			Reasons:    reasons,
			Algorithm:  core.AlgorithmContextual,
			Confidence: math.Min(total/contextualFullScore, 1),
		})
	}
	return out, nil
}
