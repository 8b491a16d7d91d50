package signal

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/rushteam/hybridrec/core"
)

// DefaultCompatibility 是外部建议未给出兼容度时使用的默认值（0-100）。
const DefaultCompatibility = 80.0

// External 是外部建议信号：调用 AdvisoryService，把建议名称模糊匹配到候选物品。
//
// 匹配规则：名称小写后任一方向的子串包含；空名称永不匹配；
// 每条建议取第一个匹配的候选物品，同一物品只接受第一条建议。未匹配的建议丢弃。
type External struct {
	Service core.AdvisoryService
}

func (s *External) Name() string { return core.AlgorithmExternal }

func (s *External) Score(ctx context.Context, rctx *core.RecommendContext) ([]core.SignalScore, error) {
	if s.Service == nil || rctx == nil || len(rctx.Candidates) == 0 {
		return nil, nil
	}

	// 只把不在购物车中的候选物品发给外部服务
	candidates := make([]core.CatalogItem, 0, len(rctx.Candidates))
	names := make([]string, 0, len(rctx.Candidates))
	for _, item := range rctx.Candidates {
		if item.ID == "" || rctx.InCart(item.ID) {
			continue
		}
		candidates = append(candidates, item)
		names = append(names, strings.TrimSpace(item.LowerName()))
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	suggestions, err := s.Service.Suggest(ctx, &core.AdvisoryRequest{
		MerchantID: rctx.MerchantID,
		Cart:       rctx.Cart,
		Candidates: candidates,
	})
	if err != nil {
		return nil, fmt.Errorf("advisory suggest: %w", err)
	}

	out := make([]core.SignalScore, 0, len(suggestions))
	matched := make(map[string]struct{}, len(suggestions))
	for _, sg := range suggestions {
		idx := matchCandidate(strings.ToLower(strings.TrimSpace(sg.SuggestedName)), names)
		if idx < 0 {
			continue
		}
		item := candidates[idx]
		if _, dup := matched[item.ID]; dup {
			continue
		}
		matched[item.ID] = struct{}{}

		compat := compatibility(sg.Compatibility)
		var reasons []string
		if r := strings.TrimSpace(sg.Reason); r != "" {
			reasons = []string{r}
		}
		out = append(out, core.SignalScore{
			ItemID:     item.ID,
			RawScore:   compat,
			Reasons:    reasons,
			Algorithm:  core.AlgorithmExternal,
			Confidence: compat / 100,
		})
	}
	return out, nil
}

// matchCandidate 返回第一个与 name 互相包含的候选下标，没有时返回 -1。
func matchCandidate(name string, candidates []string) int {
	if name == "" {
		return -1
	}
	for i, c := range candidates {
		if c == "" {
			continue
		}
		if strings.Contains(c, name) || strings.Contains(name, c) {
			return i
		}
	}
	return -1
}

func compatibility(v *float64) float64 {
	if v == nil || math.IsNaN(*v) {
		return DefaultCompatibility
	}
	return math.Max(0, math.Min(100, *v))
}
