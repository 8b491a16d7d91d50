package signal

import (
	"context"
	"strings"

	"github.com/rushteam/hybridrec/core"
	"github.com/rushteam/hybridrec/feature"
)

const (
	// DefaultContentThreshold 是内容信号的最低相似度（不含）。
	DefaultContentThreshold = 0.6

	// DefaultPriceReasonDiff 均价差小于该值时给出“价格相近”的理由。
	DefaultPriceReasonDiff = 20.0

	maxKeywordReasons = 3
)

// Content 是基于内容的信号：购物车整体特征 vs 每个候选物品的特征。
type Content struct {
	// Threshold 最低相似度，<= 0 时使用 DefaultContentThreshold
	Threshold float64

	// PriceReasonDiff 价格理由阈值，<= 0 时使用 DefaultPriceReasonDiff
	PriceReasonDiff float64
}

func (s *Content) Name() string { return core.AlgorithmContent }

func (s *Content) Score(ctx context.Context, rctx *core.RecommendContext) ([]core.SignalScore, error) {
	if rctx == nil || len(rctx.Cart) == 0 || len(rctx.Candidates) == 0 {
		return nil, nil
	}
	threshold := s.Threshold
	if threshold <= 0 {
		threshold = DefaultContentThreshold
	}
	priceDiff := s.PriceReasonDiff
	if priceDiff <= 0 {
		priceDiff = DefaultPriceReasonDiff
	}

	cartFeatures := feature.Extract(rctx.Cart)
	if cartFeatures.IsEmpty() {
		return nil, nil
	}
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

		cmp := feature.Compare(cartFeatures, feature.ExtractItem(item))
		if cmp.Score <= threshold {
			continue
		}
		out = append(out, core.SignalScore{
			ItemID:     item.ID,
			RawScore:   cmp.Score * 100,
			Reasons:    contentReasons(cmp, priceDiff),
			Algorithm:  core.AlgorithmContent,
			Confidence: cmp.Score,
		})
	}
	return out, nil
}

func contentReasons(cmp feature.Comparison, priceDiff float64) []string {
	reasons := make([]string, 0, 3)
	if len(cmp.SharedCategories) > 0 {
		reasons = append(reasons, "same category as your cart: "+strings.Join(cmp.SharedCategories, ", "))
	}
	if cmp.PriceCompared && cmp.PriceDiff < priceDiff {
		reasons = append(reasons, "similar price range")
	}
	if len(cmp.SharedKeywords) > 0 {
		kw := cmp.SharedKeywords
		if len(kw) > maxKeywordReasons {
			kw = kw[:maxKeywordReasons]
		}
		reasons = append(reasons, "shared keywords: "+strings.Join(kw, ", "))
	}
	if len(reasons) == 0 {
		reasons = append(reasons, "similar to items in your cart")
	}
	return reasons
}
