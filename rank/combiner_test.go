package rank

import (
	"math"
	"testing"

	"github.com/rushteam/hybridrec/core"
)

func TestCombiner_Combine(t *testing.T) {
	c := NewCombiner(nil)
	scores := []core.SignalScore{
		{ItemID: "a", RawScore: 100, Algorithm: core.AlgorithmTrending, Confidence: 0.4, Reasons: []string{"hot"}},
		{ItemID: "a", RawScore: 80, Algorithm: core.AlgorithmExternal, Confidence: 0.8, Reasons: []string{"pairs well"}},
		{ItemID: "a", RawScore: 30, Algorithm: core.AlgorithmContextual, Confidence: 0.6, Reasons: []string{"hot"}},
		{ItemID: "b", RawScore: 50, Algorithm: core.AlgorithmCollaborative, Confidence: 0.5, Reasons: []string{"50% of similar users bought this."}},
		{ItemID: "", RawScore: 99, Algorithm: core.AlgorithmContent},
	}
	got := c.Combine(scores)
	if len(got) != 2 {
		t.Fatalf("Combine() returned %d items, want 2", len(got))
	}

	a := got["a"]
	wantA := 0.15*100 + 0.25*80 + 0.15*30
	if math.Abs(a.CombinedScore-wantA) > 1e-9 {
		t.Errorf("a.CombinedScore = %v, want %v", a.CombinedScore, wantA)
	}
	if a.Confidence != 0.8 {
		t.Errorf("a.Confidence = %v, want max 0.8", a.Confidence)
	}
	wantAlgs := []string{core.AlgorithmTrending, core.AlgorithmExternal, core.AlgorithmContextual}
	for i, alg := range wantAlgs {
		if a.Algorithms[i] != alg {
			t.Errorf("a.Algorithms = %v, want %v", a.Algorithms, wantAlgs)
			break
		}
	}
	// 合并阶段不去重理由，去重在排序阶段
	if len(a.Reasons) != 3 {
		t.Errorf("a.Reasons = %v, want 3 entries", a.Reasons)
	}

	if b := got["b"]; math.Abs(b.CombinedScore-12.5) > 1e-9 {
		t.Errorf("b.CombinedScore = %v, want 12.5", b.CombinedScore)
	}
}

func TestCombiner_MonotonicNonDecreasing(t *testing.T) {
	c := NewCombiner(Weights{
		core.AlgorithmTrending: 0.5,
		core.AlgorithmContent:  -0.3, // 负权重按 0 处理
	})
	scores := []core.SignalScore{
		{ItemID: "a", RawScore: 40, Algorithm: core.AlgorithmTrending},
		{ItemID: "a", RawScore: 90, Algorithm: core.AlgorithmContent},
		{ItemID: "a", RawScore: -50, Algorithm: core.AlgorithmTrending},
		{ItemID: "a", RawScore: math.NaN(), Algorithm: core.AlgorithmTrending},
		{ItemID: "a", RawScore: 10, Algorithm: "unknown", Reasons: []string{"extra"}},
	}
	prev := 0.0
	for i := range scores {
		got := c.Combine(scores[:i+1])["a"].CombinedScore
		if got < prev {
			t.Fatalf("CombinedScore decreased at step %d: %v -> %v", i, prev, got)
		}
		prev = got
	}
	if prev != 20 {
		t.Errorf("final CombinedScore = %v, want 20", prev)
	}
}

func TestCombiner_EmptyInput(t *testing.T) {
	got := NewCombiner(nil).Combine(nil)
	if got == nil || len(got) != 0 {
		t.Errorf("Combine(nil) = %v, want empty non-nil map", got)
	}
}

func TestNewCombiner_CopiesWeights(t *testing.T) {
	w := DefaultWeights()
	c := NewCombiner(w)
	w[core.AlgorithmTrending] = 10
	if c.Weights[core.AlgorithmTrending] != 0.15 {
		t.Errorf("combiner weights changed with caller map: %v", c.Weights)
	}
}
