package rerank

import (
	"context"
	"testing"
	"time"

	"github.com/rushteam/hybridrec/core"
	"github.com/rushteam/hybridrec/filter"
	"github.com/rushteam/hybridrec/pipeline"
)

func candidates(ids ...string) []core.CatalogItem {
	out := make([]core.CatalogItem, 0, len(ids))
	for _, id := range ids {
		out = append(out, core.CatalogItem{ID: id, Name: "Item " + id, Category: "cat-" + id})
	}
	return out
}

func merged(id string, score float64, algs []string, reasons ...string) *core.MergedScore {
	return &core.MergedScore{ItemID: id, CombinedScore: score, Algorithms: algs, Reasons: reasons, Confidence: 0.5}
}

func TestRanker_Rank(t *testing.T) {
	rctx := core.NewRecommendContext("r1", core.Request{
		Cart:       []core.CartLine{{Item: core.CatalogItem{ID: "cart"}, Quantity: 1}},
		Candidates: candidates("a", "b", "c", "d", "cart"),
	}, time.Now())

	in := map[string]*core.MergedScore{
		"a":       merged("a", 50, []string{core.AlgorithmContent}, "same category as your cart: pizza", "same category as your cart: pizza"),
		"b":       merged("b", 90, []string{core.AlgorithmCollaborative, core.AlgorithmTrending}, "hot", "Hot", "hot"),
		"c":       merged("c", 50, []string{core.AlgorithmExternal}),
		"d":       merged("d", 65, []string{core.AlgorithmContextual, core.AlgorithmContent}, "ideal for morning"),
		"cart":    merged("cart", 999, []string{core.AlgorithmTrending}, "in cart"),
		"missing": merged("missing", 500, []string{core.AlgorithmTrending}, "not a candidate"),
	}

	got, err := NewRanker(nil).Rank(context.Background(), rctx, in)
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}

	wantOrder := []string{"b", "d", "a", "c"}
	if len(got) != len(wantOrder) {
		t.Fatalf("Rank() returned %d items: %+v", len(got), got)
	}
	for i, id := range wantOrder {
		if got[i].ItemID != id {
			t.Errorf("got[%d] = %s, want %s", i, got[i].ItemID, id)
		}
	}

	wantMeta := map[string]struct {
		category core.RecommendationCategory
		urgency  core.Urgency
		reasons  int
	}{
		"b": {core.CategoryTrending, core.UrgencyHigh, 2},
		"d": {core.CategorySeasonal, core.UrgencyMedium, 1},
		"a": {core.CategorySimilar, core.UrgencyLow, 1},
		"c": {core.CategoryPersonalized, core.UrgencyLow, 0},
	}
	for _, r := range got {
		w := wantMeta[r.ItemID]
		if r.Category != w.category || r.Urgency != w.urgency || len(r.Reasons) != w.reasons {
			t.Errorf("%s: category=%s urgency=%s reasons=%v, want %s %s %d",
				r.ItemID, r.Category, r.Urgency, r.Reasons, w.category, w.urgency, w.reasons)
		}
		if r.Reasons == nil {
			t.Errorf("%s: Reasons must not be nil", r.ItemID)
		}
		if r.Item.ID != r.ItemID {
			t.Errorf("%s: Item not attached", r.ItemID)
		}
	}

	// 输入不被修改
	if len(in["a"].Reasons) != 2 {
		t.Errorf("merged input mutated: %v", in["a"].Reasons)
	}
}

func TestRanker_Limit(t *testing.T) {
	ids := []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k", "l"}
	in := make(map[string]*core.MergedScore, len(ids))
	for i, id := range ids {
		in[id] = merged(id, float64(100-i), []string{core.AlgorithmContent})
	}

	tests := []struct {
		name  string
		limit int
		want  int
	}{
		{name: "default ten", limit: 0, want: 10},
		{name: "explicit three", limit: 3, want: 3},
		{name: "limit above size", limit: 50, want: 12},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rctx := core.NewRecommendContext("r", core.Request{Candidates: candidates(ids...), Limit: tt.limit}, time.Now())
			got, err := NewRanker(nil).Rank(context.Background(), rctx, in)
			if err != nil {
				t.Fatal(err)
			}
			if len(got) != tt.want {
				t.Errorf("len = %d, want %d", len(got), tt.want)
			}
			if got[0].ItemID != "a" {
				t.Errorf("first = %s, want a", got[0].ItemID)
			}
		})
	}
}

func TestRanker_CustomPipelineStillExcludesCart(t *testing.T) {
	rctx := core.NewRecommendContext("r", core.Request{
		Cart:       []core.CartLine{{Item: core.CatalogItem{ID: "a"}, Quantity: 1}},
		Candidates: candidates("a", "b"),
	}, time.Now())
	in := map[string]*core.MergedScore{
		"a": merged("a", 90, nil),
		"b": merged("b", 10, nil),
	}
	r := NewRanker(&pipeline.Pipeline{Nodes: []pipeline.Node{&SortNode{}}})
	got, err := r.Rank(context.Background(), rctx, in)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].ItemID != "b" {
		t.Errorf("Rank() = %+v, want only b", got)
	}
}

func TestRanker_Empty(t *testing.T) {
	rctx := core.NewRecommendContext("r", core.Request{}, time.Now())
	got, err := NewRanker(nil).Rank(context.Background(), rctx, nil)
	if err != nil || got == nil || len(got) != 0 {
		t.Errorf("Rank() = %v, %v, want empty non-nil", got, err)
	}
}

func TestRanker_CustomPipelineKeepsOrderAndDedupe(t *testing.T) {
	rctx := core.NewRecommendContext("r", core.Request{
		Candidates: []core.CatalogItem{
			{ID: "a", Name: "Adana", Category: "kebap"},
			{ID: "b", Name: "Urfa", Category: "kebap"},
			{ID: "c", Name: "Beyti", Category: "kebap"},
			{ID: "d", Name: "Ayran", Category: "drink"},
		},
	}, time.Now())
	in := map[string]*core.MergedScore{
		"a": merged("a", 90, []string{core.AlgorithmTrending}, "x", "x"),
		"b": merged("b", 80, []string{core.AlgorithmTrending}),
		"c": merged("c", 70, []string{core.AlgorithmTrending}),
		"d": merged("d", 10, []string{core.AlgorithmContent}),
	}

	tests := []struct {
		name  string
		nodes []pipeline.Node
		want  []string
	}{
		{
			name: "diversity after classify",
			nodes: []pipeline.Node{
				filter.NewInCartNode(), &SortNode{}, &ClassifyNode{}, &Diversity{MaxPerCategory: 2}, &TopNNode{},
			},
			want: []string{"a", "b", "d"},
		},
		{
			name:  "sort and topn only",
			nodes: []pipeline.Node{&SortNode{}, &TopNNode{}},
			want:  []string{"a", "b", "c", "d"},
		},
		{
			name:  "no nodes",
			nodes: nil,
			want:  []string{"a", "b", "c", "d"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewRanker(&pipeline.Pipeline{Nodes: tt.nodes}).Rank(context.Background(), rctx, in)
			if err != nil {
				t.Fatal(err)
			}
			gotIDs := make([]string, 0, len(got))
			for i, r := range got {
				gotIDs = append(gotIDs, r.ItemID)
				if i > 0 && got[i-1].FinalScore < r.FinalScore {
					t.Errorf("not sorted at %d: %v < %v", i, got[i-1].FinalScore, r.FinalScore)
				}
				if r.ItemID == "a" && len(r.Reasons) != 1 {
					t.Errorf("a reasons = %v, want [x]", r.Reasons)
				}
			}
			if len(gotIDs) != len(tt.want) {
				t.Fatalf("Rank() = %v, want %v", gotIDs, tt.want)
			}
			for i := range tt.want {
				if gotIDs[i] != tt.want[i] {
					t.Fatalf("Rank() = %v, want %v", gotIDs, tt.want)
				}
			}
		})
	}
}
