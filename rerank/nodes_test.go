package rerank

import (
	"context"
	"testing"

	"github.com/rushteam/hybridrec/core"
)

func TestUrgencyFor(t *testing.T) {
	tests := []struct {
		score float64
		want  core.Urgency
	}{
		{score: 95, want: core.UrgencyHigh},
		{score: 80, want: core.UrgencyMedium},
		{score: 60.5, want: core.UrgencyMedium},
		{score: 60, want: core.UrgencyLow},
		{score: 0, want: core.UrgencyLow},
	}
	for _, tt := range tests {
		if got := UrgencyFor(tt.score, DefaultHighUrgency, DefaultMediumUrgency); got != tt.want {
			t.Errorf("UrgencyFor(%v) = %s, want %s", tt.score, got, tt.want)
		}
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		algs []string
		want core.RecommendationCategory
	}{
		{algs: []string{core.AlgorithmContent, core.AlgorithmTrending}, want: core.CategoryTrending},
		{algs: []string{core.AlgorithmCollaborative, core.AlgorithmContextual}, want: core.CategorySeasonal},
		{algs: []string{core.AlgorithmCollaborative, core.AlgorithmContent}, want: core.CategorySimilar},
		{algs: []string{core.AlgorithmCollaborative}, want: core.CategoryComplementary},
		{algs: []string{core.AlgorithmExternal}, want: core.CategoryPersonalized},
		{algs: nil, want: core.CategoryPersonalized},
	}
	for _, tt := range tests {
		if got := Classify(tt.algs); got != tt.want {
			t.Errorf("Classify(%v) = %s, want %s", tt.algs, got, tt.want)
		}
	}
}

func TestDedupeReasons(t *testing.T) {
	got := DedupeReasons([]string{"b", "a", "b", "", "A", "a"})
	want := []string{"b", "a", "A"}
	if len(got) != len(want) {
		t.Fatalf("DedupeReasons() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("DedupeReasons()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestDiversity_Process(t *testing.T) {
	rec := func(id, cat string) *core.Recommendation {
		return &core.Recommendation{ItemID: id, Item: core.CatalogItem{ID: id, Category: cat}}
	}
	items := []*core.Recommendation{
		rec("1", "Pizza"), rec("2", "pizza"), rec("3", "PIZZA"), rec("4", "drink"), rec("5", ""),
	}
	got, err := (&Diversity{MaxPerCategory: 2}).Process(context.Background(), nil, items)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"1", "2", "4", "5"}
	if len(got) != len(want) {
		t.Fatalf("Process() = %v, want %v", ids(got), want)
	}
	for i, id := range want {
		if got[i].ItemID != id {
			t.Fatalf("order = %v, want %v", ids(got), want)
		}
	}
}

func TestTopNNode_UsesRequestLimit(t *testing.T) {
	items := make([]*core.Recommendation, 5)
	for i := range items {
		items[i] = &core.Recommendation{}
	}
	got, _ := (&TopNNode{}).Process(context.Background(), &core.RecommendContext{Limit: 2}, items)
	if len(got) != 2 {
		t.Errorf("len = %d, want 2", len(got))
	}
	got, _ = (&TopNNode{N: 4}).Process(context.Background(), &core.RecommendContext{Limit: 2}, items)
	if len(got) != 4 {
		t.Errorf("len = %d, want 4", len(got))
	}
}

func ids(items []*core.Recommendation) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.ItemID)
	}
	return out
}
