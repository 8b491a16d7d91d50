package builders

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rushteam/hybridrec/config"
	"github.com/rushteam/hybridrec/core"
	"github.com/rushteam/hybridrec/rerank"
)

func TestRegisteredTypes(t *testing.T) {
	want := []string{
		"filter.blacklist", "filter.in_cart", "filter.min_score",
		"rerank.classify", "rerank.diversity", "rerank.sort", "rerank.topn",
	}
	got := config.SupportedTypes()
	if len(got) != len(want) {
		t.Fatalf("SupportedTypes() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("SupportedTypes()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestLoadPipeline_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pipeline.yaml")
	yml := `
pipeline:
  name: campus
  nodes:
    - type: filter.in_cart
    - type: filter.blacklist
      config:
        item_ids: ["sold-out", 42]
    - type: filter.min_score
      config:
        min: 10
    - type: rerank.sort
    - type: rerank.classify
    - type: rerank.topn
      config:
        n: 2
`
	if err := os.WriteFile(path, []byte(yml), 0o600); err != nil {
		t.Fatal(err)
	}
	p, err := config.LoadPipeline(path)
	if err != nil {
		t.Fatalf("LoadPipeline() error = %v", err)
	}
	if len(p.Nodes) != 6 {
		t.Fatalf("len(Nodes) = %d, want 6", len(p.Nodes))
	}

	candidates := []core.CatalogItem{
		{ID: "a", Name: "Ayran", Category: "drink"},
		{ID: "b", Name: "Baklava", Category: "dessert"},
		{ID: "sold-out", Name: "Künefe", Category: "dessert"},
		{ID: "42", Name: "Lahmacun", Category: "main"},
		{ID: "low", Name: "Su", Category: "drink"},
		{ID: "cart", Name: "Adana", Category: "kebap"},
	}
	req := core.Request{
		Cart:       []core.CartLine{{Item: candidates[5], Quantity: 1}},
		Candidates: candidates,
	}
	rctx := core.NewRecommendContext("r1", req, time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC))
	merged := map[string]*core.MergedScore{
		"a":        {ItemID: "a", CombinedScore: 40, Algorithms: []string{core.AlgorithmContent}},
		"b":        {ItemID: "b", CombinedScore: 70, Algorithms: []string{core.AlgorithmTrending}},
		"sold-out": {ItemID: "sold-out", CombinedScore: 90},
		"42":       {ItemID: "42", CombinedScore: 95},
		"low":      {ItemID: "low", CombinedScore: 5},
		"cart":     {ItemID: "cart", CombinedScore: 99},
	}

	out, err := rerank.NewRanker(p).Rank(context.Background(), rctx, merged)
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}
	if len(out) != 2 || out[0].ItemID != "b" || out[1].ItemID != "a" {
		t.Fatalf("Rank() = %+v, want [b a]", out)
	}
	if out[0].Category != core.CategoryTrending || out[0].Urgency != core.UrgencyMedium {
		t.Errorf("out[0] category/urgency = %s/%s", out[0].Category, out[0].Urgency)
	}
}

func TestLoadPipeline_UnknownType(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pipeline.json")
	js := `{"pipeline":{"nodes":[{"type":"rank.lr"}]}}`
	if err := os.WriteFile(path, []byte(js), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := config.LoadPipeline(path); err == nil {
		t.Fatal("LoadPipeline() expected error for unsupported node type")
	}
}

func TestBuilders_Config(t *testing.T) {
	n, err := BuildTopNNode(map[string]any{"n": 3.0})
	if err != nil {
		t.Fatal(err)
	}
	if topn := n.(*rerank.TopNNode); topn.N != 3 {
		t.Errorf("TopNNode.N = %d, want 3", topn.N)
	}

	n, err = BuildClassifyNode(map[string]any{"high": 90, "medium": 70.5})
	if err != nil {
		t.Fatal(err)
	}
	c := n.(*rerank.ClassifyNode)
	if c.HighThreshold != 90 || c.MediumThreshold != 70.5 {
		t.Errorf("ClassifyNode = %+v", c)
	}

	n, err = BuildDiversityNode(nil)
	if err != nil {
		t.Fatal(err)
	}
	if d := n.(*rerank.Diversity); d.MaxPerCategory != 0 {
		t.Errorf("Diversity.MaxPerCategory = %d, want 0 (node default)", d.MaxPerCategory)
	}
}

func TestLoadPipeline_Example(t *testing.T) {
	p, err := config.LoadPipeline("../../examples/config/pipeline.yaml")
	if err != nil {
		t.Fatalf("LoadPipeline(example) error = %v", err)
	}
	if len(p.Nodes) != 5 {
		t.Errorf("len(Nodes) = %d, want 5", len(p.Nodes))
	}
}
