package dsl

import (
	"testing"
	"time"

	"github.com/rushteam/hybridrec/core"
)

func TestProgram_Eval(t *testing.T) {
	soup := core.CatalogItem{ID: "s1", Name: "Mercimek Çorbası", Category: "Soup", Price: core.PriceOf(35), Tags: []string{"Hot"}}

	tests := []struct {
		name string
		expr string
		in   Input
		want bool
	}{
		{
			name: "hour range",
			expr: "hour >= 6 && hour <= 11",
			in:   Input{Hour: 8},
			want: true,
		},
		{
			name: "month membership",
			expr: "month in [11, 12, 1, 2]",
			in:   Input{Month: 7},
			want: false,
		},
		{
			name: "lowercased name contains keyword",
			expr: `["çorba", "soup"].exists(w, item.name.contains(w))`,
			in:   Input{Item: soup},
			want: true,
		},
		{
			name: "category and weather",
			expr: `weather == "rainy" && item.category == "soup"`,
			in:   Input{Weather: "RAINY", Item: soup},
			want: true,
		},
		{
			name: "tags and price",
			expr: `"hot" in item.tags && item.price < 40.0`,
			in:   Input{Item: soup},
			want: true,
		},
		{
			name: "missing price is negative",
			expr: `item.price < 0.0`,
			in:   Input{Item: core.CatalogItem{ID: "x", Name: "Water"}},
			want: true,
		},
		{
			name: "params lookup",
			expr: `"zone" in params && params.zone == "campus"`,
			in:   Input{Params: map[string]any{"zone": "campus"}},
			want: true,
		},
		{
			name: "profile preference",
			expr: `"diet" in profile.preferences && profile.preferences.diet == "vegetarian" && "vegetarian" in item.tags`,
			in: Input{
				Item:    core.CatalogItem{ID: "f1", Name: "Falafel", Tags: []string{"Vegetarian"}},
				Profile: &core.UserBehaviorProfile{UserID: "u1", Preferences: map[string]any{"diet": "vegetarian"}},
			},
			want: true,
		},
		{
			name: "nil profile has empty preferences",
			expr: `!("diet" in profile.preferences) && profile.user_id == ""`,
			in:   Input{},
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Compile(tt.expr)
			if err != nil {
				t.Fatalf("Compile() error = %v", err)
			}
			got, err := p.Eval(tt.in)
			if err != nil {
				t.Fatalf("Eval() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Eval() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCompile_Errors(t *testing.T) {
	for _, expr := range []string{"", "hour +", "hour + 1", "unknown_var == 1"} {
		if _, err := Compile(expr); err == nil {
			t.Errorf("Compile(%q) expected error", expr)
		}
	}
}

func TestCompile_Cached(t *testing.T) {
	a, err := Compile("hour == 1")
	if err != nil {
		t.Fatal(err)
	}
	b, err := Compile("  hour == 1 ")
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Error("expected the same cached program")
	}
}

func TestInputFrom(t *testing.T) {
	rc := core.RequestContext{
		Now:     time.Date(2026, time.January, 15, 19, 30, 0, 0, time.UTC),
		Weather: " Rainy ",
	}
	profile := &core.UserBehaviorProfile{UserID: "u1"}
	in := InputFrom(rc, profile, core.CatalogItem{ID: "1"})
	if in.Hour != 19 || in.Month != 1 || in.Weather != "rainy" || in.Profile != profile {
		t.Errorf("InputFrom() = %+v", in)
	}
}
