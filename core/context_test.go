package core

import (
	"testing"
	"time"
)

func TestRecommendContext_NewProfile(t *testing.T) {
	now := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)
	prefs := map[string]any{"diet": "vegetarian"}
	rctx := NewRecommendContext("r1", Request{UserID: "u1", Preferences: prefs}, now)

	// 快照与调用方的 map 隔离
	prefs["diet"] = "keto"

	orders := []OrderRecord{
		{ID: "o1", UserID: "u1", PlacedAt: now.Add(-2 * time.Hour), Lines: []OrderLine{{ItemID: "soup", Quantity: 1}}},
		{ID: "o2", UserID: "u1", PlacedAt: now.Add(-time.Hour), Lines: []OrderLine{{ItemID: "pide", Quantity: 2}, {ItemID: "", Quantity: 1}}},
	}
	p := rctx.NewProfile(orders)
	if p.UserID != "u1" {
		t.Errorf("UserID = %q, want u1", p.UserID)
	}
	if got := p.Preferences["diet"]; got != "vegetarian" {
		t.Errorf("Preferences[diet] = %v, want vegetarian", got)
	}
	if len(p.Lines) != 2 || p.Lines[0].ItemID != "pide" {
		t.Errorf("Lines = %+v, want pide first", p.Lines)
	}

	// 修改画像不影响快照
	p.SetPreference("diet", "vegan")
	if got := rctx.NewProfile(nil).Preferences["diet"]; got != "vegetarian" {
		t.Errorf("snapshot preference = %v, want vegetarian", got)
	}
}

func TestRecommendContext_NewProfileWithoutPreferences(t *testing.T) {
	rctx := NewRecommendContext("r1", Request{UserID: "u1"}, time.Now())
	p := rctx.NewProfile(nil)
	if p.Preferences == nil || len(p.Preferences) != 0 {
		t.Errorf("Preferences = %v, want empty non-nil", p.Preferences)
	}
	if len(p.PurchasedItems()) != 0 {
		t.Errorf("PurchasedItems() = %v, want empty", p.PurchasedItems())
	}
}
