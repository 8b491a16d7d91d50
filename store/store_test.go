package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rushteam/hybridrec/core"
)

type orderStore interface {
	core.OrderHistoryStore
	core.OrderWriter
}

var base = time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)

func line(id string, qty int) core.OrderLine { return core.OrderLine{ItemID: id, Quantity: qty} }

// seedOrders 写入一组固定订单：u1 最近活跃，u3 最早。
func seedOrders(t *testing.T, s orderStore, prefix string) {
	t.Helper()
	orders := []core.OrderRecord{
		{ID: prefix + "o1", UserID: prefix + "u1", MerchantID: prefix + "m1", PlacedAt: base.Add(-1 * time.Hour), Lines: []core.OrderLine{line("pizza", 1), line("cola", 2)}},
		{ID: prefix + "o2", UserID: prefix + "u1", MerchantID: prefix + "m1", PlacedAt: base.Add(-30 * time.Hour), Lines: []core.OrderLine{line("soup", 1)}},
		{ID: prefix + "o3", UserID: prefix + "u2", MerchantID: prefix + "m1", PlacedAt: base.Add(-2 * time.Hour), Lines: []core.OrderLine{line("pizza", 3)}},
		{ID: prefix + "o4", UserID: prefix + "u3", MerchantID: prefix + "m2", PlacedAt: base.Add(-10 * 24 * time.Hour), Lines: []core.OrderLine{line("kebap", 1)}},
		{ID: prefix + "o5", UserID: prefix + "u2", MerchantID: prefix + "m1", PlacedAt: base.Add(-9 * 24 * time.Hour), Lines: []core.OrderLine{line("ayran", 1), line("", 4), line("bad", 0)}},
	}
	for _, o := range orders {
		if err := s.AppendOrder(context.Background(), o); err != nil {
			t.Fatalf("AppendOrder(%s) error = %v", o.ID, err)
		}
	}
}

func orderIDs(orders []core.OrderRecord) []string {
	out := make([]string, 0, len(orders))
	for _, o := range orders {
		out = append(out, o.ID)
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// runOrderStoreSuite 是所有实现共用的行为测试。prefix 用于共享后端（Redis/Postgres）隔离数据。
func runOrderStoreSuite(t *testing.T, s orderStore, prefix string) {
	ctx := context.Background()
	seedOrders(t, s, prefix)
	p := func(ids ...string) []string {
		out := make([]string, len(ids))
		for i, id := range ids {
			out[i] = prefix + id
		}
		return out
	}

	t.Run("user history newest first with limit", func(t *testing.T) {
		got, err := s.FetchUserOrderHistory(ctx, prefix+"u1", 10)
		if err != nil {
			t.Fatal(err)
		}
		if !equalStrings(orderIDs(got), p("o1", "o2")) {
			t.Errorf("orders = %v", orderIDs(got))
		}
		if len(got[0].Lines) != 2 || !got[0].PlacedAt.Equal(base.Add(-time.Hour)) {
			t.Errorf("first order = %+v", got[0])
		}

		got, err = s.FetchUserOrderHistory(ctx, prefix+"u1", 1)
		if err != nil {
			t.Fatal(err)
		}
		if !equalStrings(orderIDs(got), p("o1")) {
			t.Errorf("limited orders = %v", orderIDs(got))
		}
	})

	t.Run("invalid lines dropped on write", func(t *testing.T) {
		got, err := s.FetchUserOrderHistory(ctx, prefix+"u2", 10)
		if err != nil {
			t.Fatal(err)
		}
		for _, o := range got {
			if o.ID == prefix+"o5" && (len(o.Lines) != 1 || o.Lines[0].ItemID != "ayran") {
				t.Errorf("o5 lines = %+v", o.Lines)
			}
		}
	})

	t.Run("unknown user is empty", func(t *testing.T) {
		got, err := s.FetchUserOrderHistory(ctx, prefix+"nobody", 10)
		if err != nil || len(got) != 0 {
			t.Errorf("got %v, %v", got, err)
		}
	})

	t.Run("comparison pool excludes user and keeps activity order", func(t *testing.T) {
		got, err := s.FetchComparisonPoolHistories(ctx, prefix+"u1", 100)
		if err != nil {
			t.Fatal(err)
		}
		var users []string
		for _, h := range got {
			// 共享后端上可能存在其他测试数据
			if len(h.UserID) > len(prefix) && h.UserID[:len(prefix)] == prefix {
				users = append(users, h.UserID)
			}
		}
		if !equalStrings(users, p("u2", "u3")) {
			t.Errorf("pool users = %v", users)
		}
		for _, h := range got {
			if h.UserID == prefix+"u2" && len(h.Orders) != 2 {
				t.Errorf("u2 orders = %v", orderIDs(h.Orders))
			}
		}
	})

	t.Run("recent merchant orders since window", func(t *testing.T) {
		got, err := s.FetchRecentMerchantOrders(ctx, prefix+"m1", base.Add(-7*24*time.Hour))
		if err != nil {
			t.Fatal(err)
		}
		if !equalStrings(orderIDs(got), p("o1", "o3", "o2")) {
			t.Errorf("orders = %v", orderIDs(got))
		}
	})

	t.Run("since is inclusive", func(t *testing.T) {
		got, err := s.FetchRecentMerchantOrders(ctx, prefix+"m1", base.Add(-2*time.Hour))
		if err != nil {
			t.Fatal(err)
		}
		if !equalStrings(orderIDs(got), p("o1", "o3")) {
			t.Errorf("orders = %v", orderIDs(got))
		}
	})

	t.Run("duplicate and invalid orders rejected", func(t *testing.T) {
		dup := core.OrderRecord{ID: prefix + "o1", UserID: prefix + "u9", MerchantID: prefix + "m1", PlacedAt: base, Lines: []core.OrderLine{line("x", 1)}}
		if err := s.AppendOrder(ctx, dup); !errors.Is(err, core.ErrInvalidOrder) {
			t.Errorf("duplicate AppendOrder() error = %v", err)
		}
		invalid := []core.OrderRecord{
			{UserID: "", MerchantID: "m", PlacedAt: base, Lines: []core.OrderLine{line("x", 1)}},
			{UserID: "u", MerchantID: "m", Lines: []core.OrderLine{line("x", 1)}},
			{UserID: "u", MerchantID: "m", PlacedAt: base, Lines: []core.OrderLine{line("x", 0)}},
		}
		for i, o := range invalid {
			if err := s.AppendOrder(ctx, o); !errors.Is(err, core.ErrInvalidOrder) {
				t.Errorf("invalid[%d] AppendOrder() error = %v", i, err)
			}
		}
	})

	t.Run("generated id", func(t *testing.T) {
		o := core.OrderRecord{UserID: prefix + "u8", MerchantID: prefix + "m3", PlacedAt: base, Lines: []core.OrderLine{line("x", 1)}}
		if err := s.AppendOrder(ctx, o); err != nil {
			t.Fatal(err)
		}
		got, err := s.FetchUserOrderHistory(ctx, prefix+"u8", 1)
		if err != nil || len(got) != 1 || got[0].ID == "" {
			t.Errorf("got %+v, %v", got, err)
		}
	})
}

func TestMemoryOrderStore(t *testing.T) {
	runOrderStoreSuite(t, NewMemoryOrderStore(), "")
}

func TestMemoryOrderStore_PoolSizeAndCancel(t *testing.T) {
	s := NewMemoryOrderStore()
	seedOrders(t, s, "")
	got, err := s.FetchComparisonPoolHistories(context.Background(), "", 1)
	if err != nil || len(got) != 1 || got[0].UserID != "u1" {
		t.Errorf("pool = %+v, %v", got, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.FetchUserOrderHistory(ctx, "u1", 10); !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestMemoryOrderStore_ReturnsCopies(t *testing.T) {
	s := NewMemoryOrderStore(core.OrderRecord{ID: "o", UserID: "u", MerchantID: "m", PlacedAt: base, Lines: []core.OrderLine{line("a", 1)}})
	got, _ := s.FetchUserOrderHistory(context.Background(), "u", 1)
	got[0].Lines[0].ItemID = "mutated"
	again, _ := s.FetchUserOrderHistory(context.Background(), "u", 1)
	if again[0].Lines[0].ItemID != "a" {
		t.Error("store state mutated through returned slice")
	}
}
