package signal

import (
	"context"
	"time"

	"github.com/rushteam/hybridrec/core"
)

// fakeStore 是测试用的交易历史存储。
type fakeStore struct {
	userOrders     map[string][]core.OrderRecord
	pool           []core.UserHistory
	merchantOrders map[string][]core.OrderRecord
	err            error

	lastSince time.Time
}

func (s *fakeStore) Name() string { return "fake" }

func (s *fakeStore) FetchUserOrderHistory(_ context.Context, userID string, limit int) ([]core.OrderRecord, error) {
	if s.err != nil {
		return nil, s.err
	}
	orders := s.userOrders[userID]
	if limit > 0 && len(orders) > limit {
		orders = orders[:limit]
	}
	return orders, nil
}

func (s *fakeStore) FetchComparisonPoolHistories(_ context.Context, excludeUserID string, poolSize int) ([]core.UserHistory, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make([]core.UserHistory, 0, len(s.pool))
	for _, h := range s.pool {
		if h.UserID == excludeUserID {
			continue
		}
		out = append(out, h)
		if len(out) >= poolSize {
			break
		}
	}
	return out, nil
}

func (s *fakeStore) FetchRecentMerchantOrders(_ context.Context, merchantID string, since time.Time) ([]core.OrderRecord, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.lastSince = since
	out := make([]core.OrderRecord, 0)
	for _, o := range s.merchantOrders[merchantID] {
		if !o.PlacedAt.Before(since) {
			out = append(out, o)
		}
	}
	return out, nil
}

func order(userID string, at time.Time, itemIDs ...string) core.OrderRecord {
	lines := make([]core.OrderLine, 0, len(itemIDs))
	for _, id := range itemIDs {
		lines = append(lines, core.OrderLine{ItemID: id, Quantity: 1})
	}
	return core.OrderRecord{ID: userID + "-" + at.Format(time.RFC3339), UserID: userID, MerchantID: "m1", Lines: lines, PlacedAt: at}
}

func history(userID string, itemIDs ...string) core.UserHistory {
	return core.UserHistory{
		UserID: userID,
		Orders: []core.OrderRecord{order(userID, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC), itemIDs...)},
	}
}

func catalog(ids ...string) []core.CatalogItem {
	out := make([]core.CatalogItem, 0, len(ids))
	for _, id := range ids {
		out = append(out, core.CatalogItem{ID: id, Name: "Item " + id})
	}
	return out
}

func newRctx(req core.Request, now time.Time) *core.RecommendContext {
	return core.NewRecommendContext("test", req, now)
}

func scoresByID(scores []core.SignalScore) map[string]core.SignalScore {
	out := make(map[string]core.SignalScore, len(scores))
	for _, s := range scores {
		out[s.ItemID] = s
	}
	return out
}
