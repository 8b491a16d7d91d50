package store

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"github.com/rushteam/hybridrec/core"
)

// DefaultRedisPrefix 是 Redis key 的默认前缀。
const DefaultRedisPrefix = "hybridrec"

// RedisOrderStore 是 Redis 实现的交易历史存储。
//
// 数据布局：
//
//	{prefix}:order:{id}                 string  订单 JSON
//	{prefix}:user:{userID}:orders       zset    member=订单 ID，score=下单时间（毫秒）
//	{prefix}:merchant:{mid}:orders      zset    同上
//	{prefix}:users                      zset    member=用户 ID，score=最近下单时间（毫秒）
type RedisOrderStore struct {
	client *redis.Client
	prefix string

	// PoolHistoryLimit 比较池中每个用户返回的订单数，<= 0 时使用 DefaultPoolHistoryLimit
	PoolHistoryLimit int
}

// NewRedisOrderStore 连接 Redis 并检查连通性。
func NewRedisOrderStore(ctx context.Context, addr string, db int, prefix string) (*RedisOrderStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, unavailable("redis", err)
	}
	return NewRedisOrderStoreWithClient(client, prefix), nil
}

// NewRedisOrderStoreWithClient 使用已有的客户端创建存储。
func NewRedisOrderStoreWithClient(client *redis.Client, prefix string) *RedisOrderStore {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisOrderStore{client: client, prefix: prefix}
}

// appendOrderScript 原子地写入订单并建立三个索引，订单 ID 已存在时什么都不写并返回 0。
//
//	KEYS: order, user orders, merchant orders, users
//	ARGV: payload, score(毫秒), order ID, user ID
var appendOrderScript = redis.NewScript(`
if not redis.call('SET', KEYS[1], ARGV[1], 'NX') then
  return 0
end
redis.call('ZADD', KEYS[2], ARGV[2], ARGV[3])
redis.call('ZADD', KEYS[3], ARGV[2], ARGV[3])
redis.call('ZADD', KEYS[4], 'GT', ARGV[2], ARGV[4])
return 1
`)

func (r *RedisOrderStore) Name() string { return "redis" }

func (r *RedisOrderStore) orderKey(id string) string { return r.prefix + ":order:" + id }
func (r *RedisOrderStore) userKey(id string) string  { return r.prefix + ":user:" + id + ":orders" }
func (r *RedisOrderStore) merchantKey(id string) string {
	return r.prefix + ":merchant:" + id + ":orders"
}
func (r *RedisOrderStore) usersKey() string { return r.prefix + ":users" }

func (r *RedisOrderStore) AppendOrder(ctx context.Context, order core.OrderRecord) error {
	o, err := normalizeOrder(order)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(o)
	if err != nil {
		return err
	}

	keys := []string{r.orderKey(o.ID), r.userKey(o.UserID), r.merchantKey(o.MerchantID), r.usersKey()}
	score := strconv.FormatInt(o.PlacedAt.UnixMilli(), 10)
	created, err := appendOrderScript.Run(ctx, r.client, keys, payload, score, o.ID, o.UserID).Int()
	if err != nil {
		return unavailable("redis", err)
	}
	if created == 0 {
		return fmt.Errorf("%w: duplicate order id %s", core.ErrInvalidOrder, o.ID)
	}
	return nil
}

func (r *RedisOrderStore) FetchUserOrderHistory(ctx context.Context, userID string, limit int) ([]core.OrderRecord, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit - 1)
	}
	ids, err := r.client.ZRevRange(ctx, r.userKey(userID), 0, stop).Result()
	if err != nil {
		return nil, unavailable("redis", err)
	}
	return r.loadOrders(ctx, ids)
}

func (r *RedisOrderStore) FetchComparisonPoolHistories(ctx context.Context, excludeUserID string, poolSize int) ([]core.UserHistory, error) {
	if poolSize <= 0 {
		return []core.UserHistory{}, nil
	}
	perUser := r.PoolHistoryLimit
	if perUser <= 0 {
		perUser = DefaultPoolHistoryLimit
	}

	// 多取一个，排除目标用户后仍能凑满 poolSize
	users, err := r.client.ZRevRange(ctx, r.usersKey(), 0, int64(poolSize)).Result()
	if err != nil {
		return nil, unavailable("redis", err)
	}
	filtered := make([]string, 0, len(users))
	for _, u := range users {
		if u != excludeUserID && len(filtered) < poolSize {
			filtered = append(filtered, u)
		}
	}
	if len(filtered) == 0 {
		return []core.UserHistory{}, nil
	}

	cmds := make([]*redis.StringSliceCmd, len(filtered))
	_, err = r.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, u := range filtered {
			cmds[i] = pipe.ZRevRange(ctx, r.userKey(u), 0, int64(perUser-1))
		}
		return nil
	})
	if err != nil {
		return nil, unavailable("redis", err)
	}

	out := make([]core.UserHistory, 0, len(filtered))
	for i, u := range filtered {
		orders, err := r.loadOrders(ctx, cmds[i].Val())
		if err != nil {
			return nil, err
		}
		out = append(out, core.UserHistory{UserID: u, Orders: orders})
	}
	return out, nil
}

func (r *RedisOrderStore) FetchRecentMerchantOrders(ctx context.Context, merchantID string, since time.Time) ([]core.OrderRecord, error) {
	ids, err := r.client.ZRevRangeByScore(ctx, r.merchantKey(merchantID), &redis.ZRangeBy{
		Min: strconv.FormatInt(since.UnixMilli(), 10),
		Max: "+inf",
	}).Result()
	if err != nil {
		return nil, unavailable("redis", err)
	}
	return r.loadOrders(ctx, ids)
}

// loadOrders 批量读取订单，保持 ids 的顺序；已被删除的订单跳过。
func (r *RedisOrderStore) loadOrders(ctx context.Context, ids []string) ([]core.OrderRecord, error) {
	if len(ids) == 0 {
		return []core.OrderRecord{}, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.orderKey(id)
	}
	vals, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, unavailable("redis", err)
	}

	out := make([]core.OrderRecord, 0, len(vals))
	for _, v := range vals {
		s, ok := v.(string)
		if !ok {
			continue
		}
		var o core.OrderRecord
		if err := json.Unmarshal([]byte(s), &o); err != nil {
			continue
		}
		out = append(out, o)
	}
	sortOrdersDesc(out)
	return out, nil
}

func (r *RedisOrderStore) Close() error {
	return r.client.Close()
}

var (
	_ core.OrderHistoryStore = (*RedisOrderStore)(nil)
	_ core.OrderWriter       = (*RedisOrderStore)(nil)
)
