package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/rushteam/hybridrec/core"
)

// Dialect 是 SQLOrderStore 支持的数据库方言。
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

// driverName 返回 database/sql 驱动名。
func (d Dialect) driverName() (string, error) {
	switch d {
	case DialectPostgres:
		return "pgx", nil
	case DialectSQLite:
		return "sqlite", nil
	default:
		return "", fmt.Errorf("unsupported sql dialect %q", d)
	}
}

// placeholder 返回第 n 个（从 1 开始）参数占位符。
func (d Dialect) placeholder(n int) string {
	if d == DialectPostgres {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS orders (
	id           TEXT PRIMARY KEY,
	user_id      TEXT NOT NULL,
	merchant_id  TEXT NOT NULL,
	placed_at_ms BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_orders_user ON orders (user_id, placed_at_ms);
CREATE INDEX IF NOT EXISTS idx_orders_merchant ON orders (merchant_id, placed_at_ms);
CREATE TABLE IF NOT EXISTS order_lines (
	order_id TEXT NOT NULL REFERENCES orders (id) ON DELETE CASCADE,
	item_id  TEXT NOT NULL,
	quantity INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_order_lines_order ON order_lines (order_id);
`

// SQLOrderStore 是基于 database/sql 的交易历史存储。
// Postgres 使用 pgx stdlib 驱动，SQLite 使用 modernc.org/sqlite（纯 Go，无需 cgo）。
// 下单时间以毫秒时间戳存储。
type SQLOrderStore struct {
	db      *sql.DB
	dialect Dialect

	// PoolHistoryLimit 比较池中每个用户返回的订单数，<= 0 时使用 DefaultPoolHistoryLimit
	PoolHistoryLimit int
}

// OpenSQLOrderStore 打开数据库并检查连通性。SQLite 的 dsn 为文件路径。
func OpenSQLOrderStore(ctx context.Context, dialect Dialect, dsn string) (*SQLOrderStore, error) {
	driver, err := dialect.driverName()
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if dialect == DialectSQLite {
		// SQLite 单写者，避免 database is locked
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxIdleConns(8)
		db.SetMaxOpenConns(30)
		db.SetConnMaxLifetime(30 * time.Minute)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, unavailable(string(dialect), err)
	}
	return NewSQLOrderStore(db, dialect), nil
}

// NewSQLOrderStore 使用已有的连接池创建存储。
func NewSQLOrderStore(db *sql.DB, dialect Dialect) *SQLOrderStore {
	return &SQLOrderStore{db: db, dialect: dialect}
}

func (s *SQLOrderStore) Name() string { return "sql:" + string(s.dialect) }

// EnsureSchema 创建表与索引（幂等）。
func (s *SQLOrderStore) EnsureSchema(ctx context.Context) error {
	if s.dialect == DialectSQLite {
		if _, err := s.db.ExecContext(ctx, `PRAGMA foreign_keys = ON`); err != nil {
			return fmt.Errorf("enable foreign keys: %w", err)
		}
	}
	for _, stmt := range strings.Split(schemaSQL, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

func (s *SQLOrderStore) Close() error {
	return s.db.Close()
}

func (s *SQLOrderStore) AppendOrder(ctx context.Context, order core.OrderRecord) error {
	o, err := normalizeOrder(order)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return unavailable(string(s.dialect), err)
	}
	defer func() { _ = tx.Rollback() }()

	p := s.dialect.placeholder
	_, err = tx.ExecContext(ctx,
		`INSERT INTO orders (id, user_id, merchant_id, placed_at_ms) VALUES (`+p(1)+`, `+p(2)+`, `+p(3)+`, `+p(4)+`)`,
		o.ID, o.UserID, o.MerchantID, o.PlacedAt.UnixMilli())
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: duplicate order id %s", core.ErrInvalidOrder, o.ID)
		}
		return unavailable(string(s.dialect), err)
	}

	lineSQL := `INSERT INTO order_lines (order_id, item_id, quantity) VALUES (` + p(1) + `, ` + p(2) + `, ` + p(3) + `)`
	for _, l := range o.Lines {
		if _, err := tx.ExecContext(ctx, lineSQL, o.ID, l.ItemID, l.Quantity); err != nil {
			return unavailable(string(s.dialect), err)
		}
	}
	if err := tx.Commit(); err != nil {
		return unavailable(string(s.dialect), err)
	}
	return nil
}

func (s *SQLOrderStore) FetchUserOrderHistory(ctx context.Context, userID string, limit int) ([]core.OrderRecord, error) {
	p := s.dialect.placeholder
	query := `SELECT id, user_id, merchant_id, placed_at_ms FROM orders WHERE user_id = ` + p(1) +
		` ORDER BY placed_at_ms DESC, id`
	args := []any{userID}
	if limit > 0 {
		query += ` LIMIT ` + p(2)
		args = append(args, limit)
	}
	return s.queryOrders(ctx, query, args...)
}

func (s *SQLOrderStore) FetchComparisonPoolHistories(ctx context.Context, excludeUserID string, poolSize int) ([]core.UserHistory, error) {
	if poolSize <= 0 {
		return []core.UserHistory{}, nil
	}
	perUser := s.PoolHistoryLimit
	if perUser <= 0 {
		perUser = DefaultPoolHistoryLimit
	}

	p := s.dialect.placeholder
	rows, err := s.db.QueryContext(ctx, `
		SELECT user_id, MAX(placed_at_ms) AS last_active
		FROM orders
		WHERE user_id <> `+p(1)+`
		GROUP BY user_id
		ORDER BY last_active DESC, user_id
		LIMIT `+p(2), excludeUserID, poolSize)
	if err != nil {
		return nil, unavailable(string(s.dialect), err)
	}
	users := make([]string, 0, poolSize)
	for rows.Next() {
		var (
			u    string
			last int64
		)
		if err := rows.Scan(&u, &last); err != nil {
			rows.Close()
			return nil, unavailable(string(s.dialect), err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, unavailable(string(s.dialect), err)
	}
	rows.Close()
	if len(users) == 0 {
		return []core.UserHistory{}, nil
	}

	placeholders := make([]string, len(users))
	args := make([]any, len(users))
	for i, u := range users {
		placeholders[i] = p(i + 1)
		args[i] = u
	}
	orders, err := s.queryOrders(ctx, `
		SELECT id, user_id, merchant_id, placed_at_ms
		FROM orders
		WHERE user_id IN (`+strings.Join(placeholders, ", ")+`)
		ORDER BY placed_at_ms DESC, id`, args...)
	if err != nil {
		return nil, err
	}

	byUser := make(map[string][]core.OrderRecord, len(users))
	for _, o := range orders {
		if len(byUser[o.UserID]) < perUser {
			byUser[o.UserID] = append(byUser[o.UserID], o)
		}
	}
	out := make([]core.UserHistory, 0, len(users))
	for _, u := range users {
		out = append(out, core.UserHistory{UserID: u, Orders: byUser[u]})
	}
	return out, nil
}

func (s *SQLOrderStore) FetchRecentMerchantOrders(ctx context.Context, merchantID string, since time.Time) ([]core.OrderRecord, error) {
	p := s.dialect.placeholder
	return s.queryOrders(ctx, `
		SELECT id, user_id, merchant_id, placed_at_ms
		FROM orders
		WHERE merchant_id = `+p(1)+` AND placed_at_ms >= `+p(2)+`
		ORDER BY placed_at_ms DESC, id`, merchantID, since.UnixMilli())
}

// queryOrders 查询订单头并补齐订单行，保持查询顺序。
func (s *SQLOrderStore) queryOrders(ctx context.Context, query string, args ...any) ([]core.OrderRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, unavailable(string(s.dialect), err)
	}
	orders := make([]core.OrderRecord, 0)
	for rows.Next() {
		var (
			o  core.OrderRecord
			ms int64
		)
		if err := rows.Scan(&o.ID, &o.UserID, &o.MerchantID, &ms); err != nil {
			rows.Close()
			return nil, unavailable(string(s.dialect), err)
		}
		o.PlacedAt = time.UnixMilli(ms).UTC()
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, unavailable(string(s.dialect), err)
	}
	rows.Close()

	if err := s.loadLines(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (s *SQLOrderStore) loadLines(ctx context.Context, orders []core.OrderRecord) error {
	if len(orders) == 0 {
		return nil
	}
	index := make(map[string]int, len(orders))
	placeholders := make([]string, len(orders))
	args := make([]any, len(orders))
	for i, o := range orders {
		index[o.ID] = i
		placeholders[i] = s.dialect.placeholder(i + 1)
		args[i] = o.ID
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT order_id, item_id, quantity
		FROM order_lines
		WHERE order_id IN (`+strings.Join(placeholders, ", ")+`)`, args...)
	if err != nil {
		return unavailable(string(s.dialect), err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			orderID string
			line    core.OrderLine
		)
		if err := rows.Scan(&orderID, &line.ItemID, &line.Quantity); err != nil {
			return unavailable(string(s.dialect), err)
		}
		if i, ok := index[orderID]; ok {
			orders[i].Lines = append(orders[i].Lines, line)
		}
	}
	if err := rows.Err(); err != nil {
		return unavailable(string(s.dialect), err)
	}
	return nil
}

// isUniqueViolation 判断是否为主键/唯一约束冲突。
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	// modernc sqlite: "constraint failed: UNIQUE constraint failed: orders.id"
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

var (
	_ core.OrderHistoryStore = (*SQLOrderStore)(nil)
	_ core.OrderWriter       = (*SQLOrderStore)(nil)
)
