package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/AdonayRH/wahisper-sub000/core"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements core.InventoryGateway, core.OrderStore and
// core.AdminAuthorizer on a single sqlite database. The conditional
// decrement relies on sqlite's per-statement atomicity:
// UPDATE ... WHERE stock >= n either applies fully or not at all.
type SQLiteStore struct {
	db *sql.DB
}

// Interface compliance (compile-time assertions)
var (
	_ core.InventoryGateway = (*SQLiteStore)(nil)
	_ core.OrderStore       = (*sqliteOrders)(nil)
	_ core.AdminAuthorizer  = (*SQLiteStore)(nil)
)

// NewSQLite opens (creating if needed) a sqlite-backed store. Pass
// ":memory:" for an ephemeral database in tests.
func NewSQLite(dbPath string) (*SQLiteStore, error) {
	dsn := dbPath
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
		// WAL mode for better concurrency.
		dsn = dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	if dbPath == ":memory:" {
		// A second connection would see its own empty memory database.
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS products (
		code TEXT PRIMARY KEY,
		description TEXT NOT NULL DEFAULT '',
		price REAL NOT NULL DEFAULT 0,
		stock INTEGER NOT NULL DEFAULT 0,
		updated_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS orders (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		total REAL NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_orders_user ON orders(user_id);

	CREATE TABLE IF NOT EXISTS order_lines (
		order_id TEXT NOT NULL REFERENCES orders(id),
		position INTEGER NOT NULL,
		code TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		unit_price REAL NOT NULL,
		quantity INTEGER NOT NULL,
		subtotal REAL NOT NULL,
		PRIMARY KEY (order_id, position)
	);

	CREATE TABLE IF NOT EXISTS admins (
		user_id TEXT PRIMARY KEY
	);`
	_, err := s.db.Exec(query)
	return err
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

// Close closes the database connection.
func (s *SQLiteStore) Close() error { return s.db.Close() }

// Availability reads the live stock level. Unknown codes report sold out.
func (s *SQLiteStore) Availability(ctx context.Context, code string) (core.Availability, error) {
	var stock int
	err := s.db.QueryRowContext(ctx, `SELECT stock FROM products WHERE code = ?`, code).Scan(&stock)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Availability{}, nil
	}
	if err != nil {
		return core.Availability{}, fmt.Errorf("read stock for %s: %w", code, err)
	}
	return core.Availability{Available: stock > 0, Stock: stock}, nil
}

// Decrement subtracts n from stock only if stock >= n. The single UPDATE
// statement is the atomic reservation primitive.
func (s *SQLiteStore) Decrement(ctx context.Context, code string, n int) (bool, error) {
	if n < 1 {
		return false, &core.ValidationError{Field: "quantity", Reason: fmt.Sprintf("must be >= 1, got %d", n)}
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE products SET stock = stock - ?, updated_at = ? WHERE code = ? AND stock >= ?`,
		n, time.Now().Unix(), code, n)
	if err != nil {
		return false, fmt.Errorf("decrement %s: %w", code, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if affected == 0 {
		// Short on stock or unknown code; distinguish for the caller.
		var exists int
		if err := s.db.QueryRowContext(ctx, `SELECT 1 FROM products WHERE code = ?`, code).Scan(&exists); errors.Is(err, sql.ErrNoRows) {
			return false, fmt.Errorf("product %s: %w", code, core.ErrNotFound)
		} else if err != nil {
			return false, err
		}
		return false, nil
	}
	return true, nil
}

// Increment adds n back to stock (rollback path).
func (s *SQLiteStore) Increment(ctx context.Context, code string, n int) error {
	if n < 1 {
		return &core.ValidationError{Field: "quantity", Reason: fmt.Sprintf("must be >= 1, got %d", n)}
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE products SET stock = stock + ?, updated_at = ? WHERE code = ?`,
		n, time.Now().Unix(), code)
	if err != nil {
		return fmt.Errorf("increment %s: %w", code, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("product %s: %w", code, core.ErrNotFound)
	}
	return nil
}

// Get returns the full product record.
func (s *SQLiteStore) Get(ctx context.Context, code string) (core.Product, error) {
	var p core.Product
	err := s.db.QueryRowContext(ctx,
		`SELECT code, description, price, stock FROM products WHERE code = ?`, code).
		Scan(&p.Code, &p.Description, &p.Price, &p.Stock)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Product{}, fmt.Errorf("product %s: %w", code, core.ErrNotFound)
	}
	if err != nil {
		return core.Product{}, fmt.Errorf("read product %s: %w", code, err)
	}
	return p, nil
}

// Search returns up to limit products matching the query against code or
// description, case-insensitive.
func (s *SQLiteStore) Search(ctx context.Context, query string, limit int) ([]core.Product, error) {
	if limit <= 0 {
		limit = 10
	}
	like := "%" + query + "%"
	rows, err := s.db.QueryContext(ctx, `
		SELECT code, description, price, stock FROM products
		WHERE code LIKE ? COLLATE NOCASE OR description LIKE ? COLLATE NOCASE
		ORDER BY code LIMIT ?`, like, like, limit)
	if err != nil {
		return nil, fmt.Errorf("search products: %w", err)
	}
	defer rows.Close()
	var out []core.Product
	for rows.Next() {
		var p core.Product
		if err := rows.Scan(&p.Code, &p.Description, &p.Price, &p.Stock); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Upsert inserts or replaces product records in one transaction.
func (s *SQLiteStore) Upsert(ctx context.Context, products []core.Product) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().Unix()
	for _, p := range products {
		if p.Code == "" {
			return &core.ValidationError{Field: "code", Reason: "empty product code"}
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO products(code, description, price, stock, updated_at)
			VALUES(?, ?, ?, ?, ?)
			ON CONFLICT(code) DO UPDATE SET
				description = excluded.description,
				price = excluded.price,
				stock = excluded.stock,
				updated_at = excluded.updated_at`,
			p.Code, p.Description, core.NormalizePrice(p.Price), p.Stock, now)
		if err != nil {
			return fmt.Errorf("upsert product %s: %w", p.Code, err)
		}
	}
	return tx.Commit()
}

// Create persists an order and its lines in one transaction.
func (s *SQLiteStore) Create(ctx context.Context, order core.Order) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin order insert: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO orders(id, user_id, total, created_at) VALUES(?, ?, ?, ?)`,
		order.ID, order.UserID, order.Total, order.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("insert order %s: %w", order.ID, err)
	}
	for i, l := range order.Lines {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_lines(order_id, position, code, description, unit_price, quantity, subtotal)
			VALUES(?, ?, ?, ?, ?, ?, ?)`,
			order.ID, i, l.Code, l.Description, l.UnitPrice, l.Quantity, l.Subtotal)
		if err != nil {
			return fmt.Errorf("insert order line %d: %w", i, err)
		}
	}
	return tx.Commit()
}

// Orders returns a narrow core.OrderStore view. OrderStore's Get collides
// with the product Get on the combined store, so the order reads hang off
// this view type.
func (s *SQLiteStore) Orders() core.OrderStore { return (*sqliteOrders)(s) }

// sqliteOrders is a typed view exposing only the order operations.
type sqliteOrders SQLiteStore

func (s *sqliteOrders) Create(ctx context.Context, order core.Order) error {
	return (*SQLiteStore)(s).Create(ctx, order)
}

func (s *sqliteOrders) Get(ctx context.Context, id string) (core.Order, error) {
	st := (*SQLiteStore)(s)
	var o core.Order
	var createdAt int64
	err := st.db.QueryRowContext(ctx,
		`SELECT id, user_id, total, created_at FROM orders WHERE id = ?`, id).
		Scan(&o.ID, &o.UserID, &o.Total, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Order{}, fmt.Errorf("order %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Order{}, fmt.Errorf("read order %s: %w", id, err)
	}
	o.CreatedAt = time.Unix(createdAt, 0).UTC()
	o.Lines, err = st.orderLines(ctx, id)
	return o, err
}

func (s *sqliteOrders) ListByUser(ctx context.Context, userID string) ([]core.Order, error) {
	st := (*SQLiteStore)(s)
	rows, err := st.db.QueryContext(ctx,
		`SELECT id, user_id, total, created_at FROM orders WHERE user_id = ? ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()
	var out []core.Order
	for rows.Next() {
		var o core.Order
		var createdAt int64
		if err := rows.Scan(&o.ID, &o.UserID, &o.Total, &createdAt); err != nil {
			return nil, err
		}
		o.CreatedAt = time.Unix(createdAt, 0).UTC()
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		if out[i].Lines, err = st.orderLines(ctx, out[i].ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *SQLiteStore) orderLines(ctx context.Context, orderID string) ([]core.OrderLine, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT code, description, unit_price, quantity, subtotal
		FROM order_lines WHERE order_id = ? ORDER BY position`, orderID)
	if err != nil {
		return nil, fmt.Errorf("read order lines: %w", err)
	}
	defer rows.Close()
	var lines []core.OrderLine
	for rows.Next() {
		var l core.OrderLine
		if err := rows.Scan(&l.Code, &l.Description, &l.UnitPrice, &l.Quantity, &l.Subtotal); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

// IsAdmin reports whether the user holds the administrator capability.
func (s *SQLiteStore) IsAdmin(ctx context.Context, userID string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM admins WHERE user_id = ?`, userID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read admin flag: %w", err)
	}
	return true, nil
}

// GrantAdmin adds a user to the admin set. Idempotent.
func (s *SQLiteStore) GrantAdmin(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO admins(user_id) VALUES(?) ON CONFLICT(user_id) DO NOTHING`, userID)
	return err
}
