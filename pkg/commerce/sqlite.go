package commerce

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite" // Pure-Go SQLite driver
)

const schema = `
CREATE TABLE IF NOT EXISTS products (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	category    TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	price       REAL NOT NULL,
	stock       INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_products_category ON products(category);

CREATE TABLE IF NOT EXISTS cart_items (
	user_id    TEXT NOT NULL,
	product_id TEXT NOT NULL,
	quantity   INTEGER NOT NULL,
	PRIMARY KEY (user_id, product_id)
);

CREATE TABLE IF NOT EXISTS orders (
	id            TEXT PRIMARY KEY,
	user_id       TEXT NOT NULL,
	status        TEXT NOT NULL,
	tracking_code TEXT NOT NULL UNIQUE,
	items_json    TEXT NOT NULL,
	total         REAL NOT NULL,
	coupon_code   TEXT NOT NULL DEFAULT '',
	address_id    TEXT NOT NULL DEFAULT '',
	created_at    TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now'))
);
CREATE INDEX IF NOT EXISTS idx_orders_user ON orders(user_id);

CREATE TABLE IF NOT EXISTS addresses (
	id      TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	label   TEXT NOT NULL,
	street  TEXT NOT NULL,
	city    TEXT NOT NULL,
	zip     TEXT NOT NULL,
	country TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_addresses_user ON addresses(user_id);

CREATE TABLE IF NOT EXISTS coupons (
	code        TEXT PRIMARY KEY,
	percent_off REAL NOT NULL DEFAULT 0,
	amount_off  REAL NOT NULL DEFAULT 0,
	expires_at  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS wishlist_items (
	user_id    TEXT NOT NULL,
	product_id TEXT NOT NULL,
	PRIMARY KEY (user_id, product_id)
);

CREATE TABLE IF NOT EXISTS builds (
	id              TEXT PRIMARY KEY,
	user_id         TEXT NOT NULL,
	components_json TEXT NOT NULL DEFAULT '{}',
	status          TEXT NOT NULL,
	created_at      TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now'))
);

CREATE TABLE IF NOT EXISTS users (
	id            TEXT PRIMARY KEY,
	email         TEXT NOT NULL UNIQUE,
	name          TEXT NOT NULL,
	password_hash TEXT NOT NULL
);
`

// SQLiteService implements Service backed by SQLite.
type SQLiteService struct {
	db *sql.DB
}

// Open creates the commerce database at path, applying the schema.
func Open(path string) (*SQLiteService, error) {
	dsn := fmt.Sprintf("file:%s?_foreign_keys=ON&_journal_mode=WAL&_busy_timeout=5000", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open commerce database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping commerce database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize commerce schema: %w", err)
	}

	// SQLite handles concurrency best with a single writer connection.
	db.SetMaxOpenConns(1)

	return &SQLiteService{db: db}, nil
}

// Close releases the underlying database handle.
func (s *SQLiteService) Close() error {
	return s.db.Close()
}

// --- Catalog ---

func (s *SQLiteService) SearchProducts(ctx context.Context, query string, limit int) ([]Product, error) {
	if limit <= 0 {
		limit = 10
	}
	pattern := "%" + strings.ToLower(strings.TrimSpace(query)) + "%"
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, category, description, price, stock FROM products
		WHERE lower(name) LIKE ? OR lower(description) LIKE ? OR lower(category) LIKE ?
		ORDER BY name LIMIT ?`, pattern, pattern, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search products: %w", err)
	}
	defer rows.Close()
	return scanProducts(rows)
}

func (s *SQLiteService) GetProduct(ctx context.Context, id string) (Product, error) {
	var p Product
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, category, description, price, stock FROM products WHERE id = ?`, id).
		Scan(&p.ID, &p.Name, &p.Category, &p.Description, &p.Price, &p.Stock)
	if errors.Is(err, sql.ErrNoRows) {
		return Product{}, fmt.Errorf("product %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Product{}, fmt.Errorf("failed to get product: %w", err)
	}
	return p, nil
}

func (s *SQLiteService) ProductsByCategory(ctx context.Context, category string, limit int) ([]Product, error) {
	if limit <= 0 {
		limit = 5
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, category, description, price, stock FROM products
		WHERE lower(category) = lower(?) ORDER BY price LIMIT ?`, category, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list products by category: %w", err)
	}
	defer rows.Close()
	return scanProducts(rows)
}

func (s *SQLiteService) ListCategories(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT category FROM products ORDER BY category`)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	var categories []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("category row iteration error: %w", err)
	}
	return categories, nil
}

func (s *SQLiteService) GetPriceRange(ctx context.Context, category string) (PriceRange, error) {
	query := `SELECT COALESCE(MIN(price),0), COALESCE(MAX(price),0), COALESCE(AVG(price),0), COUNT(*) FROM products`
	args := []any{}
	if category != "" {
		query += ` WHERE lower(category) = lower(?)`
		args = append(args, category)
	}

	pr := PriceRange{Category: category}
	err := s.db.QueryRowContext(ctx, query, args...).Scan(&pr.Min, &pr.Max, &pr.Average, &pr.Count)
	if err != nil {
		return PriceRange{}, fmt.Errorf("failed to compute price range: %w", err)
	}
	if pr.Count == 0 {
		return PriceRange{}, fmt.Errorf("price range for %q: %w", category, ErrNotFound)
	}
	return pr, nil
}

func (s *SQLiteService) LowStockProducts(ctx context.Context, threshold int) ([]Product, error) {
	if threshold <= 0 {
		threshold = 5
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, category, description, price, stock FROM products
		WHERE stock <= ? ORDER BY stock, name`, threshold)
	if err != nil {
		return nil, fmt.Errorf("failed to list low-stock products: %w", err)
	}
	defer rows.Close()
	return scanProducts(rows)
}

func scanProducts(rows *sql.Rows) ([]Product, error) {
	var products []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Category, &p.Description, &p.Price, &p.Stock); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("product row iteration error: %w", err)
	}
	return products, nil
}

// --- Cart ---

func (s *SQLiteService) GetCart(ctx context.Context, userID string) (Cart, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT ci.product_id, p.name, p.price, ci.quantity
		FROM cart_items ci JOIN products p ON p.id = ci.product_id
		WHERE ci.user_id = ? ORDER BY p.name`, userID)
	if err != nil {
		return Cart{}, fmt.Errorf("failed to load cart: %w", err)
	}
	defer rows.Close()

	cart := Cart{UserID: userID}
	for rows.Next() {
		var item CartItem
		if err := rows.Scan(&item.ProductID, &item.Name, &item.Price, &item.Quantity); err != nil {
			return Cart{}, fmt.Errorf("failed to scan cart item: %w", err)
		}
		cart.Items = append(cart.Items, item)
		cart.Total += item.Price * float64(item.Quantity)
	}
	if err := rows.Err(); err != nil {
		return Cart{}, fmt.Errorf("cart row iteration error: %w", err)
	}
	return cart, nil
}

func (s *SQLiteService) AddToCart(ctx context.Context, userID, productID string, quantity int) (Cart, error) {
	if quantity <= 0 {
		quantity = 1
	}
	p, err := s.GetProduct(ctx, productID)
	if err != nil {
		return Cart{}, err
	}
	if p.Stock < quantity {
		return Cart{}, fmt.Errorf("product %s: %w", p.Name, ErrOutOfStock)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO cart_items (user_id, product_id, quantity) VALUES (?, ?, ?)
		ON CONFLICT(user_id, product_id) DO UPDATE SET quantity = quantity + excluded.quantity`,
		userID, productID, quantity)
	if err != nil {
		return Cart{}, fmt.Errorf("failed to add to cart: %w", err)
	}
	return s.GetCart(ctx, userID)
}

func (s *SQLiteService) RemoveFromCart(ctx context.Context, userID, productID string) (Cart, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM cart_items WHERE user_id = ? AND product_id = ?`, userID, productID)
	if err != nil {
		return Cart{}, fmt.Errorf("failed to remove from cart: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return Cart{}, fmt.Errorf("cart item %s: %w", productID, ErrNotFound)
	}
	return s.GetCart(ctx, userID)
}

func (s *SQLiteService) UpdateCartItem(ctx context.Context, userID, productID string, quantity int) (Cart, error) {
	if quantity <= 0 {
		return s.RemoveFromCart(ctx, userID, productID)
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE cart_items SET quantity = ? WHERE user_id = ? AND product_id = ?`,
		quantity, userID, productID)
	if err != nil {
		return Cart{}, fmt.Errorf("failed to update cart item: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return Cart{}, fmt.Errorf("cart item %s: %w", productID, ErrNotFound)
	}
	return s.GetCart(ctx, userID)
}

func (s *SQLiteService) ClearCart(ctx context.Context, userID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM cart_items WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}

// --- Orders ---

func (s *SQLiteService) CreateOrder(ctx context.Context, userID, addressID, couponCode string) (Order, error) {
	cart, err := s.GetCart(ctx, userID)
	if err != nil {
		return Order{}, err
	}
	if len(cart.Items) == 0 {
		return Order{}, ErrEmptyCart
	}

	total := cart.Total
	if couponCode != "" {
		coupon, err := s.ValidateCoupon(ctx, couponCode)
		if err != nil {
			return Order{}, err
		}
		total = applyCoupon(total, coupon)
	}

	itemsJSON, err := json.Marshal(cart.Items)
	if err != nil {
		return Order{}, fmt.Errorf("failed to marshal order items: %w", err)
	}

	order := Order{
		ID:           uuid.New().String(),
		UserID:       userID,
		Status:       OrderStatusPlaced,
		TrackingCode: newTrackingCode(),
		Items:        cart.Items,
		Total:        total,
		CouponCode:   couponCode,
		AddressID:    addressID,
		CreatedAt:    time.Now().UTC(),
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO orders (id, user_id, status, tracking_code, items_json, total, coupon_code, address_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		order.ID, order.UserID, order.Status, order.TrackingCode, string(itemsJSON),
		order.Total, order.CouponCode, order.AddressID)
	if err != nil {
		return Order{}, fmt.Errorf("failed to create order: %w", err)
	}

	if err := s.ClearCart(ctx, userID); err != nil {
		return Order{}, err
	}
	return order, nil
}

// applyCoupon discounts a total, flooring at zero.
func applyCoupon(total float64, coupon Coupon) float64 {
	if coupon.PercentOff > 0 {
		total -= total * coupon.PercentOff / 100
	}
	if coupon.AmountOff > 0 {
		total -= coupon.AmountOff
	}
	if total < 0 {
		total = 0
	}
	return total
}

// newTrackingCode generates a code in the carrier's TH- format.
func newTrackingCode() string {
	raw := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", ""))
	return "TH-" + raw[:10]
}

func (s *SQLiteService) TrackOrder(ctx context.Context, trackingCode string) (Order, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, status, tracking_code, items_json, total, coupon_code, address_id, created_at
		FROM orders WHERE tracking_code = ?`, strings.ToUpper(strings.TrimSpace(trackingCode)))
	return scanOrder(row)
}

func (s *SQLiteService) OrderHistory(ctx context.Context, userID string) ([]Order, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, status, tracking_code, items_json, total, coupon_code, address_id, created_at
		FROM orders WHERE user_id = ? ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load order history: %w", err)
	}
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("order row iteration error: %w", err)
	}
	return orders, nil
}

func (s *SQLiteService) CancelOrder(ctx context.Context, userID, orderID string) (Order, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, status, tracking_code, items_json, total, coupon_code, address_id, created_at
		FROM orders WHERE id = ? AND user_id = ?`, orderID, userID)
	order, err := scanOrder(row)
	if err != nil {
		return Order{}, err
	}
	if order.Status != OrderStatusPlaced {
		return Order{}, fmt.Errorf("order %s is %s: %w", orderID, order.Status, ErrNotCancellable)
	}

	if _, err := s.db.ExecContext(ctx,
		`UPDATE orders SET status = ? WHERE id = ?`, OrderStatusCancelled, orderID); err != nil {
		return Order{}, fmt.Errorf("failed to cancel order: %w", err)
	}
	order.Status = OrderStatusCancelled
	return order, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (Order, error) {
	var order Order
	var itemsJSON, createdAt string
	err := row.Scan(&order.ID, &order.UserID, &order.Status, &order.TrackingCode,
		&itemsJSON, &order.Total, &order.CouponCode, &order.AddressID, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Order{}, fmt.Errorf("order: %w", ErrNotFound)
	}
	if err != nil {
		return Order{}, fmt.Errorf("failed to scan order: %w", err)
	}
	if err := json.Unmarshal([]byte(itemsJSON), &order.Items); err != nil {
		return Order{}, fmt.Errorf("failed to unmarshal order items: %w", err)
	}
	if t, err := time.Parse("2006-01-02T15:04:05.000Z", createdAt); err == nil {
		order.CreatedAt = t
	}
	return order, nil
}

// --- Addresses ---

func (s *SQLiteService) ListAddresses(ctx context.Context, userID string) ([]Address, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, label, street, city, zip, country FROM addresses
		WHERE user_id = ? ORDER BY label`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list addresses: %w", err)
	}
	defer rows.Close()

	var addrs []Address
	for rows.Next() {
		var a Address
		if err := rows.Scan(&a.ID, &a.UserID, &a.Label, &a.Street, &a.City, &a.Zip, &a.Country); err != nil {
			return nil, fmt.Errorf("failed to scan address: %w", err)
		}
		addrs = append(addrs, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("address row iteration error: %w", err)
	}
	return addrs, nil
}

func (s *SQLiteService) AddAddress(ctx context.Context, addr Address) (Address, error) {
	if addr.ID == "" {
		addr.ID = uuid.New().String()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO addresses (id, user_id, label, street, city, zip, country)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		addr.ID, addr.UserID, addr.Label, addr.Street, addr.City, addr.Zip, addr.Country)
	if err != nil {
		return Address{}, fmt.Errorf("failed to add address: %w", err)
	}
	return addr, nil
}

// --- Coupons ---

func (s *SQLiteService) ListCoupons(ctx context.Context) ([]Coupon, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT code, percent_off, amount_off, expires_at FROM coupons
		WHERE expires_at > strftime('%Y-%m-%dT%H:%M:%fZ','now') ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("failed to list coupons: %w", err)
	}
	defer rows.Close()

	var coupons []Coupon
	for rows.Next() {
		coupon, err := scanCoupon(rows)
		if err != nil {
			return nil, err
		}
		coupons = append(coupons, coupon)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("coupon row iteration error: %w", err)
	}
	return coupons, nil
}

func (s *SQLiteService) ValidateCoupon(ctx context.Context, code string) (Coupon, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT code, percent_off, amount_off, expires_at FROM coupons WHERE code = ?`,
		strings.ToUpper(strings.TrimSpace(code)))
	coupon, err := scanCoupon(row)
	if err != nil {
		return Coupon{}, err
	}
	if time.Now().UTC().After(coupon.ExpiresAt) {
		return Coupon{}, fmt.Errorf("coupon %s: %w", coupon.Code, ErrInvalidCoupon)
	}
	return coupon, nil
}

func scanCoupon(row rowScanner) (Coupon, error) {
	var coupon Coupon
	var expiresAt string
	err := row.Scan(&coupon.Code, &coupon.PercentOff, &coupon.AmountOff, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Coupon{}, ErrInvalidCoupon
	}
	if err != nil {
		return Coupon{}, fmt.Errorf("failed to scan coupon: %w", err)
	}
	if t, err := time.Parse("2006-01-02T15:04:05.000Z", expiresAt); err == nil {
		coupon.ExpiresAt = t
	} else if t, err := time.Parse(time.RFC3339, expiresAt); err == nil {
		coupon.ExpiresAt = t
	}
	return coupon, nil
}

// --- Wishlist ---

func (s *SQLiteService) AddToWishlist(ctx context.Context, userID, productID string) error {
	if _, err := s.GetProduct(ctx, productID); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO wishlist_items (user_id, product_id) VALUES (?, ?)
		ON CONFLICT(user_id, product_id) DO NOTHING`, userID, productID)
	if err != nil {
		return fmt.Errorf("failed to add to wishlist: %w", err)
	}
	return nil
}

func (s *SQLiteService) GetWishlist(ctx context.Context, userID string) ([]Product, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT p.id, p.name, p.category, p.description, p.price, p.stock
		FROM wishlist_items wi JOIN products p ON p.id = wi.product_id
		WHERE wi.user_id = ? ORDER BY p.name`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load wishlist: %w", err)
	}
	defer rows.Close()
	return scanProducts(rows)
}

// --- PC builds ---

func (s *SQLiteService) StartBuild(ctx context.Context, userID string) (Build, error) {
	build := Build{
		ID:         uuid.New().String(),
		UserID:     userID,
		Components: make(map[string]Product),
		Status:     BuildStatusInProgress,
		CreatedAt:  time.Now().UTC(),
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO builds (id, user_id, components_json, status) VALUES (?, ?, '{}', ?)`,
		build.ID, build.UserID, build.Status)
	if err != nil {
		return Build{}, fmt.Errorf("failed to start build: %w", err)
	}
	return build, nil
}

func (s *SQLiteService) AddBuildComponent(ctx context.Context, buildID, category, productID string) (Build, error) {
	build, err := s.GetBuild(ctx, buildID)
	if err != nil {
		return Build{}, err
	}
	product, err := s.GetProduct(ctx, productID)
	if err != nil {
		return Build{}, err
	}

	build.Components[category] = product
	componentsJSON, err := json.Marshal(build.Components)
	if err != nil {
		return Build{}, fmt.Errorf("failed to marshal build components: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`UPDATE builds SET components_json = ? WHERE id = ?`, string(componentsJSON), buildID)
	if err != nil {
		return Build{}, fmt.Errorf("failed to update build: %w", err)
	}
	return build, nil
}

func (s *SQLiteService) GetBuild(ctx context.Context, buildID string) (Build, error) {
	var build Build
	var componentsJSON, createdAt string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, components_json, status, created_at FROM builds WHERE id = ?`, buildID).
		Scan(&build.ID, &build.UserID, &componentsJSON, &build.Status, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Build{}, fmt.Errorf("build %s: %w", buildID, ErrNotFound)
	}
	if err != nil {
		return Build{}, fmt.Errorf("failed to get build: %w", err)
	}
	if err := json.Unmarshal([]byte(componentsJSON), &build.Components); err != nil {
		return Build{}, fmt.Errorf("failed to unmarshal build components: %w", err)
	}
	if build.Components == nil {
		build.Components = make(map[string]Product)
	}
	if t, err := time.Parse("2006-01-02T15:04:05.000Z", createdAt); err == nil {
		build.CreatedAt = t
	}
	return build, nil
}

func (s *SQLiteService) SaveBuildToCart(ctx context.Context, buildID string) (Cart, error) {
	build, err := s.GetBuild(ctx, buildID)
	if err != nil {
		return Cart{}, err
	}

	cart := Cart{UserID: build.UserID}
	for _, product := range build.Components {
		cart, err = s.AddToCart(ctx, build.UserID, product.ID, 1)
		if err != nil {
			return Cart{}, err
		}
	}

	if _, err := s.db.ExecContext(ctx,
		`UPDATE builds SET status = ? WHERE id = ?`, BuildStatusSaved, buildID); err != nil {
		return Cart{}, fmt.Errorf("failed to mark build saved: %w", err)
	}
	return cart, nil
}

// --- Users ---

func (s *SQLiteService) RegisterUser(ctx context.Context, email, name, password string) (User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, fmt.Errorf("failed to hash password: %w", err)
	}

	user := User{
		ID:    uuid.New().String(),
		Email: strings.ToLower(strings.TrimSpace(email)),
		Name:  name,
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO users (id, email, name, password_hash) VALUES (?, ?, ?, ?)`,
		user.ID, user.Email, user.Name, string(hash))
	if err != nil {
		return User{}, fmt.Errorf("failed to register user: %w", err)
	}
	return user, nil
}

func (s *SQLiteService) Authenticate(ctx context.Context, email, password string) (User, error) {
	var user User
	var hash string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, email, name, password_hash FROM users WHERE email = ?`,
		strings.ToLower(strings.TrimSpace(email))).
		Scan(&user.ID, &user.Email, &user.Name, &hash)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrBadCredential
	}
	if err != nil {
		return User{}, fmt.Errorf("failed to look up user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return User{}, ErrBadCredential
	}
	return user, nil
}

// AddProduct inserts a catalog entry. Used by seeding and tests.
func (s *SQLiteService) AddProduct(ctx context.Context, p Product) (Product, error) {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO products (id, name, category, description, price, stock)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name, category = excluded.category,
			description = excluded.description, price = excluded.price, stock = excluded.stock`,
		p.ID, p.Name, p.Category, p.Description, p.Price, p.Stock)
	if err != nil {
		return Product{}, fmt.Errorf("failed to add product: %w", err)
	}
	return p, nil
}

// AddCoupon inserts a coupon. Used by seeding and tests.
func (s *SQLiteService) AddCoupon(ctx context.Context, c Coupon) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO coupons (code, percent_off, amount_off, expires_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(code) DO UPDATE SET
			percent_off = excluded.percent_off, amount_off = excluded.amount_off,
			expires_at = excluded.expires_at`,
		strings.ToUpper(c.Code), c.PercentOff, c.AmountOff, c.ExpiresAt.UTC().Format("2006-01-02T15:04:05.000Z"))
	if err != nil {
		return fmt.Errorf("failed to add coupon: %w", err)
	}
	return nil
}
