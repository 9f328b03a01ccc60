package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
)

const (
	opTimeout = 5 * time.Second

	pgUniqueViolation = "23505"

	// moneyScale совпадает с NUMERIC(20, 6) колонок amount и price.
	moneyScale int32 = 6

	selectOrderColumns = `id, customer_email, customer_tier, status, amount, created_at`
)

// OrderRepository - PostgreSQL-реализация хранилища заказов.
type OrderRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewOrderRepository создаёт репозиторий поверх Store.
func NewOrderRepository(store *Store) *OrderRepository {
	return &OrderRepository{
		db:  store.DB(),
		now: func() time.Time { return time.Now().UTC() },
	}
}

// Save вставляет заказ и его позиции одной транзакцией.
func (r *OrderRepository) Save(ctx context.Context, draft domain.OrderDraft) (order *domain.Order, err error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	user := draft.Cart.User()
	// Возвращаем ровно то, что ляжет в колонки: иначе Get разойдётся с письмом.
	cart, err := roundCart(draft.Cart)
	if err != nil {
		return nil, err
	}
	saved := domain.Order{
		ID:     uuid.NewString(),
		Cart:   cart,
		Amount: draft.Amount.Round(moneyScale),
		Status: domain.OrderStatusProcessed,
		// Postgres хранит микросекунды.
		CreatedAt: r.now().Truncate(time.Microsecond),
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (
			id, customer_email, customer_tier, status, amount, created_at
		) VALUES ($1,$2,$3,$4,$5,$6)
	`,
		saved.ID, user.Email(), string(user.Tier()), string(saved.Status),
		saved.Amount, saved.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: order id %s already exists", domain.ErrOrderNotPersisted, saved.ID)
		}
		return nil, fmt.Errorf("insert order: %w", err)
	}

	for position, item := range saved.Cart.Items() {
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO order_items (order_id, position, name, price)
			VALUES ($1,$2,$3,$4)
		`, saved.ID, position, item.Name(), item.Price()); err != nil {
			return nil, fmt.Errorf("insert order item %d: %w", position, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit order: %w", err)
	}

	return &saved, nil
}

// Get возвращает заказ с позициями или ErrOrderNotFound.
func (r *OrderRepository) Get(ctx context.Context, id string) (*domain.Order, error) {
	// Колонка id имеет тип UUID: невалидный идентификатор просто не найден.
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrOrderNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	row := r.db.QueryRowContext(ctx, `SELECT `+selectOrderColumns+` FROM orders WHERE id = $1`, id)
	header, err := scanOrderRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, fmt.Errorf("select order: %w", err)
	}

	return r.assemble(ctx, header)
}

// ListByCustomer возвращает заказы покупателя, новые первыми.
func (r *OrderRepository) ListByCustomer(ctx context.Context, email string, limit int) ([]*domain.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	query := `SELECT ` + selectOrderColumns + `
		FROM orders
		WHERE customer_email = $1
		ORDER BY created_at DESC, id DESC`

	var (
		rows *sql.Rows
		err  error
	)
	if limit > 0 {
		rows, err = r.db.QueryContext(ctx, query+` LIMIT $2`, email, limit)
	} else {
		rows, err = r.db.QueryContext(ctx, query, email)
	}
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}

	headers := make([]orderRow, 0)
	for rows.Next() {
		header, err := scanOrderRow(rows)
		if err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan order row: %w", err)
		}
		headers = append(headers, header)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("iterate order rows: %w", err)
	}
	_ = rows.Close()

	orders := make([]*domain.Order, 0, len(headers))
	for _, header := range headers {
		order, err := r.assemble(ctx, header)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	return orders, nil
}

func roundCart(cart domain.Cart) (domain.Cart, error) {
	items := cart.Items()
	for i, item := range items {
		rounded, err := domain.NewItem(item.Name(), item.Price().Round(moneyScale))
		if err != nil {
			return domain.Cart{}, fmt.Errorf("round order item %d: %w", i, err)
		}
		items[i] = rounded
	}
	return *domain.NewCart(cart.User(), items...), nil
}

// orderRow - строка таблицы orders до загрузки позиций.
type orderRow struct {
	id        string
	email     string
	tier      string
	status    string
	amount    decimal.Decimal
	createdAt time.Time
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrderRow(row rowScanner) (orderRow, error) {
	var o orderRow
	err := row.Scan(&o.id, &o.email, &o.tier, &o.status, &o.amount, &o.createdAt)
	return o, err
}

func (r *OrderRepository) assemble(ctx context.Context, header orderRow) (*domain.Order, error) {
	user, err := domain.NewUser(header.email, domain.Tier(header.tier))
	if err != nil {
		return nil, fmt.Errorf("decode order %s customer: %w", header.id, err)
	}
	items, err := r.loadItems(ctx, header.id)
	if err != nil {
		return nil, err
	}

	return &domain.Order{
		ID:        header.id,
		Cart:      *domain.NewCart(user, items...),
		Amount:    header.amount,
		Status:    domain.OrderStatus(header.status),
		CreatedAt: header.createdAt.UTC(),
	}, nil
}

func (r *OrderRepository) loadItems(ctx context.Context, orderID string) ([]domain.Item, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT name, price
		FROM order_items
		WHERE order_id = $1
		ORDER BY position ASC
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("load order items: %w", err)
	}
	defer rows.Close()

	items := make([]domain.Item, 0)
	for rows.Next() {
		var (
			name  string
			price decimal.Decimal
		)
		if err := rows.Scan(&name, &price); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		item, err := domain.NewItem(name, price)
		if err != nil {
			return nil, fmt.Errorf("decode order %s item: %w", orderID, err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order items: %w", err)
	}

	return items, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	return false
}

var (
	_ domain.OrderRepository = (*OrderRepository)(nil)
	_ domain.OrderLister     = (*OrderRepository)(nil)
)
