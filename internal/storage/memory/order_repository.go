package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
)

// OrderRepository - in-memory хранилище заказов для локальной разработки и тестов.
type OrderRepository struct {
	mu    sync.RWMutex
	items map[string]domain.Order
	now   func() time.Time
}

// NewOrderRepository возвращает пустой in-memory репозиторий.
func NewOrderRepository() *OrderRepository {
	return &OrderRepository{
		items: make(map[string]domain.Order),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Save назначает заказу ID, статус PROCESSADO и время создания.
func (r *OrderRepository) Save(ctx context.Context, draft domain.OrderDraft) (*domain.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	order := domain.Order{
		ID:        uuid.NewString(),
		Cart:      draft.Cart.Snapshot(),
		Amount:    draft.Amount,
		Status:    domain.OrderStatusProcessed,
		CreatedAt: r.now(),
	}

	r.mu.Lock()
	r.items[order.ID] = order
	r.mu.Unlock()

	// Сохраняем копию, чтобы избежать непредсказуемых мутаций извне.
	result := order
	return &result, nil
}

// Get возвращает копию заказа или ErrOrderNotFound, если его нет.
func (r *OrderRepository) Get(ctx context.Context, id string) (*domain.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.items[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	order.Cart = order.Cart.Snapshot()
	return &order, nil
}

// ListByCustomer возвращает заказы покупателя, ограничивая выборку limit (если >0).
func (r *OrderRepository) ListByCustomer(ctx context.Context, email string, limit int) ([]*domain.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*domain.Order, 0)
	for _, order := range r.items {
		if order.Cart.User().Email() != email {
			continue
		}
		copied := order
		copied.Cart = order.Cart.Snapshot()
		result = append(result, &copied)
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID > result[j].ID
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}

	return result, nil
}

var (
	_ domain.OrderRepository = (*OrderRepository)(nil)
	_ domain.OrderLister     = (*OrderRepository)(nil)
)
