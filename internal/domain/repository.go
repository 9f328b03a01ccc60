package domain

import "context"

// OrderRepository описывает требования к хранилищу заказов.
type OrderRepository interface {
	// Save сохраняет заказ по черновику, назначая ID и статус.
	// Возвращает заполненный заказ либо ошибку, но никогда nil, nil.
	Save(ctx context.Context, draft OrderDraft) (*Order, error)
	// Get возвращает заказ по идентификатору или ErrOrderNotFound, если его нет.
	Get(ctx context.Context, id string) (*Order, error)
}

// OrderLister - выборка заказов покупателя, новые первыми.
type OrderLister interface {
	// ListByCustomer возвращает не более limit заказов (limit <= 0 - без ограничения).
	ListByCustomer(ctx context.Context, email string, limit int) ([]*Order, error)
}
