package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus описывает жизненный цикл заказа.
type OrderStatus string

const (
	// OrderStatusPending - заказ зарегистрирован, обработка не завершена.
	OrderStatusPending OrderStatus = "PENDENTE"
	// OrderStatusProcessed - оплата прошла, заказ сохранён.
	OrderStatusProcessed OrderStatus = "PROCESSADO"
	// OrderStatusCanceled - заказ отменён.
	OrderStatusCanceled OrderStatus = "CANCELADO"
)

// Valid проверяет, что статус относится к поддерживаемым значениям.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessed, OrderStatusCanceled:
		return true
	default:
		return false
	}
}

// Order - сохранённый результат успешного checkout.
// Создаётся только репозиторием, который назначает ID и статус.
type Order struct {
	ID string
	// Cart - снимок корзины на момент оформления.
	Cart      Cart
	Amount    decimal.Decimal
	Status    OrderStatus
	CreatedAt time.Time
}

// OrderDraft - данные для сохранения заказа после успешного списания.
type OrderDraft struct {
	Cart   Cart
	Amount decimal.Decimal
}
