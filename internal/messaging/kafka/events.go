package kafka

import "time"

// EventType определяет тип события
type EventType string

const (
	// Checkout события
	EventTypeCheckoutCompleted EventType = "checkout.completed"
	EventTypeCheckoutDeclined  EventType = "checkout.declined"
	EventTypeCheckoutFailed    EventType = "checkout.failed"
)

// TopicCheckoutEvents - topic по умолчанию для событий checkout.
const TopicCheckoutEvents = "checkout.events"

// CheckoutEvent представляет итог одной попытки оформления заказа
type CheckoutEvent struct {
	EventType EventType              `json:"event_type"`
	OrderID   string                 `json:"order_id,omitempty"`
	Customer  string                 `json:"customer"`
	Amount    string                 `json:"amount"`
	Timestamp time.Time              `json:"timestamp"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// NewCheckoutEvent создает новое событие checkout
func NewCheckoutEvent(eventType EventType, orderID, customer, amount string, metadata map[string]interface{}) *CheckoutEvent {
	return &CheckoutEvent{
		EventType: eventType,
		OrderID:   orderID,
		Customer:  customer,
		Amount:    amount,
		Timestamp: time.Now().UTC(),
		Metadata:  metadata,
	}
}

// Key возвращает ключ партиционирования: заказ, а при его отсутствии покупатель.
func (e *CheckoutEvent) Key() string {
	if e.OrderID != "" {
		return e.OrderID
	}
	return e.Customer
}
