package domain

import "github.com/shopspring/decimal"

// Cart - упорядоченный набор позиций и покупатель.
// Позиции принадлежат корзине, покупатель только упоминается.
type Cart struct {
	user  User
	items []Item
}

// NewCart создаёт корзину. Срез позиций копируется и никогда не равен nil.
func NewCart(user User, items ...Item) *Cart {
	copied := make([]Item, len(items))
	copy(copied, items)
	return &Cart{user: user, items: copied}
}

// User возвращает покупателя.
func (c *Cart) User() User { return c.user }

// AddItem добавляет позицию в конец корзины.
func (c *Cart) AddItem(item Item) {
	c.items = append(c.items, item)
}

// Items возвращает копию позиций в исходном порядке.
func (c *Cart) Items() []Item {
	result := make([]Item, len(c.items))
	copy(result, c.items)
	return result
}

// Len возвращает количество позиций.
func (c *Cart) Len() int { return len(c.items) }

// IsEmpty сообщает, что в корзине нет позиций.
func (c *Cart) IsEmpty() bool { return len(c.items) == 0 }

// Total возвращает сумму цен позиций без скидок. Пустая корзина даёт ноль.
func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.items {
		total = total.Add(item.price)
	}
	return total
}

// Snapshot возвращает независимую копию корзины на текущий момент.
func (c *Cart) Snapshot() Cart {
	return Cart{user: c.user, items: c.Items()}
}
