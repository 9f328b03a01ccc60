package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Item - неизменяемая позиция корзины: название и цена за единицу.
type Item struct {
	name  string
	price decimal.Decimal
}

// NewItem создаёт позицию, проверяя название и неотрицательность цены.
func NewItem(name string, price decimal.Decimal) (Item, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Item{}, NewValidationError(ErrItemNameRequired)
	}
	if price.IsNegative() {
		return Item{}, NewValidationError(ErrItemPriceNegative)
	}
	return Item{name: name, price: price}, nil
}

// Name возвращает название позиции.
func (i Item) Name() string { return i.name }

// Price возвращает цену позиции.
func (i Item) Price() decimal.Decimal { return i.price }
