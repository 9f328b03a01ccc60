package httpapi

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
)

type userRequest struct {
	Email string `json:"email"`
	Tier  string `json:"tier"`
}

type itemRequest struct {
	Name string `json:"name"`
	// Принимает и строку "99.90", и число 99.9.
	Price decimal.Decimal `json:"price"`
}

type checkoutRequest struct {
	User         userRequest   `json:"user"`
	Items        []itemRequest `json:"items"`
	PaymentToken string        `json:"payment_token"`
}

// toCart собирает доменную корзину; конструкторы домена сами возвращают ошибки валидации.
func (r checkoutRequest) toCart() (*domain.Cart, error) {
	tier, err := domain.ParseTier(r.User.Tier)
	if err != nil {
		return nil, err
	}
	user, err := domain.NewUser(r.User.Email, tier)
	if err != nil {
		return nil, err
	}

	cart := domain.NewCart(user)
	for _, raw := range r.Items {
		item, err := domain.NewItem(raw.Name, raw.Price)
		if err != nil {
			return nil, err
		}
		cart.AddItem(item)
	}
	return cart, nil
}

type userResponse struct {
	Email string `json:"email"`
	Tier  string `json:"tier"`
}

type itemResponse struct {
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

type orderResponse struct {
	ID        string          `json:"id"`
	Status    string          `json:"status"`
	Amount    decimal.Decimal `json:"amount"`
	CreatedAt time.Time       `json:"created_at"`
	User      userResponse    `json:"user"`
	Items     []itemResponse  `json:"items"`
}

func newOrderResponse(order *domain.Order) orderResponse {
	user := order.Cart.User()
	items := order.Cart.Items()

	resp := orderResponse{
		ID:        order.ID,
		Status:    string(order.Status),
		Amount:    order.Amount,
		CreatedAt: order.CreatedAt,
		User:      userResponse{Email: user.Email(), Tier: string(user.Tier())},
		Items:     make([]itemResponse, 0, len(items)),
	}
	for _, item := range items {
		resp.Items = append(resp.Items, itemResponse{Name: item.Name(), Price: item.Price()})
	}
	return resp
}

type errorResponse struct {
	Error   string `json:"error"`
	OrderID string `json:"order_id,omitempty"`
}
