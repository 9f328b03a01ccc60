package domain

import "github.com/shopspring/decimal"

// DiscountPolicy вычисляет итоговую сумму к списанию по сумме корзины.
// Реализации должны быть чистыми функциями.
type DiscountPolicy interface {
	Apply(user User, rawTotal decimal.Decimal) decimal.Decimal
}

// DiscountFunc позволяет использовать обычную функцию как DiscountPolicy.
type DiscountFunc func(user User, rawTotal decimal.Decimal) decimal.Decimal

// Apply вызывает саму функцию.
func (f DiscountFunc) Apply(user User, rawTotal decimal.Decimal) decimal.Decimal {
	return f(user, rawTotal)
}

// DefaultPremiumDiscount - скидка премиум-покупателя (10%).
var DefaultPremiumDiscount = decimal.RequireFromString("0.10")

// TierDiscountPolicy применяет процентную скидку в зависимости от уровня покупателя.
type TierDiscountPolicy struct {
	rates map[Tier]decimal.Decimal
}

// NewTierDiscountPolicy создаёт политику со скидкой premiumRate для премиум-уровня.
func NewTierDiscountPolicy(premiumRate decimal.Decimal) (*TierDiscountPolicy, error) {
	if premiumRate.IsNegative() || premiumRate.GreaterThan(decimal.NewFromInt(1)) {
		return nil, NewValidationError(ErrDiscountRateInvalid)
	}
	return &TierDiscountPolicy{
		rates: map[Tier]decimal.Decimal{
			TierStandard: decimal.Zero,
			TierPremium:  premiumRate,
		},
	}, nil
}

// DefaultDiscountPolicy возвращает политику с 10% скидкой для premium.
func DefaultDiscountPolicy() *TierDiscountPolicy {
	policy, _ := NewTierDiscountPolicy(DefaultPremiumDiscount)
	return policy
}

// Apply возвращает rawTotal * (1 - rate). Нулевые и отрицательные суммы
// возвращаются без изменений.
func (p *TierDiscountPolicy) Apply(user User, rawTotal decimal.Decimal) decimal.Decimal {
	if rawTotal.Sign() <= 0 {
		return rawTotal
	}
	rate, ok := p.rates[user.Tier()]
	if !ok || rate.IsZero() {
		return rawTotal
	}
	return rawTotal.Mul(decimal.NewFromInt(1).Sub(rate))
}

var _ DiscountPolicy = (*TierDiscountPolicy)(nil)
var _ DiscountPolicy = DiscountFunc(nil)
