package domain

import (
	"net/mail"
	"strings"
)

// Tier - уровень покупателя в программе лояльности.
type Tier string

const (
	// TierStandard - обычный покупатель, скидка не положена.
	TierStandard Tier = "standard"
	// TierPremium - премиум-покупатель со скидкой лояльности.
	TierPremium Tier = "premium"
)

// Valid проверяет, что уровень относится к поддерживаемым значениям.
func (t Tier) Valid() bool {
	switch t {
	case TierStandard, TierPremium:
		return true
	default:
		return false
	}
}

// ParseTier разбирает уровень из внешнего представления (HTTP, конфиг).
// Пустая строка трактуется как standard.
func ParseTier(raw string) (Tier, error) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		return TierStandard, nil
	}
	tier := Tier(raw)
	if !tier.Valid() {
		return "", NewValidationError(ErrUserTierInvalid)
	}
	return tier, nil
}

// User - неизменяемые данные покупателя.
type User struct {
	email string
	tier  Tier
}

// NewUser создаёт покупателя, проверяя адрес и уровень.
func NewUser(email string, tier Tier) (User, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return User{}, NewValidationError(ErrUserEmailInvalid)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return User{}, NewValidationError(ErrUserEmailInvalid)
	}
	if !tier.Valid() {
		return User{}, NewValidationError(ErrUserTierInvalid)
	}
	return User{email: email, tier: tier}, nil
}

// Email возвращает адрес для уведомлений.
func (u User) Email() string { return u.email }

// Tier возвращает уровень лояльности.
func (u User) Tier() Tier { return u.tier }

// IsPremium сообщает, относится ли покупатель к премиум-уровню.
func (u User) IsPremium() bool { return u.tier == TierPremium }
