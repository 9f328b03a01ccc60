package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

// ChargeResult - ответ платёжного шлюза на попытку списания.
type ChargeResult struct {
	// Success == false означает отказ (бизнес-результат, не ошибка).
	Success       bool
	TransactionID string
	DeclineReason string
}

// PaymentGateway описывает взаимодействие с платёжным провайдером.
type PaymentGateway interface {
	// Charge списывает amount по платёжному токену. Отказ возвращается
	// через ChargeResult.Success, ошибка - только для инфраструктурных сбоев.
	Charge(ctx context.Context, amount decimal.Decimal, token string) (ChargeResult, error)
}

// EmailNotifier отправляет письма покупателям.
type EmailNotifier interface {
	SendEmail(ctx context.Context, recipient, subject, body string) error
}
