package payment

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
)

// MockGateway - конфигурируемая заглушка PaymentGateway для локального запуска и тестов.
type MockGateway struct {
	mu sync.Mutex

	Result domain.ChargeResult
	Err    error

	calls      int
	lastAmount decimal.Decimal
	lastToken  string
}

// NewMockGateway возвращает mock с успешным сценарием по умолчанию.
func NewMockGateway() *MockGateway {
	return &MockGateway{
		Result: domain.ChargeResult{Success: true, TransactionID: "mock-tx"},
	}
}

// Charge возвращает заранее настроенный результат и запоминает аргументы.
func (m *MockGateway) Charge(_ context.Context, amount decimal.Decimal, token string) (domain.ChargeResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	m.lastAmount = amount
	m.lastToken = token
	return m.Result, m.Err
}

// Calls возвращает количество вызовов Charge.
func (m *MockGateway) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// LastCharge возвращает аргументы последнего вызова.
func (m *MockGateway) LastCharge() (decimal.Decimal, string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastAmount, m.lastToken
}

var _ domain.PaymentGateway = (*MockGateway)(nil)
