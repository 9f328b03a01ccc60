package checkout

import (
	"context"
	"fmt"
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
)

// randomCart собирает корзину из 1..8 случайных позиций с ценами в копейках.
func randomCart(t *testing.T, faker *gofakeit.Faker, tier domain.Tier) *domain.Cart {
	t.Helper()

	user, err := domain.NewUser(faker.Email(), tier)
	require.NoError(t, err)

	cart := domain.NewCart(user)
	n := faker.IntRange(1, 8)
	for i := 0; i < n; i++ {
		price := decimal.NewFromFloat(faker.Price(0.01, 999.99)).Round(2)
		it, err := domain.NewItem(faker.ProductName(), price)
		require.NoError(t, err)
		cart.AddItem(it)
	}
	return cart
}

func TestProcessOrder_ChargedAmountProperty(t *testing.T) {
	faker := gofakeit.New(42)
	ninety := decimal.RequireFromString("0.9")

	for i := 0; i < 200; i++ {
		tier := domain.TierStandard
		if faker.Bool() {
			tier = domain.TierPremium
		}
		cart := randomCart(t, faker, tier)
		total := cart.Total()

		t.Run(fmt.Sprintf("%03d_%s", i, tier), func(t *testing.T) {
			gateway := &stubGateway{result: domain.ChargeResult{Success: true}}
			repo := &stubRepository{order: &domain.Order{ID: faker.UUID(), Status: domain.OrderStatusProcessed}}
			notifier := &stubNotifier{}

			svc := NewService(gateway, repo, notifier, WithLogger(testLogger()))
			_, err := svc.ProcessOrder(context.Background(), cart, faker.CreditCardNumber(nil))
			require.NoError(t, err)

			require.Len(t, gateway.calls, 1)
			charged := gateway.calls[0].amount

			want := total
			if tier == domain.TierPremium {
				want = total.Mul(ninety)
			}
			assert.True(t, charged.Equal(want), "tier=%s total=%s charged=%s want=%s", tier, total, charged, want)
			assert.True(t, charged.LessThanOrEqual(total))

			require.Len(t, repo.drafts, 1)
			assert.True(t, repo.drafts[0].Amount.Equal(charged), "saved amount must equal charged amount")
			assert.Len(t, notifier.calls, 1)
		})
	}
}

func TestProcessOrder_DeclineNeverPersistsProperty(t *testing.T) {
	faker := gofakeit.New(7)

	for i := 0; i < 50; i++ {
		cart := randomCart(t, faker, domain.TierPremium)

		gateway := &stubGateway{result: domain.ChargeResult{Success: false, DeclineReason: faker.Sentence(3)}}
		repo := &stubRepository{}
		notifier := &stubNotifier{}

		svc := NewService(gateway, repo, notifier, WithLogger(testLogger()))
		result, err := svc.ProcessOrder(context.Background(), cart, faker.UUID())
		require.NoError(t, err)
		assert.Nil(t, result)
		assert.Empty(t, repo.drafts)
		assert.Empty(t, notifier.calls)
	}
}

func TestRandomCart_SizeCoversWholeRange(t *testing.T) {
	faker := gofakeit.New(11)
	seen := make(map[int]int)

	for i := 0; i < 400; i++ {
		n := randomCart(t, faker, domain.TierStandard).Len()
		require.GreaterOrEqual(t, n, 1)
		require.LessOrEqual(t, n, 8)
		seen[n]++
	}
	// Размер берётся один раз на корзину, поэтому встречаются все размеры.
	for n := 1; n <= 8; n++ {
		assert.Positive(t, seen[n], "cart size %d never generated", n)
	}
}
