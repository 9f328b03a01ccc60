package payment

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestMockGateway(t *testing.T) {
	mock := NewMockGateway()
	if mock == nil {
		t.Fatal("expected non-nil mock")
	}

	result, err := mock.Charge(context.Background(), decimal.NewFromInt(180), "1234-5678")
	if err != nil {
		t.Fatalf("unexpected charge error: %v", err)
	}
	if !result.Success {
		t.Fatalf("expected successful charge, got %+v", result)
	}

	amount, token := mock.LastCharge()
	if !amount.Equal(decimal.NewFromInt(180)) || token != "1234-5678" {
		t.Fatalf("unexpected last charge: amount=%s token=%s", amount, token)
	}

	mock.Result.Success = false
	mock.Result.DeclineReason = "insufficient funds"
	result, err = mock.Charge(context.Background(), decimal.NewFromInt(1), "t")
	if err != nil {
		t.Fatalf("decline must not be an error: %v", err)
	}
	if result.Success || result.DeclineReason != "insufficient funds" {
		t.Fatalf("unexpected decline result: %+v", result)
	}

	mock.Err = errors.New("gateway down")
	if _, err := mock.Charge(context.Background(), decimal.NewFromInt(1), "t"); err == nil {
		t.Fatal("expected charge error")
	}

	if mock.Calls() != 3 {
		t.Fatalf("unexpected call counter: %d", mock.Calls())
	}
}
