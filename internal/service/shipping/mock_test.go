package shipping

import (
	"errors"
	"testing"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
)

func TestMockService(t *testing.T) {
	mock := NewMockService()
	if mock == nil {
		t.Fatal("expected non-nil mock")
	}

	mock.Costs["courier"] = 500

	cost, err := mock.GetCost("courier")
	if err != nil {
		t.Fatalf("unexpected cost error: %v", err)
	}
	if cost != 500 {
		t.Fatalf("unexpected cost: %d", cost)
	}

	if _, err := mock.GetCost("teleport"); !errors.Is(err, domain.ErrShippingOptionNotFound) {
		t.Fatalf("expected ErrShippingOptionNotFound, got %v", err)
	}

	mock.CostErr = errors.New("rates down")
	if _, err := mock.GetCost("courier"); err == nil {
		t.Fatal("expected configured cost error")
	}

	if mock.CostCalls != 3 {
		t.Fatalf("unexpected call counter: %d", mock.CostCalls)
	}
}
