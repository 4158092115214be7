package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
	"github.com/vladislavdragonenkov/checkout/internal/service/catalog"
	"github.com/vladislavdragonenkov/checkout/internal/service/pricing"
)

func TestNewDependencies_MemoryMode(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PostgresDSN = ""
	cfg.RedisAddr = ""
	cfg.KafkaBrokers = nil

	deps, err := NewDependencies(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("new dependencies: %v", err)
	}
	defer deps.Close()

	if deps.PricingEngine == nil || deps.CheckoutService == nil || deps.OrdersService == nil {
		t.Fatal("services should be wired")
	}
	if deps.Carts == nil || deps.Orders == nil || deps.Previews == nil || deps.CheckoutStore == nil {
		t.Fatal("storage should be wired")
	}
	if len(deps.HealthCheckers) != 0 {
		t.Errorf("memory mode should not register external health checkers, got %v", deps.HealthCheckers)
	}
}

// Полный проход через собранный граф зависимостей: корзина, превью,
// коммит и переход заказа по жизненному циклу.
func TestDependencies_EndToEndCheckout(t *testing.T) {
	deps, err := NewDependencies(context.Background(), DefaultConfig(), nil)
	if err != nil {
		t.Fatal(err)
	}
	defer deps.Close()

	deps.Catalog.(*catalog.MockService).Prices["lipstick-01"] = 150000

	owner := domain.CustomerKey("customer-1")
	if err := deps.Carts.AddLine(owner, "lipstick-01", 2); err != nil {
		t.Fatal(err)
	}

	preview, err := deps.PricingEngine.ComputePreview(owner, pricing.PreviewRequest{})
	if err != nil {
		t.Fatalf("compute preview: %v", err)
	}
	if preview.GrandTotalMinor != 300000 {
		t.Errorf("expected grand total 300000, got %d", preview.GrandTotalMinor)
	}

	orderID, err := deps.CheckoutService.Commit(owner)
	if err != nil {
		t.Fatalf("commit: %v", err)
	}

	order, err := deps.OrdersService.Transition(orderID, domain.OrderEventConfirm)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if order.Status != domain.OrderStatusConfirmed {
		t.Errorf("expected confirmed status, got %s", order.Status)
	}

	cart, err := deps.Carts.Read(owner)
	if err != nil {
		t.Fatal(err)
	}
	if len(cart.Lines) != 0 {
		t.Errorf("cart should be empty after commit, got %+v", cart.Lines)
	}
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MetricsAddr = "127.0.0.1:0"

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, cfg, nil)
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop after context cancellation")
	}
}
