package redis

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
)

func TestCartRepository_RedisAddReadMutate(t *testing.T) {
	store := openRedisStoreForIntegrationTest(t)
	repo := NewCartRepository(store, time.Minute)
	owner := domain.SessionKey(uuid.NewString())

	if err := repo.AddLine(owner, "lipstick-01", 2); err != nil {
		t.Fatalf("add line: %v", err)
	}
	if err := repo.AddLine(owner, "lipstick-01", 1); err != nil {
		t.Fatalf("add existing line: %v", err)
	}
	if err := repo.AddLine(owner, "serum-02", 1); err != nil {
		t.Fatalf("add second line: %v", err)
	}

	cart, err := repo.Read(owner)
	if err != nil {
		t.Fatalf("read cart: %v", err)
	}
	if len(cart.Lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(cart.Lines))
	}
	if line, ok := cart.Line("lipstick-01"); !ok || line.Qty != 3 {
		t.Fatalf("unexpected lipstick line: %+v", line)
	}

	if err := repo.RemoveQuantity(owner, "lipstick-01", 3); err != nil {
		t.Fatalf("drain line: %v", err)
	}
	if err := repo.SetQuantity(owner, "serum-02", 0); err != nil {
		t.Fatalf("set quantity to zero: %v", err)
	}

	cart, err = repo.Read(owner)
	if err != nil {
		t.Fatalf("read drained cart: %v", err)
	}
	if !cart.IsEmpty() {
		t.Fatalf("expected empty cart, got %d lines", len(cart.Lines))
	}
}

func TestCartRepository_RedisErrorsAndClear(t *testing.T) {
	store := openRedisStoreForIntegrationTest(t)
	repo := NewCartRepository(store, time.Minute)
	owner := domain.SessionKey(uuid.NewString())

	if err := repo.RemoveLine(owner, "missing"); !errors.Is(err, domain.ErrCartLineNotFound) {
		t.Fatalf("expected ErrCartLineNotFound, got %v", err)
	}
	if err := repo.AddLine(owner, "lipstick-01", 0); !errors.Is(err, domain.ErrQtyInvalid) {
		t.Fatalf("expected ErrQtyInvalid, got %v", err)
	}

	if err := repo.AddLine(owner, "lipstick-01", 2); err != nil {
		t.Fatalf("add line: %v", err)
	}
	if err := repo.Clear(owner); err != nil {
		t.Fatalf("clear cart: %v", err)
	}
	if err := repo.Clear(owner); err != nil {
		t.Fatalf("clear must be idempotent: %v", err)
	}

	cart, err := repo.Read(owner)
	if err != nil {
		t.Fatalf("read cleared cart: %v", err)
	}
	if !cart.IsEmpty() {
		t.Fatal("cart must be empty after clear")
	}
}

func TestCartRepository_RedisTakeAllDrainsCart(t *testing.T) {
	store := openRedisStoreForIntegrationTest(t)
	repo := NewCartRepository(store, time.Minute)
	owner := domain.SessionKey(uuid.NewString())

	if err := repo.AddLine(owner, "lipstick-01", 2); err != nil {
		t.Fatalf("add line: %v", err)
	}

	taken, err := repo.TakeAll(owner)
	if err != nil {
		t.Fatalf("take cart: %v", err)
	}
	if line, ok := taken.Line("lipstick-01"); !ok || line.Qty != 2 {
		t.Fatalf("unexpected taken snapshot: %+v", taken.Lines)
	}

	cart, err := repo.Read(owner)
	if err != nil {
		t.Fatalf("read taken cart: %v", err)
	}
	if !cart.IsEmpty() {
		t.Fatal("cart must be empty after take")
	}

	again, err := repo.TakeAll(owner)
	if err != nil {
		t.Fatalf("repeated take: %v", err)
	}
	if !again.IsEmpty() {
		t.Fatalf("repeated take must return empty snapshot, got %+v", again.Lines)
	}
}

func TestCartRepository_RedisRejectsCustomerOwner(t *testing.T) {
	store := openRedisStoreForIntegrationTest(t)
	repo := NewCartRepository(store, time.Minute)
	owner := domain.CustomerKey("customer-1")

	if err := repo.AddLine(owner, "lipstick-01", 1); !errors.Is(err, domain.ErrOwnerRequired) {
		t.Fatalf("expected ErrOwnerRequired for customer owner, got %v", err)
	}
}
