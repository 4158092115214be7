package postgres

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
)

func commitSampleOrder(t *testing.T, store *Store, order domain.Order, owner domain.OwnerKey) {
	t.Helper()

	carts := NewCartRepository(store)
	if owner.Kind == domain.OwnerCustomer {
		for _, line := range order.Lines {
			if err := carts.AddLine(owner, line.ProductID, line.Qty); err != nil {
				t.Fatalf("seed cart line: %v", err)
			}
		}
	}
	if err := NewCheckoutStore(store).CommitOrder(order, owner); err != nil {
		t.Fatalf("commit sample order: %v", err)
	}
}

func TestOrderRepository_PostgresGetListAndSave(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	repo := NewOrderRepository(store)

	now := time.Now().UTC().Round(time.Microsecond)
	owner := domain.CustomerKey("customer-1")
	order1 := sampleCommitOrder(uuid.NewString(), owner.ID, now.Add(-2*time.Minute))
	order2 := sampleCommitOrder(uuid.NewString(), owner.ID, now.Add(-time.Minute))

	commitSampleOrder(t, store, order1, owner)
	commitSampleOrder(t, store, order2, owner)

	got, err := repo.Get(order1.ID)
	if err != nil {
		t.Fatalf("get order1: %v", err)
	}
	if got.CustomerID != owner.ID || got.Status != domain.OrderStatusPending {
		t.Fatalf("unexpected order payload: %+v", got)
	}
	if len(got.Lines) != 1 || got.Lines[0].ProductID != "lipstick-01" {
		t.Fatalf("unexpected order lines: %+v", got.Lines)
	}

	listed, err := repo.ListByCustomer(owner.ID, 1)
	if err != nil {
		t.Fatalf("list by customer with limit: %v", err)
	}
	if len(listed) != 1 || listed[0].ID != order2.ID {
		t.Fatalf("unexpected list result with limit: %+v", listed)
	}

	all, err := repo.ListByCustomer(owner.ID, 0)
	if err != nil {
		t.Fatalf("list by customer without limit: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 orders, got %d", len(all))
	}

	if err := got.Apply(domain.OrderEventConfirm); err != nil {
		t.Fatalf("apply confirm: %v", err)
	}
	if err := repo.Save(got); err != nil {
		t.Fatalf("save order: %v", err)
	}

	updated, err := repo.Get(order1.ID)
	if err != nil {
		t.Fatalf("get updated order: %v", err)
	}
	if updated.Status != domain.OrderStatusConfirmed {
		t.Fatalf("unexpected status after save: %s", updated.Status)
	}
	if updated.Version != got.Version+1 {
		t.Fatalf("unexpected version after save: got=%d want=%d", updated.Version, got.Version+1)
	}
}

func TestOrderRepository_PostgresErrors(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	repo := NewOrderRepository(store)

	now := time.Now().UTC().Round(time.Microsecond)
	owner := domain.CustomerKey("customer-2")
	base := sampleCommitOrder(uuid.NewString(), owner.ID, now)

	if _, err := repo.Get(uuid.NewString()); !errors.Is(err, domain.ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
	if err := repo.Save(base); !errors.Is(err, domain.ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound on save missing, got %v", err)
	}

	commitSampleOrder(t, store, base, owner)

	stale := base
	stale.Status = domain.OrderStatusConfirmed
	stale.Version = 42
	if err := repo.Save(stale); !errors.Is(err, domain.ErrOrderVersionConflict) {
		t.Fatalf("expected ErrOrderVersionConflict on stale save, got %v", err)
	}
}

func TestOrderRepository_PostgresSavesEstimatedDelivery(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	repo := NewOrderRepository(store)

	now := time.Now().UTC().Round(time.Microsecond)
	owner := domain.CustomerKey("customer-3")
	order := sampleCommitOrder(uuid.NewString(), owner.ID, now)
	eta := now.Add(72 * time.Hour)
	order.EstimatedDeliveryAt = &eta
	order.ShippingOptionID = "courier"

	commitSampleOrder(t, store, order, owner)

	got, err := repo.Get(order.ID)
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if got.EstimatedDeliveryAt == nil || !got.EstimatedDeliveryAt.Equal(eta) {
		t.Fatalf("unexpected estimated delivery: %v", got.EstimatedDeliveryAt)
	}
}

func TestIsUniqueViolation(t *testing.T) {
	if !isUniqueViolation(&pgconn.PgError{Code: "23505"}) {
		t.Fatal("expected unique violation for code 23505")
	}
	if isUniqueViolation(&pgconn.PgError{Code: "22001"}) {
		t.Fatal("unexpected unique violation for non-unique code")
	}
	if isUniqueViolation(errors.New("plain error")) {
		t.Fatal("plain error must not be unique violation")
	}
}
