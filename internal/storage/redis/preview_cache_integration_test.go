package redis

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
)

func samplePreview(owner domain.OwnerKey) domain.PricedPreview {
	return domain.PricedPreview{
		Owner: owner,
		Lines: []domain.PreviewLine{
			{ProductID: "lipstick-01", Qty: 2, UnitPriceMinor: 100000, LineTotalMinor: 200000},
		},
		SubtotalMinor:   200000,
		DiscountMinor:   20000,
		ShippingMinor:   0,
		GrandTotalMinor: 180000,
		CouponCode:      "SALE10",
		Address:         "Lenina 1",
		ComputedAt:      time.Now().UTC().Round(time.Millisecond),
	}
}

func TestPreviewCache_RedisPutGetDelete(t *testing.T) {
	store := openRedisStoreForIntegrationTest(t)
	cache := NewPreviewCache(store, time.Minute)
	owner := domain.CustomerKey(uuid.NewString())

	want := samplePreview(owner)
	if err := cache.Put(want); err != nil {
		t.Fatalf("put preview: %v", err)
	}

	got, err := cache.Get(owner)
	if err != nil {
		t.Fatalf("get preview: %v", err)
	}
	if got.GrandTotalMinor != want.GrandTotalMinor || got.CouponCode != want.CouponCode {
		t.Fatalf("unexpected preview payload: %+v", got)
	}
	if got.Owner != owner || len(got.Lines) != 1 || got.Lines[0] != want.Lines[0] {
		t.Fatalf("preview roundtrip mismatch: %+v", got)
	}

	// Повторный Put замещает расчёт целиком.
	replaced := want
	replaced.CouponCode = ""
	replaced.DiscountMinor = 0
	replaced.GrandTotalMinor = 200000
	if err := cache.Put(replaced); err != nil {
		t.Fatalf("replace preview: %v", err)
	}
	got, err = cache.Get(owner)
	if err != nil {
		t.Fatalf("get replaced preview: %v", err)
	}
	if got.CouponCode != "" || got.GrandTotalMinor != 200000 {
		t.Fatalf("preview must be fully replaced: %+v", got)
	}

	if err := cache.Delete(owner); err != nil {
		t.Fatalf("delete preview: %v", err)
	}
	if err := cache.Delete(owner); err != nil {
		t.Fatalf("delete must be idempotent: %v", err)
	}
	if _, err := cache.Get(owner); !errors.Is(err, domain.ErrPreviewExpired) {
		t.Fatalf("expected ErrPreviewExpired after delete, got %v", err)
	}
}

func TestPreviewCache_RedisExpiry(t *testing.T) {
	store := openRedisStoreForIntegrationTest(t)
	cache := NewPreviewCache(store, 100*time.Millisecond)
	owner := domain.SessionKey(uuid.NewString())

	if err := cache.Put(samplePreview(owner)); err != nil {
		t.Fatalf("put preview: %v", err)
	}

	time.Sleep(200 * time.Millisecond)

	if _, err := cache.Get(owner); !errors.Is(err, domain.ErrPreviewExpired) {
		t.Fatalf("expected ErrPreviewExpired after ttl, got %v", err)
	}
}
