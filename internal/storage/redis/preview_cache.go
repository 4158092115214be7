package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
)

const previewKeyPrefix = "checkout:preview"

// previewBlob — формат хранения расчёта в Redis. TTL ключа и есть срок
// жизни превью: протухший расчёт Redis удаляет сам.
type previewBlob struct {
	OwnerKind        string            `json:"owner_kind"`
	OwnerID          string            `json:"owner_id"`
	Lines            []previewBlobLine `json:"lines"`
	SubtotalMinor    int64             `json:"subtotal_minor"`
	DiscountMinor    int64             `json:"discount_minor"`
	ShippingMinor    int64             `json:"shipping_minor"`
	GrandTotalMinor  int64             `json:"grand_total_minor"`
	CouponCode       string            `json:"coupon_code,omitempty"`
	ShippingOptionID string            `json:"shipping_option_id,omitempty"`
	PaymentMethodID  string            `json:"payment_method_id,omitempty"`
	Address          string            `json:"address,omitempty"`
	Phone            string            `json:"phone,omitempty"`
	Email            string            `json:"email,omitempty"`
	ComputedAt       time.Time         `json:"computed_at"`
}

type previewBlobLine struct {
	ProductID      string `json:"product_id"`
	Qty            int32  `json:"qty"`
	UnitPriceMinor int64  `json:"unit_price_minor"`
	LineTotalMinor int64  `json:"line_total_minor"`
}

// previewCache — Redis-реализация PreviewCache с SET ... EX.
type previewCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewPreviewCache создаёт Redis-реализацию PreviewCache с заданным TTL.
func NewPreviewCache(store *Store, ttl time.Duration) domain.PreviewCache {
	return &previewCache{client: store.Client(), ttl: ttl}
}

// Put сохраняет расчёт, замещая предыдущий для этого владельца.
func (c *previewCache) Put(preview domain.PricedPreview) error {
	if err := preview.Owner.Validate(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	payload, err := json.Marshal(toPreviewBlob(preview))
	if err != nil {
		return fmt.Errorf("marshal preview: %w", err)
	}
	if err := c.client.Set(ctx, previewKey(preview.Owner), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("store preview: %w", err)
	}
	return nil
}

// Get возвращает актуальный расчёт. Отсутствие ключа означает, что TTL истёк
// либо расчёта не было; для коммита это одно и то же — ErrPreviewExpired.
func (c *previewCache) Get(owner domain.OwnerKey) (domain.PricedPreview, error) {
	if err := owner.Validate(); err != nil {
		return domain.PricedPreview{}, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	payload, err := c.client.Get(ctx, previewKey(owner)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.PricedPreview{}, domain.ErrPreviewExpired
		}
		return domain.PricedPreview{}, fmt.Errorf("load preview: %w", err)
	}

	var blob previewBlob
	if err := json.Unmarshal(payload, &blob); err != nil {
		return domain.PricedPreview{}, fmt.Errorf("unmarshal preview: %w", err)
	}
	return fromPreviewBlob(blob), nil
}

// Delete удаляет расчёт владельца; идемпотентна.
func (c *previewCache) Delete(owner domain.OwnerKey) error {
	if err := owner.Validate(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	if err := c.client.Del(ctx, previewKey(owner)).Err(); err != nil {
		return fmt.Errorf("delete preview: %w", err)
	}
	return nil
}

func previewKey(owner domain.OwnerKey) string {
	return fmt.Sprintf("%s:%s", previewKeyPrefix, owner.String())
}

func toPreviewBlob(preview domain.PricedPreview) previewBlob {
	blob := previewBlob{
		OwnerKind:        string(preview.Owner.Kind),
		OwnerID:          preview.Owner.ID,
		Lines:            make([]previewBlobLine, 0, len(preview.Lines)),
		SubtotalMinor:    preview.SubtotalMinor,
		DiscountMinor:    preview.DiscountMinor,
		ShippingMinor:    preview.ShippingMinor,
		GrandTotalMinor:  preview.GrandTotalMinor,
		CouponCode:       preview.CouponCode,
		ShippingOptionID: preview.ShippingOptionID,
		PaymentMethodID:  preview.PaymentMethodID,
		Address:          preview.Address,
		Phone:            preview.Phone,
		Email:            preview.Email,
		ComputedAt:       preview.ComputedAt,
	}
	for _, line := range preview.Lines {
		blob.Lines = append(blob.Lines, previewBlobLine(line))
	}
	return blob
}

func fromPreviewBlob(blob previewBlob) domain.PricedPreview {
	preview := domain.PricedPreview{
		Owner:            domain.OwnerKey{Kind: domain.OwnerKind(blob.OwnerKind), ID: blob.OwnerID},
		Lines:            make([]domain.PreviewLine, 0, len(blob.Lines)),
		SubtotalMinor:    blob.SubtotalMinor,
		DiscountMinor:    blob.DiscountMinor,
		ShippingMinor:    blob.ShippingMinor,
		GrandTotalMinor:  blob.GrandTotalMinor,
		CouponCode:       blob.CouponCode,
		ShippingOptionID: blob.ShippingOptionID,
		PaymentMethodID:  blob.PaymentMethodID,
		Address:          blob.Address,
		Phone:            blob.Phone,
		Email:            blob.Email,
		ComputedAt:       blob.ComputedAt,
	}
	for _, line := range blob.Lines {
		preview.Lines = append(preview.Lines, domain.PreviewLine(line))
	}
	return preview
}

var _ domain.PreviewCache = (*previewCache)(nil)
