package pricing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
	"github.com/vladislavdragonenkov/checkout/internal/service/catalog"
	"github.com/vladislavdragonenkov/checkout/internal/service/customers"
	"github.com/vladislavdragonenkov/checkout/internal/service/shipping"
	"github.com/vladislavdragonenkov/checkout/internal/storage/memory"
)

type engineFixture struct {
	carts     *memory.CartRepository
	coupons   *memory.CouponRepository
	previews  domain.PreviewCache
	catalog   *catalog.MockService
	shipping  *shipping.MockService
	customers *customers.MockService
	engine    *Engine
}

func newEngineFixture() *engineFixture {
	fx := &engineFixture{
		carts:     memory.NewCartRepository(),
		coupons:   memory.NewCouponRepository(),
		previews:  memory.NewPreviewCache(time.Minute),
		catalog:   catalog.NewMockService(),
		shipping:  shipping.NewMockService(),
		customers: customers.NewMockService(),
	}
	fx.engine = NewEngine(fx.carts, fx.catalog, fx.coupons, fx.shipping, fx.customers, fx.previews, nil, nil)
	return fx
}

func TestComputePreview_CouponScenario(t *testing.T) {
	fx := newEngineFixture()
	owner := domain.CustomerKey("customer-1")

	fx.catalog.Prices["product-a"] = 100000
	fx.coupons.Seed(domain.Coupon{ID: "c-1", Code: "SALE10", DiscountPercent: 10, QuantityAvailable: 5})
	require.NoError(t, fx.carts.AddLine(owner, "product-a", 2))

	preview, err := fx.engine.ComputePreview(owner, PreviewRequest{CouponCode: "SALE10"})
	require.NoError(t, err)

	require.Equal(t, int64(200000), preview.SubtotalMinor)
	require.Equal(t, int64(20000), preview.DiscountMinor)
	require.Equal(t, int64(0), preview.ShippingMinor)
	require.Equal(t, int64(180000), preview.GrandTotalMinor)
	require.Equal(t, "SALE10", preview.CouponCode)

	cached, err := fx.previews.Get(owner)
	require.NoError(t, err)
	require.Equal(t, preview.GrandTotalMinor, cached.GrandTotalMinor)
}

func TestComputePreview_Idempotent(t *testing.T) {
	fx := newEngineFixture()
	owner := domain.SessionKey("sess-1")

	fx.catalog.Prices["product-a"] = 1500
	fx.shipping.Costs["courier"] = 500
	require.NoError(t, fx.carts.AddLine(owner, "product-a", 3))

	req := PreviewRequest{ShippingOptionID: "courier", Address: "Lenina 1"}
	first, err := fx.engine.ComputePreview(owner, req)
	require.NoError(t, err)
	second, err := fx.engine.ComputePreview(owner, req)
	require.NoError(t, err)

	require.Equal(t, first.SubtotalMinor, second.SubtotalMinor)
	require.Equal(t, first.DiscountMinor, second.DiscountMinor)
	require.Equal(t, first.ShippingMinor, second.ShippingMinor)
	require.Equal(t, first.GrandTotalMinor, second.GrandTotalMinor)
	require.Equal(t, int64(5000), second.GrandTotalMinor)
}

func TestComputePreview_EmptyCart(t *testing.T) {
	fx := newEngineFixture()

	_, err := fx.engine.ComputePreview(domain.CustomerKey("customer-1"), PreviewRequest{})
	require.ErrorIs(t, err, domain.ErrEmptyCart)
}

func TestComputePreview_UnknownProduct(t *testing.T) {
	fx := newEngineFixture()
	owner := domain.CustomerKey("customer-1")
	require.NoError(t, fx.carts.AddLine(owner, "ghost", 1))

	_, err := fx.engine.ComputePreview(owner, PreviewRequest{})
	require.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestComputePreview_CouponValidation(t *testing.T) {
	fx := newEngineFixture()
	owner := domain.CustomerKey("customer-1")
	fx.catalog.Prices["product-a"] = 1000
	require.NoError(t, fx.carts.AddLine(owner, "product-a", 1))

	past := time.Now().UTC().Add(-time.Hour)
	fx.coupons.Seed(domain.Coupon{ID: "c-1", Code: "OLD", DiscountMinor: 100, QuantityAvailable: 5, ValidTo: &past})
	fx.coupons.Seed(domain.Coupon{ID: "c-2", Code: "GONE", DiscountMinor: 100, QuantityAvailable: 0})
	fx.coupons.Seed(domain.Coupon{ID: "c-3", Code: "BIG", DiscountMinor: 100, QuantityAvailable: 5, MinOrderMinor: 5000})

	_, err := fx.engine.ComputePreview(owner, PreviewRequest{CouponCode: "MISSING"})
	require.ErrorIs(t, err, domain.ErrInvalidCoupon)

	_, err = fx.engine.ComputePreview(owner, PreviewRequest{CouponCode: "OLD"})
	require.ErrorIs(t, err, domain.ErrInvalidCoupon)

	_, err = fx.engine.ComputePreview(owner, PreviewRequest{CouponCode: "GONE"})
	require.ErrorIs(t, err, domain.ErrInvalidCoupon)

	_, err = fx.engine.ComputePreview(owner, PreviewRequest{CouponCode: "BIG"})
	require.ErrorIs(t, err, domain.ErrBelowMinimumOrder)

	// Превью не имеет побочных эффектов: количество купонов не тронуто.
	coupon, err := fx.coupons.FindByCode("GONE")
	require.NoError(t, err)
	require.Equal(t, int32(0), coupon.QuantityAvailable)
}

func TestComputePreview_CouponReplacesMembershipDiscount(t *testing.T) {
	fx := newEngineFixture()
	owner := domain.CustomerKey("vip-1")

	fx.catalog.Prices["product-a"] = 10000
	fx.customers.Rates["vip-1"] = 0.05
	fx.coupons.Seed(domain.Coupon{ID: "c-1", Code: "FLAT300", DiscountMinor: 300, QuantityAvailable: 5})
	require.NoError(t, fx.carts.AddLine(owner, "product-a", 1))

	baseline, err := fx.engine.ComputePreview(owner, PreviewRequest{})
	require.NoError(t, err)
	require.Equal(t, int64(500), baseline.DiscountMinor)

	withCoupon, err := fx.engine.ComputePreview(owner, PreviewRequest{CouponCode: "FLAT300"})
	require.NoError(t, err)
	// Купон замещает скидку членства, а не складывается с ней.
	require.Equal(t, int64(300), withCoupon.DiscountMinor)
	require.Equal(t, int64(9700), withCoupon.GrandTotalMinor)
}

func TestComputePreview_PercentCouponCap(t *testing.T) {
	fx := newEngineFixture()
	owner := domain.SessionKey("sess-1")

	fx.catalog.Prices["product-a"] = 100000
	fx.coupons.Seed(domain.Coupon{ID: "c-1", Code: "HALFCAP", DiscountPercent: 50, MaxDiscountMinor: 10000, QuantityAvailable: 5})
	require.NoError(t, fx.carts.AddLine(owner, "product-a", 1))

	preview, err := fx.engine.ComputePreview(owner, PreviewRequest{CouponCode: "HALFCAP"})
	require.NoError(t, err)
	require.Equal(t, int64(10000), preview.DiscountMinor)
	require.Equal(t, int64(90000), preview.GrandTotalMinor)
}

func TestComputePreview_GrandTotalFloorsAtShipping(t *testing.T) {
	fx := newEngineFixture()
	owner := domain.SessionKey("sess-1")

	fx.catalog.Prices["sample"] = 100
	fx.shipping.Costs["courier"] = 700
	fx.coupons.Seed(domain.Coupon{ID: "c-1", Code: "FREEBIE", DiscountMinor: 5000, QuantityAvailable: 5})
	require.NoError(t, fx.carts.AddLine(owner, "sample", 1))

	preview, err := fx.engine.ComputePreview(owner, PreviewRequest{CouponCode: "FREEBIE", ShippingOptionID: "courier"})
	require.NoError(t, err)
	// Скидка ограничена subtotal, итог не опускается ниже доставки.
	require.Equal(t, int64(100), preview.DiscountMinor)
	require.Equal(t, int64(700), preview.GrandTotalMinor)
}

func TestComputePreview_UnknownShippingOption(t *testing.T) {
	fx := newEngineFixture()
	owner := domain.SessionKey("sess-1")

	fx.catalog.Prices["product-a"] = 1000
	require.NoError(t, fx.carts.AddLine(owner, "product-a", 1))

	_, err := fx.engine.ComputePreview(owner, PreviewRequest{ShippingOptionID: "teleport"})
	require.ErrorIs(t, err, domain.ErrShippingOptionNotFound)
}

func TestComputePreview_FillsContactFromProfile(t *testing.T) {
	fx := newEngineFixture()
	owner := domain.CustomerKey("customer-1")

	fx.catalog.Prices["product-a"] = 1000
	fx.customers.Profiles["customer-1"] = domain.CustomerProfile{
		Address: "Lenina 1",
		Phone:   "+7-900-000-00-00",
		Email:   "customer@example.com",
	}
	require.NoError(t, fx.carts.AddLine(owner, "product-a", 1))

	preview, err := fx.engine.ComputePreview(owner, PreviewRequest{Phone: "+7-911-111-11-11"})
	require.NoError(t, err)
	require.Equal(t, "Lenina 1", preview.Address)
	require.Equal(t, "+7-911-111-11-11", preview.Phone)
	require.Equal(t, "customer@example.com", preview.Email)
}
