package pricing

import (
	"errors"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
	"github.com/vladislavdragonenkov/checkout/internal/metrics"
)

// PreviewRequest — входные параметры расчёта стоимости корзины.
type PreviewRequest struct {
	CouponCode       string
	ShippingOptionID string
	PaymentMethodID  string
	Address          string
	Phone            string
	Email            string
}

// Engine вычисляет стоимость корзины. Чистое вычисление: единственная запись —
// результат в кэш превью; Order, Coupon и Cart не мутируются, поэтому расчёт
// безопасно повторять сколько угодно раз.
type Engine struct {
	carts     domain.CartRepository
	catalog   domain.CatalogStore
	coupons   domain.CouponRepository
	shipping  domain.ShippingRateStore
	customers domain.CustomerDirectory
	previews  domain.PreviewCache
	metrics   *metrics.CheckoutMetrics
	logger    *log.Entry
	now       func() time.Time
}

// NewEngine создаёт Pricing Engine.
func NewEngine(
	carts domain.CartRepository,
	catalog domain.CatalogStore,
	coupons domain.CouponRepository,
	shipping domain.ShippingRateStore,
	customers domain.CustomerDirectory,
	previews domain.PreviewCache,
	checkoutMetrics *metrics.CheckoutMetrics,
	logger *log.Entry,
) *Engine {
	if logger == nil {
		logger = log.New().WithField("component", "pricing-engine")
	}

	return &Engine{
		carts:     carts,
		catalog:   catalog,
		coupons:   coupons,
		shipping:  shipping,
		customers: customers,
		previews:  previews,
		metrics:   checkoutMetrics,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// ComputePreview рассчитывает итоговую стоимость текущей корзины владельца
// и кладёт результат в кэш превью, замещая предыдущий расчёт.
func (e *Engine) ComputePreview(owner domain.OwnerKey, req PreviewRequest) (domain.PricedPreview, error) {
	started := e.now()

	preview, err := e.compute(owner, req)
	if e.metrics != nil {
		e.metrics.RecordOperationDuration("preview", time.Since(started))
		if err != nil {
			e.metrics.RecordPreviewFailed()
		} else {
			e.metrics.RecordPreviewComputed()
		}
	}
	if err != nil {
		e.logger.WithFields(log.Fields{
			"owner": owner.String(),
			"error": err,
		}).Warn("Preview computation failed")
		return domain.PricedPreview{}, err
	}

	e.logger.WithFields(log.Fields{
		"owner":       owner.String(),
		"subtotal":    preview.SubtotalMinor,
		"discount":    preview.DiscountMinor,
		"shipping":    preview.ShippingMinor,
		"grand_total": preview.GrandTotalMinor,
	}).Info("Preview computed")

	return preview, nil
}

func (e *Engine) compute(owner domain.OwnerKey, req PreviewRequest) (domain.PricedPreview, error) {
	if err := owner.Validate(); err != nil {
		return domain.PricedPreview{}, err
	}

	cart, err := e.carts.Read(owner)
	if err != nil {
		return domain.PricedPreview{}, err
	}
	if cart.IsEmpty() {
		return domain.PricedPreview{}, domain.ErrEmptyCart
	}

	// Цены берутся из каталога на момент вызова: корзина цен не хранит.
	lines := make([]domain.PreviewLine, 0, len(cart.Lines))
	var subtotal int64
	for _, cartLine := range cart.Lines {
		unitPrice, err := e.catalog.GetUnitPrice(cartLine.ProductID)
		if err != nil {
			return domain.PricedPreview{}, err
		}
		lineTotal := int64(cartLine.Qty) * unitPrice
		lines = append(lines, domain.PreviewLine{
			ProductID:      cartLine.ProductID,
			Qty:            cartLine.Qty,
			UnitPriceMinor: unitPrice,
			LineTotalMinor: lineTotal,
		})
		subtotal += lineTotal
	}

	discount, err := e.resolveDiscount(owner, req.CouponCode, subtotal)
	if err != nil {
		return domain.PricedPreview{}, err
	}

	var shippingCost int64
	if req.ShippingOptionID != "" {
		shippingCost, err = e.shipping.GetCost(req.ShippingOptionID)
		if err != nil {
			return domain.PricedPreview{}, err
		}
	}

	// Скидка не превышает subtotal, итог не опускается ниже стоимости доставки.
	if discount > subtotal {
		discount = subtotal
	}
	grandTotal := subtotal - discount + shippingCost
	if grandTotal < shippingCost {
		grandTotal = shippingCost
	}

	contact, err := e.resolveContact(owner, req)
	if err != nil {
		return domain.PricedPreview{}, err
	}

	preview := domain.PricedPreview{
		Owner:            owner,
		Lines:            lines,
		SubtotalMinor:    subtotal,
		DiscountMinor:    discount,
		ShippingMinor:    shippingCost,
		GrandTotalMinor:  grandTotal,
		CouponCode:       req.CouponCode,
		ShippingOptionID: req.ShippingOptionID,
		PaymentMethodID:  req.PaymentMethodID,
		Address:          contact.Address,
		Phone:            contact.Phone,
		Email:            contact.Email,
		ComputedAt:       e.now(),
	}

	if err := e.previews.Put(preview); err != nil {
		return domain.PricedPreview{}, err
	}
	return preview, nil
}

// resolveDiscount считает скидку: базовая ставка членства, которую купон
// замещает (не суммируется). Истёкший, исчерпанный или неизвестный купон
// даёт ErrInvalidCoupon; недобор минимальной суммы — ErrBelowMinimumOrder.
func (e *Engine) resolveDiscount(owner domain.OwnerKey, couponCode string, subtotal int64) (int64, error) {
	var discount int64
	if owner.Kind == domain.OwnerCustomer {
		rate, err := e.customers.GetMembershipDiscountRate(owner.ID)
		if err != nil {
			return 0, err
		}
		if rate > 0 {
			discount = int64(float64(subtotal) * rate)
		}
	}

	if couponCode == "" {
		return discount, nil
	}

	coupon, err := e.coupons.FindByCode(couponCode)
	if err != nil {
		if errors.Is(err, domain.ErrCouponNotFound) {
			return 0, domain.ErrInvalidCoupon
		}
		return 0, err
	}
	if !coupon.ValidAt(e.now()) {
		return 0, domain.ErrInvalidCoupon
	}
	if coupon.MinOrderMinor > 0 && subtotal < coupon.MinOrderMinor {
		return 0, domain.ErrBelowMinimumOrder
	}

	return coupon.DiscountFor(subtotal), nil
}

// resolveContact заполняет пустые контактные поля из справочника клиентов.
// Гостевые заказы используют только данные запроса.
func (e *Engine) resolveContact(owner domain.OwnerKey, req PreviewRequest) (domain.CustomerProfile, error) {
	contact := domain.CustomerProfile{Address: req.Address, Phone: req.Phone, Email: req.Email}
	if owner.Kind != domain.OwnerCustomer {
		return contact, nil
	}
	if contact.Address != "" && contact.Phone != "" && contact.Email != "" {
		return contact, nil
	}

	profile, err := e.customers.GetProfile(owner.ID)
	if err != nil {
		if errors.Is(err, domain.ErrCustomerNotFound) {
			return contact, nil
		}
		return domain.CustomerProfile{}, err
	}
	if contact.Address == "" {
		contact.Address = profile.Address
	}
	if contact.Phone == "" {
		contact.Phone = profile.Phone
	}
	if contact.Email == "" {
		contact.Email = profile.Email
	}
	return contact, nil
}
