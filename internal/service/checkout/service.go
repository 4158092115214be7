package checkout

import (
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
	"github.com/vladislavdragonenkov/checkout/internal/metrics"
)

// Config — политики коммита заказа.
type Config struct {
	// GuestCustomerID — sentinel-идентификатор клиента для гостевых заказов.
	GuestCustomerID string
	// DeliveryLeadTime — срок доставки, добавляемый к моменту коммита,
	// когда выбран способ доставки.
	DeliveryLeadTime time.Duration
	// Retry управляет повторами при транзиентных ошибках хранилища.
	Retry RetryConfig
}

// DefaultConfig возвращает политики коммита по умолчанию.
func DefaultConfig() Config {
	return Config{
		GuestCustomerID:  "guest",
		DeliveryLeadTime: 72 * time.Hour,
		Retry:            DefaultRetryConfig(),
	}
}

// Service превращает актуальное превью и живую корзину в сохранённый заказ.
// Сама запись атомарна на стороне CheckoutStore; сервис отвечает за протокол
// вокруг неё: валидацию превью, повторное разрешение цен и ретраи.
type Service struct {
	carts         domain.CartRepository
	catalog       domain.CatalogStore
	previews      domain.PreviewCache
	store         domain.CheckoutStore
	notifications domain.NotificationSink
	metrics       *metrics.CheckoutMetrics
	logger        *log.Entry
	config        Config
	now           func() time.Time
}

// NewService создаёт сервис коммита заказа.
func NewService(
	carts domain.CartRepository,
	catalog domain.CatalogStore,
	previews domain.PreviewCache,
	store domain.CheckoutStore,
	notifications domain.NotificationSink,
	checkoutMetrics *metrics.CheckoutMetrics,
	config Config,
	logger *log.Entry,
) *Service {
	if logger == nil {
		logger = log.New().WithField("component", "checkout-service")
	}
	if config.GuestCustomerID == "" {
		config.GuestCustomerID = "guest"
	}

	return &Service{
		carts:         carts,
		catalog:       catalog,
		previews:      previews,
		store:         store,
		notifications: notifications,
		metrics:       checkoutMetrics,
		logger:        logger,
		config:        config,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// Commit превращает превью владельца в заказ и возвращает его id.
// Без актуального превью коммит невозможен: пересчитывать цену "из ничего"
// на этом этапе запрещено. Транзиентные ошибки хранилища ретраятся с полным
// перезапуском read-compute-write цикла; один вызов Commit создаёт не более
// одного заказа независимо от числа попыток.
func (s *Service) Commit(owner domain.OwnerKey) (string, error) {
	started := s.now()
	if s.metrics != nil {
		s.metrics.RecordCommitInFlightStarted()
		defer func() {
			s.metrics.RecordCommitInFlightFinished()
			s.metrics.RecordCommitDuration(time.Since(started))
		}()
	}

	orderID, err := s.commit(owner)
	if err != nil {
		if s.metrics != nil {
			s.metrics.RecordCommitFailed()
		}
		s.logger.WithFields(log.Fields{
			"owner": owner.String(),
			"error": err,
		}).Warn("Order commit failed")
		return "", err
	}

	if s.metrics != nil {
		s.metrics.RecordCommitSucceeded()
	}
	s.logger.WithFields(log.Fields{
		"owner":    owner.String(),
		"order_id": orderID,
	}).Info("Order committed")

	return orderID, nil
}

func (s *Service) commit(owner domain.OwnerKey) (string, error) {
	if err := owner.Validate(); err != nil {
		return "", err
	}

	preview, err := s.previews.Get(owner)
	if err != nil {
		return "", err
	}

	// Сессионная корзина изымается атомарно до записи заказа: из двух
	// конкурентных гостевых коммитов непустой снимок получает ровно один,
	// второй завершается ErrEmptyCart. Durable-корзину клиента изымает сама
	// транзакция CheckoutStore.
	var claimed []domain.CartLine
	if owner.Kind == domain.OwnerSession {
		cart, err := s.carts.TakeAll(owner)
		if err != nil {
			return "", err
		}
		if cart.IsEmpty() {
			return "", domain.ErrEmptyCart
		}
		claimed = cart.Lines
	}

	// Идентификатор фиксируется до ретраев: повторная попытка после
	// неоднозначного сбоя не создаст второй заказ.
	orderID := uuid.NewString()
	var committed domain.Order

	onRetry := func() {
		if s.metrics != nil {
			s.metrics.RecordCommitRetry()
		}
	}
	err = executeWithRetry(s.config.Retry, s.logger.WithField("owner", owner.String()), onRetry, func() error {
		order, err := s.buildOrder(orderID, owner, preview, claimed)
		if err != nil {
			return err
		}
		if err := s.store.CommitOrder(order, owner); err != nil {
			return err
		}
		committed = order
		return nil
	})
	if err != nil {
		if owner.Kind == domain.OwnerSession {
			s.restoreSessionCart(owner, claimed)
		}
		return "", err
	}

	s.cleanupAfterCommit(owner)

	if s.notifications != nil {
		// Fire-and-forget: доставка уведомления не влияет на результат коммита.
		s.notifications.OnOrderCreated(committed)
	}

	return orderID, nil
}

// buildOrder строит заказ из корзины и метаданных превью. Для сессионного
// владельца позиции берутся из уже изъятого снимка, для клиента — из живой
// корзины. Цены позиций разрешаются из каталога заново: между превью и
// коммитом каталог мог измениться, а заказ замораживает цены на момент коммита.
func (s *Service) buildOrder(orderID string, owner domain.OwnerKey, preview domain.PricedPreview, claimed []domain.CartLine) (domain.Order, error) {
	cartLines := claimed
	if owner.Kind != domain.OwnerSession {
		cart, err := s.carts.Read(owner)
		if err != nil {
			return domain.Order{}, err
		}
		cartLines = cart.Lines
	}
	if len(cartLines) == 0 {
		return domain.Order{}, domain.ErrEmptyCart
	}

	now := s.now()
	lines := make([]domain.OrderLine, 0, len(cartLines))
	var subtotal int64
	for _, cartLine := range cartLines {
		unitPrice, err := s.catalog.GetUnitPrice(cartLine.ProductID)
		if err != nil {
			return domain.Order{}, err
		}
		lineTotal := int64(cartLine.Qty) * unitPrice
		lines = append(lines, domain.OrderLine{
			ID:             uuid.NewString(),
			OrderID:        orderID,
			ProductID:      cartLine.ProductID,
			Qty:            cartLine.Qty,
			UnitPriceMinor: unitPrice,
			LineTotalMinor: lineTotal,
			CreatedAt:      now,
		})
		subtotal += lineTotal
	}

	discount := preview.DiscountMinor
	if discount > subtotal {
		discount = subtotal
	}
	grandTotal := subtotal - discount + preview.ShippingMinor
	if grandTotal < preview.ShippingMinor {
		grandTotal = preview.ShippingMinor
	}

	customerID := owner.ID
	if owner.Kind == domain.OwnerSession {
		customerID = s.config.GuestCustomerID
	}

	order := domain.Order{
		ID:               orderID,
		CustomerID:       customerID,
		Status:           domain.OrderStatusPending,
		PaymentStatus:    domain.PaymentStatusUnpaid,
		SubtotalMinor:    subtotal,
		DiscountMinor:    discount,
		ShippingMinor:    preview.ShippingMinor,
		GrandTotalMinor:  grandTotal,
		CouponCode:       preview.CouponCode,
		ShippingOptionID: preview.ShippingOptionID,
		PaymentMethodID:  preview.PaymentMethodID,
		Address:          preview.Address,
		Phone:            preview.Phone,
		Email:            preview.Email,
		Lines:            lines,
		Version:          0,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if preview.ShippingOptionID != "" && s.config.DeliveryLeadTime > 0 {
		eta := now.Add(s.config.DeliveryLeadTime)
		order.EstimatedDeliveryAt = &eta
	}

	return order, nil
}

// restoreSessionCart возвращает изъятый снимок в сессионную корзину после
// провального коммита: клиент сохраняет возможность повторить попытку.
// Ошибки восстановления только логируются — исходная ошибка коммита важнее.
func (s *Service) restoreSessionCart(owner domain.OwnerKey, lines []domain.CartLine) {
	for _, line := range lines {
		if err := s.carts.AddLine(owner, line.ProductID, line.Qty); err != nil {
			s.logger.WithFields(log.Fields{
				"owner":      owner.String(),
				"product_id": line.ProductID,
				"error":      err,
			}).Warn("Failed to restore session cart line after failed commit")
		}
	}
}

// cleanupAfterCommit убирает превью владельца, пережившее коммит. Корзина
// к этому моменту уже изъята: durable-корзину дренирует транзакция
// CheckoutStore, сессионную — TakeAll до записи заказа.
// Ошибки здесь только логируются — заказ уже создан.
func (s *Service) cleanupAfterCommit(owner domain.OwnerKey) {
	if err := s.previews.Delete(owner); err != nil {
		s.logger.WithFields(log.Fields{
			"owner": owner.String(),
			"error": err,
		}).Warn("Failed to drop preview after commit")
	}
}
