package memory

import (
	"time"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
)

// CheckoutStore — in-memory реализация domain.CheckoutStore. Атомарность
// обеспечивается порядком шагов с компенсациями: неудача любого шага
// возвращает уже изменённые ресурсы в исходное состояние.
type CheckoutStore struct {
	carts   *CartRepository
	orders  *OrderRepository
	coupons *CouponRepository
}

// NewCheckoutStore собирает чекаут-хранилище поверх in-memory репозиториев.
func NewCheckoutStore(carts *CartRepository, orders *OrderRepository, coupons *CouponRepository) *CheckoutStore {
	return &CheckoutStore{carts: carts, orders: orders, coupons: coupons}
}

// CommitOrder выполняет атомарную запись коммита: декремент купона,
// изъятие корзины клиента, создание заказа. Любая ошибка откатывает
// предыдущие шаги, поэтому частичные записи не наблюдаемы.
func (s *CheckoutStore) CommitOrder(order domain.Order, owner domain.OwnerKey) error {
	if err := owner.Validate(); err != nil {
		return err
	}

	couponApplied := false
	if order.CouponCode != "" {
		coupon, err := s.coupons.FindByCode(order.CouponCode)
		if err != nil {
			return domain.ErrCouponExhausted
		}
		// Окно действия перепроверяется в момент коммита: купон мог истечь
		// после предпросмотра.
		if !coupon.ValidAt(time.Now().UTC()) {
			return domain.ErrCouponExhausted
		}
		if err := s.coupons.decrement(order.CouponCode); err != nil {
			return domain.ErrCouponExhausted
		}
		couponApplied = true
	}

	var takenLines []domain.CartLine
	if owner.Kind == domain.OwnerCustomer {
		taken, err := s.carts.TakeAll(owner)
		if err != nil {
			if couponApplied {
				s.coupons.restore(order.CouponCode)
			}
			return err
		}
		takenLines = taken.Lines
		if len(takenLines) == 0 {
			if couponApplied {
				s.coupons.restore(order.CouponCode)
			}
			return domain.ErrEmptyCart
		}
	}

	if err := s.orders.create(order); err != nil {
		s.carts.restoreLines(owner, takenLines)
		if couponApplied {
			s.coupons.restore(order.CouponCode)
		}
		return err
	}

	return nil
}

var _ domain.CheckoutStore = (*CheckoutStore)(nil)
