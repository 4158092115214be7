package memory

import (
	"sync"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
)

// CouponRepository — in-memory реализация domain.CouponRepository.
// Помимо контракта на чтение даёт dev-окружению и тестам Seed, а
// чекаут-хранилищу этого пакета — охраняемый декремент.
type CouponRepository struct {
	mu    sync.RWMutex
	items map[string]domain.Coupon // ключ — код купона
}

// NewCouponRepository возвращает in-memory репозиторий купонов.
func NewCouponRepository() *CouponRepository {
	return &CouponRepository{
		items: make(map[string]domain.Coupon),
	}
}

// Seed добавляет или замещает купон в справочнике.
func (r *CouponRepository) Seed(coupon domain.Coupon) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[coupon.Code] = coupon
}

// FindByCode возвращает купон по коду или ErrCouponNotFound.
func (r *CouponRepository) FindByCode(code string) (domain.Coupon, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	coupon, ok := r.items[code]
	if !ok {
		return domain.Coupon{}, domain.ErrCouponNotFound
	}
	return coupon, nil
}

// decrement уменьшает quantity_available на 1; исчерпанный купон не трогается.
func (r *CouponRepository) decrement(code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	coupon, ok := r.items[code]
	if !ok {
		return domain.ErrCouponNotFound
	}
	if coupon.QuantityAvailable <= 0 {
		return domain.ErrCouponExhausted
	}
	coupon.QuantityAvailable--
	r.items[code] = coupon
	return nil
}

// restore возвращает одно применение купона при откате коммита.
func (r *CouponRepository) restore(code string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	coupon, ok := r.items[code]
	if !ok {
		return
	}
	coupon.QuantityAvailable++
	r.items[code] = coupon
}

var _ domain.CouponRepository = (*CouponRepository)(nil)
