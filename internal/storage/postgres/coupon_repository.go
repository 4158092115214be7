package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
)

// couponRepository — PostgreSQL-реализация CouponRepository. Только чтение:
// декремент quantity_available выполняет CheckoutStore внутри транзакции коммита.
type couponRepository struct {
	db *sql.DB
}

// NewCouponRepository создаёт PostgreSQL-реализацию CouponRepository.
func NewCouponRepository(store *Store) domain.CouponRepository {
	return &couponRepository{db: store.DB()}
}

// FindByCode возвращает купон по коду или ErrCouponNotFound.
func (r *couponRepository) FindByCode(code string) (domain.Coupon, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var (
		coupon             domain.Coupon
		validFrom, validTo sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, code, discount_minor, discount_percent, max_discount_minor,
		       min_order_minor, valid_from, valid_to, quantity_available,
		       created_at, updated_at
		FROM coupons
		WHERE code = $1
	`, code).Scan(
		&coupon.ID, &coupon.Code, &coupon.DiscountMinor, &coupon.DiscountPercent,
		&coupon.MaxDiscountMinor, &coupon.MinOrderMinor, &validFrom, &validTo,
		&coupon.QuantityAvailable, &coupon.CreatedAt, &coupon.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Coupon{}, domain.ErrCouponNotFound
		}
		return domain.Coupon{}, classify(fmt.Errorf("select coupon: %w", err))
	}

	if validFrom.Valid {
		t := validFrom.Time
		coupon.ValidFrom = &t
	}
	if validTo.Valid {
		t := validTo.Time
		coupon.ValidTo = &t
	}

	return coupon, nil
}

var _ domain.CouponRepository = (*couponRepository)(nil)
