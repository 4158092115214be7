package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
)

// checkoutStore выполняет атомарную запись коммита заказа. Охраняемый
// декремент купона, очистка корзины и вставка заказа с позициями идут
// в одной транзакции: любая ошибка откатывает всё.
type checkoutStore struct {
	db *sql.DB
}

// NewCheckoutStore создаёт PostgreSQL-реализацию CheckoutStore.
func NewCheckoutStore(store *Store) domain.CheckoutStore {
	return &checkoutStore{db: store.DB()}
}

// CommitOrder сохраняет заказ в одной транзакции с декрементом купона и
// очисткой durable-корзины клиента. Пустая корзина клиента даёт ErrEmptyCart,
// исчерпанный или истёкший купон — ErrCouponExhausted; заказ при этом не
// создаётся. Сессионные корзины гостей живут вне базы, их очищает вызывающая
// сторона после успешного коммита.
func (s *checkoutStore) CommitOrder(order domain.Order, owner domain.OwnerKey) error {
	if err := owner.Validate(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return classify(fmt.Errorf("begin commit tx: %w", err))
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if order.CouponCode != "" {
		if err := decrementCoupon(ctx, tx, order.CouponCode); err != nil {
			return err
		}
	}

	if owner.Kind == domain.OwnerCustomer {
		if err := drainCart(ctx, tx, owner.ID); err != nil {
			return err
		}
	}

	if err := insertOrder(ctx, tx, order); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return classify(fmt.Errorf("commit order tx: %w", err))
	}
	return nil
}

// decrementCoupon атомарно уменьшает quantity_available с повторной проверкой
// окна действия. Охраняемый UPDATE решает гонку за последний купон: из двух
// конкурентных коммитов ровно один увидит затронутую строку.
func decrementCoupon(ctx context.Context, tx *sql.Tx, code string) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE coupons
		SET quantity_available = quantity_available - 1,
		    updated_at = NOW()
		WHERE code = $1
		  AND quantity_available > 0
		  AND (valid_from IS NULL OR valid_from <= NOW())
		  AND (valid_to IS NULL OR valid_to >= NOW())
	`, code)
	if err != nil {
		return classify(fmt.Errorf("decrement coupon: %w", err))
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrCouponExhausted
	}
	return nil
}

// drainCart очищает durable-корзину клиента. Ноль затронутых строк означает,
// что корзина опустела между прайс-превью и коммитом: заказ в этом случае
// создавать нельзя.
func drainCart(ctx context.Context, tx *sql.Tx, customerID string) error {
	res, err := tx.ExecContext(ctx, `
		DELETE FROM cart_lines cl
		USING carts c
		WHERE cl.cart_id = c.id AND c.customer_id = $1
	`, customerID)
	if err != nil {
		return classify(fmt.Errorf("drain cart: %w", err))
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrEmptyCart
	}
	return nil
}

func insertOrder(ctx context.Context, tx *sql.Tx, order domain.Order) error {
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO orders (
			id, customer_id, status, payment_status,
			subtotal_minor, discount_minor, shipping_minor, grand_total_minor,
			coupon_code, shipping_option_id, payment_method_id,
			address, phone, email,
			version, created_at, updated_at, estimated_delivery_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`,
		order.ID, order.CustomerID, string(order.Status), string(order.PaymentStatus),
		order.SubtotalMinor, order.DiscountMinor, order.ShippingMinor, order.GrandTotalMinor,
		order.CouponCode, order.ShippingOptionID, order.PaymentMethodID,
		order.Address, order.Phone, order.Email,
		order.Version, order.CreatedAt, order.UpdatedAt, order.EstimatedDeliveryAt,
	); err != nil {
		if isUniqueViolation(err) {
			return domain.ErrOrderExists
		}
		return classify(fmt.Errorf("insert order: %w", err))
	}

	for _, line := range order.Lines {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO order_lines (id, order_id, product_id, qty, unit_price_minor, line_total_minor, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, line.ID, line.OrderID, line.ProductID, line.Qty,
			line.UnitPriceMinor, line.LineTotalMinor, line.CreatedAt); err != nil {
			return classify(fmt.Errorf("insert order line: %w", err))
		}
	}

	return nil
}

var _ domain.CheckoutStore = (*checkoutStore)(nil)
