package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
)

const orderColumns = `
	id, customer_id, status, payment_status,
	subtotal_minor, discount_minor, shipping_minor, grand_total_minor,
	coupon_code, shipping_option_id, payment_method_id,
	address, phone, email,
	version, created_at, updated_at, estimated_delivery_at`

// orderRepository — PostgreSQL-реализация OrderRepository. Создание заказов
// принадлежит CheckoutStore; здесь только чтение и обновление статусов.
type orderRepository struct {
	db *sql.DB
}

// NewOrderRepository создаёт PostgreSQL-реализацию OrderRepository.
func NewOrderRepository(store *Store) domain.OrderRepository {
	return &orderRepository{db: store.DB()}
}

// Get возвращает заказ с позициями или ErrOrderNotFound.
func (r *orderRepository) Get(id string) (domain.Order, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	row := r.db.QueryRowContext(ctx, `SELECT`+orderColumns+` FROM orders WHERE id = $1`, id)
	order, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Order{}, domain.ErrOrderNotFound
		}
		return domain.Order{}, classify(fmt.Errorf("select order: %w", err))
	}

	lines, err := r.loadLines(ctx, []string{order.ID})
	if err != nil {
		return domain.Order{}, err
	}
	order.Lines = lines[order.ID]

	return order, nil
}

// ListByCustomer возвращает заказы клиента, свежие первыми.
func (r *orderRepository) ListByCustomer(customerID string, limit int) ([]domain.Order, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	query := `SELECT` + orderColumns + ` FROM orders
		WHERE customer_id = $1
		ORDER BY created_at DESC, id DESC`
	args := []any{customerID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify(fmt.Errorf("select customer orders: %w", err))
	}
	defer rows.Close()

	var (
		orders []domain.Order
		ids    []string
	)
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, order)
		ids = append(ids, order.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(fmt.Errorf("iterate orders: %w", err))
	}
	if len(orders) == 0 {
		return []domain.Order{}, nil
	}

	lines, err := r.loadLines(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].Lines = lines[orders[i].ID]
	}

	return orders, nil
}

// Save обновляет изменяемые поля заказа с optimistic locking по version.
// Несовпадение версии означает конкурентное обновление и даёт
// ErrOrderVersionConflict.
func (r *orderRepository) Save(order domain.Order) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
		UPDATE orders
		SET status = $1,
		    payment_status = $2,
		    estimated_delivery_at = $3,
		    updated_at = NOW(),
		    version = version + 1
		WHERE id = $4 AND version = $5
	`, string(order.Status), string(order.PaymentStatus), order.EstimatedDeliveryAt, order.ID, order.Version)
	if err != nil {
		return classify(fmt.Errorf("update order: %w", err))
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		// Либо заказа нет, либо версия устарела.
		var exists bool
		if err := r.db.QueryRowContext(ctx, `
			SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)
		`, order.ID).Scan(&exists); err != nil {
			return classify(fmt.Errorf("check order existence: %w", err))
		}
		if !exists {
			return domain.ErrOrderNotFound
		}
		return domain.ErrOrderVersionConflict
	}

	return nil
}

// loadLines читает позиции сразу для пачки заказов, чтобы ListByCustomer
// не порождал N+1 запросов.
func (r *orderRepository) loadLines(ctx context.Context, orderIDs []string) (map[string][]domain.OrderLine, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, order_id, product_id, qty, unit_price_minor, line_total_minor, created_at
		FROM order_lines
		WHERE order_id = ANY($1)
		ORDER BY order_id, product_id
	`, orderIDs)
	if err != nil {
		return nil, classify(fmt.Errorf("select order lines: %w", err))
	}
	defer rows.Close()

	result := make(map[string][]domain.OrderLine, len(orderIDs))
	for rows.Next() {
		var line domain.OrderLine
		if err := rows.Scan(&line.ID, &line.OrderID, &line.ProductID, &line.Qty,
			&line.UnitPriceMinor, &line.LineTotalMinor, &line.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan order line: %w", err)
		}
		result[line.OrderID] = append(result[line.OrderID], line)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(fmt.Errorf("iterate order lines: %w", err))
	}

	return result, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (domain.Order, error) {
	var (
		order                 domain.Order
		status, paymentStatus string
		estimatedDelivery     sql.NullTime
	)
	if err := row.Scan(
		&order.ID, &order.CustomerID, &status, &paymentStatus,
		&order.SubtotalMinor, &order.DiscountMinor, &order.ShippingMinor, &order.GrandTotalMinor,
		&order.CouponCode, &order.ShippingOptionID, &order.PaymentMethodID,
		&order.Address, &order.Phone, &order.Email,
		&order.Version, &order.CreatedAt, &order.UpdatedAt, &estimatedDelivery,
	); err != nil {
		return domain.Order{}, err
	}
	order.Status = domain.OrderStatus(status)
	order.PaymentStatus = domain.PaymentStatus(paymentStatus)
	if estimatedDelivery.Valid {
		t := estimatedDelivery.Time
		order.EstimatedDeliveryAt = &t
	}
	return order, nil
}

var _ domain.OrderRepository = (*orderRepository)(nil)
