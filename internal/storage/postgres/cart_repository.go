package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
)

const opTimeout = 5 * time.Second

// cartRepository — durable-реализация CartRepository для авторизованных
// клиентов. Сессионные корзины обслуживает storage/redis.
type cartRepository struct {
	db *sql.DB
}

// NewCartRepository создаёт PostgreSQL-реализацию CartRepository.
func NewCartRepository(store *Store) domain.CartRepository {
	return &cartRepository{db: store.DB()}
}

// AddLine увеличивает существующую позицию или вставляет новую.
// Запись корзины создаётся атомарно при первой мутации: уникальный индекс
// по customer_id плюс ON CONFLICT DO NOTHING снимают гонку двух параллельных
// первых добавлений.
func (r *cartRepository) AddLine(owner domain.OwnerKey, productID string, qty int32) error {
	if err := validateDurableOwner(owner); err != nil {
		return err
	}
	if qty <= 0 {
		return domain.ErrQtyInvalid
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	cartID, err := r.ensureCart(ctx, owner.ID)
	if err != nil {
		return err
	}

	if _, err := r.db.ExecContext(ctx, `
		INSERT INTO cart_lines (cart_id, product_id, qty)
		VALUES ($1, $2, $3)
		ON CONFLICT (cart_id, product_id)
		DO UPDATE SET qty = cart_lines.qty + EXCLUDED.qty
	`, cartID, productID, qty); err != nil {
		return classify(fmt.Errorf("upsert cart line: %w", err))
	}

	return r.touch(ctx, cartID)
}

// RemoveQuantity уменьшает позицию на qty; остаток <= 0 удаляет позицию.
func (r *cartRepository) RemoveQuantity(owner domain.OwnerKey, productID string, qty int32) error {
	if err := validateDurableOwner(owner); err != nil {
		return err
	}
	if qty <= 0 {
		return domain.ErrQtyInvalid
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var remaining int32
	err := r.db.QueryRowContext(ctx, `
		UPDATE cart_lines cl
		SET qty = cl.qty - $3
		FROM carts c
		WHERE cl.cart_id = c.id AND c.customer_id = $1 AND cl.product_id = $2
		RETURNING cl.qty
	`, owner.ID, productID, qty).Scan(&remaining)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrCartLineNotFound
		}
		return classify(fmt.Errorf("decrement cart line: %w", err))
	}

	if remaining <= 0 {
		// Позиция с нулевым остатком никогда не сохраняется.
		if _, err := r.db.ExecContext(ctx, `
			DELETE FROM cart_lines cl
			USING carts c
			WHERE cl.cart_id = c.id AND c.customer_id = $1 AND cl.product_id = $2
		`, owner.ID, productID); err != nil {
			return classify(fmt.Errorf("delete drained cart line: %w", err))
		}
	}

	return r.touchByCustomer(ctx, owner.ID)
}

// SetQuantity выставляет количество: qty <= 0 удаляет позицию, qty > 0 делает upsert.
func (r *cartRepository) SetQuantity(owner domain.OwnerKey, productID string, qty int32) error {
	if err := validateDurableOwner(owner); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	if qty <= 0 {
		if _, err := r.db.ExecContext(ctx, `
			DELETE FROM cart_lines cl
			USING carts c
			WHERE cl.cart_id = c.id AND c.customer_id = $1 AND cl.product_id = $2
		`, owner.ID, productID); err != nil {
			return classify(fmt.Errorf("delete cart line: %w", err))
		}
		return r.touchByCustomer(ctx, owner.ID)
	}

	cartID, err := r.ensureCart(ctx, owner.ID)
	if err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, `
		INSERT INTO cart_lines (cart_id, product_id, qty)
		VALUES ($1, $2, $3)
		ON CONFLICT (cart_id, product_id)
		DO UPDATE SET qty = EXCLUDED.qty
	`, cartID, productID, qty); err != nil {
		return classify(fmt.Errorf("set cart line qty: %w", err))
	}

	return r.touch(ctx, cartID)
}

// RemoveLine безусловно удаляет позицию или возвращает ErrCartLineNotFound.
func (r *cartRepository) RemoveLine(owner domain.OwnerKey, productID string) error {
	if err := validateDurableOwner(owner); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
		DELETE FROM cart_lines cl
		USING carts c
		WHERE cl.cart_id = c.id AND c.customer_id = $1 AND cl.product_id = $2
	`, owner.ID, productID)
	if err != nil {
		return classify(fmt.Errorf("delete cart line: %w", err))
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrCartLineNotFound
	}

	return r.touchByCustomer(ctx, owner.ID)
}

// Clear удаляет все позиции; идемпотентна для пустой корзины.
func (r *cartRepository) Clear(owner domain.OwnerKey) error {
	if err := validateDurableOwner(owner); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	if _, err := r.db.ExecContext(ctx, `
		DELETE FROM cart_lines cl
		USING carts c
		WHERE cl.cart_id = c.id AND c.customer_id = $1
	`, owner.ID); err != nil {
		return classify(fmt.Errorf("clear cart: %w", err))
	}

	return r.touchByCustomer(ctx, owner.ID)
}

// Read возвращает текущий снимок корзины; для несуществующей — пустую.
func (r *cartRepository) Read(owner domain.OwnerKey) (domain.Cart, error) {
	if err := validateDurableOwner(owner); err != nil {
		return domain.Cart{}, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	cart := domain.Cart{Owner: owner, Lines: []domain.CartLine{}}

	rows, err := r.db.QueryContext(ctx, `
		SELECT cl.product_id, cl.qty, c.updated_at
		FROM cart_lines cl
		JOIN carts c ON c.id = cl.cart_id
		WHERE c.customer_id = $1
		ORDER BY cl.product_id ASC
	`, owner.ID)
	if err != nil {
		return domain.Cart{}, classify(fmt.Errorf("select cart lines: %w", err))
	}
	defer rows.Close()

	for rows.Next() {
		var line domain.CartLine
		if err := rows.Scan(&line.ProductID, &line.Qty, &cart.UpdatedAt); err != nil {
			return domain.Cart{}, fmt.Errorf("scan cart line: %w", err)
		}
		cart.Lines = append(cart.Lines, line)
	}
	if err := rows.Err(); err != nil {
		return domain.Cart{}, classify(fmt.Errorf("iterate cart lines: %w", err))
	}

	return cart, nil
}

// TakeAll атомарно изымает корзину целиком: одиночный DELETE ... RETURNING
// возвращает позиции и удаляет их в одном операторе, вторая конкурентная
// попытка не увидит строк.
func (r *cartRepository) TakeAll(owner domain.OwnerKey) (domain.Cart, error) {
	if err := validateDurableOwner(owner); err != nil {
		return domain.Cart{}, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	cart := domain.Cart{Owner: owner, Lines: []domain.CartLine{}}

	rows, err := r.db.QueryContext(ctx, `
		DELETE FROM cart_lines cl
		USING carts c
		WHERE cl.cart_id = c.id AND c.customer_id = $1
		RETURNING cl.product_id, cl.qty
	`, owner.ID)
	if err != nil {
		return domain.Cart{}, classify(fmt.Errorf("take cart lines: %w", err))
	}
	defer rows.Close()

	for rows.Next() {
		var line domain.CartLine
		if err := rows.Scan(&line.ProductID, &line.Qty); err != nil {
			return domain.Cart{}, fmt.Errorf("scan taken cart line: %w", err)
		}
		cart.Lines = append(cart.Lines, line)
	}
	if err := rows.Err(); err != nil {
		return domain.Cart{}, classify(fmt.Errorf("iterate taken cart lines: %w", err))
	}

	if len(cart.Lines) > 0 {
		if err := r.touchByCustomer(ctx, owner.ID); err != nil {
			return domain.Cart{}, err
		}
	}
	return cart, nil
}

// ensureCart находит или атомарно создаёт запись корзины клиента.
func (r *cartRepository) ensureCart(ctx context.Context, customerID string) (string, error) {
	if _, err := r.db.ExecContext(ctx, `
		INSERT INTO carts (id, customer_id, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (customer_id) DO NOTHING
	`, uuid.NewString(), customerID); err != nil {
		return "", classify(fmt.Errorf("ensure cart: %w", err))
	}

	var cartID string
	if err := r.db.QueryRowContext(ctx, `
		SELECT id FROM carts WHERE customer_id = $1
	`, customerID).Scan(&cartID); err != nil {
		return "", classify(fmt.Errorf("select cart id: %w", err))
	}
	return cartID, nil
}

func (r *cartRepository) touch(ctx context.Context, cartID string) error {
	if _, err := r.db.ExecContext(ctx, `
		UPDATE carts SET updated_at = NOW() WHERE id = $1
	`, cartID); err != nil {
		return classify(fmt.Errorf("touch cart: %w", err))
	}
	return nil
}

func (r *cartRepository) touchByCustomer(ctx context.Context, customerID string) error {
	if _, err := r.db.ExecContext(ctx, `
		UPDATE carts SET updated_at = NOW() WHERE customer_id = $1
	`, customerID); err != nil {
		return classify(fmt.Errorf("touch cart: %w", err))
	}
	return nil
}

// validateDurableOwner допускает только владельцев-клиентов: гостевые корзины
// живут в сессионном хранилище.
func validateDurableOwner(owner domain.OwnerKey) error {
	if err := owner.Validate(); err != nil {
		return err
	}
	if owner.Kind != domain.OwnerCustomer {
		return domain.ErrOwnerRequired
	}
	return nil
}

var _ domain.CartRepository = (*cartRepository)(nil)
