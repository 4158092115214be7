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

const cartKeyPrefix = "checkout:cart:session"

// cartBlob — формат хранения сессионной корзины: один JSON-блоб на сессию.
type cartBlob struct {
	Lines     []cartBlobLine `json:"lines"`
	UpdatedAt time.Time      `json:"updated_at"`
}

type cartBlobLine struct {
	ProductID string `json:"product_id"`
	Qty       int32  `json:"qty"`
}

// cartRepository хранит гостевые корзины в Redis с TTL на весь блоб.
// Каждая мутация переписывает блоб целиком и продлевает TTL: сессией владеет
// один клиент, поэтому конкурентные мутации одной корзины не ожидаются.
type cartRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCartRepository создаёт Redis-реализацию CartRepository для сессионных корзин.
func NewCartRepository(store *Store, ttl time.Duration) domain.CartRepository {
	return &cartRepository{client: store.Client(), ttl: ttl}
}

func (r *cartRepository) AddLine(owner domain.OwnerKey, productID string, qty int32) error {
	if qty <= 0 {
		return domain.ErrQtyInvalid
	}
	return r.mutate(owner, func(blob *cartBlob) error {
		for i := range blob.Lines {
			if blob.Lines[i].ProductID == productID {
				blob.Lines[i].Qty += qty
				return nil
			}
		}
		blob.Lines = append(blob.Lines, cartBlobLine{ProductID: productID, Qty: qty})
		return nil
	})
}

func (r *cartRepository) RemoveQuantity(owner domain.OwnerKey, productID string, qty int32) error {
	if qty <= 0 {
		return domain.ErrQtyInvalid
	}
	return r.mutate(owner, func(blob *cartBlob) error {
		for i := range blob.Lines {
			if blob.Lines[i].ProductID != productID {
				continue
			}
			blob.Lines[i].Qty -= qty
			if blob.Lines[i].Qty <= 0 {
				blob.Lines = append(blob.Lines[:i], blob.Lines[i+1:]...)
			}
			return nil
		}
		return domain.ErrCartLineNotFound
	})
}

func (r *cartRepository) SetQuantity(owner domain.OwnerKey, productID string, qty int32) error {
	return r.mutate(owner, func(blob *cartBlob) error {
		for i := range blob.Lines {
			if blob.Lines[i].ProductID != productID {
				continue
			}
			if qty <= 0 {
				blob.Lines = append(blob.Lines[:i], blob.Lines[i+1:]...)
			} else {
				blob.Lines[i].Qty = qty
			}
			return nil
		}
		if qty > 0 {
			blob.Lines = append(blob.Lines, cartBlobLine{ProductID: productID, Qty: qty})
		}
		return nil
	})
}

func (r *cartRepository) RemoveLine(owner domain.OwnerKey, productID string) error {
	return r.mutate(owner, func(blob *cartBlob) error {
		for i := range blob.Lines {
			if blob.Lines[i].ProductID == productID {
				blob.Lines = append(blob.Lines[:i], blob.Lines[i+1:]...)
				return nil
			}
		}
		return domain.ErrCartLineNotFound
	})
}

func (r *cartRepository) Clear(owner domain.OwnerKey) error {
	if err := validateSessionOwner(owner); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	if err := r.client.Del(ctx, cartKey(owner)).Err(); err != nil {
		return fmt.Errorf("delete session cart: %w", err)
	}
	return nil
}

func (r *cartRepository) Read(owner domain.OwnerKey) (domain.Cart, error) {
	if err := validateSessionOwner(owner); err != nil {
		return domain.Cart{}, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	blob, err := r.load(ctx, owner)
	if err != nil {
		return domain.Cart{}, err
	}

	cart := domain.Cart{Owner: owner, Lines: make([]domain.CartLine, 0, len(blob.Lines)), UpdatedAt: blob.UpdatedAt}
	for _, line := range blob.Lines {
		cart.Lines = append(cart.Lines, domain.CartLine{ProductID: line.ProductID, Qty: line.Qty})
	}
	return cart, nil
}

// TakeAll атомарно изымает сессионную корзину: GETDEL возвращает блоб и
// удаляет ключ одной командой, поэтому из двух конкурентных коммитов непустой
// снимок получает ровно один.
func (r *cartRepository) TakeAll(owner domain.OwnerKey) (domain.Cart, error) {
	if err := validateSessionOwner(owner); err != nil {
		return domain.Cart{}, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	cart := domain.Cart{Owner: owner, Lines: []domain.CartLine{}}

	payload, err := r.client.GetDel(ctx, cartKey(owner)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return cart, nil
		}
		return domain.Cart{}, fmt.Errorf("take session cart: %w", err)
	}

	var blob cartBlob
	if err := json.Unmarshal(payload, &blob); err != nil {
		return domain.Cart{}, fmt.Errorf("unmarshal session cart: %w", err)
	}
	for _, line := range blob.Lines {
		cart.Lines = append(cart.Lines, domain.CartLine{ProductID: line.ProductID, Qty: line.Qty})
	}
	cart.UpdatedAt = blob.UpdatedAt
	return cart, nil
}

// mutate читает блоб, применяет fn и переписывает блоб с продлением TTL.
// Опустевшая корзина удаляется, чтобы не держать пустые ключи.
func (r *cartRepository) mutate(owner domain.OwnerKey, fn func(blob *cartBlob) error) error {
	if err := validateSessionOwner(owner); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	blob, err := r.load(ctx, owner)
	if err != nil {
		return err
	}
	if err := fn(&blob); err != nil {
		return err
	}

	key := cartKey(owner)
	if len(blob.Lines) == 0 {
		if err := r.client.Del(ctx, key).Err(); err != nil {
			return fmt.Errorf("delete drained session cart: %w", err)
		}
		return nil
	}

	blob.UpdatedAt = time.Now().UTC()
	payload, err := json.Marshal(blob)
	if err != nil {
		return fmt.Errorf("marshal session cart: %w", err)
	}
	if err := r.client.Set(ctx, key, payload, r.ttl).Err(); err != nil {
		return fmt.Errorf("store session cart: %w", err)
	}
	return nil
}

func (r *cartRepository) load(ctx context.Context, owner domain.OwnerKey) (cartBlob, error) {
	payload, err := r.client.Get(ctx, cartKey(owner)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return cartBlob{}, nil
		}
		return cartBlob{}, fmt.Errorf("load session cart: %w", err)
	}

	var blob cartBlob
	if err := json.Unmarshal(payload, &blob); err != nil {
		return cartBlob{}, fmt.Errorf("unmarshal session cart: %w", err)
	}
	return blob, nil
}

func cartKey(owner domain.OwnerKey) string {
	return fmt.Sprintf("%s:%s", cartKeyPrefix, owner.ID)
}

// validateSessionOwner допускает только сессионных владельцев: корзины
// авторизованных клиентов живут в PostgreSQL.
func validateSessionOwner(owner domain.OwnerKey) error {
	if err := owner.Validate(); err != nil {
		return err
	}
	if owner.Kind != domain.OwnerSession {
		return domain.ErrOwnerRequired
	}
	return nil
}

var _ domain.CartRepository = (*cartRepository)(nil)
