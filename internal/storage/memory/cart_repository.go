package memory

import (
	"sync"
	"time"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
)

// CartRepository — простая in-memory реализация domain.CartRepository.
// Обслуживает обоих владельцев (customer и session) одним хранилищем.
type CartRepository struct {
	mu    sync.RWMutex
	items map[string]domain.Cart
}

// NewCartRepository возвращает in-memory репозиторий для локальной разработки и тестов.
func NewCartRepository() *CartRepository {
	return &CartRepository{
		items: make(map[string]domain.Cart),
	}
}

// AddLine увеличивает существующую позицию или вставляет новую.
// Корзина создаётся лениво при первой мутации.
func (r *CartRepository) AddLine(owner domain.OwnerKey, productID string, qty int32) error {
	if err := owner.Validate(); err != nil {
		return err
	}
	if qty <= 0 {
		return domain.ErrQtyInvalid
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	cart := r.items[owner.String()]
	cart.Owner = owner

	found := false
	for i := range cart.Lines {
		if cart.Lines[i].ProductID == productID {
			cart.Lines[i].Qty += qty
			found = true
			break
		}
	}
	if !found {
		cart.Lines = append(cart.Lines, domain.CartLine{ProductID: productID, Qty: qty})
	}

	cart.UpdatedAt = time.Now().UTC()
	r.items[owner.String()] = cart
	return nil
}

// RemoveQuantity уменьшает позицию на qty; остаток <= 0 удаляет позицию.
func (r *CartRepository) RemoveQuantity(owner domain.OwnerKey, productID string, qty int32) error {
	if err := owner.Validate(); err != nil {
		return err
	}
	if qty <= 0 {
		return domain.ErrQtyInvalid
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	cart, ok := r.items[owner.String()]
	if !ok {
		return domain.ErrCartLineNotFound
	}

	for i := range cart.Lines {
		if cart.Lines[i].ProductID != productID {
			continue
		}
		cart.Lines[i].Qty -= qty
		if cart.Lines[i].Qty <= 0 {
			cart.Lines = append(cart.Lines[:i], cart.Lines[i+1:]...)
		}
		cart.UpdatedAt = time.Now().UTC()
		r.items[owner.String()] = cart
		return nil
	}

	return domain.ErrCartLineNotFound
}

// SetQuantity выставляет количество: qty <= 0 удаляет позицию, qty > 0 делает upsert.
func (r *CartRepository) SetQuantity(owner domain.OwnerKey, productID string, qty int32) error {
	if err := owner.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	cart := r.items[owner.String()]
	cart.Owner = owner

	idx := -1
	for i := range cart.Lines {
		if cart.Lines[i].ProductID == productID {
			idx = i
			break
		}
	}

	switch {
	case qty <= 0 && idx >= 0:
		cart.Lines = append(cart.Lines[:idx], cart.Lines[idx+1:]...)
	case qty <= 0:
		// Удаление отсутствующей позиции — no-op, эквивалентно RemoveLine по контракту SetQuantity.
		return nil
	case idx >= 0:
		cart.Lines[idx].Qty = qty
	default:
		cart.Lines = append(cart.Lines, domain.CartLine{ProductID: productID, Qty: qty})
	}

	cart.UpdatedAt = time.Now().UTC()
	r.items[owner.String()] = cart
	return nil
}

// RemoveLine безусловно удаляет позицию или возвращает ErrCartLineNotFound.
func (r *CartRepository) RemoveLine(owner domain.OwnerKey, productID string) error {
	if err := owner.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	cart, ok := r.items[owner.String()]
	if !ok {
		return domain.ErrCartLineNotFound
	}

	for i := range cart.Lines {
		if cart.Lines[i].ProductID == productID {
			cart.Lines = append(cart.Lines[:i], cart.Lines[i+1:]...)
			cart.UpdatedAt = time.Now().UTC()
			r.items[owner.String()] = cart
			return nil
		}
	}

	return domain.ErrCartLineNotFound
}

// Clear удаляет все позиции; идемпотентна для пустой или несуществующей корзины.
func (r *CartRepository) Clear(owner domain.OwnerKey) error {
	if err := owner.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.items, owner.String())
	return nil
}

// Read возвращает копию снимка корзины; для несуществующей — пустую корзину.
func (r *CartRepository) Read(owner domain.OwnerKey) (domain.Cart, error) {
	if err := owner.Validate(); err != nil {
		return domain.Cart{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	cart, ok := r.items[owner.String()]
	if !ok {
		return domain.Cart{Owner: owner, Lines: []domain.CartLine{}}, nil
	}

	// Копируем позиции, чтобы избежать непредсказуемых мутаций извне.
	snapshot := domain.Cart{
		Owner:     cart.Owner,
		Lines:     make([]domain.CartLine, len(cart.Lines)),
		UpdatedAt: cart.UpdatedAt,
	}
	copy(snapshot.Lines, cart.Lines)
	return snapshot, nil
}

// TakeAll атомарно изымает корзину целиком: снимок возвращается, а запись
// удаляется под одним локом, так что из двух конкурентных вызовов непустой
// снимок достаётся ровно одному.
func (r *CartRepository) TakeAll(owner domain.OwnerKey) (domain.Cart, error) {
	if err := owner.Validate(); err != nil {
		return domain.Cart{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	cart, ok := r.items[owner.String()]
	if !ok {
		return domain.Cart{Owner: owner, Lines: []domain.CartLine{}}, nil
	}
	delete(r.items, owner.String())
	cart.Owner = owner
	return cart, nil
}

// restoreLines возвращает позиции в корзину при откате коммита.
func (r *CartRepository) restoreLines(owner domain.OwnerKey, lines []domain.CartLine) {
	if len(lines) == 0 {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.items[owner.String()] = domain.Cart{
		Owner:     owner,
		Lines:     lines,
		UpdatedAt: time.Now().UTC(),
	}
}

var _ domain.CartRepository = (*CartRepository)(nil)
