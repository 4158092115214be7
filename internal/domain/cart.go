package domain

import "time"

// OwnerKind различает владельца корзины: авторизованный клиент или анонимная сессия.
type OwnerKind string

const (
	// OwnerCustomer — корзина привязана к учётной записи и хранится durable.
	OwnerCustomer OwnerKind = "customer"
	// OwnerSession — корзина живёт в рамках анонимной сессии и исчезает вместе с ней.
	OwnerSession OwnerKind = "session"
)

// OwnerKey однозначно идентифицирует владельца корзины: ровно один из
// customer_id или session_id.
type OwnerKey struct {
	Kind OwnerKind
	ID   string
}

// CustomerKey возвращает ключ корзины авторизованного клиента.
func CustomerKey(customerID string) OwnerKey {
	return OwnerKey{Kind: OwnerCustomer, ID: customerID}
}

// SessionKey возвращает ключ анонимной сессионной корзины.
func SessionKey(sessionID string) OwnerKey {
	return OwnerKey{Kind: OwnerSession, ID: sessionID}
}

// Validate проверяет, что ключ владельца заполнен корректно.
func (k OwnerKey) Validate() error {
	if k.ID == "" {
		return ErrOwnerRequired
	}
	if k.Kind != OwnerCustomer && k.Kind != OwnerSession {
		return ErrOwnerRequired
	}
	return nil
}

// String возвращает строковое представление вида "customer:42" для ключей кеша и логов.
func (k OwnerKey) String() string {
	return string(k.Kind) + ":" + k.ID
}

// CartLine — одна позиция корзины. Идентичность позиции определяется product_id.
type CartLine struct {
	ProductID string
	Qty       int32
}

// Cart агрегирует позиции корзины одного владельца.
// Инвариант: qty каждой позиции строго больше нуля, product_id уникален;
// позиция с количеством 0 удаляется, а не сохраняется.
type Cart struct {
	Owner     OwnerKey
	Lines     []CartLine
	UpdatedAt time.Time
}

// IsEmpty сообщает, пуста ли корзина.
func (c Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

// Line возвращает позицию по product_id.
func (c Cart) Line(productID string) (CartLine, bool) {
	for _, line := range c.Lines {
		if line.ProductID == productID {
			return line, true
		}
	}
	return CartLine{}, false
}

// ValidateInvariants проверяет базовые инварианты корзины и возвращает список замечаний.
func (c *Cart) ValidateInvariants() []error {
	var errs []error

	if err := c.Owner.Validate(); err != nil {
		errs = append(errs, err)
	}

	seen := make(map[string]bool, len(c.Lines))
	for _, line := range c.Lines {
		if line.Qty <= 0 {
			errs = append(errs, ErrQtyInvalid)
		}
		if seen[line.ProductID] {
			errs = append(errs, ErrDuplicateProduct)
		}
		seen[line.ProductID] = true
	}

	return errs
}
