package app

import "github.com/vladislavdragonenkov/checkout/internal/domain"

// cartRouter выбирает backing-хранилище корзины по виду владельца:
// durable-хранилище для клиентов, сессионное для гостей. Остальной код
// видит единый CartRepository и о двух реализациях не знает.
type cartRouter struct {
	customer domain.CartRepository
	session  domain.CartRepository
}

func newCartRouter(customer, session domain.CartRepository) *cartRouter {
	return &cartRouter{customer: customer, session: session}
}

func (r *cartRouter) pick(owner domain.OwnerKey) domain.CartRepository {
	if owner.Kind == domain.OwnerSession {
		return r.session
	}
	return r.customer
}

func (r *cartRouter) AddLine(owner domain.OwnerKey, productID string, qty int32) error {
	return r.pick(owner).AddLine(owner, productID, qty)
}

func (r *cartRouter) RemoveQuantity(owner domain.OwnerKey, productID string, qty int32) error {
	return r.pick(owner).RemoveQuantity(owner, productID, qty)
}

func (r *cartRouter) SetQuantity(owner domain.OwnerKey, productID string, qty int32) error {
	return r.pick(owner).SetQuantity(owner, productID, qty)
}

func (r *cartRouter) RemoveLine(owner domain.OwnerKey, productID string) error {
	return r.pick(owner).RemoveLine(owner, productID)
}

func (r *cartRouter) Clear(owner domain.OwnerKey) error {
	return r.pick(owner).Clear(owner)
}

func (r *cartRouter) Read(owner domain.OwnerKey) (domain.Cart, error) {
	return r.pick(owner).Read(owner)
}

func (r *cartRouter) TakeAll(owner domain.OwnerKey) (domain.Cart, error) {
	return r.pick(owner).TakeAll(owner)
}

var _ domain.CartRepository = (*cartRouter)(nil)
