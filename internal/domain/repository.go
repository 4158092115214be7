package domain

// CartRepository описывает требования к хранилищу корзин. Семантика операций
// одинакова для durable-корзины клиента и сессионной корзины гостя.
type CartRepository interface {
	// AddLine добавляет qty единиц товара: существующая позиция увеличивается,
	// отсутствующая вставляется. Корзина создаётся лениво при первой мутации.
	// Существование товара здесь не проверяется.
	AddLine(owner OwnerKey, productID string, qty int32) error
	// RemoveQuantity уменьшает позицию на qty; позиция с остатком <= 0 удаляется.
	// Возвращает ErrCartLineNotFound, если позиции нет.
	RemoveQuantity(owner OwnerKey, productID string, qty int32) error
	// SetQuantity выставляет количество: qty <= 0 удаляет позицию, qty > 0 делает upsert.
	SetQuantity(owner OwnerKey, productID string, qty int32) error
	// RemoveLine безусловно удаляет позицию или возвращает ErrCartLineNotFound.
	RemoveLine(owner OwnerKey, productID string) error
	// Clear удаляет все позиции; идемпотентна для пустой корзины.
	Clear(owner OwnerKey) error
	// Read возвращает текущий снимок корзины; для несуществующей корзины — пустую.
	Read(owner OwnerKey) (Cart, error)
	// TakeAll атомарно изымает корзину целиком: возвращает снимок и удаляет
	// содержимое одним действием. Из двух конкурентных вызовов непустой снимок
	// получает ровно один; для пустой корзины возвращается пустой снимок.
	TakeAll(owner OwnerKey) (Cart, error)
}

// OrderRepository описывает требования к хранилищу заказов. Создание заказа
// идёт только через CheckoutStore в рамках атомарного коммита.
type OrderRepository interface {
	// Get возвращает заказ с позициями или ErrOrderNotFound.
	Get(id string) (Order, error)
	// ListByCustomer возвращает заказы клиента с опциональным ограничением на количество.
	ListByCustomer(customerID string, limit int) ([]Order, error)
	// Save применяет обновления статуса к заказу с учётом optimistic locking.
	Save(order Order) error
}

// CouponRepository даёт доступ к купонам на чтение. Декремент количества
// принадлежит CheckoutStore, потому что обязан участвовать в транзакции коммита.
type CouponRepository interface {
	// FindByCode возвращает купон по коду или ErrCouponNotFound.
	FindByCode(code string) (Coupon, error)
}

// PreviewCache хранит последний расчёт стоимости для каждого владельца
// с ограниченным TTL.
type PreviewCache interface {
	// Put сохраняет расчёт, замещая предыдущий для этого владельца.
	Put(preview PricedPreview) error
	// Get возвращает актуальный расчёт или ErrPreviewExpired после истечения TTL.
	Get(owner OwnerKey) (PricedPreview, error)
	// Delete удаляет расчёт владельца; идемпотентна.
	Delete(owner OwnerKey) error
}

// CheckoutStore выполняет атомарную запись коммита: заказ с позициями,
// охраняемый декремент купона и очистка durable-корзины — одна транзакция,
// откатывающаяся целиком при любой ошибке.
type CheckoutStore interface {
	// CommitOrder сохраняет заказ и его позиции, уменьшает quantity_available
	// купона (если order.CouponCode задан; исчерпанный или истёкший купон даёт
	// ErrCouponExhausted) и очищает корзину владельца-клиента. Если корзина
	// клиента к этому моменту уже пуста, возвращает ErrEmptyCart и ничего не
	// записывает. Сессионную корзину вызывающая сторона атомарно изымает через
	// CartRepository.TakeAll до коммита и восстанавливает при его провале.
	CommitOrder(order Order, owner OwnerKey) error
}
