package domain

import "errors"

var (
	// ErrOwnerRequired — ключ владельца корзины не задан или задан некорректно.
	ErrOwnerRequired = errors.New("cart owner key is required")
	// ErrQtyInvalid — количество товара должно быть больше нуля.
	ErrQtyInvalid = errors.New("quantity must be greater than zero")
	// ErrCartLineNotFound возвращается, если позиция отсутствует в корзине.
	ErrCartLineNotFound = errors.New("cart line not found")
	// ErrEmptyCart — операция требует непустую корзину.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrDuplicateProduct — product_id должен быть уникален в пределах корзины.
	ErrDuplicateProduct = errors.New("duplicate product in cart")

	// ErrProductNotFound — каталог не знает такой товар.
	ErrProductNotFound = errors.New("product not found in catalog")
	// ErrShippingOptionNotFound — неизвестный способ доставки.
	ErrShippingOptionNotFound = errors.New("shipping option not found")
	// ErrCustomerNotFound — справочник клиентов не знает такого клиента.
	ErrCustomerNotFound = errors.New("customer not found")

	// ErrCouponNotFound — купон с таким кодом не существует.
	ErrCouponNotFound = errors.New("coupon not found")
	// ErrInvalidCoupon — купон существует, но не применим (истёк, исчерпан, вне окна действия).
	ErrInvalidCoupon = errors.New("coupon is not valid")
	// ErrBelowMinimumOrder — сумма корзины меньше минимальной суммы заказа купона.
	ErrBelowMinimumOrder = errors.New("subtotal is below coupon minimum order amount")
	// ErrCouponExhausted — купон закончился в момент коммита (проигранная гонка).
	ErrCouponExhausted = errors.New("coupon quantity exhausted")

	// ErrPreviewExpired — расчёт отсутствует в кеше или истёк его TTL.
	ErrPreviewExpired = errors.New("priced preview expired or missing")

	// ErrOrderNotFound возвращается, если заказ не найден в репозитории.
	ErrOrderNotFound = errors.New("order not found")
	// ErrOrderExists — заказ с таким ID уже создан.
	ErrOrderExists = errors.New("order already exists")
	// ErrOrderVersionConflict сигнализирует о конфликте версий при сохранении.
	ErrOrderVersionConflict = errors.New("order version conflict")
	// ErrIllegalTransition — запрошенный переход запрещён таблицей состояний.
	ErrIllegalTransition = errors.New("illegal order status transition")

	// ErrTransient — временная инфраструктурная ошибка, операцию можно повторить целиком.
	ErrTransient = errors.New("transient infrastructure failure")

	// Ошибки инвариантов заказа.
	ErrCustomerRequired  = errors.New("customer_id is required")
	ErrLinesRequired     = errors.New("order must contain at least one line")
	ErrLineQtyInvalid    = errors.New("order line qty must be greater than zero")
	ErrLinePriceInvalid  = errors.New("order line price must be non-negative")
	ErrSubtotalMismatch  = errors.New("order subtotal does not match lines sum")
	ErrDiscountInvalid   = errors.New("discount must be within [0, subtotal]")
	ErrGrandTotalDrift   = errors.New("grand total does not equal subtotal - discount + shipping")
	ErrShippingNegative  = errors.New("shipping cost must be non-negative")
)

// IsVersionConflict проверяет, является ли ошибка конфликтом версий.
func IsVersionConflict(err error) bool {
	return errors.Is(err, ErrOrderVersionConflict)
}

// IsTransient проверяет, можно ли повторить операцию целиком.
func IsTransient(err error) bool {
	return errors.Is(err, ErrTransient)
}
