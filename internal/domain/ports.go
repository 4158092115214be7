package domain

// CatalogStore описывает взаимодействие с каталогом товаров — источником
// истинных цен. Цены позиций корзины никогда не кешируются в самой корзине.
type CatalogStore interface {
	// GetUnitPrice возвращает актуальную цену товара или ErrProductNotFound.
	GetUnitPrice(productID string) (int64, error)
	// GetStock возвращает доступный остаток товара.
	GetStock(productID string) (int32, error)
}

// ShippingRateStore описывает справочник тарифов доставки.
type ShippingRateStore interface {
	// GetCost возвращает стоимость способа доставки или ErrShippingOptionNotFound.
	GetCost(shippingOptionID string) (int64, error)
}

// CustomerProfile — контактные данные клиента из справочника.
type CustomerProfile struct {
	Address string
	Phone   string
	Email   string
}

// CustomerDirectory описывает справочник клиентов.
type CustomerDirectory interface {
	// GetMembershipDiscountRate возвращает ставку скидки по уровню членства
	// (0 — скидки нет).
	GetMembershipDiscountRate(customerID string) (float64, error)
	// GetProfile возвращает профиль клиента или ErrCustomerNotFound.
	GetProfile(customerID string) (CustomerProfile, error)
}

// NotificationSink принимает события жизненного цикла заказа в режиме
// fire-and-forget: ошибки доставки никогда не откатывают коммит и не
// блокируют переход статуса.
type NotificationSink interface {
	OnOrderCreated(order Order)
	OnOrderStatusChanged(order Order, event OrderEvent)
}
