package domain

import "time"

// PreviewLine — снимок позиции корзины с зафиксированной на момент расчёта ценой.
type PreviewLine struct {
	ProductID      string
	Qty            int32
	UnitPriceMinor int64
	LineTotalMinor int64
}

// PricedPreview — результат расчёта стоимости корзины, контракт между
// предпросмотром и коммитом. Неизменяем после создания: новый расчёт
// замещает старый целиком, а не мутирует его. Живёт в кеше ограниченное
// время; истёкший расчёт непригоден для коммита.
type PricedPreview struct {
	Owner            OwnerKey
	Lines            []PreviewLine
	SubtotalMinor    int64
	DiscountMinor    int64
	ShippingMinor    int64
	GrandTotalMinor  int64
	CouponCode       string
	ShippingOptionID string
	PaymentMethodID  string
	Address          string
	Phone            string
	Email            string
	ComputedAt       time.Time
}
