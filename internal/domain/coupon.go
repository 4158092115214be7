package domain

import "time"

// Coupon — разделяемый изменяемый ресурс: quantity_available уменьшается
// ровно один раз на каждый успешный коммит, применивший купон, и никогда
// не уменьшается на этапе предпросмотра.
type Coupon struct {
	ID string
	// Code — уникальный код купона, вводимый клиентом.
	Code string
	// DiscountMinor — фиксированная скидка в минимальных денежных единицах (0 = не задана).
	DiscountMinor int64
	// DiscountPercent — процентная скидка от subtotal (0 = не задана).
	DiscountPercent float64
	// MaxDiscountMinor ограничивает процентную скидку сверху (0 = без ограничения).
	MaxDiscountMinor int64
	// MinOrderMinor — минимальная сумма корзины для применения купона (0 = без минимума).
	MinOrderMinor int64
	// ValidFrom/ValidTo задают окно действия; nil означает отсутствие границы.
	ValidFrom *time.Time
	ValidTo   *time.Time
	// QuantityAvailable — сколько применений купона ещё осталось.
	QuantityAvailable int32
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// ValidAt сообщает, действует ли купон в момент t: окно дат соблюдено
// и остались доступные применения.
func (c *Coupon) ValidAt(t time.Time) bool {
	if c.QuantityAvailable <= 0 {
		return false
	}
	if c.ValidFrom != nil && t.Before(*c.ValidFrom) {
		return false
	}
	if c.ValidTo != nil && t.After(*c.ValidTo) {
		return false
	}
	return true
}

// DiscountFor вычисляет размер скидки для данного subtotal: фиксированная
// сумма либо процент, ограниченный MaxDiscountMinor. Скидка никогда не
// превышает subtotal.
func (c *Coupon) DiscountFor(subtotalMinor int64) int64 {
	var discount int64
	switch {
	case c.DiscountMinor > 0:
		discount = c.DiscountMinor
	case c.DiscountPercent > 0:
		discount = int64(float64(subtotalMinor) * c.DiscountPercent / 100.0)
		if c.MaxDiscountMinor > 0 && discount > c.MaxDiscountMinor {
			discount = c.MaxDiscountMinor
		}
	}

	if discount > subtotalMinor {
		discount = subtotalMinor
	}
	if discount < 0 {
		discount = 0
	}
	return discount
}
