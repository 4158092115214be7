package kafka

import (
	"time"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
)

// EventType определяет тип события заказа.
type EventType string

const (
	// EventTypeOrderCreated публикуется после успешного коммита заказа.
	EventTypeOrderCreated EventType = "order.created"
	// EventTypeOrderStatusChanged публикуется после применённого перехода
	// state machine.
	EventTypeOrderStatusChanged EventType = "order.status_changed"
)

// TopicOrderEvents — топик событий заказов для промо- и email-подсистем.
const TopicOrderEvents = "checkout.order.events"

// OrderEventLine — позиция заказа в событии, с замороженной ценой.
type OrderEventLine struct {
	ProductID      string `json:"product_id"`
	Qty            int32  `json:"qty"`
	UnitPriceMinor int64  `json:"unit_price_minor"`
	LineTotalMinor int64  `json:"line_total_minor"`
}

// OrderCreatedEvent — событие о созданном заказе.
type OrderCreatedEvent struct {
	EventType       EventType        `json:"event_type"`
	OrderID         string           `json:"order_id"`
	CustomerID      string           `json:"customer_id"`
	Status          string           `json:"status"`
	SubtotalMinor   int64            `json:"subtotal_minor"`
	DiscountMinor   int64            `json:"discount_minor"`
	ShippingMinor   int64            `json:"shipping_minor"`
	GrandTotalMinor int64            `json:"grand_total_minor"`
	CouponCode      string           `json:"coupon_code,omitempty"`
	Lines           []OrderEventLine `json:"lines"`
	Timestamp       time.Time        `json:"timestamp"`
}

// OrderStatusChangedEvent — событие о применённом переходе заказа.
type OrderStatusChangedEvent struct {
	EventType     EventType `json:"event_type"`
	OrderID       string    `json:"order_id"`
	CustomerID    string    `json:"customer_id"`
	Event         string    `json:"event"`
	Status        string    `json:"status"`
	PaymentStatus string    `json:"payment_status"`
	Timestamp     time.Time `json:"timestamp"`
}

// NewOrderStatusChangedEvent строит событие из заказа после перехода.
func NewOrderStatusChangedEvent(order domain.Order, event domain.OrderEvent) *OrderStatusChangedEvent {
	return &OrderStatusChangedEvent{
		EventType:     EventTypeOrderStatusChanged,
		OrderID:       order.ID,
		CustomerID:    order.CustomerID,
		Event:         string(event),
		Status:        string(order.Status),
		PaymentStatus: string(order.PaymentStatus),
		Timestamp:     time.Now().UTC(),
	}
}

// NewOrderCreatedEvent строит событие из сохранённого заказа.
func NewOrderCreatedEvent(order domain.Order) *OrderCreatedEvent {
	lines := make([]OrderEventLine, 0, len(order.Lines))
	for _, line := range order.Lines {
		lines = append(lines, OrderEventLine{
			ProductID:      line.ProductID,
			Qty:            line.Qty,
			UnitPriceMinor: line.UnitPriceMinor,
			LineTotalMinor: line.LineTotalMinor,
		})
	}

	return &OrderCreatedEvent{
		EventType:       EventTypeOrderCreated,
		OrderID:         order.ID,
		CustomerID:      order.CustomerID,
		Status:          string(order.Status),
		SubtotalMinor:   order.SubtotalMinor,
		DiscountMinor:   order.DiscountMinor,
		ShippingMinor:   order.ShippingMinor,
		GrandTotalMinor: order.GrandTotalMinor,
		CouponCode:      order.CouponCode,
		Lines:           lines,
		Timestamp:       time.Now().UTC(),
	}
}
