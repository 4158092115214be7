package domain

import "time"

// OrderStatus описывает жизненный цикл заказа после коммита.
type OrderStatus string

const (
	// OrderStatusPending — заказ создан коммитом, но ещё не подтверждён магазином.
	OrderStatusPending OrderStatus = "pending"
	// OrderStatusConfirmed — заказ подтверждён и готовится к отправке.
	OrderStatusConfirmed OrderStatus = "confirmed"
	// OrderStatusShipping — заказ передан в доставку.
	OrderStatusShipping OrderStatus = "shipping"
	// OrderStatusDelivered — заказ доставлен клиенту (терминальный статус).
	OrderStatusDelivered OrderStatus = "delivered"
	// OrderStatusCanceled — заказ отменён до отправки.
	OrderStatusCanceled OrderStatus = "canceled"
)

// PaymentStatus описывает состояние оплаты заказа.
type PaymentStatus string

const (
	// PaymentStatusUnpaid — оплата ещё не получена.
	PaymentStatusUnpaid PaymentStatus = "unpaid"
	// PaymentStatusPaid — оплата подтверждена.
	PaymentStatusPaid PaymentStatus = "paid"
	// PaymentStatusRefunded — деньги возвращены клиенту после отмены.
	PaymentStatusRefunded PaymentStatus = "refunded"
)

// OrderEvent — событие перехода заказа между статусами.
type OrderEvent string

const (
	// OrderEventConfirm подтверждает pending-заказ.
	OrderEventConfirm OrderEvent = "confirm"
	// OrderEventShip передаёт подтверждённый заказ в доставку.
	OrderEventShip OrderEvent = "ship"
	// OrderEventDeliver завершает доставку.
	OrderEventDeliver OrderEvent = "deliver"
	// OrderEventCancel отменяет заказ; допустим только до отправки.
	OrderEventCancel OrderEvent = "cancel"
)

// transition описывает одну строку таблицы переходов: из каких статусов
// событие разрешено и куда оно ведёт.
type transition struct {
	from map[OrderStatus]bool
	to   OrderStatus
}

var transitions = map[OrderEvent]transition{
	OrderEventConfirm: {
		from: map[OrderStatus]bool{OrderStatusPending: true},
		to:   OrderStatusConfirmed,
	},
	OrderEventShip: {
		from: map[OrderStatus]bool{OrderStatusConfirmed: true},
		to:   OrderStatusShipping,
	},
	OrderEventDeliver: {
		from: map[OrderStatus]bool{OrderStatusShipping: true},
		to:   OrderStatusDelivered,
	},
	OrderEventCancel: {
		from: map[OrderStatus]bool{OrderStatusPending: true, OrderStatusConfirmed: true},
		to:   OrderStatusCanceled,
	},
}

// CanTransition сообщает, разрешён ли переход из статуса from по событию event.
func CanTransition(from OrderStatus, event OrderEvent) bool {
	t, ok := transitions[event]
	return ok && t.from[from]
}

// OrderLine представляет одну позицию заказа. Цена фиксируется на момент
// коммита и не меняется при последующих изменениях каталога.
type OrderLine struct {
	ID             string
	OrderID        string
	ProductID      string
	Qty            int32
	UnitPriceMinor int64
	LineTotalMinor int64
	CreatedAt      time.Time
}

// Order агрегирует состояние заказа и его позиции. Идентичность заказа
// неизменна; после создания мутируют только Status, PaymentStatus и
// EstimatedDeliveryAt.
type Order struct {
	ID                  string
	CustomerID          string
	Status              OrderStatus
	PaymentStatus       PaymentStatus
	SubtotalMinor       int64
	DiscountMinor       int64
	ShippingMinor       int64
	GrandTotalMinor     int64
	CouponCode          string
	ShippingOptionID    string
	PaymentMethodID     string
	Address             string
	Phone               string
	Email               string
	Lines               []OrderLine
	Version             int64
	CreatedAt           time.Time
	UpdatedAt           time.Time
	EstimatedDeliveryAt *time.Time
}

// Apply выполняет переход по событию event с проверкой таблицы переходов.
// Cancel дополнительно переводит оплату в refunded; отмена из shipping и
// delivered запрещена всегда.
func (o *Order) Apply(event OrderEvent) error {
	t, ok := transitions[event]
	if !ok || !t.from[o.Status] {
		return ErrIllegalTransition
	}

	o.Status = t.to
	if event == OrderEventCancel {
		o.PaymentStatus = PaymentStatusRefunded
	}
	o.UpdatedAt = time.Now().UTC()
	return nil
}

// ValidateInvariants проверяет денежные инварианты заказа и возвращает список замечаний.
func (o *Order) ValidateInvariants() []error {
	var errs []error

	if o.CustomerID == "" {
		errs = append(errs, ErrCustomerRequired)
	}
	if len(o.Lines) == 0 {
		errs = append(errs, ErrLinesRequired)
	}
	if o.ShippingMinor < 0 {
		errs = append(errs, ErrShippingNegative)
	}

	// Сверяем subtotal с суммой позиций: qty * unit_price.
	var calc int64
	for _, line := range o.Lines {
		if line.Qty <= 0 {
			errs = append(errs, ErrLineQtyInvalid)
		}
		if line.UnitPriceMinor < 0 {
			errs = append(errs, ErrLinePriceInvalid)
		}
		calc += int64(line.Qty) * line.UnitPriceMinor
	}
	if calc != o.SubtotalMinor {
		errs = append(errs, ErrSubtotalMismatch)
	}

	if o.DiscountMinor < 0 || o.DiscountMinor > o.SubtotalMinor {
		errs = append(errs, ErrDiscountInvalid)
	}
	if o.SubtotalMinor-o.DiscountMinor+o.ShippingMinor != o.GrandTotalMinor {
		errs = append(errs, ErrGrandTotalDrift)
	}

	return errs
}
