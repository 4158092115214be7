package kafka

import (
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
)

// Sink публикует события заказов в Kafka в режиме fire-and-forget: сбой
// доставки логируется и никогда не влияет на результат коммита.
type Sink struct {
	producer *Producer
	topic    string
	logger   *log.Entry
}

// NewSink создаёт NotificationSink поверх Kafka producer.
func NewSink(producer *Producer, topic string, logger *log.Entry) *Sink {
	if topic == "" {
		topic = TopicOrderEvents
	}
	if logger == nil {
		logger = log.WithField("component", "kafka-sink")
	}

	return &Sink{
		producer: producer,
		topic:    topic,
		logger:   logger,
	}
}

// OnOrderCreated публикует событие order.created с ключом по id заказа.
func (s *Sink) OnOrderCreated(order domain.Order) {
	event := NewOrderCreatedEvent(order)
	if err := s.producer.PublishEvent(s.topic, order.ID, event); err != nil {
		s.logger.WithError(err).WithField("order_id", order.ID).Error("failed to publish order created event")
	}
}

// OnOrderStatusChanged публикует событие order.status_changed с ключом по id
// заказа: события одного заказа попадают в одну партицию и сохраняют порядок.
func (s *Sink) OnOrderStatusChanged(order domain.Order, event domain.OrderEvent) {
	payload := NewOrderStatusChangedEvent(order, event)
	if err := s.producer.PublishEvent(s.topic, order.ID, payload); err != nil {
		s.logger.WithError(err).WithFields(log.Fields{
			"order_id": order.ID,
			"event":    string(event),
		}).Error("failed to publish order status changed event")
	}
}

// NoopSink — заглушка NotificationSink для запуска без Kafka.
type NoopSink struct{}

// OnOrderCreated ничего не делает.
func (NoopSink) OnOrderCreated(domain.Order) {}

// OnOrderStatusChanged ничего не делает.
func (NoopSink) OnOrderStatusChanged(domain.Order, domain.OrderEvent) {}

var (
	_ domain.NotificationSink = (*Sink)(nil)
	_ domain.NotificationSink = NoopSink{}
)
