package orders

import (
	"errors"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
	"github.com/vladislavdragonenkov/checkout/internal/metrics"
)

const defaultMaxAttempts = 5

// Service управляет жизненным циклом заказа после коммита: применяет события
// state machine с optimistic locking на стороне хранилища.
type Service struct {
	repo          domain.OrderRepository
	notifications domain.NotificationSink
	metrics       *metrics.CheckoutMetrics
	logger        *log.Entry
	maxAttempts   int
	retryDelay    time.Duration
}

// NewService создаёт сервис жизненного цикла заказов.
func NewService(
	repo domain.OrderRepository,
	notifications domain.NotificationSink,
	checkoutMetrics *metrics.CheckoutMetrics,
	logger *log.Entry,
) *Service {
	if logger == nil {
		logger = log.New().WithField("component", "orders-service")
	}

	return &Service{
		repo:          repo,
		notifications: notifications,
		metrics:       checkoutMetrics,
		logger:        logger,
		maxAttempts:   defaultMaxAttempts,
		retryDelay:    50 * time.Millisecond,
	}
}

// Get возвращает заказ с позициями.
func (s *Service) Get(orderID string) (domain.Order, error) {
	return s.repo.Get(orderID)
}

// ListByCustomer возвращает заказы клиента, свежие первыми.
func (s *Service) ListByCustomer(customerID string, limit int) ([]domain.Order, error) {
	return s.repo.ListByCustomer(customerID, limit)
}

// Transition применяет событие state machine к заказу. Конфликт версий
// означает конкурентный переход: заказ перечитывается и событие проверяется
// заново против свежего статуса. ErrIllegalTransition терминальна — повтор
// не сделает недопустимый переход допустимым.
func (s *Service) Transition(orderID string, event domain.OrderEvent) (domain.Order, error) {
	var lastErr error

	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		order, err := s.repo.Get(orderID)
		if err != nil {
			return domain.Order{}, err
		}

		if err := order.Apply(event); err != nil {
			if errors.Is(err, domain.ErrIllegalTransition) && s.metrics != nil {
				s.metrics.RecordTransitionRejected()
			}
			s.logger.WithFields(log.Fields{
				"order_id": orderID,
				"event":    string(event),
				"status":   string(order.Status),
			}).Warn("Order transition rejected")
			return domain.Order{}, err
		}

		err = s.repo.Save(order)
		if err == nil {
			order.Version++
			if s.metrics != nil {
				s.metrics.RecordTransitionApplied(string(event))
			}
			if s.notifications != nil {
				s.notifications.OnOrderStatusChanged(order, event)
			}
			s.logger.WithFields(log.Fields{
				"order_id": orderID,
				"event":    string(event),
				"status":   string(order.Status),
			}).Info("Order transition applied")
			return order, nil
		}

		lastErr = err
		if !domain.IsVersionConflict(err) {
			return domain.Order{}, err
		}

		s.logger.WithFields(log.Fields{
			"order_id": orderID,
			"event":    string(event),
			"attempt":  attempt,
		}).Warn("Order version conflict, retrying transition")

		if attempt < s.maxAttempts {
			time.Sleep(s.retryDelay)
		}
	}

	return domain.Order{}, lastErr
}
