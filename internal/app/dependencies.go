package app

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
	healthcheck "github.com/vladislavdragonenkov/checkout/internal/health"
	"github.com/vladislavdragonenkov/checkout/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/checkout/internal/metrics"
	"github.com/vladislavdragonenkov/checkout/internal/service/catalog"
	"github.com/vladislavdragonenkov/checkout/internal/service/checkout"
	"github.com/vladislavdragonenkov/checkout/internal/service/customers"
	"github.com/vladislavdragonenkov/checkout/internal/service/orders"
	"github.com/vladislavdragonenkov/checkout/internal/service/pricing"
	"github.com/vladislavdragonenkov/checkout/internal/service/shipping"
	"github.com/vladislavdragonenkov/checkout/internal/storage/memory"
	"github.com/vladislavdragonenkov/checkout/internal/storage/postgres"
	redisstore "github.com/vladislavdragonenkov/checkout/internal/storage/redis"
)

// Dependencies содержит все зависимости приложения.
type Dependencies struct {
	Carts         domain.CartRepository
	Orders        domain.OrderRepository
	Coupons       domain.CouponRepository
	Previews      domain.PreviewCache
	CheckoutStore domain.CheckoutStore
	Catalog       domain.CatalogStore
	Shipping      domain.ShippingRateStore
	Customers     domain.CustomerDirectory
	Notifications domain.NotificationSink

	PricingEngine   *pricing.Engine
	CheckoutService *checkout.Service
	OrdersService   *orders.Service

	Metrics        *metrics.CheckoutMetrics
	HealthCheckers map[string]healthcheck.CheckFunc
	Logger         *log.Entry

	closers []func() error
}

// NewDependencies создаёт и связывает все зависимости приложения.
// Без PostgresDSN всё хранится в памяти; Redis добавляет сессионные корзины
// и кэш превью; Kafka включает публикацию событий заказов.
// NOTE: каталог, тарифы и справочник клиентов подключены mock-реализациями;
// в production их заменяют клиенты соответствующих сервисов.
func NewDependencies(ctx context.Context, cfg Config, logger *log.Entry) (*Dependencies, error) {
	if logger == nil {
		logger = log.WithField("component", "app")
	}

	deps := &Dependencies{
		Catalog:        catalog.NewMockService(),
		Shipping:       shipping.NewMockService(),
		Customers:      customers.NewMockService(),
		Metrics:        metrics.NewCheckoutMetrics(),
		HealthCheckers: map[string]healthcheck.CheckFunc{},
		Logger:         logger,
	}

	if err := deps.initStorage(ctx, cfg, logger); err != nil {
		deps.Close()
		return nil, err
	}
	deps.initNotifications(cfg, logger)

	deps.PricingEngine = pricing.NewEngine(
		deps.Carts,
		deps.Catalog,
		deps.Coupons,
		deps.Shipping,
		deps.Customers,
		deps.Previews,
		deps.Metrics,
		logger.WithField("component", "pricing-engine"),
	)
	deps.CheckoutService = checkout.NewService(
		deps.Carts,
		deps.Catalog,
		deps.Previews,
		deps.CheckoutStore,
		deps.Notifications,
		deps.Metrics,
		checkout.Config{
			GuestCustomerID:  cfg.GuestCustomerID,
			DeliveryLeadTime: cfg.DeliveryLeadTime,
			Retry:            checkout.DefaultRetryConfig(),
		},
		logger.WithField("component", "checkout-service"),
	)
	deps.OrdersService = orders.NewService(
		deps.Orders,
		deps.Notifications,
		deps.Metrics,
		logger.WithField("component", "orders-service"),
	)

	return deps, nil
}

// initStorage выбирает backing-хранилища по конфигурации.
func (d *Dependencies) initStorage(ctx context.Context, cfg Config, logger *log.Entry) error {
	if cfg.PostgresDSN == "" {
		carts := memory.NewCartRepository()
		ordersRepo := memory.NewOrderRepository()
		coupons := memory.NewCouponRepository()

		d.Carts = carts
		d.Orders = ordersRepo
		d.Coupons = coupons
		d.Previews = memory.NewPreviewCache(cfg.PreviewTTL)
		d.CheckoutStore = memory.NewCheckoutStore(carts, ordersRepo, coupons)

		logger.Info("storage initialized in memory mode")
		return nil
	}

	pg, err := postgres.Open(ctx, cfg.PostgresDSN)
	if err != nil {
		return fmt.Errorf("open postgres: %w", err)
	}
	d.closers = append(d.closers, pg.Close)
	if err := pg.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	d.HealthCheckers["postgres"] = pg.Ping

	durableCarts := postgres.NewCartRepository(pg)
	d.Orders = postgres.NewOrderRepository(pg)
	d.Coupons = postgres.NewCouponRepository(pg)
	d.CheckoutStore = postgres.NewCheckoutStore(pg)

	// Сессионные корзины и кэш превью живут в Redis; без него гостевые
	// корзины и превью деградируют до памяти одного процесса.
	var sessionCarts domain.CartRepository
	if cfg.RedisAddr != "" {
		rd, err := redisstore.Open(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return fmt.Errorf("open redis: %w", err)
		}
		d.closers = append(d.closers, rd.Close)
		d.HealthCheckers["redis"] = rd.Ping

		sessionCarts = redisstore.NewCartRepository(rd, cfg.SessionCartTTL)
		d.Previews = redisstore.NewPreviewCache(rd, cfg.PreviewTTL)
		logger.WithField("addr", cfg.RedisAddr).Info("redis session storage initialized")
	} else {
		sessionCarts = memory.NewCartRepository()
		d.Previews = memory.NewPreviewCache(cfg.PreviewTTL)
		logger.Warn("redis is not configured, session carts and previews are in-process only")
	}

	d.Carts = newCartRouter(durableCarts, sessionCarts)
	logger.Info("storage initialized in postgres mode")
	return nil
}

// initNotifications подключает Kafka sink, если заданы брокеры.
func (d *Dependencies) initNotifications(cfg Config, logger *log.Entry) {
	if len(cfg.KafkaBrokers) == 0 {
		d.Notifications = kafka.NoopSink{}
		return
	}

	producer, err := kafka.NewProducer(cfg.KafkaBrokers)
	if err != nil {
		logger.WithError(err).Warn("failed to create kafka producer, continuing without kafka")
		d.Notifications = kafka.NoopSink{}
		return
	}
	d.closers = append(d.closers, producer.Close)
	d.Notifications = kafka.NewSink(producer, cfg.KafkaTopic, logger.WithField("component", "kafka-sink"))
	logger.WithField("brokers", cfg.KafkaBrokers).Info("kafka producer initialized")
}

// Close закрывает внешние подключения в обратном порядке создания.
func (d *Dependencies) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](); err != nil {
			d.Logger.WithError(err).Warn("failed to close dependency")
		}
	}
	d.closers = nil
}
