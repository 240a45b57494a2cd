package cmd

import (
	"context"
	"errors"
	"log/slog"

	httpin "fulfillment/internal/adapters/in/http"
	"fulfillment/internal/adapters/out/eventbus"
	"fulfillment/internal/adapters/out/kafka"
	"fulfillment/internal/adapters/out/postgres"
	redisadapter "fulfillment/internal/adapters/out/redis"
	"fulfillment/internal/core/application/realtime"
	"fulfillment/internal/core/application/usecases/commands"
	"fulfillment/internal/core/application/usecases/queries"
	"fulfillment/internal/core/domain/services"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/jobs"
	"fulfillment/internal/metrics"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const rateLimitPrefix = "fulfillment:ratelimit:locations:"

type CompositionRoot struct {
	cfg        Config
	gormDB     *gorm.DB
	uowFactory *postgres.GormUnitOfWorkFactory
	matcher    services.StoreMatcher
	clock      commands.Clock
	logger     *slog.Logger

	metrics   *metrics.Metrics
	hub       *realtime.Hub
	producer  *kafka.Producer
	publisher ports.DeliveryEventPublisher

	redisClient *redis.Client
	limiter     *redisadapter.RateLimiter
}

// NewCompositionRoot builds the long-lived collaborators. Kafka and Redis
// are only wired when configured.
func NewCompositionRoot(cfg Config, gormDB *gorm.DB, logger *slog.Logger) *CompositionRoot {
	c := &CompositionRoot{
		cfg:        cfg,
		gormDB:     gormDB,
		uowFactory: postgres.NewGormUnitOfWorkFactory(gormDB),
		matcher:    services.NewStoreMatcher(),
		clock:      commands.SystemClock,
		logger:     logger,
		metrics:    metrics.New(),
	}

	c.hub = realtime.NewHub(logger,
		realtime.WithQueueSize(cfg.HubQueueSize),
		realtime.WithSendTimeout(cfg.HubSendTimeout),
		realtime.WithObserver(c.metrics),
	)

	publishers := []ports.DeliveryEventPublisher{c.hub}
	if len(cfg.KafkaHost) > 0 {
		c.producer = kafka.NewProducer(cfg.KafkaHost, cfg.KafkaDeliveryEventsTopic, c.metrics.KafkaWriteErrors, logger)
		publishers = append(publishers, c.producer)
	}
	c.publisher = eventbus.NewFanout(publishers...)

	if cfg.RedisAddr != "" {
		c.redisClient = redisadapter.NewClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		c.limiter = redisadapter.NewRateLimiter(c.redisClient, rateLimitPrefix,
			cfg.LocationRateLimit, cfg.LocationRateWindow)
	}

	return c
}

func (c *CompositionRoot) ledgerUoWFactory() commands.LedgerUoWFactory {
	return FuncLedgerUoWFactory(func() commands.LedgerUoW {
		return c.uowFactory.Create()
	})
}

func (c *CompositionRoot) deliveryUoWFactory() commands.DeliveryUoWFactory {
	return FuncDeliveryUoWFactory(func() commands.DeliveryUoW {
		return c.uowFactory.Create()
	})
}

func (c *CompositionRoot) CreateCreateDeliveryCommandHandler() *commands.CreateDeliveryCommandHandler {
	h := commands.NewCreateDeliveryCommandHandler(c.ledgerUoWFactory(), c.matcher, c.publisher, c.clock, c.logger)
	return &h
}

func (c *CompositionRoot) CreateUpdateDeliveryStatusCommandHandler() *commands.UpdateDeliveryStatusCommandHandler {
	h := commands.NewUpdateDeliveryStatusCommandHandler(c.deliveryUoWFactory(), c.publisher, c.clock, c.logger)
	return &h
}

func (c *CompositionRoot) CreateAssignCourierCommandHandler() *commands.AssignCourierCommandHandler {
	h := commands.NewAssignCourierCommandHandler(c.deliveryUoWFactory(), c.publisher, c.clock, c.logger)
	return &h
}

func (c *CompositionRoot) CreateRecordLocationCommandHandler() *commands.RecordLocationCommandHandler {
	h := commands.NewRecordLocationCommandHandler(c.deliveryUoWFactory(), c.publisher, c.clock, c.logger)
	return &h
}

func (c *CompositionRoot) CreateAppendDeliveryNoteCommandHandler() *commands.AppendDeliveryNoteCommandHandler {
	h := commands.NewAppendDeliveryNoteCommandHandler(c.deliveryUoWFactory(), c.logger)
	return &h
}

func (c *CompositionRoot) CreateGetDeliveryQueryHandler() queries.GetDeliveryQueryHandler {
	return queries.NewGetDeliveryQueryHandler(c.gormDB)
}

func (c *CompositionRoot) CreateGetActiveDeliveriesQueryHandler() queries.GetActiveDeliveriesQueryHandler {
	return queries.NewGetActiveDeliveriesQueryHandler(c.gormDB)
}

func (c *CompositionRoot) CreateSelectStoreQueryHandler() queries.SelectStoreQueryHandler {
	return queries.NewSelectStoreQueryHandler(c.gormDB, c.matcher)
}

// CreateRouter wires every use case into the HTTP transport.
func (c *CompositionRoot) CreateRouter() *echo.Echo {
	server := httpin.NewServer(httpin.Handlers{
		CreateDelivery:       c.CreateCreateDeliveryCommandHandler(),
		UpdateDeliveryStatus: c.CreateUpdateDeliveryStatusCommandHandler(),
		AssignCourier:        c.CreateAssignCourierCommandHandler(),
		RecordLocation:       c.CreateRecordLocationCommandHandler(),
		AppendDeliveryNote:   c.CreateAppendDeliveryNoteCommandHandler(),
		GetDelivery:          c.CreateGetDeliveryQueryHandler(),
		GetActiveDeliveries:  c.CreateGetActiveDeliveriesQueryHandler(),
		SelectStore:          c.CreateSelectStoreQueryHandler(),
	}, c.logger)

	var limiter httpin.RateLimiter
	if c.limiter != nil {
		limiter = c.limiter
	}

	return httpin.NewRouter(httpin.RouterDeps{
		Server:   server,
		Realtime: httpin.NewRealtimeEndpoint(c.hub, c.logger),
		Metrics:  c.metrics,
		Limiter:  limiter,
		Health:   c.healthChecks(),
		Logger:   c.logger,
	})
}

func (c *CompositionRoot) healthChecks() map[string]httpin.HealthCheck {
	checks := map[string]httpin.HealthCheck{
		"postgres": func(ctx context.Context) error {
			sqlDB, err := c.gormDB.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}
	if c.limiter != nil {
		checks["redis"] = c.limiter.Ping
	}
	return checks
}

func (c *CompositionRoot) CreateJobManager() *jobs.JobManager {
	activeDeliveries := jobs.NewActiveDeliveriesJob(
		c.CreateGetActiveDeliveriesQueryHandler(),
		c.metrics,
		c.cfg.ActiveDeliveriesSchedule,
		c.cfg.SilentTrackerThreshold,
		c.logger,
	)
	return jobs.NewJobManager(c.logger, activeDeliveries)
}

// Close releases the realtime hub and the outbound clients.
func (c *CompositionRoot) Close() error {
	c.hub.Close()

	var errs []error
	if c.producer != nil {
		errs = append(errs, c.producer.Close())
	}
	if c.redisClient != nil {
		errs = append(errs, c.redisClient.Close())
	}
	return errors.Join(errs...)
}

type FuncLedgerUoWFactory func() commands.LedgerUoW

func (f FuncLedgerUoWFactory) Create() commands.LedgerUoW {
	return f()
}

type FuncDeliveryUoWFactory func() commands.DeliveryUoW

func (f FuncDeliveryUoWFactory) Create() commands.DeliveryUoW {
	return f()
}
