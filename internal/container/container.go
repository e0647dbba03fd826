// Package container builds every long-lived component from config once at
// startup and hands them to the router and the workers.
package container

import (
	"context"
	"fmt"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/taskhive/config"
	"github.com/oksasatya/taskhive/internal/application"
	repo "github.com/oksasatya/taskhive/internal/domain/repository"
	ddbinfra "github.com/oksasatya/taskhive/internal/infrastructure/dynamodb"
	"github.com/oksasatya/taskhive/internal/infrastructure/memory"
	pginfra "github.com/oksasatya/taskhive/internal/infrastructure/postgres"
	"github.com/oksasatya/taskhive/internal/metrics"
	"github.com/oksasatya/taskhive/pkg/helpers"
)

// Repositories is implemented by both the DynamoDB and the in-memory store.
type Repositories interface {
	Credentials() repo.CredentialRepository
	Profiles() repo.ProfileRepository
	Tasks() repo.TaskRepository
}

// Infra are the connected backends the services are wired over. Nil
// optional members disable their feature.
type Infra struct {
	Store  Repositories
	Redis  *redis.Client
	Audit  application.AuditLog
	Events application.ActivityPublisher
	ES     esapi.Transport
	Clock  clockwork.Clock
}

type Container struct {
	Config *config.Config
	Logger *logrus.Logger
	Redis  *redis.Client
	JWT    *helpers.JWTManager

	PGPool    *pgxpool.Pool
	RabbitPub *helpers.RabbitPublisher
	ES        *elasticsearch.Client

	Audit        application.AuditLog
	Credentials  *application.CredentialService
	Profiles     *application.ProfileService
	Tasks        *application.TaskService
	Orchestrator *application.TabOrchestrator
	Sessions     *application.SessionService
	Search       *application.SearchService

	closers []func()
}

// Wire assembles the services over already-connected infrastructure.
func Wire(cfg *config.Config, logger *logrus.Logger, in Infra) *Container {
	clock := in.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	audit := in.Audit
	if audit == nil {
		audit = application.NopAuditLog{}
	}
	events := in.Events
	if events == nil {
		events = application.NopPublisher{}
	}

	jwt := helpers.NewJWTManager(cfg.JWTAccessSecret, cfg.JWTRefreshSecret, cfg.AccessTTL, cfg.RefreshTTL)
	profiles := application.NewProfileService(in.Store.Profiles(), clock, logger)
	tasks := application.NewTaskService(in.Store.Tasks(), clock, logger, events)

	return &Container{
		Config:       cfg,
		Logger:       logger,
		Redis:        in.Redis,
		JWT:          jwt,
		Audit:        audit,
		Credentials:  application.NewCredentialService(in.Store.Credentials(), profiles, clock, logger, cfg.BcryptCost),
		Profiles:     profiles,
		Tasks:        tasks,
		Orchestrator: application.NewTabOrchestrator(profiles, tasks, events, logger),
		Sessions:     application.NewSessionService(jwt, in.Redis, clock, logger),
		Search:       application.NewSearchService(in.ES, cfg.ESTasksIndex, logger),
	}
}

// Build connects every configured backend and wires the services. Close
// releases whatever Build opened.
func Build(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*Container, error) {
	var (
		in      Infra
		closers []func()
		pool    *pgxpool.Pool
		pub     *helpers.RabbitPublisher
		es      *elasticsearch.Client
	)
	fail := func(err error) (*Container, error) {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
		return nil, err
	}

	store, err := OpenStore(ctx, cfg, logger)
	if err != nil {
		return fail(err)
	}
	in.Store = store

	rdb := helpers.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, &metrics.RedisHook{})
	closers = append(closers, func() { _ = rdb.Close() })
	if err := rdb.Ping(ctx).Err(); err != nil {
		return fail(fmt.Errorf("redis ping: %w", err))
	}
	in.Redis = rdb

	if cfg.AuditEnabled {
		pool, err = pginfra.NewPool(ctx, cfg.PostgresDSN(), cfg.DBMaxConns, cfg.DBMinConns, cfg.DBMaxConnLife)
		if err != nil {
			return fail(fmt.Errorf("postgres: %w", err))
		}
		closers = append(closers, pool.Close)
		in.Audit = pginfra.NewAuditRepository(pool)
	}

	if cfg.EventsEnabled {
		pub, err = helpers.NewRabbitPublisher(cfg.RabbitMQURL, cfg.RabbitMQActivityQueue)
		if err != nil {
			return fail(fmt.Errorf("rabbitmq: %w", err))
		}
		closers = append(closers, pub.Close)
		in.Events = application.NewQueuePublisher(pub)
	}

	if cfg.SearchEnabled {
		es, err = helpers.NewESClient(cfg.ESAddrs(), cfg.ElasticsearchUser, cfg.ElasticsearchPass)
		if err != nil {
			return fail(fmt.Errorf("elasticsearch: %w", err))
		}
		in.ES = es
	}

	c := Wire(cfg, logger, in)
	c.PGPool, c.RabbitPub, c.ES = pool, pub, es
	c.closers = closers
	logger.WithFields(logrus.Fields{
		"store":  cfg.StoreDriver,
		"audit":  cfg.AuditEnabled,
		"events": cfg.EventsEnabled,
		"search": cfg.SearchEnabled,
	}).Info("container ready")
	return c, nil
}

// OpenStore opens the repositories selected by STORE_DRIVER.
func OpenStore(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (Repositories, error) {
	switch cfg.StoreDriver {
	case config.StoreMemory:
		logger.Warn("using in-memory store; data is lost on restart")
		return memory.NewStore(), nil
	case config.StoreDynamoDB:
		client, err := ddbinfra.NewClient(ctx, ddbinfra.ClientConfig{
			Region:          cfg.AWSRegion,
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretAccessKey,
			Endpoint:        cfg.DynamoDBEndpoint,
		})
		if err != nil {
			return nil, fmt.Errorf("dynamodb client: %w", err)
		}
		store := ddbinfra.NewStore(client, cfg.UsersTable, cfg.DataTable)
		if cfg.DynamoDBCreateTables {
			if err := store.EnsureTables(ctx, logger); err != nil {
				return nil, fmt.Errorf("ensure tables: %w", err)
			}
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}
}

func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}
