package bootstrap

import (
	"context"
	"encoding/json"
	"log"

	"ai-writing-be/internal/config"
	"ai-writing-be/internal/controller"
	"ai-writing-be/internal/dto"
	"ai-writing-be/internal/pkg/logger"
	"ai-writing-be/internal/pkg/serverutils"
	"ai-writing-be/internal/repository/contract"
	"ai-writing-be/internal/repository/memory"
	redisRepo "ai-writing-be/internal/repository/redis"
	"ai-writing-be/internal/repository/unitofwork"
	"ai-writing-be/internal/service"
	"ai-writing-be/pkg/citation/pipeline"
	"ai-writing-be/pkg/citation/render"
	"ai-writing-be/pkg/citation/resolver"
	"ai-writing-be/pkg/citation/style"
	pktNats "ai-writing-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	CitationController controller.ICitationController

	// Background Services (Exposed for main.go to run)
	ConsumerService  service.IConsumerService
	PublisherService service.IPublisherService

	Logger logger.ILogger

	cfg     *config.Config
	closers []func()
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	c := &Container{cfg: cfg}

	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())
	citationLogger := logger.NewIsolatedLogger(cfg.App.CitationLogPath)
	c.Logger = sysLogger

	// 2. Event Bus
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermill.NewStdLogger(false, false),
	)
	c.closers = append(c.closers, func() { _ = pubSub.Close() })

	// NATS is optional; without it events are skipped.
	var bus service.BusPublisher
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL, sysLogger)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	} else {
		bus = natsPub
		c.closers = append(c.closers, natsPub.Close)
	}

	// 3. Citation Core
	sessions := newSessionRepository(cfg, c)

	var fetcher style.Fetcher = style.NewDirFetcher(cfg.Citation.AssetDir)
	if cfg.Citation.AssetBaseURL != "" {
		fetcher = style.NewHTTPFetcher(cfg.Citation.AssetBaseURL, cfg.Citation.HTTPTimeout)
	}
	styleCache := style.NewCache(fetcher, citationLogger)

	citationResolver := resolver.New(resolver.Config{
		RegistryURL:       cfg.Citation.RegistryURL,
		DOIURL:            cfg.Citation.DOIURL,
		Mailto:            cfg.Citation.Mailto,
		Timeout:           cfg.Citation.HTTPTimeout,
		RequestsPerSecond: cfg.Citation.RegistryRPS,
	}, citationLogger)
	renderer := render.New(styleCache, citationLogger)

	historyService := service.NewHistoryService(uowFactory, sysLogger)
	orchestrator := pipeline.New(citationResolver, renderer, sessions, historyService, citationLogger)

	// 4. Services
	c.PublisherService = service.NewPublisherService(cfg.Citation.WarmupTopic, pubSub)
	c.ConsumerService = service.NewConsumerService(pubSub, cfg.Citation.WarmupTopic, styleCache, citationLogger)

	citationService := service.NewCitationService(
		orchestrator,
		citationResolver,
		renderer,
		styleCache,
		sessions,
		historyService,
		service.NewCitationEventPublisher(bus, sysLogger),
		sysLogger,
	)

	// 5. Controllers
	c.CitationController = controller.NewCitationController(citationService, serverutils.NewJwtMiddleware(cfg.App.JwtSecret))

	return c
}

func newSessionRepository(cfg *config.Config, c *Container) contract.WorkSessionRepository {
	if cfg.Citation.SessionStore != "redis" {
		return memory.NewSessionRepository(cfg.Citation.SessionTTL)
	}

	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v. Falling back to in-memory work sessions", err)
		_ = rdb.Close()
		return memory.NewSessionRepository(cfg.Citation.SessionTTL)
	}
	c.closers = append(c.closers, func() { _ = rdb.Close() })
	return redisRepo.NewSessionRepository(rdb, cfg.Citation.SessionTTL)
}

// QueueStyleWarmup enqueues the configured prefetch styles for the consumer.
func (c *Container) QueueStyleWarmup(ctx context.Context) error {
	for _, key := range c.cfg.Citation.PrefetchStyles {
		payload, err := json.Marshal(dto.StyleWarmupMessage{StyleKey: key})
		if err != nil {
			return err
		}
		if err := c.PublisherService.Publish(ctx, payload); err != nil {
			return err
		}
	}
	return nil
}

// Close releases bus and cache connections in reverse order of creation.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	_ = c.Logger.Sync()
}
