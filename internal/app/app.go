// Package app builds every bridge component from configuration in one step.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/spec-kit/snowsync/internal/api/gateway"
	"github.com/spec-kit/snowsync/internal/config"
	"github.com/spec-kit/snowsync/internal/events"
	"github.com/spec-kit/snowsync/internal/jsd"
	"github.com/spec-kit/snowsync/internal/mapping"
	"github.com/spec-kit/snowsync/internal/observability"
	"github.com/spec-kit/snowsync/internal/paramstore"
	"github.com/spec-kit/snowsync/internal/persistence"
	"github.com/spec-kit/snowsync/internal/repository"
	"github.com/spec-kit/snowsync/internal/service"
	"github.com/spec-kit/snowsync/internal/snow"
	"github.com/spec-kit/snowsync/internal/storage"
	"github.com/spec-kit/snowsync/internal/worker"
)

// Needs lists the external systems a binary talks to. Connection parameters
// are resolved only for the systems named.
type Needs uint8

const (
	NeedJSD Needs = 1 << iota
	NeedSnow
	NeedStorage

	NeedAll = NeedJSD | NeedSnow | NeedStorage
)

// App holds the constructed components.
type App struct {
	Config  *config.Config
	Logger  *zap.Logger
	Metrics *observability.Metrics
	Events  events.Dispatcher
	Store   paramstore.Store
	Params  config.Parameters

	Postgres *persistence.Postgres
	Redis    *persistence.Redis
	Journal  repository.SyncJournalRepository

	Gateway     *gateway.Gateway
	JiraInbound *service.JiraInboundService
	SnowInbound *service.SnowInboundService
	Attachments *service.AttachmentService
	Presign     *service.PresignService

	closers []func(context.Context) error
}

// Build resolves connection parameters for needs and wires the services.
// A missing parameter fails the whole build with a CONFIGURATION_MISSING
// error naming every absent value.
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger, needs Needs) (*App, error) {
	a := &App{
		Config: cfg,
		Logger: logger,
		Params: config.NewParameters(cfg.App.Stage),
		Events: events.NewInMemoryDispatcher(),
	}
	ok := false
	defer func() {
		if !ok {
			_ = a.Close(ctx)
		}
	}()

	shutdown, err := observability.InitTelemetry(ctx, cfg.App, cfg.Telemetry)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, shutdown)
	a.Metrics = observability.NewMetrics()

	awsCfg, err := storage.LoadAWSConfig(ctx, cfg.AWS)
	if err != nil {
		return nil, err
	}

	a.Store, err = newStore(cfg, awsCfg, a.redis)
	if err != nil {
		return nil, err
	}

	a.Postgres, err = persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	a.closers = append(a.closers, func(context.Context) error { a.Postgres.Close(); return nil })
	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, a.Postgres.PoolHandle(), logger); err != nil {
			return nil, err
		}
	}
	links := repository.NewLinkRepository(a.Postgres.PoolHandle())
	a.Journal = repository.NewSyncJournalRepository(a.Postgres.PoolHandle())
	worker.StartAuditWorker(service.NewAuditService(a.Events, a.Journal, a.Metrics, logger))

	values, err := paramstore.Resolve(ctx, a.Store, a.connectionNames(needs)...)
	if err != nil {
		return nil, err
	}

	httpClient := &http.Client{}
	timeout := cfg.App.ClientTimeout()

	var requests *jsd.Client
	if needs&NeedJSD != 0 {
		requests = jsd.NewClient(jsd.ClientConfig{
			BaseURL:    values.Get(a.Params.JiraHost()),
			Username:   values.Get(a.Params.JiraUserID()),
			APIToken:   values.Get(a.Params.JiraAppPassword()),
			HTTPClient: httpClient,
			Timeout:    timeout,
			Logger:     logger.Named("jsd"),
		})
	}

	var incidents *snow.Client
	if needs&NeedSnow != 0 {
		tokens := snow.NewTokenCache(snow.TokenCacheConfig{
			Store:    a.Store,
			Slot:     a.Params.SnowToken(),
			Identity: snow.NewIdentityClient(snow.StoreCredentials(a.Store, a.Params), httpClient, timeout),
			Margin:   cfg.Snow.TokenRefreshMargin(),
			Logger:   logger.Named("snow-token"),
			Metrics:  a.Metrics,
		})
		incidents = snow.NewClient(snow.ClientConfig{
			BaseURL:       values.Get(a.Params.SnowHost()),
			ClientID:      values.Get(a.Params.SnowClientID()),
			CallingSystem: cfg.Snow.CallingSystem,
			Tokens:        tokens,
			HTTPClient:    httpClient,
			Timeout:       timeout,
			Logger:        logger.Named("snow"),
		})
	}

	var objects *storage.S3Storage
	if needs&NeedStorage != 0 {
		objects = storage.NewS3Storage(awsCfg, cfg.AWS)
	}

	fieldIDs := service.NewFieldIDResolver(a.Store, a.Params)
	a.Gateway = gateway.New(logger, a.Metrics)
	a.JiraInbound = service.NewJiraInboundService(service.JiraInboundDependencies{
		Incidents: incidents,
		Requests:  requests,
		FieldIDs:  fieldIDs,
		Links:     links,
		Defaults:  mapping.DefaultsFromConfig(cfg.Snow),
		Events:    a.Events,
		Logger:    logger.Named("jira-inbound"),
	})
	a.SnowInbound = service.NewSnowInboundService(service.SnowInboundDependencies{
		Requests: requests,
		FieldIDs: fieldIDs,
		Notifier: service.NewChangeNotifier(service.ChangeNotifierConfig{
			Requests: requests,
			Label:    cfg.App.CommentSystemLabel,
			Metrics:  a.Metrics,
			Events:   a.Events,
			Logger:   logger.Named("notifier"),
		}),
		Links:  links,
		Events: a.Events,
		Logger: logger.Named("snow-inbound"),
	})
	a.Attachments = service.NewAttachmentService(service.AttachmentDependencies{
		Requests:  requests,
		Incidents: incidents,
		Objects:   objects,
		JSDBucket: cfg.AWS.JSDBucket,
		Events:    a.Events,
		Logger:    logger.Named("attachments"),
	})
	a.Presign = service.NewPresignService(objects, a.Store, a.Params, cfg.AWS.PresignBucket, logger.Named("presign"))

	ok = true
	return a, nil
}

func (a *App) connectionNames(needs Needs) []string {
	var names []string
	if needs&NeedJSD != 0 {
		names = append(names, a.Params.JiraConnection()...)
	}
	if needs&NeedSnow != 0 {
		names = append(names, a.Params.SnowConnection()...)
	}
	return names
}

func (a *App) redis() *persistence.Redis {
	if a.Redis == nil {
		a.Redis = persistence.NewRedis(a.Config.Redis, a.Logger)
		a.closers = append(a.closers, func(context.Context) error { a.Redis.Close(); return nil })
	}
	return a.Redis
}

// Close releases resources in reverse construction order.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
