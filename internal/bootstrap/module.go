package bootstrap

import (
	"context"
	"log/slog"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/fx"
	"gorm.io/gorm"

	"aeroqualify/internal/bootstrap/config"
	"aeroqualify/internal/bootstrap/database"
	"aeroqualify/internal/bootstrap/logging"
	"aeroqualify/internal/domain/qms"
	cacheinfra "aeroqualify/internal/infrastructure/cache"
	"aeroqualify/internal/infrastructure/changefeed"
	"aeroqualify/internal/infrastructure/evidence"
	metricsinfra "aeroqualify/internal/infrastructure/metrics"
	"aeroqualify/internal/infrastructure/notify"
	sqliterepo "aeroqualify/internal/infrastructure/persistence/sqlite/repository"
	sqliteuow "aeroqualify/internal/infrastructure/persistence/sqlite/uow"
	"aeroqualify/internal/ports"
	"aeroqualify/internal/usecase/capa"
)

var Module = fx.Options(
	fx.Provide(provideConfig),
	fx.Provide(provideDatabase),
	fx.Provide(provideApp),
	fx.Provide(
		fx.Annotate(
			sqliterepo.NewQMSRepository,
			fx.As(new(ports.QMSRepository)),
		),
	),
	fx.Provide(
		fx.Annotate(
			sqliteuow.NewUnitOfWork,
			fx.As(new(ports.UnitOfWork)),
		),
	),
	fx.Provide(provideCache),
	fx.Provide(provideNotifier),
	fx.Provide(provideChangeFeed),
	fx.Provide(provideEvidenceStore),
	fx.Provide(provideRegistry),
	fx.Provide(provideMetrics),
	fx.Provide(provideCAPAService),
)

type configParams struct {
	fx.In

	Ctx        context.Context
	ConfigFile string `name:"configFile"`
}

func provideConfig(p configParams) (config.Config, error) {
	ctx := logging.WithAttrs(p.Ctx, slog.String("component", "bootstrap.fx"))
	return config.Load(ctx, p.ConfigFile)
}

func provideDatabase(lc fx.Lifecycle, ctx context.Context, cfg config.Config) (*gorm.DB, error) {
	logCtx := logging.WithAttrs(ctx, slog.String("component", "bootstrap.fx"))

	db, err := database.Open(logCtx, cfg.Database)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
	})

	return db, nil
}

func provideApp(cfg config.Config, db *gorm.DB, reg *prometheus.Registry) *App {
	return &App{
		Config:   cfg,
		DB:       db,
		Registry: reg,
	}
}

func provideCache(lc fx.Lifecycle, ctx context.Context, cfg config.Config, db *gorm.DB) (ports.Cache, error) {
	if !strings.EqualFold(cfg.Cache.Driver, "redis") {
		return cacheinfra.NewSQLiteCache(db), nil
	}

	client, err := cacheinfra.OpenRedis(ctx, cfg.Cache.RedisURL)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error { return client.Close() },
	})
	return cacheinfra.NewRedisCache(client), nil
}

func provideNotifier(cfg config.Config) ports.Notifier {
	if strings.EqualFold(cfg.Notify.Driver, "email") {
		return notify.NewEmailNotifier(notify.EmailOptions{
			Endpoint:   cfg.Notify.Endpoint,
			APIKey:     cfg.Notify.APIKey,
			FromEmail:  cfg.Notify.FromEmail,
			TeamEmails: cfg.Notify.TeamEmails,
		}, nil)
	}
	return notify.NewLogNotifier(cfg.Notify.TeamEmails)
}

func provideChangeFeed(lc fx.Lifecycle, ctx context.Context, cfg config.Config) (ports.ChangeFeed, error) {
	if !strings.EqualFold(cfg.ChangeFeed.Driver, "nats") {
		return changefeed.NewLocalFeed(), nil
	}

	feed, err := changefeed.DialNATS(ctx, cfg.ChangeFeed.NATSURL, cfg.ChangeFeed.Subject)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error { return feed.Close() },
	})
	return feed, nil
}

func provideEvidenceStore(cfg config.Config) ports.EvidenceStore {
	return evidence.NewFileStore(evidence.Options{
		Root:           cfg.Evidence.Root,
		PublicBaseURL:  cfg.Evidence.PublicBaseURL,
		MaxInlineBytes: cfg.Evidence.MaxInlineBytes,
	})
}

// provideRegistry returns a private registry so that building the app more
// than once in a process never double-registers collectors.
func provideRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

func provideMetrics(reg *prometheus.Registry) ports.Metrics {
	return metricsinfra.New(reg)
}

type capaParams struct {
	fx.In

	Config   config.Config
	Repo     ports.QMSRepository
	UOW      ports.UnitOfWork
	Cache    ports.Cache
	Notifier ports.Notifier
	Feed     ports.ChangeFeed
	Evidence ports.EvidenceStore
	Metrics  ports.Metrics
}

func provideCAPAService(p capaParams) (*capa.Service, error) {
	gate, err := qms.ParseVerificationGate(p.Config.CAPA.VerificationGate)
	if err != nil {
		return nil, err
	}
	return capa.NewService(p.Repo, p.UOW, capa.Options{
		Cache:    p.Cache,
		Notifier: p.Notifier,
		Feed:     p.Feed,
		Evidence: p.Evidence,
		Metrics:  p.Metrics,
		Gate:     gate,
		Location: p.Config.App.Location(),
	}), nil
}
