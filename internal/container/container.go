package container

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"danawa/crawler/internal/config"
	"danawa/crawler/internal/crawler"
	"danawa/crawler/internal/domain"
	"danawa/crawler/internal/export"
	"danawa/crawler/internal/parser"
	"danawa/crawler/internal/renderer"
	"danawa/crawler/internal/report"
	"danawa/crawler/internal/repository"
	"danawa/crawler/internal/schedule"
	"danawa/crawler/internal/service"
	"danawa/crawler/internal/state"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// Container holds the process-lived components. The database pool and the
// browser are opened per sweep, see Sweep.
type Container struct {
	Config       *config.Config
	Metrics      *crawler.Metrics
	Reporter     report.Reporter
	StateManager state.StateManager
	Scheduler    *schedule.Scheduler

	redis         *redis.Client
	metricsServer *http.Server
}

// New creates a new container with all dependencies initialized
func New(ctx context.Context, cfg *config.Config) (*Container, error) {
	container := &Container{
		Config:       cfg,
		Metrics:      crawler.NewMetrics(),
		StateManager: state.NewNopStateManager(),
	}

	reporters := []report.Reporter{report.NewLogReporter()}

	if cfg.Redis.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.Database,
		})

		// Test connection
		if _, err := rdb.Ping(ctx).Result(); err != nil {
			rdb.Close()
			return nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}
		log.Info("✅ Connected to Redis successfully")

		container.redis = rdb
		container.StateManager = state.NewRedisStateManager(rdb)
		reporters = append(reporters, report.NewStreamReporter(rdb, cfg.Redis.Stream))
	}

	if cfg.Webhook.URL != "" {
		reporters = append(reporters, report.NewWebhookReporter(cfg.Webhook.URL, cfg.Webhook.Timeout))
		log.Infof("🔔 Reporting progress to %s", cfg.Webhook.URL)
	}
	container.Reporter = report.NewMulti(reporters...)

	if !cfg.App.RunOnce {
		scheduler, err := schedule.New(cfg.App.Schedule, time.Local)
		if err != nil {
			container.Close()
			return nil, err
		}
		container.Scheduler = scheduler
	}

	if cfg.App.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(container.Metrics.Registry, promhttp.HandlerOpts{}))
		container.metricsServer = &http.Server{
			Addr:              cfg.App.MetricsAddr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
	}

	return container, nil
}

// Sweep runs every configured category once. It fails as a whole only when
// the lock, the database or the browser cannot be acquired; category level
// failures end up in the summary.
func (c *Container) Sweep(ctx context.Context) (*domain.SweepSummary, error) {
	release, err := c.StateManager.AcquireRunLock(ctx, c.Config.Redis.LockTTL)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			log.Warnf("Failed to release run lock: %v", err)
		}
	}()

	db, err := pgxpool.New(ctx, c.Config.Database.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to create database pool: %w", err)
	}
	defer db.Close()
	if err := db.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	log.Info("✅ Connected to database successfully")

	repo := repository.NewEquipmentRepository(db)
	c.checkCategories(ctx, repo)

	pageRenderer, err := renderer.NewRodRenderer(c.Config.Renderer)
	if err != nil {
		return nil, fmt.Errorf("failed to start renderer: %w", err)
	}
	defer func() {
		if err := pageRenderer.Close(); err != nil {
			log.Warnf("Failed to close renderer: %v", err)
		}
	}()

	catalog := c.Config.Catalog
	controller := crawler.NewController(
		catalog,
		pageRenderer,
		parser.NewCatalogParser(catalog),
		parser.NewNormalizer(catalog.PendingMarker),
		c.Metrics,
		c.Reporter,
	)

	svc := service.NewService(
		controller,
		repo,
		export.NewCSVExporter(c.Config.App.OutputDir),
		c.StateManager,
		c.Reporter,
		c.Metrics,
	)
	return svc.RunSweep(ctx, c.Config.Categories)
}

// checkCategories warns about configured categories the database does not know.
func (c *Container) checkCategories(ctx context.Context, repo repository.EquipmentRepository) {
	names, err := repo.CategoryNames(ctx)
	if err != nil {
		log.Warnf("⚠️ Could not read category table: %v", err)
		return
	}
	log.Infof("📚 Category table: %v", names)
	for _, cat := range c.Config.Categories {
		if _, ok := names[cat.ID]; !ok {
			log.Warnf("⚠️ Category %s is missing from the category table", cat)
		}
	}
}

// Run serves metrics and runs sweeps until ctx is cancelled, or runs a
// single sweep when run_once is set.
func (c *Container) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)

	if c.metricsServer != nil {
		g.Go(func() error {
			log.Infof("📈 Serving metrics on %s", c.metricsServer.Addr)
			if err := c.metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
			defer done()
			return c.metricsServer.Shutdown(shutdownCtx)
		})
	}

	g.Go(func() error {
		defer cancel()

		if c.Config.App.RunOnce {
			return ignoreCancel(c.sweep(ctx))
		}
		if c.Config.App.RunOnStart {
			if err := c.sweep(ctx); err != nil && ctx.Err() == nil {
				log.Errorf("❌ Initial sweep failed: %v", err)
			}
		}
		return c.Scheduler.Run(ctx, c.sweep)
	})

	return g.Wait()
}

func (c *Container) sweep(ctx context.Context) error {
	_, err := c.Sweep(ctx)
	if errors.Is(err, state.ErrLocked) {
		log.Warn("⏭️ Another sweep holds the run lock, skipping")
	}
	return err
}

func ignoreCancel(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Close performs cleanup when shutting down
func (c *Container) Close() error {
	log.Info("Shutting down container...")

	if c.redis != nil {
		if err := c.redis.Close(); err != nil {
			return fmt.Errorf("failed to close Redis: %w", err)
		}
	}

	log.Info("Container shut down successfully")
	return nil
}
