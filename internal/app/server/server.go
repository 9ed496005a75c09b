package server

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"perfeval/internal/domain/audit"
	"perfeval/internal/domain/auth"
	"perfeval/internal/domain/cycles"
	"perfeval/internal/domain/directory"
	"perfeval/internal/domain/evaluations"
	"perfeval/internal/domain/notifications"
	"perfeval/internal/domain/reports"
	"perfeval/internal/platform/config"
	cryptoutil "perfeval/internal/platform/crypto"
	"perfeval/internal/platform/db"
	"perfeval/internal/platform/email"
	"perfeval/internal/platform/jobs"
	"perfeval/internal/platform/metrics"
	"perfeval/internal/platform/queue"
	audithandler "perfeval/internal/transport/http/handlers/audit"
	authhandler "perfeval/internal/transport/http/handlers/auth"
	cycleshandler "perfeval/internal/transport/http/handlers/cycles"
	directoryhandler "perfeval/internal/transport/http/handlers/directory"
	evaluationshandler "perfeval/internal/transport/http/handlers/evaluations"
	healthhandler "perfeval/internal/transport/http/handlers/health"
	reportshandler "perfeval/internal/transport/http/handlers/reports"
	"perfeval/internal/transport/http/middleware"
	"perfeval/migrations"
)

const jobWorkers = 2

type App struct {
	Config  config.Config
	DB      *pgxpool.Pool
	Router  http.Handler
	Jobs    *jobs.Service
	Queue   *queue.Client
	Redis   *redis.Client
	Metrics *metrics.Collector

	stopJobs context.CancelFunc
}

// New connects every backing service, prepares the schema and builds the
// router. The caller owns the returned App and must Close it.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}
	app := &App{Config: cfg, DB: pool}

	if cfg.RunMigrations {
		if err := db.Migrate(ctx, pool, migrationSource(cfg)); err != nil {
			app.Close()
			return nil, fmt.Errorf("migrations: %w", err)
		}
	}
	if cfg.RunSeed {
		if err := db.Seed(ctx, pool, cfg); err != nil {
			app.Close()
			return nil, fmt.Errorf("seed: %w", err)
		}
	}

	crypto, err := cryptoutil.New(cfg.DataEncryptionKey)
	if err != nil {
		app.Close()
		return nil, err
	}

	var rateStore middleware.RateStore
	if cfg.RedisAddr != "" {
		app.Redis = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := app.Redis.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("redis ping: %w", err)
		}
		rateStore = middleware.NewRedisRateStore(app.Redis, "perfeval:ratelimit")
	}

	jobsCtx, stopJobs := context.WithCancel(context.WithoutCancel(ctx))
	app.stopJobs = stopJobs
	app.Jobs = jobs.New(pool, 128)
	app.Jobs.Start(jobsCtx, jobWorkers)

	auditSvc := audit.New(pool, cfg.AuditWriteTimeout)
	directorySvc := directory.NewService(directory.NewStore(pool))
	cycleSvc := cycles.NewService(cycles.NewStore(pool), loc)
	reportSvc := reports.NewService(reports.NewStore(pool))
	authSvc := auth.NewService(auth.NewStore(pool), cfg.JWTSecret, cfg.JWTTTL, crypto)

	var notifier evaluations.Notifier
	if cfg.NotifyOnEvaluation {
		dispatcher, err := app.dispatcher(cfg)
		if err != nil {
			app.Close()
			return nil, err
		}
		notifier = notifications.New(directorySvc, dispatcher)
	}
	evaluationSvc := evaluations.NewService(evaluations.NewStore(pool), cycleSvc, auditSvc, notifier, evaluations.Options{
		AllowSelf:  cfg.AllowSelfEvaluation,
		StrictKeys: cfg.StrictAnswerKeys,
	})

	var snapshots healthhandler.Snapshotter
	if cfg.MetricsEnabled {
		app.Metrics = metrics.New()
		snapshots = app.Metrics
	}
	health := healthhandler.NewHandler(pool, snapshots)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.SecureHeaders(cfg.IsProduction()))
	router.Use(middleware.Logger(app.Metrics))
	router.Use(middleware.Recoverer)
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	router.Use(middleware.Auth(cfg.JWTSecret))

	health.RegisterProbes(router)

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RateLimit(cfg.RateLimitPerMinute, time.Minute, middleware.WithStore(rateStore)))
		r.Use(middleware.SensitiveMutationRateLimit(cfg.RateLimitPerMinute, time.Minute, rateStore))

		authhandler.NewHandler(authSvc, directorySvc, auditSvc).RegisterRoutes(r)
		directoryhandler.NewHandler(directorySvc, auditSvc).RegisterRoutes(r)
		cycleshandler.NewHandler(cycleSvc, auditSvc).RegisterRoutes(r)
		evaluationshandler.NewHandler(evaluationSvc).RegisterRoutes(r)
		reportshandler.NewHandler(reportSvc, auditSvc).RegisterRoutes(r)
		audithandler.NewHandler(auditSvc).RegisterRoutes(r)
		health.RegisterRoutes(r)
	})

	app.Router = router
	return app, nil
}

// dispatcher publishes to the broker when one is configured and otherwise
// mails from the in-process job queue.
func (a *App) dispatcher(cfg config.Config) (notifications.Dispatcher, error) {
	if cfg.RabbitMQURL != "" {
		client, err := queue.Open(cfg.RabbitMQURL, cfg.RabbitMQQueue, cfg.PublishTimeout)
		if err != nil {
			return nil, err
		}
		a.Queue = client
		return notifications.QueueDispatcher{Publisher: client}, nil
	}
	mailer, err := email.New(cfg)
	if err != nil {
		return nil, err
	}
	return notifications.JobDispatcher{Jobs: a.Jobs, Mailer: mailer, From: cfg.EmailFrom}, nil
}

func migrationSource(cfg config.Config) fs.FS {
	if cfg.MigrationsDir != "" {
		return os.DirFS(cfg.MigrationsDir)
	}
	return migrations.FS
}

// Run serves until ctx is cancelled, then drains in-flight requests within
// the configured shutdown timeout.
func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.Config.Addr,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       2 * time.Minute,
		ErrorLog:          slog.NewLogLogger(slog.Default().Handler(), slog.LevelError),
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", a.Config.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Config.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func (a *App) Close() {
	if a.stopJobs != nil {
		a.stopJobs()
		a.Jobs.Wait()
	}
	if a.Queue != nil {
		if err := a.Queue.Close(); err != nil {
			slog.Warn("queue close failed", "err", err)
		}
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			slog.Warn("redis close failed", "err", err)
		}
	}
	if a.DB != nil {
		a.DB.Close()
	}
}
