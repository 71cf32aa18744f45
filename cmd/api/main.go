package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	httptransport "github.com/spec-kit/sprintflow/internal/api/http"
	"github.com/spec-kit/sprintflow/internal/api/http/handlers"
	"github.com/spec-kit/sprintflow/internal/auth"
	"github.com/spec-kit/sprintflow/internal/config"
	"github.com/spec-kit/sprintflow/internal/events"
	"github.com/spec-kit/sprintflow/internal/observability"
	"github.com/spec-kit/sprintflow/internal/persistence"
	"github.com/spec-kit/sprintflow/internal/repository"
	"github.com/spec-kit/sprintflow/internal/repository/memory"
	"github.com/spec-kit/sprintflow/internal/service"
	"github.com/spec-kit/sprintflow/internal/validation"
	"github.com/spec-kit/sprintflow/internal/worker"
)

type repositories struct {
	users    repository.UserRepository
	projects repository.ProjectRepository
	issues   repository.IssueRepository
	sessions repository.SessionRepository
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	repos := buildRepositories(pg, redis, logger)

	dispatcher := events.NewInMemoryDispatcher()
	notificationService := service.NewNotificationService(dispatcher, repos.users, logger, cfg.Notification)
	worker.StartNotificationWorker(notificationService)

	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		UserRepo:    repos.users,
		SessionRepo: repos.sessions,
		Logger:      logger,
	})
	projectService := service.NewProjectService(service.ProjectDependencies{
		ProjectRepo: repos.projects,
		UserRepo:    repos.users,
		Dispatcher:  dispatcher,
		Logger:      logger,
	})
	issueService := service.NewIssueService(service.IssueDependencies{
		IssueRepo:   repos.issues,
		ProjectRepo: repos.projects,
		UserRepo:    repos.users,
		Dispatcher:  dispatcher,
		Logger:      logger,
	})

	validator := validation.New()
	cookie := auth.CookieConfig{
		Name:   cfg.Auth.CookieName,
		MaxAge: authService.TokenManager().TTL(),
		Secure: !cfg.App.IsLocal(),
	}

	metrics := observability.NewMetrics()
	app := httptransport.NewApp(cfg.App, logger, metrics)
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:           handlers.NewAuthHandler(authService, validator, cookie),
		Projects:       handlers.NewProjectsHandler(projectService, validator),
		Issues:         handlers.NewIssuesHandler(issueService, validator),
		AuthMiddleware: auth.NewAuthMiddleware(authService, cfg.Auth.CookieName),
		Metrics:        metrics,
	})

	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.App.Addr()))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("graceful shutdown failed", zap.Error(err))
	}
}

// buildRepositories picks Postgres and Redis implementations when configured and falls back to a
// shared in-memory store otherwise.
func buildRepositories(pg *persistence.Postgres, redis *persistence.Redis, logger *zap.Logger) repositories {
	var store *memory.Store
	memoryStore := func() *memory.Store {
		if store == nil {
			store = memory.NewStore()
		}
		return store
	}

	var repos repositories
	if pg.Enabled() {
		pool := pg.PoolHandle()
		repos.users = repository.NewUserRepository(pool)
		repos.projects = repository.NewProjectRepository(pool)
		repos.issues = repository.NewIssueRepository(pool)
	} else {
		logger.Warn("using in-memory repositories; data is lost on restart")
		repos.users = memoryStore().Users()
		repos.projects = memoryStore().Projects()
		repos.issues = memoryStore().Issues()
	}

	if redis.Enabled() {
		repos.sessions = repository.NewRedisSessionRepository(redis.Client)
	} else {
		repos.sessions = memoryStore().Sessions()
	}
	return repos
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
