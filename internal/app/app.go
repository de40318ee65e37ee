package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path"
	"time"

	"syncdeck/internal/cache"
	"syncdeck/internal/config"
	"syncdeck/internal/handlers"
	"syncdeck/internal/logger"
	"syncdeck/internal/notify"
	"syncdeck/internal/repository/inmemory"
	"syncdeck/internal/repository/postgres"
	"syncdeck/internal/service"
	"syncdeck/internal/storage"
	"syncdeck/internal/worker"

	"github.com/spf13/afero"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type App struct {
	config    *config.Config
	fs        afero.Fs
	server    *http.Server
	router    http.Handler
	worker    *worker.DeadlineWorker
	shutdowns []func() // функции для graceful shutdown, вызываются в обратном порядке
}

type Option func(*App)

// WithFilesystem подменяет файловую систему для загруженных файлов
func WithFilesystem(fs afero.Fs) Option {
	return func(a *App) {
		a.fs = fs
	}
}

func New(cfg *config.Config, options ...Option) *App {
	a := &App{
		config:    cfg,
		fs:        afero.NewOsFs(),
		shutdowns: make([]func(), 0),
	}
	for _, opt := range options {
		opt(a)
	}
	return a
}

type repositories struct {
	tasks      service.TaskRepository
	activities service.ActivityRepository
	comments   service.CommentRepository
	users      service.UserRepository
	teams      service.TeamRepository
	requests   service.DeletionRequestRepository
}

type analyticsCache interface {
	service.Cache
	Close() error
}

func (a *App) Init(ctx context.Context) (*App, error) {
	if err := logger.Init(a.config.Logging.Development); err != nil {
		return nil, fmt.Errorf("инициализация логгера: %w", err)
	}

	a.shutdowns = append(a.shutdowns, func() {
		logger.Info("Завершение работы логгирования...")
		logger.Sync()
	})

	repos, err := a.initRepositories(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	analytics, err := a.initCache(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	uploadsPrefix := path.Clean("/" + a.config.Uploads.URLPrefix)
	evidence, err := storage.NewEvidenceStore(a.fs, a.config.Uploads.Dir, uploadsPrefix, a.config.Uploads.MaxSize)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("инициализация хранилища файлов: %w", err)
	}

	var sender notify.Sender
	if a.config.SMTP.Host != "" {
		sender = notify.NewSMTPSender(notify.SMTPConfig(a.config.SMTP))
	}

	authService := service.NewAuthService(repos.users, service.AuthSettings{
		Secret:     a.config.Auth.JWTSecret,
		TokenTTL:   a.config.Auth.TokenTTL,
		Issuer:     a.config.Auth.Issuer,
		MFAIssuer:  a.config.Auth.MFAIssuer,
		BcryptCost: a.config.Auth.BcryptCost,
	})
	userService := service.NewUserService(repos.users, repos.teams, repos.requests, authService.Hasher())
	teamService := service.NewTeamService(repos.teams)
	taskService := service.NewTaskService(repos.tasks, repos.activities, repos.comments, repos.users,
		service.WithNotifier(notify.New(sender)),
		service.WithEvidenceStore(evidence),
		service.WithCache(analytics, a.config.Redis.AnalyticsTTL),
	)
	analyticsService := service.NewAnalyticsService(repos.tasks, repos.activities, repos.users, repos.teams,
		analytics, a.config.Redis.AnalyticsTTL)

	if b := a.config.Bootstrap; b.Username != "" {
		if err := userService.EnsureGroupHead(ctx, b.Username, b.Email, b.Password); err != nil {
			a.Close()
			return nil, fmt.Errorf("создание администратора: %w", err)
		}
	}

	a.router = handlers.NewRouter(handlers.RouterConfig{
		Tasks:         handlers.NewTaskHandler(taskService, a.config.Uploads.MaxSize),
		Users:         handlers.NewUserHandler(userService),
		Teams:         handlers.NewTeamHandler(teamService),
		Analytics:     handlers.NewAnalyticsHandler(analyticsService),
		Auth:          handlers.NewAuthHandler(authService),
		Authenticator: authService,
		Uploads:       evidence.Handler(),
		UploadsPrefix: uploadsPrefix,
		Environment:   a.config.Environment,
		CORSOrigins:   a.config.Server.CORSOrigins,
		RateLimit:     a.config.Server.RateLimit,
	})

	a.server = &http.Server{
		Addr:         a.config.GetServerAddr(),
		Handler:      a.router,
		ReadTimeout:  a.config.Server.ReadTimeout,
		WriteTimeout: a.config.Server.WriteTimeout,
		IdleTimeout:  a.config.Server.IdleTimeout,
	}

	if a.config.Worker.Enabled {
		a.worker = worker.NewDeadlineWorker(taskService, &a.config.Worker.Interval, &a.config.Worker.BatchSize)
	}

	logger.Info("Приложение инициализировано",
		zap.String("environment", a.config.Environment),
		zap.String("repository", a.config.Repository.Type),
		zap.Bool("redis", a.config.Redis.Addr != ""),
		zap.Bool("smtp", sender != nil))
	return a, nil
}

func (a *App) initRepositories(ctx context.Context) (repositories, error) {
	switch a.config.Repository.Type {
	case config.RepositoryPostgres:
		db, err := postgres.New(ctx, a.config.Database.URL, postgres.PoolSettings{
			MaxConns:        a.config.Database.MaxConnections,
			MinConns:        a.config.Database.MinConnections,
			MaxConnIdleTime: a.config.Database.IdleTimeout,
		})
		if err != nil {
			return repositories{}, fmt.Errorf("подключение к postgres: %w", err)
		}
		a.shutdowns = append(a.shutdowns, func() {
			logger.Info("Закрытие пула соединений postgres...")
			db.Close()
		})

		if a.config.Database.MigrateOnStart {
			if err := db.Migrate(ctx); err != nil {
				return repositories{}, fmt.Errorf("миграции: %w", err)
			}
		}

		return repositories{
			tasks:      db.Tasks(),
			activities: db.Activities(),
			comments:   db.Comments(),
			users:      db.Users(),
			teams:      db.Teams(),
			requests:   db.DeletionRequests(),
		}, nil

	case config.RepositoryInMemory:
		users := inmemory.NewUserStorage()
		return repositories{
			tasks:      inmemory.NewTaskStorage(),
			activities: inmemory.NewActivityStorage(),
			comments:   inmemory.NewCommentStorage(),
			users:      users,
			teams:      inmemory.NewTeamStorage(users),
			requests:   inmemory.NewDeletionRequestStorage(),
		}, nil
	}
	return repositories{}, fmt.Errorf("неизвестный тип хранилища %q", a.config.Repository.Type)
}

func (a *App) initCache(ctx context.Context) (analyticsCache, error) {
	var c analyticsCache
	if a.config.Redis.Addr == "" {
		c = cache.NewMemory()
	} else {
		rc, err := cache.NewRedis(ctx, a.config.Redis.Addr, a.config.Redis.Password, a.config.Redis.DB, a.config.Redis.Namespace)
		if err != nil {
			return nil, fmt.Errorf("подключение к redis: %w", err)
		}
		c = rc
	}

	a.shutdowns = append(a.shutdowns, func() {
		if err := c.Close(); err != nil {
			logger.Warn("Ошибка закрытия кеша", zap.Error(err))
		}
	})
	return c, nil
}

// Handler - корневой обработчик, доступен после Init
func (a *App) Handler() http.Handler {
	return a.router
}

// Run обслуживает запросы до отмены ctx, затем корректно останавливает сервер и воркер
func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Сервер запущен", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http сервер: %w", err)
		}
		return nil
	})

	if a.worker != nil {
		g.Go(func() error {
			return a.worker.Start(gctx)
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Остановка сервера...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout())
		defer cancel()
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("остановка сервера: %w", err)
		}
		return nil
	})

	err := g.Wait()
	a.Close()
	return err
}

func (a *App) shutdownTimeout() time.Duration {
	if a.config.Server.ShutdownTimeout > 0 {
		return a.config.Server.ShutdownTimeout
	}
	return 10 * time.Second
}

// Close освобождает ресурсы в порядке, обратном созданию
func (a *App) Close() {
	for i := len(a.shutdowns) - 1; i >= 0; i-- {
		a.shutdowns[i]()
	}
	a.shutdowns = nil
}
