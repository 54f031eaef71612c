package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/skillswap/backend/internal/auth"
	"github.com/skillswap/backend/internal/chat"
	"github.com/skillswap/backend/internal/config"
	"github.com/skillswap/backend/internal/db"
	"github.com/skillswap/backend/internal/directory"
	"github.com/skillswap/backend/internal/events"
	"github.com/skillswap/backend/internal/handlers"
	"github.com/skillswap/backend/internal/middleware"
	"github.com/skillswap/backend/internal/relationships"
	"github.com/skillswap/backend/internal/repositories"
	"github.com/skillswap/backend/internal/storage"
)

// services bundles the wired handler dependencies with the resources that
// must be released on shutdown.
type services struct {
	Handlers      handlers.Dependencies
	Authenticator middleware.Authenticator

	closers []func(context.Context) error
}

// Close releases resources in reverse order of acquisition.
func (s *services) Close(ctx context.Context) error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}

func (s *services) onClose(fn func(context.Context) error) {
	s.closers = append(s.closers, fn)
}

// buildDependencies wires together concrete implementations used by the HTTP handlers.
// pool may be nil when no configured backend needs PostgreSQL.
func buildDependencies(ctx context.Context, pool db.Pool, cfg config.Config, logger *slog.Logger) (*services, error) {
	svc := &services{}
	if err := svc.wire(ctx, pool, cfg, logger); err != nil {
		return nil, err
	}
	return svc, nil
}

// wire populates svc. On failure every resource registered so far, including
// closers added before the call, is released.
func (svc *services) wire(ctx context.Context, pool db.Pool, cfg config.Config, logger *slog.Logger) (err error) {
	if logger == nil {
		logger = slog.Default()
	}

	defer func() {
		if err != nil {
			if closeErr := svc.Close(context.Background()); closeErr != nil {
				logger.Warn("release partially built services", "error", closeErr)
			}
		}
	}()

	users, err := buildUserStore(pool, cfg)
	if err != nil {
		return err
	}

	sessionStore, err := buildSessionStore(ctx, pool, cfg, svc)
	if err != nil {
		return err
	}
	manager := auth.NewManager(cfg.AccessTokenTTL, cfg.RefreshTokenTTL, []byte(cfg.JWTSecret), sessionStore)

	dir := directory.New(directory.DefaultCatalog()...)
	registered, err := users.List(ctx)
	if err != nil {
		return fmt.Errorf("load registered users: %w", err)
	}
	for _, u := range registered {
		dir.Upsert(directory.ProfileFromUser(u))
	}
	logger.Info("directory loaded", "members", dir.Len(), "registered", len(registered))

	publisher, err := buildPublisher(cfg, logger, svc)
	if err != nil {
		return err
	}
	dispatcher := events.NewDispatcher(publisher, events.DispatcherConfig{
		QueueSize: cfg.Events.QueueSize,
		Workers:   cfg.Events.Workers,
	}, logger)
	svc.onClose(dispatcher.Shutdown)

	hub := chat.NewHub(chat.Config{SendBuffer: cfg.ChatSendBuffer}, logger)
	svc.onClose(hub.Shutdown)

	limiterTTL := 10 * cfg.RateLimit.Window
	svc.Handlers = handlers.Dependencies{
		Users:         users,
		Sessions:      manager,
		Directory:     dir,
		Relationships: relationships.NewStore(dir),
		Events:        dispatcher,
		Chat:          hub,
		AuthLimiter:   middleware.NewIPRateLimiter(cfg.RateLimit.AuthRequests, cfg.RateLimit.Window, cfg.RateLimit.Burst, limiterTTL),
		FriendLimiter: middleware.NewIPRateLimiter(cfg.RateLimit.FriendRequests, cfg.RateLimit.Window, cfg.RateLimit.Burst, limiterTTL),
	}
	svc.Authenticator = manager

	if cfg.ObjectStore.Enabled() {
		avatars, err := storage.NewS3Storage(ctx, cfg.ObjectStore)
		if err != nil {
			return err
		}
		svc.Handlers.Avatars = avatars
	} else {
		logger.Info("avatar uploads disabled", "reason", "no bucket configured")
	}

	return nil
}

func buildUserStore(pool db.Pool, cfg config.Config) (repositories.UserRepository, error) {
	switch cfg.UserStore {
	case config.UserStoreFile:
		return repositories.NewFileUserRepository(cfg.UsersFile), nil
	case config.UserStorePostgres:
		if pool == nil {
			return nil, errors.New("postgres user store requires a database connection")
		}
		return repositories.NewPostgresUserRepository(pool), nil
	default:
		return nil, fmt.Errorf("unknown user store %q", cfg.UserStore)
	}
}

func buildSessionStore(ctx context.Context, pool db.Pool, cfg config.Config, svc *services) (auth.SessionStore, error) {
	switch cfg.SessionStore {
	case config.SessionStoreMemory:
		return auth.NewInMemorySessionStore(), nil
	case config.SessionStorePostgres:
		if pool == nil {
			return nil, errors.New("postgres session store requires a database connection")
		}
		return repositories.NewPostgresSessionStore(pool), nil
	case config.SessionStoreRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		svc.onClose(func(context.Context) error { return client.Close() })

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			return nil, fmt.Errorf("ping redis: %w", err)
		}
		return repositories.NewRedisSessionStore(client), nil
	default:
		return nil, fmt.Errorf("unknown session store %q", cfg.SessionStore)
	}
}

func buildPublisher(cfg config.Config, logger *slog.Logger, svc *services) (events.Publisher, error) {
	if len(cfg.Events.KafkaBrokers) == 0 {
		logger.Info("friend events logged locally", "reason", "no kafka brokers configured")
		return events.LogPublisher{Logger: logger}, nil
	}

	publisher, err := events.NewKafkaPublisher(cfg.Events.KafkaBrokers, cfg.Events.KafkaTopic)
	if err != nil {
		return nil, err
	}
	svc.onClose(func(context.Context) error { return publisher.Close() })
	return publisher, nil
}
