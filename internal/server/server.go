// Package server is the leconn HTTP API: Fiber routes and handlers over the
// services, plus the realtime feed socket.
package server

import (
	"context"
	"errors"
	"fmt"

	_ "leconn/docs" // swagger spec registration
	"leconn/internal/cache"
	"leconn/internal/config"
	"leconn/internal/database"
	"leconn/internal/middleware"
	"leconn/internal/models"
	"leconn/internal/notifications"
	"leconn/internal/observability"
	"leconn/internal/repository"
	"leconn/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const serviceName = "leconn-api"

// Server wires configuration, storage and services into the Fiber app.
type Server struct {
	config *config.Config
	db     *gorm.DB
	redis  *redis.Client // nil when running without Redis
	auth   *middleware.Auth
	prom   *fiberprometheus.FiberPrometheus

	app  *fiber.App
	life context.Context
	stop context.CancelFunc

	postRepo repository.PostRepository

	postService   *service.PostService
	likeService   *service.LikeService
	repostService *service.RepostService
	userService   *service.UserService
	followService *service.FollowService

	notifier *notifications.Notifier
	hub      *notifications.Hub
}

// NewServer opens the database and Redis named by cfg. An unreachable Redis
// is logged and the server runs without it.
func NewServer(ctx context.Context, cfg *config.Config) (*Server, error) {
	db, err := database.Connect(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	return NewServerWithDeps(cfg, db, cache.InitRedis(ctx, cfg.RedisURL))
}

// NewServerWithDeps builds a Server on open connections. rdb may be nil;
// caching, rate limiting, token revocation, websocket tickets and
// cross-instance fan-out then fall back or switch off.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, rdb *redis.Client) (*Server, error) {
	if db == nil {
		return nil, errors.New("server requires a database")
	}
	if cache.GetClient() != rdb {
		cache.SetClient(rdb)
	}

	users := repository.NewUserRepository(db)
	posts := repository.NewPostRepository(db)

	s := &Server{
		config:        cfg,
		db:            db,
		redis:         rdb,
		auth:          middleware.NewAuth(cfg.JWTSecret, rdb),
		prom:          middleware.InitMetrics(serviceName),
		postRepo:      posts,
		postService:   service.NewPostService(posts),
		likeService:   service.NewLikeService(repository.NewLikeRepository(db)),
		repostService: service.NewRepostService(repository.NewRepostRepository(db)),
		userService:   service.NewUserService(users),
		followService: service.NewFollowService(repository.NewFollowRepository(db), users),
		notifier:      notifications.NewNotifier(rdb),
		hub:           notifications.NewHub(),
	}
	s.life, s.stop = context.WithCancel(context.Background())
	s.App()
	return s, nil
}

// App returns the Fiber application.
func (s *Server) App() *fiber.App {
	if s.app == nil {
		s.app = fiber.New(fiber.Config{AppName: "leconn API", ErrorHandler: errorHandler})
		s.SetupMiddleware(s.app)
		s.SetupRoutes(s.app)
	}
	return s.app
}

// errorHandler renders errors no handler turned into a response.
func errorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(models.ErrorResponse{Error: fe.Message})
	}
	observability.Logger.ErrorContext(c.UserContext(), "unhandled error", "error", err.Error())
	return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
}

// Start subscribes the hub to Redis fan-out, if available, and serves until
// Shutdown.
func (s *Server) Start() error {
	if s.redis != nil {
		if err := s.hub.StartWiring(s.life, s.notifier); err != nil {
			observability.Logger.Warn("realtime fan-out disabled", "error", err.Error())
		}
	}

	observability.Logger.Info("server starting", "port", s.config.Port, "env", s.config.Env)
	return s.App().Listen(":" + s.config.Port)
}

// Shutdown stops accepting requests, then closes sockets and connections.
// Every step runs; their errors are joined.
func (s *Server) Shutdown(ctx context.Context) error {
	s.stop()

	var errs []error
	step := func(name string, err error) {
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}

	step("http", s.app.ShutdownWithContext(ctx))
	step("websocket hub", s.hub.Shutdown(ctx))
	if sqlDB, err := s.db.DB(); err == nil {
		step("database", sqlDB.Close())
	}
	if s.redis != nil {
		step("redis", s.redis.Close())
	}

	observability.Logger.Info("server stopped")
	return errors.Join(errs...)
}
