package server

import (
	"strings"
	"time"

	"leconn/internal/middleware"
	"leconn/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
)

var corsHeaders = strings.Join([]string{
	fiber.HeaderOrigin, fiber.HeaderContentType, fiber.HeaderAccept, fiber.HeaderAuthorization,
	fiber.HeaderUpgrade, fiber.HeaderConnection, "Sec-WebSocket-Key", "Sec-WebSocket-Version",
}, ", ")

// SetupMiddleware installs the global chain. Order matters: request ids and
// traces first so the access log and metrics can use them, CORS before the
// limiter so throttled responses still carry CORS headers.
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(
		recover.New(),
		requestid.New(),
		middleware.RequestContext(),
		middleware.Tracing(),
		middleware.AccessLog(),
	)
	if s.prom != nil {
		app.Use(s.prom.Middleware)
	}
	app.Use(helmet.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     s.config.AllowedOrigins,
		AllowHeaders:     corsHeaders,
		AllowCredentials: s.config.AllowedOrigins != "*",
		MaxAge:           int((24 * time.Hour).Seconds()),
	}))
	app.Use(limiter.New(limiter.Config{
		Max:        300,
		Expiration: time.Minute,
		Next:       func(c *fiber.Ctx) bool { return c.Method() == fiber.MethodOptions },
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(models.ErrorResponse{
				Error: "Too many requests, please try again later.",
				Code:  "RATE_LIMITED",
			})
		},
	}))
}

// SetupRoutes registers the API. Every /api route except the root probe,
// swagger and signup/login needs a bearer token; /api/ws also takes a
// one-time ?ticket=.
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)
	if s.prom != nil {
		s.prom.RegisterAt(app, "/metrics")
	}

	api := app.Group("/api")
	api.Get("/", s.HealthCheck)
	api.Get("/swagger/*", swagger.HandlerDefault)

	authed := s.auth.Required()
	auth := api.Group("/auth")
	signupQuota := middleware.Quota{Name: "signup", Limit: 3, Window: 10 * time.Minute, FailClosed: true}
	auth.Post("/signup", signupQuota.Handler(s.redis), s.Signup)
	auth.Post("/login", middleware.RateLimit(s.redis, 10, 5*time.Minute, "login"), s.Login)
	auth.Post("/logout", authed, s.Logout)
	auth.Get("/me", authed, s.GetMe)

	protected := api.Group("", authed)
	protected.Post("/ws/ticket", s.IssueWSTicket)
	protected.Get("/ws", s.WebsocketUpgrade, s.WebsocketHandler())

	reactLimit := middleware.RateLimit(s.redis, s.config.LikeRateLimitPerMinute, time.Minute, "like")
	posts := protected.Group("/posts")
	posts.Get("/", s.GetPosts)
	posts.Post("/", middleware.RateLimit(s.redis, s.config.PostRateLimitPerMinute, time.Minute, "create_post"), s.CreatePost)
	posts.Post("/:id/like", reactLimit, s.LikePost)
	posts.Delete("/:id/like", reactLimit, s.UnlikePost)
	posts.Post("/:id/repost", reactLimit, s.RepostPost)
	posts.Delete("/:id/repost", reactLimit, s.UnrepostPost)
	posts.Get("/:id/replies", s.GetReplies)
	posts.Get("/:id", s.GetPost)
	posts.Delete("/:id", s.DeletePost)

	users := protected.Group("/users")
	users.Get("/", s.GetAllUsers)
	users.Get("/me", s.GetMyProfile)
	users.Put("/me", s.UpdateMyProfile)
	users.Get("/:id", s.GetUserProfile)
	users.Get("/:id/posts", s.GetUserPosts)
	users.Post("/:id/follow", s.FollowUser)
	users.Delete("/:id/follow", s.UnfollowUser)
}
