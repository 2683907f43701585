package server

import (
	"context"
	"errors"

	"github.com/aksaraymalaklisi/greentrail/internal/assistant"
	"github.com/aksaraymalaklisi/greentrail/internal/auth"
	"github.com/aksaraymalaklisi/greentrail/internal/community"
	"github.com/aksaraymalaklisi/greentrail/internal/config"
	"github.com/aksaraymalaklisi/greentrail/internal/db"
	"github.com/aksaraymalaklisi/greentrail/internal/storage"
	"github.com/aksaraymalaklisi/greentrail/internal/track"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

type Server struct {
	App  *fiber.App
	Cfg  config.Config
	DB   db.Querier
	Rdb  *redis.Client
	Chat *assistant.Hub
}

func NewServer(cfg config.Config, database db.Querier, redisClient *redis.Client) *Server {
	app := fiber.New(fiber.Config{
		ErrorHandler: errorHandler,
	})
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(metricsMiddleware())

	s := &Server{
		App:  app,
		Cfg:  cfg,
		DB:   database,
		Rdb:  redisClient,
		Chat: assistant.NewHub(redisClient),
	}

	registerRoutes(s)
	return s
}

// errorHandler renders every error the way handlers do explicitly,
// as a JSON body with a detail field.
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	return c.Status(code).JSON(fiber.Map{"detail": err.Error()})
}

func registerRoutes(s *Server) {
	s.App.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	s.App.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	optionalAuth := auth.OptionalJWTMiddleware(s.Cfg.JWTSecret)
	requireAuth := auth.JWTMiddleware(s.Cfg.JWTSecret)

	authSvc := auth.NewService(s.Cfg.JWTSecret, s.DB)
	storageSvc := storage.NewService(s.DB)
	trackSvc := track.NewService(s.DB, track.NewListCache(s.Rdb, track.DefaultListTTL))
	communitySvc := community.NewService(s.DB)

	api := s.App.Group("/api")
	auth.RegisterRoutes(api, authSvc, storageSvc, auth.NewLoginRateLimiter(1, 5))
	track.RegisterRoutes(api.Group("/tracks"), trackSvc, optionalAuth, requireAuth)
	community.RegisterRoutes(api.Group("/community-posts"), api.Group("/comments"), communitySvc, storageSvc, optionalAuth, requireAuth)
	storage.RegisterRoutes(api.Group("/storage"), storageSvc)

	responder := assistant.NewResponder(trackSvc)
	assistant.RegisterRoutes(s.App.Group("/ws"), s.Chat, responder, chatTokenValidator(authSvc))
}

// chatTokenValidator resolves a websocket query token to the user it
// belongs to, so the chat endpoint can reject mismatched connections.
func chatTokenValidator(svc *auth.Service) assistant.TokenValidator {
	return func(ctx context.Context, token string) (string, string, error) {
		userID, err := svc.ValidateAccessToken(token)
		if err != nil {
			return "", "", err
		}
		user, err := svc.Me(ctx, userID)
		if err != nil {
			return "", "", err
		}
		return user.ID, user.Username, nil
	}
}
