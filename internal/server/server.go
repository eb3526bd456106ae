package server

import (
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"tracker-parent/internal/auth"
	"tracker-parent/internal/config"
	"tracker-parent/internal/gateway"
	"tracker-parent/internal/logger"
	"tracker-parent/internal/session"
	"tracker-parent/internal/settings"
	"tracker-parent/internal/stream"
	"tracker-parent/internal/tracking"
	"tracker-parent/internal/trackview"
)

type Server struct {
	App      *fiber.App
	Cfg      config.Config
	Stream   *stream.Hub
	Resolver *session.Resolver
	Auth     *auth.Service
	Tracks   *trackview.Machine
	Settings *settings.Service
	log      *zap.Logger
}

func NewServer(cfg config.Config, stores Stores, redisClient *redis.Client, log *zap.Logger) *Server {
	log = logger.OrNop(log)
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Use(recover.New())
	app.Use(fiberlogger.New())

	gw := gateway.New(gateway.Options{
		Platform:   cfg.AppPlatform,
		AppVersion: cfg.AppVersion,
		Timeout:    cfg.RequestTimeout,
		Logger:     log.Named("gateway"),
	})
	resolver := session.NewResolver(cfg.BundleID, stores.Prefs, stores.Credentials)
	hub := stream.NewHub(redisClient, log.Named("stream"))

	s := &Server{
		App:      app,
		Cfg:      cfg,
		Stream:   hub,
		Resolver: resolver,
		Auth:     auth.NewService(gw, cfg.IdentityBaseURL, resolver, log.Named("auth")),
		Tracks: trackview.New(resolver, tracking.NewService(gw, cfg.LocationBaseURL, log.Named("tracking")), trackview.Options{
			Notifier: hub,
			Topic:    cfg.StreamTopic,
			Location: cfg.Location(),
			Logger:   log.Named("trackview"),
		}),
		Settings: settings.NewService(gw, cfg.LocationBaseURL, resolver, log.Named("settings")),
		log:      log,
	}

	s.Auth.OnSignOut(s.Tracks.Reset)
	s.Auth.OnSignOut(hub.DisconnectAll)

	registerRoutes(s)
	return s
}

func registerRoutes(s *Server) {
	s.App.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	sessionMiddleware := auth.SessionMiddleware(s.Resolver)
	registrar := auth.NewRegistrar(s.Auth, auth.LoginRequest{
		Username: s.Cfg.RegistrarUsername,
		Password: s.Cfg.RegistrarPassword,
	})

	auth.RegisterRoutes(s.App.Group("/auth"), s.Auth, registrar, sessionMiddleware)
	trackview.RegisterRoutes(s.App.Group("/tracks"), s.Tracks, sessionMiddleware)
	settings.RegisterRoutes(s.App.Group("/settings"), s.Settings, sessionMiddleware)
	stream.RegisterRoutes(s.App.Group("/stream"), s.Stream, sessionMiddleware)
}

// Close releases the stream subscription.
func (s *Server) Close() error {
	return s.Stream.Close()
}
