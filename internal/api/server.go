package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/yourorg/chat-app/realtime/internal/auth"
	"github.com/yourorg/chat-app/realtime/internal/config"
	"github.com/yourorg/chat-app/realtime/internal/events"
	"github.com/yourorg/chat-app/realtime/internal/membership"
	"github.com/yourorg/chat-app/realtime/internal/router"
	"github.com/yourorg/chat-app/realtime/internal/store"
	wsrv "github.com/yourorg/chat-app/realtime/internal/ws"
)

type Server struct {
	app       *fiber.App
	cfg       *config.Config
	store     *store.Store
	members   *membership.Index
	router    *router.Router
	publisher *events.Publisher
	ws        *wsrv.Server
	log       *zap.SugaredLogger
}

func NewServer(
	cfg *config.Config,
	st *store.Store,
	members *membership.Index,
	rtr *router.Router,
	pub *events.Publisher,
	ws *wsrv.Server,
	log *zap.SugaredLogger,
) *Server {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Use(recover.New())

	s := &Server{
		app: app, cfg: cfg, store: st, members: members,
		router: rtr, publisher: pub, ws: ws, log: log,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	loginLimiter := NewIPRateLimiter(30, s.log)

	api := s.app.Group("/api")
	api.Post("/auth/login", loginLimiter.Handler(), s.login)

	// everything below requires an authenticated identity; the login route
	// above matched first and never reaches this middleware
	api.Use(auth.Middleware(s.cfg.App.JWTSecret))
	api.Get("/auth/check", s.check)

	api.Get("/messages/users", s.listContacts)
	api.Get("/messages/group/:groupId", s.groupHistory)
	api.Get("/messages/:id", s.directHistory)
	api.Post("/messages/send-group", s.sendGroup)
	api.Post("/messages/send/:id", s.sendDirect)

	api.Get("/groups", s.listGroups)
	api.Post("/groups/create", s.createGroup)
	api.Post("/groups/:id/members", s.addMember)

	// live channel; auth happens inside the ws handler via ?token=
	s.app.Get("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	}, websocket.New(s.ws.HandleWS()))
}

func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
