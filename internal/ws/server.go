package ws

import (
	"context"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yourorg/chat-app/realtime/internal/auth"
	"github.com/yourorg/chat-app/realtime/internal/config"
	"github.com/yourorg/chat-app/realtime/internal/presence"
)

type Server struct {
	hub      *Hub
	registry *presence.Registry
	cfg      *config.Config
	log      *zap.SugaredLogger
}

func NewServer(hub *Hub, registry *presence.Registry, cfg *config.Config, log *zap.SugaredLogger) *Server {
	return &Server{hub: hub, registry: registry, cfg: cfg, log: log}
}

// HandleWS runs for every upgraded connection: /ws?token=<jwt>.
// The connection lives for the duration of this call; cleanup happens on
// every exit path.
func (s *Server) HandleWS() func(*websocket.Conn) {
	return func(conn *websocket.Conn) {
		token := conn.Query("token")
		if token == "" {
			_ = conn.Close()
			return
		}
		claims, err := auth.ParseAndValidateToken(s.cfg.App.JWTSecret, token)
		if err != nil {
			_ = conn.Close()
			return
		}
		userID := claims.UserID
		socketID := uuid.New().String()

		c := NewClient(conn, userID, socketID, s.cfg.WS.SendBuffer)
		s.hub.Register(c)
		s.registry.OnConnect(context.Background(), userID, socketID)
		s.log.Infow("ws connected", "user_id", userID, "socket_id", socketID)

		go c.writePump(s.cfg.PingInterval, s.cfg.WriteDeadline)
		c.readPump(s.cfg.ReadDeadline, s.cfg.WS.MaxMessageSizeBytes)

		s.hub.Unregister(c)
		s.registry.OnDisconnect(context.Background(), userID, socketID)
		s.log.Infow("ws disconnected", "user_id", userID, "socket_id", socketID)
	}
}
