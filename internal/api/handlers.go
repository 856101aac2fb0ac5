package api

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"

	"github.com/yourorg/chat-app/realtime/internal/apperr"
	"github.com/yourorg/chat-app/realtime/internal/auth"
	"github.com/yourorg/chat-app/realtime/internal/models"
)

const (
	requestTimeout = 5 * time.Second
	tokenTTL       = 24 * time.Hour
)

func (s *Server) login(c *fiber.Ctx) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil || req.Email == "" || req.Password == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "email and password are required"})
	}

	ctx, cancel := context.WithTimeout(c.Context(), requestTimeout)
	defer cancel()
	u, err := s.store.GetUserByEmail(ctx, req.Email)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid credentials"})
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(req.Password)) != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid credentials"})
	}

	token, err := auth.IssueToken(s.cfg.App.JWTSecret, u.ID, tokenTTL)
	if err != nil {
		s.log.Errorw("issue token", "err", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}
	return c.JSON(fiber.Map{"token": token, "user": u})
}

func (s *Server) check(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), requestTimeout)
	defer cancel()
	u, err := s.store.GetUser(ctx, auth.UserID(c))
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(u)
}

func (s *Server) listContacts(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), requestTimeout)
	defer cancel()
	users, err := s.store.ListContacts(ctx, auth.UserID(c))
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(users)
}

func (s *Server) directHistory(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), requestTimeout)
	defer cancel()
	msgs, err := s.store.FetchHistory(ctx, models.Direct(c.Params("id")), auth.UserID(c))
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(msgs)
}

func (s *Server) groupHistory(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), requestTimeout)
	defer cancel()
	msgs, err := s.store.FetchHistory(ctx, models.GroupChat(c.Params("groupId")), auth.UserID(c))
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(msgs)
}

type sendRequest struct {
	Text    string `json:"text"`
	Image   string `json:"image"`
	GroupID string `json:"groupId"`
}

func (s *Server) sendDirect(c *fiber.Ctx) error {
	var req sendRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	return s.send(c, models.Direct(c.Params("id")), req)
}

func (s *Server) sendGroup(c *fiber.Ctx) error {
	var req sendRequest
	if err := c.BodyParser(&req); err != nil || req.GroupID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "groupId is required"})
	}
	return s.send(c, models.GroupChat(req.GroupID), req)
}

// send persists the message, then fans it out. A persistence failure fails
// the whole request: a message that was pushed live but never stored would
// contradict the store being the source of truth. Once stored, live delivery
// is fire-and-forget and delivery failures never surface to the sender.
func (s *Server) send(c *fiber.Ctx, conv models.Conversation, req sendRequest) error {
	senderID := auth.UserID(c)
	ctx, cancel := context.WithTimeout(c.Context(), requestTimeout)
	defer cancel()

	msg, err := s.store.CreateMessage(ctx, conv, senderID, req.Text, req.Image)
	if err != nil {
		return s.fail(c, err)
	}

	s.publisher.PublishMessageCreated(context.Background(), *msg)
	s.router.Route(context.Background(), *msg)

	return c.Status(fiber.StatusCreated).JSON(msg)
}

func (s *Server) listGroups(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), requestTimeout)
	defer cancel()
	groups, err := s.store.FetchGroupsFor(ctx, auth.UserID(c))
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(groups)
}

func (s *Server) createGroup(c *fiber.Ctx) error {
	var req struct {
		Name    string   `json:"name"`
		Members []string `json:"members"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	ctx, cancel := context.WithTimeout(c.Context(), requestTimeout)
	defer cancel()

	g, err := s.store.CreateGroup(ctx, req.Name, auth.UserID(c), req.Members)
	if err != nil {
		return s.fail(c, err)
	}
	s.members.Invalidate(g.ID)
	return c.Status(fiber.StatusCreated).JSON(g)
}

func (s *Server) addMember(c *fiber.Ctx) error {
	var req struct {
		UserID string `json:"userId"`
	}
	if err := c.BodyParser(&req); err != nil || req.UserID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "userId is required"})
	}
	ctx, cancel := context.WithTimeout(c.Context(), requestTimeout)
	defer cancel()

	g, err := s.store.AddMember(ctx, c.Params("id"), auth.UserID(c), req.UserID)
	if err != nil {
		return s.fail(c, err)
	}
	s.members.Invalidate(g.ID)
	return c.JSON(g)
}

// fail maps the error taxonomy onto HTTP statuses in one place.
func (s *Server) fail(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, apperr.ErrValidation), errors.Is(err, apperr.ErrBadRequest):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, apperr.ErrUnauthorized):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, apperr.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	default:
		s.log.Errorw("request failed", "path", c.Path(), "err", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}
}
