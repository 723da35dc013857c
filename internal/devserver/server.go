// Package devserver is an in-memory implementation of the couples backend API
// used for local development and two-device tests.
package devserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/lovequest/questsync/internal/gateways/backend"
)

type Config struct {
	// Token, when set, is required as a bearer token on every request.
	Token string
	Now   func() time.Time
}

type Server struct {
	app   *fiber.App
	state *state
	cfg   Config
}

func New(cfg Config) *Server {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	s := &Server{
		state: newState(),
		cfg:   cfg,
	}

	s.app = fiber.New(fiber.Config{
		AppName:               "questsync-devserver",
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler,
	})
	s.app.Use(recover.New())
	s.app.Use(loggingMiddleware())
	s.app.Use(s.authRequired())
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.app.Group("/api/v1")

	api.Post("/pairing", s.handlePair)
	api.Get("/pairing/status", s.handlePairingStatus)

	api.Get("/couples/:couple/quest-status", s.handleQuestStatus)
	api.Post("/couples/:couple/quest-completions", s.handleCompletion)

	api.Get("/users/:user/ledger", s.handleGetLedger)
	api.Post("/users/:user/ledger", s.handlePushLedger)

	api.Get("/content/:type", s.handleContent)
}

// Pair links a and b under coupleID, replacing any previous pairing of either.
func (s *Server) Pair(coupleID string, a, b backend.User) {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()
	s.state.pair(coupleID, a, b)

	slog.Info("Couple paired",
		slog.String("type", "sys"),
		slog.String("couple_id", coupleID),
		slog.String("user", a.ID),
		slog.String("partner", b.ID))
}

// Handler exposes the app as a net/http handler.
func (s *Server) Handler() http.Handler {
	return adaptor.FiberApp(s.app)
}

func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) Listen(addr string) error {
	slog.Info("Dev server listening",
		slog.String("type", "sys"),
		slog.String("addr", addr))
	return s.app.Listen(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) authRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if s.cfg.Token == "" {
			return c.Next()
		}
		token := strings.TrimPrefix(c.Get(fiber.HeaderAuthorization), "Bearer ")
		if token != s.cfg.Token {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid token")
		}
		return c.Next()
	}
}

type pairRequest struct {
	CoupleID string       `json:"couple_id"`
	User     backend.User `json:"user"`
	Partner  backend.User `json:"partner"`
}

func (s *Server) handlePair(c *fiber.Ctx) error {
	var req pairRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body")
	}
	if req.CoupleID == "" || req.User.ID == "" || req.Partner.ID == "" || req.User.ID == req.Partner.ID {
		return fiber.NewError(fiber.StatusBadRequest, "couple_id and two distinct users are required")
	}
	s.Pair(req.CoupleID, req.User, req.Partner)
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) handlePairingStatus(c *fiber.Ctx) error {
	userID := c.Query("user_id")
	if userID == "" {
		return fiber.NewError(fiber.StatusBadRequest, "user_id is required")
	}

	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	resp := backend.PairingResponse{User: backend.User{ID: userID}}
	if u, ok := s.state.users[userID]; ok {
		resp.User = u
	}
	if cp, ok := s.state.couples[s.state.byUser[userID]]; ok {
		resp.CoupleID = cp.id
		for _, m := range cp.members {
			if m.ID != userID {
				m := m
				resp.Partner = &m
			}
		}
	}
	return c.JSON(resp)
}

func (s *Server) handleQuestStatus(c *fiber.Ctx) error {
	date := c.Query("date")
	if date == "" {
		return fiber.NewError(fiber.StatusBadRequest, "date is required")
	}

	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	cp, viewer, err := s.lookupMember(c.Params("couple"), c.Query("user_id"))
	if err != nil {
		return err
	}
	return c.JSON(backend.QuestStatusResponse{Quests: s.state.status(cp, date, viewer)})
}

func (s *Server) handleCompletion(c *fiber.Ctx) error {
	var req backend.CompletionRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body")
	}
	if req.Date == "" || req.QuestType == "" {
		return fiber.NewError(fiber.StatusBadRequest, "date and quest_type are required")
	}

	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	cp, member, err := s.lookupMember(c.Params("couple"), req.UserID)
	if err != nil {
		return err
	}

	k := questKey{coupleID: cp.id, date: req.Date, questType: req.QuestType, formatType: req.FormatType}
	if s.state.complete(k, member.ID, s.cfg.Now()) {
		slog.Info("Quest completion recorded",
			slog.String("type", "sync"),
			slog.String("couple_id", cp.id),
			slog.String("user_id", member.ID),
			slog.String("quest_type", req.QuestType),
			slog.String("format_type", req.FormatType))
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) handleGetLedger(c *fiber.Ctx) error {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()
	return c.JSON(s.state.ledger(c.Params("user")))
}

func (s *Server) handlePushLedger(c *fiber.Ctx) error {
	var req backend.PushLedgerRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body")
	}

	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	userID := c.Params("user")
	accepted := s.state.push(userID, req.Transactions)
	slog.Debug("Ledger push",
		slog.String("type", "sync"),
		slog.String("user_id", userID),
		slog.Int("received", len(req.Transactions)),
		slog.Int("accepted", accepted))
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) handleContent(c *fiber.Ctx) error {
	item, ok := contentFor(c.Params("type"), c.Query("format"), c.Query("date"))
	if !ok {
		return fiber.NewError(fiber.StatusNotFound, fmt.Sprintf("no content for %s", c.Params("type")))
	}
	return c.JSON(item)
}

// lookupMember expects the state lock held.
func (s *Server) lookupMember(coupleID, userKey string) (*couple, *backend.User, error) {
	cp, ok := s.state.couples[coupleID]
	if !ok {
		return nil, nil, fiber.NewError(fiber.StatusNotFound, "unknown couple")
	}
	m := cp.member(userKey)
	if m == nil {
		return nil, nil, fiber.NewError(fiber.StatusForbidden, "user is not a member of this couple")
	}
	return cp, m, nil
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
		message = e.Message
	}
	return c.Status(code).JSON(backend.ErrorResponse{Error: message})
}

func loggingMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			var e *fiber.Error
			if errors.As(err, &e) {
				status = e.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}

		level := slog.LevelDebug
		if status >= 500 {
			level = slog.LevelError
		} else if status >= 400 {
			level = slog.LevelWarn
		}

		slog.Log(c.Context(), level, "HTTP request processed",
			slog.String("type", "sys"),
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.Int("status", status),
			slog.Duration("duration", time.Since(start)))
		return err
	}
}
