package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/evidence-builder-api/internal/dto"
	"github.com/noah-isme/evidence-builder-api/internal/service"
	"github.com/noah-isme/evidence-builder-api/internal/utils"
)

// SessionHandler exposes session and challenge endpoints for teachers.
type SessionHandler struct {
	service service.SessionService
	logger  zerolog.Logger
}

// NewSessionHandler constructs a session handler.
func NewSessionHandler(service service.SessionService, logger zerolog.Logger) *SessionHandler {
	return &SessionHandler{
		service: service,
		logger:  logger.With().Str("component", "session_handler").Logger(),
	}
}

// Register wires session routes.
func (h *SessionHandler) Register(router fiber.Router) {
	router.Post("", h.start)
	router.Get("", h.list)
	router.Post("/challenges/:id/accept", h.acceptChallenge)
	router.Get("/:id", h.get)
	router.Post("/:id/challenge", h.shareChallenge)
}

func (h *SessionHandler) start(c *fiber.Ctx) error {
	var payload dto.SessionCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	session, err := h.service.Start(c.Context(), actorFromContext(c), payload)
	if err != nil {
		return handleError(c, h.logger, err, "start session")
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "session started", session)
}

func (h *SessionHandler) list(c *fiber.Ctx) error {
	sessions, err := h.service.List(c.Context(), actorFromContext(c))
	if err != nil {
		return handleError(c, h.logger, err, "list sessions")
	}
	return utils.OK(c, sessions, "sessions retrieved", fiber.Map{"count": len(sessions)})
}

func (h *SessionHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	session, err := h.service.Get(c.Context(), actorFromContext(c), id)
	if err != nil {
		return handleError(c, h.logger, err, "fetch session")
	}
	return utils.SendSuccess(c, "session retrieved", session)
}

func (h *SessionHandler) shareChallenge(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	session, err := h.service.ShareChallenge(c.Context(), actorFromContext(c), id)
	if err != nil {
		return handleError(c, h.logger, err, "share challenge")
	}
	return utils.SendSuccess(c, "challenge shared", session)
}

func (h *SessionHandler) acceptChallenge(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	session, err := h.service.AcceptChallenge(c.Context(), actorFromContext(c), id)
	if err != nil {
		return handleError(c, h.logger, err, "accept challenge")
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "challenge accepted", session)
}
