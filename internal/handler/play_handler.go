package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/evidence-builder-api/internal/dto"
	"github.com/noah-isme/evidence-builder-api/internal/service"
	"github.com/noah-isme/evidence-builder-api/internal/utils"
)

// PlayHandler serves the public student endpoints. Students are identified
// by the name they join with, not by a token.
type PlayHandler struct {
	service service.PlayService
	logger  zerolog.Logger
}

// NewPlayHandler constructs a play handler.
func NewPlayHandler(service service.PlayService, logger zerolog.Logger) *PlayHandler {
	return &PlayHandler{
		service: service,
		logger:  logger.With().Str("component", "play_handler").Logger(),
	}
}

// Register wires play routes.
func (h *PlayHandler) Register(router fiber.Router) {
	router.Post("/join", h.join)

	questions := router.Group("/sessions/:id/questions/:qid")
	questions.Get("", h.view)
	questions.Post("/preview", h.preview)
	questions.Post("/submit", h.submit)
}

func (h *PlayHandler) join(c *fiber.Ctx) error {
	var payload dto.JoinRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	result, err := h.service.Join(c.Context(), payload)
	if err != nil {
		return handleError(c, h.logger, err, "join session")
	}
	return utils.SendSuccess(c, "joined session", result)
}

func (h *PlayHandler) view(c *fiber.Ctx) error {
	sessionID, questionID, err := questionParams(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	question, err := h.service.ViewQuestion(c.Context(), sessionID, questionID)
	if err != nil {
		return handleError(c, h.logger, err, "load question")
	}
	return utils.SendSuccess(c, "question retrieved", question)
}

func (h *PlayHandler) preview(c *fiber.Ctx) error {
	sessionID, questionID, err := questionParams(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	var payload dto.PreviewRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	preview, err := h.service.Preview(c.Context(), sessionID, questionID, payload)
	if err != nil {
		return handleError(c, h.logger, err, "render preview")
	}
	return utils.SendSuccess(c, "preview rendered", preview)
}

func (h *PlayHandler) submit(c *fiber.Ctx) error {
	sessionID, questionID, err := questionParams(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	var payload dto.SubmitRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	result, err := h.service.Submit(c.Context(), sessionID, questionID, payload)
	if err != nil {
		return handleError(c, h.logger, err, "submit answer")
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "answer recorded", result)
}

func questionParams(c *fiber.Ctx) (uint, uint, error) {
	sessionID, err := parseUintParam(c, "id")
	if err != nil {
		return 0, 0, err
	}
	questionID, err := parseUintParam(c, "qid")
	if err != nil {
		return 0, 0, err
	}
	return sessionID, questionID, nil
}
