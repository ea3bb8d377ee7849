package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/evidence-builder-api/internal/dto"
	"github.com/noah-isme/evidence-builder-api/internal/service"
	"github.com/noah-isme/evidence-builder-api/internal/utils"
)

// QuizHandler exposes quiz authoring endpoints.
type QuizHandler struct {
	service service.QuizService
	logger  zerolog.Logger
}

// NewQuizHandler constructs a quiz handler.
func NewQuizHandler(service service.QuizService, logger zerolog.Logger) *QuizHandler {
	return &QuizHandler{
		service: service,
		logger:  logger.With().Str("component", "quiz_handler").Logger(),
	}
}

// Register wires quiz routes.
func (h *QuizHandler) Register(router fiber.Router) {
	router.Post("", h.create)
	router.Get("", h.list)
	router.Get("/:id", h.get)
}

func (h *QuizHandler) create(c *fiber.Ctx) error {
	var payload dto.QuizCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	quiz, err := h.service.Create(c.Context(), actorFromContext(c), payload)
	if err != nil {
		return handleError(c, h.logger, err, "create quiz")
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "quiz created", quiz)
}

func (h *QuizHandler) list(c *fiber.Ctx) error {
	quizzes, err := h.service.List(c.Context(), actorFromContext(c))
	if err != nil {
		return handleError(c, h.logger, err, "list quizzes")
	}
	return utils.OK(c, quizzes, "quizzes retrieved", fiber.Map{"count": len(quizzes)})
}

func (h *QuizHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	quiz, err := h.service.Get(c.Context(), actorFromContext(c), id)
	if err != nil {
		return handleError(c, h.logger, err, "fetch quiz")
	}
	return utils.SendSuccess(c, "quiz retrieved", quiz)
}
