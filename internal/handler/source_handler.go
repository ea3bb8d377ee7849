package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/evidence-builder-api/internal/dto"
	"github.com/noah-isme/evidence-builder-api/internal/service"
	"github.com/noah-isme/evidence-builder-api/internal/utils"
)

// SourceHandler exposes teacher endpoints for text sources.
type SourceHandler struct {
	service service.SourceService
	logger  zerolog.Logger
}

// NewSourceHandler constructs a source handler.
func NewSourceHandler(service service.SourceService, logger zerolog.Logger) *SourceHandler {
	return &SourceHandler{
		service: service,
		logger:  logger.With().Str("component", "source_handler").Logger(),
	}
}

// Register wires source routes.
func (h *SourceHandler) Register(router fiber.Router) {
	router.Post("", h.create)
	router.Get("", h.list)
	router.Get("/:id", h.get)
	router.Put("/:id/highlights", h.saveHighlights)
}

func (h *SourceHandler) create(c *fiber.Ctx) error {
	var payload dto.SourceCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	source, err := h.service.Create(c.Context(), actorFromContext(c), payload)
	if err != nil {
		return handleError(c, h.logger, err, "create source")
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "source created", source)
}

func (h *SourceHandler) list(c *fiber.Ctx) error {
	sources, err := h.service.List(c.Context(), actorFromContext(c))
	if err != nil {
		return handleError(c, h.logger, err, "list sources")
	}
	return utils.SendSuccess(c, "sources retrieved", sources)
}

func (h *SourceHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	source, err := h.service.Get(c.Context(), actorFromContext(c), id)
	if err != nil {
		return handleError(c, h.logger, err, "fetch source")
	}
	return utils.SendSuccess(c, "source retrieved", source)
}

func (h *SourceHandler) saveHighlights(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	var payload dto.SourceHighlightsRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	source, err := h.service.SaveHighlights(c.Context(), actorFromContext(c), id, payload)
	if err != nil {
		return handleError(c, h.logger, err, "save highlights")
	}
	return utils.SendSuccess(c, "highlights saved", source)
}
