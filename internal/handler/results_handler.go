package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/evidence-builder-api/internal/service"
	"github.com/noah-isme/evidence-builder-api/internal/utils"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ResultsHandler exposes aggregated session and challenge results.
type ResultsHandler struct {
	service service.ResultsService
	logger  zerolog.Logger
}

// NewResultsHandler constructs a results handler.
func NewResultsHandler(service service.ResultsService, logger zerolog.Logger) *ResultsHandler {
	return &ResultsHandler{
		service: service,
		logger:  logger.With().Str("component", "results_handler").Logger(),
	}
}

// Register wires results routes.
func (h *ResultsHandler) Register(router fiber.Router) {
	router.Get("/sessions/:id", h.session)
	router.Get("/sessions/:id/leaderboard", h.leaderboard)
	router.Get("/sessions/:id/export", h.export)
	router.Get("/challenges/:id", h.challenge)
}

func (h *ResultsHandler) session(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	results, err := h.service.SessionResults(c.Context(), actorFromContext(c), id)
	if err != nil {
		return handleError(c, h.logger, err, "load session results")
	}
	return utils.SendSuccess(c, "session results retrieved", results)
}

func (h *ResultsHandler) leaderboard(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}
	limit, err := parseQueryInt(c, "limit")
	if err != nil || limit < 0 {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid limit")
	}

	board, err := h.service.Leaderboard(c.Context(), actorFromContext(c), id, limit)
	if err != nil {
		return handleError(c, h.logger, err, "load leaderboard")
	}
	return utils.SendSuccess(c, "leaderboard retrieved", board)
}

func (h *ResultsHandler) export(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	export, err := h.service.Export(c.Context(), actorFromContext(c), id)
	if err != nil {
		return handleError(c, h.logger, err, "export results")
	}

	c.Attachment(export.FileName)
	c.Set(fiber.HeaderContentType, xlsxContentType)
	return c.Status(fiber.StatusOK).Send(export.Content)
}

func (h *ResultsHandler) challenge(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	results, err := h.service.ChallengeResults(c.Context(), actorFromContext(c), id)
	if err != nil {
		return handleError(c, h.logger, err, "load challenge results")
	}
	return utils.SendSuccess(c, "challenge results retrieved", results)
}
