package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/evidence-builder-api/internal/service"
	"github.com/noah-isme/evidence-builder-api/internal/utils"
)

var badRequestErrors = []error{
	service.ErrInvalidTask,
	service.ErrInvalidHighlight,
	service.ErrEmptySource,
	service.ErrQuizEmpty,
	service.ErrStudentNameRequired,
	service.ErrUploadMissing,
	service.ErrUploadTypeNotAllowed,
}

var notFoundErrors = []error{
	service.ErrSourceNotFound,
	service.ErrTaskNotFound,
	service.ErrQuizNotFound,
	service.ErrSessionNotFound,
	service.ErrQuestionNotFound,
}

var conflictErrors = []error{
	service.ErrAlreadyAnswered,
	service.ErrNotChallenge,
}

// handleError translates service errors into the response envelope.
// Anything unrecognised is logged and reported as a failure to perform action.
func handleError(c *fiber.Ctx, logger zerolog.Logger, err error, action string) error {
	switch {
	case isValidationError(err):
		return utils.Fail(c, fiber.StatusBadRequest, "validation failed", validationDetails(err))
	case errors.Is(err, service.ErrUploadTooLarge):
		return utils.SendError(c, fiber.StatusRequestEntityTooLarge, err.Error())
	case matchesAny(err, badRequestErrors):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrForbidden):
		return utils.SendError(c, fiber.StatusForbidden, err.Error())
	case matchesAny(err, notFoundErrors):
		return utils.SendError(c, fiber.StatusNotFound, err.Error())
	case matchesAny(err, conflictErrors):
		return utils.SendError(c, fiber.StatusConflict, err.Error())
	case service.IsScoringError(err):
		return utils.SendError(c, fiber.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, service.ErrUploadUnavailable), errors.Is(err, service.ErrJoinCodeExhausted):
		return utils.SendError(c, fiber.StatusServiceUnavailable, err.Error())
	default:
		requestLogger(logger, c).Error().Err(err).Msg("failed to " + action)
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to "+action)
	}
}

func matchesAny(err error, targets []error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
