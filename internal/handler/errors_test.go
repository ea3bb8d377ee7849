package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/evidence-builder-api/internal/scoring"
	"github.com/noah-isme/evidence-builder-api/internal/service"
	"github.com/noah-isme/evidence-builder-api/internal/utils"
)

type joinPayload struct {
	Code string `validate:"required,len=6"`
}

func TestHandleErrorMapping(t *testing.T) {
	validationErr := validator.New(validator.WithRequiredStructEnabled()).Struct(joinPayload{Code: "abc"})
	require.Error(t, validationErr)

	cases := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"validation", validationErr, fiber.StatusBadRequest, "validation failed"},
		{"invalid task", fmt.Errorf("%w: needs two choices", service.ErrInvalidTask), fiber.StatusBadRequest, ""},
		{"blank student", service.ErrStudentNameRequired, fiber.StatusBadRequest, ""},
		{"upload too large", service.ErrUploadTooLarge, fiber.StatusRequestEntityTooLarge, ""},
		{"forbidden", service.ErrForbidden, fiber.StatusForbidden, ""},
		{"missing quiz", service.ErrQuizNotFound, fiber.StatusNotFound, ""},
		{"missing question", service.ErrQuestionNotFound, fiber.StatusNotFound, ""},
		{"answered", service.ErrAlreadyAnswered, fiber.StatusConflict, ""},
		{"not challenge", service.ErrNotChallenge, fiber.StatusConflict, ""},
		{"malformed", fmt.Errorf("%w: bad range", scoring.ErrMalformedSubmission), fiber.StatusUnprocessableEntity, ""},
		{"bad reference", scoring.ErrInvalidReference, fiber.StatusUnprocessableEntity, ""},
		{"storage off", service.ErrUploadUnavailable, fiber.StatusServiceUnavailable, ""},
		{"codes exhausted", service.ErrJoinCodeExhausted, fiber.StatusServiceUnavailable, ""},
		{"unknown", errors.New("connection reset"), fiber.StatusInternalServerError, "failed to load thing"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/", func(c *fiber.Ctx) error {
				return handleError(c, zerolog.New(io.Discard), tc.err, "load thing")
			})

			resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/", nil), -1)
			require.NoError(t, err)
			require.Equal(t, tc.status, resp.StatusCode)

			var body utils.APIResponse
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			require.False(t, body.Success)
			if tc.message != "" {
				require.Equal(t, tc.message, body.Message)
			}
		})
	}
}

func TestHandleErrorValidationDetails(t *testing.T) {
	err := validator.New(validator.WithRequiredStructEnabled()).Struct(joinPayload{})
	details := validationDetails(err)
	require.Equal(t, []fieldError{{Field: "joinPayload.Code", Rule: "required"}}, details)
	require.Nil(t, validationDetails(errors.New("plain")))
}
