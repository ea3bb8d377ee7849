package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/evidence-builder-api/internal/observability"
)

func TestObservabilityCountsByRouteTemplate(t *testing.T) {
	app := fiber.New()
	app.Use(Observability(zerolog.Nop()))
	app.Get("/api/v1/teacher/sessions/:id", func(c *fiber.Ctx) error {
		if c.Params("id") == "0" {
			return fiber.ErrBadRequest
		}
		return c.SendStatus(fiber.StatusOK)
	})
	app.Get("/internal", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	route := "/api/v1/teacher/sessions/:id"
	okBefore := testutil.ToFloat64(observability.HTTPRequests().WithLabelValues(http.MethodGet, route, "200"))
	errBefore := testutil.ToFloat64(observability.HTTPErrors().WithLabelValues(http.MethodGet, route, "400"))

	for _, path := range []string{"/api/v1/teacher/sessions/4", "/api/v1/teacher/sessions/9", "/api/v1/teacher/sessions/0", "/internal"} {
		_, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil), -1)
		require.NoError(t, err)
	}

	require.Equal(t, okBefore+2, testutil.ToFloat64(observability.HTTPRequests().WithLabelValues(http.MethodGet, route, "200")))
	require.Equal(t, errBefore+1, testutil.ToFloat64(observability.HTTPErrors().WithLabelValues(http.MethodGet, route, "400")))
}

func TestLatencyBucket(t *testing.T) {
	require.Equal(t, "<=25ms", latencyBucket(0))
	require.Equal(t, ">500ms", latencyBucket(2*1e9))
}
