package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/evidence-builder-api/internal/config"
	"github.com/noah-isme/evidence-builder-api/internal/utils"
)

const healthCheckTimeout = 2 * time.Second

// HealthResponse represents the payload returned by the health endpoint.
type HealthResponse struct {
	Status       string            `json:"status"`
	Timestamp    time.Time         `json:"timestamp"`
	Service      string            `json:"service"`
	Environment  string            `json:"environment"`
	Dependencies map[string]string `json:"dependencies,omitempty"`
}

// HealthDependency is a backing service probed on every health request.
type HealthDependency struct {
	Name  string
	Check func(ctx context.Context) error
}

// HealthCheck reports service health. Any failing dependency turns the
// status into "degraded" with a 503.
func HealthCheck(cfg config.Config, deps ...HealthDependency) fiber.Handler {
	return func(c *fiber.Ctx) error {
		payload := HealthResponse{
			Status:      "ok",
			Timestamp:   time.Now().UTC(),
			Service:     cfg.AppName,
			Environment: cfg.AppEnv,
		}

		if len(deps) > 0 {
			payload.Dependencies = make(map[string]string, len(deps))
		}
		for _, dep := range deps {
			ctx, cancel := context.WithTimeout(c.UserContext(), healthCheckTimeout)
			err := dep.Check(ctx)
			cancel()
			if err != nil {
				payload.Status = "degraded"
				payload.Dependencies[dep.Name] = err.Error()
				continue
			}
			payload.Dependencies[dep.Name] = "ok"
		}

		if payload.Status != "ok" {
			return c.Status(fiber.StatusServiceUnavailable).JSON(utils.APIResponse{
				Success: false,
				Message: "service degraded",
				Data:    payload,
			})
		}
		return utils.SendSuccess(c, "service healthy", payload)
	}
}
