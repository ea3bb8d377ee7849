package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/evidence-builder-api/internal/config"
	"github.com/noah-isme/evidence-builder-api/internal/handler"
	"github.com/noah-isme/evidence-builder-api/internal/middleware"
	"github.com/noah-isme/evidence-builder-api/internal/observability"
)

// Dependencies groups router dependencies for registration. Nil handlers
// leave their routes unregistered.
type Dependencies struct {
	SourceHandler   *handler.SourceHandler
	TaskHandler     *handler.TaskHandler
	QuizHandler     *handler.QuizHandler
	SessionHandler  *handler.SessionHandler
	ResultsHandler  *handler.ResultsHandler
	ActivityHandler *handler.ActivityHandler
	PlayHandler     *handler.PlayHandler
	JWTMiddleware   fiber.Handler
	PlayRateLimiter fiber.Handler
	HealthChecks    []handler.HealthDependency
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())

	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg, deps.HealthChecks...))

	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = middleware.JWTProtected(cfg.JWTSecret)
	}

	teacher := api.Group("/teacher", jwtMiddleware, middleware.RequireRole("teacher", "admin"))
	if deps.SourceHandler != nil {
		deps.SourceHandler.Register(teacher.Group("/sources"))
	}
	if deps.TaskHandler != nil {
		deps.TaskHandler.Register(teacher.Group("/tasks"))
	}
	if deps.QuizHandler != nil {
		deps.QuizHandler.Register(teacher.Group("/quizzes"))
	}
	if deps.SessionHandler != nil {
		deps.SessionHandler.Register(teacher.Group("/sessions"))
	}
	if deps.ResultsHandler != nil {
		deps.ResultsHandler.Register(teacher.Group("/results"))
	}
	if deps.ActivityHandler != nil {
		deps.ActivityHandler.Register(teacher.Group("/activity"))
	}

	// Students play anonymously by join code and name.
	if deps.PlayHandler != nil {
		limiter := deps.PlayRateLimiter
		if limiter == nil {
			limiter = middleware.RateLimit("play", cfg.PlayRateLimit, cfg.PlayRateWindow)
		}
		deps.PlayHandler.Register(api.Group("/play", limiter))
	}
}
