package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/evidence-builder-api/internal/config"
	"github.com/noah-isme/evidence-builder-api/internal/handler"
	"github.com/noah-isme/evidence-builder-api/internal/middleware"
	"github.com/noah-isme/evidence-builder-api/internal/models"
	"github.com/noah-isme/evidence-builder-api/internal/repository"
	"github.com/noah-isme/evidence-builder-api/internal/router"
	"github.com/noah-isme/evidence-builder-api/internal/service"
)

const passage = "The treaty was signed in 1648. It ended thirty years of war across Europe."

var pngHeader = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0x00, 0x00, 0x00, 0x0D, 0x49, 0x48, 0x44, 0x52}

type cdnStub struct{}

func (cdnStub) Upload(_ context.Context, name string, _ io.Reader) (string, error) {
	return "https://cdn.example.com/" + name, nil
}

// envelope mirrors utils.APIResponse with a typed payload.
type envelope[T any] struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    T               `json:"data"`
	Meta    json.RawMessage `json:"meta"`
	Details json.RawMessage `json:"details"`
}

// headerAuth stands in for JWTProtected: X-User-ID and X-User-Role default
// to teacher 7.
func headerAuth(c *fiber.Ctx) error {
	id := uint(7)
	if raw := c.Get("X-User-ID"); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return fiber.ErrUnauthorized
		}
		id = uint(parsed)
	}
	role := "teacher"
	if raw := c.Get("X-User-Role"); raw != "" {
		role = raw
	}
	c.Locals(middleware.LocalUserID, id)
	c.Locals(middleware.LocalUserRole, role)
	return c.Next()
}

func setupApp(t *testing.T) *fiber.App {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models.All()...))
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	validate := validator.New(validator.WithRequiredStructEnabled())
	logger := zerolog.New(io.Discard)

	sourceRepo := repository.NewSourceRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	quizRepo := repository.NewQuizRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	playRepo := repository.NewPlayRepository(db)

	activity := service.NewActivityService(repository.NewActivityLogRepository(db), logger)
	uploads := service.NewUploadService(cdnStub{}, repository.NewUploadRepository(db), 1, logger)
	results := service.NewResultsService(sessionRepo, quizRepo, playRepo, nil, 0, logger)
	play := service.NewPlayService(service.PlayDependencies{
		Sessions:  sessionRepo,
		Quizzes:   quizRepo,
		Sources:   sourceRepo,
		Plays:     playRepo,
		Results:   results,
		Events:    service.NewPlayEventPublisher(nil, "", nil, logger),
		Validator: validate,
	}, logger)

	app := fiber.New()
	router.Register(app, config.Config{AppName: "Test", JWTSecret: "secret", PlayRateLimit: 1000, PlayRateWindow: time.Minute}, router.Dependencies{
		SourceHandler:   handler.NewSourceHandler(service.NewSourceService(sourceRepo, validate, activity, logger), logger),
		TaskHandler:     handler.NewTaskHandler(service.NewTaskService(taskRepo, sourceRepo, uploads, validate, activity, logger), logger),
		QuizHandler:     handler.NewQuizHandler(service.NewQuizService(quizRepo, taskRepo, sourceRepo, validate, activity, logger), logger),
		SessionHandler:  handler.NewSessionHandler(service.NewSessionService(sessionRepo, quizRepo, validate, activity, logger), logger),
		ResultsHandler:  handler.NewResultsHandler(results, logger),
		ActivityHandler: handler.NewActivityHandler(activity, logger),
		PlayHandler:     handler.NewPlayHandler(play, logger),
		JWTMiddleware:   headerAuth,
	})
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body interface{}, headers ...string) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func doUpload(t *testing.T, app *fiber.App, path, name string, content []byte) *http.Response {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeResponse(t *testing.T, resp *http.Response, target interface{}) {
	t.Helper()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	require.NoError(t, json.Unmarshal(data, target))
}

func expectStatus(t *testing.T, resp *http.Response, status int) {
	t.Helper()
	if resp.StatusCode != status {
		body, _ := io.ReadAll(resp.Body)
		require.Equal(t, status, resp.StatusCode, string(body))
	}
}

func jsonUnmarshal(raw json.RawMessage, target interface{}) error {
	return json.Unmarshal(raw, target)
}
