package handler_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/evidence-builder-api/internal/dto"
)

func createMixedQuiz(t *testing.T, app *fiber.App) dto.QuizResponse {
	t.Helper()

	resp := doJSON(t, app, http.MethodPost, "/api/v1/teacher/sources", dto.SourceCreateRequest{
		Title:       "Peace of Westphalia",
		TextContent: passage,
	})
	expectStatus(t, resp, fiber.StatusCreated)
	var source envelope[dto.SourceResponse]
	decodeResponse(t, resp, &source)

	resp = doJSON(t, app, http.MethodPut, fmt.Sprintf("/api/v1/teacher/sources/%d/highlights", source.Data.ID), dto.SourceHighlightsRequest{
		Highlights: []dto.RangePayload{{Start: 29, End: 25}},
	})
	expectStatus(t, resp, fiber.StatusOK)

	resp = doJSON(t, app, http.MethodPost, "/api/v1/teacher/tasks", dto.TaskCreateRequest{
		Mode:     "highlight",
		SourceID: &source.Data.ID,
		Prompt:   "Highlight when the treaty was signed.",
	})
	expectStatus(t, resp, fiber.StatusCreated)
	var task envelope[dto.TaskResponse]
	decodeResponse(t, resp, &task)

	correct := 1
	resp = doJSON(t, app, http.MethodPost, "/api/v1/teacher/quizzes", dto.QuizCreateRequest{
		Title: "Treaties",
		Questions: []dto.TaskCreateRequest{
			{
				Mode:         "multiple-choice",
				Content:      "Where was the treaty signed?",
				Prompt:       "Pick one.",
				Choices:      []string{"Paris", "Münster", "Rome", "Vienna"},
				CorrectIndex: &correct,
			},
			{
				Mode:     "evidence-hunter",
				Prompt:   "Click the seal.",
				ImageURL: "https://cdn.example.com/treaty.png",
				Target:   &dto.TargetPayload{X: 50, Y: 50, Radius: 10},
			},
		},
		TaskIDs: []uint{task.Data.ID},
	})
	expectStatus(t, resp, fiber.StatusCreated)
	var quiz envelope[dto.QuizResponse]
	decodeResponse(t, resp, &quiz)
	return quiz.Data
}

func startSession(t *testing.T, app *fiber.App, quizID uint) dto.SessionResponse {
	t.Helper()
	resp := doJSON(t, app, http.MethodPost, "/api/v1/teacher/sessions", dto.SessionCreateRequest{QuizID: quizID})
	expectStatus(t, resp, fiber.StatusCreated)
	var session envelope[dto.SessionResponse]
	decodeResponse(t, resp, &session)
	return session.Data
}

func TestAuthoringFlow(t *testing.T) {
	app := setupApp(t)
	quiz := createMixedQuiz(t, app)

	require.Equal(t, 3, quiz.QuestionCount)
	require.Equal(t, "multiple-choice", quiz.Questions[0].Task.Mode)
	require.Equal(t, "Münster", quiz.Questions[0].Task.CorrectAnswer.Value)
	require.Equal(t, "highlight", quiz.Questions[2].Task.Mode)
	require.NotNil(t, quiz.Questions[2].Task.SourceID)
	require.Equal(t, passage, quiz.Questions[2].Task.Content)
	require.Empty(t, quiz.Questions[2].Task.CorrectAnswer.Ranges)

	resp := doJSON(t, app, http.MethodGet, fmt.Sprintf("/api/v1/teacher/quizzes/%d", quiz.ID), nil)
	expectStatus(t, resp, fiber.StatusOK)

	resp = doJSON(t, app, http.MethodGet, "/api/v1/teacher/quizzes", nil)
	expectStatus(t, resp, fiber.StatusOK)
	var list envelope[[]dto.QuizSummaryResponse]
	decodeResponse(t, resp, &list)
	require.Len(t, list.Data, 1)
	require.JSONEq(t, `{"count":1}`, string(list.Meta))

	resp = doJSON(t, app, http.MethodGet, "/api/v1/teacher/tasks?mode=highlight", nil)
	expectStatus(t, resp, fiber.StatusOK)
	var tasks envelope[[]dto.TaskResponse]
	decodeResponse(t, resp, &tasks)
	require.Len(t, tasks.Data, 1)

	session := startSession(t, app, quiz.ID)
	require.Len(t, session.JoinCode, 6)

	resp = doJSON(t, app, http.MethodGet, "/api/v1/teacher/sessions", nil)
	expectStatus(t, resp, fiber.StatusOK)
	var sessions envelope[[]dto.SessionResponse]
	decodeResponse(t, resp, &sessions)
	require.Len(t, sessions.Data, 1)
	require.Equal(t, session.ID, sessions.Data[0].ID)

	resp = doJSON(t, app, http.MethodGet, "/api/v1/teacher/activity?pageSize=2", nil)
	expectStatus(t, resp, fiber.StatusOK)
	var activity envelope[[]dto.ActivityResponse]
	decodeResponse(t, resp, &activity)
	require.Len(t, activity.Data, 2)
	var meta dto.PaginationMeta
	require.NoError(t, jsonUnmarshal(activity.Meta, &meta))
	require.Equal(t, 2, meta.PageSize)
	require.Greater(t, meta.TotalItems, int64(2))
}

func TestAuthoringValidationErrors(t *testing.T) {
	app := setupApp(t)

	resp := doJSON(t, app, http.MethodPost, "/api/v1/teacher/tasks", dto.TaskCreateRequest{Mode: "essay", Prompt: "Write."})
	expectStatus(t, resp, fiber.StatusBadRequest)
	var body envelope[any]
	decodeResponse(t, resp, &body)
	require.False(t, body.Success)
	require.Equal(t, "validation failed", body.Message)
	require.Contains(t, string(body.Details), `"rule":"oneof"`)

	resp = doJSON(t, app, http.MethodPost, "/api/v1/teacher/tasks", dto.TaskCreateRequest{
		Mode: "multiple-choice", Prompt: "Pick.", Choices: []string{"Only"},
	})
	expectStatus(t, resp, fiber.StatusBadRequest)

	resp = doJSON(t, app, http.MethodPost, "/api/v1/teacher/quizzes", dto.QuizCreateRequest{Title: "Empty"})
	expectStatus(t, resp, fiber.StatusBadRequest)

	resp = doJSON(t, app, http.MethodGet, "/api/v1/teacher/sources/abc", nil)
	expectStatus(t, resp, fiber.StatusBadRequest)

	resp = doJSON(t, app, http.MethodGet, "/api/v1/teacher/sources/404", nil)
	expectStatus(t, resp, fiber.StatusNotFound)

	resp = doJSON(t, app, http.MethodPost, "/api/v1/teacher/sources", dto.SourceCreateRequest{Title: "Tags", TextContent: "<script>x</script>"})
	expectStatus(t, resp, fiber.StatusBadRequest)
}

func TestAuthoringOwnershipAndRoles(t *testing.T) {
	app := setupApp(t)
	quiz := createMixedQuiz(t, app)

	resp := doJSON(t, app, http.MethodGet, fmt.Sprintf("/api/v1/teacher/quizzes/%d", quiz.ID), nil, "X-User-ID", "8")
	expectStatus(t, resp, fiber.StatusForbidden)

	resp = doJSON(t, app, http.MethodGet, fmt.Sprintf("/api/v1/teacher/quizzes/%d", quiz.ID), nil, "X-User-ID", "1", "X-User-Role", "admin")
	expectStatus(t, resp, fiber.StatusOK)

	resp = doJSON(t, app, http.MethodGet, "/api/v1/teacher/quizzes", nil, "X-User-Role", "student")
	expectStatus(t, resp, fiber.StatusForbidden)
}

func TestTaskImageUpload(t *testing.T) {
	app := setupApp(t)

	resp := doUpload(t, app, "/api/v1/teacher/tasks/images", "Seal.png", pngHeader)
	expectStatus(t, resp, fiber.StatusCreated)
	var first envelope[dto.UploadResponse]
	decodeResponse(t, resp, &first)
	require.Equal(t, "image/png", first.Data.MimeType)
	require.False(t, first.Data.Reused)

	resp = doUpload(t, app, "/api/v1/teacher/tasks/images", "again.png", pngHeader)
	expectStatus(t, resp, fiber.StatusOK)
	var second envelope[dto.UploadResponse]
	decodeResponse(t, resp, &second)
	require.True(t, second.Data.Reused)
	require.Equal(t, first.Data.URL, second.Data.URL)

	resp = doUpload(t, app, "/api/v1/teacher/tasks/images", "notes.txt", []byte("just text"))
	expectStatus(t, resp, fiber.StatusBadRequest)

	resp = doJSON(t, app, http.MethodPost, "/api/v1/teacher/tasks/images", nil)
	expectStatus(t, resp, fiber.StatusBadRequest)
}

func TestChallengeEndpoints(t *testing.T) {
	app := setupApp(t)
	quiz := createMixedQuiz(t, app)
	session := startSession(t, app, quiz.ID)

	resp := doJSON(t, app, http.MethodPost, fmt.Sprintf("/api/v1/teacher/sessions/challenges/%d/accept", session.ID), nil, "X-User-ID", "8")
	expectStatus(t, resp, fiber.StatusConflict)

	resp = doJSON(t, app, http.MethodPost, fmt.Sprintf("/api/v1/teacher/sessions/%d/challenge", session.ID), nil)
	expectStatus(t, resp, fiber.StatusOK)
	var shared envelope[dto.SessionResponse]
	decodeResponse(t, resp, &shared)
	require.True(t, shared.Data.IsChallenge)
	require.Equal(t, "Treaties Challenge", shared.Data.ChallengeName)

	resp = doJSON(t, app, http.MethodPost, fmt.Sprintf("/api/v1/teacher/sessions/challenges/%d/accept", session.ID), nil, "X-User-ID", "8")
	expectStatus(t, resp, fiber.StatusCreated)
	var accepted envelope[dto.SessionResponse]
	decodeResponse(t, resp, &accepted)
	require.Equal(t, uint(8), accepted.Data.TeacherID)

	resp = doJSON(t, app, http.MethodGet, fmt.Sprintf("/api/v1/teacher/results/challenges/%d", session.ID), nil, "X-User-ID", "8")
	expectStatus(t, resp, fiber.StatusOK)
	var results envelope[dto.ChallengeResultsResponse]
	decodeResponse(t, resp, &results)
	require.Len(t, results.Data.Entries, 2)
	require.Nil(t, results.Data.Entries[1].Average)
}
