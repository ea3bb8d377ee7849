package contract_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/evidence-builder-api/internal/dto"
	"github.com/noah-isme/evidence-builder-api/internal/handler"
	"github.com/noah-isme/evidence-builder-api/internal/scoring"
)

type stubPlayService struct {
	submit dto.SubmitResponse
}

func (s stubPlayService) Join(context.Context, dto.JoinRequest) (dto.JoinResponse, error) {
	return dto.JoinResponse{}, nil
}

func (s stubPlayService) ViewQuestion(context.Context, uint, uint) (dto.PlayQuestionResponse, error) {
	return dto.PlayQuestionResponse{}, nil
}

func (s stubPlayService) Preview(context.Context, uint, uint, dto.PreviewRequest) (dto.PreviewResponse, error) {
	return dto.PreviewResponse{}, nil
}

func (s stubPlayService) Submit(context.Context, uint, uint, dto.SubmitRequest) (dto.SubmitResponse, error) {
	return s.submit, nil
}

func compileSchema(t *testing.T, name string) *jsonschema.Schema {
	t.Helper()
	schemaPath, err := filepath.Abs(filepath.Join("..", "contracts", name))
	require.NoError(t, err)

	compiler := jsonschema.NewCompiler()
	compiler.AssertFormat = true
	schema, err := compiler.Compile("file://" + schemaPath)
	require.NoError(t, err)
	return schema
}

func validateBody(t *testing.T, schema *jsonschema.Schema, resp *http.Response) {
	t.Helper()
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var payload interface{}
	require.NoError(t, json.Unmarshal(body, &payload))
	require.NoError(t, schema.Validate(payload))
}

func TestSubmitAnswerContract(t *testing.T) {
	schema := compileSchema(t, "submit_answer.schema.json")
	text := "The treaty was signed in 1648."

	stub := stubPlayService{submit: dto.SubmitResponse{
		PlayID:      12,
		SessionID:   3,
		QuestionID:  4,
		StudentName: "Ada",
		Mode:        string(scoring.ModeHighlight),
		Score:       50,
		Review:      scoring.RenderHighlights(text, &scoring.TextRange{Start: 25, End: 27}, []scoring.TextRange{{Start: 25, End: 29}}, true),
		AnsweredAt:  time.Now().UTC(),
	}}

	app := fiber.New()
	handler.NewPlayHandler(stub, zerolog.Nop()).Register(app.Group("/api/v1/play"))

	payload, err := json.Marshal(dto.SubmitRequest{StudentName: "Ada", Range: &dto.RangePayload{Start: 25, End: 27}})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/play/sessions/3/questions/4/submit", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	validateBody(t, schema, resp)
}
