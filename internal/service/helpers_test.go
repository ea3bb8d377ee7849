package service

import (
	"context"
	"fmt"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/evidence-builder-api/internal/dto"
	"github.com/noah-isme/evidence-builder-api/internal/models"
	"github.com/noah-isme/evidence-builder-api/internal/repository"
)

var (
	teacher      = Actor{ID: 7, Role: "teacher"}
	otherTeacher = Actor{ID: 8, Role: "teacher"}
	admin        = Actor{ID: 1, Role: "admin"}
)

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

func testValidator() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models.All()...))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	server, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(server.Close)

	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return server, client
}

type stubActivityRecorder struct {
	entries []ActivityEntry
}

func (s *stubActivityRecorder) Record(_ context.Context, entry ActivityEntry) (dto.ActivityResponse, error) {
	s.entries = append(s.entries, entry)
	return dto.ActivityResponse{Action: entry.Action, EntityType: entry.EntityType, EntityID: entry.EntityID}, nil
}

func (s *stubActivityRecorder) actions() []string {
	actions := make([]string, 0, len(s.entries))
	for _, entry := range s.entries {
		actions = append(actions, entry.Action)
	}
	return actions
}

// fixture wires every service over one in-memory database.
type fixture struct {
	db       *gorm.DB
	redis    *redis.Client
	mini     *miniredis.Miniredis
	activity *stubActivityRecorder
	sources  SourceService
	tasks    TaskService
	quizzes  QuizService
	sessions SessionService
	results  ResultsService
	play     PlayService
}

func newFixture(t *testing.T, withRedis bool) *fixture {
	t.Helper()

	db := newTestDB(t)
	f := &fixture{db: db, activity: &stubActivityRecorder{}}
	if withRedis {
		f.mini, f.redis = newTestRedis(t)
	}

	validate := testValidator()
	sourceRepo := repository.NewSourceRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	quizRepo := repository.NewQuizRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	playRepo := repository.NewPlayRepository(db)

	var views ViewStore
	if f.redis != nil {
		views = NewRedisViewStore(f.redis)
	}

	f.sources = NewSourceService(sourceRepo, validate, f.activity, testLogger())
	f.tasks = NewTaskService(taskRepo, sourceRepo, nil, validate, f.activity, testLogger())
	f.quizzes = NewQuizService(quizRepo, taskRepo, sourceRepo, validate, f.activity, testLogger())
	f.sessions = NewSessionService(sessionRepo, quizRepo, validate, f.activity, testLogger())
	f.results = NewResultsService(sessionRepo, quizRepo, playRepo, f.redis, 0, testLogger())
	f.play = NewPlayService(PlayDependencies{
		Sessions:  sessionRepo,
		Quizzes:   quizRepo,
		Sources:   sourceRepo,
		Plays:     playRepo,
		Views:     views,
		Results:   f.results,
		Events:    NewPlayEventPublisher(f.redis, "evidence", nil, testLogger()),
		Validator: validate,
	}, testLogger())
	return f
}

const passage = "The treaty was signed in 1648. It ended thirty years of war across Europe."

func intPtr(v int) *int { return &v }

func ptrUint(v uint) *uint { return &v }

// mixedQuiz creates a quiz with one question per mode and starts a session.
func (f *fixture) mixedQuiz(t *testing.T) (dto.QuizResponse, dto.SessionResponse) {
	t.Helper()
	ctx := context.Background()

	quiz, err := f.quizzes.Create(ctx, teacher, dto.QuizCreateRequest{
		Title: "Peace of Westphalia",
		Questions: []dto.TaskCreateRequest{
			{
				Mode:    "highlight",
				Content: passage,
				Prompt:  "Highlight when the treaty was signed.",
				Ranges:  []dto.RangePayload{{Start: 25, End: 29}},
			},
			{
				Mode:         "multiple-choice",
				Content:      "Where was the treaty signed?",
				Prompt:       "Pick one.",
				Choices:      []string{"Paris", "Münster", "Rome", "Vienna"},
				CorrectIndex: intPtr(1),
			},
			{
				Mode:     "evidence-hunter",
				Prompt:   "Click the seal.",
				ImageURL: "https://cdn.example.com/treaty.png",
				Target:   &dto.TargetPayload{X: 50, Y: 50, Radius: 10},
			},
		},
	})
	require.NoError(t, err)

	session, err := f.sessions.Start(ctx, teacher, dto.SessionCreateRequest{QuizID: quiz.ID})
	require.NoError(t, err)
	return quiz, session
}
