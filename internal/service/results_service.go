package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/evidence-builder-api/internal/dto"
	"github.com/noah-isme/evidence-builder-api/internal/models"
	"github.com/noah-isme/evidence-builder-api/internal/observability"
	"github.com/noah-isme/evidence-builder-api/internal/repository"
	"github.com/noah-isme/evidence-builder-api/internal/scoring"
)

const (
	defaultLeaderboardLimit = 10
	maxLeaderboardLimit     = 100

	summarySheet = "Summary"
	playsSheet   = "Plays"
)

// ResultsRecorder keeps derived results in step with newly stored plays.
type ResultsRecorder interface {
	RecordPlay(ctx context.Context, play models.Play)
}

// ResultsExport is a generated workbook ready for download.
type ResultsExport struct {
	FileName string
	Content  []byte
}

// ResultsService aggregates plays into the teacher results views.
type ResultsService interface {
	ResultsRecorder
	SessionResults(ctx context.Context, actor Actor, sessionID uint) (dto.SessionResultsResponse, error)
	ChallengeResults(ctx context.Context, actor Actor, sessionID uint) (dto.ChallengeResultsResponse, error)
	Leaderboard(ctx context.Context, actor Actor, sessionID uint, limit int) (dto.LeaderboardResponse, error)
	Export(ctx context.Context, actor Actor, sessionID uint) (ResultsExport, error)
	Invalidate(ctx context.Context, sessionID uint) error
}

type resultsService struct {
	sessions repository.SessionRepository
	quizzes  repository.QuizRepository
	plays    repository.PlayRepository
	cache    *redis.Client
	ttl      time.Duration
	logger   zerolog.Logger
	tracer   trace.Tracer
	now      func() time.Time
}

// NewResultsService constructs a results service. cache may be nil.
func NewResultsService(sessions repository.SessionRepository, quizzes repository.QuizRepository, plays repository.PlayRepository, cache *redis.Client, ttl time.Duration, logger zerolog.Logger) ResultsService {
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &resultsService{
		sessions: sessions,
		quizzes:  quizzes,
		plays:    plays,
		cache:    cache,
		ttl:      ttl,
		logger:   logger.With().Str("component", "results_service").Logger(),
		tracer:   observability.Tracer("service/results"),
		now:      time.Now,
	}
}

func (s *resultsService) SessionResults(ctx context.Context, actor Actor, sessionID uint) (dto.SessionResultsResponse, error) {
	session, err := s.loadSession(ctx, sessionID)
	if err != nil {
		return dto.SessionResultsResponse{}, err
	}
	if !actor.Owns(session.TeacherID) {
		return dto.SessionResultsResponse{}, ErrForbidden
	}

	if cached, ok := s.fetchCache(ctx, sessionID); ok {
		observability.ResultsCache().WithLabelValues("hit").Inc()
		return cached, nil
	}
	observability.ResultsCache().WithLabelValues("miss").Inc()

	ctx, span := s.tracer.Start(ctx, "results.session", trace.WithAttributes(attribute.Int("session.id", int(sessionID))))
	defer span.End()

	plays, err := s.plays.ListBySession(ctx, sessionID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "load plays failed")
		return dto.SessionResultsResponse{}, err
	}

	students, classAverage := summarizePlays(plays)
	result := dto.SessionResultsResponse{
		SessionID:    session.ID,
		QuizID:       session.QuizID,
		QuizTitle:    session.Quiz.Title,
		JoinCode:     session.JoinCode,
		StudentCount: len(students),
		TotalPlays:   len(plays),
		ClassAverage: classAverage,
		Students:     students,
		GeneratedAt:  s.now().UTC(),
	}
	span.SetAttributes(attribute.Int("results.plays", len(plays)), attribute.Int("results.students", len(students)))

	s.storeCache(ctx, sessionID, result)
	return result, nil
}

// ChallengeResults compares the challenge session with every session that
// accepted it. Sessions without plays report no average.
func (s *resultsService) ChallengeResults(ctx context.Context, actor Actor, sessionID uint) (dto.ChallengeResultsResponse, error) {
	challenge, err := s.loadSession(ctx, sessionID)
	if err != nil {
		return dto.ChallengeResultsResponse{}, err
	}
	if !challenge.IsChallenge {
		return dto.ChallengeResultsResponse{}, ErrNotChallenge
	}

	accepted, err := s.sessions.ListAccepted(ctx, challenge.ID)
	if err != nil {
		return dto.ChallengeResultsResponse{}, err
	}

	allowed := actor.Owns(challenge.TeacherID)
	ids := []uint{challenge.ID}
	for _, session := range accepted {
		ids = append(ids, session.ID)
		allowed = allowed || actor.Owns(session.TeacherID)
	}
	if !allowed {
		return dto.ChallengeResultsResponse{}, ErrForbidden
	}

	ctx, span := s.tracer.Start(ctx, "results.challenge", trace.WithAttributes(
		attribute.Int("session.id", int(challenge.ID)),
		attribute.Int("challenge.sessions", len(ids)),
	))
	defer span.End()

	plays, err := s.plays.ListBySessions(ctx, ids)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "load plays failed")
		return dto.ChallengeResultsResponse{}, err
	}
	bySession := make(map[uint][]models.Play, len(ids))
	for _, play := range plays {
		bySession[play.SessionID] = append(bySession[play.SessionID], play)
	}

	entries := make([]dto.ChallengeEntry, 0, len(ids))
	for _, session := range append([]models.Session{challenge}, accepted...) {
		sessionPlays := bySession[session.ID]
		students, average := summarizePlays(sessionPlays)
		entries = append(entries, dto.ChallengeEntry{
			SessionID:    session.ID,
			JoinCode:     session.JoinCode,
			Original:     session.ID == challenge.ID,
			StartedAt:    session.StartedAt,
			StudentCount: len(students),
			TotalPlays:   len(sessionPlays),
			Average:      average,
		})
	}

	return dto.ChallengeResultsResponse{
		ChallengeSessionID: challenge.ID,
		ChallengeName:      challenge.ChallengeName,
		QuizID:             challenge.QuizID,
		Entries:            entries,
	}, nil
}

// Leaderboard returns running totals, best first. The Redis sorted set is
// rebuilt from stored plays when it is missing or expired.
func (s *resultsService) Leaderboard(ctx context.Context, actor Actor, sessionID uint, limit int) (dto.LeaderboardResponse, error) {
	session, err := s.loadSession(ctx, sessionID)
	if err != nil {
		return dto.LeaderboardResponse{}, err
	}
	if !actor.Owns(session.TeacherID) {
		return dto.LeaderboardResponse{}, ErrForbidden
	}
	if limit <= 0 {
		limit = defaultLeaderboardLimit
	}
	if limit > maxLeaderboardLimit {
		limit = maxLeaderboardLimit
	}

	totals, err := s.leaderboardTotals(ctx, sessionID, limit)
	if err != nil {
		return dto.LeaderboardResponse{}, err
	}

	entries := make([]dto.LeaderboardEntry, 0, len(totals))
	for i, total := range totals {
		rank := i + 1
		if i > 0 && total.TotalScore == totals[i-1].TotalScore {
			rank = entries[i-1].Rank
		}
		entries = append(entries, dto.LeaderboardEntry{Rank: rank, StudentName: total.StudentName, TotalScore: total.TotalScore})
	}
	return dto.LeaderboardResponse{SessionID: sessionID, Entries: entries}, nil
}

// Export renders the session results as an xlsx workbook.
func (s *resultsService) Export(ctx context.Context, actor Actor, sessionID uint) (ResultsExport, error) {
	results, err := s.SessionResults(ctx, actor, sessionID)
	if err != nil {
		return ResultsExport{}, err
	}

	orders := map[uint]int{}
	quiz, err := s.quizzes.GetByID(ctx, results.QuizID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return ResultsExport{}, err
	}
	for _, question := range quiz.Questions {
		orders[question.ID] = question.OrderNum
	}

	content, err := buildResultsWorkbook(results, orders)
	if err != nil {
		return ResultsExport{}, err
	}
	return ResultsExport{
		FileName: fmt.Sprintf("session-%s-results.xlsx", results.JoinCode),
		Content:  content,
	}, nil
}

func (s *resultsService) Invalidate(ctx context.Context, sessionID uint) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Del(ctx, resultsCacheKey(sessionID), leaderboardKey(sessionID)).Err()
}

// incrementExisting adds to a member only while the sorted set exists, so a
// set lost to eviction or a restart is never recreated with partial totals.
var incrementExisting = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 1 then
	redis.call("ZINCRBY", KEYS[1], ARGV[1], ARGV[2])
	return 1
end
return 0
`)

// RecordPlay drops the cached results and adds the score to the running
// total. A missing leaderboard is left for the next read to rebuild.
// Failures only leave derived data stale, so they are logged.
func (s *resultsService) RecordPlay(ctx context.Context, play models.Play) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, resultsCacheKey(play.SessionID)).Err(); err != nil {
		s.logger.Warn().Err(err).Uint("session_id", play.SessionID).Msg("failed to drop cached results")
	}
	key := leaderboardKey(play.SessionID)
	if err := incrementExisting.Run(ctx, s.cache, []string{key}, play.Score, play.StudentName).Err(); err != nil {
		s.logger.Warn().Err(err).Uint("session_id", play.SessionID).Msg("failed to update leaderboard")
	}
}

type studentTotal struct {
	StudentName string
	TotalScore  int
}

func (s *resultsService) leaderboardTotals(ctx context.Context, sessionID uint, limit int) ([]studentTotal, error) {
	if s.cache != nil {
		key := leaderboardKey(sessionID)
		count, err := s.cache.ZCard(ctx, key).Result()
		if err != nil {
			s.logger.Warn().Err(err).Msg("failed to read leaderboard size")
		} else if count > 0 {
			zs, err := s.cache.ZRevRangeWithScores(ctx, key, 0, int64(limit-1)).Result()
			if err == nil {
				totals := make([]studentTotal, 0, len(zs))
				for _, z := range zs {
					totals = append(totals, studentTotal{StudentName: fmt.Sprintf("%v", z.Member), TotalScore: int(z.Score)})
				}
				sortTotals(totals)
				return totals, nil
			}
			s.logger.Warn().Err(err).Msg("failed to read leaderboard")
		}
	}

	plays, err := s.plays.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	sums := map[string]int{}
	for _, play := range plays {
		sums[play.StudentName] += play.Score
	}
	totals := make([]studentTotal, 0, len(sums))
	for name, total := range sums {
		totals = append(totals, studentTotal{StudentName: name, TotalScore: total})
	}
	sortTotals(totals)
	s.seedLeaderboard(ctx, sessionID, totals)

	if len(totals) > limit {
		totals = totals[:limit]
	}
	return totals, nil
}

// seedLeaderboard writes absolute totals. The set expires one results TTL
// after seeding and increments do not extend it, so a play counted twice or
// missed by a concurrent rebuild is corrected at the next rebuild.
func (s *resultsService) seedLeaderboard(ctx context.Context, sessionID uint, totals []studentTotal) {
	if s.cache == nil || len(totals) == 0 {
		return
	}
	members := make([]redis.Z, 0, len(totals))
	for _, total := range totals {
		members = append(members, redis.Z{Score: float64(total.TotalScore), Member: total.StudentName})
	}
	key := leaderboardKey(sessionID)
	pipe := s.cache.TxPipeline()
	pipe.ZAdd(ctx, key, members...)
	pipe.Expire(ctx, key, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("failed to seed leaderboard")
	}
}

func (s *resultsService) loadSession(ctx context.Context, id uint) (models.Session, error) {
	session, err := s.sessions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Session{}, ErrSessionNotFound
		}
		return models.Session{}, err
	}
	return session, nil
}

func (s *resultsService) fetchCache(ctx context.Context, sessionID uint) (dto.SessionResultsResponse, bool) {
	if s.cache == nil {
		return dto.SessionResultsResponse{}, false
	}
	payload, err := s.cache.Get(ctx, resultsCacheKey(sessionID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn().Err(err).Msg("failed to read results cache")
		}
		return dto.SessionResultsResponse{}, false
	}

	var result dto.SessionResultsResponse
	if err := json.Unmarshal(payload, &result); err != nil {
		s.logger.Warn().Err(err).Msg("failed to decode results cache")
		return dto.SessionResultsResponse{}, false
	}
	return result, true
}

func (s *resultsService) storeCache(ctx context.Context, sessionID uint, result dto.SessionResultsResponse) {
	if s.cache == nil {
		return
	}
	payload, err := json.Marshal(result)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to encode results cache")
		return
	}
	if err := s.cache.Set(ctx, resultsCacheKey(sessionID), payload, s.ttl).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to store results cache")
	}
}

// summarizePlays groups plays per student, sorted by name. The class
// average is the mean of unrounded per-student means, rounded once, and is
// nil when no student has played.
func summarizePlays(plays []models.Play) ([]dto.StudentResult, *int) {
	byStudent := map[string]*dto.StudentResult{}
	scores := map[string][]int{}
	for _, play := range plays {
		result, ok := byStudent[play.StudentName]
		if !ok {
			result = &dto.StudentResult{StudentName: play.StudentName, Plays: []dto.PlayResult{}}
			byStudent[play.StudentName] = result
		}
		result.QuestionsAnswered++
		result.TotalScore += play.Score
		if play.Correct {
			result.CorrectCount++
		}
		result.Plays = append(result.Plays, dto.PlayResult{
			PlayID:     play.ID,
			QuestionID: play.QuizQuestionID,
			Mode:       play.Mode,
			Score:      play.Score,
			Correct:    play.Correct,
			AnsweredAt: play.CreatedAt,
		})
		scores[play.StudentName] = append(scores[play.StudentName], play.Score)
	}

	students := make([]dto.StudentResult, 0, len(byStudent))
	means := make([]float64, 0, len(byStudent))
	for name, result := range byStudent {
		mean, _ := scoring.Mean(scores[name])
		result.AverageScore = scoring.RoundScore(mean)
		means = append(means, mean)
		students = append(students, *result)
	}
	sort.Slice(students, func(i, j int) bool {
		return students[i].StudentName < students[j].StudentName
	})

	if len(means) == 0 {
		return students, nil
	}
	total := 0.0
	for _, mean := range means {
		total += mean
	}
	classAverage := scoring.RoundScore(total / float64(len(means)))
	return students, &classAverage
}

func sortTotals(totals []studentTotal) {
	sort.Slice(totals, func(i, j int) bool {
		if totals[i].TotalScore == totals[j].TotalScore {
			return totals[i].StudentName < totals[j].StudentName
		}
		return totals[i].TotalScore > totals[j].TotalScore
	})
}

func buildResultsWorkbook(results dto.SessionResultsResponse, orders map[uint]int) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, err
	}
	if err := writeRow(f, summarySheet, 1, "Student", "Answered", "Correct", "Total", "Average"); err != nil {
		return nil, err
	}
	row := 2
	for _, student := range results.Students {
		if err := writeRow(f, summarySheet, row, student.StudentName, student.QuestionsAnswered, student.CorrectCount, student.TotalScore, student.AverageScore); err != nil {
			return nil, err
		}
		row++
	}
	var classAverage interface{} = ""
	if results.ClassAverage != nil {
		classAverage = *results.ClassAverage
	}
	if err := writeRow(f, summarySheet, row, "Class average", "", "", "", classAverage); err != nil {
		return nil, err
	}

	if _, err := f.NewSheet(playsSheet); err != nil {
		return nil, err
	}
	if err := writeRow(f, playsSheet, 1, "Student", "Question", "Mode", "Score", "Correct", "Answered at"); err != nil {
		return nil, err
	}
	row = 2
	for _, student := range results.Students {
		for _, play := range student.Plays {
			order := orders[play.QuestionID]
			if err := writeRow(f, playsSheet, row, student.StudentName, order, play.Mode, play.Score, play.Correct, play.AnsweredAt.UTC().Format(time.RFC3339)); err != nil {
				return nil, err
			}
			row++
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeRow(f *excelize.File, sheet string, row int, values ...interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}

func resultsCacheKey(sessionID uint) string {
	return fmt.Sprintf("results:session:%d", sessionID)
}

func leaderboardKey(sessionID uint) string {
	return fmt.Sprintf("leaderboard:session:%d", sessionID)
}
