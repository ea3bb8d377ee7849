package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/evidence-builder-api/internal/models"
	"github.com/noah-isme/evidence-builder-api/internal/observability"
)

// PlayRecordedEvent is the event type emitted once per stored play.
const PlayRecordedEvent = "play.recorded"

// PlayEvent announces a scored answer to downstream consumers.
type PlayEvent struct {
	Type        string    `json:"type"`
	Source      string    `json:"source"`
	PlayID      uint      `json:"play_id"`
	SessionID   uint      `json:"session_id"`
	QuestionID  uint      `json:"question_id"`
	StudentName string    `json:"student_name"`
	Mode        string    `json:"mode"`
	Score       int       `json:"score"`
	Correct     bool      `json:"correct"`
	RecordedAt  time.Time `json:"recorded_at"`
}

// PlayEventPublisher fans play events out to the configured brokers.
type PlayEventPublisher interface {
	Publish(ctx context.Context, play models.Play) error
}

type playEventPublisher struct {
	redis        *redis.Client
	redisChannel string
	nats         *nats.Conn
	natsSubject  string
	logger       zerolog.Logger
	nodeID       string
}

// NewPlayEventPublisher constructs a publisher. Either broker may be nil; a
// publisher with neither is a no-op.
func NewPlayEventPublisher(redisClient *redis.Client, channelBase string, natsConn *nats.Conn, logger zerolog.Logger) PlayEventPublisher {
	channel := ""
	subject := ""
	if channelBase != "" {
		channel = channelBase + ":plays"
		subject = strings.ReplaceAll(channelBase, ":", ".") + ".plays"
	}

	return &playEventPublisher{
		redis:        redisClient,
		redisChannel: channel,
		nats:         natsConn,
		natsSubject:  subject,
		logger:       logger.With().Str("component", "play_events").Logger(),
		nodeID:       uuid.NewString(),
	}
}

func (p *playEventPublisher) Publish(ctx context.Context, play models.Play) error {
	event := PlayEvent{
		Type:        PlayRecordedEvent,
		Source:      p.nodeID,
		PlayID:      play.ID,
		SessionID:   play.SessionID,
		QuestionID:  play.QuizQuestionID,
		StudentName: play.StudentName,
		Mode:        play.Mode,
		Score:       play.Score,
		Correct:     play.Correct,
		RecordedAt:  play.CreatedAt.UTC(),
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	if p.redis != nil && p.redisChannel != "" {
		if err := p.redis.Publish(ctx, p.redisChannel, payload).Err(); err != nil {
			return err
		}
		observability.EventsPublished().WithLabelValues("redis").Inc()
	}

	if p.nats != nil && p.natsSubject != "" {
		if err := p.nats.Publish(p.natsSubject, payload); err != nil {
			return err
		}
		observability.EventsPublished().WithLabelValues("nats").Inc()
	}

	p.logger.Debug().Uint("play_id", play.ID).Uint("session_id", play.SessionID).Msg("play event published")
	return nil
}
