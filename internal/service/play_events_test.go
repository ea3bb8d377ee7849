package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/evidence-builder-api/internal/models"
)

func TestPlayEventPublisherRedis(t *testing.T) {
	_, client := newTestRedis(t)
	ctx := context.Background()

	sub := client.Subscribe(ctx, "evidence:plays")
	t.Cleanup(func() { _ = sub.Close() })
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	publisher := NewPlayEventPublisher(client, "evidence", nil, testLogger())
	play := models.Play{SessionID: 4, QuizQuestionID: 12, StudentName: "Ada", Mode: "highlight", Score: 75, CreatedAt: time.Now()}
	play.ID = 31
	require.NoError(t, publisher.Publish(ctx, play))

	select {
	case msg := <-sub.Channel():
		var event PlayEvent
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &event))
		require.Equal(t, PlayRecordedEvent, event.Type)
		require.Equal(t, uint(31), event.PlayID)
		require.Equal(t, uint(12), event.QuestionID)
		require.Equal(t, 75, event.Score)
		require.False(t, event.Correct)
		require.NotEmpty(t, event.Source)
	case <-time.After(2 * time.Second):
		t.Fatal("play event not received")
	}
}

func TestPlayEventPublisherWithoutBrokers(t *testing.T) {
	publisher := NewPlayEventPublisher(nil, "evidence", nil, testLogger())
	require.NoError(t, publisher.Publish(context.Background(), models.Play{}))
}
