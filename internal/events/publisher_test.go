package events

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestWatermillEventPublisher_Publish(t *testing.T) {
	ctx := context.Background()
	pubSub := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 1}, watermill.NopLogger{})
	defer pubSub.Close()

	messages, err := pubSub.Subscribe(ctx, "learning-events")
	require.NoError(t, err)

	publisher := NewWatermillEventPublisher(pubSub, "learning-events", discardLogger())
	event := NewLearningEvent(EventExamSubmitted, "learner-1", "go-101", ExamSubmittedEvent{
		SessionID: "s1",
		Score:     80,
		Passed:    true,
		Reason:    "manual",
	})
	require.NoError(t, publisher.Publish(ctx, event))

	select {
	case msg := <-messages:
		msg.Ack()
		assert.Equal(t, event.ID, msg.UUID)
		assert.Equal(t, string(EventExamSubmitted), msg.Metadata.Get("event_type"))
		assert.Equal(t, "learner-1", msg.Metadata.Get("partition_key"))

		var decoded struct {
			Type     EventType          `json:"type"`
			CourseID string             `json:"course_id"`
			Data     ExamSubmittedEvent `json:"data"`
		}
		require.NoError(t, json.Unmarshal(msg.Payload, &decoded))
		assert.Equal(t, EventExamSubmitted, decoded.Type)
		assert.Equal(t, "go-101", decoded.CourseID)
		assert.Equal(t, 80, decoded.Data.Score)
	case <-time.After(time.Second):
		t.Fatal("no message received")
	}
}

func TestMockEventPublisher(t *testing.T) {
	m := NewMockEventPublisher(discardLogger())
	ctx := context.Background()

	require.NoError(t, m.Publish(ctx, NewLearningEvent(EventQuizCompleted, "l", "c", nil)))
	require.NoError(t, m.Publish(ctx, NewLearningEvent(EventLessonCompleted, "l", "c", nil)))

	assert.Len(t, m.GetPublishedEvents(), 2)
	assert.Len(t, m.EventsOfType(EventQuizCompleted), 1)

	m.Err = assert.AnError
	assert.ErrorIs(t, m.Publish(ctx, NewLearningEvent(EventExamStarted, "l", "c", nil)), assert.AnError)

	m.ClearEvents()
	assert.Empty(t, m.GetPublishedEvents())
}

func TestNewLearningEvent(t *testing.T) {
	e := NewLearningEvent(EventExamTimeWarning, "learner", "course", ExamTimeWarningEvent{RemainingSeconds: 60})

	assert.NotEmpty(t, e.ID)
	assert.Equal(t, "learning-service", e.Source)
	assert.Equal(t, "1.0", e.Version)
	assert.WithinDuration(t, time.Now(), e.Timestamp, time.Minute)
}
