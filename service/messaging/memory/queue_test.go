package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type job struct {
	URL string
}

func TestQueue_PublishConsume(t *testing.T) {
	queue := NewQueue[job](DefaultConfig())
	ctx := context.Background()

	assert.NoError(t, queue.Publish(ctx, &job{URL: "https://example.org/article/1"}))
	assert.Equal(t, 1, queue.Size())

	msg, err := queue.Consume(ctx)
	assert.NoError(t, err)
	assert.Equal(t, "https://example.org/article/1", msg.T().URL)
	assert.NoError(t, msg.Ack())
	assert.Error(t, msg.Ack())
}

func TestQueue_NackRedelivers(t *testing.T) {
	config := Config{MaxRetries: 1, RetryDelay: time.Millisecond, DeadLetter: true, QueueBuffer: 4}
	queue := NewQueue[job](config)
	ctx := context.Background()

	assert.NoError(t, queue.Publish(ctx, &job{URL: "u"}))

	msg, err := queue.Consume(ctx)
	assert.NoError(t, err)
	assert.NoError(t, msg.Nack(errors.New("transient")))

	// redelivered once
	redelivered, err := queue.Consume(ctx)
	assert.NoError(t, err)
	assert.Equal(t, "u", redelivered.T().URL)

	// second failure exceeds MaxRetries and dead-letters
	assert.NoError(t, redelivered.Nack(errors.New("still failing")))
	assert.Eventually(t, func() bool { return queue.DLQSize() == 1 }, time.Second, 5*time.Millisecond)
}

func TestQueue_ConsumeHonoursContext(t *testing.T) {
	queue := NewQueue[job](DefaultConfig())
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := queue.Consume(ctx)
	assert.Error(t, err)
}
