package queue

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"imdb/proj/internal/config"
	"imdb/proj/internal/lib/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type emailArgs struct {
	Subject   string `json:"subject"`
	Recipient string `json:"recipient"`
}

func testConfig() config.Queue {
	return config.Queue{
		Driver:        DriverGoChannel,
		Topic:         "tasks",
		BufferSize:    16,
		MaxRetries:    2,
		RetryInterval: time.Millisecond,
		CloseTimeout:  time.Second,
	}
}

func startConsumer(t *testing.T, cfg config.Queue, register func(c *Consumer)) *Publisher {
	t.Helper()
	log := logger.Discard()
	broker, err := NewBroker(cfg, log)
	require.NoError(t, err)
	consumer, err := NewConsumer(cfg, broker.Subscriber, log)
	require.NoError(t, err)
	register(consumer)

	ctx, cancel := context.WithCancel(context.Background())
	go consumer.Run(ctx)
	select {
	case <-consumer.Running():
	case <-time.After(5 * time.Second):
		t.Fatal("consumer did not start")
	}
	t.Cleanup(func() {
		cancel()
		consumer.Close()
		broker.Close()
	})
	return NewPublisher(broker.Publisher, cfg.Topic, log)
}

func TestEnqueueDispatchesToHandler(t *testing.T) {
	received := make(chan emailArgs, 1)
	pub := startConsumer(t, testConfig(), func(c *Consumer) {
		c.Handle("send_email", func(ctx context.Context, task Task) error {
			var args emailArgs
			if err := task.Decode(&args); err != nil {
				return err
			}
			received <- args
			return nil
		})
	})

	want := emailArgs{Subject: "hi", Recipient: "a@b.c"}
	require.NoError(t, pub.Enqueue(context.Background(), "send_email", want))

	select {
	case got := <-received:
		assert.Equal(t, want, got)
	case <-time.After(5 * time.Second):
		t.Fatal("task was not handled")
	}
}

func TestFailingTaskIsRetriedThenDropped(t *testing.T) {
	cfg := testConfig()
	var attempts atomic.Int32
	done := make(chan struct{}, 1)
	pub := startConsumer(t, cfg, func(c *Consumer) {
		c.Handle("flaky", func(ctx context.Context, task Task) error {
			attempts.Add(1)
			return errors.New("boom")
		})
		c.Handle("marker", func(ctx context.Context, task Task) error {
			done <- struct{}{}
			return nil
		})
	})

	require.NoError(t, pub.Enqueue(context.Background(), "flaky", nil))
	require.NoError(t, pub.Enqueue(context.Background(), "marker", nil))

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("queue stalled on failing task")
	}
	assert.Eventually(t, func() bool {
		return attempts.Load() == int32(cfg.MaxRetries+1)
	}, 5*time.Second, 10*time.Millisecond)
}

func TestUnknownTaskIsDropped(t *testing.T) {
	done := make(chan struct{}, 1)
	pub := startConsumer(t, testConfig(), func(c *Consumer) {
		c.Handle("known", func(ctx context.Context, task Task) error {
			done <- struct{}{}
			return nil
		})
	})
	require.NoError(t, pub.Enqueue(context.Background(), "unknown", map[string]int{"a": 1}))
	require.NoError(t, pub.Enqueue(context.Background(), "known", nil))
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("known task was not handled")
	}
}

func TestNewBrokerUnknownDriver(t *testing.T) {
	cfg := testConfig()
	cfg.Driver = "kafka"
	_, err := NewBroker(cfg, logger.Discard())
	assert.Error(t, err)
}
