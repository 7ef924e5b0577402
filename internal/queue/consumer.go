package queue

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"imdb/proj/internal/config"
	"imdb/proj/internal/lib/logger/sl"
	"imdb/proj/internal/metrics"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/goccy/go-json"
)

type HandlerFunc func(ctx context.Context, task Task) error

// Consumer routes tasks read from the broker to the handler registered for their name.
type Consumer struct {
	router *message.Router
	log    *slog.Logger

	mu       sync.RWMutex
	handlers map[string]HandlerFunc
}

func NewConsumer(cfg config.Queue, sub message.Subscriber, log *slog.Logger) (*Consumer, error) {
	logger := watermill.NewSlogLogger(log.With("component", "watermill"))
	router, err := message.NewRouter(message.RouterConfig{CloseTimeout: cfg.CloseTimeout}, logger)
	if err != nil {
		return nil, fmt.Errorf("create watermill router: %w", err)
	}
	c := &Consumer{
		router:   router,
		log:      log,
		handlers: make(map[string]HandlerFunc),
	}
	retry := middleware.Retry{
		MaxRetries:      cfg.MaxRetries,
		InitialInterval: cfg.RetryInterval,
		Multiplier:      2,
		Logger:          logger,
	}
	// outermost first
	router.AddMiddleware(c.dropFailed, retry.Middleware, middleware.Recoverer)
	router.AddConsumerHandler("tasks", cfg.Topic, sub, c.handle)
	return c, nil
}

// Handle registers h for tasks named name, replacing any previous handler.
func (c *Consumer) Handle(name string, h HandlerFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[name] = h
}

func (c *Consumer) handle(msg *message.Message) error {
	const op = "queue.Consumer.handle"
	log := c.log.With("op", op, "message_uuid", msg.UUID)
	var task Task
	if err := json.Unmarshal(msg.Payload, &task); err != nil {
		log.Error("malformed task payload, dropping", sl.Err(err))
		return nil
	}
	c.mu.RLock()
	h, ok := c.handlers[task.Name]
	c.mu.RUnlock()
	if !ok {
		log.Warn("no handler registered for task, dropping", "task", task.Name)
		return nil
	}
	if err := h(msg.Context(), task); err != nil {
		return fmt.Errorf("task %s: %w", task.Name, err)
	}
	metrics.TasksTotal.WithLabelValues(task.Name, "processed").Inc()
	return nil
}

// dropFailed acks messages whose handler still fails after all retries so the broker does not redeliver them forever.
func (c *Consumer) dropFailed(h message.HandlerFunc) message.HandlerFunc {
	return func(msg *message.Message) ([]*message.Message, error) {
		produced, err := h(msg)
		if err != nil {
			metrics.TasksTotal.WithLabelValues(msg.Metadata.Get("task"), "failed").Inc()
			c.log.Error("task failed", "message_uuid", msg.UUID, "task", msg.Metadata.Get("task"), sl.Err(err))
			return nil, nil
		}
		return produced, nil
	}
}

// Run blocks until ctx is canceled or Close is called.
func (c *Consumer) Run(ctx context.Context) error {
	return c.router.Run(ctx)
}

func (c *Consumer) Running() <-chan struct{} {
	return c.router.Running()
}

func (c *Consumer) Close() error {
	return c.router.Close()
}
